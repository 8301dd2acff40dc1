package checkout

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/commercekit/checkout-backend/internal/modules/order"
)

// renderOrderTemplate renders a caller-supplied URL template against the
// order, e.g. "/orders/{{.Number}}/thanks".
func renderOrderTemplate(tpl string, o *order.Order) (string, error) {
	if !strings.Contains(tpl, "{{") {
		return tpl, nil
	}
	t, err := template.New("url").Parse(tpl)
	if err != nil {
		return "", fmt.Errorf("parse url template: %w", err)
	}
	var b strings.Builder
	if err := t.Execute(&b, o); err != nil {
		return "", fmt.Errorf("render url template: %w", err)
	}
	return b.String(), nil
}
