package checkout

import (
	"github.com/commercekit/checkout-backend/internal/modules/gateway"
	"github.com/commercekit/checkout-backend/internal/modules/order"
)

// FailureCode identifies which guard stopped a payment submission. Guard
// failures are values threaded through the pipeline, never panics: the first
// failing guard short-circuits the rest.
type FailureCode string

const (
	FailOrderNotFound           FailureCode = "order_not_found"
	FailEmailRequired           FailureCode = "email_required"
	FailShippingAddressRequired FailureCode = "shipping_address_required"
	FailBillingAddressRequired  FailureCode = "billing_address_required"
	FailCurrencyInvalid         FailureCode = "currency_invalid"
	FailGatewayInvalid          FailureCode = "gateway_invalid"
	FailNoGatewaySelected       FailureCode = "no_gateway_selected"
	FailCannotSelectSource      FailureCode = "cannot_select_payment_source"
	FailSourceUnavailable       FailureCode = "payment_source_unavailable"
	FailNoEmail                 FailureCode = "no_email_on_cart"
	FailRedirectInvalid         FailureCode = "redirect_invalid"
	FailOrderChanged            FailureCode = "order_changed"
	FailInvalidPaymentOrOrder   FailureCode = "invalid_payment_or_order"
	FailPaymentFailed           FailureCode = "payment_failed"
	FailInternal                FailureCode = "internal_error"
)

// Failure is a typed guard failure with a human-readable message. Field
// names the order attribute the failure attaches to, when there is one.
type Failure struct {
	Code    FailureCode
	Message string
	Field   string
}

// Outcome is the single terminal result of a payment submission.
type Outcome struct {
	Success        bool
	RedirectURL    string
	TransactionRef string
	Order          *order.Order
	Form           *gateway.PaymentForm
	Failure        *Failure
}

func failed(code FailureCode, message string) *Outcome {
	return &Outcome{Failure: &Failure{Code: code, Message: message}}
}

// CompleteOutcome is the result of finalizing an off-site payment.
type CompleteOutcome struct {
	Success bool
	// URL is the order's return URL on success, its cancel URL otherwise.
	URL      string
	Message  string
	NotFound bool
}

// SubmitRequest is the parsed payment submission. PaymentCurrency
// distinguishes an absent parameter (nil) from an explicit empty string,
// which resets the order to the primary payment currency.
type SubmitRequest struct {
	OrderNumber       string
	Email             string
	PaymentCurrency   *string
	GatewayID         string
	SavePaymentSource bool
	Fields            map[string]string
	ReturnURL         string
	CancelURL         string
	Params            map[string]string
	// SiteRequest marks public, site-originated submissions, which may only
	// select frontend-enabled gateways.
	SiteRequest bool
}

// Settings holds the checkout policy toggles.
type Settings struct {
	RequireShippingAddress bool
	RequireBillingAddress  bool
}

// snapshot is the consistency triple captured before any further mutation
// and compared again after the forced recomputation.
type snapshot struct {
	balance     float64
	qty         int
	adjustments int
}

func snapshotOf(o *order.Order) snapshot {
	return snapshot{balance: o.OutstandingBalance, qty: o.TotalQty, adjustments: o.AdjustmentCount}
}
