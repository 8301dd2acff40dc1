package order

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethodKind discriminates how an order pays.
type PaymentMethodKind int

const (
	// NoPaymentMethod means the order has not chosen how to pay yet.
	NoPaymentMethod PaymentMethodKind = iota
	// PayByGateway pays through a gateway with fresh payment details.
	PayByGateway
	// PayByStoredSource pays through a saved payment source.
	PayByStoredSource
)

// PaymentMethod is a tagged union over {none, gateway, stored source}. An
// order is always in exactly one of the three states; the two id fields are
// never set at the same time.
type PaymentMethod struct {
	Kind            PaymentMethodKind
	GatewayID       string
	PaymentSourceID uuid.UUID
}

// GatewayMethod selects payment through the given gateway.
func GatewayMethod(gatewayID string) PaymentMethod {
	return PaymentMethod{Kind: PayByGateway, GatewayID: gatewayID}
}

// StoredSourceMethod selects payment through a saved payment source.
func StoredSourceMethod(sourceID uuid.UUID) PaymentMethod {
	return PaymentMethod{Kind: PayByStoredSource, PaymentSourceID: sourceID}
}

// Order is the central aggregate. While IsCompleted is false the order is an
// active cart and mutable; once completed it is immutable apart from its
// transaction history.
type Order struct {
	ID                 uuid.UUID         `json:"id"`
	Number             string            `json:"number"`
	IsCompleted        bool              `json:"is_completed"`
	CustomerID         *uuid.UUID        `json:"customer_id,omitempty"`
	Email              string            `json:"email,omitempty"`
	Currency           string            `json:"currency"`
	PaymentCurrency    string            `json:"payment_currency,omitempty"`
	Locale             string            `json:"locale"`
	LastIP             string            `json:"last_ip,omitempty"`
	Method             PaymentMethod     `json:"-"`
	BillingAddressID   *uuid.UUID        `json:"billing_address_id,omitempty"`
	ShippingAddressID  *uuid.UUID        `json:"shipping_address_id,omitempty"`
	OutstandingBalance float64           `json:"outstanding_balance"`
	TotalQty           int               `json:"total_qty"`
	AdjustmentCount    int               `json:"adjustment_count"`
	ReturnURL          string            `json:"return_url,omitempty"`
	CancelURL          string            `json:"cancel_url,omitempty"`
	Fields             map[string]string `json:"fields,omitempty"`
	Version            int               `json:"version"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`

	errs map[string][]string
}

// IsActiveCart reports whether the order is still a mutable cart.
func (o *Order) IsActiveCart() bool { return !o.IsCompleted }

// AddError records a field-level validation error on the order. Errors live
// only for the current request; they are never persisted.
func (o *Order) AddError(field, message string) {
	if o.errs == nil {
		o.errs = map[string][]string{}
	}
	o.errs[field] = append(o.errs[field], message)
}

// HasErrors reports whether any field-level error has been recorded.
func (o *Order) HasErrors() bool { return len(o.errs) > 0 }

// FieldErrors returns the recorded field-level errors.
func (o *Order) FieldErrors() map[string][]string { return o.errs }

// PaymentCurrencyOrDefault returns the selected payment currency, falling
// back to the order currency.
func (o *Order) PaymentCurrencyOrDefault() string {
	if o.PaymentCurrency != "" {
		return o.PaymentCurrency
	}
	return o.Currency
}

// SetFieldValue stores a custom field value on the order.
func (o *Order) SetFieldValue(name, value string) {
	if o.Fields == nil {
		o.Fields = map[string]string{}
	}
	o.Fields[name] = value
}

// Validate runs the order's own field validation and records failures as
// field errors.
func (o *Order) Validate() bool {
	if o.Email == "" {
		o.AddError("email", "email is required")
	}
	if o.Currency == "" {
		o.AddError("currency", "currency is required")
	}
	return !o.HasErrors()
}
