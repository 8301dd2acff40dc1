package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when no gateway matches the requested id.
var ErrNotFound = errors.New("gateway not found")

// ErrNotSupported is returned by a gateway asked for a capability it does
// not have, such as resuming a stored payment source.
var ErrNotSupported = errors.New("operation not supported by gateway")

// Gateway is the processor-agnostic interface every payment adapter must
// implement. The checkout pipeline depends only on this interface; adding a
// provider means adding an adapter and registering it.
type Gateway interface {
	// ID is the stable identifier the registry and orders key on.
	ID() string
	// FrontendEnabled reports whether site-originated requests may select
	// this gateway.
	FrontendEnabled() bool
	// SupportsPaymentSources reports whether the gateway can tokenize and
	// resume stored payment instruments.
	SupportsPaymentSources() bool
	// NewPaymentForm returns an empty payment form for this gateway.
	NewPaymentForm() *PaymentForm
	// PopulateFromSource fills the form from a stored instrument token.
	// Gateways without stored-instrument support return ErrNotSupported.
	PopulateFromSource(form *PaymentForm, token string) error
	// CreateSourceToken tokenizes the form's payment details with the
	// provider so they can be reused later.
	CreateSourceToken(ctx context.Context, form *PaymentForm) (token, description string, err error)
	// Charge submits a payment. It returns either a terminal result or a
	// redirect URL for an off-site flow.
	Charge(ctx context.Context, req *ChargeRequest, form *PaymentForm) (*ChargeResult, error)
	// CompletePayment finalizes an off-site payment identified by the
	// original charge request. It must be idempotent on the provider side.
	CompletePayment(ctx context.Context, req *CompleteRequest) (*CompleteResult, error)
}

// ChargeRequest carries everything a gateway needs to submit a payment. It
// deliberately holds plain values rather than the order aggregate.
type ChargeRequest struct {
	OrderNumber     string
	Email           string
	Amount          float64
	Currency        string
	ReturnURL       string
	CancelURL       string
	TransactionRef  string
	TransactionHash string
}

// ChargeResult is the outcome of a charge. A non-empty RedirectURL means the
// customer must finish off-site and Success is not yet known.
type ChargeResult struct {
	Success     bool
	RedirectURL string
	ProviderRef string
	Response    json.RawMessage
	Message     string
}

// CompleteRequest identifies the off-site payment being finalized.
type CompleteRequest struct {
	TransactionRef  string
	TransactionHash string
	ProviderRef     string
}

// CompleteResult is the provider's verdict for an off-site payment.
type CompleteResult struct {
	Success  bool
	Response json.RawMessage
	Message  string
}

// Registry maps gateway ids to their adapters.
type Registry map[string]Gateway

// ByID resolves a gateway id.
func (r Registry) ByID(id string) (Gateway, error) {
	gw, ok := r[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return gw, nil
}
