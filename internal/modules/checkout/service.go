package checkout

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/commercekit/checkout-backend/internal/modules/cart"
	"github.com/commercekit/checkout-backend/internal/modules/currency"
	"github.com/commercekit/checkout-backend/internal/modules/gateway"
	"github.com/commercekit/checkout-backend/internal/modules/identity"
	"github.com/commercekit/checkout-backend/internal/modules/order"
	"github.com/commercekit/checkout-backend/internal/modules/paymentsource"
	"github.com/commercekit/checkout-backend/internal/modules/transaction"
)

// Service validates a payment submission end-to-end and dispatches it, and
// finalizes off-site payments coming back from a gateway.
type Service interface {
	// SubmitPayment runs the full guard pipeline against the resolved order
	// and, if every guard passes, dispatches the charge. It always returns
	// a single terminal Outcome; guard failures never escape as errors.
	SubmitPayment(ctx context.Context, sc *cart.Context, req *SubmitRequest) *Outcome

	// CompletePayment finalizes the transaction behind an opaque hash.
	// Repeated calls for an already-finalized transaction are idempotent.
	CompletePayment(ctx context.Context, hash string) *CompleteOutcome
}

type service struct {
	carts        cart.Service
	orders       order.Repository
	transactions transaction.Repository
	currencies   currency.Repository
	gateways     gateway.Registry
	sources      paymentsource.Service
	settings     Settings
	metrics      *Metrics
}

// NewService creates a new checkout service.
func NewService(
	carts cart.Service,
	orders order.Repository,
	transactions transaction.Repository,
	currencies currency.Repository,
	gateways gateway.Registry,
	sources paymentsource.Service,
	settings Settings,
	metrics *Metrics,
) Service {
	return &service{
		carts:        carts,
		orders:       orders,
		transactions: transactions,
		currencies:   currencies,
		gateways:     gateways,
		sources:      sources,
		settings:     settings,
		metrics:      metrics,
	}
}

func (s *service) SubmitPayment(ctx context.Context, sc *cart.Context, req *SubmitRequest) *Outcome {
	out := s.submit(ctx, sc, req)
	if out.Failure != nil {
		s.metrics.submission(string(out.Failure.Code))
	} else {
		s.metrics.submission("success")
	}
	return out
}

func (s *service) submit(ctx context.Context, sc *cart.Context, req *SubmitRequest) *Outcome {
	// Resolve the order: an explicit number wins, otherwise the session's
	// active cart.
	var o *order.Order
	if req.OrderNumber != "" {
		var err error
		o, err = s.orders.GetByNumber(ctx, req.OrderNumber)
		if errors.Is(err, order.ErrNotFound) {
			return failed(FailOrderNotFound, "Can not find an order to pay.")
		}
		if err != nil {
			return failed(FailInternal, "Could not load the order.")
		}
	} else {
		var err error
		o, err = s.carts.GetCart(ctx, sc)
		if err != nil {
			return failed(FailInternal, "Could not load the cart.")
		}
	}

	// Paying on someone else's order, or on a completed one, needs either
	// the manage-orders capability or the order's exact email address.
	ownActiveCart := s.carts.IsActiveCart(ctx, sc, o)
	if !ownActiveCart && !sc.Identity.HasCapability(identity.CapManageOrders) {
		if o.Email == "" || req.Email != o.Email {
			return failed(FailEmailRequired, "Email required to make payments on this order.")
		}
	}

	if s.settings.RequireShippingAddress && o.ShippingAddressID == nil {
		return failed(FailShippingAddressRequired, "Shipping address required.")
	}
	if s.settings.RequireBillingAddress && o.BillingAddressID == nil {
		return failed(FailBillingAddressRequired, "Billing address required.")
	}

	// Captured before any further mutation; compared again after the forced
	// recomputation right before dispatch.
	snap := snapshotOf(o)

	// An explicit empty string resets to the primary payment currency; an
	// absent parameter leaves the order untouched.
	if req.PaymentCurrency != nil {
		if fail := s.setPaymentCurrency(ctx, o, *req.PaymentCurrency); fail != nil {
			return &Outcome{Order: o, Failure: fail}
		}
	}

	if req.GatewayID != "" && (o.Method.Kind != order.PayByGateway || o.Method.GatewayID != req.GatewayID) {
		gw, err := s.gateways.ByID(req.GatewayID)
		if err != nil || (req.SiteRequest && !gw.FrontendEnabled()) {
			msg := "Payment gateway does not exist or is not allowed."
			o.AddError("gatewayId", msg)
			return &Outcome{Order: o, Failure: &Failure{Code: FailGatewayInvalid, Message: msg, Field: "gatewayId"}}
		}
		o.Method = order.GatewayMethod(gw.ID())
	}

	gw, src, fail := s.resolvePaymentMethod(ctx, o)
	if fail != nil {
		return &Outcome{Order: o, Failure: fail}
	}

	form := gw.NewPaymentForm()
	form.Populate(req.Params)

	if req.SavePaymentSource && gw.SupportsPaymentSources() {
		if sc.Identity == nil || sc.Identity.Guest {
			return &Outcome{Order: o, Form: form, Failure: &Failure{Code: FailCannotSelectSource, Message: "Cannot select payment source."}}
		}
		created, err := s.sources.Create(ctx, sc.Identity.CustomerID, gw, form)
		if err != nil || created.CustomerID != sc.Identity.CustomerID {
			return &Outcome{Order: o, Form: form, Failure: &Failure{Code: FailCannotSelectSource, Message: "Cannot select payment source."}}
		}
		src = created
		// The order now pays through the stored instrument; the raw gateway
		// selection is superseded.
		o.Method = order.StoredSourceMethod(src.ID)
	}

	if src != nil {
		if sc.Identity == nil || sc.Identity.Guest || src.CustomerID != sc.Identity.CustomerID {
			return &Outcome{Order: o, Form: form, Failure: &Failure{Code: FailCannotSelectSource, Message: "Cannot select payment source."}}
		}
		if err := gw.PopulateFromSource(form, src.Token); err != nil {
			// Deliberately generic: the capability mismatch is not the
			// customer's problem to reason about.
			return &Outcome{Order: o, Form: form, Failure: &Failure{Code: FailSourceUnavailable, Message: "Unable to make payment at this time."}}
		}
	}

	if ownActiveCart || sc.Identity.HasCapability(identity.CapManageOrders) {
		for k, v := range req.Fields {
			o.SetFieldValue(k, v)
		}
	}

	if o.Email == "" {
		return &Outcome{Order: o, Form: form, Failure: &Failure{Code: FailNoEmail, Message: "No customer email address exists on this cart."}}
	}

	if req.ReturnURL != "" || req.CancelURL != "" {
		returnURL, err := renderOrderTemplate(req.ReturnURL, o)
		if err != nil {
			return &Outcome{Order: o, Form: form, Failure: &Failure{Code: FailRedirectInvalid, Message: "Invalid redirect URL."}}
		}
		cancelURL, err := renderOrderTemplate(req.CancelURL, o)
		if err != nil {
			return &Outcome{Order: o, Form: form, Failure: &Failure{Code: FailRedirectInvalid, Message: "Invalid cancel URL."}}
		}
		o.ReturnURL = returnURL
		o.CancelURL = cancelURL
	}

	// One final save to confirm the price does not change out from under
	// the customer. Save recomputes price, quantity and adjustments from
	// current catalog and discount state.
	changedMsg := "Something changed with the order before payment, please review your order and submit payment again."
	if err := s.orders.Save(ctx, o); err != nil {
		if errors.Is(err, order.ErrVersionConflict) {
			return &Outcome{Order: o, Form: form, Failure: &Failure{Code: FailOrderChanged, Message: changedMsg}}
		}
		return &Outcome{Order: o, Form: form, Failure: &Failure{Code: FailInternal, Message: "Could not save the order."}}
	}

	priceChanged := snap.balance != o.OutstandingBalance
	qtyChanged := snap.qty != o.TotalQty
	adjustmentsChanged := snap.adjustments != o.AdjustmentCount
	if priceChanged || qtyChanged || adjustmentsChanged {
		if priceChanged {
			o.AddError("totalPrice", "The total price of the order changed.")
		}
		if qtyChanged {
			o.AddError("totalQty", "The total quantity of items within the order changed.")
		}
		if adjustmentsChanged {
			o.AddError("totalAdjustments", "The total number of order adjustments changed.")
		}
		return &Outcome{Order: o, Form: form, Failure: &Failure{Code: FailOrderChanged, Message: changedMsg}}
	}

	form.Validate()
	o.Validate()
	if form.HasErrors() || o.HasErrors() {
		return &Outcome{Order: o, Form: form, Failure: &Failure{Code: FailInvalidPaymentOrOrder, Message: "Invalid payment or order. Please review."}}
	}

	return s.dispatch(ctx, o, gw, form)
}

func (s *service) dispatch(ctx context.Context, o *order.Order, gw gateway.Gateway, form *gateway.PaymentForm) *Outcome {
	txn := &transaction.Transaction{
		OrderNumber: o.Number,
		GatewayID:   gw.ID(),
		Amount:      o.OutstandingBalance,
		Currency:    o.PaymentCurrencyOrDefault(),
		Status:      transaction.StatusPending,
	}
	if err := s.transactions.Create(ctx, txn); err != nil {
		return &Outcome{Order: o, Form: form, Failure: &Failure{Code: FailInternal, Message: "Could not create the payment transaction."}}
	}

	res, err := gw.Charge(ctx, &gateway.ChargeRequest{
		OrderNumber:     o.Number,
		Email:           o.Email,
		Amount:          txn.Amount,
		Currency:        txn.Currency,
		ReturnURL:       o.ReturnURL,
		CancelURL:       o.CancelURL,
		TransactionRef:  txn.Reference,
		TransactionHash: txn.Hash,
	}, form)
	if err != nil {
		// No automatic retry: a resubmission re-runs the full guard
		// pipeline from scratch.
		_ = s.transactions.Finalize(ctx, txn.Hash, transaction.StatusFailed, nil, err.Error())
		return &Outcome{Order: o, Form: form, Failure: &Failure{Code: FailPaymentFailed, Message: err.Error()}}
	}

	if res.RedirectURL != "" {
		// Off-site flow: the transaction stays pending until the gateway
		// calls back with the hash.
		return &Outcome{Success: true, RedirectURL: res.RedirectURL, TransactionRef: txn.Reference, Order: o, Form: form}
	}

	if !res.Success {
		_ = s.transactions.Finalize(ctx, txn.Hash, transaction.StatusFailed, res.Response, res.Message)
		msg := res.Message
		if msg == "" {
			msg = "Payment was declined."
		}
		return &Outcome{Order: o, Form: form, Failure: &Failure{Code: FailPaymentFailed, Message: msg}}
	}

	_ = s.transactions.Finalize(ctx, txn.Hash, transaction.StatusSuccess, res.Response, res.Message)
	return &Outcome{Success: true, TransactionRef: txn.Reference, Order: o, Form: form}
}

func (s *service) CompletePayment(ctx context.Context, hash string) *CompleteOutcome {
	out := s.complete(ctx, hash)
	switch {
	case out.NotFound:
		s.metrics.completion("not_found")
	case out.Success:
		s.metrics.completion("success")
	default:
		s.metrics.completion("failed")
	}
	return out
}

func (s *service) complete(ctx context.Context, hash string) *CompleteOutcome {
	if hash == "" {
		return &CompleteOutcome{NotFound: true, Message: "Can not complete payment for missing transaction."}
	}
	txn, err := s.transactions.GetByHash(ctx, hash)
	if err != nil {
		return &CompleteOutcome{NotFound: true, Message: "Can not complete payment for missing transaction."}
	}

	var returnURL, cancelURL string
	if o, err := s.orders.GetByNumber(ctx, txn.OrderNumber); err == nil {
		returnURL = o.ReturnURL
		cancelURL = o.CancelURL
	}

	// Replays of an already-finalized transaction route on the recorded
	// verdict without touching any state.
	if txn.IsTerminal() {
		if txn.Status == transaction.StatusSuccess {
			return &CompleteOutcome{Success: true, URL: returnURL}
		}
		return &CompleteOutcome{URL: cancelURL, Message: txn.Message}
	}

	gw, err := s.gateways.ByID(txn.GatewayID)
	if err != nil {
		_ = s.transactions.Finalize(ctx, hash, transaction.StatusFailed, nil, "gateway no longer configured")
		return &CompleteOutcome{URL: cancelURL, Message: "Unable to complete payment at this time."}
	}

	res, err := gw.CompletePayment(ctx, &gateway.CompleteRequest{
		TransactionRef:  txn.Reference,
		TransactionHash: txn.Hash,
	})

	success := err == nil && res.Success
	var response json.RawMessage
	var message string
	if err != nil {
		message = err.Error()
	} else {
		response = res.Response
		message = res.Message
	}

	status := transaction.StatusFailed
	if success {
		status = transaction.StatusSuccess
	}
	if ferr := s.transactions.Finalize(ctx, hash, status, response, message); errors.Is(ferr, transaction.ErrAlreadyFinalized) {
		// The synchronous path or a concurrent callback won; trust the
		// stored verdict.
		if current, gerr := s.transactions.GetByHash(ctx, hash); gerr == nil {
			success = current.Status == transaction.StatusSuccess
			message = current.Message
		}
	}

	if success {
		return &CompleteOutcome{Success: true, URL: returnURL}
	}
	return &CompleteOutcome{URL: cancelURL, Message: message}
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (s *service) setPaymentCurrency(ctx context.Context, o *order.Order, code string) *Failure {
	if code == "" {
		primary, err := s.currencies.GetPrimary(ctx)
		if err != nil {
			msg := "No primary payment currency is configured."
			o.AddError("paymentCurrency", msg)
			return &Failure{Code: FailCurrencyInvalid, Message: msg, Field: "paymentCurrency"}
		}
		o.PaymentCurrency = primary.ISO
		return nil
	}

	cur, err := s.currencies.GetByISO(ctx, code)
	if err != nil {
		msg := "Payment currency is not supported."
		o.AddError("paymentCurrency", msg)
		return &Failure{Code: FailCurrencyInvalid, Message: msg, Field: "paymentCurrency"}
	}
	o.PaymentCurrency = cur.ISO
	return nil
}

func (s *service) resolvePaymentMethod(ctx context.Context, o *order.Order) (gateway.Gateway, *paymentsource.PaymentSource, *Failure) {
	noGateway := &Failure{Code: FailNoGatewaySelected, Message: "There is no gateway selected for this order."}

	switch o.Method.Kind {
	case order.PayByGateway:
		gw, err := s.gateways.ByID(o.Method.GatewayID)
		if err != nil {
			return nil, nil, noGateway
		}
		return gw, nil, nil
	case order.PayByStoredSource:
		src, err := s.sources.GetByID(ctx, o.Method.PaymentSourceID)
		if err != nil {
			return nil, nil, noGateway
		}
		gw, err := s.gateways.ByID(src.GatewayID)
		if err != nil {
			return nil, nil, noGateway
		}
		return gw, src, nil
	default:
		return nil, nil, noGateway
	}
}
