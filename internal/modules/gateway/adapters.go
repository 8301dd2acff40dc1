package gateway

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
)

// ── Card Adapter ──────────────────────────────────────────────────────────────
// Synchronous card processor. Charges settle within the request; stored
// payment sources are supported via provider-side tokenization.

type cardGateway struct {
	id              string
	apiKey          string
	apiSecret       string
	env             string // sandbox | production
	frontendEnabled bool
}

func NewCardGateway(id, apiKey, apiSecret, env string, frontendEnabled bool) Gateway {
	return &cardGateway{id: id, apiKey: apiKey, apiSecret: apiSecret, env: env, frontendEnabled: frontendEnabled}
}

func (g *cardGateway) ID() string                   { return g.id }
func (g *cardGateway) FrontendEnabled() bool        { return g.frontendEnabled }
func (g *cardGateway) SupportsPaymentSources() bool { return true }

func (g *cardGateway) NewPaymentForm() *PaymentForm {
	return &PaymentForm{GatewayID: g.id}
}

func (g *cardGateway) PopulateFromSource(form *PaymentForm, token string) error {
	form.SourceToken = token
	return nil
}

func (g *cardGateway) CreateSourceToken(ctx context.Context, form *PaymentForm) (string, string, error) {
	if form.Token == "" && form.CardNumber == "" {
		return "", "", fmt.Errorf("no payment details to tokenize")
	}

	// ── PRODUCTION INTEGRATION POINT ──────────────────────────────────────────
	// POST /v1/customers + /v1/payment_methods with the one-time token,
	// store the returned payment method id.
	// ──────────────────────────────────────────────────────────────────────────

	description := "stored card"
	if n := len(form.CardNumber); n >= 4 {
		description = "card ending in " + form.CardNumber[n-4:]
	}
	return "src_" + randomRef(), description, nil
}

func (g *cardGateway) Charge(ctx context.Context, req *ChargeRequest, form *PaymentForm) (*ChargeResult, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be greater than 0")
	}
	if form.SourceToken == "" && form.Token == "" && form.CardNumber == "" {
		return nil, fmt.Errorf("no payment details provided")
	}

	// ── PRODUCTION INTEGRATION POINT ──────────────────────────────────────────
	// POST /v1/charges with amount, currency, source, metadata {order, txn}.
	// ──────────────────────────────────────────────────────────────────────────

	ref := "ch_" + randomRef()
	resp, _ := json.Marshal(map[string]string{"id": ref, "status": "succeeded"})
	return &ChargeResult{
		Success:     true,
		ProviderRef: ref,
		Response:    resp,
		Message:     "charge succeeded",
	}, nil
}

func (g *cardGateway) CompletePayment(ctx context.Context, req *CompleteRequest) (*CompleteResult, error) {
	// Card charges settle synchronously; there is nothing to complete.
	return nil, ErrNotSupported
}

// ── Hosted Page Adapter ───────────────────────────────────────────────────────
// Off-site processor: Charge returns a redirect to the provider's hosted
// payment page, and the provider calls back with the transaction hash once
// the customer has paid.

type hostedPageGateway struct {
	id              string
	merchantID      string
	secret          string
	baseURL         string
	completeURL     string // our own completion endpoint, given to the provider
	frontendEnabled bool
}

func NewHostedPageGateway(id, merchantID, secret, baseURL, completeURL string, frontendEnabled bool) Gateway {
	return &hostedPageGateway{
		id:              id,
		merchantID:      merchantID,
		secret:          secret,
		baseURL:         baseURL,
		completeURL:     completeURL,
		frontendEnabled: frontendEnabled,
	}
}

func (g *hostedPageGateway) ID() string                   { return g.id }
func (g *hostedPageGateway) FrontendEnabled() bool        { return g.frontendEnabled }
func (g *hostedPageGateway) SupportsPaymentSources() bool { return false }

func (g *hostedPageGateway) NewPaymentForm() *PaymentForm {
	return &PaymentForm{GatewayID: g.id, Token: "hosted"}
}

func (g *hostedPageGateway) PopulateFromSource(form *PaymentForm, token string) error {
	return ErrNotSupported
}

func (g *hostedPageGateway) CreateSourceToken(ctx context.Context, form *PaymentForm) (string, string, error) {
	return "", "", ErrNotSupported
}

func (g *hostedPageGateway) Charge(ctx context.Context, req *ChargeRequest, form *PaymentForm) (*ChargeResult, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be greater than 0")
	}

	// ── PRODUCTION INTEGRATION POINT ──────────────────────────────────────────
	// POST /v2/sessions with merchant id, amount, currency and the notify
	// URL; redirect the customer to the returned session URL.
	// ──────────────────────────────────────────────────────────────────────────

	notify := fmt.Sprintf("%s?commerceTransactionHash=%s", g.completeURL, url.QueryEscape(req.TransactionHash))
	redirect := fmt.Sprintf("%s/session/%s?merchant=%s&amount=%.2f&currency=%s&notify=%s",
		g.baseURL, req.TransactionRef, url.QueryEscape(g.merchantID),
		req.Amount, url.QueryEscape(req.Currency), url.QueryEscape(notify))

	return &ChargeResult{RedirectURL: redirect, ProviderRef: req.TransactionRef}, nil
}

func (g *hostedPageGateway) CompletePayment(ctx context.Context, req *CompleteRequest) (*CompleteResult, error) {
	// ── PRODUCTION INTEGRATION POINT ──────────────────────────────────────────
	// GET /v2/sessions/{ref} and verify the signed status before trusting it.
	// ──────────────────────────────────────────────────────────────────────────

	resp, _ := json.Marshal(map[string]string{"session": req.TransactionRef, "status": "paid"})
	return &CompleteResult{Success: true, Response: resp, Message: "payment confirmed"}, nil
}

func randomRef() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		panic("gateway: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}
