package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercekit/checkout-backend/internal/modules/cart"
	"github.com/commercekit/checkout-backend/internal/modules/gateway"
	"github.com/commercekit/checkout-backend/internal/modules/identity"
	"github.com/commercekit/checkout-backend/internal/modules/order"
)

type stubService struct {
	out         *Outcome
	completeOut *CompleteOutcome
	lastReq     *SubmitRequest
	lastHash    string
}

func (s *stubService) SubmitPayment(ctx context.Context, sc *cart.Context, req *SubmitRequest) *Outcome {
	s.lastReq = req
	return s.out
}

func (s *stubService) CompletePayment(ctx context.Context, hash string) *CompleteOutcome {
	s.lastHash = hash
	return s.completeOut
}

type stubIdentities struct{ ident *identity.Identity }

func (s *stubIdentities) Login(ctx context.Context, email, password string) (string, error) {
	return "", nil
}
func (s *stubIdentities) Verify(token string) (*identity.Identity, error) { return s.ident, nil }
func (s *stubIdentities) FromRequest(r *http.Request, sessionID string) *identity.Identity {
	if s.ident != nil {
		return s.ident
	}
	return identity.GuestIdentity(sessionID)
}

type handlerFixture struct {
	svc      *stubService
	sessions cart.SessionStore
	router   *chi.Mux
}

func newHandlerFixture(ident *identity.Identity) *handlerFixture {
	f := &handlerFixture{
		svc:      &stubService{},
		sessions: cart.NewMemoryStore(),
	}
	f.router = chi.NewRouter()
	NewHandler(f.svc, &stubIdentities{ident: ident}, f.sessions).RegisterRoutes(f.router)
	return f
}

func (f *handlerFixture) post(path string, form url.Values, jsonMode bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if jsonMode {
		req.Header.Set("Accept", "application/json")
	}
	req.AddCookie(&http.Cookie{Name: cart.SessionCookie, Value: "sess-1"})
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestPaySuccessJSON(t *testing.T) {
	f := newHandlerFixture(nil)
	f.svc.out = &Outcome{Success: true, TransactionRef: "REF-123"}

	w := f.post("/api/v1/checkout/pay", url.Values{"number": {"4242424242424242"}}, true)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "REF-123", body["transactionId"])
	assert.NotContains(t, body, "redirect")
}

func TestPayOffsiteRedirectJSON(t *testing.T) {
	f := newHandlerFixture(nil)
	f.svc.out = &Outcome{Success: true, RedirectURL: "https://pay.example.com/s/1", TransactionRef: "REF-123"}

	w := f.post("/api/v1/checkout/pay", url.Values{}, true)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "https://pay.example.com/s/1", body["redirect"])
}

func TestPayFailureJSONCarriesFieldErrors(t *testing.T) {
	f := newHandlerFixture(nil)
	o := &order.Order{Number: "abc123"}
	o.AddError("totalPrice", "The total price of the order changed.")
	form := &gateway.PaymentForm{}
	form.AddError("cvv", "security code is required")
	f.svc.out = &Outcome{
		Order:   o,
		Form:    form,
		Failure: &Failure{Code: FailOrderChanged, Message: "Something changed with the order before payment, please review your order and submit payment again."},
	}

	w := f.post("/api/v1/checkout/pay", url.Values{}, true)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Contains(t, body["error"], "Something changed")
	assert.Contains(t, body["order"].(map[string]interface{}), "totalPrice")
	assert.Contains(t, body["paymentForm"].(map[string]interface{}), "cvv")
}

func TestPayFailureStatusMapping(t *testing.T) {
	cases := []struct {
		code   FailureCode
		status int
	}{
		{FailOrderNotFound, http.StatusNotFound},
		{FailEmailRequired, http.StatusForbidden},
		{FailCannotSelectSource, http.StatusForbidden},
		{FailInternal, http.StatusInternalServerError},
		{FailNoGatewaySelected, http.StatusBadRequest},
	}
	for _, tc := range cases {
		f := newHandlerFixture(nil)
		f.svc.out = &Outcome{Failure: &Failure{Code: tc.code, Message: "nope"}}
		w := f.post("/api/v1/checkout/pay", url.Values{}, true)
		assert.Equal(t, tc.status, w.Code, string(tc.code))
	}
}

func TestPayBrowserFailureRedirectsWithFlash(t *testing.T) {
	f := newHandlerFixture(nil)
	f.svc.out = &Outcome{Failure: &Failure{Code: FailNoEmail, Message: "No customer email address exists on this cart."}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/pay", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", "/checkout/payment")
	req.AddCookie(&http.Cookie{Name: cart.SessionCookie, Value: "sess-1"})
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/checkout/payment", w.Header().Get("Location"))
	flash, err := f.sessions.Flash(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "No customer email address exists on this cart.", flash)
}

func TestPayBrowserSuccessPrefersGatewayRedirect(t *testing.T) {
	f := newHandlerFixture(nil)
	f.svc.out = &Outcome{
		Success:     true,
		RedirectURL: "https://pay.example.com/s/1",
		Order:       &order.Order{Number: "abc123", ReturnURL: "/thanks"},
	}

	w := f.post("/api/v1/checkout/pay", url.Values{}, false)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "https://pay.example.com/s/1", w.Header().Get("Location"))

	f.svc.out = &Outcome{Success: true, Order: &order.Order{Number: "abc123", ReturnURL: "/thanks"}}
	w = f.post("/api/v1/checkout/pay", url.Values{}, false)
	assert.Equal(t, "/thanks", w.Header().Get("Location"))
}

func TestPayParsesSubmitRequest(t *testing.T) {
	f := newHandlerFixture(nil)
	f.svc.out = &Outcome{Success: true}

	form := url.Values{
		"orderNumber":       {"abc123"},
		"email":             {"buyer@example.com"},
		"gatewayId":         {"card"},
		"paymentCurrency":   {""},
		"savePaymentSource": {"on"},
		"redirect":          {"/thanks"},
		"cancelUrl":         {"/cancelled"},
		"fields[gift]":      {"yes"},
		"number":            {"4242424242424242"},
	}
	f.post("/api/v1/checkout/pay", form, true)

	req := f.svc.lastReq
	require.NotNil(t, req)
	assert.Equal(t, "abc123", req.OrderNumber)
	assert.Equal(t, "buyer@example.com", req.Email)
	assert.Equal(t, "card", req.GatewayID)
	assert.True(t, req.SavePaymentSource)
	assert.Equal(t, "/thanks", req.ReturnURL)
	assert.Equal(t, "/cancelled", req.CancelURL)
	assert.Equal(t, "yes", req.Fields["gift"])
	assert.Equal(t, "4242424242424242", req.Params["number"])
	// Present-but-empty resets the payment currency; the pointer must be set.
	require.NotNil(t, req.PaymentCurrency)
	assert.Equal(t, "", *req.PaymentCurrency)
	// Guests are always site requests.
	assert.True(t, req.SiteRequest)
}

func TestPayAbsentPaymentCurrencyLeavesPointerNil(t *testing.T) {
	f := newHandlerFixture(nil)
	f.svc.out = &Outcome{Success: true}

	f.post("/api/v1/checkout/pay", url.Values{"number": {"4242424242424242"}}, true)
	require.NotNil(t, f.svc.lastReq)
	assert.Nil(t, f.svc.lastReq.PaymentCurrency)
}

func TestPayManageOrdersIsNotSiteRequest(t *testing.T) {
	admin := &identity.Identity{Permissions: []string{identity.CapManageOrders}}
	f := newHandlerFixture(admin)
	f.svc.out = &Outcome{Success: true}

	f.post("/api/v1/checkout/pay", url.Values{}, true)
	require.NotNil(t, f.svc.lastReq)
	assert.False(t, f.svc.lastReq.SiteRequest)
}

func TestCompletePaymentMissingHash(t *testing.T) {
	f := newHandlerFixture(nil)
	f.svc.completeOut = &CompleteOutcome{NotFound: true, Message: "Can not complete payment for missing transaction."}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/checkout/pay/complete", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Contains(t, body["error"], "missing transaction")
}

func TestCompletePaymentJSON(t *testing.T) {
	f := newHandlerFixture(nil)
	f.svc.completeOut = &CompleteOutcome{Success: true, URL: "/thanks"}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/checkout/pay/complete?commerceTransactionHash=deadbeef", nil)
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "deadbeef", f.svc.lastHash)
	body := decodeBody(t, w)
	assert.Equal(t, "/thanks", body["url"])
}

func TestCompletePaymentBrowserFailureSetsFlash(t *testing.T) {
	f := newHandlerFixture(nil)
	f.svc.completeOut = &CompleteOutcome{URL: "/cancelled", Message: "payment abandoned"}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/checkout/pay/complete?commerceTransactionHash=deadbeef", nil)
	req.AddCookie(&http.Cookie{Name: cart.SessionCookie, Value: "sess-1"})
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/cancelled", w.Header().Get("Location"))
	flash, err := f.sessions.Flash(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "Payment error: payment abandoned", flash)
}
