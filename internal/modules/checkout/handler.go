package checkout

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/commercekit/checkout-backend/internal/modules/cart"
	"github.com/commercekit/checkout-backend/internal/modules/identity"
)

// Handler exposes the checkout HTTP endpoints.
type Handler struct {
	service    Service
	identities identity.Service
	sessions   cart.SessionStore
}

func NewHandler(service Service, identities identity.Service, sessions cart.SessionStore) *Handler {
	return &Handler{service: service, identities: identities, sessions: sessions}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/checkout", func(r chi.Router) {
		r.Post("/pay", h.pay)
		// Off-site gateways call back with GET or POST depending on the
		// provider.
		r.Get("/pay/complete", h.completePayment)
		r.Post("/pay/complete", h.completePayment)
	})
}

func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	sessionID, isNew := cart.SessionIDFromRequest(r)
	if isNew {
		setSessionCookie(w, sessionID)
	}
	ident := h.identities.FromRequest(r, sessionID)
	sc := cart.ContextFromRequest(r, sessionID, ident)

	if err := r.ParseForm(); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid form data"})
		return
	}
	req := parseSubmitRequest(r)
	req.SiteRequest = !ident.HasCapability(identity.CapManageOrders)

	out := h.service.SubmitPayment(r.Context(), sc, req)

	if out.Failure != nil {
		if acceptsJSON(r) {
			body := map[string]interface{}{"error": out.Failure.Message}
			if out.Form != nil && out.Form.HasErrors() {
				body["paymentForm"] = out.Form.FieldErrors()
			}
			if out.Order != nil && out.Order.HasErrors() {
				body["order"] = out.Order.FieldErrors()
			}
			respond(w, statusForFailure(out.Failure.Code), body)
			return
		}
		_ = h.sessions.SetFlash(r.Context(), sessionID, out.Failure.Message)
		http.Redirect(w, r, postedFrom(r), http.StatusSeeOther)
		return
	}

	if acceptsJSON(r) {
		body := map[string]interface{}{"success": true}
		if out.RedirectURL != "" {
			body["redirect"] = out.RedirectURL
		}
		if out.TransactionRef != "" {
			body["transactionId"] = out.TransactionRef
		}
		respond(w, http.StatusOK, body)
		return
	}

	switch {
	case out.RedirectURL != "":
		http.Redirect(w, r, out.RedirectURL, http.StatusSeeOther)
	case out.Order != nil && out.Order.ReturnURL != "":
		http.Redirect(w, r, out.Order.ReturnURL, http.StatusSeeOther)
	default:
		http.Redirect(w, r, postedFrom(r), http.StatusSeeOther)
	}
}

func (h *Handler) completePayment(w http.ResponseWriter, r *http.Request) {
	hash := r.FormValue("commerceTransactionHash")
	out := h.service.CompletePayment(r.Context(), hash)

	// A forged or stale token is a hard protocol error, never a soft
	// success.
	if out.NotFound {
		respond(w, http.StatusBadRequest, map[string]string{"error": out.Message})
		return
	}

	if acceptsJSON(r) {
		respond(w, http.StatusOK, map[string]string{"url": out.URL})
		return
	}

	if !out.Success {
		sessionID, _ := cart.SessionIDFromRequest(r)
		_ = h.sessions.SetFlash(r.Context(), sessionID, "Payment error: "+out.Message)
	}
	url := out.URL
	if url == "" {
		url = "/"
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func parseSubmitRequest(r *http.Request) *SubmitRequest {
	req := &SubmitRequest{
		OrderNumber: r.FormValue("orderNumber"),
		Email:       r.FormValue("email"),
		GatewayID:   r.FormValue("gatewayId"),
		ReturnURL:   r.FormValue("redirect"),
		CancelURL:   r.FormValue("cancelUrl"),
		Fields:      map[string]string{},
		Params:      map[string]string{},
	}

	// Empty string and absent are different values here: empty resets the
	// payment currency to the primary one.
	if vs, ok := r.Form["paymentCurrency"]; ok && len(vs) > 0 {
		v := vs[0]
		req.PaymentCurrency = &v
	}

	switch strings.ToLower(r.FormValue("savePaymentSource")) {
	case "1", "true", "on", "yes":
		req.SavePaymentSource = true
	}

	for key, vs := range r.Form {
		if len(vs) == 0 {
			continue
		}
		if name, ok := customFieldName(key); ok {
			req.Fields[name] = vs[0]
			continue
		}
		req.Params[key] = vs[0]
	}
	return req
}

// customFieldName extracts "color" from "fields[color]".
func customFieldName(key string) (string, bool) {
	if strings.HasPrefix(key, "fields[") && strings.HasSuffix(key, "]") {
		return key[len("fields[") : len(key)-1], true
	}
	return "", false
}

func statusForFailure(code FailureCode) int {
	switch code {
	case FailOrderNotFound:
		return http.StatusNotFound
	case FailEmailRequired, FailCannotSelectSource:
		return http.StatusForbidden
	case FailInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func acceptsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func postedFrom(r *http.Request) string {
	if ref := r.Header.Get("Referer"); ref != "" {
		return ref
	}
	return "/"
}

func setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cart.SessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
