package cart

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/commercekit/checkout-backend/internal/modules/identity"
)

// Handler exposes cart HTTP endpoints.
type Handler struct {
	service    Service
	identities identity.Service
	purgeAge   time.Duration
}

func NewHandler(service Service, identities identity.Service, purgeAge time.Duration) *Handler {
	return &Handler{service: service, identities: identities, purgeAge: purgeAge}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Get("/", h.getCart)
		r.Post("/forget", h.forgetCart)
		// Maintenance endpoint, restricted to manage-orders holders.
		r.Post("/purge", h.purge)
	})
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	sc, _ := h.requestContext(w, r)
	o, err := h.service.GetCart(r.Context(), sc)
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) forgetCart(w http.ResponseWriter, r *http.Request) {
	sc, _ := h.requestContext(w, r)
	if err := h.service.ForgetCart(r.Context(), sc); err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "forgotten"})
}

func (h *Handler) purge(w http.ResponseWriter, r *http.Request) {
	_, ident := h.requestContext(w, r)
	if !ident.HasCapability(identity.CapManageOrders) {
		respond(w, http.StatusForbidden, map[string]string{"error": "manage-orders permission required"})
		return
	}
	count, err := h.service.PurgeIncompleteCarts(r.Context(), h.purgeAge)
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]int{"purged": count})
}

func (h *Handler) requestContext(w http.ResponseWriter, r *http.Request) (*Context, *identity.Identity) {
	sessionID, isNew := SessionIDFromRequest(r)
	if isNew {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    sessionID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	ident := h.identities.FromRequest(r, sessionID)
	return ContextFromRequest(r, sessionID, ident), ident
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
