package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercekit/checkout-backend/internal/modules/identity"
)

type stubIdentities struct{ ident *identity.Identity }

func (s *stubIdentities) Login(ctx context.Context, email, password string) (string, error) {
	return "", nil
}

func (s *stubIdentities) Verify(token string) (*identity.Identity, error) {
	return s.ident, nil
}

func (s *stubIdentities) FromRequest(r *http.Request, sessionID string) *identity.Identity {
	if s.ident != nil {
		return s.ident
	}
	return identity.GuestIdentity(sessionID)
}

func newCartRouter(ident *identity.Identity) (*chi.Mux, *cartFixture) {
	f := newCartFixture()
	r := chi.NewRouter()
	NewHandler(f.service, &stubIdentities{ident: ident}, 90*24*time.Hour).RegisterRoutes(r)
	return r, f
}

func TestGetCartEndpoint(t *testing.T) {
	r, _ := newCartRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["number"])

	// A fresh session gets a cookie.
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, SessionCookie, cookies[0].Name)
}

func TestForgetCartEndpoint(t *testing.T) {
	r, _ := newCartRouter(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/forget", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "sess-1"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPurgeRequiresManageOrders(t *testing.T) {
	r, _ := newCartRouter(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/purge", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPurgeEndpoint(t *testing.T) {
	admin := &identity.Identity{Permissions: []string{identity.CapManageOrders}}
	r, f := newCartRouter(admin)
	f.orders.purged = 3

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/purge", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 3, body["purged"])
}
