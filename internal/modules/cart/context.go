package cart

import (
	"crypto/rand"
	"encoding/hex"
	"net"
	"net/http"
	"strings"

	"github.com/commercekit/checkout-backend/internal/modules/identity"
	"github.com/commercekit/checkout-backend/internal/modules/order"
)

// SessionCookie names the cookie carrying the checkout session id.
const SessionCookie = "checkout_session"

// Context carries the request-scoped state the cart service works from. It
// must never be shared across requests: the cached cart reference is only
// valid for the lifetime of one request.
type Context struct {
	SessionID string
	IP        string
	Locale    string
	Identity  *identity.Identity

	cart *order.Order
}

// NewContext builds a request context from already-resolved values.
func NewContext(sessionID, ip, locale string, ident *identity.Identity) *Context {
	return &Context{SessionID: sessionID, IP: ip, Locale: locale, Identity: ident}
}

// SessionIDFromRequest reads the session id from the cookie or the
// X-Checkout-Session header, generating a fresh one when neither is set.
// The second return value reports whether the id is new and should be set
// on the response.
func SessionIDFromRequest(r *http.Request) (string, bool) {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value, false
	}
	if v := r.Header.Get("X-Checkout-Session"); v != "" {
		return v, false
	}
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("cart: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b), true
}

// ContextFromRequest resolves session id, client IP and locale from the
// request and pairs them with the caller's identity.
func ContextFromRequest(r *http.Request, sessionID string, ident *identity.Identity) *Context {
	return NewContext(sessionID, clientIP(r), r.Header.Get("Accept-Language"), ident)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i > 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
