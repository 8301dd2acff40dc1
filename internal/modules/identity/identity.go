package identity

import "github.com/google/uuid"

// CapManageOrders lets its holder submit payments against orders that are
// not their own cart without the email check.
const CapManageOrders = "manage-orders"

// Identity is the resolved caller for one request: a guest bound to a
// session, or an authenticated customer or staff member.
type Identity struct {
	CustomerID  uuid.UUID
	Guest       bool
	Permissions []string
}

// HasCapability reports whether the identity holds the named permission.
// Guests never hold capabilities.
func (id *Identity) HasCapability(cap string) bool {
	if id == nil || id.Guest {
		return false
	}
	for _, p := range id.Permissions {
		if p == cap {
			return true
		}
	}
	return false
}

// guestNamespace seeds deterministic guest customer refs from session ids,
// so the same session resolves to the same guest customer.
var guestNamespace = uuid.MustParse("9f2c1db0-4c65-4a6e-8d8a-6a4e5b2f1c03")

// GuestIdentity derives a stable guest identity from a session id.
func GuestIdentity(sessionID string) *Identity {
	return &Identity{
		CustomerID: uuid.NewSHA1(guestNamespace, []byte(sessionID)),
		Guest:      true,
	}
}
