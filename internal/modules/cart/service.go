package cart

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/commercekit/checkout-backend/internal/modules/address"
	"github.com/commercekit/checkout-backend/internal/modules/currency"
	"github.com/commercekit/checkout-backend/internal/modules/order"
)

// Service binds a session to exactly one active order.
type Service interface {
	// GetCart returns the session's active order, creating one on first
	// access. Client IP, locale, currency and customer ref are refreshed on
	// every call; the order is only persisted when one of them changed or
	// the order is new.
	GetCart(ctx context.Context, sc *Context) (*order.Order, error)

	// ForgetCart drops the request's cached order and the session binding.
	// The order itself is not deleted.
	ForgetCart(ctx context.Context, sc *Context) error

	// PurgeIncompleteCarts deletes incomplete orders older than maxAge and
	// returns how many were removed.
	PurgeIncompleteCarts(ctx context.Context, maxAge time.Duration) (int, error)

	// GenerateCartNumber produces a new opaque cart number.
	GenerateCartNumber() string

	// IsActiveCart reports whether the order is the session's own active
	// cart.
	IsActiveCart(ctx context.Context, sc *Context, o *order.Order) bool
}

type service struct {
	orders     order.Repository
	addresses  address.Repository
	currencies currency.Repository
	sessions   SessionStore
	fallback   string // locale used when the request locale cannot be parsed
}

// NewService creates a new cart service.
func NewService(orders order.Repository, addresses address.Repository, currencies currency.Repository, sessions SessionStore) Service {
	return &service{
		orders:     orders,
		addresses:  addresses,
		currencies: currencies,
		sessions:   sessions,
		fallback:   "en-US",
	}
}

func (s *service) GetCart(ctx context.Context, sc *Context) (*order.Order, error) {
	return s.getCart(ctx, sc, false)
}

func (s *service) getCart(ctx context.Context, sc *Context, retried bool) (*order.Order, error) {
	newOrder := false

	if sc.cart == nil {
		number, err := s.sessionCartNumber(ctx, sc)
		if err != nil {
			return nil, err
		}

		o, err := s.orders.GetActiveByNumber(ctx, number)
		switch {
		case err == nil:
			sc.cart = o
		case errors.Is(err, order.ErrNotFound):
			// The number may belong to an order completed through another
			// path. Do not reuse a completed order's number: drop the
			// binding and start over, exactly once.
			if full, lookupErr := s.orders.GetByNumber(ctx, number); lookupErr == nil && full.IsCompleted {
				if retried {
					return nil, fmt.Errorf("cart number %s still bound to a completed order", number)
				}
				if err := s.ForgetCart(ctx, sc); err != nil {
					return nil, err
				}
				if err := s.sessions.ForgetCustomerRef(ctx, sc.SessionID); err != nil {
					return nil, err
				}
				return s.getCart(ctx, sc, true)
			}
			sc.cart = &order.Order{Number: number}
			newOrder = true
		default:
			return nil, err
		}
	}

	o := sc.cart
	originalIP := o.LastIP
	originalLocale := o.Locale
	originalCurrency := o.Currency
	originalCustomer := o.CustomerID

	primary, err := s.currencies.GetPrimary(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve primary currency: %w", err)
	}

	o.LastIP = sc.IP
	o.Locale = s.canonicalLocale(sc.Locale)
	o.Currency = primary.ISO

	customerID, err := s.resolveCustomer(ctx, sc)
	if err != nil {
		return nil, err
	}
	o.CustomerID = &customerID

	customerChanged := originalCustomer == nil || *originalCustomer != customerID
	if customerChanged && originalCustomer != nil {
		// Keep the address data but give the copies fresh identities, so the
		// new customer's checkout cannot mutate the previous owner's records.
		if err := s.detachAddress(ctx, &o.BillingAddressID); err != nil {
			return nil, err
		}
		if err := s.detachAddress(ctx, &o.ShippingAddressID); err != nil {
			return nil, err
		}
	}

	changed := originalIP != o.LastIP ||
		originalLocale != o.Locale ||
		originalCurrency != o.Currency ||
		customerChanged

	if changed || newOrder {
		if err := s.orders.Save(ctx, o); err != nil {
			return nil, fmt.Errorf("save cart: %w", err)
		}
	}
	return o, nil
}

func (s *service) ForgetCart(ctx context.Context, sc *Context) error {
	sc.cart = nil
	return s.sessions.ForgetCartNumber(ctx, sc.SessionID)
}

func (s *service) PurgeIncompleteCarts(ctx context.Context, maxAge time.Duration) (int, error) {
	return s.orders.DeleteIncompleteBefore(ctx, time.Now().Add(-maxAge))
}

// GenerateCartNumber returns a 32-character random hex token. Uniqueness is
// probabilistic; the number doubles as an unguessable lookup key.
func (s *service) GenerateCartNumber() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("cart: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}

func (s *service) IsActiveCart(ctx context.Context, sc *Context, o *order.Order) bool {
	if o.IsCompleted {
		return false
	}
	number, err := s.sessions.CartNumber(ctx, sc.SessionID)
	return err == nil && number == o.Number
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (s *service) sessionCartNumber(ctx context.Context, sc *Context) (string, error) {
	number, err := s.sessions.CartNumber(ctx, sc.SessionID)
	if err != nil {
		return "", err
	}
	if number == "" {
		number = s.GenerateCartNumber()
		if err := s.sessions.BindCartNumber(ctx, sc.SessionID, number); err != nil {
			return "", err
		}
	}
	return number, nil
}

func (s *service) resolveCustomer(ctx context.Context, sc *Context) (uuid.UUID, error) {
	if sc.Identity != nil && !sc.Identity.Guest {
		return sc.Identity.CustomerID, nil
	}

	if ref, err := s.sessions.CustomerRef(ctx, sc.SessionID); err != nil {
		return uuid.Nil, err
	} else if ref != "" {
		if id, err := uuid.Parse(ref); err == nil {
			return id, nil
		}
	}

	var id uuid.UUID
	if sc.Identity != nil {
		id = sc.Identity.CustomerID
	} else {
		id = uuid.New()
	}
	if err := s.sessions.BindCustomerRef(ctx, sc.SessionID, id.String()); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (s *service) detachAddress(ctx context.Context, id **uuid.UUID) error {
	if *id == nil {
		return nil
	}
	a, err := s.addresses.GetByID(ctx, (*id).String())
	if err != nil {
		// The record is gone; there is nothing to preserve.
		*id = nil
		return nil
	}
	clone := a.Clone()
	if err := s.addresses.Create(ctx, clone); err != nil {
		return fmt.Errorf("detach address: %w", err)
	}
	*id = &clone.ID
	return nil
}

func (s *service) canonicalLocale(raw string) string {
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return s.fallback
	}
	return tags[0].String()
}
