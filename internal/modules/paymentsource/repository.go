package paymentsource

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no payment source matches the lookup.
var ErrNotFound = errors.New("payment source not found")

// Repository defines data access for stored payment sources.
type Repository interface {
	// Create persists a new payment source.
	Create(ctx context.Context, s *PaymentSource) error

	// GetByID retrieves a payment source by UUID.
	GetByID(ctx context.Context, id uuid.UUID) (*PaymentSource, error)

	// ListByCustomer returns the customer's stored payment sources.
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*PaymentSource, error)
}
