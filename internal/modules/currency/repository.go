package currency

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no currency matches the requested ISO code.
var ErrNotFound = errors.New("currency not found")

// Repository defines data access for payment currencies.
type Repository interface {
	// GetByISO retrieves a currency by its ISO code.
	GetByISO(ctx context.Context, iso string) (*Currency, error)

	// GetPrimary retrieves the store's primary payment currency.
	GetPrimary(ctx context.Context) (*Currency, error)
}
