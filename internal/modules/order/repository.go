package order

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no order matches the lookup.
var ErrNotFound = errors.New("order not found")

// ErrVersionConflict is returned by Save when the order row changed since it
// was loaded. The caller must reload and re-run its checks before retrying.
var ErrVersionConflict = errors.New("order was modified concurrently")

// Repository defines data access for orders.
type Repository interface {
	// GetActiveByNumber retrieves an incomplete order by its number.
	GetActiveByNumber(ctx context.Context, number string) (*Order, error)

	// GetByNumber retrieves an order by number regardless of completion.
	GetByNumber(ctx context.Context, number string) (*Order, error)

	// Save persists the order. Saving recomputes the outstanding balance,
	// total quantity and adjustment count from the order's line items,
	// adjustments and successful transactions, and writes them back onto the
	// passed order. The write is guarded by a compare-and-swap on the
	// version column; a lost race surfaces as ErrVersionConflict.
	Save(ctx context.Context, o *Order) error

	// DeleteIncompleteBefore removes every incomplete order last updated
	// before the cutoff and returns how many were removed.
	DeleteIncompleteBefore(ctx context.Context, cutoff time.Time) (int, error)
}
