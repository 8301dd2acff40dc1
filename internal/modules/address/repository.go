package address

import "context"

// Repository defines data access for addresses.
type Repository interface {
	// GetByID retrieves an address by UUID.
	GetByID(ctx context.Context, id string) (*Address, error)

	// Create persists a new address.
	Create(ctx context.Context, a *Address) error
}
