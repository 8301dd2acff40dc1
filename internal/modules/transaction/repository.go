package transaction

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned when no transaction matches the lookup.
var ErrNotFound = errors.New("transaction not found")

// ErrAlreadyFinalized is returned by Finalize when the transaction has
// already left the pending state through another path.
var ErrAlreadyFinalized = errors.New("transaction already finalized")

// Repository defines data access for payment transactions.
type Repository interface {
	// Create persists a new pending transaction, generating its hash and
	// public reference if unset.
	Create(ctx context.Context, t *Transaction) error

	// GetByHash retrieves a transaction by its opaque hash.
	GetByHash(ctx context.Context, hash string) (*Transaction, error)

	// Finalize moves a pending transaction to a terminal status. Only one
	// caller can win: a transaction already out of pending returns
	// ErrAlreadyFinalized.
	Finalize(ctx context.Context, hash string, status Status, response json.RawMessage, message string) error
}
