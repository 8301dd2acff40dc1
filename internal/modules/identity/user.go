package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is an account that can authenticate: a registered customer or a
// staff member with elevated permissions.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Permissions  []string  `json:"permissions,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Repository defines data access for users.
type Repository interface {
	// GetUserByEmail retrieves a user by email address.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// GetUserByID retrieves a user by UUID.
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
}
