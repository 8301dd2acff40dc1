package transaction

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle of a payment attempt.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Transaction records one payment attempt against an order. The hash is the
// opaque correlation key an off-site gateway hands back on completion; it
// must stay unguessable.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	Reference   string          `json:"reference"`
	Hash        string          `json:"-"`
	OrderNumber string          `json:"order_number"`
	GatewayID   string          `json:"gateway_id"`
	Amount      float64         `json:"amount"`
	Currency    string          `json:"currency"`
	Status      Status          `json:"status"`
	Response    json.RawMessage `json:"response,omitempty"`
	Message     string          `json:"message,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// IsTerminal reports whether the transaction has left the pending state.
func (t *Transaction) IsTerminal() bool { return t.Status != StatusPending }

// NewHash returns a 64-character random hex token from a cryptographically
// strong source.
func NewHash() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("transaction: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}
