package paymentsource

import (
	"time"

	"github.com/google/uuid"
)

// PaymentSource is a reusable stored payment instrument. It is strictly
// owned by one customer; selecting another customer's source is an
// authorization failure, enforced by the checkout pipeline.
type PaymentSource struct {
	ID          uuid.UUID `json:"id"`
	CustomerID  uuid.UUID `json:"customer_id"`
	GatewayID   string    `json:"gateway_id"`
	Token       string    `json:"-"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
