package address

import (
	"time"

	"github.com/google/uuid"
)

// Address is a billing or shipping address attached to an order.
type Address struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Line1     string    `json:"line1"`
	Line2     string    `json:"line2,omitempty"`
	City      string    `json:"city"`
	Region    string    `json:"region,omitempty"`
	PostCode  string    `json:"post_code,omitempty"`
	Country   string    `json:"country"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a copy of the address under a fresh identity. The copy keeps
// every field except the id, so an order can hold onto the data without
// pointing at the original owner's record.
func (a *Address) Clone() *Address {
	c := *a
	c.ID = uuid.New()
	c.CreatedAt = time.Time{}
	c.UpdatedAt = time.Time{}
	return &c
}
