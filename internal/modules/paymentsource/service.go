package paymentsource

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/commercekit/checkout-backend/internal/modules/gateway"
)

// Service defines payment source business logic.
type Service interface {
	// Create tokenizes the form with the gateway and persists the resulting
	// payment source under the given customer.
	Create(ctx context.Context, customerID uuid.UUID, gw gateway.Gateway, form *gateway.PaymentForm) (*PaymentSource, error)

	// GetByID retrieves a payment source.
	GetByID(ctx context.Context, id uuid.UUID) (*PaymentSource, error)
}

type service struct {
	repo Repository
}

// NewService creates a new payment source service.
func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) Create(ctx context.Context, customerID uuid.UUID, gw gateway.Gateway, form *gateway.PaymentForm) (*PaymentSource, error) {
	token, description, err := gw.CreateSourceToken(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("tokenize payment source: %w", err)
	}

	src := &PaymentSource{
		ID:          uuid.New(),
		CustomerID:  customerID,
		GatewayID:   gw.ID(),
		Token:       token,
		Description: description,
	}
	if err := s.repo.Create(ctx, src); err != nil {
		return nil, err
	}
	return src, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*PaymentSource, error) {
	return s.repo.GetByID(ctx, id)
}
