package paymentsource

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Create(ctx context.Context, s *PaymentSource) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payment_sources (id, customer_id, gateway_id, token, description)
		VALUES ($1,$2,$3,$4,$5)`,
		s.ID, s.CustomerID, s.GatewayID, s.Token, s.Description)
	if err != nil {
		return fmt.Errorf("insert payment source: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*PaymentSource, error) {
	s := &PaymentSource{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, customer_id, gateway_id, token, description, created_at
		FROM payment_sources WHERE id=$1`, id).Scan(
		&s.ID, &s.CustomerID, &s.GatewayID, &s.Token, &s.Description, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *postgresRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*PaymentSource, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, customer_id, gateway_id, token, description, created_at
		FROM payment_sources WHERE customer_id=$1 ORDER BY created_at DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []*PaymentSource
	for rows.Next() {
		s := &PaymentSource{}
		if err := rows.Scan(&s.ID, &s.CustomerID, &s.GatewayID, &s.Token, &s.Description, &s.CreatedAt); err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}
