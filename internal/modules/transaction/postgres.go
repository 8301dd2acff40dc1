package transaction

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Create(ctx context.Context, t *Transaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Hash == "" {
		t.Hash = NewHash()
	}
	if t.Reference == "" {
		// Short public reference, safe to expose in API responses.
		t.Reference = strings.ToUpper(t.ID.String()[:8])
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions
		  (id, reference, hash, order_number, gateway_id, amount, currency, status, response, message)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		t.ID, t.Reference, t.Hash, t.OrderNumber, t.GatewayID,
		t.Amount, t.Currency, t.Status, nullableJSON(t.Response), t.Message)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetByHash(ctx context.Context, hash string) (*Transaction, error) {
	t := &Transaction{}
	var response []byte
	var message sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id,reference,hash,order_number,gateway_id,amount,currency,status,response,message,created_at,updated_at
		FROM transactions WHERE hash=$1`, hash).Scan(
		&t.ID, &t.Reference, &t.Hash, &t.OrderNumber, &t.GatewayID,
		&t.Amount, &t.Currency, &t.Status, &response, &message, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	t.Response = response
	t.Message = message.String
	return t, nil
}

// Finalize transitions the row out of pending with a conditional update, so
// the synchronous and asynchronous completion paths cannot both win.
func (r *postgresRepo) Finalize(ctx context.Context, hash string, status Status, response json.RawMessage, message string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET status=$1, response=$2, message=$3, updated_at=now()
		WHERE hash=$4 AND status=$5`,
		status, nullableJSON(response), message, hash, StatusPending)
	if err != nil {
		return fmt.Errorf("finalize transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyFinalized
	}
	return nil
}

func nullableJSON(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
