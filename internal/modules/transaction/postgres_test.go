package transaction

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreateFillsDefaults(t *testing.T) {
	repo, mock := newMockRepo(t)
	txn := &Transaction{
		OrderNumber: "abc123",
		GatewayID:   "card",
		Amount:      49.99,
		Currency:    "USD",
	}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO transactions`)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Create(context.Background(), txn))
	assert.NotEqual(t, uuid.Nil, txn.ID)
	assert.Len(t, txn.Hash, 64)
	assert.Len(t, txn.Reference, 8)
	assert.Equal(t, StatusPending, txn.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByHash(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()
	now := time.Now()

	cols := []string{"id", "reference", "hash", "order_number", "gateway_id", "amount", "currency", "status", "response", "message", "created_at", "updated_at"}
	mock.ExpectQuery(regexp.QuoteMeta(`FROM transactions WHERE hash=$1`)).
		WithArgs("deadbeef").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			id.String(), "ABCD1234", "deadbeef", "abc123", "card", 49.99, "USD", "success",
			[]byte(`{"id":"ch_1"}`), "charge succeeded", now, now))

	txn, err := repo.GetByHash(context.Background(), "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, txn.Status)
	assert.True(t, txn.IsTerminal())
	assert.Equal(t, "charge succeeded", txn.Message)
	assert.JSONEq(t, `{"id":"ch_1"}`, string(txn.Response))
}

func TestGetByHashNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM transactions WHERE hash=$1`)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByHash(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFinalizeWinsOnce(t *testing.T) {
	repo, mock := newMockRepo(t)
	response := json.RawMessage(`{"status":"paid"}`)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE transactions SET`)).
		WithArgs(StatusSuccess, []byte(response), "payment confirmed", "deadbeef", StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Finalize(context.Background(), "deadbeef", StatusSuccess, response, "payment confirmed"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalizeAlreadyFinalized(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE transactions SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Finalize(context.Background(), "deadbeef", StatusFailed, nil, "late callback")
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
}
