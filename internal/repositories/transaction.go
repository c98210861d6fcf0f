package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-transactions/internal/logger"
	"github.com/sbilibin2017/gw-transactions/internal/models"
)

// TransactionWriteRepository handles transaction write operations
type TransactionWriteRepository struct {
	db *sqlx.DB
}

func NewTransactionWriteRepository(db *sqlx.DB) *TransactionWriteRepository {
	return &TransactionWriteRepository{db: db}
}

// Save inserts a new transaction row.
func (r *TransactionWriteRepository) Save(ctx context.Context, txn *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, sender_user_id, receiver_user_id, amount, description, created_at, updated_at)
		VALUES (:id, :sender_user_id, :receiver_user_id, :amount, :description, :created_at, :updated_at)
	`

	_, err := sqlx.NamedExecContext(ctx, r.db, query, txn)

	logger.Log.Infow("query executed",
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{txn.ID, txn.SenderUserID, txn.ReceiverUserID, txn.Amount},
		"error", err,
	)

	return err
}

// TransactionReadRepository handles transaction read operations
type TransactionReadRepository struct {
	db *sqlx.DB
}

func NewTransactionReadRepository(db *sqlx.DB) *TransactionReadRepository {
	return &TransactionReadRepository{db: db}
}

// GetByID returns the transaction with id, or nil if there is none.
func (r *TransactionReadRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	const query = `
		SELECT id, sender_user_id, receiver_user_id, amount, description, created_at, updated_at
		FROM transactions
		WHERE id = $1
	`

	var txn models.Transaction
	err := r.db.GetContext(ctx, &txn, query, id)

	logger.Log.Infow("query executed",
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{id},
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &txn, nil
}

// ListByUserID returns every transaction userID sent or received, newest first.
func (r *TransactionReadRepository) ListByUserID(ctx context.Context, userID string) ([]models.Transaction, error) {
	const query = `
		SELECT id, sender_user_id, receiver_user_id, amount, description, created_at, updated_at
		FROM transactions
		WHERE sender_user_id = $1 OR receiver_user_id = $1
		ORDER BY created_at DESC
	`

	txns := []models.Transaction{}
	err := r.db.SelectContext(ctx, &txns, query, userID)

	logger.Log.Infow("query executed",
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{userID},
		"result", len(txns),
		"error", err,
	)

	if err != nil {
		return nil, err
	}
	return txns, nil
}
