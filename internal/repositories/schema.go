package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-transactions/internal/logger"
)

// migrations are applied in order and are safe to run repeatedly.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS transactions (
		id UUID PRIMARY KEY,
		sender_user_id VARCHAR(64) NOT NULL,
		receiver_user_id VARCHAR(64) NOT NULL,
		amount NUMERIC(20,2) NOT NULL CHECK (amount > 0),
		description VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_sender ON transactions (sender_user_id, created_at DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_receiver ON transactions (receiver_user_id, created_at DESC);`,
}

// Migrate creates the transactions schema.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			logger.Log.Errorw("migration failed", "error", err)
			return err
		}
	}

	logger.Log.Infow("migrations applied", "count", len(migrations))
	return nil
}
