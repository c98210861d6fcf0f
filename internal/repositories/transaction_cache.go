package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sbilibin2017/gw-transactions/internal/logger"
	"github.com/sbilibin2017/gw-transactions/internal/models"
)

// TransactionCacheRepository caches transactions in Redis
type TransactionCacheRepository struct {
	client *redis.Client
	exp    time.Duration // expiration duration for cached transactions
}

// NewTransactionCacheRepository creates a new repository instance with optional TTL
func NewTransactionCacheRepository(client *redis.Client, expiration time.Duration) *TransactionCacheRepository {
	return &TransactionCacheRepository{
		client: client,
		exp:    expiration,
	}
}

func transactionKey(id uuid.UUID) string {
	return "transaction:" + id.String()
}

// Get returns the cached transaction, or nil on a cache miss.
func (r *TransactionCacheRepository) Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	key := transactionKey(id)

	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		logger.Log.Debugw("cache miss", "key", key)
		return nil, nil
	}
	if err != nil {
		logger.Log.Errorw("failed to read cached transaction", "key", key, "error", err)
		return nil, err
	}

	var txn models.Transaction
	if err := json.Unmarshal(val, &txn); err != nil {
		logger.Log.Errorw("failed to decode cached transaction", "key", key, "error", err)
		return nil, err
	}

	return &txn, nil
}

// Set caches txn with the repository expiration.
func (r *TransactionCacheRepository) Set(ctx context.Context, txn *models.Transaction) error {
	key := transactionKey(txn.ID)

	val, err := json.Marshal(txn)
	if err != nil {
		return err
	}

	err = r.client.Set(ctx, key, val, r.exp).Err()

	logger.Log.Infow("transaction cached",
		"key", key,
		"ttl", r.exp,
		"error", err,
	)

	return err
}
