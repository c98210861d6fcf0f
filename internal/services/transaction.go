package services

//go:generate mockgen -source=transaction.go -destination=mock_transaction.go -package=services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-transactions/internal/logger"
	"github.com/sbilibin2017/gw-transactions/internal/models"
	"github.com/segmentio/kafka-go"
)

var (
	// ErrInvalidUsers is returned when the sender or receiver is not a valid user.
	ErrInvalidUsers = errors.New("invalid users")
	// ErrInsufficientBalance is returned when the sender cannot cover the amount.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrBalanceUpdateFailed is returned when a transaction was recorded but the balance update could not be handed to the broker.
	ErrBalanceUpdateFailed = errors.New("balance update failed")
	// ErrTransactionNotFound is returned when a transaction does not exist or the caller is not a party to it.
	ErrTransactionNotFound = errors.New("transaction not found")
)

// UserGateway asks the user service about identities and balances.
type UserGateway interface {
	ValidateTransferParties(ctx context.Context, senderID, receiverID string) bool            // Reports whether both parties are valid users
	CheckSenderBalance(ctx context.Context, senderID string, amount float64) (bool, error)    // Reports whether the sender can cover amount
	UpdateUserBalance(ctx context.Context, senderID, receiverID string, amount float64) error // Hands the balance change to the user service
}

// TransactionWriter persists transactions.
type TransactionWriter interface {
	Save(ctx context.Context, txn *models.Transaction) error // Inserts a new transaction
}

// TransactionReader reads persisted transactions.
type TransactionReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)         // Returns nil when absent
	ListByUserID(ctx context.Context, userID string) ([]models.Transaction, error) // Sender or receiver, newest first
}

// TransactionCache caches transactions by ID.
type TransactionCache interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error) // Returns nil on a cache miss
	Set(ctx context.Context, txn *models.Transaction) error             // Caches a transaction
}

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error // Writes messages to Kafka
	Close() error                                                   // Closes the Kafka writer
}

// TransactionService records transfers between users.
type TransactionService struct {
	gateway     UserGateway
	writeRepo   TransactionWriter
	readRepo    TransactionReader
	cacheRepo   TransactionCache
	kafkaWriter KafkaWriter
}

// NewTransactionService creates a new TransactionService. cacheRepo and
// kafkaWriter may be nil.
func NewTransactionService(
	gateway UserGateway,
	writeRepo TransactionWriter,
	readRepo TransactionReader,
	cacheRepo TransactionCache,
	kafkaWriter KafkaWriter,
) *TransactionService {
	return &TransactionService{
		gateway:     gateway,
		writeRepo:   writeRepo,
		readRepo:    readRepo,
		cacheRepo:   cacheRepo,
		kafkaWriter: kafkaWriter,
	}
}

// Create validates both parties, checks the sender balance, records the
// transaction and hands the balance update to the user service.
//
// When only the balance update fails the recorded transaction is returned
// together with an error wrapping ErrBalanceUpdateFailed.
func (s *TransactionService) Create(
	ctx context.Context,
	senderID, receiverID string,
	amount float64,
	description string,
) (*models.Transaction, error) {
	if !s.gateway.ValidateTransferParties(ctx, senderID, receiverID) {
		logger.Log.Warnw("transfer rejected: invalid users", "sender", senderID, "receiver", receiverID)
		return nil, ErrInvalidUsers
	}

	ok, err := s.gateway.CheckSenderBalance(ctx, senderID, amount)
	if err != nil {
		logger.Log.Errorw("failed to check sender balance", "sender", senderID, "amount", amount, "error", err)
		return nil, err
	}
	if !ok {
		return nil, ErrInsufficientBalance
	}

	now := time.Now().UTC()
	txn := &models.Transaction{
		ID:             uuid.New(),
		SenderUserID:   senderID,
		ReceiverUserID: receiverID,
		Amount:         amount,
		Description:    description,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.writeRepo.Save(ctx, txn); err != nil {
		logger.Log.Errorw("failed to save transaction", "transaction_id", txn.ID, "error", err)
		return nil, err
	}

	s.cacheTransaction(ctx, txn)

	if err := s.gateway.UpdateUserBalance(ctx, senderID, receiverID, amount); err != nil {
		logger.Log.Errorw("transaction recorded but balance update failed",
			"transaction_id", txn.ID,
			"sender", senderID,
			"receiver", receiverID,
			"amount", amount,
			"error", err,
		)
		return txn, fmt.Errorf("%w: %w", ErrBalanceUpdateFailed, err)
	}

	s.publishTransaction(ctx, txn)

	logger.Log.Infow("transaction created", "transaction_id", txn.ID, "sender", senderID, "receiver", receiverID, "amount", amount)
	return txn, nil
}

// Find returns the transaction with id if userID sent or received it.
func (s *TransactionService) Find(ctx context.Context, id uuid.UUID, userID string) (*models.Transaction, error) {
	txn := s.cachedTransaction(ctx, id)
	if txn == nil {
		var err error
		txn, err = s.readRepo.GetByID(ctx, id)
		if err != nil {
			logger.Log.Errorw("failed to get transaction", "transaction_id", id, "error", err)
			return nil, err
		}
		if txn == nil {
			return nil, ErrTransactionNotFound
		}
		s.cacheTransaction(ctx, txn)
	}

	if !txn.IsParty(userID) {
		logger.Log.Warnw("transaction requested by a non-party", "transaction_id", id, "user_id", userID)
		return nil, ErrTransactionNotFound
	}

	return txn, nil
}

// ListByUser returns every transaction userID sent or received, newest first.
func (s *TransactionService) ListByUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	txns, err := s.readRepo.ListByUserID(ctx, userID)
	if err != nil {
		logger.Log.Errorw("failed to list transactions", "user_id", userID, "error", err)
		return nil, err
	}

	return txns, nil
}

func (s *TransactionService) cachedTransaction(ctx context.Context, id uuid.UUID) *models.Transaction {
	if s.cacheRepo == nil {
		return nil
	}

	txn, err := s.cacheRepo.Get(ctx, id)
	if err != nil {
		logger.Log.Warnw("transaction cache read failed", "transaction_id", id, "error", err)
		return nil
	}
	return txn
}

func (s *TransactionService) cacheTransaction(ctx context.Context, txn *models.Transaction) {
	if s.cacheRepo == nil {
		return
	}

	if err := s.cacheRepo.Set(ctx, txn); err != nil {
		logger.Log.Warnw("failed to cache transaction", "transaction_id", txn.ID, "error", err)
	}
}

// publishTransaction publishes the transfer audit event to Kafka.
func (s *TransactionService) publishTransaction(ctx context.Context, txn *models.Transaction) {
	if s.kafkaWriter == nil {
		logger.Log.Warnw("Kafka writer not configured, skipping publishing", "transaction_id", txn.ID)
		return
	}

	data, err := json.Marshal(models.NewTransactionEvent(txn))
	if err != nil {
		logger.Log.Errorw("Failed to marshal transaction for Kafka", "transaction_id", txn.ID, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(txn.ID.String()),
		Value: data,
	}

	if err := s.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		logger.Log.Errorw("Failed to publish transaction to Kafka", "transaction_id", txn.ID, "error", err)
	} else {
		logger.Log.Infow("Transaction published to Kafka", "transaction_id", txn.ID, "amount", txn.Amount)
	}
}
