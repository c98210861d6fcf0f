package facades

import (
	"context"
	"errors"
	"time"

	"github.com/sbilibin2017/gw-transactions/internal/logger"
	"github.com/sbilibin2017/gw-transactions/internal/models"
)

// Queues served by the user service.
const (
	ValidateUsersQueue   = "validate-users"
	CheckBalanceQueue    = "check-balance"
	NewTransactionsQueue = "new-transactions"
)

// Default per-operation reply timeouts.
const (
	DefaultValidationTimeout = 5 * time.Second
	DefaultBalanceTimeout    = 10 * time.Second
)

// ErrIncompleteReply is returned when a reply lacks its answer field.
var ErrIncompleteReply = errors.New("user service reply has no answer")

// RPCClient is the broker client the gateway talks through.
type RPCClient interface {
	Call(ctx context.Context, queue string, payload any, reply any, timeout time.Duration) error
	Publish(ctx context.Context, queue string, payload any) error
}

// UserGatewayFacade asks the user service about identities and balances over
// the message broker.
type UserGatewayFacade struct {
	client            RPCClient
	validationTimeout time.Duration
	balanceTimeout    time.Duration
}

// UserGatewayOption configures the UserGatewayFacade
type UserGatewayOption func(*UserGatewayFacade)

// WithValidationTimeout sets how long ValidateUsers waits for a reply.
func WithValidationTimeout(timeout time.Duration) UserGatewayOption {
	return func(f *UserGatewayFacade) {
		if timeout > 0 {
			f.validationTimeout = timeout
		}
	}
}

// WithBalanceTimeout sets how long CheckSenderBalance waits for a reply.
func WithBalanceTimeout(timeout time.Duration) UserGatewayOption {
	return func(f *UserGatewayFacade) {
		if timeout > 0 {
			f.balanceTimeout = timeout
		}
	}
}

// NewUserGatewayFacade creates a new facade over client.
func NewUserGatewayFacade(client RPCClient, opts ...UserGatewayOption) *UserGatewayFacade {
	f := &UserGatewayFacade{
		client:            client,
		validationTimeout: DefaultValidationTimeout,
		balanceTimeout:    DefaultBalanceTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}

	return f
}

// ValidateUsers reports whether every id belongs to an existing user.
// Any failure to get an answer counts as not valid.
func (f *UserGatewayFacade) ValidateUsers(ctx context.Context, ids []string) bool {
	var reply models.ValidateUsersReply
	err := f.client.Call(ctx, ValidateUsersQueue, models.ValidateUsersRequest{UserIDs: ids}, &reply, f.validationTimeout)
	if err != nil {
		logger.Log.Errorw("failed to validate users", "userIds", ids, "error", err)
		return false
	}
	if reply.AllValid == nil {
		logger.Log.Errorw("failed to validate users", "userIds", ids, "error", ErrIncompleteReply)
		return false
	}

	if !*reply.AllValid {
		logger.Log.Infow("users rejected by user service",
			"userIds", ids,
			"validUsers", reply.ValidUsers,
		)
	}

	return *reply.AllValid
}

// ValidateTransferParties validates a sender and receiver pair. A self-transfer
// is rejected without asking the user service.
func (f *UserGatewayFacade) ValidateTransferParties(ctx context.Context, senderID, receiverID string) bool {
	if senderID == receiverID {
		logger.Log.Warnw("self-transfer rejected", "userId", senderID)
		return false
	}

	return f.ValidateUsers(ctx, []string{senderID, receiverID})
}

// CheckSenderBalance reports whether senderID can cover amount.
func (f *UserGatewayFacade) CheckSenderBalance(ctx context.Context, senderID string, amount float64) (bool, error) {
	var reply models.CheckBalanceReply
	req := models.CheckBalanceRequest{SenderUserID: senderID, Amount: amount}
	if err := f.client.Call(ctx, CheckBalanceQueue, req, &reply, f.balanceTimeout); err != nil {
		logger.Log.Errorw("failed to check sender balance", "senderUserId", senderID, "amount", amount, "error", err)
		return false, err
	}
	if reply.HasSufficientBalance == nil {
		return false, ErrIncompleteReply
	}

	if !*reply.HasSufficientBalance {
		logger.Log.Infow("insufficient balance",
			"senderUserId", senderID,
			"amount", amount,
			"currentBalance", reply.CurrentBalance,
		)
	}

	return *reply.HasSufficientBalance, nil
}

// UpdateUserBalance hands the balance change to the broker. It does not wait
// for the user service to apply it.
func (f *UserGatewayFacade) UpdateUserBalance(ctx context.Context, senderID, receiverID string, amount float64) error {
	msg := models.BalanceUpdateMessage{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     amount,
	}
	if err := f.client.Publish(ctx, NewTransactionsQueue, msg); err != nil {
		logger.Log.Errorw("failed to publish balance update",
			"senderid", senderID,
			"receiverid", receiverID,
			"amount", amount,
			"error", err,
		)
		return err
	}

	return nil
}
