package models

import (
	"time"

	"github.com/google/uuid"
)

// Transaction is a recorded transfer between two users.
type Transaction struct {
	ID             uuid.UUID `json:"id" db:"id"`                           // Unique transaction identifier
	SenderUserID   string    `json:"senderUserId" db:"sender_user_id"`     // User the amount is taken from
	ReceiverUserID string    `json:"receiverUserId" db:"receiver_user_id"` // User the amount is credited to
	Amount         float64   `json:"amount" db:"amount"`                   // Transferred amount
	Description    string    `json:"description" db:"description"`         // Free-form note from the sender
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`            // Timestamp when the transaction was recorded
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`            // Timestamp of the last update
}

// IsParty reports whether userID sent or received the transaction.
func (t *Transaction) IsParty(userID string) bool {
	return t.SenderUserID == userID || t.ReceiverUserID == userID
}

// CreateTransactionRequest represents the JSON body for creating a transaction
// swagger:model CreateTransactionRequest
type CreateTransactionRequest struct {
	// Receiver user ID
	// required: true
	// example: 7b0c6b1e-2f4a-4d8e-9c1a-3e5f7a9b1c2d
	ReceiverUserID string `json:"receiverUserId" validate:"required"`

	// Amount to transfer, at most two decimal places
	// required: true
	// example: 100.5
	Amount float64 `json:"amount" validate:"gt=0,lt=1e18,cents"`

	// Description of the transfer, 3 to 255 characters
	// required: true
	// example: Dinner split
	Description string `json:"description" validate:"required,min=3,max=255"`
}

// TransactionResponse represents a single transaction
// swagger:model TransactionResponse
type TransactionResponse struct {
	// Transaction ID
	// example: 1f0e3dad-9990-4f2b-8a4c-2e3f4a5b6c7d
	ID string `json:"id"`

	// Sender user ID
	SenderUserID string `json:"senderUserId"`

	// Receiver user ID
	ReceiverUserID string `json:"receiverUserId"`

	// Transferred amount
	// example: 100.5
	Amount float64 `json:"amount"`

	// Description of the transfer
	Description string `json:"description"`

	// Creation time
	CreatedAt time.Time `json:"createdAt"`
}

// NewTransactionResponse converts a transaction into its API shape.
func NewTransactionResponse(t *Transaction) TransactionResponse {
	return TransactionResponse{
		ID:             t.ID.String(),
		SenderUserID:   t.SenderUserID,
		ReceiverUserID: t.ReceiverUserID,
		Amount:         t.Amount,
		Description:    t.Description,
		CreatedAt:      t.CreatedAt,
	}
}

// TransactionListResponse represents the transactions of a user
// swagger:model TransactionListResponse
type TransactionListResponse struct {
	// Transactions, newest first
	Transactions []TransactionResponse `json:"transactions"`
}

// TransactionErrorResponse represents an error response for transaction endpoints
// swagger:model TransactionErrorResponse
type TransactionErrorResponse struct {
	// Error message
	// example: Insufficient balance
	Error string `json:"error"`

	// ID of the recorded transaction when only the balance update failed
	TransactionID string `json:"transactionId,omitempty"`
}

// TransactionEvent is the audit record streamed after a transfer is recorded.
type TransactionEvent struct {
	TransactionID  string  `json:"transaction_id"`   // Recorded transaction ID
	Timestamp      int64   `json:"timestamp"`        // Unix timestamp (in seconds) of the transfer
	Amount         float64 `json:"amount"`           // Transferred amount
	SenderUserID   string  `json:"sender_user_id"`   // User the amount is taken from
	ReceiverUserID string  `json:"receiver_user_id"` // User the amount is credited to
	Operation      string  `json:"operation"`        // Always "transfer"
}

// NewTransactionEvent builds the audit record for t.
func NewTransactionEvent(t *Transaction) TransactionEvent {
	return TransactionEvent{
		TransactionID:  t.ID.String(),
		Timestamp:      t.CreatedAt.Unix(),
		Amount:         t.Amount,
		SenderUserID:   t.SenderUserID,
		ReceiverUserID: t.ReceiverUserID,
		Operation:      "transfer",
	}
}
