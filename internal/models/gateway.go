package models

// ValidateUsersRequest is sent to the validate-users queue.
type ValidateUsersRequest struct {
	UserIDs []string `json:"userIds"`
}

// ValidateUsersReply is the user service answer to ValidateUsersRequest.
type ValidateUsersReply struct {
	AllValid   *bool    `json:"allValid" validate:"required"`
	ValidUsers []string `json:"validUsers,omitempty"`
	TotalUsers *int     `json:"totalUsers,omitempty"`
}

// CheckBalanceRequest is sent to the check-balance queue.
type CheckBalanceRequest struct {
	SenderUserID string  `json:"senderUserId"`
	Amount       float64 `json:"amount"`
}

// CheckBalanceReply is the user service answer to CheckBalanceRequest.
type CheckBalanceReply struct {
	HasSufficientBalance *bool    `json:"hasSufficientBalance" validate:"required"`
	CurrentBalance       *float64 `json:"currentBalance,omitempty"`
}

// BalanceUpdateMessage is published to the new-transactions queue.
// Field names on the wire are lower case without separators.
type BalanceUpdateMessage struct {
	SenderID   string  `json:"senderid"`
	ReceiverID string  `json:"receiverid"`
	Amount     float64 `json:"amount"`
}
