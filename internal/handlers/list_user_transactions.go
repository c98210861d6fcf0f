package handlers

//go:generate mockgen -source=list_user_transactions.go -destination=mock_list_user_transactions.go -package=handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sbilibin2017/gw-transactions/internal/jwt"
	"github.com/sbilibin2017/gw-transactions/internal/logger"
	"github.com/sbilibin2017/gw-transactions/internal/models"
)

// TransactionLister defines the interface that the service must implement.
type TransactionLister interface {
	ListByUser(ctx context.Context, userID string) ([]models.Transaction, error)
}

// NewListUserTransactionsHandler returns the caller's transactions
// @Summary List user transactions
// @Description Returns every transaction the user sent or received, newest first
// @Tags transactions
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} models.TransactionListResponse
// @Failure 401 {object} models.TransactionErrorResponse "Unauthorized"
// @Failure 403 {object} models.TransactionErrorResponse "Forbidden"
// @Failure 500 {object} models.TransactionErrorResponse "Internal server error"
// @Router /transactions/user/{userId} [get]
// @Security BearerAuth
func NewListUserTransactionsHandler(svc TransactionLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		callerID, ok := jwt.UserIDFromContext(ctx)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		userID := chi.URLParam(r, "userId")
		if userID != callerID {
			logger.Log.Warnw("listing another user's transactions refused", "caller", callerID, "user_id", userID)
			writeError(w, http.StatusForbidden, "Forbidden")
			return
		}

		txns, err := svc.ListByUser(ctx, userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		resp := models.TransactionListResponse{
			Transactions: make([]models.TransactionResponse, 0, len(txns)),
		}
		for i := range txns {
			resp.Transactions = append(resp.Transactions, models.NewTransactionResponse(&txns[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// RegisterListUserTransactionsHandler registers the route for listing a user's transactions
func RegisterListUserTransactionsHandler(r chi.Router, h http.HandlerFunc) {
	r.Get("/transactions/user/{userId}", h)
}
