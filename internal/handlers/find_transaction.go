package handlers

//go:generate mockgen -source=find_transaction.go -destination=mock_find_transaction.go -package=handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-transactions/internal/jwt"
	"github.com/sbilibin2017/gw-transactions/internal/models"
	"github.com/sbilibin2017/gw-transactions/internal/services"
)

// TransactionFinder defines the interface that the service must implement.
type TransactionFinder interface {
	Find(ctx context.Context, id uuid.UUID, userID string) (*models.Transaction, error)
}

// NewFindTransactionHandler returns a single transaction of the caller
// @Summary Get transaction
// @Description Returns a transaction the authenticated user sent or received
// @Tags transactions
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} models.TransactionResponse
// @Failure 400 {object} models.TransactionErrorResponse "Invalid transaction ID"
// @Failure 401 {object} models.TransactionErrorResponse "Unauthorized"
// @Failure 404 {object} models.TransactionErrorResponse "Transaction not found"
// @Failure 500 {object} models.TransactionErrorResponse "Internal server error"
// @Router /transactions/{id} [get]
// @Security BearerAuth
func NewFindTransactionHandler(svc TransactionFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, ok := jwt.UserIDFromContext(ctx)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid transaction id")
			return
		}

		txn, err := svc.Find(ctx, id, userID)
		if errors.Is(err, services.ErrTransactionNotFound) {
			writeError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		writeJSON(w, http.StatusOK, models.NewTransactionResponse(txn))
	}
}

// RegisterFindTransactionHandler registers the route for reading a transaction
func RegisterFindTransactionHandler(r chi.Router, h http.HandlerFunc) {
	r.Get("/transactions/{id}", h)
}
