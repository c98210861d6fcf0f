package handlers

//go:generate mockgen -source=create_transaction.go -destination=mock_create_transaction.go -package=handlers

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sbilibin2017/gw-transactions/internal/jwt"
	"github.com/sbilibin2017/gw-transactions/internal/logger"
	"github.com/sbilibin2017/gw-transactions/internal/models"
	"github.com/sbilibin2017/gw-transactions/internal/rabbitmq"
	"github.com/sbilibin2017/gw-transactions/internal/services"
)

var validate = newValidator()

// newValidator returns a validator that also knows the "cents" tag: a
// float with at most two decimal places, the scale transactions are stored at.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("cents", func(fl validator.FieldLevel) bool {
		return hasCents(fl.Field().Float())
	})
	return v
}

func hasCents(amount float64) bool {
	scaled := amount * 100
	return math.Abs(scaled-math.Round(scaled)) < 1e-6
}

// TransactionCreator defines the interface that the service must implement.
type TransactionCreator interface {
	Create(ctx context.Context, senderID, receiverID string, amount float64, description string) (*models.Transaction, error)
}

// NewCreateTransactionHandler handles transfers from the caller to another user
// @Summary Create transaction
// @Description Transfers an amount from the authenticated user to the receiver
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body models.CreateTransactionRequest true "Create Transaction Request"
// @Success 201 {object} models.TransactionResponse
// @Failure 400 {object} models.TransactionErrorResponse "Invalid body or invalid users"
// @Failure 401 {object} models.TransactionErrorResponse "Unauthorized"
// @Failure 422 {object} models.TransactionErrorResponse "Insufficient balance"
// @Failure 500 {object} models.TransactionErrorResponse "Internal server error"
// @Failure 502 {object} models.TransactionErrorResponse "Transaction recorded, balance update failed"
// @Failure 503 {object} models.TransactionErrorResponse "User service unavailable"
// @Failure 504 {object} models.TransactionErrorResponse "User service timeout"
// @Router /transactions [post]
// @Security BearerAuth
func NewCreateTransactionHandler(svc TransactionCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		senderID, ok := jwt.UserIDFromContext(ctx)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req models.CreateTransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Log.Errorw("invalid create transaction body", "error", err)
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, validationMessage(err))
			return
		}

		txn, err := svc.Create(ctx, senderID, req.ReceiverUserID, req.Amount, req.Description)
		if err != nil {
			status, msg := createErrorStatus(err)
			resp := models.TransactionErrorResponse{Error: msg}
			if txn != nil {
				resp.TransactionID = txn.ID.String()
			}
			writeJSON(w, status, resp)
			return
		}

		writeJSON(w, http.StatusCreated, models.NewTransactionResponse(txn))
	}
}

// RegisterCreateTransactionHandler registers the route for creating transactions
func RegisterCreateTransactionHandler(r chi.Router, h http.HandlerFunc) {
	r.Post("/transactions", h)
}

func createErrorStatus(err error) (int, string) {
	var (
		timeoutErr *rabbitmq.TimeoutError
		connErr    *rabbitmq.ConnectionError
	)

	switch {
	case errors.Is(err, services.ErrInvalidUsers):
		return http.StatusBadRequest, "Invalid users"
	case errors.Is(err, services.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity, "Insufficient balance"
	case errors.Is(err, services.ErrBalanceUpdateFailed):
		return http.StatusBadGateway, "Transaction recorded but balance update failed"
	case errors.As(err, &timeoutErr):
		return http.StatusGatewayTimeout, "User service did not respond in time"
	case errors.As(err, &connErr):
		return http.StatusServiceUnavailable, "User service unavailable"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func validationMessage(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return "invalid request body"
	}

	fe := errs[0]
	switch fe.Field() {
	case "ReceiverUserID":
		return "receiverUserId is required"
	case "Amount":
		switch fe.Tag() {
		case "cents":
			return "amount must have at most 2 decimal places"
		case "lt":
			return "amount is too large"
		}
		return "amount must be positive"
	case "Description":
		switch fe.Tag() {
		case "required":
			return "description is required"
		case "max":
			return "description is too long"
		}
		return "description is too short"
	default:
		return "invalid request body"
	}
}
