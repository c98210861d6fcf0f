package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-transactions/internal/jwt"
	"github.com/sbilibin2017/gw-transactions/internal/models"
	"github.com/sbilibin2017/gw-transactions/internal/rabbitmq"
	"github.com/sbilibin2017/gw-transactions/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRouter builds a router that authenticates every request as userID.
// An empty userID leaves the request unauthenticated.
func newRouter(userID string, register func(r chi.Router)) *chi.Mux {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if userID != "" {
				req = req.WithContext(jwt.WithUserID(req.Context(), userID))
			}
			next.ServeHTTP(w, req)
		})
	})
	register(r)
	return r
}

func TestCreateTransactionHandler(t *testing.T) {
	senderID := "sender-1"
	receiverID := "receiver-1"
	txn := &models.Transaction{
		ID:             uuid.New(),
		SenderUserID:   senderID,
		ReceiverUserID: receiverID,
		Amount:         100,
		Description:    "Dinner split",
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	validBody := models.CreateTransactionRequest{
		ReceiverUserID: receiverID,
		Amount:         100,
		Description:    "Dinner split",
	}

	tests := []struct {
		name               string
		userID             string
		requestBody        any
		setupMocks         func(m *MockTransactionCreator)
		expectedStatusCode int
		expectedError      string
		expectedTxnID      bool
	}{
		{
			name:        "successful transfer",
			userID:      senderID,
			requestBody: validBody,
			setupMocks: func(m *MockTransactionCreator) {
				m.EXPECT().Create(gomock.Any(), senderID, receiverID, 100.0, "Dinner split").Return(txn, nil)
			},
			expectedStatusCode: http.StatusCreated,
		},
		{
			name:               "unauthenticated",
			requestBody:        validBody,
			setupMocks:         func(m *MockTransactionCreator) {},
			expectedStatusCode: http.StatusUnauthorized,
			expectedError:      "Unauthorized",
		},
		{
			name:               "invalid json",
			userID:             senderID,
			requestBody:        "not-json",
			setupMocks:         func(m *MockTransactionCreator) {},
			expectedStatusCode: http.StatusBadRequest,
			expectedError:      "invalid request body",
		},
		{
			name:               "missing receiver",
			userID:             senderID,
			requestBody:        models.CreateTransactionRequest{Amount: 10, Description: "Lunch"},
			setupMocks:         func(m *MockTransactionCreator) {},
			expectedStatusCode: http.StatusBadRequest,
			expectedError:      "receiverUserId is required",
		},
		{
			name:               "non positive amount",
			userID:             senderID,
			requestBody:        models.CreateTransactionRequest{ReceiverUserID: receiverID, Amount: 0, Description: "Lunch"},
			setupMocks:         func(m *MockTransactionCreator) {},
			expectedStatusCode: http.StatusBadRequest,
			expectedError:      "amount must be positive",
		},
		{
			name:               "short description",
			userID:             senderID,
			requestBody:        models.CreateTransactionRequest{ReceiverUserID: receiverID, Amount: 5, Description: "ok"},
			setupMocks:         func(m *MockTransactionCreator) {},
			expectedStatusCode: http.StatusBadRequest,
			expectedError:      "description is too short",
		},
		{
			name:               "amount below one cent",
			userID:             senderID,
			requestBody:        models.CreateTransactionRequest{ReceiverUserID: receiverID, Amount: 0.001, Description: "Lunch"},
			setupMocks:         func(m *MockTransactionCreator) {},
			expectedStatusCode: http.StatusBadRequest,
			expectedError:      "amount must have at most 2 decimal places",
		},
		{
			name:               "amount with fractional cents",
			userID:             senderID,
			requestBody:        models.CreateTransactionRequest{ReceiverUserID: receiverID, Amount: 10.005, Description: "Lunch"},
			setupMocks:         func(m *MockTransactionCreator) {},
			expectedStatusCode: http.StatusBadRequest,
			expectedError:      "amount must have at most 2 decimal places",
		},
		{
			name:        "amount with cents",
			userID:      senderID,
			requestBody: models.CreateTransactionRequest{ReceiverUserID: receiverID, Amount: 10.01, Description: "Lunch"},
			setupMocks: func(m *MockTransactionCreator) {
				m.EXPECT().Create(gomock.Any(), senderID, receiverID, 10.01, "Lunch").Return(txn, nil)
			},
			expectedStatusCode: http.StatusCreated,
		},
		{
			name:               "amount too large",
			userID:             senderID,
			requestBody:        models.CreateTransactionRequest{ReceiverUserID: receiverID, Amount: 1e19, Description: "Lunch"},
			setupMocks:         func(m *MockTransactionCreator) {},
			expectedStatusCode: http.StatusBadRequest,
			expectedError:      "amount is too large",
		},
		{
			name:               "description too long",
			userID:             senderID,
			requestBody:        models.CreateTransactionRequest{ReceiverUserID: receiverID, Amount: 5, Description: strings.Repeat("a", 256)},
			setupMocks:         func(m *MockTransactionCreator) {},
			expectedStatusCode: http.StatusBadRequest,
			expectedError:      "description is too long",
		},
		{
			name:        "description at the limit",
			userID:      senderID,
			requestBody: models.CreateTransactionRequest{ReceiverUserID: receiverID, Amount: 5, Description: strings.Repeat("я", 255)},
			setupMocks: func(m *MockTransactionCreator) {
				m.EXPECT().Create(gomock.Any(), senderID, receiverID, 5.0, strings.Repeat("я", 255)).Return(txn, nil)
			},
			expectedStatusCode: http.StatusCreated,
		},
		{
			name:        "invalid users",
			userID:      senderID,
			requestBody: validBody,
			setupMocks: func(m *MockTransactionCreator) {
				m.EXPECT().Create(gomock.Any(), senderID, receiverID, 100.0, "Dinner split").Return(nil, services.ErrInvalidUsers)
			},
			expectedStatusCode: http.StatusBadRequest,
			expectedError:      "Invalid users",
		},
		{
			name:        "insufficient balance",
			userID:      senderID,
			requestBody: validBody,
			setupMocks: func(m *MockTransactionCreator) {
				m.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, services.ErrInsufficientBalance)
			},
			expectedStatusCode: http.StatusUnprocessableEntity,
			expectedError:      "Insufficient balance",
		},
		{
			name:        "balance check timeout",
			userID:      senderID,
			requestBody: validBody,
			setupMocks: func(m *MockTransactionCreator) {
				err := &rabbitmq.TimeoutError{Queue: "check_balance", CorrelationID: "c1", Timeout: 10 * time.Second}
				m.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, err)
			},
			expectedStatusCode: http.StatusGatewayTimeout,
			expectedError:      "User service did not respond in time",
		},
		{
			name:        "broker unavailable",
			userID:      senderID,
			requestBody: validBody,
			setupMocks: func(m *MockTransactionCreator) {
				err := &rabbitmq.ConnectionError{Op: "dial", URL: "amqp://localhost:5672/", Err: errors.New("refused")}
				m.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, err)
			},
			expectedStatusCode: http.StatusServiceUnavailable,
			expectedError:      "User service unavailable",
		},
		{
			name:        "balance update failed after save",
			userID:      senderID,
			requestBody: validBody,
			setupMocks: func(m *MockTransactionCreator) {
				cause := &rabbitmq.ConnectionError{Op: "channel", Err: errors.New("closed")}
				err := fmt.Errorf("%w: %w", services.ErrBalanceUpdateFailed, cause)
				m.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(txn, err)
			},
			expectedStatusCode: http.StatusBadGateway,
			expectedError:      "Transaction recorded but balance update failed",
			expectedTxnID:      true,
		},
		{
			name:        "storage error",
			userID:      senderID,
			requestBody: validBody,
			setupMocks: func(m *MockTransactionCreator) {
				m.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))
			},
			expectedStatusCode: http.StatusInternalServerError,
			expectedError:      "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc := NewMockTransactionCreator(ctrl)
			tt.setupMocks(svc)

			router := newRouter(tt.userID, func(r chi.Router) {
				RegisterCreateTransactionHandler(r, NewCreateTransactionHandler(svc))
			})

			var body []byte
			if s, ok := tt.requestBody.(string); ok {
				body = []byte(s)
			} else {
				body, _ = json.Marshal(tt.requestBody)
			}

			req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()

			router.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatusCode, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			if tt.expectedError == "" {
				var resp models.TransactionResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.Equal(t, txn.ID.String(), resp.ID)
				assert.Equal(t, senderID, resp.SenderUserID)
				assert.Equal(t, receiverID, resp.ReceiverUserID)
				assert.Equal(t, 100.0, resp.Amount)
				return
			}

			var resp models.TransactionErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, tt.expectedError, resp.Error)
			if tt.expectedTxnID {
				assert.Equal(t, txn.ID.String(), resp.TransactionID)
			} else {
				assert.Empty(t, resp.TransactionID)
			}
		})
	}
}

func TestHasCents(t *testing.T) {
	tests := []struct {
		amount float64
		want   bool
	}{
		{amount: 1, want: true},
		{amount: 0.01, want: true},
		{amount: 0.3, want: true},
		{amount: 10.01, want: true},
		{amount: 19.99, want: true},
		{amount: 100.5, want: true},
		{amount: 0.001, want: false},
		{amount: 10.005, want: false},
		{amount: 0.015, want: false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.amount), func(t *testing.T) {
			assert.Equal(t, tt.want, hasCents(tt.amount))
		})
	}
}
