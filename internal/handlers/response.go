package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sbilibin2017/gw-transactions/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.TransactionErrorResponse{Error: msg})
}
