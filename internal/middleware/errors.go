package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/contactsapi/contactsapi/internal/handler/dto"
)

// writeError writes the API's JSON error envelope.
func writeError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: message, Code: code})
}
