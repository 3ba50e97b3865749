// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/contactsapi/contactsapi/internal/avatar"
	"github.com/contactsapi/contactsapi/internal/handler/dto"
	"github.com/contactsapi/contactsapi/internal/service"
)

// Handler serves the root and fallback routes.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// Hello reports the service name and version.
// GET /
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"message": "Contacts API",
		"version": "1.0.0",
	}
	writeJSON(w, http.StatusOK, response)
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "resource not found", "NOT_FOUND")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed", "METHOD_NOT_ALLOWED")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func writeValidationError(w http.ResponseWriter, fields []dto.FieldError) {
	writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{
		Error:  "validation failed",
		Code:   "VALIDATION_ERROR",
		Fields: fields,
	})
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, message, "UNAUTHORIZED")
}

// decodeJSON reads a JSON body into dst and validates it.
// It writes the error response itself and reports whether the caller may continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large", "PAYLOAD_TOO_LARGE")
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, "request body is empty", "INVALID_JSON")
		default:
			writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		}
		return false
	}
	if fields := dto.Validate(dst); len(fields) > 0 {
		writeValidationError(w, fields)
		return false
	}
	return true
}

// writeServiceError maps service errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrEmailExists):
		writeError(w, http.StatusConflict, "Email already registered", "EMAIL_EXISTS")
	case errors.Is(err, service.ErrInvalidEmail):
		writeUnauthorized(w, "Invalid email")
	case errors.Is(err, service.ErrEmailNotConfirmed):
		writeUnauthorized(w, "Email not confirmed")
	case errors.Is(err, service.ErrInvalidPassword):
		writeUnauthorized(w, "Invalid password")
	case errors.Is(err, service.ErrInvalidRefreshToken):
		writeUnauthorized(w, "Invalid refresh token")
	case errors.Is(err, service.ErrInvalidScope):
		writeUnauthorized(w, "Invalid scope for token")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeUnauthorized(w, "Could not validate credentials")
	case errors.Is(err, service.ErrInvalidEmailToken):
		writeError(w, http.StatusUnprocessableEntity, "Invalid token for email verification", "INVALID_TOKEN")
	case errors.Is(err, service.ErrVerificationFailed):
		writeError(w, http.StatusNotFound, "Verification error", "VERIFICATION_ERROR")
	case errors.Is(err, service.ErrContactNotFound):
		writeError(w, http.StatusNotFound, "Contact not found", "CONTACT_NOT_FOUND")
	case errors.Is(err, service.ErrInvalidPagination):
		writeError(w, http.StatusUnprocessableEntity, "skip must be >= 0 and limit between 0 and 100", "VALIDATION_ERROR")
	case errors.Is(err, avatar.ErrEmptyImage):
		writeError(w, http.StatusUnprocessableEntity, "Uploaded file is empty", "VALIDATION_ERROR")
	case errors.Is(err, service.ErrAvatarUnavailable):
		writeError(w, http.StatusServiceUnavailable, "Avatar storage is not configured", "AVATAR_UNAVAILABLE")
	default:
		logger.Error("internal error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
