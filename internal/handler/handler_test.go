package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/contactsapi/contactsapi/internal/avatar"
	"github.com/contactsapi/contactsapi/internal/handler/dto"
	"github.com/contactsapi/contactsapi/internal/metrics"
	"github.com/contactsapi/contactsapi/internal/service"
)

func TestHandler_Hello(t *testing.T) {
	h := New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	h.Hello(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var response map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response["message"] != "Contacts API" {
		t.Errorf("unexpected message: %s", response["message"])
	}
}

func TestHandler_Fallbacks(t *testing.T) {
	h := New()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		status  int
		code    string
	}{
		{"not found", h.NotFound, http.StatusNotFound, "NOT_FOUND"},
		{"method not allowed", h.MethodNotAllowed, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rec.Code)
			}

			var response dto.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if response.Code != tt.code {
				t.Errorf("unexpected code: %s", response.Code)
			}
		})
	}
}

func TestWriteServiceError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err        error
		status     int
		code       string
		message    string
		challenged bool
	}{
		{service.ErrEmailExists, http.StatusConflict, "EMAIL_EXISTS", "Email already registered", false},
		{service.ErrInvalidEmail, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid email", true},
		{service.ErrEmailNotConfirmed, http.StatusUnauthorized, "UNAUTHORIZED", "Email not confirmed", true},
		{service.ErrInvalidPassword, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid password", true},
		{service.ErrInvalidRefreshToken, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid refresh token", true},
		{service.ErrInvalidScope, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid scope for token", true},
		{service.ErrInvalidCredentials, http.StatusUnauthorized, "UNAUTHORIZED", "Could not validate credentials", true},
		{service.ErrInvalidEmailToken, http.StatusUnprocessableEntity, "INVALID_TOKEN", "Invalid token for email verification", false},
		{service.ErrVerificationFailed, http.StatusNotFound, "VERIFICATION_ERROR", "Verification error", false},
		{service.ErrContactNotFound, http.StatusNotFound, "CONTACT_NOT_FOUND", "Contact not found", false},
		{fmt.Errorf("wrapped: %w", service.ErrContactNotFound), http.StatusNotFound, "CONTACT_NOT_FOUND", "Contact not found", false},
		{service.ErrAvatarUnavailable, http.StatusServiceUnavailable, "AVATAR_UNAVAILABLE", "Avatar storage is not configured", false},
		{fmt.Errorf("failed to upload avatar: %w", avatar.ErrEmptyImage), http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Uploaded file is empty", false},
		{errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.err.Error(), func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			writeServiceError(rec, discardLogger(), tt.err)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			var body dto.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if body.Code != tt.code || body.Error != tt.message {
				t.Errorf("body = %+v, want code %s message %q", body, tt.code, tt.message)
			}
			if got := rec.Header().Get("WWW-Authenticate") == "Bearer"; got != tt.challenged {
				t.Errorf("WWW-Authenticate challenge = %v, want %v", got, tt.challenged)
			}
		})
	}
}

func TestMetricsHandler(t *testing.T) {
	recorder := metrics.NewInMemory()
	recorder.IncContactCreated()
	recorder.IncLogin("failure")
	recorder.IncRateLimited()

	rec := httptest.NewRecorder()
	NewMetricsHandler(recorder).Metrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, line := range []string{
		"contactsapi_contacts_created_total 1",
		`contactsapi_logins_total{status="failure"} 1`,
		"contactsapi_rate_limited_total 1",
	} {
		if !strings.Contains(body, line) {
			t.Errorf("missing metric line %q in:\n%s", line, body)
		}
	}

	rec = httptest.NewRecorder()
	NewMetricsHandler(nil).Metrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503 without snapshotter, got %d", rec.Code)
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodGet, "/api/nothing-here", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("request id header missing")
	}
}
