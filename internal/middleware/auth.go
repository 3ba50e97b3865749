package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/contactsapi/contactsapi/internal/auth"
	"github.com/contactsapi/contactsapi/internal/model"
	"github.com/contactsapi/contactsapi/internal/service"
)

// Authenticator resolves an access token to its user.
type Authenticator interface {
	CurrentUser(ctx context.Context, accessToken string) (*model.User, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger        *slog.Logger
	Authenticator Authenticator
}

const userHolderKey contextKey = "user_holder"

// userHolder carries the authenticated user id back out to Logger.
type userHolder struct {
	userID string
}

func withUserHolder(ctx context.Context, h *userHolder) context.Context {
	return context.WithValue(ctx, userHolderKey, h)
}

// Authenticate returns a middleware that requires a valid access token.
// It stores the resolved user with auth.ContextWithUser.
func Authenticate(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := auth.BearerToken(r)
			if !ok {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "missing_token"),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w, "Not authenticated")
				return
			}

			user, err := cfg.Authenticator.CurrentUser(r.Context(), token)
			if err != nil {
				if !errors.Is(err, service.ErrInvalidCredentials) {
					cfg.Logger.Error("user lookup failed during auth",
						slog.String("error", err.Error()),
						slog.String("request_id", GetRequestID(r.Context())),
					)
					writeError(w, http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
					return
				}
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "invalid_token"),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w, "Could not validate credentials")
				return
			}

			if h, ok := r.Context().Value(userHolderKey).(*userHolder); ok {
				h.userID = user.ID
			}

			ctx := auth.ContextWithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeAuthError writes a 401 with a bearer challenge.
func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, message, "UNAUTHORIZED")
}
