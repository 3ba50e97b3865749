package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/contactsapi/contactsapi/internal/auth"
	"github.com/contactsapi/contactsapi/internal/cache"
	"github.com/contactsapi/contactsapi/internal/metrics"
)

// RateLimiter counts requests per identity.
type RateLimiter interface {
	Allow(ctx context.Context, identity string) (*cache.RateLimitResult, error)
}

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	Logger   *slog.Logger
	Limiter  RateLimiter
	Enabled  bool
	Recorder metrics.Recorder
}

// RateLimitUser returns middleware that limits requests per authenticated user.
// It must be applied after Authenticate. Limiter errors fail open.
func RateLimitUser(cfg RateLimitConfig) func(http.Handler) http.Handler {
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || cfg.Limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			userID := auth.UserIDFromContext(r.Context())
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			result, err := cfg.Limiter.Allow(r.Context(), userID)
			if err != nil {
				cfg.Logger.Error("rate limit check failed",
					slog.String("error", err.Error()),
					slog.String("user_id", userID),
				)
				next.ServeHTTP(w, r)
				return
			}

			setRateLimitHeaders(w, result)

			if !result.Allowed {
				retryAfter := retryAfterSeconds(result)
				recorder.IncRateLimited()
				cfg.Logger.Warn("rate limit exceeded",
					slog.String("user_id", userID),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Int64("count", result.Count),
					slog.Int("retry_after_seconds", retryAfter),
					slog.String("request_id", GetRequestID(r.Context())),
				)

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeError(w, http.StatusTooManyRequests,
					fmt.Sprintf("Rate limit exceeded. Retry after %d seconds.", retryAfter),
					"RATE_LIMITED")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// setRateLimitHeaders sets standard rate limit response headers.
func setRateLimitHeaders(w http.ResponseWriter, result *cache.RateLimitResult) {
	w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

// retryAfterSeconds rounds up so clients never retry inside the window.
func retryAfterSeconds(result *cache.RateLimitResult) int {
	secs := int(math.Ceil(result.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}
