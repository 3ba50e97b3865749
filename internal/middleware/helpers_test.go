package middleware

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/contactsapi/contactsapi/internal/cache"
	"github.com/contactsapi/contactsapi/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubAuthenticator struct {
	user *model.User
	err  error
}

func (s stubAuthenticator) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

// countingLimiter admits the first limit calls per identity.
type countingLimiter struct {
	limit  int64
	counts map[string]int64
	err    error
}

func newCountingLimiter(limit int64) *countingLimiter {
	return &countingLimiter{limit: limit, counts: make(map[string]int64)}
}

func (l *countingLimiter) Allow(ctx context.Context, identity string) (*cache.RateLimitResult, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.counts[identity]++
	count := l.counts[identity]
	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}
	res := &cache.RateLimitResult{
		Allowed:   count <= l.limit,
		Limit:     l.limit,
		Count:     count,
		Remaining: remaining,
		ResetAt:   time.Unix(1700000060, 0),
	}
	if !res.Allowed {
		res.RetryAfter = 42500 * time.Millisecond
	}
	return res, nil
}
