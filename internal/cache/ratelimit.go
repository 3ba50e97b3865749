package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// rateLimitPrefix is the Redis key prefix for per-user counters.
const rateLimitPrefix = "rate_limit:"

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Limit      int64
	Count      int64
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// fixedWindowScript increments the counter and starts the window on the first hit.
// A key left without a TTL is repaired so a counter can never live forever.
// Returns {count, pttl_ms}.
var fixedWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local window_ms = tonumber(ARGV[1])

	local count = redis.call('INCR', key)
	if count == 1 then
		redis.call('PEXPIRE', key, window_ms)
	end

	local ttl = redis.call('PTTL', key)
	if ttl < 0 then
		redis.call('PEXPIRE', key, window_ms)
		ttl = window_ms
	end

	return {count, ttl}
`)

// FixedWindowLimiter admits at most limit calls per identity within each window.
// The window starts at the first call and is not sliding.
type FixedWindowLimiter struct {
	cache  *Cache
	limit  int64
	window time.Duration
	now    func() time.Time
}

// NewFixedWindowLimiter creates a limiter backed by c.
func NewFixedWindowLimiter(c *Cache, limit int, window time.Duration) (*FixedWindowLimiter, error) {
	if limit <= 0 {
		return nil, errors.New("rate limit must be positive")
	}
	if window < time.Millisecond {
		return nil, errors.New("rate limit window too short")
	}
	return &FixedWindowLimiter{
		cache:  c,
		limit:  int64(limit),
		window: window,
		now:    time.Now,
	}, nil
}

// Key returns the counter key for identity.
func Key(identity string) string {
	return rateLimitPrefix + identity
}

// Allow counts one call for identity. Calls over the limit still increment the
// counter, which has no effect on the outcome within the current window.
func (l *FixedWindowLimiter) Allow(ctx context.Context, identity string) (*RateLimitResult, error) {
	res, err := fixedWindowScript.Run(ctx, l.cache.client,
		[]string{Key(identity)},
		l.window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit check: %w", err)
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("rate limit check: unexpected reply length %d", len(res))
	}

	return evaluate(res[0], time.Duration(res[1])*time.Millisecond, l.limit, l.now()), nil
}

// Reset drops the counter for identity.
func (l *FixedWindowLimiter) Reset(ctx context.Context, identity string) error {
	return l.cache.client.Del(ctx, Key(identity)).Err()
}

func evaluate(count int64, ttl time.Duration, limit int64, now time.Time) *RateLimitResult {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	result := &RateLimitResult{
		Allowed:   count <= limit,
		Limit:     limit,
		Count:     count,
		Remaining: remaining,
		ResetAt:   now.Add(ttl),
	}
	if !result.Allowed {
		result.RetryAfter = ttl
	}
	return result
}
