//go:build integration

package cache

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newIntegrationCache(t *testing.T) *Cache {
	t.Helper()

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	ctx := context.Background()
	c, err := New(ctx, redisURL)
	if err != nil {
		t.Skipf("Skipping integration test: Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if err := c.Client().FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
	return c
}

func TestFixedWindowLimiter_SequentialCalls(t *testing.T) {
	c := newIntegrationCache(t)
	ctx := context.Background()

	limiter, err := NewFixedWindowLimiter(c, 5, time.Minute)
	if err != nil {
		t.Fatalf("NewFixedWindowLimiter: %v", err)
	}

	for i := 1; i <= 5; i++ {
		res, err := limiter.Allow(ctx, "user-a")
		if err != nil {
			t.Fatalf("Allow #%d: %v", i, err)
		}
		if !res.Allowed {
			t.Fatalf("call #%d should be allowed", i)
		}
	}

	res, err := limiter.Allow(ctx, "user-a")
	if err != nil {
		t.Fatalf("Allow #6: %v", err)
	}
	if res.Allowed {
		t.Error("6th call should be rejected")
	}
	if res.RetryAfter <= 0 || res.RetryAfter > time.Minute {
		t.Errorf("RetryAfter = %v, want within (0, 1m]", res.RetryAfter)
	}

	other, err := limiter.Allow(ctx, "user-b")
	if err != nil {
		t.Fatalf("Allow user-b: %v", err)
	}
	if !other.Allowed {
		t.Error("counters must be per identity")
	}

	ttl, err := c.Client().PTTL(ctx, Key("user-a")).Result()
	if err != nil {
		t.Fatalf("PTTL: %v", err)
	}
	if ttl <= 0 {
		t.Errorf("counter key must carry a TTL, got %v", ttl)
	}
}

func TestFixedWindowLimiter_WindowExpiry(t *testing.T) {
	c := newIntegrationCache(t)
	ctx := context.Background()

	limiter, err := NewFixedWindowLimiter(c, 1, 200*time.Millisecond)
	if err != nil {
		t.Fatalf("NewFixedWindowLimiter: %v", err)
	}

	if res, _ := limiter.Allow(ctx, "user-a"); !res.Allowed {
		t.Fatal("first call should be allowed")
	}
	if res, _ := limiter.Allow(ctx, "user-a"); res.Allowed {
		t.Fatal("second call should be rejected")
	}

	time.Sleep(300 * time.Millisecond)

	res, err := limiter.Allow(ctx, "user-a")
	if err != nil {
		t.Fatalf("Allow after window: %v", err)
	}
	if !res.Allowed {
		t.Error("call after window should be allowed")
	}
}

func TestFixedWindowLimiter_RepairsMissingTTL(t *testing.T) {
	c := newIntegrationCache(t)
	ctx := context.Background()

	if err := c.Client().Set(ctx, Key("user-a"), 3, 0).Err(); err != nil {
		t.Fatalf("seed counter: %v", err)
	}

	limiter, err := NewFixedWindowLimiter(c, 5, time.Minute)
	if err != nil {
		t.Fatalf("NewFixedWindowLimiter: %v", err)
	}
	if _, err := limiter.Allow(ctx, "user-a"); err != nil {
		t.Fatalf("Allow: %v", err)
	}

	ttl, err := c.Client().PTTL(ctx, Key("user-a")).Result()
	if err != nil {
		t.Fatalf("PTTL: %v", err)
	}
	if ttl <= 0 {
		t.Errorf("expected TTL to be set, got %v", ttl)
	}
}

func TestFixedWindowLimiter_Concurrency(t *testing.T) {
	c := newIntegrationCache(t)
	ctx := context.Background()

	limiter, err := NewFixedWindowLimiter(c, 5, time.Minute)
	if err != nil {
		t.Fatalf("NewFixedWindowLimiter: %v", err)
	}

	var allowed int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := limiter.Allow(ctx, "user-a")
			if err != nil {
				t.Errorf("Allow: %v", err)
				return
			}
			if res.Allowed {
				atomic.AddInt64(&allowed, 1)
			}
		}()
	}
	wg.Wait()

	if allowed != 5 {
		t.Errorf("allowed = %d, want exactly 5", allowed)
	}
}
