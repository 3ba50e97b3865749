package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/contactsapi/contactsapi/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// TruncateAll empties every application table.
func TruncateAll(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, "TRUNCATE contacts, users CASCADE"); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates a confirmed test user with sensible defaults.
// The password hash is not a valid hash; set one when a test logs in.
func NewTestUser(t testing.TB, email string) *model.User {
	t.Helper()
	return &model.User{
		ID:           UniqueID("user"),
		Username:     "tester",
		Email:        email,
		PasswordHash: "not-a-hash",
		Confirmed:    true,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

// NewTestContact creates a test contact owned by ownerID.
func NewTestContact(t testing.TB, ownerID string) *model.Contact {
	t.Helper()
	note := "met at the conference"
	return &model.Contact{
		ID:             UniqueID("contact"),
		OwnerID:        ownerID,
		FirstName:      "Ann",
		SecondName:     "Lee",
		Email:          "ann.lee@example.com",
		Phone:          "+380501234567",
		Birthdate:      Date(1990, time.May, 17),
		AdditionalData: &note,
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
}

// NewTestFields returns a full set of contact fields.
func NewTestFields(first, second, email string, birthdate time.Time) model.ContactFields {
	return model.ContactFields{
		FirstName:  first,
		SecondName: second,
		Email:      email,
		Phone:      "+380501234567",
		Birthdate:  birthdate,
	}
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
