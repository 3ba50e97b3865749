//go:build integration

package repository_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contactsapi/contactsapi/internal/repository"
	"github.com/contactsapi/contactsapi/internal/testutil"
)

func TestIntegrationMigration_Tables(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	expected := map[string][]string{
		"users":    {"id", "username", "email", "password_hash", "avatar", "refresh_token", "confirmed", "created_at"},
		"contacts": {"id", "user_id", "first_name", "second_name", "email", "phone", "birthdate", "additional_data", "created_at"},
	}

	for table, columns := range expected {
		t.Run(table, func(t *testing.T) {
			for _, col := range columns {
				exists, err := columnExists(ctx, pool, table, col)
				if err != nil {
					t.Fatalf("columnExists failed: %v", err)
				}
				if !exists {
					t.Errorf("Column %q should exist in %s", col, table)
				}
			}
		})
	}
}

func TestIntegrationMigration_CascadeDelete(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	if err := testutil.TruncateAll(ctx, pool); err != nil {
		t.Fatal(err)
	}

	_, err := pool.Exec(ctx, `
		INSERT INTO users (id, username, email, password_hash) VALUES ('u1', 'ann', 'ann@example.com', 'x');
		INSERT INTO contacts (id, user_id, first_name, second_name, email, phone, birthdate)
		VALUES ('c1', 'u1', 'A', 'B', 'a@example.com', '1', '1990-01-01');
	`)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := pool.Exec(ctx, `DELETE FROM users WHERE id = 'u1'`); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	var n int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM contacts WHERE user_id = 'u1'`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("contacts should be cascade-deleted, %d remain", n)
	}
}

func TestIntegrationMigration_Idempotent(t *testing.T) {
	ctx, _ := newMigrationTestEnv(t)

	dbURL := testutil.RequireEnv(t, "DATABASE_URL")
	if err := repository.Migrate(ctx, dbURL); err != nil {
		t.Fatalf("second Migrate should be a no-op: %v", err)
	}
}

func columnExists(ctx context.Context, pool *pgxpool.Pool, tableName, columnName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.columns
			WHERE table_schema = 'public'
			AND table_name = $1
			AND column_name = $2
		)
	`, tableName, columnName).Scan(&exists)
	return exists, err
}

func newMigrationTestEnv(t *testing.T) (context.Context, *pgxpool.Pool) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	if err := repository.Migrate(ctx, dbURL); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	unlock, err := testutil.AcquireDBLock(ctx, pool)
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	return ctx, pool
}
