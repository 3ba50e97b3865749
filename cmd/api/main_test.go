package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/contactsapi/contactsapi/internal/config"
)

func TestRedactURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", ""},
		{"postgres://app:s3cret@db:5432/contacts", "postgres://app@db:5432/contacts"},
		{"redis://:s3cret@cache:6379/0", "redis://redacted@cache:6379/0"},
		{"redis://cache:6379/0", "redis://cache:6379/0"},
	}

	for _, tt := range tests {
		if got := redactURL(tt.raw); got != tt.want {
			t.Errorf("redactURL(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestSanitizeError(t *testing.T) {
	dsn := "postgres://app:s3cret@db:5432/contacts"
	err := errors.New("dial " + dsn + " failed; password=hunter2&sslmode=disable")

	got := sanitizeError(err, dsn)
	if strings.Contains(got, "s3cret") || strings.Contains(got, "hunter2") {
		t.Errorf("secret leaked: %s", got)
	}
	if !strings.Contains(got, "postgres://app@db:5432/contacts") {
		t.Errorf("expected redacted dsn in %q", got)
	}
	if sanitizeError(nil) != "" {
		t.Error("nil error should sanitize to empty string")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRunCommand_Unknown(t *testing.T) {
	cfg := &config.Config{DatabaseURL: "postgres://localhost/none"}

	for _, args := range [][]string{{"serve"}, {"migrate"}, {"migrate", "sideways"}} {
		if err := runCommand(context.Background(), cfg, args); err == nil {
			t.Errorf("runCommand(%v) expected error", args)
		}
	}
}

func TestNewSender_LogsWithoutMailServer(t *testing.T) {
	cfg := &config.Config{}
	sender, err := newSender(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("newSender failed: %v", err)
	}
	if sender == nil {
		t.Fatal("expected a log sender")
	}
}

func TestNewAvatarStore_DisabledWithoutLocation(t *testing.T) {
	store, err := newAvatarStore(context.Background(), &config.Config{S3Bucket: "avatars"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("newAvatarStore failed: %v", err)
	}
	if store != nil {
		t.Error("expected avatar upload to be disabled")
	}
}
