package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/contactsapi/contactsapi/internal/auth"
	"github.com/contactsapi/contactsapi/internal/mail"
	"github.com/contactsapi/contactsapi/internal/testutil"
)

type fakeQueue struct {
	mu       sync.Mutex
	messages []mail.ConfirmationMessage
	err      error
}

func (q *fakeQueue) Enqueue(ctx context.Context, msg mail.ConfirmationMessage) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return "", q.err
	}
	q.messages = append(q.messages, msg)
	return "1-0", nil
}

func (q *fakeQueue) last(t *testing.T) mail.ConfirmationMessage {
	t.Helper()
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.messages) == 0 {
		t.Fatal("no confirmation message queued")
	}
	return q.messages[len(q.messages)-1]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	tokens, err := auth.NewTokenService(auth.TokenConfig{Secret: []byte("test-secret"), Algorithm: "HS256"})
	if err != nil {
		t.Fatalf("NewTokenService failed: %v", err)
	}
	return tokens
}

type authEnv struct {
	svc    *AuthService
	store  *testutil.MemoryStore
	queue  *fakeQueue
	tokens *auth.TokenService
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()
	store := testutil.NewMemoryStore()
	queue := &fakeQueue{}
	tokens := newTestTokens(t)
	return &authEnv{
		svc:    NewAuthService(store, tokens, queue, discardLogger(), nil),
		store:  store,
		queue:  queue,
		tokens: tokens,
	}
}

var errStoreDown = errors.New("store down")
