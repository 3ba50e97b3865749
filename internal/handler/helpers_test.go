package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/contactsapi/contactsapi/internal/auth"
	"github.com/contactsapi/contactsapi/internal/cache"
	"github.com/contactsapi/contactsapi/internal/mail"
	"github.com/contactsapi/contactsapi/internal/metrics"
	"github.com/contactsapi/contactsapi/internal/service"
	"github.com/contactsapi/contactsapi/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type capturingQueue struct {
	mu       sync.Mutex
	messages []mail.ConfirmationMessage
}

func (q *capturingQueue) Enqueue(ctx context.Context, msg mail.ConfirmationMessage) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.messages = append(q.messages, msg)
	return "1-0", nil
}

func (q *capturingQueue) lastToken(t *testing.T) string {
	t.Helper()
	q.mu.Lock()
	defer q.mu.Unlock()
	require.NotEmpty(t, q.messages, "no confirmation message queued")
	return q.messages[len(q.messages)-1].Token
}

type stubUploader struct {
	body []byte
}

func (u *stubUploader) Upload(ctx context.Context, username, userID string, r io.Reader, contentType string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	u.body = b
	return "https://img.example.com/avatars/" + username + "?v=1", nil
}

// windowLimiter admits limit calls per identity and never resets.
type windowLimiter struct {
	mu     sync.Mutex
	limit  int64
	counts map[string]int64
}

func (l *windowLimiter) Allow(ctx context.Context, identity string) (*cache.RateLimitResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts[identity]++
	count := l.counts[identity]
	res := &cache.RateLimitResult{
		Allowed:   count <= l.limit,
		Limit:     l.limit,
		Count:     count,
		Remaining: max(l.limit-count, 0),
		ResetAt:   time.Now().Add(time.Minute),
	}
	if !res.Allowed {
		res.RetryAfter = time.Minute
	}
	return res, nil
}

type testAPI struct {
	server   *httptest.Server
	store    *testutil.MemoryStore
	queue    *capturingQueue
	tokens   *auth.TokenService
	uploader *stubUploader
	recorder *metrics.InMemoryRecorder
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	tokens, err := auth.NewTokenService(auth.TokenConfig{Secret: []byte("handler-test-secret"), Algorithm: "HS256"})
	require.NoError(t, err)

	store := testutil.NewMemoryStore()
	queue := &capturingQueue{}
	uploader := &stubUploader{}
	recorder := metrics.NewInMemory()
	logger := discardLogger()

	authSvc := service.NewAuthService(store, tokens, queue, logger, recorder)
	contactSvc := service.NewContactService(store, recorder)
	userSvc := service.NewUserService(store, uploader, logger, recorder)

	router := NewRouter(RouterConfig{
		Logger:             logger,
		Root:               New(),
		Health:             NewHealthHandler(nil, nil, logger),
		Metrics:            NewMetricsHandler(recorder),
		Auth:               NewAuthHandler(authSvc, "https://contacts.example.com", logger),
		Contacts:           NewContactHandler(contactSvc, logger),
		Users:              NewUserHandler(userSvc, 1<<20, logger),
		Authenticator:      authSvc,
		Limiter:            &windowLimiter{limit: 5, counts: make(map[string]int64)},
		RateLimitEnabled:   true,
		Recorder:           recorder,
		IsDevelopment:      true,
		MaxRequestBodySize: 1 << 16,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testAPI{
		server:   srv,
		store:    store,
		queue:    queue,
		tokens:   tokens,
		uploader: uploader,
		recorder: recorder,
	}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (a *testAPI) login(t *testing.T, email, password string) *http.Response {
	t.Helper()
	form := url.Values{"username": {email}, "password": {password}}
	resp, err := http.Post(a.server.URL+"/api/login", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// signup registers, confirms and logs in a user, returning its token pair.
func (a *testAPI) signup(t *testing.T, username, email string) tokenPair {
	t.Helper()

	resp := a.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"username": username, "email": email, "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = a.do(t, http.MethodGet, "/api/confirmed_email/"+a.queue.lastToken(t), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = a.login(t, email, "secret123")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[tokenPair](t, resp)
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type errorBody struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Fields []struct {
		Field string `json:"field"`
	} `json:"fields"`
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}
