//go:build integration

package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactsapi/contactsapi/internal/auth"
	"github.com/contactsapi/contactsapi/internal/cache"
	"github.com/contactsapi/contactsapi/internal/handler/dto"
	"github.com/contactsapi/contactsapi/internal/mail"
	"github.com/contactsapi/contactsapi/internal/metrics"
	"github.com/contactsapi/contactsapi/internal/repository"
	"github.com/contactsapi/contactsapi/internal/service"
	"github.com/contactsapi/contactsapi/internal/testutil"
)

type integrationAPI struct {
	*testAPI
	cache *cache.Cache
}

func newIntegrationAPI(t *testing.T) *integrationAPI {
	t.Helper()
	ctx := context.Background()

	dbURL := testutil.RequireEnv(t, "DATABASE_URL")
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	repo, err := repository.New(ctx, dbURL)
	if err != nil {
		t.Skipf("Skipping integration test: Postgres not available: %v", err)
	}
	t.Cleanup(repo.Close)
	require.NoError(t, repository.Migrate(ctx, dbURL))

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	require.NoError(t, err)
	t.Cleanup(func() { _ = unlock() })
	require.NoError(t, testutil.TruncateAll(ctx, repo.Pool()))

	c, err := cache.New(ctx, redisURL)
	if err != nil {
		t.Skipf("Skipping integration test: Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, testutil.FlushRedis(ctx, c.Client()))

	limiter, err := cache.NewFixedWindowLimiter(c, 5, time.Minute)
	require.NoError(t, err)

	tokens, err := auth.NewTokenService(auth.TokenConfig{Secret: []byte("integration-secret"), Algorithm: "HS256"})
	require.NoError(t, err)

	logger := discardLogger()
	recorder := metrics.NewInMemory()
	queue := mail.NewQueue(c.Client(), logger, recorder)
	authSvc := service.NewAuthService(repo, tokens, queue, logger, recorder)

	router := NewRouter(RouterConfig{
		Logger:             logger,
		Root:               New(),
		Health:             NewHealthHandler(repo, c, logger),
		Metrics:            NewMetricsHandler(recorder),
		Auth:               NewAuthHandler(authSvc, "http://localhost:8080", logger),
		Contacts:           NewContactHandler(service.NewContactService(repo, recorder), logger),
		Users:              NewUserHandler(service.NewUserService(repo, nil, logger, recorder), 1<<20, logger),
		Authenticator:      authSvc,
		Limiter:            limiter,
		RateLimitEnabled:   true,
		Recorder:           recorder,
		IsDevelopment:      true,
		MaxRequestBodySize: 1 << 16,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &integrationAPI{
		testAPI: &testAPI{server: srv, tokens: tokens, recorder: recorder},
		cache:   c,
	}
}

// queuedToken reads the confirmation token most recently queued for email.
func (a *integrationAPI) queuedToken(t *testing.T, email string) string {
	t.Helper()
	msgs, err := a.cache.Client().XRevRangeN(context.Background(), mail.StreamKey, "+", "-", 10).Result()
	require.NoError(t, err)
	for _, m := range msgs {
		var msg mail.ConfirmationMessage
		require.NoError(t, json.Unmarshal([]byte(m.Values["payload"].(string)), &msg))
		if msg.To == email {
			return msg.Token
		}
	}
	t.Fatalf("no confirmation queued for %s", email)
	return ""
}

func TestIntegrationAPI_Flow(t *testing.T) {
	api := newIntegrationAPI(t)

	resp := api.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = api.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"username": "ann", "email": "ann@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = api.do(t, http.MethodGet, "/api/confirmed_email/"+api.queuedToken(t, "ann@example.com"), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = api.login(t, "ann@example.com", "secret123")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	pair := decode[tokenPair](t, resp)

	for i := 1; i <= 5; i++ {
		resp = api.do(t, http.MethodPost, "/api/contacts/", pair.AccessToken,
			contactBody("Name", fmt.Sprintf("N%d", i), fmt.Sprintf("n%d@example.com", i), "1990-06-15"))
		require.Equal(t, http.StatusCreated, resp.StatusCode, "create %d", i)
	}

	resp = api.do(t, http.MethodPost, "/api/contacts/", pair.AccessToken, contactBody("Six", "S", "six@example.com", "1990-06-15"))
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	resp = api.do(t, http.MethodGet, "/api/contacts/search?second_name=n3", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	found := decode[[]dto.ContactResponse](t, resp)
	require.Len(t, found, 1)
	assert.Equal(t, "N3", found[0].SecondName)

	resp = api.do(t, http.MethodDelete, "/api/contacts/"+found[0].ID, pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = api.do(t, http.MethodGet, "/api/contacts/?limit=10", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]dto.ContactResponse](t, resp), 4)

	resp = api.do(t, http.MethodGet, "/api/refresh_token", pair.RefreshToken, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}
