package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// readinessTimeout bounds all dependency pings of one readiness probe.
const readinessTimeout = 3 * time.Second

// HealthChecker defines an interface for checking service health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	checks map[string]HealthChecker
	logger *slog.Logger
}

// NewHealthHandler creates a new HealthHandler.
// A nil db or cache is reported as "not configured" and does not fail readiness.
func NewHealthHandler(db, cache HealthChecker, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		checks: map[string]HealthChecker{
			"postgres": db,
			"redis":    cache,
		},
		logger: logger.With("component", "health.handler"),
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz is a liveness probe. It never touches dependencies.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz pings Postgres and Redis concurrently and returns 503 if either fails.
// Failure details are logged, not returned.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		healthy = true
		checks  = make(map[string]string, len(h.checks))
	)

	for name, checker := range h.checks {
		if checker == nil {
			checks[name] = "not configured"
			continue
		}
		wg.Add(1)
		go func(name string, checker HealthChecker) {
			defer wg.Done()
			err := checker.Ping(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				h.logger.Warn("readiness check failed", "dependency", name, "error", err)
				checks[name] = "unavailable"
				healthy = false
				return
			}
			checks[name] = "ok"
		}(name, checker)
	}
	wg.Wait()

	status, code := "ok", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	writeJSON(w, code, HealthResponse{Status: status, Checks: checks})
}
