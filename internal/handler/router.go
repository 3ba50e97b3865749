package handler

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/contactsapi/contactsapi/internal/metrics"
	"github.com/contactsapi/contactsapi/internal/middleware"
)

// RouterConfig wires handlers and cross-cutting middleware into a router.
type RouterConfig struct {
	Logger *slog.Logger

	Root     *Handler
	Health   *HealthHandler
	Metrics  *MetricsHandler
	Auth     *AuthHandler
	Contacts *ContactHandler
	Users    *UserHandler

	Authenticator    middleware.Authenticator
	Limiter          middleware.RateLimiter
	RateLimitEnabled bool
	Recorder         metrics.Recorder

	IsDevelopment      bool
	MaxRequestBodySize int64
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment}))

	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)
	r.Get("/metrics", cfg.Metrics.Metrics)
	r.Get("/", cfg.Root.Hello)

	authenticate := middleware.Authenticate(middleware.AuthConfig{
		Logger:        cfg.Logger,
		Authenticator: cfg.Authenticator,
	})
	rateLimit := middleware.RateLimitUser(middleware.RateLimitConfig{
		Logger:   cfg.Logger,
		Limiter:  cfg.Limiter,
		Enabled:  cfg.RateLimitEnabled,
		Recorder: cfg.Recorder,
	})
	limitBody := middleware.MaxBodySize(cfg.MaxRequestBodySize)

	r.Route("/api", func(r chi.Router) {
		r.With(limitBody).Post("/register", cfg.Auth.Register)
		r.With(limitBody).Post("/login", cfg.Auth.Login)
		r.With(limitBody).Post("/request_email", cfg.Auth.RequestEmail)
		r.Get("/refresh_token", cfg.Auth.Refresh)
		r.Get("/confirmed_email/{token}", cfg.Auth.ConfirmedEmail)

		r.Route("/contacts", func(r chi.Router) {
			r.Use(authenticate)
			r.With(limitBody, rateLimit).Post("/", cfg.Contacts.Create)
			r.Get("/", cfg.Contacts.List)
			r.Get("/search", cfg.Contacts.Search)
			r.Get("/birthday_next_7_days", cfg.Contacts.UpcomingBirthdays)
			r.Get("/{contact_id}", cfg.Contacts.Get)
			r.With(limitBody).Put("/{contact_id}", cfg.Contacts.Update)
			r.Delete("/{contact_id}", cfg.Contacts.Delete)
		})

		// The avatar handler applies its own, larger body limit.
		r.Route("/users", func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/me/", cfg.Users.Me)
			r.Patch("/avatar", cfg.Users.Avatar)
		})
	})

	r.NotFound(cfg.Root.NotFound)
	r.MethodNotAllowed(cfg.Root.MethodNotAllowed)

	return r
}
