// Package main is the entrypoint for the Contacts API server.
//
// Usage:
//
//	api                 run the HTTP server
//	api migrate up      apply pending migrations and exit
//	api migrate down    roll back every migration and exit
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/contactsapi/contactsapi/internal/auth"
	"github.com/contactsapi/contactsapi/internal/avatar"
	"github.com/contactsapi/contactsapi/internal/cache"
	"github.com/contactsapi/contactsapi/internal/config"
	"github.com/contactsapi/contactsapi/internal/handler"
	"github.com/contactsapi/contactsapi/internal/mail"
	"github.com/contactsapi/contactsapi/internal/metrics"
	"github.com/contactsapi/contactsapi/internal/repository"
	"github.com/contactsapi/contactsapi/internal/server"
	"github.com/contactsapi/contactsapi/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	if len(os.Args) > 1 {
		if err := runCommand(ctx, cfg, os.Args[1:]); err != nil {
			logger.Error("command failed", slog.String("error", sanitizeError(err, cfg.DatabaseURL)))
			os.Exit(1)
		}
		return
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", slog.String("error", sanitizeError(err, cfg.DatabaseURL, cfg.RedisURL)))
		os.Exit(1)
	}
}

// runCommand handles the migrate subcommand.
func runCommand(ctx context.Context, cfg *config.Config, args []string) error {
	if args[0] != "migrate" || len(args) != 2 {
		return fmt.Errorf("unknown command %q", strings.Join(args, " "))
	}
	switch args[1] {
	case "up":
		return repository.Migrate(ctx, cfg.DatabaseURL)
	case "down":
		return repository.Rollback(ctx, cfg.DatabaseURL)
	default:
		return fmt.Errorf("unknown migrate direction %q", args[1])
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.MigrateOnStart {
		if err := repository.Migrate(ctx, cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("database migrations applied")
	}

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		return errors.New("database unavailable")
	}
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		repo.Close()
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		return errors.New("redis unavailable")
	}
	logger.Info("connected to Redis")

	recorder := metrics.NewInMemory()

	limiter, err := cache.NewFixedWindowLimiter(cacheClient, cfg.RateLimitRequests, cfg.RateLimitWindow)
	if err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret:     []byte(cfg.SecretKey),
		Algorithm:  cfg.Algorithm,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
		EmailTTL:   cfg.EmailTokenTTL,
	})
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}

	sender, err := newSender(cfg, logger)
	if err != nil {
		return fmt.Errorf("mail sender: %w", err)
	}
	queue := mail.NewQueue(cacheClient.Client(), logger, recorder)
	worker := mail.NewWorker(cacheClient.Client(), sender, logger, mail.NewConsumerID(), recorder)

	uploader, err := newAvatarStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("avatar storage: %w", err)
	}

	authService := service.NewAuthService(repo, tokens, queue, logger, recorder)
	contactService := service.NewContactService(repo, recorder)
	userService := service.NewUserService(repo, uploader, logger, recorder)

	router := handler.NewRouter(handler.RouterConfig{
		Logger:             logger,
		Root:               handler.New(),
		Health:             handler.NewHealthHandler(repo, cacheClient, logger),
		Metrics:            handler.NewMetricsHandler(recorder),
		Auth:               handler.NewAuthHandler(authService, cfg.BaseURL, logger),
		Contacts:           handler.NewContactHandler(contactService, logger),
		Users:              handler.NewUserHandler(userService, cfg.MaxAvatarSize, logger),
		Authenticator:      authService,
		Limiter:            limiter,
		RateLimitEnabled:   cfg.RateLimitEnabled,
		Recorder:           recorder,
		IsDevelopment:      cfg.IsDevelopment(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	})

	srv := server.New(router, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Shutdown runs in reverse: worker, then Redis, then Postgres.
	srv.OnShutdown("postgres", func(ctx context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(ctx context.Context) error {
		return cacheClient.Close()
	})
	srv.OnShutdown("mail-worker", worker.Shutdown)

	go func() {
		if err := worker.Run(ctx); err != nil {
			logger.Error("mail worker stopped", "error", err)
		}
	}()

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"env", cfg.AppEnv,
		"mail", cfg.MailEnabled(),
		"avatars", uploader != nil,
	)

	return srv.Run(ctx)
}

// newSender returns an SMTP sender when a mail server is configured,
// otherwise a sender that only logs.
func newSender(cfg *config.Config, logger *slog.Logger) (mail.Sender, error) {
	if !cfg.MailEnabled() {
		logger.Warn("MAIL_SERVER not set, confirmation emails will be logged only")
		return mail.NewLogSender(logger), nil
	}
	sender, err := mail.NewSMTPSender(mail.SMTPConfig{
		Host:        cfg.MailServer,
		Port:        cfg.MailPort,
		Username:    cfg.MailUsername,
		Password:    cfg.MailPassword,
		From:        cfg.MailFrom,
		FromName:    cfg.MailFromName,
		ImplicitTLS: cfg.MailSSLTLS,
		Timeout:     30 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return sender, nil
}

// newAvatarStore returns nil when no object storage is configured,
// which disables avatar upload.
func newAvatarStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.AvatarUploader, error) {
	if cfg.S3Endpoint == "" && cfg.AvatarPublicURL == "" {
		logger.Warn("S3_ENDPOINT and AVATAR_PUBLIC_URL not set, avatar upload disabled")
		return nil, nil
	}
	store, err := avatar.NewS3Store(ctx, avatar.S3Config{
		Endpoint:     cfg.S3Endpoint,
		Region:       cfg.S3Region,
		Bucket:       cfg.S3Bucket,
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		UsePathStyle: cfg.S3UsePathStyle,
		PublicURL:    cfg.AvatarPublicURL,
		Size:         cfg.AvatarSize,
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s&]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
