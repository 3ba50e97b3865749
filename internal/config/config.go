// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles,
// optionally seeded from a local .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL    string `env:"DATABASE_URL,required"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"true"`

	// Counter store and mail queue (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Public base URL, used for email confirmation links.
	// Required outside development; development defaults to localhost.
	BaseURL string `env:"BASE_URL"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Tokens
	SecretKey       string        `env:"SECRET_KEY,required"`
	Algorithm       string        `env:"ALGORITHM" envDefault:"HS256"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"30m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	EmailTokenTTL   time.Duration `env:"EMAIL_TOKEN_TTL" envDefault:"168h"`

	// Rate limiting (fixed window per user)
	RateLimitEnabled  bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"5"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"60s"`

	// Mail. An empty MailServer logs messages instead of sending them.
	MailServer   string `env:"MAIL_SERVER"`
	MailPort     int    `env:"MAIL_PORT" envDefault:"465"`
	MailUsername string `env:"MAIL_USERNAME"`
	MailPassword string `env:"MAIL_PASSWORD"`
	MailFrom     string `env:"MAIL_FROM"`
	MailFromName string `env:"MAIL_FROM_NAME" envDefault:"Contacts API"`
	MailSSLTLS   bool   `env:"MAIL_SSL_TLS" envDefault:"true"`

	// Avatar storage (S3-compatible)
	S3Endpoint      string `env:"S3_ENDPOINT"`
	S3Region        string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Bucket        string `env:"S3_BUCKET" envDefault:"avatars"`
	S3AccessKey     string `env:"S3_ACCESS_KEY"`
	S3SecretKey     string `env:"S3_SECRET_KEY"`
	S3UsePathStyle  bool   `env:"S3_USE_PATH_STYLE" envDefault:"true"`
	AvatarPublicURL string `env:"AVATAR_PUBLIC_URL"`
	AvatarSize      int    `env:"AVATAR_SIZE" envDefault:"250"`

	// Request body size limits in bytes
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
	MaxAvatarSize      int64 `env:"MAX_AVATAR_SIZE" envDefault:"5242880"`
}

var supportedAlgorithms = map[string]bool{
	"HS256": true,
	"HS384": true,
	"HS512": true,
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MailEnabled reports whether an SMTP server is configured.
func (c *Config) MailEnabled() bool {
	return c.MailServer != ""
}

// Validate checks values that env tags cannot express.
func (c *Config) Validate() error {
	if !supportedAlgorithms[c.Algorithm] {
		return fmt.Errorf("unsupported ALGORITHM %q", c.Algorithm)
	}
	if c.RateLimitRequests <= 0 {
		return errors.New("RATE_LIMIT_REQUESTS must be positive")
	}
	if c.RateLimitWindow < time.Second {
		return errors.New("RATE_LIMIT_WINDOW must be at least 1s")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 || c.EmailTokenTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.BaseURL == "" {
		if !c.IsDevelopment() {
			return errors.New("BASE_URL is required outside development")
		}
	} else if u, err := url.Parse(c.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("BASE_URL %q must be an absolute http(s) URL", c.BaseURL)
	}
	return nil
}

// Load reads an optional .env file, parses environment variables and returns a Config.
// Returns an error if required variables are missing or values are invalid.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.BaseURL == "" && cfg.IsDevelopment() {
		cfg.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.AppPort)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
