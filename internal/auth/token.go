package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token scopes.
const (
	ScopeAccess  = "access_token"
	ScopeRefresh = "refresh_token"
	ScopeEmail   = "email_token"
)

// Default token lifetimes.
const (
	DefaultAccessTokenTTL  = 30 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
	DefaultEmailTokenTTL   = 7 * 24 * time.Hour
)

var (
	// ErrInvalidToken covers every decode failure: bad signature, expiry, malformed input.
	ErrInvalidToken = errors.New("could not validate credentials")
	// ErrInvalidScope indicates a valid token presented for the wrong purpose.
	ErrInvalidScope = errors.New("invalid scope for token")
)

// Claims is the payload of every token issued by TokenService.
type Claims struct {
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// TokenConfig is the process-wide signing configuration.
type TokenConfig struct {
	Secret     []byte
	Algorithm  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	EmailTTL   time.Duration
}

// TokenService issues and validates signed, time-bound tokens.
type TokenService struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	emailTTL   time.Duration
	now        func() time.Time
}

// NewTokenService creates a TokenService. Only HMAC algorithms are accepted.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret is empty")
	}

	method, ok := jwt.GetSigningMethod(cfg.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}

	s := &TokenService{
		secret:     cfg.Secret,
		method:     method,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		emailTTL:   cfg.EmailTTL,
		now:        time.Now,
	}
	if s.accessTTL <= 0 {
		s.accessTTL = DefaultAccessTokenTTL
	}
	if s.refreshTTL <= 0 {
		s.refreshTTL = DefaultRefreshTokenTTL
	}
	if s.emailTTL <= 0 {
		s.emailTTL = DefaultEmailTokenTTL
	}
	return s, nil
}

// CreateAccessToken signs an access token for subject.
// A zero expiresIn uses the configured access lifetime.
func (s *TokenService) CreateAccessToken(subject string, expiresIn time.Duration) (string, error) {
	if expiresIn == 0 {
		expiresIn = s.accessTTL
	}
	return s.sign(subject, ScopeAccess, expiresIn, false)
}

// CreateRefreshToken signs a refresh token for subject.
// A zero expiresIn uses the configured refresh lifetime.
func (s *TokenService) CreateRefreshToken(subject string, expiresIn time.Duration) (string, error) {
	if expiresIn == 0 {
		expiresIn = s.refreshTTL
	}
	return s.sign(subject, ScopeRefresh, expiresIn, false)
}

// CreateEmailToken signs an email confirmation token carrying an issued-at time.
func (s *TokenService) CreateEmailToken(subject string) (string, error) {
	return s.sign(subject, ScopeEmail, s.emailTTL, true)
}

// DecodeRefreshToken returns the subject of a refresh token.
// A valid token with another scope yields ErrInvalidScope.
func (s *TokenService) DecodeRefreshToken(token string) (string, error) {
	claims, err := s.parse(token)
	if err != nil {
		return "", err
	}
	if claims.Scope != ScopeRefresh {
		return "", ErrInvalidScope
	}
	return claims.Subject, nil
}

// DecodeAccessToken returns the subject of an access token.
// Every failure, scope mismatch included, yields ErrInvalidToken.
func (s *TokenService) DecodeAccessToken(token string) (string, error) {
	claims, err := s.parse(token)
	if err != nil {
		return "", err
	}
	if claims.Scope != ScopeAccess || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// EmailFromToken returns the subject of a confirmation token.
// The scope is not checked; the redemption endpoint is what distinguishes these tokens.
func (s *TokenService) EmailFromToken(token string) (string, error) {
	claims, err := s.parse(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (s *TokenService) sign(subject, scope string, expiresIn time.Duration, withIssuedAt bool) (string, error) {
	now := s.now().UTC()
	claims := Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	}
	if withIssuedAt {
		claims.IssuedAt = jwt.NewNumericDate(now)
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
