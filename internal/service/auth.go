package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/contactsapi/contactsapi/internal/auth"
	"github.com/contactsapi/contactsapi/internal/avatar"
	"github.com/contactsapi/contactsapi/internal/mail"
	"github.com/contactsapi/contactsapi/internal/metrics"
	"github.com/contactsapi/contactsapi/internal/model"
	"github.com/contactsapi/contactsapi/internal/repository"
)

// enqueueTimeout bounds handing a confirmation mail to the queue.
const enqueueTimeout = 2 * time.Second

// TokenTypeBearer is the token_type reported with issued token pairs.
const TokenTypeBearer = "bearer"

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
}

// RegisterInput defines input for registering an account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// AuthService handles registration, sessions and email confirmation.
type AuthService struct {
	users   UserStore
	tokens  *auth.TokenService
	queue   ConfirmationQueue
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// NewAuthService creates a new AuthService. A nil queue disables confirmation mail.
func NewAuthService(users UserStore, tokens *auth.TokenService, queue ConfirmationQueue, logger *slog.Logger, recorder metrics.Recorder) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthService{
		users:   users,
		tokens:  tokens,
		queue:   queue,
		logger:  logger.With("component", "auth.service"),
		metrics: recorder,
		now:     time.Now,
	}
}

// Register creates an unconfirmed account and queues a confirmation email.
// host is the public base URL placed in the confirmation link.
func (s *AuthService) Register(ctx context.Context, input RegisterInput, host string) (*model.User, error) {
	email := normalizeEmail(input.Email)

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           generateID(),
		Username:     input.Username,
		Email:        email,
		PasswordHash: hash,
		Confirmed:    false,
		CreatedAt:    s.now().UTC(),
	}

	// The default avatar is optional: a failed lookup leaves it unset.
	if url, err := avatar.Gravatar(email); err == nil {
		user.Avatar = &url
	} else {
		s.logger.Debug("default avatar unavailable", "error", err)
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.metrics.IncUserRegistered()
	s.logger.Info("user registered", "user_id", user.ID)

	s.sendConfirmation(ctx, user, host)
	return user, nil
}

// Login verifies credentials and issues a new token pair.
// The email must be confirmed.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.IncLogin("failure")
			return nil, ErrInvalidEmail
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !user.Confirmed {
		s.metrics.IncLogin("failure")
		return nil, ErrEmailNotConfirmed
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		s.metrics.IncLogin("failure")
		return nil, ErrInvalidPassword
	}

	pair, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	s.metrics.IncLogin("success")
	return pair, nil
}

// Refresh exchanges the user's current refresh token for a new pair.
// Presenting a token other than the stored one revokes the stored token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	email, err := s.tokens.DecodeRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidScope) {
			return nil, ErrInvalidScope
		}
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !user.HasRefreshToken(refreshToken) {
		if err := s.users.UpdateRefreshToken(ctx, user.ID, nil); err != nil {
			return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
		}
		s.logger.Warn("refresh token mismatch, stored token revoked", "user_id", user.ID)
		return nil, ErrInvalidRefreshToken
	}

	return s.issue(ctx, user)
}

// RequestEmail queues a new confirmation email. It reports whether the
// address was already confirmed. Unknown addresses are not revealed.
func (s *AuthService) RequestEmail(ctx context.Context, email, host string) (bool, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up user: %w", err)
	}

	if user.Confirmed {
		return true, nil
	}

	s.sendConfirmation(ctx, user, host)
	return false, nil
}

// ConfirmEmail redeems a confirmation token. It reports whether the address
// was already confirmed.
func (s *AuthService) ConfirmEmail(ctx context.Context, token string) (bool, error) {
	email, err := s.tokens.EmailFromToken(token)
	if err != nil {
		return false, ErrInvalidEmailToken
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return false, ErrVerificationFailed
		}
		return false, fmt.Errorf("failed to look up user: %w", err)
	}

	if user.Confirmed {
		return true, nil
	}

	if err := s.users.ConfirmEmail(ctx, email); err != nil {
		return false, fmt.Errorf("failed to confirm email: %w", err)
	}

	s.metrics.IncEmailConfirmed()
	s.logger.Info("email confirmed", "user_id", user.ID)
	return false, nil
}

// CurrentUser resolves an access token to its user.
func (s *AuthService) CurrentUser(ctx context.Context, accessToken string) (*model.User, error) {
	email, err := s.tokens.DecodeAccessToken(accessToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return user, nil
}

// issue signs a new pair and stores the refresh token, replacing any previous one.
func (s *AuthService) issue(ctx context.Context, user *model.User) (*TokenPair, error) {
	access, err := s.tokens.CreateAccessToken(user.Email, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}
	refresh, err := s.tokens.CreateRefreshToken(user.Email, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}

	if err := s.users.UpdateRefreshToken(ctx, user.ID, &refresh); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	user.RefreshToken = &refresh

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    TokenTypeBearer,
	}, nil
}

// normalizeEmail folds an address to the form it is stored and looked up in.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// sendConfirmation queues a confirmation email. Failures are logged, never returned.
func (s *AuthService) sendConfirmation(ctx context.Context, user *model.User, host string) {
	if s.queue == nil {
		return
	}

	token, err := s.tokens.CreateEmailToken(user.Email)
	if err != nil {
		s.logger.Error("failed to create email token", "user_id", user.ID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), enqueueTimeout)
	defer cancel()

	_, err = s.queue.Enqueue(ctx, mail.ConfirmationMessage{
		To:       user.Email,
		Username: user.Username,
		Host:     host,
		Token:    token,
	})
	if err != nil {
		s.logger.Warn("failed to queue confirmation email", "user_id", user.ID, "error", err)
	}
}
