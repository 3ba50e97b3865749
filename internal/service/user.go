package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/contactsapi/contactsapi/internal/metrics"
	"github.com/contactsapi/contactsapi/internal/model"
	"github.com/contactsapi/contactsapi/internal/repository"
)

// ErrAvatarUnavailable is returned when no image host is configured.
var ErrAvatarUnavailable = errors.New("avatar storage is not configured")

// UserService handles the authenticated user's profile.
type UserService struct {
	users    UserStore
	uploader AvatarUploader
	logger   *slog.Logger
	metrics  metrics.Recorder
}

// NewUserService creates a new UserService. A nil uploader disables avatar upload.
func NewUserService(users UserStore, uploader AvatarUploader, logger *slog.Logger, recorder metrics.Recorder) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &UserService{
		users:    users,
		uploader: uploader,
		logger:   logger.With("component", "user.service"),
		metrics:  recorder,
	}
}

// UpdateAvatar uploads the image and stores its URL on the user.
// Upload failures propagate unchanged.
func (s *UserService) UpdateAvatar(ctx context.Context, user *model.User, image io.Reader, contentType string) (*model.User, error) {
	if s.uploader == nil {
		return nil, ErrAvatarUnavailable
	}

	url, err := s.uploader.Upload(ctx, user.Username, user.ID, image, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	updated, err := s.users.UpdateAvatar(ctx, user.Email, url)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to update avatar: %w", err)
	}

	s.metrics.IncAvatarUploaded()
	s.logger.Info("avatar updated", "user_id", user.ID)
	return updated, nil
}
