// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"io"

	"github.com/oklog/ulid/v2"

	"github.com/contactsapi/contactsapi/internal/mail"
	"github.com/contactsapi/contactsapi/internal/model"
)

// Service errors.
var (
	ErrEmailExists         = errors.New("email already registered")
	ErrInvalidEmail        = errors.New("invalid email")
	ErrEmailNotConfirmed   = errors.New("email not confirmed")
	ErrInvalidPassword     = errors.New("invalid password")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrInvalidScope        = errors.New("invalid scope for token")
	ErrInvalidCredentials  = errors.New("could not validate credentials")
	ErrInvalidEmailToken   = errors.New("invalid token for email verification")
	ErrVerificationFailed  = errors.New("verification error")
	ErrContactNotFound     = errors.New("contact not found")
	ErrInvalidPagination   = errors.New("invalid pagination parameters")
)

// UserStore persists user accounts. Implementations return
// repository.ErrUserNotFound and repository.ErrEmailExists.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateRefreshToken(ctx context.Context, userID string, token *string) error
	ConfirmEmail(ctx context.Context, email string) error
	UpdateAvatar(ctx context.Context, email, url string) (*model.User, error)
}

// ContactStore persists contacts. Every call is scoped to ownerID and
// implementations return repository.ErrContactNotFound for absent or foreign rows.
type ContactStore interface {
	ListContacts(ctx context.Context, ownerID string, skip, limit int) ([]*model.Contact, error)
	GetContact(ctx context.Context, ownerID, id string) (*model.Contact, error)
	CreateContact(ctx context.Context, c *model.Contact) error
	UpdateContact(ctx context.Context, ownerID, id string, f model.ContactFields) (*model.Contact, error)
	DeleteContact(ctx context.Context, ownerID, id string) (*model.Contact, error)
	SearchContacts(ctx context.Context, ownerID string, s model.ContactSearch) ([]*model.Contact, error)
	ContactsWithBirthdayOn(ctx context.Context, ownerID string, days []model.MonthDay) ([]*model.Contact, error)
}

// ConfirmationQueue accepts confirmation emails for asynchronous delivery.
type ConfirmationQueue interface {
	Enqueue(ctx context.Context, msg mail.ConfirmationMessage) (string, error)
}

// AvatarUploader stores a profile image and returns its public URL.
type AvatarUploader interface {
	Upload(ctx context.Context, username, userID string, r io.Reader, contentType string) (string, error)
}

func generateID() string {
	return ulid.Make().String()
}
