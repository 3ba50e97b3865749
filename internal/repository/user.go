package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/contactsapi/contactsapi/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
)

const userColumns = `id, username, email, password_hash, avatar, refresh_token, confirmed, created_at`

// CreateUser inserts a new user.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, avatar, refresh_token, confirmed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Avatar,
		user.RefreshToken,
		user.Confirmed,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// UpdateRefreshToken stores token as the user's refresh token. A nil token clears it.
func (r *Repository) UpdateRefreshToken(ctx context.Context, userID string, token *string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET refresh_token = $2 WHERE id = $1`, userID, token)
	if err != nil {
		return fmt.Errorf("failed to update refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ConfirmEmail marks the account with the given email as confirmed.
func (r *Repository) ConfirmEmail(ctx context.Context, email string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET confirmed = TRUE WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("failed to confirm email: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateAvatar sets the avatar URL of the account with the given email.
func (r *Repository) UpdateAvatar(ctx context.Context, email, url string) (*model.User, error) {
	query := `UPDATE users SET avatar = $2 WHERE email = $1 RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, email, url))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update avatar: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Avatar,
		&user.RefreshToken,
		&user.Confirmed,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
