// Package model defines domain entities for the application.
package model

import "time"

// User is an account that owns contacts.
// Email is unique; RefreshToken holds the single outstanding refresh token, if any.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Avatar       *string   `json:"avatar,omitempty"`
	RefreshToken *string   `json:"-"`
	Confirmed    bool      `json:"confirmed"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasRefreshToken reports whether token is the user's current refresh token.
func (u *User) HasRefreshToken(token string) bool {
	return u.RefreshToken != nil && *u.RefreshToken == token
}
