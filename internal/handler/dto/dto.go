// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/contactsapi/contactsapi/internal/model"
)

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error  string       `json:"error"`
	Code   string       `json:"code"`
	Fields []FieldError `json:"fields,omitempty"`
}

// MessageResponse carries a human-readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email,max=150"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// LoginRequest holds the form fields of a login. Username is the email.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RequestEmailRequest represents the body of a confirmation resend.
type RequestEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Avatar   *string `json:"avatar"`
}

// ToUserResponse converts a User model to UserResponse DTO.
func ToUserResponse(u *model.User) *UserResponse {
	return &UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Avatar:   u.Avatar,
	}
}

// ContactRequest is the full set of contact fields for create and update.
type ContactRequest struct {
	FirstName      string  `json:"first_name" validate:"required,max=50"`
	SecondName     string  `json:"second_name" validate:"required,max=50"`
	Email          string  `json:"email" validate:"required,email,max=100"`
	Phone          string  `json:"phone" validate:"required,max=20"`
	Birthdate      string  `json:"birthdate" validate:"required,datetime=2006-01-02"`
	AdditionalData *string `json:"additional_data" validate:"omitempty,max=250"`
}

// ToFields converts a validated request to model fields.
func (r *ContactRequest) ToFields() (model.ContactFields, error) {
	birthdate, err := time.Parse(model.DateLayout, r.Birthdate)
	if err != nil {
		return model.ContactFields{}, err
	}
	return model.ContactFields{
		FirstName:      r.FirstName,
		SecondName:     r.SecondName,
		Email:          r.Email,
		Phone:          r.Phone,
		Birthdate:      birthdate,
		AdditionalData: r.AdditionalData,
	}, nil
}

// ContactResponse represents a contact in API responses.
type ContactResponse struct {
	ID             string  `json:"id"`
	FirstName      string  `json:"first_name"`
	SecondName     string  `json:"second_name"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	Birthdate      string  `json:"birthdate"`
	AdditionalData *string `json:"additional_data"`
}

// ToContactResponse converts a Contact model to ContactResponse DTO.
func ToContactResponse(c *model.Contact) *ContactResponse {
	return &ContactResponse{
		ID:             c.ID,
		FirstName:      c.FirstName,
		SecondName:     c.SecondName,
		Email:          c.Email,
		Phone:          c.Phone,
		Birthdate:      c.Birthdate.Format(model.DateLayout),
		AdditionalData: c.AdditionalData,
	}
}

// ToContactList converts contacts to a JSON array, never null.
func ToContactList(contacts []*model.Contact) []*ContactResponse {
	out := make([]*ContactResponse, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, ToContactResponse(c))
	}
	return out
}
