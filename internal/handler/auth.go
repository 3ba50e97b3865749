package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/contactsapi/contactsapi/internal/auth"
	"github.com/contactsapi/contactsapi/internal/handler/dto"
	"github.com/contactsapi/contactsapi/internal/service"
)

// AuthHandler handles account and session endpoints.
type AuthHandler struct {
	svc     *service.AuthService
	baseURL string
	logger  *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
// baseURL is the public origin placed in confirmation links. Request headers
// never influence it.
func NewAuthHandler(svc *service.AuthService, baseURL string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:     svc,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With("component", "auth.handler"),
	}
}

// Register handles POST /api/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.svc.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}, h.baseURL)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToUserResponse(user))
}

// Login handles POST /api/login.
// The body is an urlencoded form whose username field carries the email.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body", "INVALID_FORM")
		return
	}

	req := dto.LoginRequest{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}
	if fields := dto.Validate(&req); len(fields) > 0 {
		writeValidationError(w, fields)
		return
	}

	pair, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTokenResponse(pair))
}

// Refresh handles GET /api/refresh_token.
// The refresh token is read from the bearer Authorization header.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token, ok := auth.BearerToken(r)
	if !ok {
		writeUnauthorized(w, "Not authenticated")
		return
	}

	pair, err := h.svc.Refresh(r.Context(), token)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTokenResponse(pair))
}

// RequestEmail handles POST /api/request_email.
func (h *AuthHandler) RequestEmail(w http.ResponseWriter, r *http.Request) {
	var req dto.RequestEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	confirmed, err := h.svc.RequestEmail(r.Context(), req.Email, h.baseURL)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	message := "Check your email for confirmation."
	if confirmed {
		message = "Your email is already confirmed"
	}
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: message})
}

// ConfirmedEmail handles GET /api/confirmed_email/{token}.
func (h *AuthHandler) ConfirmedEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	already, err := h.svc.ConfirmEmail(r.Context(), token)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	message := "Email confirmed"
	if already {
		message = "Your email is already confirmed"
	}
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: message})
}

// host returns the base URL placed in confirmation links.
func toTokenResponse(p *service.TokenPair) dto.TokenResponse {
	return dto.TokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    p.TokenType,
	}
}
