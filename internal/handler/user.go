package handler

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/contactsapi/contactsapi/internal/auth"
	"github.com/contactsapi/contactsapi/internal/handler/dto"
	"github.com/contactsapi/contactsapi/internal/service"
)

// avatarField is the multipart form field carrying the image.
const avatarField = "file"

// UserHandler handles the authenticated user's profile.
type UserHandler struct {
	svc           *service.UserService
	maxAvatarSize int64
	logger        *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.UserService, maxAvatarSize int64, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:           svc,
		maxAvatarSize: maxAvatarSize,
		logger:        logger.With("component", "user.handler"),
	}
}

// Me handles GET /api/users/me/.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())
	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// Avatar handles PATCH /api/users/avatar with a multipart image in the "file" field.
func (h *UserHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxAvatarSize)

	file, header, err := r.FormFile(avatarField)
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			writeError(w, http.StatusRequestEntityTooLarge, "avatar image too large", "PAYLOAD_TOO_LARGE")
		case errors.Is(err, http.ErrMissingFile):
			writeValidationError(w, []dto.FieldError{{Field: avatarField, Message: "field required"}})
		default:
			writeError(w, http.StatusBadRequest, "invalid multipart body", "INVALID_FORM")
		}
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		writeValidationError(w, []dto.FieldError{{Field: avatarField, Message: "must be an image"}})
		return
	}

	user := auth.MustUserFromContext(r.Context())
	updated, err := h.svc.UpdateAvatar(r.Context(), user, file, mediaType)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToUserResponse(updated))
}
