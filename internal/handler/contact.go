package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/contactsapi/contactsapi/internal/auth"
	"github.com/contactsapi/contactsapi/internal/handler/dto"
	"github.com/contactsapi/contactsapi/internal/model"
	"github.com/contactsapi/contactsapi/internal/service"
)

// ContactHandler handles contact endpoints. Every route requires an authenticated user.
type ContactHandler struct {
	svc    *service.ContactService
	logger *slog.Logger
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(svc *service.ContactService, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{
		svc:    svc,
		logger: logger.With("component", "contact.handler"),
	}
}

// Create handles POST /api/contacts/.
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	fields, ok := decodeContact(w, r)
	if !ok {
		return
	}

	user := auth.MustUserFromContext(r.Context())
	contact, err := h.svc.Create(r.Context(), user.ID, fields)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("contact created", "contact_id", contact.ID, "user_id", user.ID)
	writeJSON(w, http.StatusCreated, dto.ToContactResponse(contact))
}

// List handles GET /api/contacts/?skip=&limit=.
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	skip, err := intParam(query.Get("skip"), 0)
	if err != nil {
		writeValidationError(w, []dto.FieldError{{Field: "skip", Message: "must be an integer"}})
		return
	}
	limit, err := intParam(query.Get("limit"), service.DefaultListLimit)
	if err != nil {
		writeValidationError(w, []dto.FieldError{{Field: "limit", Message: "must be an integer"}})
		return
	}

	user := auth.MustUserFromContext(r.Context())
	contacts, err := h.svc.List(r.Context(), user.ID, skip, limit)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToContactList(contacts))
}

// Search handles GET /api/contacts/search.
// Absent query parameters are not applied; present ones are ANDed.
func (h *ContactHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var filter model.ContactSearch
	if query.Has("first_name") {
		v := query.Get("first_name")
		filter.FirstName = &v
	}
	if query.Has("second_name") {
		v := query.Get("second_name")
		filter.SecondName = &v
	}
	if query.Has("email") {
		v := query.Get("email")
		filter.Email = &v
	}

	user := auth.MustUserFromContext(r.Context())
	contacts, err := h.svc.Search(r.Context(), user.ID, filter)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToContactList(contacts))
}

// UpcomingBirthdays handles GET /api/contacts/birthday_next_7_days.
func (h *ContactHandler) UpcomingBirthdays(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())
	contacts, err := h.svc.UpcomingBirthdays(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToContactList(contacts))
}

// Get handles GET /api/contacts/{contact_id}.
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := contactID(w, r)
	if !ok {
		return
	}

	user := auth.MustUserFromContext(r.Context())
	contact, err := h.svc.Get(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToContactResponse(contact))
}

// Update handles PUT /api/contacts/{contact_id}.
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := contactID(w, r)
	if !ok {
		return
	}
	fields, ok := decodeContact(w, r)
	if !ok {
		return
	}

	user := auth.MustUserFromContext(r.Context())
	contact, err := h.svc.Update(r.Context(), user.ID, id, fields)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("contact updated", "contact_id", contact.ID, "user_id", user.ID)
	writeJSON(w, http.StatusOK, dto.ToContactResponse(contact))
}

// Delete handles DELETE /api/contacts/{contact_id}.
// It returns the removed contact.
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := contactID(w, r)
	if !ok {
		return
	}

	user := auth.MustUserFromContext(r.Context())
	contact, err := h.svc.Delete(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("contact deleted", "contact_id", contact.ID, "user_id", user.ID)
	writeJSON(w, http.StatusOK, dto.ToContactResponse(contact))
}

func decodeContact(w http.ResponseWriter, r *http.Request) (model.ContactFields, bool) {
	var req dto.ContactRequest
	if !decodeJSON(w, r, &req) {
		return model.ContactFields{}, false
	}
	fields, err := req.ToFields()
	if err != nil {
		writeValidationError(w, []dto.FieldError{{Field: "birthdate", Message: "must be a date in YYYY-MM-DD format"}})
		return model.ContactFields{}, false
	}
	return fields, true
}

// contactID reads the {contact_id} path parameter and requires a well-formed ULID.
func contactID(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "contact_id")
	id, err := ulid.ParseStrict(raw)
	if err != nil {
		writeValidationError(w, []dto.FieldError{{Field: "contact_id", Message: "must be a valid id"}})
		return "", false
	}
	return id.String(), true
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
