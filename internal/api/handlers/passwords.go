package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/narvanalabs/vaulty/internal/api/errors"
	"github.com/narvanalabs/vaulty/internal/auth"
	"github.com/narvanalabs/vaulty/internal/vault"
)

// PasswordHandler serves the /passwords endpoints.
type PasswordHandler struct {
	vault  *vault.Service
	logger *slog.Logger
}

// NewPasswordHandler creates a new password handler.
func NewPasswordHandler(svc *vault.Service, logger *slog.Logger) *PasswordHandler {
	return &PasswordHandler{
		vault:  svc,
		logger: logger,
	}
}

// RevealResponse is the body returned by Reveal.
type RevealResponse struct {
	Password string `json:"password"`
}

// DeleteResponse is the body returned by Delete.
type DeleteResponse struct {
	Success bool `json:"success"`
}

// identity returns the caller bound by the auth middleware. Handlers are only
// mounted behind it, so a missing identity is answered like a bad token.
func (h *PasswordHandler) identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		WriteError(w, r, apierrors.NewUnauthorizedError("authentication required"))
	}
	return id, ok
}

// List handles GET /passwords.
func (h *PasswordHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.identity(w, r)
	if !ok {
		return
	}

	views, err := h.vault.List(r.Context(), owner)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, views)
}

// Create handles POST /passwords.
func (h *PasswordHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req vault.AddRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteBadRequest(w, r, errBadBody.Error())
		return
	}

	view, err := h.vault.Add(r.Context(), owner, req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusCreated, view)
}

// Update handles PUT /passwords/{id}.
func (h *PasswordHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req vault.UpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteBadRequest(w, r, errBadBody.Error())
		return
	}

	view, err := h.vault.Update(r.Context(), owner, chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, view)
}

// Delete handles DELETE /passwords/{id}.
func (h *PasswordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.identity(w, r)
	if !ok {
		return
	}

	if err := h.vault.Delete(r.Context(), owner, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, DeleteResponse{Success: true})
}

// Reveal handles GET /passwords/{id}/decrypt.
func (h *PasswordHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.identity(w, r)
	if !ok {
		return
	}

	plaintext, err := h.vault.Reveal(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	WriteJSON(w, http.StatusOK, RevealResponse{Password: plaintext})
}
