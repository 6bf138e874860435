package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/narvanalabs/vaulty/internal/api/errors"
	"github.com/narvanalabs/vaulty/internal/auth"
	"github.com/narvanalabs/vaulty/internal/models"
	"github.com/narvanalabs/vaulty/internal/store"
)

// minPasswordLength is the shortest accepted account password.
const minPasswordLength = 8

// TokenIssuer mints bearer tokens for an account.
type TokenIssuer interface {
	GenerateToken(id auth.Identity, email string) (string, error)
}

// AuthHandler handles account registration and login.
type AuthHandler struct {
	users  store.UserStore
	tokens TokenIssuer
	logger *slog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(users store.UserStore, tokens TokenIssuer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// CredentialsRequest is the body of register and login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks that both fields are present.
func (r *CredentialsRequest) Validate() *apierrors.APIError {
	var fields apierrors.FieldErrors
	if strings.TrimSpace(r.Email) == "" {
		fields.Add("email", "email is required")
	}
	if r.Password == "" {
		fields.Add("password", "password is required")
	}
	if len(fields) > 0 {
		return fields.ToAPIError()
	}
	return nil
}

// UserResponse is the public form of an account.
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// SessionResponse is returned by register and login.
type SessionResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteBadRequest(w, r, errBadBody.Error())
		return
	}
	if apiErr := req.Validate(); apiErr != nil {
		WriteError(w, r, apiErr)
		return
	}
	if len(req.Password) < minPasswordLength {
		WriteError(w, r, apierrors.FieldErrors{{
			Field:   "password",
			Message: "password must be at least 8 characters",
		}}.ToAPIError())
		return
	}
	if len(req.Password) > store.MaxPasswordBytes {
		WriteError(w, r, apierrors.FieldErrors{{
			Field:   "password",
			Message: "password must be at most 72 bytes",
		}}.ToAPIError())
		return
	}

	user, err := h.users.Create(r.Context(), req.Email, req.Password)
	if errors.Is(err, store.ErrDuplicateKey) {
		WriteError(w, r, apierrors.NewConflictError("email already registered"))
		return
	}
	if err != nil {
		h.logger.Error("failed to create user", "error", err)
		WriteInternalError(w, r)
		return
	}

	h.writeSession(w, r, http.StatusCreated, user)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteBadRequest(w, r, errBadBody.Error())
		return
	}
	if apiErr := req.Validate(); apiErr != nil {
		WriteError(w, r, apiErr)
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if errors.Is(err, store.ErrInvalidCredentials) {
		WriteError(w, r, apierrors.NewUnauthorizedError("invalid credentials"))
		return
	}
	if err != nil {
		h.logger.Error("failed to authenticate user", "error", err)
		WriteInternalError(w, r)
		return
	}

	h.writeSession(w, r, http.StatusOK, user)
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, r *http.Request, status int, user *models.User) {
	token, err := h.tokens.GenerateToken(auth.Identity(user.ID), user.Email)
	if err != nil {
		h.logger.Error("failed to generate token", "error", err)
		WriteInternalError(w, r)
		return
	}

	WriteJSON(w, status, SessionResponse{
		Token: token,
		User:  UserResponse{ID: user.ID, Email: user.Email},
	})
}
