// Package vault implements the credential operations: add, list, update,
// delete and reveal. Every operation is scoped to the caller's identity and
// every secret passes through the configured cipher before it reaches storage.
package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/narvanalabs/vaulty/internal/auth"
	"github.com/narvanalabs/vaulty/internal/models"
	"github.com/narvanalabs/vaulty/internal/secrets"
	"github.com/narvanalabs/vaulty/internal/store"
)

var (
	// ErrValidation is the base error for rejected input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when the credential does not exist or belongs
	// to someone else.
	ErrNotFound = errors.New("credential not found")
)

// ValidationError lists the request fields that were missing or empty.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// AddRequest is the input to Add.
type AddRequest struct {
	Website  string `json:"website"`
	Username string `json:"username"`
	Password string `json:"password"`
	Category string `json:"category,omitempty"`
}

// Validate reports every required field that is blank.
func (r *AddRequest) Validate() error {
	var missing []string
	if isBlank(r.Website) {
		missing = append(missing, "website")
	}
	if isBlank(r.Username) {
		missing = append(missing, "username")
	}
	if r.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// UpdateRequest is the input to Update. Nil fields are left untouched and an
// empty Password counts as not supplied.
type UpdateRequest struct {
	Website  *string `json:"website,omitempty"`
	Username *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
	Category *string `json:"category,omitempty"`
}

// Validate rejects supplied-but-blank required fields.
func (r *UpdateRequest) Validate() error {
	var blank []string
	if r.Website != nil && isBlank(*r.Website) {
		blank = append(blank, "website")
	}
	if r.Username != nil && isBlank(*r.Username) {
		blank = append(blank, "username")
	}
	if len(blank) > 0 {
		return &ValidationError{Fields: blank}
	}
	return nil
}

// Service orchestrates credential operations over a store and a cipher.
type Service struct {
	store  store.CredentialStore
	cipher secrets.Cipher
	logger *slog.Logger
}

// NewService creates a credential service.
func NewService(st store.CredentialStore, cipher secrets.Cipher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  st,
		cipher: cipher,
		logger: logger.With("component", "vault"),
	}
}

// Add validates req, encrypts the password and stores a new credential
// owned by owner.
func (s *Service) Add(ctx context.Context, owner auth.Identity, req AddRequest) (*models.CredentialView, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ciphertext, err := s.cipher.Encrypt(req.Password)
	if err != nil {
		return nil, fmt.Errorf("encrypting secret: %w", err)
	}

	category := req.Category
	if isBlank(category) {
		category = models.DefaultCategory
	}

	created, err := s.store.Create(ctx, &models.Credential{
		OwnerID:          owner.String(),
		Website:          req.Website,
		Username:         req.Username,
		SecretCipherText: ciphertext,
		Category:         category,
	})
	if err != nil {
		return nil, fmt.Errorf("creating credential: %w", err)
	}

	s.logger.Debug("credential created", "credential_id", created.ID, "user_id", owner.String())
	view := created.View()
	return &view, nil
}

// List returns the owner's credentials, most recently updated first, with
// the ciphertext stripped.
func (s *Service) List(ctx context.Context, owner auth.Identity) ([]models.CredentialView, error) {
	creds, err := s.store.List(ctx, owner.String())
	if err != nil {
		return nil, fmt.Errorf("listing credentials: %w", err)
	}

	views := make([]models.CredentialView, 0, len(creds))
	for _, c := range creds {
		views = append(views, c.View())
	}
	return views, nil
}

// Update applies the supplied fields to the owner's credential. A non-empty
// password is re-encrypted; otherwise the stored ciphertext is kept.
func (s *Service) Update(ctx context.Context, owner auth.Identity, id string, req UpdateRequest) (*models.CredentialView, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	patch := models.CredentialPatch{
		Website:  req.Website,
		Username: req.Username,
		Category: req.Category,
	}
	if req.Category != nil && isBlank(*req.Category) {
		def := models.DefaultCategory
		patch.Category = &def
	}
	if req.Password != nil && *req.Password != "" {
		ciphertext, err := s.cipher.Encrypt(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("encrypting secret: %w", err)
		}
		patch.SecretCipherText = &ciphertext
	}

	updated, err := s.store.Update(ctx, id, owner.String(), patch)
	if err != nil {
		return nil, mapStoreError("updating credential", err)
	}

	view := updated.View()
	return &view, nil
}

// Delete permanently removes the owner's credential.
func (s *Service) Delete(ctx context.Context, owner auth.Identity, id string) error {
	if err := s.store.Delete(ctx, id, owner.String()); err != nil {
		return mapStoreError("deleting credential", err)
	}
	s.logger.Debug("credential deleted", "credential_id", id, "user_id", owner.String())
	return nil
}

// Reveal decrypts and returns the owner's stored password. A ciphertext
// that cannot be decrypted yields an empty string and no error.
func (s *Service) Reveal(ctx context.Context, owner auth.Identity, id string) (string, error) {
	cred, err := s.store.FindOne(ctx, id, owner.String())
	if err != nil {
		return "", mapStoreError("finding credential", err)
	}

	plaintext, err := s.reveal(cred)
	if err != nil {
		s.logger.Warn("secret could not be decrypted",
			"credential_id", cred.ID,
			"user_id", owner.String(),
			"error", err,
		)
		return "", nil
	}
	return plaintext, nil
}

// reveal keeps the decryption failure visible to callers inside the package.
func (s *Service) reveal(cred *models.Credential) (string, error) {
	return s.cipher.Decrypt(cred.SecretCipherText)
}

func mapStoreError(op string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
