// Package store provides database access interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/narvanalabs/vaulty/internal/models"
)

// Common store errors.
var (
	// ErrNotFound is returned when a requested record does not exist or is
	// not owned by the caller. The two cases are deliberately the same error.
	ErrNotFound = errors.New("resource not found")

	// ErrDuplicateKey is returned when a unique constraint would be violated.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidCredentials is returned by Authenticate for an unknown email
	// or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// CredentialStore persists credential records. Every method that takes an
// ownerID applies it inside the query itself, so a record belonging to a
// different owner is indistinguishable from a missing one.
type CredentialStore interface {
	// List returns the owner's credentials, most recently updated first.
	// It returns an empty slice, not an error, when there are none.
	List(ctx context.Context, ownerID string) ([]*models.Credential, error)
	// Create inserts a credential, assigning ID, CreatedAt and UpdatedAt.
	Create(ctx context.Context, cred *models.Credential) (*models.Credential, error)
	// Update applies patch to the credential matching (id, ownerID) in a
	// single statement and refreshes UpdatedAt.
	Update(ctx context.Context, id, ownerID string, patch models.CredentialPatch) (*models.Credential, error)
	// Delete permanently removes the credential matching (id, ownerID).
	Delete(ctx context.Context, id, ownerID string) error
	// FindOne retrieves the credential matching (id, ownerID).
	FindOne(ctx context.Context, id, ownerID string) (*models.Credential, error)
}

// UserStore defines operations for account management.
type UserStore interface {
	// Create creates a new user with a bcrypt-hashed password.
	Create(ctx context.Context, email, password string) (*models.User, error)
	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Authenticate verifies credentials and returns the user.
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

// Store is the main interface for database operations.
type Store interface {
	// Credentials returns the CredentialStore.
	Credentials() CredentialStore
	// Users returns the UserStore.
	Users() UserStore
	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error
	// Close closes the database connection.
	Close() error
}
