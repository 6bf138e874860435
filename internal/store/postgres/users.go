package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/narvanalabs/vaulty/internal/models"
	"github.com/narvanalabs/vaulty/internal/store"
)

var _ store.UserStore = (*UserStore)(nil)

// UserStore implements store.UserStore using PostgreSQL.
type UserStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Create creates a new user with hashed password.
func (s *UserStore) Create(ctx context.Context, email, password string) (*models.User, error) {
	hashed, err := store.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:        uuid.New().String(),
		Email:     store.NormalizeEmail(email),
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	query := `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err = s.db.ExecContext(ctx, query, user.ID, user.Email, hashed, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("email %q: %w", user.Email, store.ErrDuplicateKey)
		}
		return nil, fmt.Errorf("inserting user: %w", err)
	}

	return user, nil
}

// GetByID retrieves a user by ID.
func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, store.ErrNotFound
	}
	user, _, err := s.get(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE id = $1`, id)
	return user, err
}

// GetByEmail retrieves a user by email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, _, err := s.get(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE email = $1`, store.NormalizeEmail(email))
	return user, err
}

// Authenticate verifies credentials and returns the user.
func (s *UserStore) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, hash, err := s.get(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE email = $1`, store.NormalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		store.CheckPassword("", password)
		return nil, store.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !store.CheckPassword(hash, password) {
		return nil, store.ErrInvalidCredentials
	}

	return user, nil
}

func (s *UserStore) get(ctx context.Context, query string, arg any) (*models.User, string, error) {
	var user models.User
	var hash string
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&user.ID, &user.Email, &hash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", store.ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("querying user: %w", err)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, hash, nil
}
