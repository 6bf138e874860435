package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/narvanalabs/vaulty/internal/models"
	"github.com/narvanalabs/vaulty/internal/store"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var _ store.UserStore = (*UserRepo)(nil)

// UserRepo is the SQLite implementation of store.UserStore.
type UserRepo struct {
	db *DB
}

// Create creates a new user with a bcrypt-hashed password.
func (r *UserRepo) Create(ctx context.Context, email, password string) (*models.User, error) {
	hashed, err := store.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:        uuid.New().String(),
		Email:     store.NormalizeEmail(email),
		CreatedAt: now,
	}

	const query = `INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`
	_, err = r.db.Writer.ExecContext(ctx, query, user.ID, user.Email, hashed, now.UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("email %q: %w", user.Email, store.ErrDuplicateKey)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return user, nil
}

// GetByID retrieves a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, _, err := r.get(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE id = ?`, id)
	return user, err
}

// GetByEmail retrieves a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, _, err := r.get(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, store.NormalizeEmail(email))
	return user, err
}

// Authenticate verifies credentials and returns the user.
func (r *UserRepo) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, hash, err := r.get(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, store.NormalizeEmail(email))
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

func (r *UserRepo) get(ctx context.Context, query string, arg any) (*models.User, string, error) {
	var user models.User
	var hash string
	var createdAt int64
	err := r.db.Reader.QueryRowContext(ctx, query, arg).Scan(&user.ID, &user.Email, &hash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", store.ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("get user: %w", err)
	}
	user.CreatedAt = time.Unix(0, createdAt).UTC()
	return &user, hash, nil
}

// isUniqueViolation reports a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr *moderncsqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
