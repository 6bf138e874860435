// Package sqlite provides the SQLite implementation of the store interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/narvanalabs/vaulty/internal/store"
	_ "modernc.org/sqlite"
)

// Compile-time interface satisfaction check.
var _ store.Store = (*Store)(nil)

// DB provides dual reader/writer database connections.
// The writer is limited to a single connection to avoid "database is locked" errors.
type DB struct {
	Writer *sql.DB
	Reader *sql.DB
	path   string
}

// NewDB opens a file-backed database with WAL mode, busy timeout,
// synchronous NORMAL and foreign keys enabled.
func NewDB(dbPath string) (*DB, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)",
		dbPath,
	)
	return open(dsn, dbPath)
}

// NewMemoryDB opens a named shared in-memory database. Connections opened
// with the same name see the same data.
func NewMemoryDB(name string) (*DB, error) {
	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)",
		name,
	)
	return open(dsn, dsn)
}

func open(dsn, path string) (*DB, error) {
	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}
	writer.SetMaxOpenConns(1)

	if err := writer.Ping(); err != nil {
		writer.Close()
		return nil, fmt.Errorf("ping writer: %w", err)
	}

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("open reader: %w", err)
	}
	reader.SetMaxOpenConns(4)

	if err := reader.Ping(); err != nil {
		reader.Close()
		writer.Close()
		return nil, fmt.Errorf("ping reader: %w", err)
	}

	return &DB{Writer: writer, Reader: reader, path: path}, nil
}

// Close closes both reader and writer connections. Returns the first error encountered.
func (db *DB) Close() error {
	var firstErr error

	if err := db.Reader.Close(); err != nil {
		firstErr = fmt.Errorf("close reader: %w", err)
	}

	if err := db.Writer.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close writer: %w", err)
	}

	return firstErr
}

// Store implements store.Store on top of a DB.
type Store struct {
	db          *DB
	logger      *slog.Logger
	credentials *CredentialRepo
	users       *UserRepo
}

// Open migrates db and wraps it as a store.Store.
func Open(db *DB, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := RunMigrations(db.Writer); err != nil {
		return nil, err
	}

	logger.Info("opened SQLite database", "path", db.path)
	return &Store{
		db:          db,
		logger:      logger,
		credentials: &CredentialRepo{db: db},
		users:       &UserRepo{db: db},
	}, nil
}

// Credentials returns the CredentialStore.
func (s *Store) Credentials() store.CredentialStore {
	return s.credentials
}

// Users returns the UserStore.
func (s *Store) Users() store.UserStore {
	return s.users
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Reader.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	s.logger.Info("closing SQLite database")
	return s.db.Close()
}
