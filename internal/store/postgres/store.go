// Package postgres provides the PostgreSQL implementation of the store interfaces.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/narvanalabs/vaulty/internal/store"
)

// Compile-time interface satisfaction check.
var _ store.Store = (*PostgresStore)(nil)

// Driver names accepted in Config.Driver.
const (
	DriverPgx = "pgx"
	DriverPq  = "postgres"
)

// PostgresStore implements the Store interface using PostgreSQL.
type PostgresStore struct {
	db          *sql.DB
	logger      *slog.Logger
	credentials *CredentialStore
	users       *UserStore
}

// Config holds PostgreSQL connection configuration.
type Config struct {
	DSN             string
	Driver          string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(dsn string) *Config {
	return &Config{
		DSN:             dsn,
		Driver:          DriverPgx,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 1 * time.Minute,
	}
}

// NewPostgresStore opens a pool, verifies connectivity and applies migrations.
func NewPostgresStore(cfg *Config, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	driver := cfg.Driver
	if driver == "" {
		driver = DriverPgx
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("connected to PostgreSQL database", "driver", driver)
	return New(db, logger), nil
}

// New wraps an already-open and migrated database.
func New(db *sql.DB, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{
		db:          db,
		logger:      logger,
		credentials: &CredentialStore{db: db, logger: logger},
		users:       &UserStore{db: db, logger: logger},
	}
}

// Credentials returns the CredentialStore.
func (s *PostgresStore) Credentials() store.CredentialStore {
	return s.credentials
}

// Users returns the UserStore.
func (s *PostgresStore) Users() store.UserStore {
	return s.users
}

// Ping verifies the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	s.logger.Info("closing PostgreSQL connection")
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}
