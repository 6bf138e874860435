// Package bootstrap builds the long-lived components from configuration.
// It is shared by the API server and vaultctl so both open the same store
// and derive the same keys.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/narvanalabs/vaulty/internal/auth"
	"github.com/narvanalabs/vaulty/internal/secrets"
	"github.com/narvanalabs/vaulty/internal/store"
	"github.com/narvanalabs/vaulty/internal/store/postgres"
	"github.com/narvanalabs/vaulty/internal/store/sqlite"
	"github.com/narvanalabs/vaulty/pkg/config"
)

// OpenStore opens the configured database and applies pending migrations.
func OpenStore(cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		pgCfg := postgres.DefaultConfig(cfg.DatabaseDSN)
		pgCfg.Driver = cfg.PostgresDriver
		st, err := postgres.NewPostgresStore(pgCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return st, nil

	case config.DriverSQLite:
		db, err := sqlite.NewDB(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite database: %w", err)
		}
		st, err := sqlite.Open(db, logger)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return st, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
}

// NewCipher builds the process-wide cipher from the configured backend.
func NewCipher(cfg *config.Config, logger *slog.Logger) (secrets.Cipher, error) {
	return secrets.New(&secrets.Config{
		Backend:       cfg.Cipher.Backend,
		Passphrase:    cfg.Cipher.EncryptionKey,
		AgeIdentity:   cfg.Cipher.AgeIdentity,
		LegacyDecrypt: cfg.Cipher.LegacyDecrypt,
	}, logger)
}

// NewAuthService builds the token service from the configured secret.
func NewAuthService(cfg *config.Config, logger *slog.Logger) *auth.Service {
	return auth.NewService(&auth.Config{
		JWTSecret:   []byte(cfg.JWTSecret),
		TokenExpiry: cfg.JWTExpiry,
	}, logger)
}
