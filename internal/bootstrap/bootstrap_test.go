package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narvanalabs/vaulty/internal/models"
	"github.com/narvanalabs/vaulty/internal/secrets"
	"github.com/narvanalabs/vaulty/pkg/config"
	"github.com/narvanalabs/vaulty/pkg/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.LoadWithDefaults()
	cfg.DatabaseDriver = config.DriverSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "vaulty.db")
	return cfg
}

func TestOpenStoreSQLiteMigratesAndReopens(t *testing.T) {
	cfg := testConfig(t)
	log := logger.Discard().Logger
	ctx := context.Background()

	st, err := OpenStore(cfg, log)
	require.NoError(t, err)
	require.NoError(t, st.Ping(ctx))

	created, err := st.Credentials().Create(ctx, &models.Credential{
		OwnerID:          "u1",
		Website:          "example.com",
		Username:         "alice",
		SecretCipherText: "ct",
		Category:         models.DefaultCategory,
	})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	// Migrations are idempotent and data survives a reopen.
	st, err = OpenStore(cfg, log)
	require.NoError(t, err)
	defer st.Close()

	got, err := st.Credentials().FindOne(ctx, created.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "example.com", got.Website)
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.DatabaseDriver = "mysql"

	_, err := OpenStore(cfg, logger.Discard().Logger)
	assert.Error(t, err)
}

func TestNewCipherBackends(t *testing.T) {
	identity, _, err := secrets.GenerateAgeIdentity()
	require.NoError(t, err)

	for _, backend := range []string{config.CipherAESGCM, config.CipherCryptoJS, config.CipherAge} {
		t.Run(backend, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Cipher.Backend = backend
			cfg.Cipher.AgeIdentity = identity

			c, err := NewCipher(cfg, logger.Discard().Logger)
			require.NoError(t, err)

			ct, err := c.Encrypt("hunter2")
			require.NoError(t, err)
			pt, err := c.Decrypt(ct)
			require.NoError(t, err)
			assert.Equal(t, "hunter2", pt)
		})
	}
}

func TestNewCipherRejectsUnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cipher.Backend = "rot13"

	_, err := NewCipher(cfg, logger.Discard().Logger)
	assert.ErrorIs(t, err, secrets.ErrUnknownBackend)
}

func TestNewAuthServiceUsesConfiguredSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.JWTSecret = "bootstrap-secret"
	cfg.JWTExpiry = time.Minute

	svc := NewAuthService(cfg, logger.Discard().Logger)
	token, err := svc.GenerateToken("user-1", "")
	require.NoError(t, err)

	id, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.String())

	other := NewAuthService(&config.Config{JWTSecret: "different", JWTExpiry: time.Minute}, nil)
	_, err = other.Verify(token)
	assert.Error(t, err)
}
