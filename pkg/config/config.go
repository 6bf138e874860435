// Package config provides environment-based configuration for the vault server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Development fallbacks used when the corresponding keys are unset.
// They exist so a fresh checkout runs without setup; STRICT_KEYS refuses them.
const (
	DefaultJWTSecret     = "devsecret"
	DefaultEncryptionKey = "aes_dev_secret_key_change_me"
)

// Cipher backends accepted by CIPHER_BACKEND.
const (
	CipherAESGCM   = "aes-gcm"
	CipherCryptoJS = "cryptojs"
	CipherAge      = "age"
)

// Database drivers accepted by DATABASE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// database/sql driver names accepted by POSTGRES_DRIVER.
const (
	PostgresDriverPgx = "pgx"
	PostgresDriverPq  = "postgres"
)

// Config holds all configuration for the vault server.
type Config struct {
	// Database configuration
	DatabaseDriver string
	DatabaseDSN    string
	PostgresDriver string
	SQLitePath     string

	// Authentication
	JWTSecret string
	JWTExpiry time.Duration

	// Secret encryption
	Cipher CipherConfig

	// Server configuration
	APIHost        string
	APIPort        int
	RequestTimeout time.Duration

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// StrictKeys makes Validate reject the development fallback keys.
	StrictKeys bool
}

// CipherConfig holds the symmetric cipher configuration.
type CipherConfig struct {
	// Backend selects the cipher used for new ciphertexts.
	Backend string
	// EncryptionKey is the passphrase the AES backends derive their key from.
	EncryptionKey string
	// AgeIdentity is the age X25519 identity (AGE-SECRET-KEY-1...) for the age backend.
	AgeIdentity string
	// LegacyDecrypt enables decryption of CryptoJS passphrase ciphertexts
	// when the primary backend cannot open a value.
	LegacyDecrypt bool
}

// source resolves a key from the process environment first, then the
// optional YAML config file.
type source struct {
	file map[string]string
}

// Load reads configuration from environment variables, applying an optional
// YAML file named by CONFIG_FILE underneath them.
func Load() (*Config, error) {
	src := source{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		values, err := readFile(path)
		if err != nil {
			return nil, err
		}
		src.file = values
	}

	cfg := src.build()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration from the environment without validation.
// Useful for tools and tests.
func LoadWithDefaults() *Config {
	return source{}.build()
}

func (s source) build() *Config {
	return &Config{
		DatabaseDriver: strings.ToLower(s.get("DATABASE_DRIVER", DriverSQLite)),
		DatabaseDSN:    s.get("DATABASE_URL", "postgres://localhost:5432/vaulty?sslmode=disable"),
		PostgresDriver: strings.ToLower(s.get("POSTGRES_DRIVER", PostgresDriverPgx)),
		SQLitePath:     s.get("SQLITE_PATH", "vaulty.db"),
		JWTSecret:      s.get("JWT_SECRET", DefaultJWTSecret),
		JWTExpiry:      s.duration("JWT_EXPIRY", 7*24*time.Hour),
		Cipher: CipherConfig{
			Backend:       strings.ToLower(s.get("CIPHER_BACKEND", CipherAESGCM)),
			EncryptionKey: s.get("AES_SECRET", DefaultEncryptionKey),
			AgeIdentity:   s.get("AGE_IDENTITY", ""),
			LegacyDecrypt: s.bool("LEGACY_DECRYPT", true),
		},
		APIHost:         s.get("API_HOST", "0.0.0.0"),
		APIPort:         s.int("PORT", 5000),
		RequestTimeout:  s.duration("REQUEST_TIMEOUT", 60*time.Second),
		ShutdownTimeout: s.duration("SHUTDOWN_TIMEOUT", 30*time.Second),
		LogLevel:        strings.ToLower(s.get("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(s.get("LOG_FORMAT", "json")),
		StrictKeys:      s.bool("STRICT_KEYS", false),
	}
}

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverPostgres:
		if c.PostgresDriver != PostgresDriverPgx && c.PostgresDriver != PostgresDriverPq {
			return fmt.Errorf("POSTGRES_DRIVER must be %q or %q, got %q", PostgresDriverPgx, PostgresDriverPq, c.PostgresDriver)
		}
	case DriverSQLite:
	default:
		return fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.DatabaseDriver)
	}

	switch c.Cipher.Backend {
	case CipherAESGCM, CipherCryptoJS:
		if c.Cipher.EncryptionKey == "" {
			return fmt.Errorf("AES_SECRET is required for the %s cipher", c.Cipher.Backend)
		}
	case CipherAge:
		if c.Cipher.AgeIdentity == "" {
			return fmt.Errorf("AGE_IDENTITY is required for the age cipher")
		}
	default:
		return fmt.Errorf("unknown CIPHER_BACKEND %q", c.Cipher.Backend)
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.StrictKeys && c.UsingDefaultKeys() {
		return fmt.Errorf("STRICT_KEYS is set but JWT_SECRET or AES_SECRET uses the development default")
	}
	return nil
}

// UsingDefaultKeys reports whether either the signing key or the encryption
// key is the built-in development fallback.
func (c *Config) UsingDefaultKeys() bool {
	return c.JWTSecret == DefaultJWTSecret || c.Cipher.EncryptionKey == DefaultEncryptionKey
}

// Addr returns the host:port the API server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.APIHost, c.APIPort)
}

func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	values := make(map[string]string)
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return values, nil
}

func (s source) get(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value := s.file[key]; value != "" {
		return value
	}
	return defaultValue
}

func (s source) int(key string, defaultValue int) int {
	if value := s.get(key, ""); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func (s source) bool(key string, defaultValue bool) bool {
	if value := s.get(key, ""); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func (s source) duration(key string, defaultValue time.Duration) time.Duration {
	if value := s.get(key, ""); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
