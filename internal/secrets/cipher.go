// Package secrets provides the symmetric ciphers used to protect stored
// credential passwords.
//
// Every backend encodes its output as a printable string so it can be stored
// in a text column. Decrypt never panics on hostile input: corrupt, truncated
// or foreign ciphertexts produce an error wrapping ErrDecryptionFailed.
package secrets

import (
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrDecryptionFailed is returned when a ciphertext cannot be opened.
	ErrDecryptionFailed = errors.New("decryption failed")
	// ErrEncryptionFailed is returned when encryption fails.
	ErrEncryptionFailed = errors.New("encryption failed")
	// ErrInvalidKey is returned when a key is missing or malformed.
	ErrInvalidKey = errors.New("invalid key")
	// ErrUnknownBackend is returned for an unrecognised backend name.
	ErrUnknownBackend = errors.New("unknown cipher backend")
)

// Backend names.
const (
	BackendAESGCM   = "aes-gcm"
	BackendCryptoJS = "cryptojs"
	BackendAge      = "age"
)

// Cipher encrypts and decrypts secret strings with a process-wide key.
// Encrypt must use fresh randomness per call.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// Config selects and keys a cipher.
type Config struct {
	// Backend is one of BackendAESGCM, BackendCryptoJS or BackendAge.
	Backend string
	// Passphrase keys the AES based backends.
	Passphrase string
	// AgeIdentity is the X25519 identity (AGE-SECRET-KEY-1...) for the age backend.
	AgeIdentity string
	// LegacyDecrypt also accepts CryptoJS passphrase ciphertexts on decrypt.
	LegacyDecrypt bool
}

// New builds the cipher described by cfg. When LegacyDecrypt is set and the
// primary backend is not already CryptoJS, decryption falls back to the
// CryptoJS format keyed by the same passphrase.
func New(cfg *Config, logger *slog.Logger) (Cipher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var primary Cipher
	var err error

	switch cfg.Backend {
	case BackendAESGCM, "":
		primary, err = NewAESGCM(cfg.Passphrase)
	case BackendCryptoJS:
		primary, err = NewCryptoJS(cfg.Passphrase)
	case BackendAge:
		primary, err = NewAge(cfg.AgeIdentity)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	if !cfg.LegacyDecrypt || cfg.Backend == BackendCryptoJS || cfg.Passphrase == "" {
		return primary, nil
	}

	legacy, err := NewCryptoJS(cfg.Passphrase)
	if err != nil {
		return nil, err
	}

	logger.Debug("legacy ciphertext decryption enabled", "primary", cfg.Backend)
	return &Fallback{Primary: primary, Legacy: []Cipher{legacy}}, nil
}

// Fallback encrypts with Primary and decrypts with the first cipher that
// accepts the ciphertext.
type Fallback struct {
	Primary Cipher
	Legacy  []Cipher
}

// Encrypt encrypts with the primary cipher.
func (f *Fallback) Encrypt(plaintext string) (string, error) {
	return f.Primary.Encrypt(plaintext)
}

// Decrypt tries the primary cipher, then each legacy cipher in order.
func (f *Fallback) Decrypt(ciphertext string) (string, error) {
	plaintext, err := f.Primary.Decrypt(ciphertext)
	if err == nil {
		return plaintext, nil
	}
	for _, c := range f.Legacy {
		if p, lerr := c.Decrypt(ciphertext); lerr == nil {
			return p, nil
		}
	}
	return "", err
}

func decryptError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDecryptionFailed, fmt.Sprintf(format, args...))
}
