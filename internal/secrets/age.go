package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"filippo.io/age"
	"filippo.io/age/armor"
)

// Age encrypts to the recipient of a server-held X25519 identity and decrypts
// with the identity itself, so it behaves as a symmetric cipher from the
// caller's point of view. Ciphertexts are ASCII-armored age files.
type Age struct {
	identity  *age.X25519Identity
	recipient *age.X25519Recipient
}

// NewAge parses an AGE-SECRET-KEY-1... identity.
func NewAge(identity string) (*Age, error) {
	if identity == "" {
		return nil, fmt.Errorf("%w: empty age identity", ErrInvalidKey)
	}
	id, err := age.ParseX25519Identity(strings.TrimSpace(identity))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid age identity: %v", ErrInvalidKey, err)
	}
	return &Age{identity: id, recipient: id.Recipient()}, nil
}

// Encrypt encrypts plaintext to the identity's recipient. age generates a
// fresh file key per call.
func (c *Age) Encrypt(plaintext string) (string, error) {
	var buf strings.Builder
	aw := armor.NewWriter(&buf)

	w, err := age.Encrypt(aw, c.recipient)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}
	if _, err := io.WriteString(w, plaintext); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}
	if err := aw.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	return buf.String(), nil
}

// Decrypt opens an armored age ciphertext.
func (c *Age) Decrypt(ciphertext string) (string, error) {
	if !strings.HasPrefix(ciphertext, armor.Header) {
		return "", decryptError("not an armored age file")
	}

	r, err := age.Decrypt(armor.NewReader(strings.NewReader(ciphertext)), c.identity)
	if err != nil {
		return "", decryptError("%v", err)
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		return "", decryptError("%v", err)
	}
	if !utf8.Valid(plaintext) {
		return "", decryptError("plaintext is not valid UTF-8")
	}

	return string(plaintext), nil
}

// GenerateAgeIdentity returns a new X25519 identity and its public recipient.
func GenerateAgeIdentity() (identity, recipient string, err error) {
	id, err := age.GenerateX25519Identity()
	if err != nil {
		return "", "", fmt.Errorf("generating age identity: %w", err)
	}
	return id.String(), id.Recipient().String(), nil
}

// GeneratePassphrase returns a random passphrase suitable for AES_SECRET.
func GeneratePassphrase() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
