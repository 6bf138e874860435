package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/hkdf"
)

// aesGCMPrefix tags ciphertexts produced by AESGCM.
const aesGCMPrefix = "gcm1:"

const hkdfInfo = "vaulty credential cipher v1"

// AESGCM is an authenticated AES-256-GCM cipher keyed from a passphrase via
// HKDF-SHA256. Output is "gcm1:" followed by base64(nonce || ciphertext || tag).
type AESGCM struct {
	aead cipher.AEAD
}

// NewAESGCM derives a 256-bit key from passphrase.
func NewAESGCM(passphrase string) (*AESGCM, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("%w: empty passphrase", ErrInvalidKey)
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(passphrase), nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}

	return &AESGCM{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (c *AESGCM) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("%w: rand nonce: %v", ErrEncryptionFailed, err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return aesGCMPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a ciphertext produced by Encrypt. Tampering is detected by
// the GCM tag.
func (c *AESGCM) Decrypt(ciphertext string) (string, error) {
	encoded, ok := strings.CutPrefix(ciphertext, aesGCMPrefix)
	if !ok {
		return "", decryptError("not an aes-gcm ciphertext")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", decryptError("base64 decode: %v", err)
	}

	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize+c.aead.Overhead() {
		return "", decryptError("ciphertext too short")
	}

	plaintext, err := c.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", decryptError("gcm open: %v", err)
	}
	if !utf8.Valid(plaintext) {
		return "", decryptError("plaintext is not valid UTF-8")
	}

	return string(plaintext), nil
}
