package store

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest account password bcrypt accepts.
const MaxPasswordBytes = 72

// NormalizeEmail lower-cases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashPassword hashes an account password with bcrypt.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hashed), nil
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// unknownUserHash is compared against when no account matches, so a lookup
// miss costs the same bcrypt work as a wrong password.
func unknownUserHash() []byte {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("vaulty-unknown-user"), bcrypt.DefaultCost)
	})
	return dummyHash
}

// CheckPassword reports whether password matches the bcrypt hash. An empty
// hash stands for a missing account and never matches.
func CheckPassword(hash, password string) bool {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(unknownUserHash(), []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// StringOrNil converts an optional field into a value database/sql binds as NULL.
func StringOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
