// Package auth provides bearer token issuing and verification.
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Common errors returned by the auth service. Every one of them wraps
// ErrUnauthenticated so callers can treat them as a single class.
var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrInvalidToken     = fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	ErrExpiredToken     = fmt.Errorf("%w: token has expired", ErrUnauthenticated)
	ErrMissingClaims    = fmt.Errorf("%w: missing required claims", ErrUnauthenticated)
	ErrInvalidSignature = fmt.Errorf("%w: invalid token signature", ErrUnauthenticated)
)

// signingMethod is the only algorithm tokens are signed and accepted with.
var signingMethod = jwt.SigningMethodHS256

// Identity is the stable account identifier carried in the token's subject.
type Identity string

// String returns the identity as a plain string.
func (i Identity) String() string {
	return string(i)
}

// Claims represents the verified contents of a token.
type Claims struct {
	Identity Identity
	Email    string
	Exp      time.Time
}

// Config holds authentication configuration.
type Config struct {
	JWTSecret   []byte
	TokenExpiry time.Duration
}

// Service issues and verifies HMAC-signed bearer tokens.
type Service struct {
	jwtSecret   []byte
	tokenExpiry time.Duration
	logger      *slog.Logger
}

// NewService creates a new authentication service.
func NewService(cfg *Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		jwtSecret:   cfg.JWTSecret,
		tokenExpiry: cfg.TokenExpiry,
		logger:      logger,
	}
}

// GenerateToken creates a new signed token for the given identity.
func (s *Service) GenerateToken(id Identity, email string) (string, error) {
	if id == "" {
		return "", ErrMissingClaims
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   id.String(),
		"email": email,
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"exp":   now.Add(s.tokenExpiry).Unix(),
	}

	token := jwt.NewWithClaims(signingMethod, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		s.logger.Error("failed to sign token", "error", err)
		return "", fmt.Errorf("signing token: %w", err)
	}

	return signed, nil
}

// Verify validates a raw token and returns the identity it carries.
func (s *Service) Verify(rawToken string) (Identity, error) {
	claims, err := s.ValidateToken(rawToken)
	if err != nil {
		return "", err
	}
	return claims.Identity, nil
}

// ValidateToken validates a token and returns its claims. Tokens signed with
// any algorithm other than HS256, or with a different key, are rejected.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrInvalidToken
		}
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	subject, err := mapClaims.GetSubject()
	if err != nil || subject == "" {
		return nil, ErrMissingClaims
	}

	exp, err := mapClaims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrMissingClaims
	}

	email, _ := mapClaims["email"].(string)

	return &Claims{
		Identity: Identity(subject),
		Email:    email,
		Exp:      exp.Time,
	}, nil
}

// ExtractBearerToken extracts the token from a Bearer authorization header.
func ExtractBearerToken(authHeader string) string {
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
