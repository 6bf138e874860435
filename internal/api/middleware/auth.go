package middleware

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	apierrors "github.com/narvanalabs/vaulty/internal/api/errors"
	"github.com/narvanalabs/vaulty/internal/auth"
	"github.com/narvanalabs/vaulty/pkg/logger"
)

// unauthorizedMessage is the single message for every authentication failure
// so a missing header cannot be told apart from a bad token.
const unauthorizedMessage = "authentication required"

// TokenVerifier turns a raw bearer token into a verified identity.
type TokenVerifier interface {
	Verify(rawToken string) (auth.Identity, error)
}

// AuthMiddleware rejects requests without a valid bearer token.
type AuthMiddleware struct {
	verifier TokenVerifier
	logger   *slog.Logger
}

// NewAuthMiddleware creates a new authentication middleware.
func NewAuthMiddleware(verifier TokenVerifier, logger *slog.Logger) *AuthMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthMiddleware{
		verifier: verifier,
		logger:   logger,
	}
}

// Authenticate verifies the Authorization header and binds the identity to
// the request context. On failure it answers 401 and never calls next.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.ExtractBearerToken(r.Header.Get("Authorization"))

		id, err := m.verifier.Verify(token)
		if err != nil {
			m.logger.Debug("authentication failed",
				"error", err,
				"path", r.URL.Path,
				"request_id", middleware.GetReqID(r.Context()),
			)
			apierrors.WriteErrorWithRequestID(w,
				apierrors.NewUnauthorizedError(unauthorizedMessage),
				middleware.GetReqID(r.Context()),
			)
			return
		}

		ctx := auth.WithIdentity(r.Context(), id)
		ctx = logger.ContextWithUserID(ctx, id.String())

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
