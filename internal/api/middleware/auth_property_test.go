package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/narvanalabs/vaulty/internal/auth"
	"github.com/narvanalabs/vaulty/pkg/logger"
)

func newTestGuard(t *testing.T) (*AuthMiddleware, *auth.Service) {
	t.Helper()
	svc := auth.NewService(&auth.Config{
		JWTSecret:   []byte("middleware-test-secret"),
		TokenExpiry: time.Hour,
	}, nil)
	return NewAuthMiddleware(svc, logger.Discard().Logger), svc
}

func genBadAuthorization() gopter.Gen {
	return gen.OneGenOf(
		gen.Const(""),
		gen.Const("Bearer"),
		gen.Const("Bearer "),
		gen.AlphaString().Map(func(s string) string { return "Bearer " + s }),
		gen.AlphaString().Map(func(s string) string { return "Basic " + s }),
		gen.AnyString(),
	)
}

// For any missing or invalid Authorization header the guard answers 401
// with the same body and never invokes the wrapped handler.
func TestPropertyGuardRejectsUnauthenticated(t *testing.T) {
	guard, _ := newTestGuard(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("bad credentials never reach the handler", prop.ForAll(
		func(header string) bool {
			called := false
			h := guard.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/passwords", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			var body map[string]any
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				return false
			}
			return !called &&
				rr.Code == http.StatusUnauthorized &&
				body["code"] == "UNAUTHORIZED" &&
				body["message"] == unauthorizedMessage
		},
		genBadAuthorization(),
	))

	properties.TestingRun(t)
}

func TestGuardBindsIdentity(t *testing.T) {
	guard, svc := newTestGuard(t)

	token, err := svc.GenerateToken("user-7", "u7@example.com")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	var gotID auth.Identity
	var gotLogUser string
	h := guard.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = auth.IdentityFromContext(r.Context())
		gotLogUser = logger.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/passwords", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rr.Code)
	}
	if gotID != "user-7" || gotLogUser != "user-7" {
		t.Errorf("identity = %q, log user = %q, want user-7", gotID, gotLogUser)
	}
}

func TestGuardRejectsExpiredToken(t *testing.T) {
	guard, _ := newTestGuard(t)
	expired := auth.NewService(&auth.Config{
		JWTSecret:   []byte("middleware-test-secret"),
		TokenExpiry: -time.Minute,
	}, nil)

	token, err := expired.GenerateToken("user-7", "")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	h := guard.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run")
	}))
	req := httptest.NewRequest(http.MethodDelete, "/passwords/x", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

func TestRecoveryReturns500(t *testing.T) {
	h := Recovery(logger.Discard().Logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["code"] != "INTERNAL_ERROR" {
		t.Errorf("code = %v, want INTERNAL_ERROR", body["code"])
	}
}
