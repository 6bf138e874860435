package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narvanalabs/vaulty/internal/auth"
	"github.com/narvanalabs/vaulty/internal/models"
	"github.com/narvanalabs/vaulty/internal/secrets"
	"github.com/narvanalabs/vaulty/internal/store/sqlite"
	"github.com/narvanalabs/vaulty/pkg/config"
	"github.com/narvanalabs/vaulty/pkg/logger"
)

type testServer struct {
	t      *testing.T
	server *httptest.Server
	store  *sqlite.Store
	auth   *auth.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := sqlite.NewMemoryDB(url.PathEscape(t.Name()))
	require.NoError(t, err)
	st, err := sqlite.Open(db, logger.Discard().Logger)
	require.NoError(t, err)

	cfg := config.LoadWithDefaults()
	cipher, err := secrets.New(&secrets.Config{
		Backend:       secrets.BackendAESGCM,
		Passphrase:    "server-test-key",
		LegacyDecrypt: true,
	}, nil)
	require.NoError(t, err)

	authSvc := auth.NewService(&auth.Config{
		JWTSecret:   []byte("server-test-secret"),
		TokenExpiry: time.Hour,
	}, nil)

	srv := NewServer(cfg, st, cipher, authSvc, logger.Discard().Logger)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		_ = st.Close()
	})

	return &testServer{t: t, server: ts, store: st, auth: authSvc}
}

func (s *testServer) token(id string) string {
	tok, err := s.auth.GenerateToken(auth.Identity(id), id+"@example.com")
	require.NoError(s.t, err)
	return tok
}

// do sends a request and decodes a JSON response into out when non-nil.
func (s *testServer) do(method, path, token string, body any, out any) *http.Response {
	s.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.server.URL+path, reader)
	require.NoError(s.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.server.Client().Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(s.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

func TestCredentialScenario(t *testing.T) {
	s := newTestServer(t)
	tokenA := s.token("user-a")
	tokenB := s.token("user-b")

	var created map[string]any
	resp := s.do(http.MethodPost, "/passwords", tokenA, map[string]string{
		"website":  "example.com",
		"username": "alice",
		"password": "Str0ng!Pw",
		"category": "Work",
	}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.NotContains(t, created, "password")
	assert.NotContains(t, created, "secretCipherText")

	var list []map[string]any
	resp = s.do(http.MethodGet, "/passwords", tokenA, nil, &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, list, 1)
	assert.Equal(t, "example.com", list[0]["website"])
	assert.Equal(t, "alice", list[0]["username"])
	assert.Equal(t, "Work", list[0]["category"])
	for key := range list[0] {
		assert.Contains(t, []string{"id", "website", "username", "category", "createdAt", "updatedAt"}, key)
	}

	var revealed map[string]string
	resp = s.do(http.MethodGet, "/passwords/"+id+"/decrypt", tokenA, nil, &revealed)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Str0ng!Pw", revealed["password"])
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	var notFound errorBody
	resp = s.do(http.MethodGet, "/passwords/"+id+"/decrypt", tokenB, nil, &notFound)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", notFound.Code)
	assert.NotEmpty(t, notFound.Message)

	resp = s.do(http.MethodPut, "/passwords/"+id, tokenB, map[string]string{"website": "evil.example"}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = s.do(http.MethodDelete, "/passwords/"+id, tokenB, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var listB []map[string]any
	resp = s.do(http.MethodGet, "/passwords", tokenB, nil, &listB)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, listB)

	var updated map[string]any
	resp = s.do(http.MethodPut, "/passwords/"+id, tokenA, map[string]string{"category": "Banking"}, &updated)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Banking", updated["category"])
	assert.Equal(t, "example.com", updated["website"])

	resp = s.do(http.MethodGet, "/passwords/"+id+"/decrypt", tokenA, nil, &revealed)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Str0ng!Pw", revealed["password"])

	var deleted map[string]bool
	resp = s.do(http.MethodDelete, "/passwords/"+id, tokenA, nil, &deleted)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, deleted["success"])

	resp = s.do(http.MethodGet, "/passwords/"+id+"/decrypt", tokenA, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateRejectsMissingFields(t *testing.T) {
	s := newTestServer(t)
	token := s.token("user-a")

	var body errorBody
	resp := s.do(http.MethodPost, "/passwords", token, map[string]string{
		"website":  "",
		"username": "alice",
		"password": "Str0ng!Pw",
	}, &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
	assert.NotEmpty(t, body.Message)

	var list []map[string]any
	s.do(http.MethodGet, "/passwords", token, nil, &list)
	assert.Empty(t, list)
}

func TestCreateDefaultsCategory(t *testing.T) {
	s := newTestServer(t)

	var created map[string]any
	resp := s.do(http.MethodPost, "/passwords", s.token("user-a"), map[string]string{
		"website":  "example.com",
		"username": "alice",
		"password": "pw",
	}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, models.DefaultCategory, created["category"])
}

func TestMalformedBodiesAndIDs(t *testing.T) {
	s := newTestServer(t)
	token := s.token("user-a")

	resp := s.do(http.MethodPost, "/passwords", token, "{not json", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(http.MethodPost, "/passwords", token, `{"website": 42}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(http.MethodPut, "/passwords/does-not-exist", token, map[string]string{"category": "x"}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = s.do(http.MethodPut, "/passwords/whatever", token, map[string]string{"website": ""}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEveryCredentialEndpointRequiresAuth(t *testing.T) {
	s := newTestServer(t)

	endpoints := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/passwords"},
		{http.MethodPost, "/passwords"},
		{http.MethodPut, "/passwords/some-id"},
		{http.MethodDelete, "/passwords/some-id"},
		{http.MethodGet, "/passwords/some-id/decrypt"},
	}

	for _, ep := range endpoints {
		t.Run(ep.method+" "+ep.path, func(t *testing.T) {
			var missing errorBody
			resp := s.do(ep.method, ep.path, "", map[string]string{"website": "x"}, &missing)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "UNAUTHORIZED", missing.Code)

			var invalid errorBody
			resp = s.do(ep.method, ep.path, "not.a.token", map[string]string{"website": "x"}, &invalid)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, missing.Code, invalid.Code)
			assert.Equal(t, missing.Message, invalid.Message)
		})
	}
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	var session struct {
		Token string `json:"token"`
		User  struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	resp := s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"email":    "Alice@Example.com",
		"password": "correct-horse",
	}, &session)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "alice@example.com", session.User.Email)
	require.NotEmpty(t, session.Token)

	id, err := s.auth.Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, id.String())

	resp = s.do(http.MethodGet, "/passwords", session.Token, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"email":    "alice@example.com",
		"password": "another-password",
	}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"email":    "bob@example.com",
		"password": "short",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var tooLong errorBody
	resp = s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"email":    "long@example.com",
		"password": strings.Repeat("a", 73),
	}, &tooLong)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", tooLong.Code)

	resp = s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"email":    "maxlen@example.com",
		"password": strings.Repeat("a", 72),
	}, nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = s.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "correct-horse",
	}, &session)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, session.Token)

	var body errorBody
	resp = s.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong-password",
	}, &body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid credentials", body.Message)

	resp = s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "alice@example.com"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRootAndHealth(t *testing.T) {
	s := newTestServer(t)

	var root map[string]string
	resp := s.do(http.MethodGet, "/", "", nil, &root)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", root["status"])

	var health map[string]any
	resp = s.do(http.MethodGet, "/health", "", nil, &health)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", health["status"])
}
