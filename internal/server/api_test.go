package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/bubingachat/internal/apperr"
	"github.com/Tyrowin/bubingachat/internal/auth"
	"github.com/Tyrowin/bubingachat/internal/users"
)

const aliceBody = `{"username":"alice","email":"a@example.com","password":"secret1"}`

// TestRegisterThenMe registers alice and reads her back through /me with
// the issued token.
func TestRegisterThenMe(t *testing.T) {
	env := newTestEnv(t, DefaultOptions())

	resp, body := env.do(t, http.MethodPost, "/api/auth/register", aliceBody, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.True(t, body.Success)

	reg := decodeData[authData](t, body)
	assert.Equal(t, "alice", reg.User.Username)
	require.NotEmpty(t, reg.Token)
	assert.NotContains(t, string(body.Data), "password")

	resp, body = env.do(t, http.MethodGet, "/api/auth/me", "", bearer(reg.Token))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	me := decodeData[struct {
		User users.User `json:"user"`
	}](t, body)
	assert.Equal(t, "a@example.com", me.User.Email)
	assert.Equal(t, reg.User.ID, me.User.ID)
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	env := newTestEnv(t, DefaultOptions())

	resp, _ := env.do(t, http.MethodPost, "/api/auth/register", aliceBody, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := env.do(t, http.MethodPost, "/api/auth/register",
		`{"username":"alice2","email":"a@example.com","password":"secret1"}`, nil)

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.False(t, body.Success)
	assert.Contains(t, strings.ToLower(body.Error), "email or username")
	assert.Equal(t, 1, env.store.Len())
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, DefaultOptions())
	resp, _ := env.do(t, http.MethodPost, "/api/auth/register", aliceBody, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	t.Run("success", func(t *testing.T) {
		resp, body := env.do(t, http.MethodPost, "/api/auth/login", `{"email":"A@example.com","password":"secret1"}`, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		data := decodeData[authData](t, body)
		id, err := env.tokens.Verify(data.Token)
		require.NoError(t, err)
		assert.Equal(t, data.User.ID, id.UserID)
	})

	t.Run("failures share one message", func(t *testing.T) {
		r1, unknown := env.do(t, http.MethodPost, "/api/auth/login", `{"email":"nobody@example.com","password":"secret1"}`, nil)
		r2, wrong := env.do(t, http.MethodPost, "/api/auth/login", `{"email":"a@example.com","password":"nope-nope"}`, nil)

		assert.Equal(t, http.StatusUnauthorized, r1.StatusCode)
		assert.Equal(t, http.StatusUnauthorized, r2.StatusCode)
		assert.Equal(t, "Invalid email or password", unknown.Error)
		assert.Equal(t, unknown.Error, wrong.Error)
	})
}

func TestMe_Unauthorized(t *testing.T) {
	env := newTestEnv(t, DefaultOptions())

	tests := []struct {
		name   string
		header http.Header
	}{
		{"garbage token", bearer("garbage")},
		{"no header", nil},
		{"wrong scheme", http.Header{"Authorization": {"Token abc"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.do(t, http.MethodGet, "/api/auth/me", "", tt.header)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.False(t, body.Success)
			assert.Empty(t, body.Data)
		})
	}
}

func TestMe_ExpiredToken(t *testing.T) {
	env := newTestEnv(t, DefaultOptions())

	past := env.tokens.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	token, err := past.Issue("someone", "x@example.com")
	require.NoError(t, err)

	resp, body := env.do(t, http.MethodGet, "/api/auth/me", "", bearer(token))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Token expired", body.Error)
}

func TestMe_UserGone(t *testing.T) {
	env := newTestEnv(t, DefaultOptions())

	token, err := env.tokens.Issue("deleted-user", "gone@example.com")
	require.NoError(t, err)

	resp, body := env.do(t, http.MethodGet, "/api/auth/me", "", bearer(token))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "User not found", body.Error)
}

func TestRegister_BadInput(t *testing.T) {
	env := newTestEnv(t, DefaultOptions())

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"malformed json", `{"username":`, "Invalid JSON"},
		{"empty body", ``, "Request body is empty"},
		{"short username", `{"username":"al","email":"a@example.com","password":"secret1"}`, `"username"`},
		{"bad email", `{"username":"alice","email":"nope","password":"secret1"}`, `"email"`},
		{"short password", `{"username":"alice","email":"a@example.com","password":"123"}`, `"password"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.do(t, http.MethodPost, "/api/auth/register", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, body.Error, tt.wantErr)
		})
	}
	assert.Equal(t, 0, env.store.Len())
}

func TestUnknownAPIRoute(t *testing.T) {
	env := newTestEnv(t, DefaultOptions())

	resp, body := env.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Route not found", body.Error)
}

func TestHealthAndTestPage(t *testing.T) {
	env := newTestEnv(t, DefaultOptions())

	for _, path := range []string{"/", "/health"} {
		resp, err := env.srv.Client().Get(env.srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
	}

	resp, err := env.srv.Client().Get(env.srv.URL + "/test")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, Options{
		AllowedOrigins:    []string{"*"},
		RateLimitRequests: 3,
		RateLimitWindow:   time.Hour,
	})

	for i := 0; i < 3; i++ {
		resp, _ := env.do(t, http.MethodGet, "/api/nope", "", nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	}

	resp, body := env.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Too many requests, please try again later.", body.Error)

	// Non-API routes are not limited.
	r, err := env.srv.Client().Get(env.srv.URL + "/health")
	require.NoError(t, err)
	r.Body.Close()
	assert.Equal(t, http.StatusOK, r.StatusCode)
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, Options{AllowedOrigins: []string{"http://localhost:5173"}})

	resp, _ := env.do(t, http.MethodOptions, "/api/auth/login", "", http.Header{
		"Origin":                        {"http://localhost:5173"},
		"Access-Control-Request-Method": {"POST"},
	})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "Authorization")

	resp, _ = env.do(t, http.MethodOptions, "/api/auth/login", "", http.Header{
		"Origin": {"http://evil.example.com"},
	})
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

type stubService struct {
	err   error
	panic bool
}

func (s stubService) Register(context.Context, users.RegisterInput) (users.AuthResult, error) {
	if s.panic {
		panic("boom")
	}
	return users.AuthResult{}, s.err
}

func (s stubService) Login(context.Context, users.LoginInput) (users.AuthResult, error) {
	return users.AuthResult{}, s.err
}

func (s stubService) GetMe(context.Context, string) (users.User, error) {
	return users.User{}, s.err
}

func TestErrorStage_HidesInternalDetail(t *testing.T) {
	tokens, err := auth.NewJWTManager("test-secret", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name string
		svc  stubService
	}{
		{"plain error", stubService{err: errors.New("pq: connection refused")}},
		{"internal kind", stubService{err: apperr.Wrap(apperr.KindInternal, "Internal server error", errors.New("disk full"))}},
		{"panic", stubService{panic: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnvWithService(t, tt.svc, tokens, nil, DefaultOptions())

			resp, body := env.do(t, http.MethodPost, "/api/auth/register", aliceBody, nil)
			assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
			assert.Equal(t, "Internal server error", body.Error)
			assert.False(t, body.Success)
		})
	}
}

func TestStatusFor_EveryKind(t *testing.T) {
	want := map[apperr.Kind]int{
		apperr.KindInternal:        http.StatusInternalServerError,
		apperr.KindValidation:      http.StatusBadRequest,
		apperr.KindUnauthorized:    http.StatusUnauthorized,
		apperr.KindForbidden:       http.StatusForbidden,
		apperr.KindNotFound:        http.StatusNotFound,
		apperr.KindConflict:        http.StatusConflict,
		apperr.KindTooManyRequests: http.StatusTooManyRequests,
	}
	for kind, status := range want {
		assert.Equal(t, status, statusFor(kind), kind.String())
	}
}
