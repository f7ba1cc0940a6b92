package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Tyrowin/bubingachat/internal/auth"
	"github.com/Tyrowin/bubingachat/internal/chat"
	"github.com/Tyrowin/bubingachat/internal/logging"
	"github.com/Tyrowin/bubingachat/internal/store/memory"
	"github.com/Tyrowin/bubingachat/internal/users"
)

type testEnv struct {
	srv    *httptest.Server
	hub    *Hub
	store  *memory.Store
	tokens *auth.JWTManager
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()

	logger := logging.Discard()
	store := memory.New()
	tokens, err := auth.NewJWTManager("test-secret", time.Hour)
	require.NoError(t, err)

	svc := users.NewService(store, auth.NewBcryptHasher(bcrypt.MinCost), tokens, logger)
	return newTestEnvWithService(t, svc, tokens, store, opts)
}

func newTestEnvWithService(t *testing.T, svc AuthService, tokens *auth.JWTManager, store *memory.Store, opts Options) *testEnv {
	t.Helper()

	logger := logging.Discard()
	hub := NewHub(logger)
	go hub.Run()

	srv := httptest.NewServer(New(hub, svc, tokens, logger, opts).Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = hub.Shutdown(2 * time.Second)
	})

	return &testEnv{srv: srv, hub: hub, store: store, tokens: tokens}
}

type testEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path, body string, header http.Header) (*http.Response, testEnvelope) {
	t.Helper()

	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env testEnvelope
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") && len(bytes.TrimSpace(raw)) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), "body: %s", raw)
	}
	return resp, env
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": {"Bearer " + token}}
}

type authData struct {
	User  users.User `json:"user"`
	Token string     `json:"token"`
}

func decodeData[T any](t *testing.T, env testEnvelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func (e *testEnv) wsURL() string {
	return "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws"
}

func (e *testEnv) dial(t *testing.T, origin string) *websocket.Conn {
	t.Helper()

	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, resp, err := dialer.Dial(e.wsURL(), header)
	if resp != nil {
		resp.Body.Close()
	}
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func (e *testEnv) waitForClients(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return e.hub.ClientCount() == n },
		2*time.Second, 10*time.Millisecond, "expected %d clients", n)
}

func sendChat(t *testing.T, conn *websocket.Conn, m chat.Message) {
	t.Helper()
	frame, err := chat.Encode(chat.EventSendMessage, m)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

func readEvent(t *testing.T, conn *websocket.Conn) (chat.Event, chat.Message) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)

	ev, m, err := chat.Decode(frame)
	require.NoError(t, err)
	return ev, m
}
