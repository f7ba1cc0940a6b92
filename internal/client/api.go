package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Tyrowin/bubingachat/internal/users"
)

var ErrNotLoggedIn = errors.New("not logged in")

// APIError is a failure envelope returned by the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// API calls the server's /api routes. The bearer token is taken from the
// session on every request; Register and Login update it.
type API struct {
	baseURL string
	http    *http.Client
	session *Session
}

// NewAPI returns an API rooted at baseURL, e.g. http://localhost:3001.
// A nil httpClient gets a 10 second timeout.
func NewAPI(baseURL string, session *Session, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		session: session,
	}
}

func (a *API) Session() *Session {
	return a.session
}

func (a *API) Register(ctx context.Context, in users.RegisterInput) (users.User, error) {
	var res users.AuthResult
	if err := a.do(ctx, http.MethodPost, "/api/auth/register", in, &res); err != nil {
		return users.User{}, err
	}
	a.session.set(res)
	return res.User, nil
}

func (a *API) Login(ctx context.Context, in users.LoginInput) (users.User, error) {
	var res users.AuthResult
	if err := a.do(ctx, http.MethodPost, "/api/auth/login", in, &res); err != nil {
		return users.User{}, err
	}
	a.session.set(res)
	return res.User, nil
}

func (a *API) Me(ctx context.Context) (users.User, error) {
	if a.session.Token == "" {
		return users.User{}, ErrNotLoggedIn
	}

	var res struct {
		User users.User `json:"user"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/auth/me", nil, &res); err != nil {
		return users.User{}, err
	}
	return res.User, nil
}

func (a *API) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.session.Token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response (HTTP %d): %w", resp.StatusCode, err)
	}

	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
