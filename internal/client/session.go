// Package client is the terminal client's view of the chat server: a
// persisted session, the REST API and the realtime room connection.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Tyrowin/bubingachat/internal/users"
)

// Session is the signed-in state passed to every API call. It lives in
// memory and is persisted only through Load and Save.
type Session struct {
	Token string      `json:"token"`
	User  *users.User `json:"user,omitempty"`
}

// LoadSession reads the session file at path. A missing file yields an
// empty session.
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Session{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

// Save writes the session to path, readable by the owner only.
func (s *Session) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (s *Session) Clear() {
	s.Token = ""
	s.User = nil
}

func (s *Session) LoggedIn() bool {
	return s.Token != "" && s.User != nil
}

func (s *Session) set(res users.AuthResult) {
	user := res.User
	s.Token = res.Token
	s.User = &user
}
