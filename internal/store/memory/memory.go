// Package memory is an in-process users.Store, used by default and in tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Tyrowin/bubingachat/internal/users"
)

type Store struct {
	mu         sync.RWMutex
	byID       map[string]users.User
	byEmail    map[string]string
	byUsername map[string]string
	now        func() time.Time
}

func New() *Store {
	return &Store{
		byID:       make(map[string]users.User),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
		now:        time.Now,
	}
}

func (s *Store) CreateUser(_ context.Context, nu users.NewUser) (users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[nu.Email]; ok {
		return users.User{}, users.ErrDuplicate
	}
	if _, ok := s.byUsername[nu.Username]; ok {
		return users.User{}, users.ErrDuplicate
	}

	u := users.User{
		ID:           uuid.NewString(),
		Username:     nu.Username,
		Email:        nu.Email,
		PasswordHash: nu.PasswordHash,
		CreatedAt:    s.now().UTC(),
	}
	s.byID[u.ID] = u
	s.byEmail[u.Email] = u.ID
	s.byUsername[u.Username] = u.ID

	return u, nil
}

func (s *Store) FindByEmail(_ context.Context, email string) (users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return s.byID[id], nil
}

func (s *Store) FindByID(_ context.Context, id string) (users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (s *Store) FindByEmailOrUsername(_ context.Context, email, username string) (users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.byEmail[email]; ok {
		return s.byID[id], nil
	}
	if id, ok := s.byUsername[username]; ok {
		return s.byID[id], nil
	}
	return users.User{}, users.ErrNotFound
}

// Len reports the number of stored users.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
