// Package badgerstore is a document-style users.Store on an embedded Badger
// database. Each user is one JSON document keyed by id, with index keys for
// email and username pointing back at the id.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/Tyrowin/bubingachat/internal/users"
)

const (
	idPrefix       = "user:id:"
	emailPrefix    = "user:email:"
	usernamePrefix = "user:username:"

	maxConflictRetries = 3
)

type record struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

type Store struct {
	db  *badger.DB
	now func() time.Time
}

func New(db *badger.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Open opens (or creates) the Badger directory at path.
func Open(path string, debug bool) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	if debug {
		opts = opts.WithLoggingLevel(badger.DEBUG)
	} else {
		opts = opts.WithLoggingLevel(badger.ERROR)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger open %s: %w", path, err)
	}
	return db, nil
}

// CreateUser writes the document and both index keys in one transaction.
// Concurrent writers to the same keys surface as badger.ErrConflict, which
// is retried so the loser sees the winner's index key.
func (s *Store) CreateUser(ctx context.Context, nu users.NewUser) (users.User, error) {
	rec := record{
		ID:           uuid.NewString(),
		Username:     nu.Username,
		Email:        nu.Email,
		PasswordHash: nu.PasswordHash,
		CreatedAt:    s.now().UTC(),
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return users.User{}, fmt.Errorf("marshal failed: %w", err)
	}

	for attempt := 0; ; attempt++ {
		err = s.db.Update(func(txn *badger.Txn) error {
			for _, key := range []string{emailPrefix + rec.Email, usernamePrefix + rec.Username} {
				_, err := txn.Get([]byte(key))
				if err == nil {
					return users.ErrDuplicate
				}
				if !errors.Is(err, badger.ErrKeyNotFound) {
					return err
				}
			}

			if err := txn.Set([]byte(idPrefix+rec.ID), data); err != nil {
				return err
			}
			if err := txn.Set([]byte(emailPrefix+rec.Email), []byte(rec.ID)); err != nil {
				return err
			}
			return txn.Set([]byte(usernamePrefix+rec.Username), []byte(rec.ID))
		})

		if !errors.Is(err, badger.ErrConflict) || attempt >= maxConflictRetries {
			break
		}
		if ctx.Err() != nil {
			return users.User{}, ctx.Err()
		}
	}

	if err != nil {
		if errors.Is(err, users.ErrDuplicate) {
			return users.User{}, err
		}
		return users.User{}, fmt.Errorf("badger create user: %w", err)
	}

	return rec.toUser(), nil
}

func (s *Store) FindByEmail(_ context.Context, email string) (users.User, error) {
	return s.findByIndex(emailPrefix + email)
}

func (s *Store) FindByID(_ context.Context, id string) (users.User, error) {
	var rec record
	err := s.db.View(func(txn *badger.Txn) error {
		return getRecord(txn, id, &rec)
	})
	if err != nil {
		return users.User{}, mapErr(err)
	}
	return rec.toUser(), nil
}

func (s *Store) FindByEmailOrUsername(_ context.Context, email, username string) (users.User, error) {
	u, err := s.findByIndex(emailPrefix + email)
	if !errors.Is(err, users.ErrNotFound) {
		return u, err
	}
	return s.findByIndex(usernamePrefix + username)
}

func (s *Store) findByIndex(indexKey string) (users.User, error) {
	var rec record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(indexKey))
		if err != nil {
			return err
		}

		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return getRecord(txn, string(id), &rec)
	})
	if err != nil {
		return users.User{}, mapErr(err)
	}
	return rec.toUser(), nil
}

func getRecord(txn *badger.Txn, id string, rec *record) error {
	item, err := txn.Get([]byte(idPrefix + id))
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, rec)
	})
}

func mapErr(err error) error {
	if errors.Is(err, badger.ErrKeyNotFound) {
		return users.ErrNotFound
	}
	return fmt.Errorf("badger read: %w", err)
}

func (r record) toUser() users.User {
	return users.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}
