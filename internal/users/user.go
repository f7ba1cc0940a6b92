// Package users owns the User entity, the credential store contract and the
// auth service that registers and logs users in.
package users

import (
	"log/slog"
	"time"
)

// User is a registered account. PasswordHash never leaves the process: it is
// skipped by JSON encoding and by structured logging.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u User) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", u.ID),
		slog.String("username", u.Username),
		slog.String("email", u.Email),
	)
}
