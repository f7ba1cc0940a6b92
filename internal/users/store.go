//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
package users

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("username or email already exists")
)

// NewUser is what a Store needs to create a record. The store assigns ID and
// CreatedAt.
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
}

// Store persists users and enforces uniqueness of email and username.
// Emails are expected already lowercased.
type Store interface {
	CreateUser(ctx context.Context, u NewUser) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	FindByEmailOrUsername(ctx context.Context, email, username string) (User, error)
}
