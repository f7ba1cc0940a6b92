// Package storetest is the conformance suite every users.Store passes.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/bubingachat/internal/users"
)

// Factory returns an empty store. Cleanup belongs on t.
type Factory func(t *testing.T) users.Store

func alice() users.NewUser {
	return users.NewUser{Username: "alice", Email: "a@example.com", PasswordHash: "$2a$10$hash"}
}

// Run exercises the users.Store contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("create assigns id and created_at", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		u, err := s.CreateUser(ctx, alice())
		require.NoError(t, err)

		assert.NotEmpty(t, u.ID)
		assert.False(t, u.CreatedAt.IsZero())
		assert.Equal(t, "alice", u.Username)
		assert.Equal(t, "a@example.com", u.Email)
		assert.Equal(t, "$2a$10$hash", u.PasswordHash)
	})

	t.Run("find by email and id", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		created, err := s.CreateUser(ctx, alice())
		require.NoError(t, err)

		byEmail, err := s.FindByEmail(ctx, "a@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byEmail.ID)
		assert.Equal(t, created.PasswordHash, byEmail.PasswordHash)

		byID, err := s.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", byID.Username)
		assert.True(t, created.CreatedAt.Equal(byID.CreatedAt), "created_at must round-trip")
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.CreateUser(ctx, alice())
		require.NoError(t, err)

		dup := alice()
		dup.Username = "alice2"
		_, err = s.CreateUser(ctx, dup)
		assert.ErrorIs(t, err, users.ErrDuplicate)
	})

	t.Run("duplicate username rejected", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.CreateUser(ctx, alice())
		require.NoError(t, err)

		dup := alice()
		dup.Email = "other@example.com"
		_, err = s.CreateUser(ctx, dup)
		assert.ErrorIs(t, err, users.ErrDuplicate)

		// The rejected record must not be reachable.
		_, err = s.FindByEmail(ctx, "other@example.com")
		assert.ErrorIs(t, err, users.ErrNotFound)
	})

	t.Run("find by email or username", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		created, err := s.CreateUser(ctx, alice())
		require.NoError(t, err)

		u, err := s.FindByEmailOrUsername(ctx, "a@example.com", "nobody")
		require.NoError(t, err)
		assert.Equal(t, created.ID, u.ID)

		u, err = s.FindByEmailOrUsername(ctx, "nobody@example.com", "alice")
		require.NoError(t, err)
		assert.Equal(t, created.ID, u.ID)

		_, err = s.FindByEmailOrUsername(ctx, "nobody@example.com", "nobody")
		assert.ErrorIs(t, err, users.ErrNotFound)
	})

	t.Run("not found", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.FindByEmail(ctx, "missing@example.com")
		assert.ErrorIs(t, err, users.ErrNotFound)

		_, err = s.FindByID(ctx, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, users.ErrNotFound)
	})
}
