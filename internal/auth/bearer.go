package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// ErrMissingToken means the request carried no usable bearer credential.
var ErrMissingToken = errors.New("missing bearer token")

const bearerPrefix = "Bearer "

// BearerToken returns the value after the "Bearer " prefix of the
// Authorization header.
func BearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, bearerPrefix) {
		return "", ErrMissingToken
	}

	token := strings.TrimSpace(h[len(bearerPrefix):])
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

type identityKey struct{}

// WithIdentity attaches a verified identity to ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity attached by WithIdentity.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
