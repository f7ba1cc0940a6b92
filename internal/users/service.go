package users

import (
	"context"
	"errors"

	"github.com/Tyrowin/bubingachat/internal/apperr"
	"github.com/Tyrowin/bubingachat/internal/auth"
	"github.com/Tyrowin/bubingachat/internal/logging"
)

// MsgInvalidCredentials is the single message for both unknown email and
// wrong password.
const MsgInvalidCredentials = "Invalid email or password"

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Service registers users, logs them in and resolves the caller of a
// verified token.
type Service struct {
	store  Store
	hasher auth.Hasher
	tokens auth.TokenIssuer
	logger logging.Logger
}

func NewService(store Store, hasher auth.Hasher, tokens auth.TokenIssuer, logger logging.Logger) *Service {
	return &Service{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
}

// Register validates in, rejects a taken email or username, then hashes,
// stores and signs. Exactly one store write happens.
func (s *Service) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	if err := in.Validate(); err != nil {
		return AuthResult{}, err
	}

	_, err := s.store.FindByEmailOrUsername(ctx, in.Email, in.Username)
	switch {
	case err == nil:
		return AuthResult{}, apperr.Conflict("Email or username already in use")
	case !errors.Is(err, ErrNotFound):
		return AuthResult{}, apperr.Wrap(apperr.KindInternal, "Internal server error", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return AuthResult{}, apperr.Validation(`"password" length must be at most 72 bytes`)
		}
		return AuthResult{}, apperr.Wrap(apperr.KindInternal, "Internal server error", err)
	}

	user, err := s.store.CreateUser(ctx, NewUser{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return AuthResult{}, apperr.Conflict("Email or username already in use")
		}
		return AuthResult{}, apperr.Wrap(apperr.KindInternal, "Internal server error", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return AuthResult{}, apperr.Wrap(apperr.KindInternal, "Internal server error", err)
	}

	s.logger.Info(ctx, "user registered", "user", user)

	return AuthResult{User: user, Token: token}, nil
}

// Login never reveals whether the email exists.
func (s *Service) Login(ctx context.Context, in LoginInput) (AuthResult, error) {
	if err := in.Validate(); err != nil {
		return AuthResult{}, err
	}

	user, err := s.store.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return AuthResult{}, apperr.Unauthorized(MsgInvalidCredentials)
		}
		return AuthResult{}, apperr.Wrap(apperr.KindInternal, "Internal server error", err)
	}

	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		s.logger.Debug(ctx, "login rejected", "user_id", user.ID)
		return AuthResult{}, apperr.Unauthorized(MsgInvalidCredentials)
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return AuthResult{}, apperr.Wrap(apperr.KindInternal, "Internal server error", err)
	}

	return AuthResult{User: user, Token: token}, nil
}

func (s *Service) GetMe(ctx context.Context, userID string) (User, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, apperr.NotFound("User")
		}
		return User{}, apperr.Wrap(apperr.KindInternal, "Internal server error", err)
	}
	return user, nil
}
