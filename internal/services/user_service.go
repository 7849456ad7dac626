// Package services holds the application logic between transport and storage.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"daftar/internal/auth"
	"daftar/internal/core"
	"daftar/internal/storage"
)

// UserService handles registration, login, and session revocation.
type UserService struct {
	store  storage.Store
	tokens *auth.Codec
}

func NewUserService(store storage.Store, tokens *auth.Codec) *UserService {
	return &UserService{store: store, tokens: tokens}
}

// Register validates and creates a new account. The password is hashed
// before anything touches storage.
func (s *UserService) Register(ctx context.Context, fullName, email, password string) (*core.User, error) {
	user := &core.User{FullName: fullName, Email: email}
	user.NormalizeRegistration()
	if err := user.ValidateRegistration(); err != nil {
		return nil, err
	}
	if err := core.ValidatePassword(password); err != nil {
		return nil, err
	}

	digest, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}
	user.PasswordDigest = digest

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "User registered", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials and issues a fresh session token. Unknown
// emails and wrong passwords fail identically so callers cannot probe for
// registered addresses.
func (s *UserService) Login(ctx context.Context, email, password string) (*core.User, string, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", core.ErrAuthenticationFailed
	}
	if err := auth.CheckPassword(password, user.PasswordDigest); err != nil {
		return nil, "", core.ErrAuthenticationFailed
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	if err := s.store.AddToken(ctx, user.ID, token); err != nil {
		return nil, "", fmt.Errorf("store token: %w", err)
	}

	slog.InfoContext(ctx, "User logged in", "user_id", user.ID)
	return user, token, nil
}

// Authenticate resolves a presented token to its user. A valid signature is
// not enough: the exact token string must still be live for that user, so a
// logged-out token stops working even though it would verify.
func (s *UserService) Authenticate(ctx context.Context, token string) (*core.User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUnauthenticated, err)
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown user", core.ErrUnauthenticated)
	}
	live, err := s.store.HasToken(ctx, userID, token)
	if err != nil {
		return nil, fmt.Errorf("check token: %w", err)
	}
	if !live {
		return nil, fmt.Errorf("%w: token revoked", core.ErrUnauthenticated)
	}
	return user, nil
}

// Logout revokes the presented token only; other devices stay logged in.
func (s *UserService) Logout(ctx context.Context, userID, token string) error {
	if err := s.store.RemoveToken(ctx, userID, token); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	slog.InfoContext(ctx, "User logged out", "user_id", userID)
	return nil
}
