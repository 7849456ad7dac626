package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"daftar/internal/auth"
	"daftar/internal/core"
	"daftar/internal/storage"
)

func newUserService(t *testing.T) *UserService {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "daftar.db"))
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return NewUserService(repo, auth.NewCodec("test-secret"))
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, " Sara Ahmadi ", " sara@example.com ", "s3cret-pass")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.FullName != "Sara Ahmadi" || user.Email != "sara@example.com" {
		t.Errorf("registered user = %+v, want trimmed fields", user)
	}
	if user.PasswordDigest == "s3cret-pass" || user.PasswordDigest == "" {
		t.Error("password must be stored as a digest")
	}

	loggedIn, token, err := svc.Login(ctx, "sara@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Errorf("login returned user %q, want %q", loggedIn.ID, user.ID)
	}
	if token == "" {
		t.Fatal("login should issue a token")
	}

	authed, err := svc.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if authed.ID != user.ID {
		t.Errorf("authenticate returned user %q, want %q", authed.ID, user.ID)
	}
}

func TestRegisterRejectsBadInput(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		fullName string
		email    string
		password string
	}{
		{name: "short name", fullName: "Al", email: "al@example.com", password: "s3cret-pass"},
		{name: "bad email", fullName: "Sara Ahmadi", email: "not-an-email", password: "s3cret-pass"},
		{name: "short password", fullName: "Sara Ahmadi", email: "sara@example.com", password: "short"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.fullName, tt.email, tt.password)
			if !errors.Is(err, core.ErrValidation) {
				t.Errorf("got %v, want ErrValidation", err)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Sara Ahmadi", "sara@example.com", "s3cret-pass"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(ctx, "Sara Again", "sara@example.com", "other-pass")
	if !errors.Is(err, core.ErrDuplicateEmail) {
		t.Errorf("got %v, want ErrDuplicateEmail", err)
	}
}

func TestLoginFailsUniformly(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Sara Ahmadi", "sara@example.com", "s3cret-pass"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, _, unknownErr := svc.Login(ctx, "nobody@example.com", "s3cret-pass")
	_, _, wrongErr := svc.Login(ctx, "sara@example.com", "wrong-pass")

	for name, err := range map[string]error{"unknown email": unknownErr, "wrong password": wrongErr} {
		if !errors.Is(err, core.ErrAuthenticationFailed) {
			t.Errorf("%s: got %v, want ErrAuthenticationFailed", name, err)
		}
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Errorf("failure messages differ: %q vs %q", unknownErr, wrongErr)
	}
}

func TestLogoutRevokesOnlyPresentedToken(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Sara Ahmadi", "sara@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	_, phone, err := svc.Login(ctx, "sara@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("login phone: %v", err)
	}
	_, laptop, err := svc.Login(ctx, "sara@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("login laptop: %v", err)
	}

	if err := svc.Logout(ctx, user.ID, phone); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, err := svc.Authenticate(ctx, phone); !errors.Is(err, core.ErrUnauthenticated) {
		t.Errorf("revoked token: got %v, want ErrUnauthenticated", err)
	}
	if _, err := svc.Authenticate(ctx, laptop); err != nil {
		t.Errorf("other device token should stay live: %v", err)
	}
}

func TestAuthenticateRejectsForgedToken(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Sara Ahmadi", "sara@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	// Signed with the right secret but never stored for the user, so the
	// revocation check must reject it.
	forged, err := auth.NewCodec("test-secret").Issue(user.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.Authenticate(ctx, forged); !errors.Is(err, core.ErrUnauthenticated) {
		t.Errorf("unstored token: got %v, want ErrUnauthenticated", err)
	}

	// Signed with a different secret entirely.
	alien, err := auth.NewCodec("other-secret").Issue(user.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.Authenticate(ctx, alien); !errors.Is(err, core.ErrUnauthenticated) {
		t.Errorf("wrong-secret token: got %v, want ErrUnauthenticated", err)
	}
}
