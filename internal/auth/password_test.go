package auth

import (
	"errors"
	"testing"

	"daftar/internal/core"
)

func TestHashAndCheckPassword(t *testing.T) {
	digest, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if digest == "s3cret-pass" {
		t.Fatal("digest must not equal plaintext")
	}
	if err := CheckPassword("s3cret-pass", digest); err != nil {
		t.Errorf("correct password rejected: %v", err)
	}
	if err := CheckPassword("wrong-pass", digest); !errors.Is(err, core.ErrAuthenticationFailed) {
		t.Errorf("wrong password: got %v, want ErrAuthenticationFailed", err)
	}
}

func TestHashPasswordSaltsPerCall(t *testing.T) {
	first, err := HashPassword("same-input")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	second, err := HashPassword("same-input")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if first == second {
		t.Error("two digests of the same password should differ")
	}
}

func TestCheckPasswordMalformedDigest(t *testing.T) {
	if err := CheckPassword("anything", "not-a-bcrypt-digest"); !errors.Is(err, core.ErrAuthenticationFailed) {
		t.Errorf("malformed digest: got %v, want ErrAuthenticationFailed", err)
	}
}
