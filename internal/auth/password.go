// Package auth covers credential hashing and session token handling.
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"daftar/internal/core"
)

// HashPassword derives a bcrypt digest with a per-call random salt. The same
// password hashes to a different digest on every call.
func HashPassword(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// CheckPassword verifies a plaintext password against a stored digest.
// All mismatches collapse into ErrAuthenticationFailed so callers cannot
// distinguish a wrong password from a malformed digest.
func CheckPassword(password, digest string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)); err != nil {
		return core.ErrAuthenticationFailed
	}
	return nil
}
