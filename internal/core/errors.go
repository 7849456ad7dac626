package core

import "errors"

// Sentinel errors shared across services and transport. Handlers map these
// to HTTP status codes at the boundary.
var (
	ErrValidation           = errors.New("validation failed")
	ErrDuplicateEmail       = errors.New("email already registered")
	ErrAuthenticationFailed = errors.New("invalid email or password")
	ErrUnauthenticated      = errors.New("authentication required")
	ErrNotFound             = errors.New("not found")
)
