// Package storage persists users, session tokens, and ledger entries.
package storage

import (
	"context"

	"daftar/internal/core"
)

// Store is the persistence boundary used by the services layer.
type Store interface {
	// CreateUser inserts a new user. A duplicate email maps to
	// core.ErrDuplicateEmail.
	CreateUser(ctx context.Context, user *core.User) error
	// GetUserByID loads a user without tokens. Missing users map to
	// core.ErrNotFound.
	GetUserByID(ctx context.Context, id string) (*core.User, error)
	// GetUserByEmail loads a user by exact email match.
	GetUserByEmail(ctx context.Context, email string) (*core.User, error)

	// AddToken appends a session token row to the user.
	AddToken(ctx context.Context, userID, token string) error
	// RemoveToken deletes the matching token row. Removing an absent
	// token is not an error.
	RemoveToken(ctx context.Context, userID, token string) error
	// HasToken reports whether the exact token string is live for the user.
	HasToken(ctx context.Context, userID, token string) (bool, error)

	// AppendEntry adds an entry to the end of the given ledger.
	AppendEntry(ctx context.Context, userID string, ledger core.Ledger, entry *core.LedgerEntry) error
	// ListEntries returns the ledger in append order.
	ListEntries(ctx context.Context, userID string, ledger core.Ledger) ([]core.LedgerEntry, error)
	// GetEntry loads a single entry by id.
	GetEntry(ctx context.Context, userID string, ledger core.Ledger, entryID string) (*core.LedgerEntry, error)
	// DeleteEntry removes an entry by id. Deleting an absent entry leaves
	// the ledger unchanged and is not an error.
	DeleteEntry(ctx context.Context, userID string, ledger core.Ledger, entryID string) error
	// UpdateEntry re-writes info, amount, and date of an existing entry.
	// A missing entry maps to core.ErrNotFound.
	UpdateEntry(ctx context.Context, userID string, ledger core.Ledger, entry *core.LedgerEntry) error

	Close() error
}
