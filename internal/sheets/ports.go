// Package sheets defines the outbound ports for ledger export targets.
package sheets

import (
	"context"

	"daftar/internal/core"
)

// EntryWriter appends one ledger entry to an export target, returning an
// opaque row reference.
type EntryWriter interface {
	AppendEntry(ctx context.Context, owner string, ledger core.Ledger, entry core.LedgerEntry) (rowRef string, err error)
}
