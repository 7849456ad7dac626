// Package memory is an in-process export target for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"daftar/internal/core"
)

type Row struct {
	Owner  string
	Ledger core.Ledger
	Entry  core.LedgerEntry
}

type Store struct {
	mu   sync.Mutex
	rows []Row
}

func New() *Store {
	return &Store{}
}

// AppendEntry stores the row and returns a synthetic reference.
func (s *Store) AppendEntry(_ context.Context, owner string, ledger core.Ledger, entry core.LedgerEntry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, Row{Owner: owner, Ledger: ledger, Entry: entry})
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Row, len(s.rows))
	copy(out, s.rows)
	return out
}
