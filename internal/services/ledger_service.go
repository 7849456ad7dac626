package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"daftar/internal/amqp"
	"daftar/internal/core"
	"daftar/internal/storage"
)

// LedgerService runs the bookkeeping operations for both ledgers. The same
// code path serves payments and receipts; the ledger kind is a parameter.
type LedgerService struct {
	store      storage.Store
	amqpClient *amqp.Client
	clock      core.Clock
}

// NewLedgerService wires the service. amqpClient may be nil; export events
// are then skipped.
func NewLedgerService(store storage.Store, amqpClient *amqp.Client, clock core.Clock) *LedgerService {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &LedgerService{store: store, amqpClient: amqpClient, clock: clock}
}

// Append validates and records a new entry dated today (Persian calendar).
func (s *LedgerService) Append(ctx context.Context, userID string, ledger core.Ledger, info string, amount float64) (*core.LedgerEntry, error) {
	entry := &core.LedgerEntry{
		Info:   info,
		Amount: amount,
		Date:   core.TodayJalali(s.clock).String(),
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.AppendEntry(ctx, userID, ledger, entry); err != nil {
		return nil, err
	}

	s.publishExport(ctx, userID, entry.ID, ledger)

	slog.InfoContext(ctx, "Ledger entry appended",
		"user_id", userID,
		"ledger", ledger,
		"entry_id", entry.ID,
		"amount", entry.Amount)
	return entry, nil
}

// List returns the full ledger in append order.
func (s *LedgerService) List(ctx context.Context, userID string, ledger core.Ledger) ([]core.LedgerEntry, error) {
	return s.store.ListEntries(ctx, userID, ledger)
}

// Remove deletes an entry by id and returns the remaining ledger. An absent
// id leaves the ledger unchanged and still succeeds.
func (s *LedgerService) Remove(ctx context.Context, userID string, ledger core.Ledger, entryID string) ([]core.LedgerEntry, error) {
	if err := s.store.DeleteEntry(ctx, userID, ledger, entryID); err != nil {
		return nil, err
	}
	return s.store.ListEntries(ctx, userID, ledger)
}

// Update re-writes an entry's info, amount, and date as given. Fields are
// deliberately not re-validated here; the write path matches what the
// caller sent.
func (s *LedgerService) Update(ctx context.Context, userID string, ledger core.Ledger, entry *core.LedgerEntry) error {
	if err := s.store.UpdateEntry(ctx, userID, ledger, entry); err != nil {
		return err
	}
	s.publishExport(ctx, userID, entry.ID, ledger)
	slog.InfoContext(ctx, "Ledger entry updated",
		"user_id", userID,
		"ledger", ledger,
		"entry_id", entry.ID)
	return nil
}

// SumCurrentMonth totals the entries whose date falls in the current
// Persian month. Any unparsable stored date fails the whole request.
func (s *LedgerService) SumCurrentMonth(ctx context.Context, userID string, ledger core.Ledger) (float64, error) {
	entries, err := s.store.ListEntries(ctx, userID, ledger)
	if err != nil {
		return 0, err
	}

	today := core.TodayJalali(s.clock)
	var sum float64
	for _, e := range entries {
		d, err := core.ParseJalali(e.Date)
		if err != nil {
			return 0, fmt.Errorf("%w: entry %s: %v", core.ErrValidation, e.ID, err)
		}
		if d.SameMonth(today) {
			sum += e.Amount
		}
	}
	return sum, nil
}

// ListByDate returns entries whose stored date equals the requested one.
// The route carries dates dash-separated; only the separator is rewritten
// before the exact string comparison.
func (s *LedgerService) ListByDate(ctx context.Context, userID string, ledger core.Ledger, dashedDate string) ([]core.LedgerEntry, error) {
	date := strings.ReplaceAll(dashedDate, "-", "/")

	entries, err := s.store.ListEntries(ctx, userID, ledger)
	if err != nil {
		return nil, err
	}

	matched := []core.LedgerEntry{}
	for _, e := range entries {
		if e.Date == date {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

func (s *LedgerService) publishExport(ctx context.Context, userID, entryID string, ledger core.Ledger) {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping export message")
		return
	}
	// Export is best effort; the entry is already durable in SQLite.
	if err := s.amqpClient.PublishEntryExport(ctx, userID, entryID, ledger); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export message",
			"user_id", userID,
			"entry_id", entryID,
			"error", err)
	}
}
