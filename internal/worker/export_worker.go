// Package worker moves ledger entries from storage to the export target.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"daftar/internal/amqp"
	"daftar/internal/core"
	"daftar/internal/sheets"
	"daftar/internal/storage"
)

// ExportWorker consumes export messages and appends the referenced entries
// to the configured sheet.
type ExportWorker struct {
	store  storage.Store
	writer sheets.EntryWriter
}

func NewExportWorker(store storage.Store, writer sheets.EntryWriter) *ExportWorker {
	return &ExportWorker{store: store, writer: writer}
}

// HandleExportMessage loads the referenced entry and appends it to the
// export target. Entries deleted between publish and consume are skipped,
// not retried.
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.EntryExportMessage) error {
	user, err := w.store.GetUserByID(ctx, msg.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "Export skipped, user gone",
				"user_id", msg.UserID,
				"entry_id", msg.EntryID)
			return nil
		}
		return fmt.Errorf("load user: %w", err)
	}

	entry, err := w.store.GetEntry(ctx, msg.UserID, msg.Ledger, msg.EntryID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "Export skipped, entry gone",
				"user_id", msg.UserID,
				"entry_id", msg.EntryID,
				"ledger", msg.Ledger)
			return nil
		}
		return fmt.Errorf("load entry: %w", err)
	}

	ref, err := w.writer.AppendEntry(ctx, user.Email, msg.Ledger, *entry)
	if err != nil {
		return fmt.Errorf("append entry to export target: %w", err)
	}

	slog.InfoContext(ctx, "Exported ledger entry",
		"user_id", msg.UserID,
		"entry_id", msg.EntryID,
		"ledger", msg.Ledger,
		"row_ref", ref)
	return nil
}
