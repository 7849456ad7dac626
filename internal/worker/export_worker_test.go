package worker

import (
	"context"
	"path/filepath"
	"testing"

	"daftar/internal/amqp"
	"daftar/internal/core"
	"daftar/internal/sheets/memory"
	"daftar/internal/storage"
)

func newExportFixture(t *testing.T) (*ExportWorker, *storage.SQLiteRepository, *memory.Store, string) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "daftar.db"))
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	user := &core.User{FullName: "Sara Ahmadi", Email: "sara@example.com", PasswordDigest: "x"}
	if err := repo.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	target := memory.New()
	return NewExportWorker(repo, target), repo, target, user.ID
}

func TestHandleExportMessage(t *testing.T) {
	w, repo, target, userID := newExportFixture(t)
	ctx := context.Background()

	entry := &core.LedgerEntry{Info: "rent", Amount: 1000, Date: "1402/5/08"}
	if err := repo.AppendEntry(ctx, userID, core.LedgerPayment, entry); err != nil {
		t.Fatalf("append entry: %v", err)
	}

	msg := amqp.NewEntryExportMessage(userID, entry.ID, core.LedgerPayment)
	if err := w.HandleExportMessage(ctx, msg); err != nil {
		t.Fatalf("handle message: %v", err)
	}

	rows := target.Rows()
	if len(rows) != 1 {
		t.Fatalf("got %d exported rows, want 1", len(rows))
	}
	if rows[0].Owner != "sara@example.com" || rows[0].Entry.Info != "rent" || rows[0].Ledger != core.LedgerPayment {
		t.Errorf("exported row = %+v", rows[0])
	}
}

func TestHandleExportMessageSkipsGoneEntry(t *testing.T) {
	w, _, target, userID := newExportFixture(t)
	ctx := context.Background()

	msg := amqp.NewEntryExportMessage(userID, "deleted-before-consume", core.LedgerPayment)
	if err := w.HandleExportMessage(ctx, msg); err != nil {
		t.Fatalf("gone entry should not requeue: %v", err)
	}
	if len(target.Rows()) != 0 {
		t.Error("nothing should be exported for a gone entry")
	}
}

func TestHandleExportMessageSkipsGoneUser(t *testing.T) {
	w, _, target, _ := newExportFixture(t)
	ctx := context.Background()

	msg := amqp.NewEntryExportMessage("gone-user", "some-entry", core.LedgerReceive)
	if err := w.HandleExportMessage(ctx, msg); err != nil {
		t.Fatalf("gone user should not requeue: %v", err)
	}
	if len(target.Rows()) != 0 {
		t.Error("nothing should be exported for a gone user")
	}
}
