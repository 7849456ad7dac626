package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"daftar/internal/core"
)

var _ Store = (*SQLiteRepository)(nil)

// SQLiteRepository implements Store on a single SQLite database file.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if necessary) the database at dbPath
// and brings the schema up to date.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// CreateUser inserts the user, assigning an id when none is set.
func (r *SQLiteRepository) CreateUser(ctx context.Context, user *core.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users (id, full_name, email, password_digest, created_at) VALUES (?, ?, ?, ?, ?)",
		user.ID, user.FullName, user.Email, user.PasswordDigest, time.Now().Unix(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", core.ErrDuplicateEmail, user.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	return r.getUser(ctx, "id", id)
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	return r.getUser(ctx, "email", email)
}

func (r *SQLiteRepository) getUser(ctx context.Context, column, value string) (*core.User, error) {
	user := &core.User{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, full_name, email, password_digest FROM users WHERE "+column+" = ?",
		value,
	).Scan(&user.ID, &user.FullName, &user.Email, &user.PasswordDigest)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by %s: %w", column, err)
	}
	return user, nil
}

func (r *SQLiteRepository) AddToken(ctx context.Context, userID, token string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO tokens (user_id, access, token) VALUES (?, ?, ?)",
		userID, core.AccessAuth, token,
	)
	if err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) RemoveToken(ctx context.Context, userID, token string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM tokens WHERE user_id = ? AND token = ?",
		userID, token,
	)
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) HasToken(ctx context.Context, userID, token string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM tokens WHERE user_id = ? AND token = ?",
		userID, token,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup token: %w", err)
	}
	return true, nil
}

// userExists backs the ErrNotFound contract of the ledger operations.
func (r *SQLiteRepository) userExists(ctx context.Context, userID string) error {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id = ?", userID).Scan(&one)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: user", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	return nil
}

// AppendEntry inserts at the tail of the ledger. The position subselect
// keeps ordering stable without a separate counter table.
func (r *SQLiteRepository) AppendEntry(ctx context.Context, userID string, ledger core.Ledger, entry *core.LedgerEntry) error {
	if err := r.userExists(ctx, userID); err != nil {
		return err
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO entries (id, user_id, ledger, info, amount, date, position)
		 VALUES (?, ?, ?, ?, ?, ?,
		   (SELECT COALESCE(MAX(position), 0) + 1 FROM entries WHERE user_id = ? AND ledger = ?))`,
		entry.ID, userID, string(ledger), entry.Info, entry.Amount, entry.Date,
		userID, string(ledger),
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListEntries(ctx context.Context, userID string, ledger core.Ledger) ([]core.LedgerEntry, error) {
	if err := r.userExists(ctx, userID); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, info, amount, date FROM entries WHERE user_id = ? AND ledger = ? ORDER BY position",
		userID, string(ledger),
	)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	entries := []core.LedgerEntry{}
	for rows.Next() {
		var e core.LedgerEntry
		if err := rows.Scan(&e.ID, &e.Info, &e.Amount, &e.Date); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

func (r *SQLiteRepository) GetEntry(ctx context.Context, userID string, ledger core.Ledger, entryID string) (*core.LedgerEntry, error) {
	entry := &core.LedgerEntry{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, info, amount, date FROM entries WHERE id = ? AND user_id = ? AND ledger = ?",
		entryID, userID, string(ledger),
	).Scan(&entry.ID, &entry.Info, &entry.Amount, &entry.Date)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: entry %s", core.ErrNotFound, entryID)
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return entry, nil
}

func (r *SQLiteRepository) DeleteEntry(ctx context.Context, userID string, ledger core.Ledger, entryID string) error {
	if err := r.userExists(ctx, userID); err != nil {
		return err
	}

	// Absent ids fall through silently: the ledger is simply unchanged.
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM entries WHERE id = ? AND user_id = ? AND ledger = ?",
		entryID, userID, string(ledger),
	)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateEntry(ctx context.Context, userID string, ledger core.Ledger, entry *core.LedgerEntry) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE entries SET info = ?, amount = ?, date = ? WHERE id = ? AND user_id = ? AND ledger = ?",
		entry.Info, entry.Amount, entry.Date, entry.ID, userID, string(ledger),
	)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update entry rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: entry %s", core.ErrNotFound, entry.ID)
	}
	return nil
}
