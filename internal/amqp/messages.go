package amqp

import (
	"encoding/json"
	"time"

	"daftar/internal/core"
)

// EntryExportMessage asks the worker to export one ledger entry. It carries
// ids only; the worker loads the full entry from storage so the queue never
// holds stale field values.
type EntryExportMessage struct {
	UserID    string      `json:"user_id"`
	EntryID   string      `json:"entry_id"`
	Ledger    core.Ledger `json:"ledger"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEntryExportMessage creates an export message stamped with now.
func NewEntryExportMessage(userID, entryID string, ledger core.Ledger) *EntryExportMessage {
	return &EntryExportMessage{
		UserID:    userID,
		EntryID:   entryID,
		Ledger:    ledger,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *EntryExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EntryExportMessageFromJSON parses a message from JSON bytes.
func EntryExportMessageFromJSON(data []byte) (*EntryExportMessage, error) {
	var msg EntryExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
