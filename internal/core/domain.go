package core

import (
	"fmt"
	"net/mail"
	"strings"
)

// Ledger identifies one of the two bookkeeping ledgers a user owns.
type Ledger string

const (
	LedgerPayment Ledger = "payment"
	LedgerReceive Ledger = "receive"
)

// Ledgers lists all known ledger kinds in route order.
var Ledgers = []Ledger{LedgerPayment, LedgerReceive}

// Valid reports whether l is a known ledger kind.
func (l Ledger) Valid() bool {
	return l == LedgerPayment || l == LedgerReceive
}

// AccessAuth is the only access tag issued for session tokens.
const AccessAuth = "auth"

// Token is one live session credential for a user. A user holds one row per
// logged-in device; removing a row revokes that device only.
type Token struct {
	Access string `json:"access"`
	Token  string `json:"token"`
}

// User is an account holder. PasswordDigest and Tokens never leave the
// process boundary in JSON form.
type User struct {
	ID             string  `json:"id"`
	FullName       string  `json:"fullName"`
	Email          string  `json:"email"`
	PasswordDigest string  `json:"-"`
	Tokens         []Token `json:"-"`
}

const (
	minFullNameLen = 3
	minEmailLen    = 6
	minPasswordLen = 6
)

// NormalizeRegistration trims the identity fields in place.
func (u *User) NormalizeRegistration() {
	u.FullName = strings.TrimSpace(u.FullName)
	u.Email = strings.TrimSpace(u.Email)
}

// ValidateRegistration checks the identity fields after normalization.
func (u *User) ValidateRegistration() error {
	if len(u.FullName) < minFullNameLen {
		return fmt.Errorf("%w: full name must be at least %d characters", ErrValidation, minFullNameLen)
	}
	if len(u.Email) < minEmailLen {
		return fmt.Errorf("%w: email must be at least %d characters", ErrValidation, minEmailLen)
	}
	if !isEmail(u.Email) {
		return fmt.Errorf("%w: email is not valid", ErrValidation)
	}
	return nil
}

// ValidatePassword checks a plaintext password before it is hashed.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}
	return nil
}

func isEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	// Reject the display-name form ("Name <a@b>") and require a dotted
	// domain so the predicate matches the usual "local@domain.tld" shape.
	return addr.Address == s && strings.Contains(strings.SplitN(s, "@", 2)[1], ".")
}

// LedgerEntry is a single row in one of a user's ledgers. Date is kept as
// the Persian-calendar string it was written with.
type LedgerEntry struct {
	ID     string  `json:"id"`
	Info   string  `json:"info"`
	Amount float64 `json:"amount"`
	Date   string  `json:"date"`
}

// Validate checks the entry at creation time. Updates re-write fields
// without passing through here.
func (e *LedgerEntry) Validate() error {
	if strings.TrimSpace(e.Info) == "" {
		return fmt.Errorf("%w: info must not be empty", ErrValidation)
	}
	if e.Amount < 1 {
		return fmt.Errorf("%w: amount must be at least 1", ErrValidation)
	}
	return nil
}
