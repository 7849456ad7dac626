package http

import (
	"fmt"
	"net/http"
	"strconv"

	"daftar/internal/core"
)

type appendRequest struct {
	Info   string  `json:"info"`
	Amount float64 `json:"amount"`
}

type updateRequest struct {
	ID     string  `json:"id"`
	Info   string  `json:"info"`
	Amount float64 `json:"amount"`
	Date   string  `json:"date"`
}

// handleAppend records a new entry dated today.
func (s *Server) handleAppend(ledger core.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req appendRequest
		if err := decodeBody(r, &req); err != nil {
			writeServiceError(w, err)
			return
		}

		user := currentUser(r.Context())
		if _, err := s.ledgers.Append(r.Context(), user.ID, ledger, req.Info, req.Amount); err != nil {
			writeServiceError(w, err)
			return
		}
		writeMessage(w, fmt.Sprintf("%s saved", ledger))
	}
}

// handleList returns the whole ledger in append order.
func (s *Server) handleList(ledger core.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r.Context())
		entries, err := s.ledgers.List(r.Context(), user.ID, ledger)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

// handleRemove deletes by id and answers with the remaining entries.
// Removing an id that is not there succeeds with the ledger unchanged.
func (s *Server) handleRemove(ledger core.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r.Context())
		remaining, err := s.ledgers.Remove(r.Context(), user.ID, ledger, r.PathValue("id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, remaining)
	}
}

// handleUpdate re-writes an entry's fields exactly as sent.
func (s *Server) handleUpdate(ledger core.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateRequest
		if err := decodeBody(r, &req); err != nil {
			writeServiceError(w, err)
			return
		}

		user := currentUser(r.Context())
		entry := &core.LedgerEntry{ID: req.ID, Info: req.Info, Amount: req.Amount, Date: req.Date}
		if err := s.ledgers.Update(r.Context(), user.ID, ledger, entry); err != nil {
			writeServiceError(w, err)
			return
		}
		writeMessage(w, fmt.Sprintf("%s updated", ledger))
	}
}

// handleSum totals the current Persian month. The amount is serialized as
// a string so clients receive exactly what the original service sent.
func (s *Server) handleSum(ledger core.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r.Context())
		sum, err := s.ledgers.SumCurrentMonth(r.Context(), user.ID, ledger)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sumBody{Sum: strconv.FormatFloat(sum, 'f', -1, 64)})
	}
}

// handleListByDate filters by an exact date. The path carries dashes in
// place of slashes; only the separator is rewritten before matching.
func (s *Server) handleListByDate(ledger core.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r.Context())
		entries, err := s.ledgers.ListByDate(r.Context(), user.ID, ledger, r.PathValue("date"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}
