package http

import (
	"fmt"
	"net/http"

	"farmstead/internal/core"
	"farmstead/internal/query"
)

// handleListTransactions returns transactions ordered newest-first.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.store.Transactions().List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs = query.Filter(txs, constraints(r, "farmId", "type", "category"))
	writeJSON(w, http.StatusOK, query.SortTransactions(txs))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := s.store.Transactions().Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var tx core.Transaction
	if err := decodeJSON(r, &tx); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.txs.Create(r.Context(), tx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateDerived()
	writeJSON(w, http.StatusCreated, created)
}

// handleUpsertTransaction stores a transaction under the id in the path,
// creating or replacing it. Mirror writes use it to keep source
// identifiers, so it goes straight to the store and publishes no change
// event.
func (s *Server) handleUpsertTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var tx core.Transaction
	if err := decodeJSON(r, &tx); err != nil {
		writeError(w, r, err)
		return
	}
	tx.ID = id
	stored, err := s.store.Transactions().Upsert(r.Context(), tx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateDerived()
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req transactionPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.txs.Update(r.Context(), id, req.toPatch())
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateDerived()
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.txs.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateDerived()
	w.WriteHeader(http.StatusNoContent)
}

// handleTransactionSummary aggregates income and expenses. With year and
// month parameters the window is that calendar month; otherwise all
// transactions count. An optional farmId scopes the aggregation.
func (s *Server) handleTransactionSummary(w http.ResponseWriter, r *http.Request) {
	farmID := parseFarmID(r)
	q := r.URL.Query()
	monthly := q.Get("year") != "" || q.Get("month") != ""

	cacheKey := fmt.Sprintf("summary:%d:%s:%s", farmID, q.Get("year"), q.Get("month"))
	if summary, ok := s.summaryCache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, summary)
		return
	}

	var (
		summary query.FinancialSummary
		err     error
	)
	if monthly {
		summary, err = s.txs.MonthlySummary(r.Context(), farmID, parseYearMonth(r, s.clock()))
	} else {
		summary, err = s.txs.Summary(r.Context(), farmID)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.summaryCache.Set(cacheKey, summary)
	writeJSON(w, http.StatusOK, summary)
}
