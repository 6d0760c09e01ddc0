package http

import (
	"net/http"
	"strconv"
	"strings"

	"ledger/internal/core"
	"ledger/internal/log"
)

type summaryResponse struct {
	core.Summary
	Filter core.PeriodFilter `json:"filter"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeRecord(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	t, err := s.ledger.Create(r.Context(), raw)
	if err != nil {
		s.writeServiceError(w, r, log.OpCreate, "Failed to save transaction.", err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	rng, err := parseDateRange(r.URL.Query())
	if err != nil {
		s.writeServiceError(w, r, log.OpList, "Failed to list transactions.", err)
		return
	}
	txs, err := s.ledger.List(r.Context(), rng)
	if err != nil {
		s.writeServiceError(w, r, log.OpList, "Failed to list transactions.", err)
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidID)
		return
	}
	t, err := s.ledger.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, log.OpRead, "Failed to load transaction.", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handleUpdate lets the service reject a malformed id so the client gets the
// same structured error list as for any other invalid field.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		id = 0
	}
	raw, err := decodeRecord(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	t, err := s.ledger.Update(r.Context(), id, raw)
	if err != nil {
		s.writeServiceError(w, r, log.OpUpdate, "Failed to update transaction.", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidID)
		return
	}
	if err := s.ledger.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, log.OpDelete, "Failed to delete transaction.", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, err := core.ParsePeriodFilter(q.Get("month"), q.Get("year"))
	if err != nil {
		s.writeServiceError(w, r, log.OpSummary, "Failed to compute summary.", err)
		return
	}
	sum, err := s.ledger.Summary(r.Context(), f)
	if err != nil {
		s.writeServiceError(w, r, log.OpSummary, "Failed to compute summary.", err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{Summary: sum, Filter: f})
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	year := 0
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			s.writeServiceError(w, r, log.OpSummary, "Failed to compute monthly totals.", &core.ValidationError{
				Errors: []core.FieldError{{Field: "year", Value: v, Messages: []string{"Year must be a four digit year"}}},
			})
			return
		}
		year = y
	}
	months, err := s.ledger.MonthlyTotals(r.Context(), year)
	if err != nil {
		s.writeServiceError(w, r, log.OpSummary, "Failed to compute monthly totals.", err)
		return
	}
	writeJSON(w, http.StatusOK, months)
}
