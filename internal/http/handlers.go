package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"registro/internal/core"
	"registro/internal/export"
	"registro/internal/ledger"
	"registro/internal/log"
	"registro/internal/period"
	"registro/internal/store"
)

// userHeader carries the owner of the ledger. Authentication itself is
// handled upstream; the API trusts the header.
const userHeader = "X-User-ID"

type listResponse struct {
	Transactions []core.Transaction `json:"transactions"`
	Loading      bool               `json:"loading"`
	Error        string             `json:"error,omitempty"`
}

type summaryResponse struct {
	Range      core.DateRange      `json:"range"`
	Totals     core.Totals         `json:"totals"`
	Trend      []core.MonthlyPoint `json:"monthlyTrend"`
	Categories core.Breakdown      `json:"categories"`
}

func (s *Server) userStore(w http.ResponseWriter, r *http.Request) (*ledger.Store, bool) {
	userID := r.Header.Get(userHeader)
	if userID == "" {
		s.writeError(w, http.StatusUnauthorized, "missing "+userHeader+" header")
		return nil, false
	}
	return s.ledgers.ForUser(userID), true
}

func (s *Server) generation(userID string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.generations[userID]
}

func (s *Server) bumpGeneration(userID string) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	s.generations[userID]++
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	st, ok := s.userStore(w, r)
	if !ok {
		return
	}

	if err := st.EnsureLoaded(r.Context()); err != nil {
		s.logger.ErrorContext(r.Context(), "Transaction list load failed", log.FieldError, err)
		s.writeError(w, http.StatusBadGateway, "failed to load transactions")
		return
	}

	resp := listResponse{
		Transactions: st.Transactions(),
		Loading:      st.Loading(),
	}
	if resp.Transactions == nil {
		resp.Transactions = []core.Transaction{}
	}
	if err := st.Err(); err != nil {
		// Stale data from a failed refresh is still served, flagged.
		resp.Error = err.Error()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	st, ok := s.userStore(w, r)
	if !ok {
		return
	}

	var tx core.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := st.Create(r.Context(), tx)
	if err != nil {
		if isValidationError(err) {
			s.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.logger.ErrorContext(r.Context(), "Transaction create failed", log.FieldError, err)
		s.writeError(w, http.StatusInternalServerError, "failed to save transaction")
		return
	}

	s.bumpGeneration(r.Header.Get(userHeader))
	s.writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	st, ok := s.userStore(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")

	var tx core.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := st.Update(r.Context(), id, tx); err != nil {
		switch {
		case isValidationError(err):
			s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, store.ErrNotFound):
			s.writeError(w, http.StatusNotFound, "transaction not found")
		default:
			s.logger.ErrorContext(r.Context(), "Transaction update failed",
				log.FieldError, err, log.FieldTransactionID, id)
			s.writeError(w, http.StatusInternalServerError, "failed to update transaction")
		}
		return
	}

	s.bumpGeneration(r.Header.Get(userHeader))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	st, ok := s.userStore(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")

	if err := st.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		s.logger.ErrorContext(r.Context(), "Transaction delete failed",
			log.FieldError, err, log.FieldTransactionID, id)
		s.writeError(w, http.StatusInternalServerError, "failed to delete transaction")
		return
	}

	s.bumpGeneration(r.Header.Get(userHeader))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	st, ok := s.userStore(w, r)
	if !ok {
		return
	}

	if err := st.EnsureLoaded(r.Context()); err != nil {
		s.logger.ErrorContext(r.Context(), "Summary load failed", log.FieldError, err)
		s.writeError(w, http.StatusBadGateway, "failed to load transactions")
		return
	}

	rng, err := s.resolveRange(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID := r.Header.Get(userHeader)
	key := fmt.Sprintf("%s|%d|%s|%s", userID, s.generation(userID), rng.Start, rng.End)
	if cached, ok := s.summaryCache.Get(key); ok {
		s.writeJSON(w, http.StatusOK, cached)
		return
	}

	filtered := core.FilterByRange(st.Transactions(), rng)

	resp := summaryResponse{
		Range:      rng,
		Totals:     core.CalculateTotals(filtered),
		Trend:      core.MonthlyTrend(filtered),
		Categories: core.CategoryBreakdown(filtered),
	}
	if resp.Trend == nil {
		resp.Trend = []core.MonthlyPoint{}
	}
	s.summaryCache.Set(key, resp)
	s.writeJSON(w, http.StatusOK, resp)
}

// resolveRange maps the period/start/end query parameters to a concrete
// date range. Defaults to the whole ledger.
func (s *Server) resolveRange(r *http.Request) (core.DateRange, error) {
	q := r.URL.Query()
	sel := period.Selector(q.Get("period"))
	if sel == "" {
		sel = period.All
	}

	if sel == period.Custom {
		start, err := core.ParseDate(q.Get("start"))
		if err != nil {
			return core.DateRange{}, fmt.Errorf("invalid start date %q", q.Get("start"))
		}
		end, err := core.ParseDate(q.Get("end"))
		if err != nil {
			return core.DateRange{}, fmt.Errorf("invalid end date %q", q.Get("end"))
		}
		return period.ResolveCustom(start, end), nil
	}

	rng, err := period.Resolve(sel, s.today())
	if err != nil {
		return core.DateRange{}, fmt.Errorf("unknown period %q", sel)
	}
	return rng, nil
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	st, ok := s.userStore(w, r)
	if !ok {
		return
	}

	if err := st.EnsureLoaded(r.Context()); err != nil {
		s.logger.ErrorContext(r.Context(), "Export load failed", log.FieldError, err)
		s.writeError(w, http.StatusBadGateway, "failed to load transactions")
		return
	}

	// The range applies only when both bounds are given; anything less
	// exports the whole ledger.
	var rng core.DateRange
	q := r.URL.Query()
	if q.Get("start") != "" && q.Get("end") != "" {
		start, err := core.ParseDate(q.Get("start"))
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid start date %q", q.Get("start")))
			return
		}
		end, err := core.ParseDate(q.Get("end"))
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid end date %q", q.Get("end")))
			return
		}
		rng = core.DateRange{Start: start, End: end}
	}

	doc := export.Build(st.Transactions(), rng, s.today())

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	if err := export.Write(w, doc); err != nil {
		s.logger.ErrorContext(r.Context(), "Export write failed", log.FieldError, err)
	}
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrInvalidDate,
		core.ErrInvalidAmount,
		core.ErrInvalidType,
		core.ErrEmptyCategory,
		core.ErrEmptyUser,
		core.ErrCategoryTooLong,
		core.ErrNotesTooLong,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", log.FieldError, err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
