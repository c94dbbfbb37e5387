package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aristath/qfactor/internal/history"
	"github.com/aristath/qfactor/internal/shor"
)

// FactorRequest is the body of POST /api/factor.
type FactorRequest struct {
	N    uint64 `json:"n"`
	Seed uint64 `json:"seed,omitempty"`
}

// HistogramResponse carries the estimation-register distribution of a
// quantum run.
type HistogramResponse struct {
	RunID     string    `json:"run_id"`
	N         uint64    `json:"n"`
	Buckets   int       `json:"buckets"`
	Histogram []float64 `json:"histogram"`
}

// handleFactor runs the factoring pipeline for one input and persists
// the result. Only one run executes at a time.
func (s *Server) handleFactor(w http.ResponseWriter, r *http.Request) {
	var req FactorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !s.factorMu.TryLock() {
		writeError(w, http.StatusConflict, "a factoring run is already in progress")
		return
	}
	defer s.factorMu.Unlock()

	// Large inputs can outlast the server's write deadline; clear it so
	// the response still reaches the client.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	result, err := s.cfg.NewDriver(req.Seed).Factor(r.Context(), req.N)
	if err != nil {
		switch {
		case errors.Is(err, shor.ErrInvalidInput):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, shor.ErrFactorizationFailed):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			// Client went away; nothing sensible to write.
			s.log.Warn().Uint64("n", req.N).Msg("factoring run cancelled")
		default:
			s.log.Error().Err(err).Uint64("n", req.N).Msg("factoring run failed")
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	run := history.NewRun(result)
	if err := s.cfg.Repo.Save(run); err != nil {
		// The answer is still good; losing the history row is not
		// worth failing the request over.
		s.log.Error().Err(err).Str("run_id", run.ID).Msg("failed to persist run")
	}

	writeJSON(w, http.StatusOK, run)
}

// handleListRuns returns recent runs, newest first. Histograms are
// omitted; fetch them per run.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	runs, err := s.cfg.Repo.List(limit)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list runs")
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleGetHistogram(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	if len(run.Histogram) == 0 {
		writeError(w, http.StatusNotFound, "run has no histogram")
		return
	}

	writeJSON(w, http.StatusOK, HistogramResponse{
		RunID:     run.ID,
		N:         run.N,
		Buckets:   len(run.Histogram),
		Histogram: run.Histogram,
	})
}

func (s *Server) loadRun(w http.ResponseWriter, r *http.Request) (*history.Run, bool) {
	id := chi.URLParam(r, "id")
	run, err := s.cfg.Repo.Get(id)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
		} else {
			s.log.Error().Err(err).Str("run_id", id).Msg("failed to load run")
			writeError(w, http.StatusInternalServerError, "failed to load run")
		}
		return nil, false
	}
	return run, true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
