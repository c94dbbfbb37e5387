// Package history persists completed factoring runs and serves them
// back to the API.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/qfactor/internal/database"
	"github.com/aristath/qfactor/internal/shor"
)

// ErrNotFound is returned when no run exists for a requested id.
var ErrNotFound = errors.New("history: run not found")

// Run is one persisted factoring run. Histogram stays nil unless the
// run went through the quantum path.
type Run struct {
	ID          string    `json:"id"`
	N           uint64    `json:"n"`
	FactorP     uint64    `json:"factor_p"`
	FactorQ     uint64    `json:"factor_q"`
	Method      string    `json:"method"`
	Base        uint64    `json:"base,omitempty"`
	Order       uint64    `json:"order,omitempty"`
	Attempts    int       `json:"attempts"`
	QuantumRuns int       `json:"quantum_runs"`
	Sample      uint64    `json:"sample,omitempty"`
	DurationMS  int64     `json:"duration_ms"`
	Histogram   []float64 `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewRun converts a driver result into a persistable record.
func NewRun(result *shor.Result) *Run {
	return &Run{
		ID:          result.RunID,
		N:           result.N,
		FactorP:     result.P,
		FactorQ:     result.Q,
		Method:      result.Method,
		Base:        result.Base,
		Order:       result.Order,
		Attempts:    result.Attempts,
		QuantumRuns: result.QuantumRuns,
		Sample:      result.Sample,
		DurationMS:  result.Elapsed.Milliseconds(),
		Histogram:   result.Distribution,
	}
}

// Repository stores runs in the runs database.
type Repository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewRepository creates a run-history repository.
func NewRepository(db *database.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("component", "history").Logger(),
	}
}

// Save inserts a run. The histogram is msgpack-encoded; empty
// distributions are stored as NULL.
func (r *Repository) Save(run *Run) error {
	var histogram []byte
	if len(run.Histogram) > 0 {
		var err error
		histogram, err = msgpack.Marshal(run.Histogram)
		if err != nil {
			return fmt.Errorf("failed to encode histogram: %w", err)
		}
	}

	// Fixtures carry explicit timestamps; live runs take the column
	// default.
	var createdAt interface{}
	if !run.CreatedAt.IsZero() {
		createdAt = run.CreatedAt.UTC().Format("2006-01-02 15:04:05")
	}

	_, err := r.db.Exec(`
		INSERT INTO runs (id, n, factor_p, factor_q, method, base, ord,
			attempts, quantum_runs, sample, duration_ms, histogram, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP))`,
		run.ID, run.N, run.FactorP, run.FactorQ, run.Method, run.Base,
		run.Order, run.Attempts, run.QuantumRuns, run.Sample,
		run.DurationMS, histogram, createdAt)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}

	r.log.Debug().Str("run_id", run.ID).Uint64("n", run.N).Msg("run saved")
	return nil
}

// Get returns one run by id, histogram included.
func (r *Repository) Get(id string) (*Run, error) {
	row := r.db.QueryRow(`
		SELECT id, n, factor_p, factor_q, method, base, ord, attempts,
			quantum_runs, sample, duration_ms, histogram, created_at
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	return run, nil
}

// List returns the most recent runs, newest first. Histograms are not
// loaded; fetch them per run via Get.
func (r *Repository) List(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(`
		SELECT id, n, factor_p, factor_q, method, base, ord, attempts,
			quantum_runs, sample, duration_ms, NULL, created_at
		FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Count returns the number of stored runs.
func (r *Repository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return count, nil
}

// PruneOlderThan deletes runs created before cutoff and reports how
// many were removed.
func (r *Repository) PruneOlderThan(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM runs WHERE created_at < ?`,
		cutoff.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	pruned, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if pruned > 0 {
		r.log.Info().Int64("pruned", pruned).Time("cutoff", cutoff).Msg("old runs pruned")
	}
	return pruned, nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (*Run, error) {
	var (
		run       Run
		histogram []byte
	)
	if err := s.Scan(&run.ID, &run.N, &run.FactorP, &run.FactorQ,
		&run.Method, &run.Base, &run.Order, &run.Attempts,
		&run.QuantumRuns, &run.Sample, &run.DurationMS,
		&histogram, &run.CreatedAt); err != nil {
		return nil, err
	}
	if len(histogram) > 0 {
		if err := msgpack.Unmarshal(histogram, &run.Histogram); err != nil {
			return nil, fmt.Errorf("failed to decode histogram: %w", err)
		}
	}
	return &run, nil
}
