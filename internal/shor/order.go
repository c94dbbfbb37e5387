package shor

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/qfactor/internal/circuit"
	"github.com/aristath/qfactor/internal/numtheory"
	"github.com/aristath/qfactor/internal/simulator"
)

// DefaultOrderRetries bounds how many times a single order-finding
// call re-runs the circuit before giving up.
const DefaultOrderRetries = 5

// Order is an accepted order-finding outcome, together with the
// measurement it was decoded from.
type Order struct {
	Value        uint64    // the order r, verified a^r = 1 mod n
	Sample       uint64    // the raw phase sample behind it
	Distribution []float64 // outcome distribution of the final run
	Runs         int       // circuit executions consumed
}

// OrderFinder finds the multiplicative order of a base modulo n by
// quantum phase estimation: build circuit, execute, decode the sample,
// verify classically, retry on failure.
type OrderFinder struct {
	backend    simulator.Backend
	log        zerolog.Logger
	maxRetries int
}

// OrderFinderOption configures an OrderFinder.
type OrderFinderOption func(*OrderFinder)

// WithOrderRetries overrides the per-call retry budget.
func WithOrderRetries(n int) OrderFinderOption {
	return func(f *OrderFinder) {
		if n > 0 {
			f.maxRetries = n
		}
	}
}

// NewOrderFinder creates an order finder running on backend.
func NewOrderFinder(backend simulator.Backend, log zerolog.Logger, opts ...OrderFinderOption) *OrderFinder {
	f := &OrderFinder{
		backend:    backend,
		log:        log.With().Str("component", "order_finder").Logger(),
		maxRetries: DefaultOrderRetries,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Find returns the order of a modulo n. The circuit is compiled once
// and re-executed up to the retry budget; each run is decoded with the
// continued-fraction decoder and accepted only after the classical
// check a^r = 1 (mod n). Exhausting the budget returns
// ErrOrderNotFound wrapping the last per-run failure.
func (f *OrderFinder) Find(ctx context.Context, a, n uint64) (*Order, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: modulus %d", ErrInvalidInput, n)
	}
	if a < 2 || a >= n || numtheory.GCD(a, n) != 1 {
		return nil, fmt.Errorf("%w: %d mod %d", ErrInvalidBase, a, n)
	}

	c, err := circuit.OrderFinding(a, n)
	if err != nil {
		return nil, fmt.Errorf("order finding: %w", err)
	}
	exe, err := f.backend.Compile(c)
	if err != nil {
		return nil, fmt.Errorf("order finding: %w", err)
	}

	var lastErr error
	for run := 1; run <= f.maxRetries; run++ {
		m, err := exe.Execute(ctx)
		if err != nil {
			return nil, fmt.Errorf("order finding: run %d: %w", run, err)
		}

		r, err := DecodePhase(m.Value, c.Estimation.Size, n)
		if err != nil {
			f.log.Debug().
				Uint64("sample", m.Value).
				Int("run", run).
				Err(err).
				Msg("phase sample rejected")
			lastErr = err
			continue
		}

		// A convergent denominator can be a proper divisor of the
		// order; the acceptance check filters those out.
		pow, err := numtheory.ModPow(a, r, n)
		if err != nil {
			return nil, fmt.Errorf("order finding: %w", err)
		}
		if pow != 1 {
			f.log.Debug().
				Uint64("candidate", r).
				Uint64("sample", m.Value).
				Int("run", run).
				Msg("candidate order failed acceptance check")
			lastErr = fmt.Errorf("candidate %d rejected for base %d", r, a)
			continue
		}

		f.log.Debug().
			Uint64("base", a).
			Uint64("modulus", n).
			Uint64("order", r).
			Int("runs", run).
			Msg("order accepted")
		return &Order{
			Value:        r,
			Sample:       m.Value,
			Distribution: m.Probabilities,
			Runs:         run,
		}, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no runs executed")
	}
	return nil, fmt.Errorf("%w: base %d mod %d after %d runs: %v", ErrOrderNotFound, a, n, f.maxRetries, lastErr)
}
