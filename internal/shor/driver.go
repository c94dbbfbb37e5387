package shor

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/qfactor/internal/events"
	"github.com/aristath/qfactor/internal/numtheory"
	"github.com/aristath/qfactor/internal/simulator"
)

// DefaultMaxAttempts bounds the driver's outer loop: random base
// choices (and their order-finding calls) per factoring run.
const DefaultMaxAttempts = 8

// Factoring methods recorded on a Result.
const (
	MethodEven         = "even"
	MethodPerfectPower = "perfect_power"
	MethodGCD          = "gcd"
	MethodQuantum      = "quantum"
)

// Result describes a completed factoring run. P <= Q and P*Q == N.
// Base, Order, Sample, and Distribution are populated only for the
// quantum method; Attempts and QuantumRuns count work done either way.
type Result struct {
	RunID        string
	N            uint64
	P            uint64
	Q            uint64
	Method       string
	Base         uint64
	Order        uint64
	Attempts     int
	QuantumRuns  int
	Sample       uint64
	Distribution []float64
	Elapsed      time.Duration
}

// Driver runs the complete factoring algorithm: classical shortcuts
// first, then repeated random-base order finding until a nontrivial
// factor pair falls out.
type Driver struct {
	finder       *OrderFinder
	bus          *events.Bus
	log          zerolog.Logger
	rng          *rand.Rand
	maxAttempts  int
	orderRetries int
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithMaxAttempts overrides the outer attempt budget.
func WithMaxAttempts(n int) DriverOption {
	return func(d *Driver) {
		if n > 0 {
			d.maxAttempts = n
		}
	}
}

// WithDriverOrderRetries overrides the retry budget of each
// order-finding call.
func WithDriverOrderRetries(n int) DriverOption {
	return func(d *Driver) {
		if n > 0 {
			d.orderRetries = n
		}
	}
}

// WithSeed makes base selection deterministic.
func WithSeed(seed uint64) DriverOption {
	return func(d *Driver) { d.rng = rand.New(rand.NewPCG(seed, seed)) }
}

// WithBus attaches an event bus for run progress events.
func WithBus(bus *events.Bus) DriverOption {
	return func(d *Driver) { d.bus = bus }
}

// NewDriver creates a factoring driver executing circuits on backend.
func NewDriver(backend simulator.Backend, log zerolog.Logger, opts ...DriverOption) *Driver {
	d := &Driver{
		log:          log.With().Str("component", "driver").Logger(),
		rng:          rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		maxAttempts:  DefaultMaxAttempts,
		orderRetries: DefaultOrderRetries,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.finder = NewOrderFinder(backend, log, WithOrderRetries(d.orderRetries))
	return d
}

// Factor returns two nontrivial factors of n.
//
// Inputs without such factors (n < 2, primes) return ErrInvalidInput.
// Even inputs and perfect powers are handled classically; everything
// else goes through random-base order finding with the standard
// degeneracy retries (lucky-gcd bases short-circuit classically).
// Exhausting the attempt budget returns ErrFactorizationFailed.
func (d *Driver) Factor(ctx context.Context, n uint64) (*Result, error) {
	start := time.Now()
	runID := uuid.New().String()
	log := d.log.With().Str("run_id", runID).Uint64("n", n).Logger()

	if n < 2 {
		return nil, fmt.Errorf("%w: %d is below 2", ErrInvalidInput, n)
	}
	if numtheory.IsPrime(n) {
		return nil, fmt.Errorf("%w: %d is prime", ErrInvalidInput, n)
	}

	d.publish(&events.RunStartedData{RunID: runID, N: n})

	result := &Result{RunID: runID, N: n}
	if n%2 == 0 {
		result.P, result.Q = 2, n/2
		result.Method = MethodEven
		return d.complete(log, result, start)
	}
	if base, _, ok := numtheory.PerfectPower(n); ok {
		result.P, result.Q = base, n/base
		result.Method = MethodPerfectPower
		return d.complete(log, result, start)
	}

	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("factor %d: %w", n, err)
		}
		result.Attempts = attempt

		// n is odd, composite, and not a power, so n >= 15 and the
		// range [2, n-2] is nonempty.
		a := 2 + d.rng.Uint64N(n-3)
		d.publish(&events.AttemptStartedData{RunID: runID, N: n, Attempt: attempt, Base: a})
		log.Debug().Int("attempt", attempt).Uint64("base", a).Msg("attempt started")

		if g := numtheory.GCD(a, n); g > 1 {
			result.P, result.Q = g, n/g
			result.Method = MethodGCD
			result.Base = a
			return d.complete(log, result, start)
		}

		ord, err := d.finder.Find(ctx, a, n)
		if err != nil {
			if errors.Is(err, ErrOrderNotFound) {
				log.Debug().Uint64("base", a).Msg("order finding exhausted, trying new base")
				continue
			}
			d.publish(&events.RunFailedData{RunID: runID, N: n, Error: err.Error()})
			return nil, err
		}
		result.QuantumRuns += ord.Runs
		d.publish(&events.OrderFoundData{
			RunID: runID, N: n, Base: a,
			Order: ord.Value, Sample: ord.Sample, Runs: ord.Runs,
		})

		p, q, ok := factorsFromOrder(a, n, ord.Value)
		if !ok {
			log.Debug().Uint64("base", a).Uint64("order", ord.Value).Msg("degenerate order, trying new base")
			continue
		}
		result.P, result.Q = p, q
		result.Method = MethodQuantum
		result.Base = a
		result.Order = ord.Value
		result.Sample = ord.Sample
		result.Distribution = ord.Distribution
		return d.complete(log, result, start)
	}

	err := fmt.Errorf("%w: %d after %d attempts", ErrFactorizationFailed, n, d.maxAttempts)
	d.publish(&events.RunFailedData{RunID: runID, N: n, Error: err.Error()})
	return nil, err
}

// factorsFromOrder turns an accepted order into a nontrivial factor
// pair via gcd(a^(r/2) ∓ 1, n). Odd orders, trivial square roots
// (a^(r/2) ≡ ±1 mod n), and factor-free gcds all return ok=false so
// the caller re-draws the base.
func factorsFromOrder(a, n, order uint64) (uint64, uint64, bool) {
	if order%2 != 0 {
		return 0, 0, false
	}
	x, err := numtheory.ModPow(a, order/2, n)
	if err != nil || x == n-1 {
		return 0, 0, false
	}
	if p := numtheory.GCD(x-1, n); p > 1 && p < n {
		return p, n / p, true
	}
	if q := numtheory.GCD(x+1, n); q > 1 && q < n {
		return q, n / q, true
	}
	return 0, 0, false
}

// complete normalizes factor order, stamps the duration, and emits the
// completion event.
func (d *Driver) complete(log zerolog.Logger, r *Result, start time.Time) (*Result, error) {
	if r.P > r.Q {
		r.P, r.Q = r.Q, r.P
	}
	r.Elapsed = time.Since(start)
	log.Info().
		Uint64("p", r.P).
		Uint64("q", r.Q).
		Str("method", r.Method).
		Int("attempts", r.Attempts).
		Int("quantum_runs", r.QuantumRuns).
		Dur("elapsed", r.Elapsed).
		Msg("factors found")
	d.publish(&events.RunCompletedData{
		RunID: r.RunID, N: r.N, P: r.P, Q: r.Q,
		Method: r.Method, DurationMS: r.Elapsed.Milliseconds(),
	})
	return r, nil
}

func (d *Driver) publish(data events.EventData) {
	if d.bus != nil {
		d.bus.Publish("shor", data)
	}
}
