package shor

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/qfactor/internal/events"
	"github.com/aristath/qfactor/internal/simulator"
)

func testDriver(opts ...DriverOption) *Driver {
	backend := simulator.NewStatevector(zerolog.Nop(), simulator.WithSeed(3))
	opts = append([]DriverOption{WithSeed(11), WithDriverOrderRetries(25)}, opts...)
	return NewDriver(backend, zerolog.Nop(), opts...)
}

func TestFactorSemiprimes(t *testing.T) {
	tests := []struct {
		n    uint64
		p, q uint64
	}{
		{15, 3, 5},
		{21, 3, 7},
		{33, 3, 11},
		{35, 5, 7},
	}

	for _, tt := range tests {
		result, err := testDriver().Factor(context.Background(), tt.n)
		require.NoError(t, err, "factoring %d", tt.n)
		assert.Equal(t, tt.p, result.P, "factoring %d", tt.n)
		assert.Equal(t, tt.q, result.Q, "factoring %d", tt.n)
		assert.Equal(t, tt.n, result.P*result.Q)
		assert.NotEmpty(t, result.RunID)
		assert.Positive(t, result.Attempts)
	}
}

func TestFactorEvenShortcut(t *testing.T) {
	result, err := testDriver().Factor(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), result.P)
	assert.Equal(t, uint64(2), result.Q)
	assert.Equal(t, MethodEven, result.Method)
	assert.Zero(t, result.QuantumRuns)
}

func TestFactorPerfectPowerShortcut(t *testing.T) {
	result, err := testDriver().Factor(context.Background(), 27)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), result.P)
	assert.Equal(t, uint64(9), result.Q)
	assert.Equal(t, MethodPerfectPower, result.Method)
}

func TestFactorRejectsInvalidInput(t *testing.T) {
	d := testDriver()

	for _, n := range []uint64{0, 1, 2, 17, 7919} {
		_, err := d.Factor(context.Background(), n)
		assert.ErrorIs(t, err, ErrInvalidInput, "n=%d", n)
	}
}

func TestFactorQuantumResultMetadata(t *testing.T) {
	result, err := testDriver().Factor(context.Background(), 15)
	require.NoError(t, err)

	if result.Method != MethodQuantum {
		t.Skipf("seeded run took the %s shortcut", result.Method)
	}
	assert.NotZero(t, result.Base)
	assert.NotZero(t, result.Order)
	assert.Positive(t, result.QuantumRuns)
	assert.NotEmpty(t, result.Distribution)
}

func TestFactorPublishesEvents(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())

	var started, completed int
	bus.Subscribe(events.RunStarted, func(*events.Event) { started++ })
	bus.Subscribe(events.RunCompleted, func(*events.Event) { completed++ })

	_, err := testDriver(WithBus(bus)).Factor(context.Background(), 15)
	require.NoError(t, err)
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, completed)
}

func TestFactorHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testDriver().Factor(ctx, 15)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFactorsFromOrder(t *testing.T) {
	tests := []struct {
		name  string
		a     uint64
		n     uint64
		order uint64
		p, q  uint64
		ok    bool
	}{
		{"odd order", 4, 21, 3, 0, 0, false},
		{"square root is -1", 5, 21, 6, 0, 0, false}, // 5^3 = 125 ≡ 20 (mod 21)
		{"square root is -1 again", 14, 15, 2, 0, 0, false},
		{"square root is 1", 4, 21, 6, 0, 0, false}, // 4^3 = 64 ≡ 1 (mod 21)
		{"splits 21", 2, 21, 6, 7, 3, true},         // 2^3 = 8, gcd(7, 21) = 7
		{"splits 15", 7, 15, 4, 3, 5, true},         // 7^2 = 49 ≡ 4, gcd(3, 15) = 3
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, q, ok := factorsFromOrder(tt.a, tt.n, tt.order)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.p, p)
				assert.Equal(t, tt.q, q)
				assert.Equal(t, tt.n, p*q)
			}
		})
	}
}

// fixedSource feeds predetermined words to the driver's base draws.
// Words sit mid-bucket so Uint64N maps them to a known output without
// hitting the rejection path.
type fixedSource struct {
	values []uint64
	i      int
}

func (s *fixedSource) Uint64() uint64 {
	v := s.values[s.i%len(s.values)]
	s.i++
	return v
}

func TestFactorRetriesTrivialSquareRoot(t *testing.T) {
	// Sample 171 over ten estimation bits decodes to order 6, which
	// every unit mod 21 satisfies. The first word draws base 5, whose
	// half-order power 5^3 ≡ -1 (mod 21) yields only trivial square
	// roots; the driver must discard the attempt rather than report a
	// bogus factor. The second word draws base 3, which splits 21
	// classically.
	backend := &scriptedBackend{values: []uint64{171}}
	d := NewDriver(backend, zerolog.Nop(), WithMaxAttempts(3))
	d.rng = rand.New(&fixedSource{values: []uint64{
		3586866903221301703, // Uint64N(18) = 3, base 5
		1537228672809129301, // Uint64N(18) = 1, base 3
	}})

	result, err := d.Factor(context.Background(), 21)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), result.P)
	assert.Equal(t, uint64(7), result.Q)
	assert.Equal(t, MethodGCD, result.Method)
	assert.Equal(t, 2, result.Attempts, "trivial square root must consume one attempt")
	assert.Equal(t, 1, result.QuantumRuns)
	assert.Equal(t, 1, backend.calls)
}

func TestFactorExhaustionFailsCleanly(t *testing.T) {
	// A backend that always measures zero never yields an order, so
	// every attempt burns out and the driver reports failure.
	backend := &scriptedBackend{values: []uint64{0}}
	d := NewDriver(backend, zerolog.Nop(),
		WithSeed(5), WithMaxAttempts(2), WithDriverOrderRetries(2))

	bus := events.NewBus(zerolog.Nop())
	WithBus(bus)(d)
	var failed int
	bus.Subscribe(events.RunFailed, func(*events.Event) { failed++ })

	result, err := d.Factor(context.Background(), 3953) // 59 * 67, no easy shortcut
	if err == nil {
		// A randomly drawn base can still share a factor with n.
		t.Skipf("seeded run found a lucky %s base", result.Method)
	}
	assert.ErrorIs(t, err, ErrFactorizationFailed)
	assert.Equal(t, 1, failed)
}
