package testing

import (
	"time"

	"github.com/google/uuid"

	"github.com/aristath/qfactor/internal/history"
)

// NewRunFixtures returns a set of persisted-run records for use in tests:
// one run per factoring method, ids freshly generated.
func NewRunFixtures() []*history.Run {
	return []*history.Run{
		{
			ID:          uuid.New().String(),
			N:           15,
			FactorP:     3,
			FactorQ:     5,
			Method:      "quantum",
			Base:        7,
			Order:       4,
			Attempts:    1,
			QuantumRuns: 2,
			Sample:      192,
			DurationMS:  48,
			Histogram:   []float64{0.25, 0, 0.25, 0, 0.25, 0, 0.25, 0},
		},
		{
			ID:         uuid.New().String(),
			N:          21,
			FactorP:    3,
			FactorQ:    7,
			Method:     "gcd",
			Base:       6,
			Attempts:   2,
			DurationMS: 3,
		},
		{
			ID:         uuid.New().String(),
			N:          4,
			FactorP:    2,
			FactorQ:    2,
			Method:     "even",
			DurationMS: 1,
		},
		{
			ID:         uuid.New().String(),
			N:          27,
			FactorP:    3,
			FactorQ:    9,
			Method:     "perfect_power",
			DurationMS: 1,
		},
	}
}

// NewQuantumRunFixture returns a single quantum-method run with the
// given age, for retention tests.
func NewQuantumRunFixture(age time.Duration) *history.Run {
	return &history.Run{
		ID:          uuid.New().String(),
		N:           15,
		FactorP:     3,
		FactorQ:     5,
		Method:      "quantum",
		Base:        2,
		Order:       4,
		Attempts:    1,
		QuantumRuns: 1,
		Sample:      64,
		DurationMS:  52,
		CreatedAt:   time.Now().Add(-age),
	}
}
