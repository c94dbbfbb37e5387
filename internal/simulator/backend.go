// Package simulator executes circuits on a dense statevector backend.
package simulator

import (
	"context"

	"github.com/aristath/qfactor/internal/circuit"
)

// Measurement is the outcome of running a circuit: the sampled basis
// value of the measured register and the full outcome distribution it
// was drawn from. Probabilities[v] is the probability of observing v.
type Measurement struct {
	Value         uint64
	Probabilities []float64
}

// Executable is a compiled circuit ready to run. Execute may be called
// multiple times; each call draws an independent sample.
type Executable interface {
	Execute(ctx context.Context) (*Measurement, error)
}

// Backend compiles circuits into executables. Implementations validate
// the circuit and reserve whatever resources execution needs up front,
// so Compile failures surface before any amplitudes are allocated.
type Backend interface {
	Compile(c *circuit.Circuit) (Executable, error)
}
