package simulator

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/mem"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/aristath/qfactor/internal/circuit"
	"github.com/aristath/qfactor/internal/numtheory"
)

const amplitudeBytes = 16 // complex128

// memoryHeadroom keeps the allocation below available RAM so the
// process is not the one that tips the host into swapping.
const memoryHeadroom = 0.8

// Statevector is a dense statevector simulator. Basis states are
// indexed with qubit k as bit k, amplitudes held in a single
// []complex128 of length 2^qubits.
type Statevector struct {
	log       zerolog.Logger
	maxQubits int

	mu  sync.Mutex
	src rand.Source
}

// Option configures a Statevector backend.
type Option func(*Statevector)

// WithMaxQubits caps the number of qubits a circuit may address.
func WithMaxQubits(n int) Option {
	return func(s *Statevector) { s.maxQubits = n }
}

// WithSeed makes measurement sampling deterministic.
func WithSeed(seed uint64) Option {
	return func(s *Statevector) { s.src = rand.NewPCG(seed, seed) }
}

// NewStatevector creates a statevector backend.
func NewStatevector(log zerolog.Logger, opts ...Option) *Statevector {
	s := &Statevector{
		log:       log.With().Str("component", "simulator").Logger(),
		maxQubits: 30,
		src:       rand.NewPCG(rand.Uint64(), rand.Uint64()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Compile validates the circuit and checks that the amplitude array
// fits in the qubit cap and in available memory.
func (s *Statevector) Compile(c *circuit.Circuit) (Executable, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	n := c.Qubits()
	if n > s.maxQubits {
		return nil, fmt.Errorf("compile: circuit needs %d qubits, cap is %d", n, s.maxQubits)
	}
	required := uint64(amplitudeBytes) << n
	if vm, err := mem.VirtualMemory(); err == nil {
		budget := uint64(float64(vm.Available) * memoryHeadroom)
		if required > budget {
			return nil, fmt.Errorf("compile: statevector needs %d bytes, %d available", required, vm.Available)
		}
	}
	s.log.Debug().
		Int("qubits", n).
		Uint64("bytes", required).
		Int("gates", len(c.Gates)).
		Msg("circuit compiled")
	return &program{backend: s, circuit: c}, nil
}

// program is a compiled circuit bound to its backend.
type program struct {
	backend *Statevector
	circuit *circuit.Circuit
}

// Execute evolves |0...0> through the gate list and samples the final
// measurement. The context is checked between gates so long runs can
// be cancelled.
func (p *program) Execute(ctx context.Context) (*Measurement, error) {
	c := p.circuit
	state := make([]complex128, uint64(1)<<c.Qubits())
	state[0] = 1

	var result *Measurement
	for i, g := range c.Gates {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("execute: gate %d: %w", i, err)
		}
		switch g.Kind {
		case circuit.Hadamard:
			applyHadamard(state, g.Target)
		case circuit.PauliX:
			applyPauliX(state, g.Target)
		case circuit.Swap:
			applySwap(state, g.Target, g.Other)
		case circuit.CPhase:
			applyCPhase(state, g.Control, g.Target, g.Angle)
		case circuit.CMulMod:
			state = applyCMulMod(state, c.Work, g.Control, g.Factor, c.Modulus)
		case circuit.Measure:
			m, err := p.backend.sample(state, g.Targets)
			if err != nil {
				return nil, fmt.Errorf("execute: gate %d: %w", i, err)
			}
			result = m
		}
	}
	if result == nil {
		return nil, fmt.Errorf("execute: circuit has no measurement")
	}
	return result, nil
}

// sample computes the marginal distribution of the measured qubits and
// draws one outcome from it.
func (s *Statevector) sample(state []complex128, targets []int) (*Measurement, error) {
	probs := make([]float64, uint64(1)<<len(targets))
	for i, amp := range state {
		p := real(amp)*real(amp) + imag(amp)*imag(amp)
		if p == 0 {
			continue
		}
		var v uint64
		for k, q := range targets {
			v |= ((uint64(i) >> q) & 1) << k
		}
		probs[v] += p
	}

	total := 0.0
	for _, p := range probs {
		total += p
	}
	if math.Abs(total-1) > 1e-6 {
		return nil, fmt.Errorf("sample: distribution sums to %g", total)
	}

	s.mu.Lock()
	w := sampleuv.NewWeighted(probs, s.src)
	idx, ok := w.Take()
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("sample: empty distribution")
	}
	return &Measurement{Value: uint64(idx), Probabilities: probs}, nil
}

func applyHadamard(state []complex128, q int) {
	mask := uint64(1) << q
	factor := complex(math.Sqrt2/2, 0)
	for i := uint64(0); i < uint64(len(state)); i++ {
		if i&mask != 0 {
			continue
		}
		a0, a1 := state[i], state[i|mask]
		state[i] = (a0 + a1) * factor
		state[i|mask] = (a0 - a1) * factor
	}
}

func applyPauliX(state []complex128, q int) {
	mask := uint64(1) << q
	for i := uint64(0); i < uint64(len(state)); i++ {
		if i&mask == 0 {
			state[i], state[i|mask] = state[i|mask], state[i]
		}
	}
}

func applySwap(state []complex128, a, b int) {
	maskA := uint64(1) << a
	maskB := uint64(1) << b
	for i := uint64(0); i < uint64(len(state)); i++ {
		// Visit each swapped pair once, from the (a=1, b=0) side.
		if i&maskA != 0 && i&maskB == 0 {
			j := (i &^ maskA) | maskB
			state[i], state[j] = state[j], state[i]
		}
	}
}

func applyCPhase(state []complex128, control, target int, angle float64) {
	mask := (uint64(1) << control) | (uint64(1) << target)
	phase := complex(math.Cos(angle), math.Sin(angle))
	for i := uint64(0); i < uint64(len(state)); i++ {
		if i&mask == mask {
			state[i] *= phase
		}
	}
}

// applyCMulMod applies the controlled multiply as a basis permutation:
// when the control bit is set, work values below the modulus map to
// value*factor mod modulus, values at or above it stay fixed. The
// factor is a unit mod the modulus, so the map is a bijection and the
// gate is unitary.
func applyCMulMod(state []complex128, work circuit.Register, control int, factor, modulus uint64) []complex128 {
	ctrlMask := uint64(1) << control
	next := make([]complex128, len(state))
	for i := uint64(0); i < uint64(len(state)); i++ {
		if state[i] == 0 {
			continue
		}
		if i&ctrlMask == 0 {
			next[i] += state[i]
			continue
		}
		w := work.Extract(i)
		if w >= modulus {
			next[i] += state[i]
			continue
		}
		wNew := numtheory.MulMod(w, factor, modulus)
		j := (i &^ work.Mask()) | (wNew << work.Offset)
		next[j] += state[i]
	}
	return next
}
