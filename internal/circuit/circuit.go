// Package circuit defines the gate-level description of the quantum
// programs this project runs: a flat gate list over named qubit
// registers. Circuits are backend-agnostic; the simulator package
// compiles them into executable form.
package circuit

import (
	"fmt"

	"github.com/aristath/qfactor/internal/numtheory"
)

// GateKind identifies the operation a gate performs.
type GateKind string

const (
	// Hadamard applies the 1-qubit Hadamard transform to Target.
	Hadamard GateKind = "h"
	// PauliX flips Target.
	PauliX GateKind = "x"
	// Swap exchanges Target and Other.
	Swap GateKind = "swap"
	// CPhase applies a phase of Angle radians to |1><1| on Target,
	// conditioned on Control.
	CPhase GateKind = "cphase"
	// CMulMod multiplies the work register by Factor modulo Modulus,
	// conditioned on Control. It acts on a whole register rather than
	// a single qubit.
	CMulMod GateKind = "cmulmod"
	// Measure samples the qubits listed in Targets in the
	// computational basis.
	Measure GateKind = "measure"
)

// Gate is one step of a circuit. Which fields are meaningful depends
// on Kind; unused fields stay zero.
type Gate struct {
	Kind    GateKind
	Target  int     // qubit index for 1-qubit gates, first leg of Swap
	Other   int     // second leg of Swap
	Control int     // control qubit for CPhase and CMulMod
	Angle   float64 // phase in radians for CPhase
	Factor  uint64  // multiplier for CMulMod
	Targets []int   // measured qubits for Measure
}

// Register names a contiguous run of qubits inside a circuit.
// Qubit k of the register is circuit qubit Offset+k, and bit k of a
// basis-state index.
type Register struct {
	Name   string
	Offset int
	Size   int
}

// Qubit returns the circuit-wide index of the register's k-th qubit.
func (r Register) Qubit(k int) int { return r.Offset + k }

// Mask returns the bit mask covering the register inside a basis index.
func (r Register) Mask() uint64 {
	return ((uint64(1) << r.Size) - 1) << r.Offset
}

// Extract pulls the register's value out of a basis-state index.
func (r Register) Extract(index uint64) uint64 {
	return (index >> r.Offset) & ((uint64(1) << r.Size) - 1)
}

// Circuit is an ordered gate list over an estimation register and a
// work register. Modulus is carried so backends can execute CMulMod
// gates without re-deriving it.
type Circuit struct {
	Estimation Register
	Work       Register
	Modulus    uint64
	Gates      []Gate
}

// Qubits returns the total number of qubits the circuit addresses.
func (c *Circuit) Qubits() int {
	return c.Estimation.Size + c.Work.Size
}

// H appends a Hadamard on qubit q.
func (c *Circuit) H(q int) {
	c.Gates = append(c.Gates, Gate{Kind: Hadamard, Target: q})
}

// X appends a bit flip on qubit q.
func (c *Circuit) X(q int) {
	c.Gates = append(c.Gates, Gate{Kind: PauliX, Target: q})
}

// SwapQubits appends a swap of qubits a and b.
func (c *Circuit) SwapQubits(a, b int) {
	c.Gates = append(c.Gates, Gate{Kind: Swap, Target: a, Other: b})
}

// CP appends a controlled phase of angle radians.
func (c *Circuit) CP(control, target int, angle float64) {
	c.Gates = append(c.Gates, Gate{Kind: CPhase, Control: control, Target: target, Angle: angle})
}

// CMul appends a controlled modular multiplication of the work
// register by factor.
func (c *Circuit) CMul(control int, factor uint64) {
	c.Gates = append(c.Gates, Gate{Kind: CMulMod, Control: control, Factor: factor})
}

// MeasureRegister appends a measurement of every qubit in reg.
func (c *Circuit) MeasureRegister(reg Register) {
	targets := make([]int, reg.Size)
	for i := range targets {
		targets[i] = reg.Qubit(i)
	}
	c.Gates = append(c.Gates, Gate{Kind: Measure, Targets: targets})
}

// Validate checks that every gate addresses qubits inside the circuit
// and that register layouts do not overlap.
func (c *Circuit) Validate() error {
	n := c.Qubits()
	if n == 0 {
		return fmt.Errorf("circuit has no qubits")
	}
	if c.Estimation.Size > 0 && c.Work.Size > 0 {
		eEnd := c.Estimation.Offset + c.Estimation.Size
		wEnd := c.Work.Offset + c.Work.Size
		if c.Estimation.Offset < wEnd && c.Work.Offset < eEnd {
			return fmt.Errorf("registers %q and %q overlap", c.Estimation.Name, c.Work.Name)
		}
	}
	inRange := func(q int) bool { return q >= 0 && q < n }
	for i, g := range c.Gates {
		switch g.Kind {
		case Hadamard, PauliX:
			if !inRange(g.Target) {
				return fmt.Errorf("gate %d (%s): qubit %d out of range", i, g.Kind, g.Target)
			}
		case Swap:
			if !inRange(g.Target) || !inRange(g.Other) {
				return fmt.Errorf("gate %d (swap): qubits %d,%d out of range", i, g.Target, g.Other)
			}
			if g.Target == g.Other {
				return fmt.Errorf("gate %d (swap): identical legs %d", i, g.Target)
			}
		case CPhase:
			if !inRange(g.Target) || !inRange(g.Control) {
				return fmt.Errorf("gate %d (cphase): qubits %d,%d out of range", i, g.Control, g.Target)
			}
			if g.Target == g.Control {
				return fmt.Errorf("gate %d (cphase): control equals target %d", i, g.Target)
			}
		case CMulMod:
			if !inRange(g.Control) {
				return fmt.Errorf("gate %d (cmulmod): control %d out of range", i, g.Control)
			}
			if c.Modulus < 2 {
				return fmt.Errorf("gate %d (cmulmod): modulus %d invalid", i, c.Modulus)
			}
			if numtheory.GCD(g.Factor%c.Modulus, c.Modulus) != 1 {
				return fmt.Errorf("gate %d (cmulmod): factor %d not a unit mod %d", i, g.Factor, c.Modulus)
			}
		case Measure:
			for _, q := range g.Targets {
				if !inRange(q) {
					return fmt.Errorf("gate %d (measure): qubit %d out of range", i, q)
				}
			}
		default:
			return fmt.Errorf("gate %d: unknown kind %q", i, g.Kind)
		}
	}
	return nil
}
