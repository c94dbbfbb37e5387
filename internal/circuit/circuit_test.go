package circuit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterLayout(t *testing.T) {
	reg := Register{Name: "work", Offset: 8, Size: 4}

	assert.Equal(t, 8, reg.Qubit(0))
	assert.Equal(t, 11, reg.Qubit(3))
	assert.Equal(t, uint64(0xF00), reg.Mask())
	assert.Equal(t, uint64(0xB), reg.Extract(0xB42))
}

func TestCircuitBuilders(t *testing.T) {
	c := &Circuit{
		Estimation: Register{Name: "estimation", Offset: 0, Size: 2},
		Work:       Register{Name: "work", Offset: 2, Size: 2},
		Modulus:    3,
	}

	c.H(0)
	c.X(2)
	c.CP(0, 1, math.Pi/2)
	c.CMul(1, 2)
	c.MeasureRegister(c.Estimation)

	require.Len(t, c.Gates, 5)
	assert.Equal(t, Hadamard, c.Gates[0].Kind)
	assert.Equal(t, PauliX, c.Gates[1].Kind)
	assert.Equal(t, CPhase, c.Gates[2].Kind)
	assert.Equal(t, uint64(2), c.Gates[3].Factor)
	assert.Equal(t, []int{0, 1}, c.Gates[4].Targets)
	assert.NoError(t, c.Validate())
}

func TestValidateRejectsBadGates(t *testing.T) {
	base := func() *Circuit {
		return &Circuit{
			Estimation: Register{Name: "estimation", Offset: 0, Size: 2},
			Work:       Register{Name: "work", Offset: 2, Size: 2},
			Modulus:    3,
		}
	}

	tests := []struct {
		name  string
		build func(c *Circuit)
	}{
		{"target out of range", func(c *Circuit) { c.H(7) }},
		{"negative target", func(c *Circuit) { c.X(-1) }},
		{"swap identical legs", func(c *Circuit) { c.SwapQubits(1, 1) }},
		{"cphase self control", func(c *Circuit) { c.CP(1, 1, math.Pi) }},
		{"cmulmod factor not unit", func(c *Circuit) { c.CMul(0, 3) }},
		{"cmulmod factor shares a divisor", func(c *Circuit) {
			c.Modulus = 15
			c.CMul(0, 5)
		}},
		{"measure out of range", func(c *Circuit) {
			c.Gates = append(c.Gates, Gate{Kind: Measure, Targets: []int{9}})
		}},
		{"unknown kind", func(c *Circuit) {
			c.Gates = append(c.Gates, Gate{Kind: "toffoli"})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.build(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestValidateRejectsOverlappingRegisters(t *testing.T) {
	c := &Circuit{
		Estimation: Register{Name: "estimation", Offset: 0, Size: 3},
		Work:       Register{Name: "work", Offset: 2, Size: 2},
		Modulus:    3,
	}
	assert.Error(t, c.Validate())
}

func TestAppendQFTShape(t *testing.T) {
	c := &Circuit{Estimation: Register{Name: "estimation", Offset: 0, Size: 3}}
	c.AppendQFT(c.Estimation)

	// 3 Hadamards, 3 controlled phases, 1 bit-reversal swap.
	var h, cp, sw int
	for _, g := range c.Gates {
		switch g.Kind {
		case Hadamard:
			h++
		case CPhase:
			cp++
		case Swap:
			sw++
		}
	}
	assert.Equal(t, 3, h)
	assert.Equal(t, 3, cp)
	assert.Equal(t, 1, sw)

	// Neighbouring qubits get a pi/2 rotation, distance two gets pi/4.
	assert.InDelta(t, math.Pi/2, c.Gates[1].Angle, 1e-12)
}

func TestInverseQFTMirrorsQFT(t *testing.T) {
	fwd := &Circuit{Estimation: Register{Name: "estimation", Offset: 0, Size: 4}}
	fwd.AppendQFT(fwd.Estimation)

	inv := &Circuit{Estimation: Register{Name: "estimation", Offset: 0, Size: 4}}
	inv.AppendInverseQFT(inv.Estimation)

	require.Len(t, inv.Gates, len(fwd.Gates))
	for i, g := range inv.Gates {
		mirror := fwd.Gates[len(fwd.Gates)-1-i]
		assert.Equal(t, mirror.Kind, g.Kind)
		if g.Kind == CPhase {
			assert.Equal(t, mirror.Control, g.Control)
			assert.Equal(t, mirror.Target, g.Target)
			assert.InDelta(t, -mirror.Angle, g.Angle, 1e-12)
		}
	}
}

func TestAppendOracle(t *testing.T) {
	c := &Circuit{
		Estimation: Register{Name: "estimation", Offset: 0, Size: 4},
		Work:       Register{Name: "work", Offset: 4, Size: 4},
		Modulus:    15,
	}
	require.NoError(t, c.AppendOracle(7))
	require.Len(t, c.Gates, 4)

	// Successive factors are 7^(2^k) mod 15: 7, 4, 1, 1.
	factors := []uint64{7, 4, 1, 1}
	for i, g := range c.Gates {
		assert.Equal(t, CMulMod, g.Kind)
		assert.Equal(t, i, g.Control)
		assert.Equal(t, factors[i], g.Factor)
	}
}

func TestAppendOracleRejectsSharedFactor(t *testing.T) {
	c := &Circuit{
		Estimation: Register{Name: "estimation", Offset: 0, Size: 4},
		Work:       Register{Name: "work", Offset: 4, Size: 4},
		Modulus:    15,
	}
	assert.Error(t, c.AppendOracle(6))
}

func TestOrderFinding(t *testing.T) {
	c, err := OrderFinding(7, 15)
	require.NoError(t, err)

	assert.Equal(t, 8, c.Estimation.Size)
	assert.Equal(t, 4, c.Work.Size)
	assert.Equal(t, 12, c.Qubits())
	assert.Equal(t, uint64(15), c.Modulus)
	assert.NoError(t, c.Validate())

	// Layout: Hadamards, |1> preparation, oracle, inverse QFT, measure.
	assert.Equal(t, Hadamard, c.Gates[0].Kind)
	assert.Equal(t, PauliX, c.Gates[8].Kind)
	assert.Equal(t, c.Work.Qubit(0), c.Gates[8].Target)
	assert.Equal(t, Measure, c.Gates[len(c.Gates)-1].Kind)
}

func TestOrderFindingRejectsSmallModulus(t *testing.T) {
	_, err := OrderFinding(2, 1)
	assert.Error(t, err)
}
