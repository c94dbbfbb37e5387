package circuit

import (
	"fmt"
	"math/bits"

	"github.com/aristath/qfactor/internal/numtheory"
)

// AppendOracle appends the modular exponentiation oracle for base a
// modulo the circuit's Modulus: one controlled multiplication by
// a^(2^k) mod N for each estimation qubit k. With the estimation
// register in uniform superposition this entangles |x>|1> into
// |x>|a^x mod N>.
func (c *Circuit) AppendOracle(a uint64) error {
	n := c.Modulus
	if n < 2 {
		return fmt.Errorf("oracle: modulus %d invalid", n)
	}
	if numtheory.GCD(a%n, n) != 1 {
		return fmt.Errorf("oracle: base %d shares a factor with %d", a, n)
	}
	factor := a % n
	for k := 0; k < c.Estimation.Size; k++ {
		c.CMul(c.Estimation.Qubit(k), factor)
		factor = numtheory.MulMod(factor, factor, n)
	}
	return nil
}

// OrderFinding builds the complete phase-estimation circuit for the
// order of a modulo n: Hadamards across the estimation register, the
// work register prepared in |1>, the modular exponentiation oracle,
// the inverse QFT, and a measurement of the estimation register.
//
// The estimation register holds 2*ceil(log2 n) qubits so that
// 2^t >= n^2, which the continued-fraction decoder needs to resolve
// every possible order. The work register holds ceil(log2 n) qubits.
func OrderFinding(a, n uint64) (*Circuit, error) {
	if n < 2 {
		return nil, fmt.Errorf("order finding: modulus %d invalid", n)
	}
	m := bits.Len64(n - 1) // work qubits: smallest m with 2^m >= n
	t := 2 * m             // estimation qubits: 2^t >= n^2

	c := &Circuit{
		Estimation: Register{Name: "estimation", Offset: 0, Size: t},
		Work:       Register{Name: "work", Offset: t, Size: m},
		Modulus:    n,
	}

	for k := 0; k < t; k++ {
		c.H(c.Estimation.Qubit(k))
	}
	c.X(c.Work.Qubit(0)) // work register starts in |1>
	if err := c.AppendOracle(a); err != nil {
		return nil, err
	}
	c.AppendInverseQFT(c.Estimation)
	c.MeasureRegister(c.Estimation)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
