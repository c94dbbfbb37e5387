package circuit

import "math"

// AppendQFT appends a quantum Fourier transform over reg: for each
// qubit from most significant down, a Hadamard followed by controlled
// phases from the lower qubits, then a bit-reversal swap chain.
func (c *Circuit) AppendQFT(reg Register) {
	for i := reg.Size - 1; i >= 0; i-- {
		c.H(reg.Qubit(i))
		for j := i - 1; j >= 0; j-- {
			angle := math.Pi / float64(uint64(1)<<(i-j))
			c.CP(reg.Qubit(j), reg.Qubit(i), angle)
		}
	}
	for i := 0; i < reg.Size/2; i++ {
		c.SwapQubits(reg.Qubit(i), reg.Qubit(reg.Size-1-i))
	}
}

// AppendInverseQFT appends the inverse Fourier transform over reg:
// the QFT's gates in reverse order with negated phase angles.
func (c *Circuit) AppendInverseQFT(reg Register) {
	for i := 0; i < reg.Size/2; i++ {
		c.SwapQubits(reg.Qubit(i), reg.Qubit(reg.Size-1-i))
	}
	for i := 0; i < reg.Size; i++ {
		for j := 0; j < i; j++ {
			angle := -math.Pi / float64(uint64(1)<<(i-j))
			c.CP(reg.Qubit(j), reg.Qubit(i), angle)
		}
		c.H(reg.Qubit(i))
	}
}
