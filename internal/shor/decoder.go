package shor

import "fmt"

// DecodePhase recovers a candidate order from a phase-estimation
// sample. The measured value approximates 2^bits * s/r for an unknown
// integer s and the order r; the continued-fraction expansion of
// sample/2^bits is walked convergent by convergent and the denominator
// of the last convergent not exceeding bound is returned.
//
// A zero sample carries no phase information, and a bound below every
// admissible denominator leaves nothing to return; both cases yield
// ErrDecodeFailure so the caller can re-run the circuit.
func DecodePhase(sample uint64, bits int, bound uint64) (uint64, error) {
	if bits <= 0 || bits > 63 {
		return 0, fmt.Errorf("decode phase: bits %d out of range", bits)
	}
	if sample == 0 {
		return 0, fmt.Errorf("%w: zero sample", ErrDecodeFailure)
	}
	modulus := uint64(1) << bits
	if sample >= modulus {
		return 0, fmt.Errorf("decode phase: sample %d exceeds %d bits", sample, bits)
	}

	// Convergent denominators q_k follow q_k = a_k*q_{k-1} + q_{k-2}
	// with the partial quotients a_k from Euclid on (sample, 2^bits).
	var (
		num, den = sample, modulus
		qPrev, q = uint64(1), uint64(0)
		best     uint64
	)
	for den != 0 {
		a := num / den
		num, den = den, num%den

		qPrev, q = q, a*q+qPrev
		if q > bound {
			break
		}
		if q > 1 {
			best = q
		}
	}
	if best == 0 {
		return 0, fmt.Errorf("%w: no convergent denominator within bound %d", ErrDecodeFailure, bound)
	}
	return best, nil
}
