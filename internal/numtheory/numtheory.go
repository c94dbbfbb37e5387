// Package numtheory implements the modular arithmetic and primality
// routines that back the classical side of the factoring pipeline.
//
// All operations work on uint64 and are overflow-safe: products are
// computed with double-and-add reduction rather than relying on the
// native multiply, so moduli up to 2^63 are handled correctly.
package numtheory

import (
	"errors"
	"math"
	"math/bits"
)

// ErrDomain is returned when an argument falls outside the valid
// domain of an operation (for example a zero modulus).
var ErrDomain = errors.New("numtheory: argument out of domain")

// ErrNoInverse is returned by ModInverse when the element is not
// invertible modulo n.
var ErrNoInverse = errors.New("numtheory: element has no modular inverse")

// GCD returns the greatest common divisor of a and b using the binary
// Euclidean algorithm. GCD(0, 0) is defined as 0.
func GCD(a, b uint64) uint64 {
	if a == 0 {
		return b
	}
	if b == 0 {
		return a
	}
	shift := bits.TrailingZeros64(a | b)
	a >>= bits.TrailingZeros64(a)
	for {
		b >>= bits.TrailingZeros64(b)
		if a > b {
			a, b = b, a
		}
		b -= a
		if b == 0 {
			return a << shift
		}
	}
}

// MulMod returns (a * b) mod n without intermediate overflow.
func MulMod(a, b, n uint64) uint64 {
	if n == 0 {
		return 0
	}
	a %= n
	b %= n
	hi, lo := bits.Mul64(a, b)
	if hi == 0 {
		return lo % n
	}
	_, rem := bits.Div64(hi%n, lo, n)
	return rem
}

// ModPow returns base^exp mod n by binary exponentiation.
// It returns ErrDomain when n is zero.
func ModPow(base, exp, n uint64) (uint64, error) {
	if n == 0 {
		return 0, ErrDomain
	}
	if n == 1 {
		return 0, nil
	}
	result := uint64(1)
	base %= n
	for exp > 0 {
		if exp&1 == 1 {
			result = MulMod(result, base, n)
		}
		base = MulMod(base, base, n)
		exp >>= 1
	}
	return result, nil
}

// ModInverse returns the multiplicative inverse of a modulo n using
// the extended Euclidean algorithm. It returns ErrNoInverse when
// gcd(a, n) != 1 and ErrDomain when n < 2.
func ModInverse(a, n uint64) (uint64, error) {
	if n < 2 {
		return 0, ErrDomain
	}
	a %= n
	if GCD(a, n) != 1 {
		return 0, ErrNoInverse
	}
	// Signed bookkeeping is safe here: coefficients stay below n < 2^63
	// in magnitude for the moduli this package targets.
	var t, newT int64 = 0, 1
	var r, newR = n, a
	for newR != 0 {
		q := r / newR
		t, newT = newT, t-int64(q)*newT
		r, newR = newR, r-q*newR
	}
	if t < 0 {
		t += int64(n)
	}
	return uint64(t), nil
}

// IsPrime reports whether n is prime. It runs a deterministic
// Miller-Rabin test with a witness set proven sufficient for all
// 64-bit integers.
func IsPrime(n uint64) bool {
	if n < 2 {
		return false
	}
	for _, p := range []uint64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37} {
		if n == p {
			return true
		}
		if n%p == 0 {
			return false
		}
	}
	// n-1 = d * 2^s with d odd.
	d := n - 1
	s := bits.TrailingZeros64(d)
	d >>= s

	// Sinclair's witness set: deterministic for every n < 2^64.
	for _, a := range []uint64{2, 325, 9375, 28178, 450775, 9780504, 1795265022} {
		x, _ := ModPow(a%n, d, n)
		if x == 0 || x == 1 || x == n-1 {
			continue
		}
		composite := true
		for i := 0; i < s-1; i++ {
			x = MulMod(x, x, n)
			if x == n-1 {
				composite = false
				break
			}
		}
		if composite {
			return false
		}
	}
	return true
}

// PerfectPower reports whether n = base^exp for some base >= 2 and
// exp >= 2, returning the smallest such base and its exponent.
func PerfectPower(n uint64) (base uint64, exp uint64, ok bool) {
	if n < 4 {
		return 0, 0, false
	}
	maxExp := bits.Len64(n) // 2^maxExp > n, so no base fits beyond it
	for e := uint64(maxExp); e >= 2; e-- {
		b := integerRoot(n, e)
		if b < 2 {
			continue
		}
		if pow, overflow := checkedPow(b, e); !overflow && pow == n {
			return b, e, true
		}
	}
	return 0, 0, false
}

// integerRoot returns floor(n^(1/e)), refined from a floating-point
// seed to avoid precision artifacts near exact powers.
func integerRoot(n, e uint64) uint64 {
	if e == 1 {
		return n
	}
	guess := uint64(math.Round(math.Pow(float64(n), 1/float64(e))))
	if guess == 0 {
		return 0
	}
	// Walk the guess until b^e <= n < (b+1)^e.
	for guess > 1 {
		if pow, overflow := checkedPow(guess, e); overflow || pow > n {
			guess--
			continue
		}
		break
	}
	for {
		if pow, overflow := checkedPow(guess+1, e); !overflow && pow <= n {
			guess++
			continue
		}
		return guess
	}
}

// checkedPow computes b^e, reporting overflow instead of wrapping.
func checkedPow(b, e uint64) (uint64, bool) {
	result := uint64(1)
	for i := uint64(0); i < e; i++ {
		hi, lo := bits.Mul64(result, b)
		if hi != 0 {
			return 0, true
		}
		result = lo
	}
	return result, false
}

// MultiplicativeOrder returns the smallest r >= 1 with a^r = 1 mod n.
// It performs a direct scan and is intended for verification in tests
// and for the small moduli this simulator can reach; it returns
// ErrDomain when gcd(a, n) != 1 or n < 2.
func MultiplicativeOrder(a, n uint64) (uint64, error) {
	if n < 2 {
		return 0, ErrDomain
	}
	a %= n
	if GCD(a, n) != 1 {
		return 0, ErrDomain
	}
	x := a
	for r := uint64(1); r <= n; r++ {
		if x == 1 {
			return r, nil
		}
		x = MulMod(x, a, n)
	}
	return 0, ErrDomain
}
