// Package shor implements the factoring pipeline: continued-fraction
// phase decoding, quantum order finding against a simulation backend,
// and the classical control loop that turns orders into factors.
package shor

import "errors"

var (
	// ErrInvalidInput rejects inputs the algorithm cannot factor:
	// n < 2 and primes.
	ErrInvalidInput = errors.New("shor: input cannot be factored")

	// ErrInvalidBase rejects bases outside [2, n-2] or sharing a
	// factor with n where a coprime base is required.
	ErrInvalidBase = errors.New("shor: invalid base")

	// ErrDecodeFailure signals that a measured sample yielded no
	// admissible continued-fraction convergent. Callers retry.
	ErrDecodeFailure = errors.New("shor: phase sample decoded to no candidate order")

	// ErrOrderNotFound signals that order finding exhausted its retry
	// budget without an accepted order.
	ErrOrderNotFound = errors.New("shor: order not found within retry budget")

	// ErrFactorizationFailed signals that the driver exhausted its
	// attempts without producing a nontrivial factor pair.
	ErrFactorizationFailed = errors.New("shor: factorization failed")
)
