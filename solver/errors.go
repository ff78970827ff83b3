// Package solver holds the root finders, the tridiagonal solver and the error
// taxonomy shared by the pricing packages.
package solver

import (
	"errors"
	"fmt"
)

var (
	// ErrBadInput marks precondition violations: unsorted schedules,
	// mismatched shapes, non-finite parameters.
	ErrBadInput = errors.New("bad input")

	// ErrNonConvergence marks an iterative solver that stopped without
	// meeting its tolerance.
	ErrNonConvergence = errors.New("solver did not converge")

	// ErrRootNotFound marks a bracket without a sign change. It matches
	// ErrNonConvergence under errors.Is.
	ErrRootNotFound = fmt.Errorf("root not found: %w", ErrNonConvergence)

	// ErrIllConditioned marks degenerate numerics: rank-deficient
	// regressions, zero pivots, non-dominant tridiagonal systems.
	ErrIllConditioned = errors.New("ill-conditioned numerics")
)
