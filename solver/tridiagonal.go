package solver

import (
	"fmt"
	"math"
)

// Tridiagonal is an n×n matrix stored by its three bands. Row i reads
//
//	Lower[i]*v[i-1] + Diag[i]*v[i] + Upper[i]*v[i+1]
//
// so Lower[0] and Upper[n-1] are ignored.
type Tridiagonal struct {
	Lower []float64
	Diag  []float64
	Upper []float64
}

// NewTridiagonal allocates zero bands of size n.
func NewTridiagonal(n int) Tridiagonal {
	return Tridiagonal{
		Lower: make([]float64, n),
		Diag:  make([]float64, n),
		Upper: make([]float64, n),
	}
}

// Size returns the matrix dimension.
func (m Tridiagonal) Size() int {
	return len(m.Diag)
}

func (m Tridiagonal) validate(n int) error {
	if len(m.Diag) == 0 {
		return fmt.Errorf("Tridiagonal: empty matrix: %w", ErrBadInput)
	}
	if len(m.Lower) != len(m.Diag) || len(m.Upper) != len(m.Diag) {
		return fmt.Errorf("Tridiagonal: band lengths %d/%d/%d differ: %w",
			len(m.Lower), len(m.Diag), len(m.Upper), ErrBadInput)
	}
	if n != len(m.Diag) {
		return fmt.Errorf("Tridiagonal: vector length %d, matrix size %d: %w", n, len(m.Diag), ErrBadInput)
	}
	return nil
}

// MulVec returns m*v in dst, allocating when dst is nil. dst must not alias v.
func (m Tridiagonal) MulVec(dst, v []float64) ([]float64, error) {
	if err := m.validate(len(v)); err != nil {
		return nil, err
	}
	n := len(v)
	if dst == nil {
		dst = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		s := m.Diag[i] * v[i]
		if i > 0 {
			s += m.Lower[i] * v[i-1]
		}
		if i < n-1 {
			s += m.Upper[i] * v[i+1]
		}
		dst[i] = s
	}
	return dst, nil
}

// CheckDominance verifies weak diagonal dominance in every row and strict
// dominance in at least one. The Thomas algorithm is stable under this
// condition; without it the unpivoted elimination may amplify round-off or
// hit a zero pivot.
func (m Tridiagonal) CheckDominance() error {
	if err := m.validate(len(m.Diag)); err != nil {
		return err
	}
	n := len(m.Diag)
	strict := false
	for i := 0; i < n; i++ {
		off := 0.0
		if i > 0 {
			off += math.Abs(m.Lower[i])
		}
		if i < n-1 {
			off += math.Abs(m.Upper[i])
		}
		d := math.Abs(m.Diag[i])
		if d < off {
			return fmt.Errorf("Tridiagonal: row %d not diagonally dominant (|d|=%g, off=%g): %w", i, d, off, ErrIllConditioned)
		}
		if d > off {
			strict = true
		}
	}
	if !strict {
		return fmt.Errorf("Tridiagonal: no strictly dominant row: %w", ErrIllConditioned)
	}
	return nil
}

// SolveTridiagonal solves m*x = rhs with the Thomas algorithm (LU without
// pivoting). It takes ownership of m's bands and of rhs: both are
// overwritten, and the returned solution shares rhs's backing array.
// Callers that need the inputs afterwards must pass copies.
//
// A zero pivot returns an error wrapping ErrIllConditioned. Non-zero but
// tiny pivots are not detected; use CheckDominance beforehand when the
// system is not known to be dominant.
func SolveTridiagonal(m Tridiagonal, rhs []float64) ([]float64, error) {
	if err := m.validate(len(rhs)); err != nil {
		return nil, err
	}
	n := len(rhs)
	lo, d, up := m.Lower, m.Diag, m.Upper

	if d[0] == 0 {
		return nil, fmt.Errorf("SolveTridiagonal: zero pivot at row 0: %w", ErrIllConditioned)
	}
	// forward elimination, d holds the U diagonal and lo the L multipliers
	for i := 1; i < n; i++ {
		lo[i] /= d[i-1]
		d[i] -= lo[i] * up[i-1]
		if d[i] == 0 {
			return nil, fmt.Errorf("SolveTridiagonal: zero pivot at row %d: %w", i, ErrIllConditioned)
		}
		rhs[i] -= lo[i] * rhs[i-1]
	}
	// back substitution
	rhs[n-1] /= d[n-1]
	for i := n - 2; i >= 0; i-- {
		rhs[i] = (rhs[i] - up[i]*rhs[i+1]) / d[i]
	}
	return rhs, nil
}
