package solver_test

import (
	"errors"
	"math"
	"testing"

	"github.com/meenmo/hwlib/solver"
)

func TestBrent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		f    func(float64) float64
		a, b float64
		want float64
	}{
		{"sqrt2", func(x float64) float64 { return x*x - 2 }, 0, 2, math.Sqrt2},
		{"cos", math.Cos, 0, 3, math.Pi / 2},
		{"cubic", func(x float64) float64 { return x*x*x - x - 1 }, 1, 2, 1.324717957244746},
		{"rootAtEnd", func(x float64) float64 { return x - 1 }, 0, 1, 1},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := solver.Brent(tc.f, tc.a, tc.b, 1e-12)
			if err != nil {
				t.Fatalf("Brent: %v", err)
			}
			if math.Abs(got-tc.want) > 1e-11 {
				t.Fatalf("root mismatch: got %.15f want %.15f", got, tc.want)
			}
		})
	}
}

func TestBrentNoSignChange(t *testing.T) {
	t.Parallel()

	_, err := solver.Brent(func(x float64) float64 { return x*x + 1 }, -1, 1, 1e-8)
	if !errors.Is(err, solver.ErrRootNotFound) {
		t.Fatalf("expected ErrRootNotFound, got %v", err)
	}
	if !errors.Is(err, solver.ErrNonConvergence) {
		t.Fatalf("ErrRootNotFound should match ErrNonConvergence, got %v", err)
	}
}

func TestSolveTridiagonal(t *testing.T) {
	t.Parallel()

	m := solver.Tridiagonal{
		Lower: []float64{0, -1, -1, -1},
		Diag:  []float64{4, 4, 4, 4},
		Upper: []float64{-1, -1, -1, 0},
	}
	want := []float64{1, 2, 3, 4}
	rhs, err := m.MulVec(nil, want)
	if err != nil {
		t.Fatalf("MulVec: %v", err)
	}
	if err := m.CheckDominance(); err != nil {
		t.Fatalf("CheckDominance: %v", err)
	}

	owned := solver.Tridiagonal{
		Lower: append([]float64(nil), m.Lower...),
		Diag:  append([]float64(nil), m.Diag...),
		Upper: append([]float64(nil), m.Upper...),
	}
	got, err := solver.SolveTridiagonal(owned, rhs)
	if err != nil {
		t.Fatalf("SolveTridiagonal: %v", err)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-13 {
			t.Fatalf("x[%d] mismatch: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestSolveTridiagonalZeroPivot(t *testing.T) {
	t.Parallel()

	m := solver.Tridiagonal{
		Lower: []float64{0, 1},
		Diag:  []float64{1, 1},
		Upper: []float64{1, 0},
	}
	_, err := solver.SolveTridiagonal(m, []float64{1, 1})
	if !errors.Is(err, solver.ErrIllConditioned) {
		t.Fatalf("expected ErrIllConditioned, got %v", err)
	}
}

func TestCheckDominanceRejects(t *testing.T) {
	t.Parallel()

	m := solver.Tridiagonal{
		Lower: []float64{0, 3, 1},
		Diag:  []float64{1, 1, 1},
		Upper: []float64{3, 1, 0},
	}
	if err := m.CheckDominance(); !errors.Is(err, solver.ErrIllConditioned) {
		t.Fatalf("expected ErrIllConditioned, got %v", err)
	}
}

func TestTridiagonalShapeMismatch(t *testing.T) {
	t.Parallel()

	m := solver.NewTridiagonal(3)
	if _, err := solver.SolveTridiagonal(m, []float64{1, 2}); !errors.Is(err, solver.ErrBadInput) {
		t.Fatalf("expected ErrBadInput, got %v", err)
	}
}
