package spline_test

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/meenmo/hwlib/solver"
	"github.com/meenmo/hwlib/spline"
)

func sample(f func(float64) float64, xs []float64) []float64 {
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = f(x)
	}
	return ys
}

func TestReproducesPolynomials(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		n    int
		f    func(float64) float64
	}{
		{"line", 2, func(x float64) float64 { return 2 - 3*x }},
		{"parabola", 3, func(x float64) float64 { return 1 + x - 0.5*x*x }},
		{"cubic", 7, func(x float64) float64 { return x*x*x - 2*x + 0.25 }},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			xs := floats.Span(make([]float64, tc.n), -1.5, 2)
			s, err := spline.New(xs, sample(tc.f, xs))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			// inside and beyond the knots
			for _, x := range []float64{-2.5, -1.5, -0.3, 0, 0.77, 2, 3} {
				if got, want := s.Eval(x), tc.f(x); math.Abs(got-want) > 1e-11 {
					t.Fatalf("Eval(%v) mismatch: got %v want %v", x, got, want)
				}
			}
		})
	}
}

func TestCoefficientsMatchEval(t *testing.T) {
	t.Parallel()

	xs := floats.Span(make([]float64, 11), 0, 2)
	s, err := spline.New(xs, sample(math.Exp, xs))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Segments() != 10 {
		t.Fatalf("segments mismatch: got %d", s.Segments())
	}
	for i := 0; i < s.Segments(); i++ {
		c := s.Coefficients(i)
		h := xs[i+1] - xs[i]
		end := c[0] + c[1]*h + c[2]*h*h + c[3]*h*h*h
		if math.Abs(end-math.Exp(xs[i+1])) > 1e-12 {
			t.Fatalf("segment %d does not reach the next knot: got %v want %v", i, end, math.Exp(xs[i+1]))
		}
		mid := xs[i] + h/2
		if math.Abs(s.Eval(mid)-math.Exp(mid)) > 1e-3 {
			t.Fatalf("Eval(%v) mismatch: got %v want %v", mid, s.Eval(mid), math.Exp(mid))
		}
	}
}

func TestRoots(t *testing.T) {
	t.Parallel()

	xs := floats.Span(make([]float64, 9), -2, 2)
	s, err := spline.New(xs, sample(func(x float64) float64 { return x*x*x - x }, xs))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	roots, err := s.Roots()
	if err != nil {
		t.Fatalf("Roots: %v", err)
	}
	want := []float64{-1, 0, 1}
	if len(roots) != len(want) {
		t.Fatalf("roots mismatch: got %v want %v", roots, want)
	}
	for i := range want {
		if math.Abs(roots[i]-want[i]) > 1e-10 {
			t.Fatalf("root %d mismatch: got %v want %v", i, roots[i], want[i])
		}
	}

	// a root between knots
	xs = floats.Span(make([]float64, 6), 0, 1)
	s, err = spline.New(xs, sample(func(x float64) float64 { return x - 0.33 }, xs))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	roots, err = s.Roots()
	if err != nil {
		t.Fatalf("Roots: %v", err)
	}
	if len(roots) != 1 || math.Abs(roots[0]-0.33) > 1e-12 {
		t.Fatalf("roots mismatch: got %v want [0.33]", roots)
	}

	// positive everywhere
	s, err = spline.New(xs, sample(func(x float64) float64 { return 1 + x*x }, xs))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if roots, _ = s.Roots(); len(roots) != 0 {
		t.Fatalf("expected no roots, got %v", roots)
	}
}

func TestSingleKnot(t *testing.T) {
	t.Parallel()

	s, err := spline.New([]float64{0}, []float64{4.2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Eval(-10) != 4.2 || s.Eval(3) != 4.2 {
		t.Fatalf("single knot should give a constant, got %v", s.Eval(3))
	}
	if roots, err := s.Roots(); err != nil || len(roots) != 0 {
		t.Fatalf("unexpected roots %v (%v)", roots, err)
	}
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	cases := map[string]struct{ xs, ys []float64 }{
		"empty":     {nil, nil},
		"mismatch":  {[]float64{0, 1}, []float64{0}},
		"unsorted":  {[]float64{0, 2, 1, 3}, []float64{0, 0, 0, 0}},
		"duplicate": {[]float64{0, 1, 1}, []float64{0, 0, 0}},
		"nan":       {[]float64{0, 1}, []float64{0, math.NaN()}},
	}
	for name, tc := range cases {
		if _, err := spline.New(tc.xs, tc.ys); !errors.Is(err, solver.ErrBadInput) {
			t.Fatalf("%s: expected ErrBadInput, got %v", name, err)
		}
	}
}
