// Package spline provides a not-a-knot cubic spline with access to its
// per-segment polynomial coefficients and real roots.
package spline

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/interp"

	"github.com/meenmo/hwlib/solver"
)

// Cubic is a piecewise cubic interpolant. On segment i,
//
//	s(x) = c[0] + c[1] d + c[2] d^2 + c[3] d^3,  d = x - xs[i].
//
// Outside the knots the end polynomials are extrapolated.
type Cubic struct {
	xs     []float64
	coeffs [][4]float64
	// constant value when there is a single knot
	y0 float64
}

// New fits the spline through (xs, ys). xs must be strictly increasing.
// Four or more knots give the not-a-knot cubic, three the interpolating
// parabola, two the line through them and one a constant.
func New(xs, ys []float64) (*Cubic, error) {
	n := len(xs)
	if n == 0 || n != len(ys) {
		return nil, fmt.Errorf("spline.New: %d knots and %d values: %w", n, len(ys), solver.ErrBadInput)
	}
	for i := 1; i < n; i++ {
		if !(xs[i] > xs[i-1]) {
			return nil, fmt.Errorf("spline.New: knots not strictly increasing at %d: %w", i, solver.ErrBadInput)
		}
	}
	for i, y := range ys {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return nil, fmt.Errorf("spline.New: value %d is not finite: %w", i, solver.ErrBadInput)
		}
	}

	s := &Cubic{xs: append([]float64(nil), xs...)}
	switch {
	case n == 1:
		s.y0 = ys[0]
	case n == 2:
		slope := (ys[1] - ys[0]) / (xs[1] - xs[0])
		s.coeffs = [][4]float64{{ys[0], slope, 0, 0}}
	case n == 3:
		s.coeffs = parabola(xs, ys)
	default:
		var nak interp.NotAKnotCubic
		if err := nak.Fit(xs, ys); err != nil {
			return nil, fmt.Errorf("spline.New: %v: %w", err, solver.ErrIllConditioned)
		}
		s.coeffs = hermiteCoefficients(xs, ys, &nak)
	}
	return s, nil
}

// parabola returns the quadratic through three points in segment form.
func parabola(xs, ys []float64) [][4]float64 {
	h0, h1 := xs[1]-xs[0], xs[2]-xs[1]
	m0, m1 := (ys[1]-ys[0])/h0, (ys[2]-ys[1])/h1
	c2 := (m1 - m0) / (h0 + h1)
	b0 := m0 - c2*h0
	b1 := b0 + 2*c2*h0
	return [][4]float64{
		{ys[0], b0, c2, 0},
		{ys[1], b1, c2, 0},
	}
}

// hermiteCoefficients rebuilds each segment from the fitted values and first
// derivatives at its two knots, which determine a cubic uniquely.
func hermiteCoefficients(xs, ys []float64, nak *interp.NotAKnotCubic) [][4]float64 {
	n := len(xs)
	d := make([]float64, n)
	for i, x := range xs {
		d[i] = nak.PredictDerivative(x)
	}
	coeffs := make([][4]float64, n-1)
	for i := 0; i < n-1; i++ {
		h := xs[i+1] - xs[i]
		slope := (ys[i+1] - ys[i]) / h
		coeffs[i] = [4]float64{
			ys[i],
			d[i],
			(3*slope - 2*d[i] - d[i+1]) / h,
			(d[i] + d[i+1] - 2*slope) / (h * h),
		}
	}
	return coeffs
}

// Knots returns the interpolation abscissae.
func (s *Cubic) Knots() []float64 { return s.xs }

// Segments returns the number of polynomial pieces.
func (s *Cubic) Segments() int { return len(s.coeffs) }

// Coefficients returns the local coefficients of segment i.
func (s *Cubic) Coefficients(i int) [4]float64 { return s.coeffs[i] }

func (s *Cubic) segment(x float64) int {
	i := sort.SearchFloat64s(s.xs, x) - 1
	return max(0, min(i, len(s.coeffs)-1))
}

// Eval returns the spline value at x.
func (s *Cubic) Eval(x float64) float64 {
	if len(s.coeffs) == 0 {
		return s.y0
	}
	i := s.segment(x)
	return horner(s.coeffs[i], x-s.xs[i])
}

func horner(c [4]float64, d float64) float64 {
	return ((c[3]*d+c[2])*d+c[1])*d + c[0]
}

// Roots returns the real roots of the spline inside [xs[0], xs[n-1]] in
// ascending order. Segments on which the spline vanishes identically are
// skipped.
func (s *Cubic) Roots() ([]float64, error) {
	var roots []float64
	add := func(r float64) {
		if len(roots) == 0 || r-roots[len(roots)-1] > rootSeparation*(1+math.Abs(r)) {
			roots = append(roots, r)
		}
	}
	for i, c := range s.coeffs {
		if c == [4]float64{} {
			continue
		}
		h := s.xs[i+1] - s.xs[i]
		cuts := append([]float64{0}, criticalPoints(c, h)...)
		cuts = append(cuts, h)
		for k := 1; k < len(cuts); k++ {
			lo, hi := cuts[k-1], cuts[k]
			flo, fhi := horner(c, lo), horner(c, hi)
			switch {
			case flo == 0:
				add(s.xs[i] + lo)
			case fhi == 0:
				add(s.xs[i] + hi)
			case math.Signbit(flo) != math.Signbit(fhi):
				d, err := solver.Brent(func(d float64) float64 { return horner(c, d) }, lo, hi, rootTolerance*math.Max(h, 1))
				if err != nil {
					return nil, fmt.Errorf("spline.Roots: segment %d: %w", i, err)
				}
				add(s.xs[i] + d)
			}
		}
	}
	return roots, nil
}

const (
	rootTolerance  = 1e-15
	rootSeparation = 1e-13
)

// criticalPoints returns the stationary points of the local cubic strictly
// inside (0, h), ascending.
func criticalPoints(c [4]float64, h float64) []float64 {
	// p'(d) = c1 + 2 c2 d + 3 c3 d^2
	a, b, q := 3*c[3], 2*c[2], c[1]
	var pts []float64
	switch {
	case a == 0 && b == 0:
		return nil
	case a == 0:
		pts = []float64{-q / b}
	default:
		disc := b*b - 4*a*q
		if disc < 0 {
			return nil
		}
		sq := math.Sqrt(disc)
		// numerically stable pair
		t := -0.5 * (b + math.Copysign(sq, b))
		r1 := t / a
		r2 := r1
		if t != 0 {
			r2 = q / t
		}
		pts = []float64{math.Min(r1, r2), math.Max(r1, r2)}
	}
	inside := pts[:0]
	for _, p := range pts {
		if p > 0 && p < h {
			inside = append(inside, p)
		}
	}
	return inside
}
