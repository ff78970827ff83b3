package methods

import (
	"fmt"

	"github.com/meenmo/hwlib/spline"
)

// breakEvenGap is the distance, in grid spacings, below which a knot is
// merged into the break-even point.
const breakEvenGap = 1e-8

// BreakEven splits the integration domain at the exercise boundary, where
// the value function has a kink, and integrates both sides separately.
type BreakEven struct {
	method RangeIntegrator
}

// NewBreakEven wraps a density integration.
func NewBreakEven(m RangeIntegrator) *BreakEven {
	return &BreakEven{method: m}
}

// States delegates to the wrapped method.
func (b *BreakEven) States(t float64) (State, error) {
	return b.method.States(t)
}

// RollBack locates the first root x* of the spline of u1 - h1. Without a root
// it delegates. Otherwise the states below and above x* are rolled back
// separately with x* added to both sides at the common value
// V* = spline(u1)(x*), and the two results are summed.
func (b *BreakEven) RollBack(t0, t1 float64, x1 State, u1, h1 []float64) (State, []float64, error) {
	if err := CheckRollBack(t0, t1, x1, u1, h1); err != nil {
		return nil, nil, fmt.Errorf("BreakEven.RollBack: %w", err)
	}
	xs := x1.Factor()
	n := len(xs)
	if n < 2 || b.method.Model().Variance(t0, t1) == 0 {
		return b.method.RollBack(t0, t1, x1, u1, h1)
	}

	diff := make([]float64, n)
	for i := range diff {
		diff[i] = u1[i] - h1[i]
	}
	ds, err := spline.New(xs, diff)
	if err != nil {
		return nil, nil, fmt.Errorf("BreakEven.RollBack: %w", err)
	}
	roots, err := ds.Roots()
	if err != nil {
		return nil, nil, fmt.Errorf("BreakEven.RollBack: %w", err)
	}
	if len(roots) == 0 {
		return b.method.RollBack(t0, t1, x1, u1, h1)
	}
	xStar := roots[0]
	us, err := spline.New(xs, u1)
	if err != nil {
		return nil, nil, fmt.Errorf("BreakEven.RollBack: %w", err)
	}
	vStar := us.Eval(xStar)

	gap := breakEvenGap * (xs[n-1] - xs[0]) / float64(n-1)
	var lx, lu, lh, ux, uu, uh []float64
	for i, x := range xs {
		if x < xStar-gap {
			lx, lu, lh = append(lx, x), append(lu, u1[i]), append(lh, h1[i])
		}
	}
	lx, lu, lh = append(lx, xStar), append(lu, vStar), append(lh, vStar)
	ux, uu, uh = []float64{xStar}, []float64{vStar}, []float64{vStar}
	for i, x := range xs {
		if x > xStar+gap {
			ux, uu, uh = append(ux, x), append(uu, u1[i]), append(uh, h1[i])
		}
	}

	x0, lower, err := b.method.RollBackRange(t0, t1, GridState(lx), lu, lh)
	if err != nil {
		return nil, nil, fmt.Errorf("BreakEven.RollBack: lower range: %w", err)
	}
	_, upper, err := b.method.RollBackRange(t0, t1, GridState(ux), uu, uh)
	if err != nil {
		return nil, nil, fmt.Errorf("BreakEven.RollBack: upper range: %w", err)
	}
	for i := range lower {
		lower[i] += upper[i]
	}
	return x0, lower, nil
}
