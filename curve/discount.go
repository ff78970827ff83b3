package curve

import (
	"fmt"
	"math"
)

// DiscountCurve interpolates discount factors log-linearly between pillars.
// The reference point (0, 1) is always a pillar.
type DiscountCurve struct {
	times []float64
	dfs   []float64
}

// NewDiscountCurve builds a curve from pillar times and discount factors.
func NewDiscountCurve(times, dfs []float64) (*DiscountCurve, error) {
	if err := checkPillars(times); err != nil {
		return nil, fmt.Errorf("NewDiscountCurve: %w", err)
	}
	if len(dfs) != len(times) {
		return nil, fmt.Errorf("NewDiscountCurve: %d times but %d discount factors", len(times), len(dfs))
	}
	c := &DiscountCurve{
		times: append([]float64{0}, times...),
		dfs:   append([]float64{1}, dfs...),
	}
	for i, df := range dfs {
		if !(df > 0) {
			return nil, fmt.Errorf("NewDiscountCurve: discount factor %d must be positive, got %v", i, df)
		}
	}
	return c, nil
}

func (c *DiscountCurve) bracketForward(t float64) (i1 int, fwd float64) {
	i1, i2 := findBracketOrBoundary(c.times, t)
	t1, t2 := c.times[i1], c.times[i2]
	return i1, math.Log(c.dfs[i1]/c.dfs[i2]) / (t2 - t1)
}

// Discount returns the log-linearly interpolated discount factor, with the
// boundary forward extrapolated flat.
func (c *DiscountCurve) Discount(t float64) float64 {
	i1, fwd := c.bracketForward(t)
	return c.dfs[i1] * math.Exp(-fwd*(t-c.times[i1]))
}

// ForwardRate returns the piecewise constant forward implied by log-linear
// interpolation.
func (c *DiscountCurve) ForwardRate(t float64) float64 {
	_, fwd := c.bracketForward(t)
	return fwd
}
