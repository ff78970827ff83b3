// Package curve provides the deterministic yield curves the short-rate model
// is fitted to. Times are year fractions from the curve's reference date.
package curve

import (
	"errors"
	"math"
)

// YieldCurve is the term structure consumed by the Hull-White model.
// Discount must be positive for every t >= 0 used in a run.
type YieldCurve interface {
	Discount(t float64) float64
	ForwardRate(t float64) float64
}

var (
	// ErrEmptyCurve is returned when a curve has no pillars.
	ErrEmptyCurve = errors.New("curve: no pillars")
	// ErrUnsortedPillars is returned when pillar times are not strictly increasing.
	ErrUnsortedPillars = errors.New("curve: pillar times must be strictly increasing and positive")
)

// Flat is a flat continuously compounded curve, mainly used for testing.
type Flat struct {
	Rate float64
}

// NewFlat returns a flat curve at rate.
func NewFlat(rate float64) Flat {
	return Flat{Rate: rate}
}

// Discount returns exp(-rate*t).
func (f Flat) Discount(t float64) float64 {
	return math.Exp(-f.Rate * t)
}

// ForwardRate returns the flat rate.
func (f Flat) ForwardRate(float64) float64 {
	return f.Rate
}

// ZeroRate returns the continuously compounded zero rate to t.
func ZeroRate(c YieldCurve, t float64) float64 {
	if t <= 0 {
		return c.ForwardRate(0)
	}
	return -math.Log(c.Discount(t)) / t
}
