// Package model implements the one-factor Hull-White short-rate model in the
// x-parametrisation r(t) = f(0,t) + x(t), x(0) = 0, with piecewise constant
// volatility.
package model

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"

	"github.com/meenmo/hwlib/curve"
	"github.com/meenmo/hwlib/solver"
)

// Measure selects the simulation measure of the process interface. The
// analytic formulas are the same under both.
type Measure int

const (
	// RiskNeutral uses the continuously compounded bank account.
	RiskNeutral Measure = iota
	// RollingForward uses the discretely compounded bank account over the
	// simulation grid, i.e. the rolling T-forward measure.
	RollingForward
)

func (m Measure) String() string {
	if m == RollingForward {
		return "rolling-forward"
	}
	return "risk-neutral"
}

// simpsonNodes is the number of nodes per volatility segment in the drift
// integral of the risk-neutral expectation.
const simpsonNodes = 9

// HullWhite holds the model parameters and y(t) at the volatility knots.
// It is immutable after construction and safe for concurrent use.
type HullWhite struct {
	curve         curve.YieldCurve
	meanReversion float64
	volTimes      []float64
	volValues     []float64
	// y at volTimes
	yKnots  []float64
	measure Measure
}

// Option configures a HullWhite model.
type Option func(*HullWhite)

// WithMeasure selects the simulation measure.
func WithMeasure(m Measure) Option {
	return func(hw *HullWhite) {
		hw.measure = m
	}
}

// NewHullWhite builds the model. Volatility values[i] applies on
// (times[i-1], times[i]] and the last value is extrapolated flat.
func NewHullWhite(c curve.YieldCurve, meanReversion float64, volTimes, volValues []float64, opts ...Option) (*HullWhite, error) {
	if c == nil {
		return nil, fmt.Errorf("NewHullWhite: yield curve is required: %w", solver.ErrBadInput)
	}
	if math.IsNaN(meanReversion) || math.IsInf(meanReversion, 0) {
		return nil, fmt.Errorf("NewHullWhite: mean reversion must be finite: %w", solver.ErrBadInput)
	}
	if len(volTimes) == 0 || len(volTimes) != len(volValues) {
		return nil, fmt.Errorf("NewHullWhite: %d volatility times and %d values: %w",
			len(volTimes), len(volValues), solver.ErrBadInput)
	}
	prev := 0.0
	for i, t := range volTimes {
		if !(t > prev) {
			return nil, fmt.Errorf("NewHullWhite: volatility times must be positive and strictly increasing (index %d): %w", i, solver.ErrBadInput)
		}
		if !(volValues[i] >= 0) {
			return nil, fmt.Errorf("NewHullWhite: volatility %d must be non-negative: %w", i, solver.ErrBadInput)
		}
		prev = t
	}

	hw := &HullWhite{
		curve:         c,
		meanReversion: meanReversion,
		volTimes:      append([]float64(nil), volTimes...),
		volValues:     append([]float64(nil), volValues...),
		yKnots:        make([]float64, len(volTimes)),
	}
	for _, opt := range opts {
		opt(hw)
	}

	// y(t_i) = G'(t_{i-1},t_i)^2 y(t_{i-1}) + sigma_i^2 (1 - e^{-2a(t_i - t_{i-1})}) / (2a)
	t0, y0 := 0.0, 0.0
	for i, t1 := range hw.volTimes {
		hw.yKnots[i] = hw.yStep(t0, y0, t1, hw.volValues[i])
		t0, y0 = t1, hw.yKnots[i]
	}
	return hw, nil
}

// Curve returns the initial yield curve.
func (hw *HullWhite) Curve() curve.YieldCurve { return hw.curve }

// MeanReversion returns a.
func (hw *HullWhite) MeanReversion() float64 { return hw.meanReversion }

// Measure returns the simulation measure.
func (hw *HullWhite) Measure() Measure { return hw.measure }

// segment returns idx with volTimes[idx-1] < t <= volTimes[idx].
func (hw *HullWhite) segment(t float64) int {
	return sort.SearchFloat64s(hw.volTimes, t)
}

// Sigma returns the short-rate volatility in force at t.
func (hw *HullWhite) Sigma(t float64) float64 {
	return hw.volValues[min(hw.segment(t), len(hw.volValues)-1)]
}

// G returns (1 - e^{-a(T-t)}) / a, or T - t when a = 0.
func (hw *HullWhite) G(t, T float64) float64 {
	return decayIntegral(hw.meanReversion, T-t)
}

// GPrime returns e^{-a(T-t)}.
func (hw *HullWhite) GPrime(t, T float64) float64 {
	return math.Exp(-hw.meanReversion * (T - t))
}

// decayIntegral returns int_0^d e^{-a u} du.
func decayIntegral(a, d float64) float64 {
	if a == 0 {
		return d
	}
	return -math.Expm1(-a*d) / a
}

func (hw *HullWhite) yStep(t0, y0, t1, sigma float64) float64 {
	gp := hw.GPrime(t0, t1)
	return gp*gp*y0 + sigma*sigma*decayIntegral(2*hw.meanReversion, t1-t0)
}

// Y returns the auxiliary variance y(t) = int_0^t e^{-2a(t-u)} sigma(u)^2 du.
func (hw *HullWhite) Y(t float64) float64 {
	idx := hw.segment(t)
	t0, y0 := 0.0, 0.0
	if idx > 0 {
		t0, y0 = hw.volTimes[idx-1], hw.yKnots[idx-1]
	}
	return hw.yStep(t0, y0, t, hw.volValues[min(idx, len(hw.volValues)-1)])
}

// RiskNeutralExpectation returns E^Q[x(T) | x(t) = x]
//
//	G'(t,T) x + int_t^T G'(u,T) y(u) du
//
// with the integral evaluated by composite Simpson on each volatility segment.
func (hw *HullWhite) RiskNeutralExpectation(t, x, T float64) float64 {
	return hw.GPrime(t, T)*x + hw.driftIntegral(t, T)
}

func (hw *HullWhite) driftIntegral(t, T float64) float64 {
	if T <= t {
		return 0
	}
	f := func(u float64) float64 { return hw.GPrime(u, T) * hw.Y(u) }

	// split at the volatility knots where y has a kink
	cuts := []float64{t}
	for _, k := range hw.volTimes {
		if k > t && k < T {
			cuts = append(cuts, k)
		}
	}
	cuts = append(cuts, T)

	us := make([]float64, simpsonNodes)
	fs := make([]float64, simpsonNodes)
	total := 0.0
	for i := 1; i < len(cuts); i++ {
		floats.Span(us, cuts[i-1], cuts[i])
		for j, u := range us {
			fs[j] = f(u)
		}
		total += integrate.Simpsons(us, fs)
	}
	return total
}

// ForwardExpectation returns E^T[x(T) | x(t) = x] under the T-forward measure.
func (hw *HullWhite) ForwardExpectation(t, x, T float64) float64 {
	return hw.GPrime(t, T) * (x + hw.G(t, T)*hw.Y(t))
}

// Variance returns Var[x(T) | x(t)], the same under every measure.
func (hw *HullWhite) Variance(t, T float64) float64 {
	gp := hw.GPrime(t, T)
	return math.Max(hw.Y(T)-gp*gp*hw.Y(t), 0)
}

// ZeroBond returns P(t, T) given x(t) = x.
func (hw *HullWhite) ZeroBond(t, x, T float64) float64 {
	g := hw.G(t, T)
	return hw.curve.Discount(T) / hw.curve.Discount(t) * math.Exp(-g*x-0.5*g*g*hw.Y(t))
}

// ForwardRate returns the instantaneous forward f(t, T) given x(t) = x.
func (hw *HullWhite) ForwardRate(t, x, T float64) float64 {
	return hw.curve.ForwardRate(T) + hw.GPrime(t, T)*(x+hw.G(t, T)*hw.Y(t))
}

// ShortRate returns r(t) = f(0,t) + x.
func (hw *HullWhite) ShortRate(t, x float64) float64 {
	return hw.curve.ForwardRate(t) + x
}
