package model

import "math"

// State layout of the simulated process.
const (
	// FactorIndex is the row of x(t).
	FactorIndex = 0
	// IntegralIndex is the row of s(t), the log of the bank account
	// relative to the initial curve.
	IntegralIndex = 1
)

// Size returns the state dimension [x, s].
func (hw *HullWhite) Size() int { return 2 }

// Factors returns the number of Brownian drivers.
func (hw *HullWhite) Factors() int { return 1 }

// InitialValues returns x(0) = s(0) = 0.
func (hw *HullWhite) InitialValues() []float64 { return []float64{0, 0} }

// Evolve advances every path (column) of x0 from t0 to t0+dt with standard
// normal increments dW and writes into x1. Rows follow Size and Factors.
//
// Risk neutral: x is sampled exactly from its Gaussian transition and
// s(t) = int_0^t x(u) du accumulates by the trapezoidal rule.
//
// Rolling forward: x is sampled under the (t0+dt)-forward measure and
// s accumulates -log P(t0, t0+dt), so exp(s) is the discrete bank account.
func (hw *HullWhite) Evolve(t0, dt float64, x0, dW, x1 [][]float64) {
	t1 := t0 + dt
	nu := math.Sqrt(hw.Variance(t0, t1))
	gp := hw.GPrime(t0, t1)
	xs, ss := x0[FactorIndex], x0[IntegralIndex]
	xe, se := x1[FactorIndex], x1[IntegralIndex]
	dw := dW[0]

	switch hw.measure {
	case RollingForward:
		g := hw.G(t0, t1)
		y0 := hw.Y(t0)
		shift := gp * g * y0
		// -log P(t0, x, t1) = -log(D1/D0) + g x + g^2 y0 / 2
		logDF := math.Log(hw.curve.Discount(t1) / hw.curve.Discount(t0))
		for p := range xs {
			xe[p] = gp*xs[p] + shift + nu*dw[p]
			se[p] = ss[p] - logDF + g*xs[p] + 0.5*g*g*y0
		}
	default:
		drift := hw.driftIntegral(t0, t1)
		for p := range xs {
			xe[p] = gp*xs[p] + drift + nu*dw[p]
			se[p] = ss[p] + (xs[p]+xe[p])*dt/2
		}
	}
}

// Numeraire returns the bank account at t for one simulated state [x, s].
func (hw *HullWhite) Numeraire(t float64, state []float64) float64 {
	s := state[IntegralIndex]
	if hw.measure == RollingForward {
		return math.Exp(s)
	}
	return math.Exp(s) / hw.curve.Discount(t)
}
