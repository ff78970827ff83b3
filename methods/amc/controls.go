package amc

import (
	"fmt"
	"math"

	"github.com/meenmo/hwlib/methods"
	"github.com/meenmo/hwlib/solver"
)

// Controls maps states observed at t to the regression variables, one row
// per variable and one column per path.
type Controls interface {
	Compute(x methods.State, t float64) ([][]float64, error)
}

// StateVariable uses the Hull-White factor itself.
type StateVariable struct{}

// Compute returns the factor row.
func (StateVariable) Compute(x methods.State, _ float64) ([][]float64, error) {
	if err := x.Validate(); err != nil {
		return nil, err
	}
	return [][]float64{x.Factor()}, nil
}

// ZeroBonder prices zero bonds given the factor value.
type ZeroBonder interface {
	ZeroBond(t, x, T float64) float64
}

// CoterminalRate uses the continuously compounded zero rate from t to
// Maturity. With Strike set, max(rate - Strike, 0) is added as a second
// variable.
type CoterminalRate struct {
	Model    ZeroBonder
	Maturity float64
	Strike   *float64
}

// Compute returns the rate row, and the floored excess row when a strike is
// set.
func (c CoterminalRate) Compute(x methods.State, t float64) ([][]float64, error) {
	if err := x.Validate(); err != nil {
		return nil, err
	}
	if c.Model == nil {
		return nil, fmt.Errorf("CoterminalRate: model is required: %w", solver.ErrBadInput)
	}
	tau := c.Maturity - t
	if !(tau > 0) {
		return nil, fmt.Errorf("CoterminalRate: observation time %v not before maturity %v: %w", t, c.Maturity, solver.ErrBadInput)
	}
	xs := x.Factor()
	rate := make([]float64, len(xs))
	for p, v := range xs {
		rate[p] = -math.Log(c.Model.ZeroBond(t, v, c.Maturity)) / tau
	}
	if c.Strike == nil {
		return [][]float64{rate}, nil
	}
	excess := make([]float64, len(rate))
	for p, r := range rate {
		excess[p] = math.Max(r-*c.Strike, 0)
	}
	return [][]float64{rate, excess}, nil
}
