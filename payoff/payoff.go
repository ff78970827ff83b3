// Package payoff evaluates exercise values on a batch of model states.
package payoff

import (
	"fmt"
	"math"

	"github.com/meenmo/hwlib/methods"
	"github.com/meenmo/hwlib/solver"
)

// Payoff returns the underlying value at each state of x.
type Payoff interface {
	At(x methods.State) ([]float64, error)
}

// ZeroBonder prices zero bonds given the factor value.
type ZeroBonder interface {
	ZeroBond(t, x, T float64) float64
}

// CouponBond is the sum of CashFlows[i] P(ObservationTime, PayTimes[i]).
// Cash flows paid before the observation time are ignored.
type CouponBond struct {
	Model           ZeroBonder
	ObservationTime float64
	PayTimes        []float64
	CashFlows       []float64
}

// NewCouponBond validates the schedule.
func NewCouponBond(m ZeroBonder, observationTime float64, payTimes, cashFlows []float64) (*CouponBond, error) {
	b := &CouponBond{Model: m, ObservationTime: observationTime, PayTimes: payTimes, CashFlows: cashFlows}
	if err := b.validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *CouponBond) validate() error {
	switch {
	case b.Model == nil:
		return fmt.Errorf("CouponBond: model is required: %w", solver.ErrBadInput)
	case len(b.PayTimes) == 0:
		return fmt.Errorf("CouponBond: no cash flows: %w", solver.ErrBadInput)
	case len(b.PayTimes) != len(b.CashFlows):
		return fmt.Errorf("CouponBond: %d pay times for %d cash flows: %w", len(b.PayTimes), len(b.CashFlows), solver.ErrBadInput)
	case !(b.ObservationTime >= 0):
		return fmt.Errorf("CouponBond: observation time %v: %w", b.ObservationTime, solver.ErrBadInput)
	}
	for i, T := range b.PayTimes {
		if math.IsNaN(T) || math.IsNaN(b.CashFlows[i]) {
			return fmt.Errorf("CouponBond: cash flow %d is not a number: %w", i, solver.ErrBadInput)
		}
	}
	return nil
}

// At prices the bond at every factor value of x.
func (b *CouponBond) At(x methods.State) ([]float64, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}
	if err := x.Validate(); err != nil {
		return nil, fmt.Errorf("CouponBond.At: %w", err)
	}
	out := make([]float64, x.Points())
	for p, v := range x.Factor() {
		for i, T := range b.PayTimes {
			if T < b.ObservationTime {
				continue
			}
			out[p] += b.CashFlows[i] * b.Model.ZeroBond(b.ObservationTime, v, T)
		}
	}
	return out, nil
}

// ZeroBond pays Notional at Maturity.
type ZeroBond struct {
	Model           ZeroBonder
	ObservationTime float64
	Maturity        float64
	Notional        float64
}

// At returns Notional P(ObservationTime, Maturity) per state.
func (z ZeroBond) At(x methods.State) ([]float64, error) {
	b := CouponBond{
		Model:           z.Model,
		ObservationTime: z.ObservationTime,
		PayTimes:        []float64{z.Maturity},
		CashFlows:       []float64{z.Notional},
	}
	return b.At(x)
}
