package swaption

import (
	"fmt"
	"time"

	"github.com/meenmo/hwlib/bermudan"
	"github.com/meenmo/hwlib/black"
	"github.com/meenmo/hwlib/methods"
	"github.com/meenmo/hwlib/model"
	"github.com/meenmo/hwlib/payoff"
	"github.com/meenmo/hwlib/solver"
)

// Swaption is a physically settled European swaption quoted in normal vol.
type Swaption struct {
	Swap       *Swap
	ExpiryDate time.Time
	NormalVol  float64
}

// NewSwaption checks that the expiry lies between the reference and the
// effective date.
func NewSwaption(swap *Swap, expiry time.Time, normalVol float64) (*Swaption, error) {
	switch {
	case swap == nil:
		return nil, fmt.Errorf("NewSwaption: swap is required: %w", solver.ErrBadInput)
	case expiry.Before(swap.ReferenceDate) || expiry.After(swap.EffectiveDate):
		return nil, fmt.Errorf("NewSwaption: expiry %s outside [%s, %s]: %w", expiry.Format("2006-01-02"),
			swap.ReferenceDate.Format("2006-01-02"), swap.EffectiveDate.Format("2006-01-02"), solver.ErrBadInput)
	case normalVol < 0:
		return nil, fmt.Errorf("NewSwaption: negative volatility %v: %w", normalVol, solver.ErrBadInput)
	}
	return &Swaption{Swap: swap, ExpiryDate: expiry, NormalVol: normalVol}, nil
}

// ExpiryTime is the ACT/365F time to expiry.
func (s *Swaption) ExpiryTime() float64 { return s.Swap.Time(s.ExpiryDate) }

// callPut is the option side on the swap rate.
func (s *Swaption) callPut() black.CallPut {
	if s.Swap.Type == Receiver {
		return black.Put
	}
	return black.Call
}

// BachelierNPV is the annuity times the Bachelier price on the fair rate.
func (s *Swaption) BachelierNPV() float64 {
	return s.Swap.Annuity() * black.Bachelier(s.Swap.FixedRate, s.Swap.FairRate(), s.NormalVol, s.ExpiryTime(), s.callPut())
}

// Vega is the NPV change for a one basis point move in normal volatility.
func (s *Swaption) Vega() float64 {
	return s.Swap.Annuity() * black.BachelierVega(s.Swap.FixedRate, s.Swap.FairRate(), s.NormalVol, s.ExpiryTime()) * 1e-4
}

// BondOptionDetails is the coupon bond option equivalent of a swaption.
type BondOptionDetails struct {
	Expiry    float64
	PayTimes  []float64
	CashFlows []float64
	Strike    float64
	CallPut   black.CallPut
}

// BondOptionDetails maps the swaption onto an option with zero strike on
// the receiver bond: pay notional at the first float start, receive the
// fixed coupons and the notional at the last float end. Projection and
// discount curve differences enter as float spread cash flows paid at each
// accrual start.
func (s *Swaption) BondOptionDetails() (BondOptionDetails, error) {
	payTimes, cashFlows, err := s.Swap.receiverBond(s.ExpiryDate)
	if err != nil {
		return BondOptionDetails{}, fmt.Errorf("BondOptionDetails: %w", err)
	}
	cp := black.Put
	if s.Swap.Type == Receiver {
		cp = black.Call
	}
	return BondOptionDetails{
		Expiry:    s.ExpiryTime(),
		PayTimes:  payTimes,
		CashFlows: cashFlows,
		Strike:    0,
		CallPut:   cp,
	}, nil
}

// HullWhiteNPV prices the swaption by Jamshidian's decomposition.
func (s *Swaption) HullWhiteNPV(hw *model.HullWhite) (float64, error) {
	d, err := s.BondOptionDetails()
	if err != nil {
		return 0, err
	}
	npv, err := hw.CouponBondOption(d.Expiry, d.PayTimes, d.CashFlows, d.Strike, d.CallPut)
	if err != nil {
		return 0, fmt.Errorf("HullWhiteNPV: %w", err)
	}
	return npv, nil
}

// receiverBond returns the receiver bond of the periods starting on or
// after from.
func (s *Swap) receiverBond(from time.Time) ([]float64, []float64, error) {
	var float, fixed []SchedulePeriod
	for _, p := range s.float {
		if !p.StartDate.Before(from) {
			float = append(float, p)
		}
	}
	for _, p := range s.fixed {
		if !p.StartDate.Before(from) {
			fixed = append(fixed, p)
		}
	}
	if len(float) == 0 || len(fixed) == 0 {
		return nil, nil, fmt.Errorf("no periods start on or after %s: %w", from.Format("2006-01-02"), solver.ErrBadInput)
	}

	n := s.Notional
	payTimes := []float64{s.Time(float[0].StartDate)}
	cashFlows := []float64{-n}
	for _, p := range float {
		// (1 + tau L) P(e)/P(s) - 1 vanishes when the curves coincide
		spread := (1+p.YearFraction*s.forward(p))*s.discount(p.EndDate)/s.discount(p.StartDate) - 1
		payTimes = append(payTimes, s.Time(p.StartDate))
		cashFlows = append(cashFlows, -spread*n)
	}
	for _, p := range fixed {
		payTimes = append(payTimes, s.Time(p.PayDate))
		cashFlows = append(cashFlows, n*s.FixedRate*p.YearFraction)
	}
	payTimes = append(payTimes, s.Time(float[len(float)-1].EndDate))
	cashFlows = append(cashFlows, n)
	return payTimes, cashFlows, nil
}

// Bermudan is the right to enter the remainder of Swap on any exercise
// date.
type Bermudan struct {
	Swap          *Swap
	ExerciseDates []time.Time
}

// NewBermudan checks that exercise dates are increasing and not before the
// reference date.
func NewBermudan(swap *Swap, exerciseDates []time.Time) (*Bermudan, error) {
	if swap == nil {
		return nil, fmt.Errorf("NewBermudan: swap is required: %w", solver.ErrBadInput)
	}
	if len(exerciseDates) == 0 {
		return nil, fmt.Errorf("NewBermudan: no exercise dates: %w", solver.ErrBadInput)
	}
	for i, d := range exerciseDates {
		if !d.After(swap.ReferenceDate) {
			return nil, fmt.Errorf("NewBermudan: exercise %s not after reference date: %w", d.Format("2006-01-02"), solver.ErrBadInput)
		}
		if i > 0 && !d.After(exerciseDates[i-1]) {
			return nil, fmt.Errorf("NewBermudan: exercise dates not increasing at %d: %w", i, solver.ErrBadInput)
		}
	}
	return &Bermudan{Swap: swap, ExerciseDates: exerciseDates}, nil
}

// Exercises returns the exercise times with the underlying payoffs: the
// receiver bond of the remaining periods, negated for a payer.
func (b *Bermudan) Exercises(zb payoff.ZeroBonder) ([]float64, []payoff.Payoff, error) {
	sign := -b.Swap.Type.Sign()
	times := make([]float64, len(b.ExerciseDates))
	payoffs := make([]payoff.Payoff, len(b.ExerciseDates))
	for k, d := range b.ExerciseDates {
		payTimes, cashFlows, err := b.Swap.receiverBond(d)
		if err != nil {
			return nil, nil, fmt.Errorf("Exercises: exercise %d: %w", k, err)
		}
		for i := range cashFlows {
			cashFlows[i] *= sign
		}
		times[k] = b.Swap.Time(d)
		if payoffs[k], err = payoff.NewCouponBond(zb, times[k], payTimes, cashFlows); err != nil {
			return nil, nil, fmt.Errorf("Exercises: %w", err)
		}
	}
	return times, payoffs, nil
}

// Price runs backward induction with method m.
func (b *Bermudan) Price(zb payoff.ZeroBonder, m methods.Method, opts ...bermudan.Option) (float64, error) {
	times, payoffs, err := b.Exercises(zb)
	if err != nil {
		return 0, err
	}
	return bermudan.NewEngine(opts...).Price(times, payoffs, m)
}
