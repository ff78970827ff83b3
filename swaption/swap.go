// Package swaption describes European and Bermudan swaptions on calendar
// dates and maps them onto Hull-White coupon bond options.
package swaption

import (
	"fmt"
	"time"

	"github.com/meenmo/hwlib/curve"
	"github.com/meenmo/hwlib/solver"
	"github.com/meenmo/hwlib/utils"
)

// PayerReceiver is the side of the fixed leg.
type PayerReceiver int

const (
	// Payer pays fixed and receives float.
	Payer PayerReceiver = iota
	// Receiver receives fixed and pays float.
	Receiver
)

// Sign is +1 for a payer and -1 for a receiver.
func (pr PayerReceiver) Sign() float64 {
	if pr == Receiver {
		return -1
	}
	return 1
}

func (pr PayerReceiver) String() string {
	if pr == Receiver {
		return "receiver"
	}
	return "payer"
}

// ParsePayerReceiver accepts "payer" and "receiver".
func ParsePayerReceiver(s string) (PayerReceiver, error) {
	switch s {
	case "payer", "Payer", "PAYER":
		return Payer, nil
	case "receiver", "Receiver", "RECEIVER":
		return Receiver, nil
	}
	return Payer, fmt.Errorf("ParsePayerReceiver: unknown side %q: %w", s, solver.ErrBadInput)
}

// SwapParams defines a vanilla fixed-float swap.
type SwapParams struct {
	// ReferenceDate is time 0 of both curves.
	ReferenceDate time.Time
	EffectiveDate time.Time
	MaturityDate  time.Time

	FixedRate float64
	Notional  float64
	Type      PayerReceiver

	FixedLeg Leg
	FloatLeg Leg

	DiscountCurve   curve.YieldCurve
	ProjectionCurve curve.YieldCurve
}

// CashFlow is an amount paid on a date, with its curve time.
type CashFlow struct {
	StartDate time.Time
	EndDate   time.Time
	PayDate   time.Time
	PayTime   float64
	Amount    float64
}

// Swap is a vanilla swap with generated schedules.
type Swap struct {
	SwapParams
	fixed []SchedulePeriod
	float []SchedulePeriod
}

// NewSwap validates params and generates both schedules.
func NewSwap(params SwapParams) (*Swap, error) {
	switch {
	case params.DiscountCurve == nil || params.ProjectionCurve == nil:
		return nil, fmt.Errorf("NewSwap: discount and projection curves are required: %w", solver.ErrBadInput)
	case !(params.Notional > 0):
		return nil, fmt.Errorf("NewSwap: notional must be positive, got %v: %w", params.Notional, solver.ErrBadInput)
	case params.EffectiveDate.Before(params.ReferenceDate):
		return nil, fmt.Errorf("NewSwap: effective date %s before reference date %s: %w",
			params.EffectiveDate.Format("2006-01-02"), params.ReferenceDate.Format("2006-01-02"), solver.ErrBadInput)
	}
	fixed, err := GenerateSchedule(params.EffectiveDate, params.MaturityDate, params.FixedLeg)
	if err != nil {
		return nil, fmt.Errorf("NewSwap: fixed leg: %w", err)
	}
	float, err := GenerateSchedule(params.EffectiveDate, params.MaturityDate, params.FloatLeg)
	if err != nil {
		return nil, fmt.Errorf("NewSwap: float leg: %w", err)
	}
	return &Swap{SwapParams: params, fixed: fixed, float: float}, nil
}

// Time returns the ACT/365F year fraction from the reference date to d.
func (s *Swap) Time(d time.Time) float64 {
	return utils.YearFraction(s.ReferenceDate, d, utils.ACT365F)
}

func (s *Swap) discount(d time.Time) float64 {
	return s.DiscountCurve.Discount(s.Time(d))
}

// forward is the simple projection rate over one float period.
func (s *Swap) forward(p SchedulePeriod) float64 {
	ps := s.ProjectionCurve.Discount(s.Time(p.StartDate))
	pe := s.ProjectionCurve.Discount(s.Time(p.EndDate))
	return (ps/pe - 1) / p.YearFraction
}

// FixedCashFlows returns the fixed coupons, unsigned.
func (s *Swap) FixedCashFlows() []CashFlow {
	out := make([]CashFlow, len(s.fixed))
	for i, p := range s.fixed {
		out[i] = CashFlow{p.StartDate, p.EndDate, p.PayDate, s.Time(p.PayDate), s.Notional * s.FixedRate * p.YearFraction}
	}
	return out
}

// FloatCashFlows returns the projected float coupons, unsigned.
func (s *Swap) FloatCashFlows() []CashFlow {
	out := make([]CashFlow, len(s.float))
	for i, p := range s.float {
		out[i] = CashFlow{p.StartDate, p.EndDate, p.PayDate, s.Time(p.PayDate), s.Notional * s.forward(p) * p.YearFraction}
	}
	return out
}

// Annuity is the discounted fixed accrual per unit rate.
func (s *Swap) Annuity() float64 {
	a := 0.0
	for _, p := range s.fixed {
		a += s.Notional * p.YearFraction * s.discount(p.PayDate)
	}
	return a
}

// FloatLegPV is the discounted value of the projected float coupons.
func (s *Swap) FloatLegPV() float64 {
	pv := 0.0
	for _, cf := range s.FloatCashFlows() {
		pv += cf.Amount * s.discount(cf.PayDate)
	}
	return pv
}

// FairRate is the fixed rate that sets NPV to zero.
func (s *Swap) FairRate() float64 {
	return s.FloatLegPV() / s.Annuity()
}

// NPV is Sign (float leg - fixed leg).
func (s *Swap) NPV() float64 {
	return s.Type.Sign() * (s.FloatLegPV() - s.FixedRate*s.Annuity())
}
