package model

import (
	"fmt"
	"math"

	"github.com/meenmo/hwlib/black"
	"github.com/meenmo/hwlib/solver"
)

// jamshidianBracket is the search range of the break-even factor value.
var jamshidianBracket = [2]float64{-1.0, 1.0}

const jamshidianTolerance = 1e-8

// ZeroBondOption prices an option expiring at expiry on the zero bond
// maturing at maturity, struck at strike (a bond price).
func (hw *HullWhite) ZeroBondOption(expiry, maturity, strike float64, cp black.CallPut) float64 {
	g := hw.G(expiry, maturity)
	nu := math.Sqrt(g * g * hw.Y(expiry))
	p0 := hw.curve.Discount(expiry)
	p1 := hw.curve.Discount(maturity)
	return p0 * black.Black(strike, p1/p0, nu, 1.0, cp)
}

// CouponBond returns sum_i cashFlows[i] P(t, payTimes[i]) given x(t) = x.
func (hw *HullWhite) CouponBond(t, x float64, payTimes, cashFlows []float64) float64 {
	bond := 0.0
	for i, T := range payTimes {
		bond += cashFlows[i] * hw.ZeroBond(t, x, T)
	}
	return bond
}

// CouponBondOption prices an option expiring at expiry on the coupon bond
// paying cashFlows at payTimes, via Jamshidian's decomposition: the factor
// value x* with bond(x*) = strike is located on [-1, 1] and the option is the
// sum of zero bond options struck at P(expiry, x*, T_i).
//
// The error wraps solver.ErrRootNotFound when no x* exists in the bracket,
// typically because the strike is unreachable.
func (hw *HullWhite) CouponBondOption(expiry float64, payTimes, cashFlows []float64, strike float64, cp black.CallPut) (float64, error) {
	if len(payTimes) == 0 || len(payTimes) != len(cashFlows) {
		return 0, fmt.Errorf("CouponBondOption: %d pay times and %d cash flows: %w",
			len(payTimes), len(cashFlows), solver.ErrBadInput)
	}
	for i, T := range payTimes {
		if T < expiry {
			return 0, fmt.Errorf("CouponBondOption: pay time %d (%v) before expiry %v: %w", i, T, expiry, solver.ErrBadInput)
		}
	}

	xStar, err := solver.Brent(func(x float64) float64 {
		return hw.CouponBond(expiry, x, payTimes, cashFlows) - strike
	}, jamshidianBracket[0], jamshidianBracket[1], jamshidianTolerance)
	if err != nil {
		return 0, fmt.Errorf("CouponBondOption: %w", err)
	}

	option := 0.0
	for i, T := range payTimes {
		k := hw.ZeroBond(expiry, xStar, T)
		option += cashFlows[i] * hw.ZeroBondOption(expiry, T, k, cp)
	}
	return option, nil
}
