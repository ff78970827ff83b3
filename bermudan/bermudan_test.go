package bermudan_test

import (
	"errors"
	"math"
	"testing"

	"github.com/meenmo/hwlib/bermudan"
	"github.com/meenmo/hwlib/black"
	"github.com/meenmo/hwlib/curve"
	"github.com/meenmo/hwlib/methods"
	"github.com/meenmo/hwlib/methods/amc"
	"github.com/meenmo/hwlib/methods/pde"
	"github.com/meenmo/hwlib/model"
	"github.com/meenmo/hwlib/payoff"
	"github.com/meenmo/hwlib/simulation"
	"github.com/meenmo/hwlib/solver"
)

func newModel(t *testing.T, opts ...model.Option) *model.HullWhite {
	t.Helper()
	hw, err := model.NewHullWhite(curve.NewFlat(0.03), 0.05, []float64{30}, []float64{0.01}, opts...)
	if err != nil {
		t.Fatalf("NewHullWhite: %v", err)
	}
	return hw
}

// callable returns the right to enter, on any of the years 12 to 19, a 3%
// annual coupon bond maturing in 20 years against paying par.
func callable(t *testing.T, hw *model.HullWhite) ([]float64, []payoff.Payoff) {
	t.Helper()
	payTimes := []float64{12, 13, 14, 15, 16, 17, 18, 19, 20, 20}
	cashFlows := []float64{-1, 0.03, 0.03, 0.03, 0.03, 0.03, 0.03, 0.03, 0.03, 1}
	var times []float64
	var payoffs []payoff.Payoff
	for k := 0; k < 8; k++ {
		pt := append([]float64{payTimes[k]}, payTimes[k+1:]...)
		cf := append([]float64{-1}, cashFlows[k+1:]...)
		b, err := payoff.NewCouponBond(hw, payTimes[k], pt, cf)
		if err != nil {
			t.Fatalf("NewCouponBond: %v", err)
		}
		times = append(times, payTimes[k])
		payoffs = append(payoffs, b)
	}
	return times, payoffs
}

func densityMethods(t *testing.T, hw *model.HullWhite) map[string]methods.Method {
	t.Helper()
	exact, err := methods.NewExact(hw)
	if err != nil {
		t.Fatalf("NewExact: %v", err)
	}
	simpson, err := methods.NewSimpson(hw)
	if err != nil {
		t.Fatalf("NewSimpson: %v", err)
	}
	hermite, err := methods.NewHermite(hw, 5)
	if err != nil {
		t.Fatalf("NewHermite: %v", err)
	}
	theta, err := pde.NewSolver(hw)
	if err != nil {
		t.Fatalf("pde.NewSolver: %v", err)
	}
	return map[string]methods.Method{
		"exact":     exact,
		"simpson":   simpson,
		"hermite":   hermite,
		"breakEven": methods.NewBreakEven(exact),
		"pde":       theta,
	}
}

func TestEuropeanReduction(t *testing.T) {
	t.Parallel()

	hw := newModel(t)
	times, payoffs := callable(t, hw)
	bond := payoffs[0].(*payoff.CouponBond)
	want, err := hw.CouponBondOption(times[0], bond.PayTimes[1:], bond.CashFlows[1:], 1, black.Call)
	if err != nil {
		t.Fatalf("CouponBondOption: %v", err)
	}
	tolerance := map[string]float64{
		"exact":     3e-4,
		"simpson":   3e-4,
		"hermite":   1e-3,
		"breakEven": 2e-5,
		"pde":       3e-4,
	}
	for name, m := range densityMethods(t, hw) {
		got, err := bermudan.Price(times[:1], payoffs[:1], m)
		if err != nil {
			t.Fatalf("%s: Price: %v", name, err)
		}
		if math.Abs(got-want) > tolerance[name] {
			t.Fatalf("%s: european mismatch: got %v want %v", name, got, want)
		}
	}
}

func TestCallableBond(t *testing.T) {
	t.Parallel()

	hw := newModel(t)
	times, payoffs := callable(t, hw)
	const want = 0.04843
	npvs := map[string]float64{}
	for name, m := range densityMethods(t, hw) {
		got, err := bermudan.Price(times, payoffs, m)
		if err != nil {
			t.Fatalf("%s: Price: %v", name, err)
		}
		if math.Abs(got-want) > 5e-4 {
			t.Fatalf("%s: npv mismatch: got %v want %v", name, got, want)
		}
		npvs[name] = got
	}

	// the Bermudan is worth at least its most valuable European
	european := 0.0
	for k := range times {
		bond := payoffs[k].(*payoff.CouponBond)
		v, err := hw.CouponBondOption(times[k], bond.PayTimes[1:], bond.CashFlows[1:], 1, black.Call)
		if err != nil {
			t.Fatalf("CouponBondOption: %v", err)
		}
		european = math.Max(european, v)
	}
	if npvs["breakEven"] < european {
		t.Fatalf("bermudan %v below max european %v", npvs["breakEven"], european)
	}
}

func TestCallableBondMonteCarlo(t *testing.T) {
	t.Parallel()

	hw := newModel(t, model.WithMeasure(model.RollingForward))
	times, payoffs := callable(t, hw)
	grid := make([]float64, 21)
	for i := range grid {
		grid[i] = float64(i)
	}
	sim, err := simulation.Simulate(hw, grid, 1<<14, simulation.WithSeed(42))
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	m, err := amc.NewContinuationSolver(sim, hw, amc.WithControls(amc.CoterminalRate{Model: hw, Maturity: 20}))
	if err != nil {
		t.Fatalf("NewContinuationSolver: %v", err)
	}
	got, err := bermudan.Price(times, payoffs, m)
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if math.Abs(got-0.04843) > 2.5e-3 {
		t.Fatalf("npv mismatch: got %v want %v", got, 0.04843)
	}
}

// grid is a method whose rollback leaves the values and states unchanged.
type grid struct{ x []float64 }

func (g grid) States(float64) (methods.State, error) { return methods.GridState(g.x), nil }

func (g grid) RollBack(_, _ float64, _ methods.State, u1, h1 []float64) (methods.State, []float64, error) {
	return methods.GridState(g.x), methods.ExerciseValue(u1, h1), nil
}

type constant []float64

func (c constant) At(methods.State) ([]float64, error) { return c, nil }

func TestInterpolationAtZero(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		x    []float64
		u    constant
		want float64
	}{
		{"single", []float64{0.5}, constant{3}, 3},
		{"between", []float64{-1, 1}, constant{1, 3}, 2},
		{"knot", []float64{-1, 0, 1}, constant{1, 5, 3}, 5},
		{"belowGrid", []float64{1, 2}, constant{4, 6}, 4},
		{"aboveGrid", []float64{-2, -1}, constant{4, 6}, 6},
	}
	for _, tc := range cases {
		got, err := bermudan.Price([]float64{1}, []payoff.Payoff{tc.u}, grid{tc.x})
		if err != nil {
			t.Fatalf("%s: Price: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: mismatch: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestValidation(t *testing.T) {
	t.Parallel()

	m := grid{[]float64{0}}
	one := []payoff.Payoff{constant{1}}
	two := []payoff.Payoff{constant{1}, constant{1}}
	cases := map[string]struct {
		times   []float64
		payoffs []payoff.Payoff
		m       methods.Method
	}{
		"empty":      {nil, nil, m},
		"lengths":    {[]float64{1}, two, m},
		"zeroFirst":  {[]float64{0}, one, m},
		"decreasing": {[]float64{2, 1}, two, m},
		"nan":        {[]float64{math.NaN()}, one, m},
		"noMethod":   {[]float64{1}, one, nil},
		"nilPayoff":  {[]float64{1}, []payoff.Payoff{nil}, m},
		"shape":      {[]float64{1}, []payoff.Payoff{constant{1, 2}}, m},
	}
	for name, tc := range cases {
		if _, err := bermudan.Price(tc.times, tc.payoffs, tc.m); !errors.Is(err, solver.ErrBadInput) {
			t.Fatalf("%s: expected ErrBadInput, got %v", name, err)
		}
	}
}
