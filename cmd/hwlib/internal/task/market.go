// Package task holds the JSON schemas of the hwlib commands and turns them
// into curves, models and rollback methods.
package task

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/meenmo/hwlib/calendar"
	"github.com/meenmo/hwlib/config"
	"github.com/meenmo/hwlib/curve"
	"github.com/meenmo/hwlib/methods"
	"github.com/meenmo/hwlib/methods/amc"
	"github.com/meenmo/hwlib/methods/pde"
	"github.com/meenmo/hwlib/model"
	"github.com/meenmo/hwlib/simulation"
	"github.com/meenmo/hwlib/solver"
	"github.com/meenmo/hwlib/utils"
)

// CurveInput selects one of the curve constructions. Rates are decimals.
//
//   - flat_rate: flat continuously compounded curve
//   - times + rates: piecewise flat forward rates
//   - times + discounts: log-linear discount factors
//   - settlement + tenors + rates: forward rates on calendar pillars
type CurveInput struct {
	FlatRate   *float64  `json:"flat_rate,omitempty"`
	Times      []float64 `json:"times,omitempty"`
	Rates      []float64 `json:"rates,omitempty"`
	Discounts  []float64 `json:"discounts,omitempty"`
	Settlement string    `json:"settlement,omitempty"`
	Calendar   string    `json:"calendar,omitempty"`
	Tenors     []string  `json:"tenors,omitempty"`
}

// Build returns the curve.
func (in CurveInput) Build() (curve.YieldCurve, error) {
	switch {
	case in.FlatRate != nil:
		return curve.NewFlat(*in.FlatRate), nil
	case len(in.Tenors) > 0:
		settlement, err := utils.ParseDate(in.Settlement)
		if err != nil {
			return nil, fmt.Errorf("curve settlement: %w", err)
		}
		return curve.NewForwardCurveFromTenors(settlement, calendar.Parse(in.Calendar), in.Tenors, in.Rates)
	case len(in.Discounts) > 0:
		return curve.NewDiscountCurve(in.Times, in.Discounts)
	case len(in.Rates) > 0:
		return curve.NewForwardCurve(in.Times, in.Rates)
	}
	return nil, fmt.Errorf("curve: no flat_rate, rates or discounts: %w", solver.ErrBadInput)
}

// ModelInput parameterises Hull-White.
type ModelInput struct {
	MeanReversion float64   `json:"mean_reversion"`
	VolTimes      []float64 `json:"vol_times"`
	VolValues     []float64 `json:"vol_values"`
	// Measure is "risk_neutral" (default) or "rolling_forward".
	Measure string `json:"measure,omitempty"`
}

// Build returns the model on c.
func (in ModelInput) Build(c curve.YieldCurve) (*model.HullWhite, error) {
	measure := model.RiskNeutral
	switch strings.ToLower(in.Measure) {
	case "", "risk_neutral":
	case "rolling_forward":
		measure = model.RollingForward
	default:
		return nil, fmt.Errorf("model: unknown measure %q: %w", in.Measure, solver.ErrBadInput)
	}
	return model.NewHullWhite(c, in.MeanReversion, in.VolTimes, in.VolValues, model.WithMeasure(measure))
}

// MethodInput selects the rollback method. Zero values take the config
// defaults.
type MethodInput struct {
	// Name is one of exact, simpson, hermite, pde, amc, amc_exercise.
	Name      string `json:"name"`
	BreakEven bool   `json:"break_even,omitempty"`

	GridPoints    int      `json:"grid_points,omitempty"`
	StdDevs       float64  `json:"std_devs,omitempty"`
	HermiteDegree int      `json:"hermite_degree,omitempty"`
	Theta         *float64 `json:"theta,omitempty"`
	MaxStep       float64  `json:"max_step,omitempty"`

	Paths      int      `json:"paths,omitempty"`
	Seed       *uint64  `json:"seed,omitempty"`
	MaxDegree  *int     `json:"max_degree,omitempty"`
	SplitRatio *float64 `json:"split_ratio,omitempty"`
	// Controls is "state" (default) or "rate" for the co-terminal rate.
	Controls string   `json:"controls,omitempty"`
	Strike   *float64 `json:"strike,omitempty"`
}

// maxSimulationStep bounds the simulation grid between exercise dates.
const maxSimulationStep = 0.25

// Build returns the method for exercise times ending in an underlying that
// matures at maturity.
func (in MethodInput) Build(hw *model.HullWhite, times []float64, maturity float64, logger *zap.Logger) (methods.Method, error) {
	cfg := config.GetConfig()
	var density []methods.Option
	if in.GridPoints > 0 {
		density = append(density, methods.WithGridPoints(in.GridPoints))
	}
	if in.StdDevs > 0 {
		density = append(density, methods.WithStdDevs(in.StdDevs))
	}

	var (
		m   *methods.DensityIntegration
		err error
	)
	switch strings.ToLower(in.Name) {
	case "", "exact":
		m, err = methods.NewExact(hw, density...)
	case "simpson":
		m, err = methods.NewSimpson(hw, density...)
	case "hermite":
		degree := cfg.HermiteDegree
		if in.HermiteDegree > 0 {
			degree = in.HermiteDegree
		}
		m, err = methods.NewHermite(hw, degree, density...)
	case "pde":
		if in.BreakEven {
			return nil, fmt.Errorf("method: break_even needs a density method: %w", solver.ErrBadInput)
		}
		return in.buildPDE(hw)
	case "amc", "amc_exercise":
		if in.BreakEven {
			return nil, fmt.Errorf("method: break_even needs a density method: %w", solver.ErrBadInput)
		}
		return in.buildAMC(hw, times, maturity, logger)
	default:
		return nil, fmt.Errorf("method: unknown name %q: %w", in.Name, solver.ErrBadInput)
	}
	if err != nil {
		return nil, err
	}
	if in.BreakEven {
		return methods.NewBreakEven(m), nil
	}
	return m, nil
}

func (in MethodInput) buildPDE(hw *model.HullWhite) (methods.Method, error) {
	var opts []pde.Option
	if in.GridPoints > 0 {
		opts = append(opts, pde.WithGridPoints(in.GridPoints))
	}
	if in.StdDevs > 0 {
		opts = append(opts, pde.WithStdDevs(in.StdDevs))
	}
	if in.Theta != nil {
		opts = append(opts, pde.WithTheta(*in.Theta))
	}
	if in.MaxStep > 0 {
		opts = append(opts, pde.WithMaxStep(in.MaxStep))
	}
	return pde.NewSolver(hw, opts...)
}

func (in MethodInput) buildAMC(hw *model.HullWhite, times []float64, maturity float64, logger *zap.Logger) (methods.Method, error) {
	paths := config.GetConfig().Paths
	if in.Paths > 0 {
		paths = in.Paths
	}
	simOpts := []simulation.Option{simulation.WithLogger(logger)}
	if in.Seed != nil {
		simOpts = append(simOpts, simulation.WithSeed(*in.Seed))
	}
	sim, err := simulation.Simulate(hw, SimulationTimes(times, maxSimulationStep), paths, simOpts...)
	if err != nil {
		return nil, err
	}

	opts := []amc.Option{amc.WithLogger(logger)}
	if in.MaxDegree != nil {
		opts = append(opts, amc.WithMaxDegree(*in.MaxDegree))
	}
	if in.SplitRatio != nil {
		opts = append(opts, amc.WithSplitRatio(*in.SplitRatio))
	}
	switch strings.ToLower(in.Controls) {
	case "", "state":
	case "rate":
		opts = append(opts, amc.WithControls(amc.CoterminalRate{Model: hw, Maturity: maturity, Strike: in.Strike}))
	default:
		return nil, fmt.Errorf("method: unknown controls %q: %w", in.Controls, solver.ErrBadInput)
	}
	if strings.ToLower(in.Name) == "amc_exercise" {
		return amc.NewExerciseSolver(sim, hw, opts...)
	}
	return amc.NewContinuationSolver(sim, hw, opts...)
}

// SimulationTimes returns 0 and every exercise time, with intervals split
// into equal steps no longer than maxStep.
func SimulationTimes(exercises []float64, maxStep float64) []float64 {
	out := []float64{0}
	prev := 0.0
	for _, t := range exercises {
		n := max(1, int(math.Ceil((t-prev)/maxStep-1e-9)))
		for i := 1; i < n; i++ {
			out = append(out, prev+float64(i)*(t-prev)/float64(n))
		}
		out = append(out, t)
		prev = t
	}
	return out
}
