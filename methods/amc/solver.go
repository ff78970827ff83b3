// Package amc implements American Monte Carlo rollback on simulated paths.
//
// Paths are split in two: the first splitRatio share fits the regression,
// the remaining paths carry the estimate at time zero so that the estimator
// does not see the paths its exercise rule was fitted on.
package amc

import (
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/meenmo/hwlib/config"
	"github.com/meenmo/hwlib/methods"
	"github.com/meenmo/hwlib/regression"
	"github.com/meenmo/hwlib/simulation"
	"github.com/meenmo/hwlib/solver"
)

// Numeraire returns the numeraire value at t for a single path state.
type Numeraire interface {
	Numeraire(t float64, state []float64) float64
}

type base struct {
	paths        *simulation.Paths
	numeraire    Numeraire
	maxDegree    int
	splitRatio   float64
	minSampleIdx int
	controls     Controls
	checkRank    bool
	logger       *zap.Logger
	name         string
}

// Option configures a solver.
type Option func(*base)

// WithMaxDegree sets the maximum total degree of the regression basis.
func WithMaxDegree(d int) Option {
	return func(b *base) { b.maxDegree = d }
}

// WithSplitRatio sets the share of paths used to fit the regression. Zero
// disables the regression.
func WithSplitRatio(r float64) Option {
	return func(b *base) { b.splitRatio = r }
}

// WithControls sets the regression variables. Defaults to StateVariable.
func WithControls(c Controls) Option {
	return func(b *base) { b.controls = c }
}

// WithRankCheck makes RollBack fail with solver.ErrIllConditioned when a
// regression design matrix is rank deficient.
func WithRankCheck(on bool) Option {
	return func(b *base) { b.checkRank = on }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *base) { b.logger = l }
}

func newBase(name string, paths *simulation.Paths, n Numeraire, opts []Option) (base, error) {
	cfg := config.GetConfig()
	b := base{
		paths:      paths,
		numeraire:  n,
		maxDegree:  cfg.AMCMaxDegree,
		splitRatio: cfg.AMCSplitRatio,
		controls:   StateVariable{},
		logger:     zap.NewNop(),
		name:       name,
	}
	for _, opt := range opts {
		opt(&b)
	}
	switch {
	case paths == nil:
		return base{}, fmt.Errorf("%s: paths are required: %w", name, solver.ErrBadInput)
	case n == nil:
		return base{}, fmt.Errorf("%s: numeraire is required: %w", name, solver.ErrBadInput)
	case b.controls == nil:
		return base{}, fmt.Errorf("%s: controls are required: %w", name, solver.ErrBadInput)
	case b.maxDegree < 0:
		return base{}, fmt.Errorf("%s: negative degree %d: %w", name, b.maxDegree, solver.ErrBadInput)
	case b.splitRatio < 0 || b.splitRatio > 1:
		return base{}, fmt.Errorf("%s: split ratio %v outside [0, 1]: %w", name, b.splitRatio, solver.ErrBadInput)
	}
	b.minSampleIdx = int(b.splitRatio * float64(paths.NumPaths()))
	return b, nil
}

// States returns the simulated states at the simulation time nearest to t.
func (b *base) States(t float64) (methods.State, error) {
	return methods.State(b.paths.State(b.paths.NearestIndex(t))), nil
}

// prepare validates the arguments and returns x0 with the numeraire ratios
// N(t0)/N(t1) per path.
func (b *base) prepare(t0, t1 float64, x1 methods.State, u1, h1 []float64) (methods.State, []float64, error) {
	if err := methods.CheckRollBack(t0, t1, x1, u1, h1); err != nil {
		return nil, nil, err
	}
	if n := b.paths.NumPaths(); x1.Points() != n {
		return nil, nil, fmt.Errorf("%d states for %d paths: %w", x1.Points(), n, solver.ErrBadInput)
	}
	x0, err := b.States(t0)
	if err != nil {
		return nil, nil, err
	}
	ratio := make([]float64, x0.Points())
	for p := range ratio {
		ratio[p] = b.numeraire.Numeraire(t0, x0.Column(p)) / b.numeraire.Numeraire(t1, x1.Column(p))
	}
	return x0, ratio, nil
}

// regress fits observations on the controls of the first minSampleIdx paths
// of x and evaluates the fit on every path.
func (b *base) regress(x methods.State, t float64, observations []float64) ([]float64, error) {
	m := b.minSampleIdx
	fitState := make(methods.State, len(x))
	for d := range x {
		fitState[d] = x[d][:m]
	}
	fitControls, err := b.controls.Compute(fitState, t)
	if err != nil {
		return nil, err
	}
	model, err := regression.Fit(fitControls, observations[:m], b.maxDegree)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("continuation regression",
		zap.String("method", b.name),
		zap.Float64("t", t),
		zap.Int("samples", m),
		zap.Int("rank", model.Rank()),
		zap.Float64("residual", model.Residual()))
	if b.checkRank {
		if err := model.CheckRank(); err != nil {
			return nil, err
		}
	}
	allControls, err := b.controls.Compute(x, t)
	if err != nil {
		return nil, err
	}
	return model.Evaluate(allControls)
}

// finish returns (x0, v0), or at t0 = 0 the single state 0 with the mean of
// v0 over the out-of-sample paths.
func (b *base) finish(t0 float64, x0 methods.State, v0 []float64) (methods.State, []float64) {
	if t0 != 0 {
		return x0, v0
	}
	idx := b.minSampleIdx
	if idx >= len(v0) {
		idx = 0
	}
	tail := v0[idx:]
	return methods.GridState([]float64{0}), []float64{floats.Sum(tail) / float64(len(tail))}
}

// ContinuationSolver regresses the discounted value max(U1, H1) on controls
// observed at t0 to estimate the continuation value on every path.
type ContinuationSolver struct {
	base
}

// NewContinuationSolver returns a continuation value regression solver.
func NewContinuationSolver(paths *simulation.Paths, n Numeraire, opts ...Option) (*ContinuationSolver, error) {
	b, err := newBase("ContinuationSolver", paths, n, opts)
	if err != nil {
		return nil, err
	}
	return &ContinuationSolver{base: b}, nil
}

// RollBack discounts max(U1, H1) to t0 and, except at t0 = 0 or without a
// fit subset, replaces it by its regression on the t0 controls.
func (s *ContinuationSolver) RollBack(t0, t1 float64, x1 methods.State, u1, h1 []float64) (methods.State, []float64, error) {
	x0, ratio, err := s.prepare(t0, t1, x1, u1, h1)
	if err != nil {
		return nil, nil, fmt.Errorf("ContinuationSolver.RollBack: %w", err)
	}
	v0 := methods.ExerciseValue(u1, h1)
	floats.Mul(v0, ratio)
	if s.minSampleIdx > 0 && t0 > 0 {
		if v0, err = s.regress(x0, t0, v0); err != nil {
			return nil, nil, fmt.Errorf("ContinuationSolver.RollBack: t0 %v: %w", t0, err)
		}
	}
	x0, v0 = s.finish(t0, x0, v0)
	return x0, v0, nil
}

// ExerciseSolver regresses the exercise premium U1 - H1 on controls observed
// at t1. The sign of the fit selects U1 or H1 path by path and the selected
// cash flow is discounted to t0.
type ExerciseSolver struct {
	base
}

// NewExerciseSolver returns an exercise decision regression solver.
func NewExerciseSolver(paths *simulation.Paths, n Numeraire, opts ...Option) (*ExerciseSolver, error) {
	b, err := newBase("ExerciseSolver", paths, n, opts)
	if err != nil {
		return nil, err
	}
	return &ExerciseSolver{base: b}, nil
}

// RollBack selects U1 where the fitted premium is positive and H1 elsewhere.
// Without a fit subset the realised premium decides.
func (s *ExerciseSolver) RollBack(t0, t1 float64, x1 methods.State, u1, h1 []float64) (methods.State, []float64, error) {
	x0, ratio, err := s.prepare(t0, t1, x1, u1, h1)
	if err != nil {
		return nil, nil, fmt.Errorf("ExerciseSolver.RollBack: %w", err)
	}
	premium := make([]float64, len(u1))
	floats.SubTo(premium, u1, h1)
	if s.minSampleIdx > 0 {
		if premium, err = s.regress(x1, t1, premium); err != nil {
			return nil, nil, fmt.Errorf("ExerciseSolver.RollBack: t1 %v: %w", t1, err)
		}
	}
	v0 := make([]float64, len(u1))
	for p := range v0 {
		if premium[p] > 0 {
			v0[p] = ratio[p] * u1[p]
		} else {
			v0[p] = ratio[p] * h1[p]
		}
	}
	x0, v0 = s.finish(t0, x0, v0)
	return x0, v0, nil
}
