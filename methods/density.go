package methods

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/meenmo/hwlib/config"
	"github.com/meenmo/hwlib/solver"
	"github.com/meenmo/hwlib/spline"
)

// RangeIntegrator is a Method whose rollback can be restricted to the span
// of the given states, treating the value function as zero outside it.
type RangeIntegrator interface {
	Method
	RollBackRange(t0, t1 float64, x1 State, u1, h1 []float64) (State, []float64, error)
	Model() Model
}

// rule computes E[V(X)] for X ~ N(mu, sigma^2) given V on the knots xs.
// With clip set, V vanishes outside [xs[0], xs[n-1]].
type rule interface {
	expectation(xs, vs []float64, v *spline.Cubic, mu, sigma float64, clip bool) float64
}

// DensityIntegration rolls back by integrating the value function against
// the Gaussian transition density of x under the T1-forward measure.
type DensityIntegration struct {
	model   Model
	points  int
	stdDevs float64
	rule    rule
	name    string
}

// Option configures a DensityIntegration.
type Option func(*DensityIntegration)

// WithGridPoints sets the number of grid states per date.
func WithGridPoints(n int) Option {
	return func(d *DensityIntegration) { d.points = n }
}

// WithStdDevs sets the grid half-width in standard deviations of x(t).
func WithStdDevs(k float64) Option {
	return func(d *DensityIntegration) { d.stdDevs = k }
}

func newDensityIntegration(m Model, name string, r rule, opts []Option) (*DensityIntegration, error) {
	cfg := config.GetConfig()
	d := &DensityIntegration{model: m, points: cfg.GridPoints, stdDevs: cfg.StdDevs, rule: r, name: name}
	for _, opt := range opts {
		opt(d)
	}
	if m == nil {
		return nil, fmt.Errorf("%s: model is required: %w", name, solver.ErrBadInput)
	}
	if d.points < 2 {
		return nil, fmt.Errorf("%s: at least 2 grid points required, got %d: %w", name, d.points, solver.ErrBadInput)
	}
	if !(d.stdDevs > 0) || math.IsInf(d.stdDevs, 0) {
		return nil, fmt.Errorf("%s: std devs must be positive, got %v: %w", name, d.stdDevs, solver.ErrBadInput)
	}
	return d, nil
}

// NewSimpson integrates with the composite Simpson rule on the states of t1.
func NewSimpson(m Model, opts ...Option) (*DensityIntegration, error) {
	return newDensityIntegration(m, "Simpson", simpsonRule{}, opts)
}

// NewHermite integrates the cubic spline of the value function with
// Gauss-Hermite quadrature of the given degree.
func NewHermite(m Model, degree int, opts ...Option) (*DensityIntegration, error) {
	if degree < 1 {
		return nil, fmt.Errorf("Hermite: degree must be positive, got %d: %w", degree, solver.ErrBadInput)
	}
	return newDensityIntegration(m, "Hermite", newHermiteRule(degree), opts)
}

// NewExact integrates the cubic spline of the value function exactly against
// the normal density.
func NewExact(m Model, opts ...Option) (*DensityIntegration, error) {
	return newDensityIntegration(m, "Exact", exactRule{}, opts)
}

// Model returns the transition model.
func (d *DensityIntegration) Model() Model { return d.model }

// String returns the integration rule name.
func (d *DensityIntegration) String() string { return d.name }

// States returns points equally spaced over +-stdDevs standard deviations of
// x(t), or the single state 0 when x(t) is deterministic.
func (d *DensityIntegration) States(t float64) (State, error) {
	return GridStates(d.model, t, d.points, d.stdDevs), nil
}

// GridStates returns n points spanning +-k standard deviations of x(t), or
// the single state 0 when the variance vanishes.
func GridStates(m Model, t float64, n int, k float64) State {
	sigma := math.Sqrt(m.Variance(0, t))
	if sigma == 0 {
		return GridState([]float64{0})
	}
	return GridState(floats.Span(make([]float64, n), -k*sigma, k*sigma))
}

// RollBack integrates max(u1, h1) over the states of t1.
func (d *DensityIntegration) RollBack(t0, t1 float64, x1 State, u1, h1 []float64) (State, []float64, error) {
	return d.rollBack(t0, t1, x1, u1, h1, false)
}

// RollBackRange is RollBack with the value function set to zero outside
// the span of x1.
func (d *DensityIntegration) RollBackRange(t0, t1 float64, x1 State, u1, h1 []float64) (State, []float64, error) {
	return d.rollBack(t0, t1, x1, u1, h1, true)
}

func (d *DensityIntegration) rollBack(t0, t1 float64, x1 State, u1, h1 []float64, clip bool) (State, []float64, error) {
	if err := CheckRollBack(t0, t1, x1, u1, h1); err != nil {
		return nil, nil, fmt.Errorf("%s.RollBack: %w", d.name, err)
	}
	xs := x1.Factor()
	vs := ExerciseValue(u1, h1)
	v, err := spline.New(xs, vs)
	if err != nil {
		return nil, nil, fmt.Errorf("%s.RollBack: %w", d.name, err)
	}

	x0, err := d.States(t0)
	if err != nil {
		return nil, nil, err
	}
	sigma := math.Sqrt(d.model.Variance(t0, t1))
	h0 := make([]float64, x0.Points())
	for i, x := range x0.Factor() {
		mu := d.model.ForwardExpectation(t0, x, t1)
		var e float64
		if sigma == 0 {
			e = pointValue(xs, v, mu, clip)
		} else {
			e = d.rule.expectation(xs, vs, v, mu, sigma, clip)
		}
		h0[i] = d.model.ZeroBond(t0, x, t1) * e
	}
	return x0, h0, nil
}

func pointValue(xs []float64, v *spline.Cubic, mu float64, clip bool) float64 {
	if clip && (mu < xs[0] || mu > xs[len(xs)-1]) {
		return 0
	}
	return v.Eval(mu)
}

// simpsonRule samples the integrand on the knots.
type simpsonRule struct{}

func (simpsonRule) expectation(xs, vs []float64, _ *spline.Cubic, mu, sigma float64, _ bool) float64 {
	if len(xs) < 2 {
		return 0
	}
	fx := make([]float64, len(xs))
	for k, x := range xs {
		fx[k] = vs[k] * distuv.UnitNormal.Prob((x-mu)/sigma) / sigma
	}
	if len(xs) == 2 {
		return integrate.Trapezoidal(xs, fx)
	}
	return integrate.Simpsons(xs, fx)
}

// hermiteRule evaluates the spline at mu + sqrt(2) sigma z_k.
type hermiteRule struct {
	nodes, weights []float64
}

func newHermiteRule(degree int) hermiteRule {
	r := hermiteRule{nodes: make([]float64, degree), weights: make([]float64, degree)}
	quad.Hermite{}.FixedLocations(r.nodes, r.weights, math.Inf(-1), math.Inf(1))
	floats.Scale(1/math.SqrtPi, r.weights)
	return r
}

func (r hermiteRule) expectation(xs, _ []float64, v *spline.Cubic, mu, sigma float64, clip bool) float64 {
	lo, hi := xs[0], xs[len(xs)-1]
	e := 0.0
	for k, z := range r.nodes {
		x := mu + math.Sqrt2*sigma*z
		if clip && (x < lo || x > hi) {
			continue
		}
		e += r.weights[k] * v.Eval(x)
	}
	return e
}
