// Package pde rolls back on a state grid by solving the Hull-White pricing
// PDE with the theta method.
package pde

import (
	"fmt"
	"math"

	"github.com/meenmo/hwlib/config"
	"github.com/meenmo/hwlib/methods"
	"github.com/meenmo/hwlib/model"
	"github.com/meenmo/hwlib/solver"
	"github.com/meenmo/hwlib/spline"
)

// Solver steps V backwards in time with
//
//	[I + theta h M] V(t) = [I - (1-theta) h M] V(t+h),  M = -L,
//	L V = (y(t) - a x) V_x + sigma(t)^2/2 V_xx - (f(0,t) + x) V.
//
// theta = 0 is explicit Euler, 1/2 Crank-Nicolson and 1 implicit Euler.
type Solver struct {
	model         *model.HullWhite
	points        int
	stdDevs       float64
	theta         float64
	maxStep       float64
	checkDominant bool
}

// Option configures a Solver.
type Option func(*Solver)

// WithGridPoints sets the number of grid states.
func WithGridPoints(n int) Option { return func(s *Solver) { s.points = n } }

// WithStdDevs sets the grid half-width in standard deviations of x(t).
func WithStdDevs(k float64) Option { return func(s *Solver) { s.stdDevs = k } }

// WithTheta sets the implicitness weight in [0, 1].
func WithTheta(theta float64) Option { return func(s *Solver) { s.theta = theta } }

// WithMaxStep sets the largest time step in years.
func WithMaxStep(h float64) Option { return func(s *Solver) { s.maxStep = h } }

// WithDominanceCheck validates diagonal dominance of every implicit system
// before it is solved without pivoting.
func WithDominanceCheck(on bool) Option { return func(s *Solver) { s.checkDominant = on } }

// NewSolver returns a theta-method solver with defaults from config.
func NewSolver(m *model.HullWhite, opts ...Option) (*Solver, error) {
	cfg := config.GetConfig()
	s := &Solver{
		model:   m,
		points:  cfg.GridPoints,
		stdDevs: cfg.StdDevs,
		theta:   cfg.Theta,
		maxStep: cfg.PDEStep,
	}
	for _, opt := range opts {
		opt(s)
	}
	switch {
	case m == nil:
		return nil, fmt.Errorf("pde.NewSolver: model is required: %w", solver.ErrBadInput)
	case s.points < 3:
		return nil, fmt.Errorf("pde.NewSolver: at least 3 grid points required, got %d: %w", s.points, solver.ErrBadInput)
	case !(s.stdDevs > 0):
		return nil, fmt.Errorf("pde.NewSolver: std devs must be positive, got %v: %w", s.stdDevs, solver.ErrBadInput)
	case s.theta < 0 || s.theta > 1:
		return nil, fmt.Errorf("pde.NewSolver: theta %v outside [0, 1]: %w", s.theta, solver.ErrBadInput)
	case !(s.maxStep > 0):
		return nil, fmt.Errorf("pde.NewSolver: max step must be positive, got %v: %w", s.maxStep, solver.ErrBadInput)
	}
	return s, nil
}

// States returns the grid at t.
func (s *Solver) States(t float64) (methods.State, error) {
	return methods.GridStates(s.model, t, s.points, s.stdDevs), nil
}

// RollBack solves from t1 to t0 on the grid x1 starting from max(u1, h1) and
// interpolates the result onto States(t0).
func (s *Solver) RollBack(t0, t1 float64, x1 methods.State, u1, h1 []float64) (methods.State, []float64, error) {
	if err := methods.CheckRollBack(t0, t1, x1, u1, h1); err != nil {
		return nil, nil, fmt.Errorf("pde.RollBack: %w", err)
	}
	x0, err := s.States(t0)
	if err != nil {
		return nil, nil, err
	}
	v := methods.ExerciseValue(u1, h1)
	xs := x1.Factor()

	// a single state means x is deterministic up to t1
	if len(xs) == 1 {
		h0 := make([]float64, x0.Points())
		for i, x := range x0.Factor() {
			h0[i] = s.model.ZeroBond(t0, x, t1) * v[0]
		}
		return x0, h0, nil
	}
	if len(xs) < 3 {
		return nil, nil, fmt.Errorf("pde.RollBack: %d grid states, need 3: %w", len(xs), solver.ErrBadInput)
	}
	dx := (xs[len(xs)-1] - xs[0]) / float64(len(xs)-1)
	for i := 1; i < len(xs); i++ {
		if math.Abs(xs[i]-xs[i-1]-dx) > 1e-8*dx {
			return nil, nil, fmt.Errorf("pde.RollBack: grid is not uniform at %d: %w", i, solver.ErrBadInput)
		}
	}

	steps := max(1, int(math.Ceil((t1-t0)/s.maxStep-1e-9)))
	h := (t1 - t0) / float64(steps)
	for k := 0; k < steps; k++ {
		hi := t1 - float64(k)*h
		if v, err = s.step(xs, dx, hi-h/2, h, v); err != nil {
			return nil, nil, fmt.Errorf("pde.RollBack: step at t=%v: %w", hi-h, err)
		}
	}

	interp, err := spline.New(xs, v)
	if err != nil {
		return nil, nil, fmt.Errorf("pde.RollBack: %w", err)
	}
	h0 := make([]float64, x0.Points())
	for i, x := range x0.Factor() {
		h0[i] = interp.Eval(x)
	}
	return x0, h0, nil
}

// operator returns M = -L at time t. Interior rows use central differences.
// The boundary rows drop V_xx and take the one-sided inward difference.
func (s *Solver) operator(xs []float64, dx, t float64) solver.Tridiagonal {
	n := len(xs)
	a := s.model.MeanReversion()
	y := s.model.Y(t)
	vol := s.model.Sigma(t)
	fwd := s.model.Curve().ForwardRate(t)
	diff := 0.5 * vol * vol / (dx * dx)

	m := solver.NewTridiagonal(n)
	for i, x := range xs {
		mu := y - a*x
		r := fwd + x
		switch i {
		case 0:
			m.Diag[i] = mu/dx + r
			m.Upper[i] = -mu / dx
		case n - 1:
			m.Lower[i] = mu / dx
			m.Diag[i] = -mu/dx + r
		default:
			conv := mu / (2 * dx)
			m.Lower[i] = conv - diff
			m.Diag[i] = 2*diff + r
			m.Upper[i] = -conv - diff
		}
	}
	return m
}

// scaled returns I + c*m.
func scaled(m solver.Tridiagonal, c float64) solver.Tridiagonal {
	out := solver.NewTridiagonal(m.Size())
	for i := range m.Diag {
		out.Lower[i] = c * m.Lower[i]
		out.Diag[i] = 1 + c*m.Diag[i]
		out.Upper[i] = c * m.Upper[i]
	}
	return out
}

// step moves v back by h with coefficients frozen at the mid-step time tm.
func (s *Solver) step(xs []float64, dx, tm, h float64, v []float64) ([]float64, error) {
	m := s.operator(xs, dx, tm)
	rhs, err := scaled(m, -(1-s.theta)*h).MulVec(nil, v)
	if err != nil {
		return nil, err
	}
	if s.theta == 0 {
		return rhs, nil
	}
	a := scaled(m, s.theta*h)
	if s.checkDominant {
		if err := a.CheckDominance(); err != nil {
			return nil, err
		}
	}
	return solver.SolveTridiagonal(a, rhs)
}
