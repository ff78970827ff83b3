// Package bermudan prices Bermudan options by backward induction over the
// exercise dates.
package bermudan

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/meenmo/hwlib/methods"
	"github.com/meenmo/hwlib/payoff"
	"github.com/meenmo/hwlib/solver"
)

// Engine runs the backward induction.
type Engine struct {
	logger *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine returns an engine that logs nothing unless WithLogger is given.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Price is NewEngine().Price.
func Price(times []float64, payoffs []payoff.Payoff, m methods.Method) (float64, error) {
	return NewEngine().Price(times, payoffs, m)
}

// Price returns the value at time 0 of the right to receive payoffs[k] at
// times[k] for at most one k.
//
// Starting from H = 0 on States(T_n), each step evaluates the underlying
// U_k on the current states and rolls max(U_k, H_k) back to T_{k-1}. The last
// rollback ends at 0 where H is read off at x = 0.
func (e *Engine) Price(times []float64, payoffs []payoff.Payoff, m methods.Method) (float64, error) {
	if err := validate(times, payoffs, m); err != nil {
		return 0, err
	}
	start := time.Now()
	n := len(times)

	var (
		x    methods.State
		u, h []float64
		err  error
	)
	for k := n; k >= 1; k-- {
		if k == n {
			if x, err = m.States(times[k-1]); err != nil {
				return 0, fmt.Errorf("Price: states at %v: %w", times[k-1], err)
			}
			h = make([]float64, x.Points())
		} else {
			if x, h, err = m.RollBack(times[k-1], times[k], x, u, h); err != nil {
				return 0, fmt.Errorf("Price: rollback %v -> %v: %w", times[k], times[k-1], err)
			}
		}
		if u, err = payoffs[k-1].At(x); err != nil {
			return 0, fmt.Errorf("Price: payoff %d: %w", k-1, err)
		}
		if err := checkShape(x, u, h); err != nil {
			return 0, fmt.Errorf("Price: exercise %d: %w", k-1, err)
		}
		e.logger.Debug("backward induction",
			zap.Int("exercise", k-1),
			zap.Float64("t", times[k-1]),
			zap.Int("states", x.Points()))
	}
	if x, h, err = m.RollBack(0, times[0], x, u, h); err != nil {
		return 0, fmt.Errorf("Price: rollback %v -> 0: %w", times[0], err)
	}
	if err := x.Validate(); err != nil {
		return 0, fmt.Errorf("Price: %w", err)
	}
	if len(h) != x.Points() {
		return 0, fmt.Errorf("Price: %d values for %d states: %w", len(h), x.Points(), solver.ErrBadInput)
	}
	npv := valueAtZero(x.Factor(), h)
	e.logger.Debug("bermudan priced",
		zap.Int("exercises", n),
		zap.Float64("npv", npv),
		zap.Duration("elapsed", time.Since(start)))
	return npv, nil
}

func validate(times []float64, payoffs []payoff.Payoff, m methods.Method) error {
	switch {
	case m == nil:
		return fmt.Errorf("Price: method is required: %w", solver.ErrBadInput)
	case len(times) == 0:
		return fmt.Errorf("Price: no exercise times: %w", solver.ErrBadInput)
	case len(times) != len(payoffs):
		return fmt.Errorf("Price: %d exercise times for %d payoffs: %w", len(times), len(payoffs), solver.ErrBadInput)
	case !(times[0] > 0):
		return fmt.Errorf("Price: first exercise %v must be positive: %w", times[0], solver.ErrBadInput)
	}
	for i, t := range times {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Errorf("Price: exercise time %d is %v: %w", i, t, solver.ErrBadInput)
		}
		if i > 0 && !(t > times[i-1]) {
			return fmt.Errorf("Price: exercise times not increasing at %d: %w", i, solver.ErrBadInput)
		}
		if payoffs[i] == nil {
			return fmt.Errorf("Price: payoff %d is nil: %w", i, solver.ErrBadInput)
		}
	}
	return nil
}

func checkShape(x methods.State, u, h []float64) error {
	if err := x.Validate(); err != nil {
		return err
	}
	if len(u) != x.Points() || len(h) != x.Points() {
		return fmt.Errorf("%d states with %d payoffs and %d continuation values: %w",
			x.Points(), len(u), len(h), solver.ErrBadInput)
	}
	return nil
}

// valueAtZero interpolates h linearly against increasing xs at 0, flat
// beyond the ends.
func valueAtZero(xs, h []float64) float64 {
	if len(xs) == 1 {
		return h[0]
	}
	i := sort.SearchFloat64s(xs, 0)
	switch {
	case i == 0:
		return h[0]
	case i == len(xs):
		return h[len(h)-1]
	case xs[i] == 0:
		return h[i]
	}
	w := (0 - xs[i-1]) / (xs[i] - xs[i-1])
	return h[i-1] + w*(h[i]-h[i-1])
}
