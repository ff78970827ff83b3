// Package methods defines the rollback contract used by backward induction
// and the density integration methods on a Hull-White state grid.
package methods

import (
	"fmt"
	"math"

	"github.com/meenmo/hwlib/solver"
)

// State is a batch of model states with one row per state variable and one
// column per grid point or path. Row 0 is the Hull-White factor x.
type State [][]float64

// GridState wraps a vector of factor values.
func GridState(x []float64) State { return State{x} }

// Vars returns the number of state variables.
func (s State) Vars() int { return len(s) }

// Points returns the number of states in the batch.
func (s State) Points() int {
	if len(s) == 0 {
		return 0
	}
	return len(s[0])
}

// Factor returns the row of the Hull-White factor.
func (s State) Factor() []float64 { return s[0] }

// Column copies the state of point j.
func (s State) Column(j int) []float64 {
	col := make([]float64, len(s))
	for d := range s {
		col[d] = s[d][j]
	}
	return col
}

// Validate checks that the state is non-empty and rectangular.
func (s State) Validate() error {
	if len(s) == 0 || len(s[0]) == 0 {
		return fmt.Errorf("empty state: %w", solver.ErrBadInput)
	}
	for d := range s {
		if len(s[d]) != len(s[0]) {
			return fmt.Errorf("state row %d has %d points, want %d: %w", d, len(s[d]), len(s[0]), solver.ErrBadInput)
		}
	}
	return nil
}

// Method rolls a value function back from one exercise date to an earlier
// one.
type Method interface {
	// States returns the representative states at time t.
	States(t float64) (State, error)
	// RollBack takes the exercise values u1 and continuation values h1 on
	// the states x1 at t1 and returns the states x0 = States(t0) with the
	// continuation values at t0.
	RollBack(t0, t1 float64, x1 State, u1, h1 []float64) (State, []float64, error)
}

// Model supplies the Gaussian transition statistics of the factor.
type Model interface {
	Variance(t, T float64) float64
	ForwardExpectation(t, x, T float64) float64
	ZeroBond(t, x, T float64) float64
}

// CheckRollBack validates the arguments shared by every RollBack.
func CheckRollBack(t0, t1 float64, x1 State, u1, h1 []float64) error {
	if !(t0 >= 0) || !(t1 > t0) || math.IsInf(t1, 0) {
		return fmt.Errorf("rollback from %v to %v: %w", t1, t0, solver.ErrBadInput)
	}
	if err := x1.Validate(); err != nil {
		return err
	}
	if n := x1.Points(); len(u1) != n || len(h1) != n {
		return fmt.Errorf("%d states, %d exercise values and %d continuation values: %w",
			n, len(u1), len(h1), solver.ErrBadInput)
	}
	return nil
}

// ExerciseValue returns max(u, h) pointwise, the value of holding the
// exercise right at t1.
func ExerciseValue(u, h []float64) []float64 {
	v := make([]float64, len(u))
	for i := range u {
		v[i] = math.Max(u[i], h[i])
	}
	return v
}
