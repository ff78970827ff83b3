package sabr_test

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/meenmo/hwlib/black"
	"github.com/meenmo/hwlib/sabr"
	"github.com/meenmo/hwlib/simulation"
	"github.com/meenmo/hwlib/solver"
)

func newModel(t *testing.T) *sabr.Model {
	t.Helper()
	m, err := sabr.New(0.05, 1, 0.042, 0.5, 0.5, 0.7)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := m.CalibrateATM(0.01); err != nil {
		t.Fatalf("CalibrateATM: %v", err)
	}
	return m
}

func TestCalibrateATM(t *testing.T) {
	t.Parallel()

	m := newModel(t)
	if got := m.NormalVolatility(m.Forward); math.Abs(got-0.01) > 1e-7 {
		t.Fatalf("ATM vol mismatch: got %v want 0.01", got)
	}
	// the ATM limit joins the off-ATM formula continuously
	if d := math.Abs(m.NormalVolatility(m.Forward+1e-7) - m.NormalVolatility(m.Forward)); d > 1e-7 {
		t.Fatalf("ATM discontinuity %v", d)
	}
	if _, err := m.CalibrateATM(-1); !errors.Is(err, solver.ErrBadInput) {
		t.Fatalf("expected ErrBadInput, got %v", err)
	}
}

func TestSkew(t *testing.T) {
	t.Parallel()

	m := newModel(t)
	// positive correlation lifts volatility with the strike
	if lo, hi := m.NormalVolatility(0.03), m.NormalVolatility(0.07); !(hi > lo) {
		t.Fatalf("expected upward skew, got %v at 3%% and %v at 7%%", lo, hi)
	}
}

func TestPutCallParity(t *testing.T) {
	t.Parallel()

	m := newModel(t)
	for _, k := range []float64{0.02, 0.05, 0.08} {
		got := m.VanillaPrice(k, black.Call) - m.VanillaPrice(k, black.Put)
		if want := m.Forward - k; math.Abs(got-want) > 1e-14 {
			t.Fatalf("parity mismatch at %v: got %v want %v", k, got, want)
		}
	}
}

func TestDensityMass(t *testing.T) {
	t.Parallel()

	m := newModel(t)
	strikes := floats.Span(make([]float64, 199), 0.001, 0.100)
	dens := make([]float64, len(strikes))
	for i, k := range strikes {
		dens[i] = m.Density(k)
	}
	if mass := integrate.Simpsons(strikes, dens); mass < 0.98 || mass > 1.001 {
		t.Fatalf("density mass %v outside [0.98, 1.001]", mass)
	}
}

func TestMonteCarlo(t *testing.T) {
	t.Parallel()

	m := newModel(t)
	times := floats.Span(make([]float64, 51), 0, 1)
	sim, err := simulation.Simulate(m, times, 1<<14, simulation.WithSeed(7))
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	fwd := sim.State(len(times) - 1)[0]
	if mean := stat.Mean(fwd, nil); math.Abs(mean-m.Forward) > 3e-4 {
		t.Fatalf("forward drift: got %v want %v", mean, m.Forward)
	}
	payoff := make([]float64, len(fwd))
	for p, f := range fwd {
		payoff[p] = math.Max(f-m.Forward, 0)
	}
	if got, want := stat.Mean(payoff, nil), m.VanillaPrice(m.Forward, black.Call); math.Abs(got-want) > 3e-4 {
		t.Fatalf("ATM call mismatch: got %v want %v", got, want)
	}
}

func TestValidation(t *testing.T) {
	t.Parallel()

	cases := map[string][6]float64{
		"alpha":  {0.05, 1, 0, 0.5, 0.5, 0},
		"beta":   {0.05, 1, 0.04, 1.5, 0.5, 0},
		"nu":     {0.05, 1, 0.04, 0.5, -0.5, 0},
		"rho":    {0.05, 1, 0.04, 0.5, 0.5, 1},
		"expiry": {0.05, -1, 0.04, 0.5, 0.5, 0},
	}
	for name, p := range cases {
		if _, err := sabr.New(p[0], p[1], p[2], p[3], p[4], p[5]); !errors.Is(err, solver.ErrBadInput) {
			t.Fatalf("%s: expected ErrBadInput, got %v", name, err)
		}
	}
}
