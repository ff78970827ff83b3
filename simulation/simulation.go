// Package simulation generates Monte Carlo paths of a stochastic process
// into a dense (time, state, path) tensor.
package simulation

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/meenmo/hwlib/config"
	"github.com/meenmo/hwlib/solver"
)

// Process is a diffusion that can be stepped forward on a batch of paths.
// State and increment matrices have one row per variable (or factor) and one
// column per path.
type Process interface {
	Size() int
	Factors() int
	InitialValues() []float64
	// Evolve writes the states at t0+dt into x1 given the states x0 at t0
	// and standard normal increments dW.
	Evolve(t0, dt float64, x0, dW, x1 [][]float64)
}

// Paths holds the simulated states. It is read-only after Simulate returns.
type Paths struct {
	process Process
	times   []float64
	size    int
	nPaths  int
	data    []float64
}

type options struct {
	seed    uint64
	workers int
	logger  *zap.Logger
}

// Option configures Simulate.
type Option func(*options)

// WithSeed sets the seed of the random source.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = seed }
}

// WithWorkers bounds the goroutines evolving path chunks within a time step.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// minChunk is the smallest path chunk handed to a worker.
const minChunk = 256

// Simulate evolves nPaths paths of p across times, starting from
// p.InitialValues() at times[0]. Time steps are sequential. Normals are drawn
// for a whole step in (factor, path) order before it is evolved, so the
// result only depends on the seed.
func Simulate(p Process, times []float64, nPaths int, opts ...Option) (*Paths, error) {
	cfg := config.GetConfig()
	o := options{seed: cfg.Seed, workers: cfg.Workers, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := validate(p, times, nPaths); err != nil {
		return nil, err
	}
	if o.workers < 1 {
		o.workers = 1
	}

	start := time.Now()
	size, factors := p.Size(), p.Factors()
	sim := &Paths{
		process: p,
		times:   append([]float64(nil), times...),
		size:    size,
		nPaths:  nPaths,
		data:    make([]float64, len(times)*size*nPaths),
	}
	initial := p.InitialValues()
	x0 := sim.State(0)
	for d := range x0 {
		for k := range x0[d] {
			x0[d][k] = initial[d]
		}
	}

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(o.seed, o.seed)}
	dW := make([][]float64, factors)
	for f := range dW {
		dW[f] = make([]float64, nPaths)
	}

	chunk := max(minChunk, (nPaths+o.workers-1)/o.workers)
	for i := 0; i+1 < len(times); i++ {
		for f := range dW {
			for k := range dW[f] {
				dW[f][k] = normal.Rand()
			}
		}
		t0, dt := times[i], times[i+1]-times[i]
		from, to := sim.State(i), sim.State(i+1)

		var g errgroup.Group
		g.SetLimit(o.workers)
		for lo := 0; lo < nPaths; lo += chunk {
			hi := min(lo+chunk, nPaths)
			g.Go(func() error {
				next := columns(to, lo, hi)
				p.Evolve(t0, dt, columns(from, lo, hi), columns(dW, lo, hi), next)
				return checkFinite(next, lo)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("simulation.Simulate: step %d: %w", i, err)
		}
	}

	o.logger.Debug("paths simulated",
		zap.Int("steps", len(times)-1),
		zap.Int("paths", nPaths),
		zap.Int("workers", o.workers),
		zap.Duration("elapsed", time.Since(start)))
	return sim, nil
}

func validate(p Process, times []float64, nPaths int) error {
	if p == nil {
		return fmt.Errorf("simulation.Simulate: process is required: %w", solver.ErrBadInput)
	}
	if nPaths <= 0 {
		return fmt.Errorf("simulation.Simulate: number of paths must be positive, got %d: %w", nPaths, solver.ErrBadInput)
	}
	if len(times) == 0 {
		return fmt.Errorf("simulation.Simulate: no simulation times: %w", solver.ErrBadInput)
	}
	if times[0] < 0 || math.IsNaN(times[0]) {
		return fmt.Errorf("simulation.Simulate: negative start time %v: %w", times[0], solver.ErrBadInput)
	}
	for i := 1; i < len(times); i++ {
		if !(times[i] > times[i-1]) {
			return fmt.Errorf("simulation.Simulate: times not strictly increasing at %d: %w", i, solver.ErrBadInput)
		}
	}
	if len(p.InitialValues()) != p.Size() || p.Size() == 0 {
		return fmt.Errorf("simulation.Simulate: %d initial values for size %d: %w",
			len(p.InitialValues()), p.Size(), solver.ErrBadInput)
	}
	return nil
}

func checkFinite(x [][]float64, offset int) error {
	for d, row := range x {
		for k, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("state %d of path %d is %v: %w", d, offset+k, v, solver.ErrIllConditioned)
			}
		}
	}
	return nil
}

// columns returns row views restricted to paths [lo, hi).
func columns(x [][]float64, lo, hi int) [][]float64 {
	out := make([][]float64, len(x))
	for d := range x {
		out[d] = x[d][lo:hi:hi]
	}
	return out
}

// Process returns the simulated process.
func (s *Paths) Process() Process { return s.process }

// Times returns the simulation times.
func (s *Paths) Times() []float64 { return s.times }

// NumPaths returns the number of paths.
func (s *Paths) NumPaths() int { return s.nPaths }

// Size returns the state dimension.
func (s *Paths) Size() int { return s.size }

// State returns the states at time index i as row views into the tensor,
// one row per state variable.
func (s *Paths) State(i int) [][]float64 {
	rows := make([][]float64, s.size)
	base := i * s.size * s.nPaths
	for d := range rows {
		lo := base + d*s.nPaths
		rows[d] = s.data[lo : lo+s.nPaths : lo+s.nPaths]
	}
	return rows
}

// NearestIndex returns the index of the simulation time closest to t. Ties
// go to the later time.
func (s *Paths) NearestIndex(t float64) int {
	idx := sort.SearchFloat64s(s.times, t)
	if idx > 0 && (idx == len(s.times) || math.Abs(t-s.times[idx-1]) < math.Abs(t-s.times[idx])) {
		return idx - 1
	}
	return idx
}
