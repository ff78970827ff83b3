package config

import (
	"fmt"
	"math"
)

// Config holds the numerical parameters shared by the rollback methods,
// the path simulation and the root finders.
type Config struct {
	// GridPoints is the number of states per exercise date used by the
	// density integration and PDE methods.
	GridPoints int `mapstructure:"grid_points"`

	// StdDevs is the half-width of the state grid in units of the
	// unconditional standard deviation of x(T).
	StdDevs float64 `mapstructure:"std_devs"`

	// HermiteDegree is the number of Gauss-Hermite nodes.
	HermiteDegree int `mapstructure:"hermite_degree"`

	// Theta blends explicit (0) and implicit (1) PDE time stepping.
	// 0.5 is Crank-Nicolson.
	Theta float64 `mapstructure:"theta"`

	// PDEStep is the maximum PDE time step in years.
	PDEStep float64 `mapstructure:"pde_step"`

	// AMCMaxDegree is the maximum total degree of the regression basis.
	AMCMaxDegree int `mapstructure:"amc_max_degree"`

	// AMCSplitRatio is the fraction of paths used to fit the regression.
	// The remaining paths carry the out-of-sample estimate.
	AMCSplitRatio float64 `mapstructure:"amc_split_ratio"`

	// Paths is the number of Monte Carlo paths.
	Paths int `mapstructure:"paths"`

	// Seed initialises the simulation's random source.
	Seed uint64 `mapstructure:"seed"`

	// Workers bounds the goroutines evolving path chunks.
	Workers int `mapstructure:"workers"`

	// RootTolerance is the absolute x-tolerance of bracketed root finding.
	RootTolerance float64 `mapstructure:"root_tolerance"`

	// MaxIterations bounds every iterative solver.
	MaxIterations int `mapstructure:"max_iterations"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
}

// DefaultConfig provides production-ready default values.
var DefaultConfig = Config{
	GridPoints:    101,
	StdDevs:       5.0,
	HermiteDegree: 5,
	Theta:         0.5,
	PDEStep:       1.0 / 12.0,
	AMCMaxDegree:  2,
	AMCSplitRatio: 0.25,
	Paths:         1 << 14,
	Seed:          123,
	Workers:       4,
	RootTolerance: 1e-8,
	MaxIterations: 100,
	LogLevel:      "info",
}

// cfg is the active configuration. Defaults to DefaultConfig.
var cfg = DefaultConfig

// SetConfig replaces the active configuration.
func SetConfig(c Config) {
	cfg = c
}

// GetConfig returns the active configuration.
func GetConfig() Config {
	return cfg
}

// Validate reports the first parameter outside its admissible range.
func (c Config) Validate() error {
	switch {
	case c.GridPoints < 2:
		return fmt.Errorf("config: grid_points must be at least 2, got %d", c.GridPoints)
	case !(c.StdDevs > 0) || math.IsInf(c.StdDevs, 0):
		return fmt.Errorf("config: std_devs must be positive, got %v", c.StdDevs)
	case c.HermiteDegree < 1:
		return fmt.Errorf("config: hermite_degree must be positive, got %d", c.HermiteDegree)
	case c.Theta < 0 || c.Theta > 1:
		return fmt.Errorf("config: theta must lie in [0, 1], got %v", c.Theta)
	case !(c.PDEStep > 0):
		return fmt.Errorf("config: pde_step must be positive, got %v", c.PDEStep)
	case c.AMCMaxDegree < 0:
		return fmt.Errorf("config: amc_max_degree must be non-negative, got %d", c.AMCMaxDegree)
	case c.AMCSplitRatio < 0 || c.AMCSplitRatio > 1:
		return fmt.Errorf("config: amc_split_ratio must lie in [0, 1], got %v", c.AMCSplitRatio)
	case c.Paths < 1:
		return fmt.Errorf("config: paths must be positive, got %d", c.Paths)
	case c.Workers < 1:
		return fmt.Errorf("config: workers must be positive, got %d", c.Workers)
	case !(c.RootTolerance > 0):
		return fmt.Errorf("config: root_tolerance must be positive, got %v", c.RootTolerance)
	case c.MaxIterations < 1:
		return fmt.Errorf("config: max_iterations must be positive, got %d", c.MaxIterations)
	}
	return nil
}
