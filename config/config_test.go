package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/meenmo/hwlib/config"
)

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()

	if err := config.DefaultConfig.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	t.Parallel()

	cases := map[string]func(c *config.Config){
		"grid":  func(c *config.Config) { c.GridPoints = 1 },
		"theta": func(c *config.Config) { c.Theta = 1.5 },
		"split": func(c *config.Config) { c.AMCSplitRatio = -0.1 },
		"step":  func(c *config.Config) { c.PDEStep = 0 },
		"paths": func(c *config.Config) { c.Paths = 0 },
		"tol":   func(c *config.Config) { c.RootTolerance = 0 },
	}
	for name, mutate := range cases {
		mutate := mutate
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			c := config.DefaultConfig
			mutate(&c)
			if err := c.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hwlib.yaml")
	body := "grid_points: 51\ntheta: 1.0\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	c, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.GridPoints != 51 {
		t.Fatalf("grid_points mismatch: got %d", c.GridPoints)
	}
	if c.Theta != 1.0 {
		t.Fatalf("theta mismatch: got %v", c.Theta)
	}
	if c.LogLevel != "debug" {
		t.Fatalf("log_level mismatch: got %q", c.LogLevel)
	}
	if c.HermiteDegree != config.DefaultConfig.HermiteDegree {
		t.Fatalf("hermite_degree should default: got %d", c.HermiteDegree)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("HWLIB_PATHS", "2048")

	c, err := config.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Paths != 2048 {
		t.Fatalf("paths mismatch: got %d", c.Paths)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Parallel()

	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit file")
	}
}

func TestSetConfig(t *testing.T) {
	orig := config.GetConfig()
	defer config.SetConfig(orig)

	c := orig
	c.GridPoints = 31
	config.SetConfig(c)
	if got := config.GetConfig().GridPoints; got != 31 {
		t.Fatalf("GetConfig mismatch: got %d", got)
	}
}
