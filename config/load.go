package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. HWLIB_THETA.
const EnvPrefix = "HWLIB"

// Load reads the configuration from path, or searches ./hwlib.yaml and
// ~/.hwlib/hwlib.yaml when path is empty. Missing search files are not an
// error; values fall back to DefaultConfig. Environment variables override
// both.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("hwlib")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".hwlib"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read %q: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig
	v.SetDefault("grid_points", d.GridPoints)
	v.SetDefault("std_devs", d.StdDevs)
	v.SetDefault("hermite_degree", d.HermiteDegree)
	v.SetDefault("theta", d.Theta)
	v.SetDefault("pde_step", d.PDEStep)
	v.SetDefault("amc_max_degree", d.AMCMaxDegree)
	v.SetDefault("amc_split_ratio", d.AMCSplitRatio)
	v.SetDefault("paths", d.Paths)
	v.SetDefault("seed", d.Seed)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("root_tolerance", d.RootTolerance)
	v.SetDefault("max_iterations", d.MaxIterations)
	v.SetDefault("log_level", d.LogLevel)
}
