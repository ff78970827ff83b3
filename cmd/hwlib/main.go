// hwlib prices Bermudan options under the Hull-White model.
//
// Tasks are JSON objects (or arrays of them) read from stdin or --input.
// Results are printed as JSON in the same shape.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/meenmo/hwlib/cmd/hwlib/internal/task"
	"github.com/meenmo/hwlib/config"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
)

var logger = zap.NewNop()

// errTasksFailed makes the process exit 1 after printing every output.
var errTasksFailed = errors.New("one or more tasks failed")

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errTasksFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "hwlib",
	Short:         "Bermudan option pricing under one-factor Hull-White",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.LogLevel = level
		}
		config.SetConfig(cfg)
		logger, err = newLogger(cfg.LogLevel)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./hwlib.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("input", "", "JSON input path (reads stdin if omitted)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(priceCmd)
	rootCmd.AddCommand(europeanCmd)
	rootCmd.AddCommand(swaptionCmd)
	rootCmd.AddCommand(sabrCmd)
}

// newLogger writes JSON logs to stderr so stdout stays machine readable.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "hwlib %s (%s)\n", version, commit)
	},
}

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Price Bermudan coupon bond options by backward induction",
	Long: `Price Bermudan coupon bond options by backward induction.

Example:
  echo '{"curve":{"flat_rate":0.03},
         "model":{"mean_reversion":0.05,"vol_times":[30],"vol_values":[0.01]},
         "method":{"name":"exact","break_even":true},
         "exercises":[{"time":19,"pay_times":[19,20,20],"cash_flows":[-1,0.03,1]}]}' | hwlib price`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTasks(cmd, task.Price, task.PriceOutput.Failed)
	},
}

var europeanCmd = &cobra.Command{
	Use:   "european",
	Short: "Price European coupon bond options by Jamshidian's decomposition",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTasks(cmd, task.European, task.PriceOutput.Failed)
	},
}

var swaptionCmd = &cobra.Command{
	Use:   "swaption",
	Short: "Price European and Bermudan swaptions from calendar dates",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTasks(cmd, task.Swaption, task.SwaptionOutput.Failed)
	},
}

var sabrCmd = &cobra.Command{
	Use:   "sabr",
	Short: "Evaluate SABR normal volatilities, prices and densities",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTasks(cmd, task.SABR, task.SABROutput.Failed)
	},
}

// runTasks decodes the input, processes every task and prints the outputs.
func runTasks[I, O any](cmd *cobra.Command, process func(I, *zap.Logger) O, failed func(O) bool) error {
	path, _ := cmd.Flags().GetString("input")
	raw, err := task.ReadInput(path, cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	inputs, isArray, err := task.ParseInputs[I](raw)
	if err != nil {
		return fmt.Errorf("parse JSON: %w", err)
	}

	hadError := false
	outputs := make([]O, 0, len(inputs))
	for _, in := range inputs {
		out := process(in, logger)
		hadError = hadError || failed(out)
		outputs = append(outputs, out)
	}
	if err := task.WriteOutputs(cmd.OutOrStdout(), outputs, isArray); err != nil {
		return err
	}
	logger.Info("tasks done", zap.String("command", cmd.Name()), zap.Int("tasks", len(inputs)), zap.Bool("errors", hadError))
	if hadError {
		return errTasksFailed
	}
	return nil
}
