package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sofmeright/xcforge/src/config"
	"github.com/sofmeright/xcforge/src/output"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "xcforge",
	Short: "Build XCFrameworks from Swift packages",
	Long:  "xcforge builds every library target of a Swift package for each Apple platform and merges the results into XCFrameworks.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = output.NewLogger(os.Stderr, verbose)
		// Skip config loading for commands that don't need it.
		if cmd.Name() == "version" || cmd.Name() == "platforms" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .xcforge.yml or .xcforge.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// Execute runs the root command. An interrupt cancels the run and stops
// any running build engine.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

// validateConfig reports config warnings through the logger and fails on
// hard errors.
func validateConfig() error {
	warnings, err := config.Validate(cfg)
	for _, w := range warnings {
		logger.Warn("config", "warning", w)
	}
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
