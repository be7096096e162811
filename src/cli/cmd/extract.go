package cmd

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/sofmeright/xcforge/src/build"
	"github.com/sofmeright/xcforge/src/fsys"
	"github.com/sofmeright/xcforge/src/output"
)

var (
	xOutput    string
	xOverwrite bool
	xCache     bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <artifact>...",
	Short: "Copy pre-built binary artifacts into the output directory",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&xOutput, "output", "o", "", "output directory (default from config)")
	extractCmd.Flags().BoolVar(&xOverwrite, "overwrite", false, "replace existing artifacts")
	extractCmd.Flags().BoolVar(&xCache, "cache", false, "treat existing artifacts as cached")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	f := cmd.Flags()
	if f.Changed("output") {
		cfg.Output = xOutput
	}
	if f.Changed("overwrite") {
		cfg.Overwrite = xOverwrite
	}
	if f.Changed("cache") {
		cfg.Cache = xCache
	}
	if cfg.Overwrite && cfg.Cache {
		logger.Warn("overwrite takes precedence over cache")
	}

	dest := cfg.ResolveOutput(cfg.Package)
	fs := fsys.NewOS()
	if err := fs.MkdirAll(dest); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	x := &build.Extractor{FS: fs, Logger: logger}
	var errs *multierror.Error
	for _, src := range args {
		start := time.Now()
		out, err := x.Extract(src, dest, cfg.Overwrite, cfg.Cache)
		if err != nil {
			output.PhaseResult(w, "extract", "failed", err.Error(), time.Since(start))
			errs = multierror.Append(errs, err)
			continue
		}
		output.PhaseResult(w, "extract", "success", out, time.Since(start))
	}
	return errs.ErrorOrNil()
}
