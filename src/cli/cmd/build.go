package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/sofmeright/xcforge/src/build"
	"github.com/sofmeright/xcforge/src/config"
	"github.com/sofmeright/xcforge/src/fsys"
	"github.com/sofmeright/xcforge/src/gitver"
	"github.com/sofmeright/xcforge/src/manifest"
	"github.com/sofmeright/xcforge/src/output"
	"github.com/sofmeright/xcforge/src/process"
	"github.com/sofmeright/xcforge/src/toolchain"
	"github.com/sofmeright/xcforge/src/version"
)

var (
	bPlatforms        []string
	bConfiguration    string
	bTargets          []string
	bOutput           string
	bProject          string
	bLibraryEvolution bool
	bDebugSymbols     bool
	bJobs             int
	bOverwrite        bool
	bCache            bool
	bDryRun           bool
)

var buildCmd = &cobra.Command{
	Use:   "build [package-dir]",
	Short: "Build XCFrameworks for every library target of a package",
	Long: `Build every selected library target for each platform, assemble a
framework bundle per platform and merge them into one .xcframework per target.
Binary targets are copied into the output directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringSliceVar(&bPlatforms, "platform", nil, "platforms to build (default from config)")
	buildCmd.Flags().StringVar(&bConfiguration, "configuration", "", "build configuration: debug or release")
	buildCmd.Flags().StringSliceVar(&bTargets, "target", nil, "target selection patterns (regex, !exclude, group names)")
	buildCmd.Flags().StringVarP(&bOutput, "output", "o", "", "output directory for .xcframeworks")
	buildCmd.Flags().StringVar(&bProject, "project", "", "project description consumed by the build engine")
	buildCmd.Flags().BoolVar(&bLibraryEvolution, "library-evolution", false, "build for distribution (stable module interfaces)")
	buildCmd.Flags().BoolVar(&bDebugSymbols, "debug-symbols", false, "include dSYMs in the merged bundles")
	buildCmd.Flags().IntVarP(&bJobs, "jobs", "j", 0, "targets built concurrently")
	buildCmd.Flags().BoolVar(&bOverwrite, "overwrite", false, "replace existing outputs")
	buildCmd.Flags().BoolVar(&bCache, "cache", false, "treat existing outputs as cached artifacts")
	buildCmd.Flags().BoolVar(&bDryRun, "dry-run", false, "show the plan without building")
	rootCmd.AddCommand(buildCmd)
}

// applyBuildFlags copies explicitly set flags over the loaded config.
func applyBuildFlags(cmd *cobra.Command, c *config.Config) {
	f := cmd.Flags()
	if f.Changed("platform") {
		c.Platforms = bPlatforms
	}
	if f.Changed("configuration") {
		c.Configuration = bConfiguration
	}
	if f.Changed("target") {
		c.Targets = bTargets
	}
	if f.Changed("output") {
		c.Output = bOutput
	}
	if f.Changed("project") {
		c.Project = bProject
	}
	if f.Changed("library-evolution") {
		c.LibraryEvolution = bLibraryEvolution
	}
	if f.Changed("debug-symbols") {
		c.DebugSymbols = bDebugSymbols
	}
	if f.Changed("jobs") {
		c.Jobs = bJobs
	}
	if f.Changed("overwrite") {
		c.Overwrite = bOverwrite
	}
	if f.Changed("cache") {
		c.Cache = bCache
	}
}

// buildOptions resolves a validated config into pipeline options for the
// package at pkgDir.
func buildOptions(c *config.Config, pkgDir string) (build.Options, []build.Platform, error) {
	var opts build.Options

	conf, err := build.ParseConfiguration(c.Configuration)
	if err != nil {
		return opts, nil, err
	}
	platforms := make([]build.Platform, 0, len(c.Platforms))
	for _, s := range c.Platforms {
		p, err := build.ParsePlatform(s)
		if err != nil {
			return opts, nil, err
		}
		platforms = append(platforms, p)
	}

	buildDir, err := c.ResolveBuildDir(pkgDir)
	if err != nil {
		return opts, nil, fmt.Errorf("resolving build directory: %w", err)
	}

	opts = build.Options{
		Configuration:    conf,
		LibraryEvolution: c.LibraryEvolution,
		DebugSymbols:     c.DebugSymbols,
		ProjectPath:      c.ResolvePath(pkgDir, c.Project),
		BuildDir:         buildDir,
		DerivedData:      build.DerivedDataMode(c.DerivedData),
		OutputDir:        c.ResolveOutput(pkgDir),
		Settings:         c.Settings,
		BundleVersion:    c.Version,
		BundleIDPrefix:   c.BundleIDPrefix,
		Overwrite:        c.Overwrite,
		CacheEnabled:     c.Cache,
		Jobs:             c.Jobs,
	}
	return opts, platforms, nil
}

// selectTargets keeps the targets whose names pass the configured patterns.
func selectTargets(targets []build.Target, c *config.Config) ([]build.Target, error) {
	cp, err := config.CompilePatterns(c.Targets, c.Groups)
	if err != nil {
		return nil, err
	}
	var out []build.Target
	for _, t := range targets {
		if cp.Match(t.Name) {
			out = append(out, t)
		}
	}
	return out, nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()
	color := output.UseColor()
	start := time.Now()

	pkgDir := cfg.Package
	if len(args) > 0 {
		pkgDir = args[0]
	}
	applyBuildFlags(cmd, cfg)
	if err := validateConfig(); err != nil {
		return err
	}

	opts, platforms, err := buildOptions(cfg, pkgDir)
	if err != nil {
		return err
	}

	exec := process.NewExec(logger)
	tools := toolchain.NewLocator(exec, logger)
	fs := fsys.NewOS()

	output.Banner(w, output.NewBannerInfo(version.Version, version.Commit), color)
	output.CIHeader(w)

	// --- Detect ---
	output.SectionStartCollapsed(w, "xf_detect", "Detect")
	detectStart := time.Now()

	engine, err := tools.BuildEngine(ctx)
	if err != nil && !bDryRun {
		output.SectionEnd(w, "xf_detect")
		return err
	}
	if cfg.MinXcode != "" && !bDryRun {
		if err := tools.CheckVersion(ctx, cfg.MinXcode); err != nil {
			output.SectionEnd(w, "xf_detect")
			return err
		}
	}

	var pkg *manifest.Package
	if cfg.Describe != "" {
		pkg, err = manifest.Load(fs, cfg.ResolvePath(pkgDir, cfg.Describe))
	} else {
		pkg, err = manifest.Describe(ctx, exec, pkgDir)
	}
	if err != nil {
		output.SectionEnd(w, "xf_detect")
		return fmt.Errorf("reading package description: %w", err)
	}

	all, err := pkg.BuildTargets(fs)
	if err != nil {
		output.SectionEnd(w, "xf_detect")
		return err
	}
	targets, err := selectTargets(all, cfg)
	if err != nil {
		output.SectionEnd(w, "xf_detect")
		return err
	}

	versionSource := "config"
	if opts.BundleVersion == "" {
		versionSource = "git"
		vi, verr := gitver.DetectVersion(pkgDir)
		if verr != nil {
			logger.Warn("bundle version not detected", "error", verr)
			versionSource = "none"
		} else {
			opts.BundleVersion = vi.BundleVersion()
		}
	}

	sec := output.NewSection(w, "Detect", time.Since(detectStart), color)
	sec.Row("%-16s→ %s", "package", pkg.Name)
	if engine != "" {
		sec.Row("%-16s→ %s", "engine", engine)
	}
	sec.Row("%-16s→ %d of %d", "targets", len(targets), len(all))
	sec.Row("%-16s→ %s %s", "version", displayOr(opts.BundleVersion, "-"), output.Dimmed("("+versionSource+")", color))
	sec.Close()
	output.SectionEnd(w, "xf_detect")

	// --- Plan ---
	plan, err := build.NewPlan(targets, platforms, opts)
	if err != nil {
		return err
	}

	output.ContextBlock(w, buildContextKV(plan, platforms))

	output.SectionStartCollapsed(w, "xf_plan", "Plan")
	planSec := output.NewSection(w, "Plan", 0, color)
	output.PlanRows(planSec, plan, color)
	planSec.Separator()
	planSec.Row("%d targets, %d builds", len(plan.Targets), plan.StepCount())
	planSec.Close()
	output.SectionEnd(w, "xf_plan")

	if bDryRun {
		fmt.Fprintf(w, "\n    dry run, nothing built\n")
		return nil
	}

	if err := fs.MkdirAll(opts.OutputDir); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	// --- Build ---
	output.SectionStart(w, "xf_build", "Build")
	buildSec := output.NewSection(w, "Build", 0, color)
	var mu sync.Mutex
	pipe := build.NewPipeline(exec, tools, fs, opts, logger)
	pipe.OnStep = func(s build.StepResult) {
		mu.Lock()
		defer mu.Unlock()
		output.StepRow(buildSec, s)
	}
	res, runErr := pipe.Run(ctx, plan)
	buildSec.Close()
	output.SectionEnd(w, "xf_build")

	if len(res.Failed()) > 0 {
		output.SectionStart(w, "xf_failures", "Failures")
		failSec := output.NewSection(w, "Failures", 0, color)
		output.FailureRows(failSec, res, color)
		failSec.Close()
		output.SectionEnd(w, "xf_failures")
	}

	if output.IsCI() {
		reports := filepath.Join(opts.BuildDir, "reports")
		if err := output.WriteBuildJUnit(fs, reports, res); err != nil {
			logger.Warn("writing junit report", "error", err)
		}
	}

	// --- Summary ---
	sumSec := output.NewSection(w, "Summary", time.Since(start), color)
	output.BuildSummary(sumSec, res)
	sumSec.Close()
	fmt.Fprintln(w)

	return runErr
}

func buildContextKV(plan *build.BuildPlan, platforms []build.Platform) []output.KV {
	names := make([]string, len(platforms))
	for i, p := range platforms {
		names[i] = string(p)
	}
	kv := []output.KV{
		{Key: "Config", Value: string(plan.Options.Configuration)},
		{Key: "Derived", Value: string(plan.Options.DerivedData)},
		{Key: "Platforms", Value: strings.Join(names, ",")},
		{Key: "Output", Value: plan.Options.OutputDir},
	}
	if plan.Options.LibraryEvolution {
		kv = append(kv, output.KV{Key: "Evolution", Value: "on"})
	}
	return kv
}

func displayOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
