package build

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/sofmeright/xcforge/src/fsys"
	"github.com/sofmeright/xcforge/src/process"
)

// EngineLocator resolves the build engine binary.
type EngineLocator interface {
	BuildEngine(ctx context.Context) (string, error)
}

// Builder drives the build engine for one (target, platform) step and
// assembles the resulting single-platform framework.
type Builder struct {
	Exec    process.Executor
	Tools   EngineLocator
	FS      fsys.FS
	Options Options
	Logger  *slog.Logger
}

// buildParameters is the engine's build parameters file.
type buildParameters struct {
	ConfigurationName string `json:"configurationName"`
	Overrides         struct {
		Synthesized settingsTable `json:"synthesized"`
	} `json:"overrides"`
}

type settingsTable struct {
	Table map[string]string `json:"table"`
}

// Build runs step through NotStarted → Building → Assembling → Done. Any
// failure ends in Failed and is returned as a *StepError; the StepResult is
// returned either way.
func (b *Builder) Build(ctx context.Context, step BuildStep) (*StepResult, error) {
	start := time.Now()
	t, p := step.Target, step.Platform
	log := loggerOr(b.Logger).With("target", t.Name, "platform", string(p))

	result := &StepResult{Target: t.Name, Platform: p, State: StateNotStarted}
	fail := func(state State, detail string, err error) (*StepResult, error) {
		result.State = StateFailed
		result.Duration = time.Since(start)
		result.Error = &StepError{Target: t.Name, Platform: p, State: state, Detail: detail, Err: err}
		log.Error("step failed", "state", state.String(), "error", err)
		return result, result.Error
	}

	// --- Building ---
	result.State = StateBuilding
	log.Info("building", "identifier", t.Identifier())

	engine, err := b.Tools.BuildEngine(ctx)
	if err != nil {
		return fail(StateBuilding, "", err)
	}

	params, err := b.writeParameters(step)
	if err != nil {
		return fail(StateBuilding, "", err)
	}

	res, err := b.Exec.Execute(ctx, engine, b.BuildArgs(step, params)...)
	if err != nil {
		var exitErr *process.ExitError
		if errors.As(err, &exitErr) {
			detail, ok := DecodeBuildLog(res)
			if !ok {
				detail = strings.TrimSpace(exitErr.Stderr)
			}
			return fail(StateBuilding, detail, fmt.Errorf("%w: %w", ErrBuildFailed, err))
		}
		return fail(StateBuilding, "", err)
	}

	// --- Assembling ---
	result.State = StateAssembling
	prod, err := (&Discoverer{FS: b.FS}).Discover(step)
	if err != nil {
		return fail(StateAssembling, "", err)
	}

	gen := &ModuleMapGenerator{FS: b.FS, Dir: filepath.Join(b.Options.BuildDir, "ModuleMaps")}
	moduleMap, err := gen.Generate(t, p, b.Options.Configuration, prod)
	if err != nil {
		return fail(StateAssembling, "", err)
	}

	comps := NewFrameworkComponents(t, p, prod, moduleMap)
	comps.Version = b.Options.BundleVersion
	comps.BundleIdentifier = b.Options.BundleIdentifier(t)

	// A bundle left by an earlier run would collide; this step owns the path.
	bundle := filepath.Join(step.FrameworksDir, t.Name+".framework")
	if err := b.FS.RemoveAll(bundle); err != nil {
		return fail(StateAssembling, "", fmt.Errorf("%w: clearing %s: %v", ErrAssembly, bundle, err))
	}

	asm := &Assembler{FS: b.FS, Logger: b.Logger}
	if result.Framework, err = asm.Assemble(comps, step.FrameworksDir); err != nil {
		return fail(StateAssembling, "", err)
	}
	if b.Options.DebugSymbols {
		result.DebugSymbols = prod.DebugSymbolsPath
	}

	result.State = StateDone
	result.Duration = time.Since(start)
	log.Info("built", "framework", result.Framework, "elapsed", result.Duration)
	return result, nil
}

// BuildArgs constructs the engine argument list for step.
func (b *Builder) BuildArgs(step BuildStep, paramsPath string) []string {
	return []string{
		"build", b.Options.ProjectPath,
		"--configuration", b.Options.Configuration.SettingValue(),
		"--derivedDataPath", step.DerivedData,
		"--buildParametersFile", paramsPath,
		"--target", step.Target.Identifier(),
	}
}

// BuildSettings returns the settings written into the parameters file for
// platform p. Explicit settings from Options win over computed ones.
func (b *Builder) BuildSettings(p Platform) map[string]string {
	s := map[string]string{
		"SDKROOT":                        p.SettingValue(),
		"ONLY_ACTIVE_ARCH":               "NO",
		"SKIP_INSTALL":                   "NO",
		"BUILD_LIBRARY_FOR_DISTRIBUTION": "NO",
	}
	if b.Options.LibraryEvolution {
		s["BUILD_LIBRARY_FOR_DISTRIBUTION"] = "YES"
	}
	if b.Options.DebugSymbols {
		s["DEBUG_INFORMATION_FORMAT"] = "dwarf-with-dsym"
	}
	for k, v := range b.Options.Settings {
		s[k] = v
	}
	return s
}

func (b *Builder) writeParameters(step BuildStep) (string, error) {
	var params buildParameters
	params.ConfigurationName = b.Options.Configuration.SettingValue()
	params.Overrides.Synthesized.Table = b.BuildSettings(step.Platform)

	data, err := json.MarshalIndent(params, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding build parameters: %w", err)
	}

	name := ProductDirName(b.Options.Configuration, step.Platform) + ".parameters.json"
	path := filepath.Join(step.DerivedData, name)
	if err := b.FS.WriteFile(path, append(data, '\n')); err != nil {
		return "", fmt.Errorf("writing build parameters: %w", err)
	}
	return path, nil
}
