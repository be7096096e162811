package build

import (
	"fmt"
	"path/filepath"
)

// BuildPlan is the resolved execution plan for a pipeline run.
type BuildPlan struct {
	Options Options
	Targets []TargetPlan
}

// TargetPlan is everything that happens for one target.
type TargetPlan struct {
	Target Target
	// Steps is one build per platform; empty for binary targets.
	Steps []BuildStep
	// Output is the merged .xcframework path, or the extraction directory
	// for binary targets.
	Output string
}

// BuildStep is a single (target, platform) build.
type BuildStep struct {
	Target      Target
	Platform    Platform
	DerivedData string
	// ProductDir is where the engine leaves products for this step.
	ProductDir string
	// FrameworksDir is where the single-platform bundle is assembled.
	FrameworksDir string
}

// NewPlan expands targets × platforms into build steps.
func NewPlan(targets []Target, platforms []Platform, opts Options) (*BuildPlan, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("no targets to build")
	}
	if len(platforms) == 0 {
		return nil, fmt.Errorf("no platforms selected")
	}
	if opts.OutputDir == "" || opts.BuildDir == "" {
		return nil, fmt.Errorf("output and build directories are required")
	}

	seenPlatform := make(map[Platform]bool, len(platforms))
	for _, p := range platforms {
		if p.SettingValue() == "" {
			return nil, fmt.Errorf("unknown platform %q", p)
		}
		if seenPlatform[p] {
			return nil, fmt.Errorf("platform %s listed twice", p)
		}
		seenPlatform[p] = true
	}

	plan := &BuildPlan{Options: opts}
	seen := make(map[string]bool, len(targets))
	for _, t := range targets {
		if seen[t.Name] {
			return nil, fmt.Errorf("duplicate target %q", t.Name)
		}
		seen[t.Name] = true

		if t.Kind == KindBinary {
			plan.Targets = append(plan.Targets, TargetPlan{Target: t, Output: opts.OutputDir})
			continue
		}
		if opts.ProjectPath == "" {
			return nil, fmt.Errorf("target %s: a project description is required to build source targets", t.Name)
		}

		tp := TargetPlan{Target: t, Output: opts.XCFrameworkPath(t)}
		dd := opts.DerivedDataPath(t)
		for _, p := range platforms {
			dir := ProductDirName(opts.Configuration, p)
			tp.Steps = append(tp.Steps, BuildStep{
				Target:        t,
				Platform:      p,
				DerivedData:   dd,
				ProductDir:    filepath.Join(dd, "Products", dir),
				FrameworksDir: filepath.Join(opts.FrameworksDir(), dir),
			})
		}
		plan.Targets = append(plan.Targets, tp)
	}
	return plan, nil
}

// StepCount returns the number of engine builds in the plan.
func (p *BuildPlan) StepCount() int {
	n := 0
	for _, t := range p.Targets {
		n += len(t.Steps)
	}
	return n
}
