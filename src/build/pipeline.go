package build

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/sofmeright/xcforge/src/fsys"
	"github.com/sofmeright/xcforge/src/process"
)

// Pipeline executes a BuildPlan.
//
// Targets run in parallel up to Options.Jobs. Engine invocations that share
// a derived data directory are serialized, since the engine does not isolate
// concurrent builds of one directory. A target merges only after all of its
// platform steps are done; a failed step cancels that target's remaining
// steps and skips its merge without affecting other targets.
type Pipeline struct {
	Builder   *Builder
	Merger    *Merger
	Extractor *Extractor
	FS        fsys.FS
	Options   Options
	Logger    *slog.Logger

	// OnStep, when set, is called after every step finishes.
	OnStep func(StepResult)

	locks pathLocks
}

// NewPipeline wires the pipeline components around shared capabilities.
func NewPipeline(exec process.Executor, tools EngineLocator, fs fsys.FS, opts Options, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		Builder:   &Builder{Exec: exec, Tools: tools, FS: fs, Options: opts, Logger: logger},
		Merger:    &Merger{Exec: exec, Tools: tools, LibraryEvolution: opts.LibraryEvolution, Logger: logger},
		Extractor: &Extractor{FS: fs, Logger: logger},
		FS:        fs,
		Options:   opts,
		Logger:    logger,
	}
}

// Run executes every target in plan. The returned error aggregates all
// target failures; the BuildResult always describes every target.
func (p *Pipeline) Run(ctx context.Context, plan *BuildPlan) (*BuildResult, error) {
	start := time.Now()
	results := make([]TargetResult, len(plan.Targets))

	var g errgroup.Group
	if p.Options.Jobs > 0 {
		g.SetLimit(p.Options.Jobs)
	}
	for i := range plan.Targets {
		tp := plan.Targets[i]
		g.Go(func() error {
			results[i] = p.runTarget(ctx, tp)
			return nil
		})
	}
	g.Wait()

	var errs *multierror.Error
	for _, r := range results {
		if r.Error != nil {
			errs = multierror.Append(errs, r.Error)
		}
	}
	return &BuildResult{Targets: results, Duration: time.Since(start)}, errs.ErrorOrNil()
}

func (p *Pipeline) runTarget(ctx context.Context, tp TargetPlan) TargetResult {
	start := time.Now()
	t := tp.Target
	res := TargetResult{Target: t.Name, Kind: t.Kind}
	finish := func(err error) TargetResult {
		res.Duration = time.Since(start)
		res.Status = "success"
		if err != nil {
			res.Status = "failed"
			res.Error = fmt.Errorf("target %s: %w", t.Name, err)
		}
		return res
	}

	if err := ctx.Err(); err != nil {
		res.Status = "skipped"
		res.Error = fmt.Errorf("target %s: %w", t.Name, err)
		return res
	}

	if bin := t.Binary(); bin != nil {
		out, err := p.Extractor.Extract(bin.Path, tp.Output, p.Options.Overwrite, p.Options.CacheEnabled)
		res.Extracted = out
		return finish(err)
	}

	if err := p.prepareOutput(tp.Output); err != nil {
		return finish(err)
	}

	steps, err := p.runSteps(ctx, tp.Steps)
	res.Steps = steps
	if err != nil {
		return finish(err)
	}

	var frameworks, symbols []string
	for _, s := range steps {
		frameworks = append(frameworks, s.Framework)
		if s.DebugSymbols != "" {
			symbols = append(symbols, s.DebugSymbols)
		}
	}
	if err := p.Merger.Merge(ctx, frameworks, symbols, tp.Output); err != nil {
		return finish(err)
	}
	res.XCFramework = tp.Output
	return finish(nil)
}

// runSteps builds every platform of one target. The first failure cancels
// the rest.
func (p *Pipeline) runSteps(ctx context.Context, steps []BuildStep) ([]StepResult, error) {
	results := make([]StepResult, len(steps))
	g, gctx := errgroup.WithContext(ctx)

	for i := range steps {
		step := steps[i]
		results[i] = StepResult{Target: step.Target.Name, Platform: step.Platform, State: StateNotStarted}
		g.Go(func() error {
			lock := p.locks.get(step.DerivedData)
			if err := lock.Acquire(gctx, 1); err != nil {
				results[i].Error = err
				return err
			}
			defer lock.Release(1)

			r, err := p.Builder.Build(gctx, step)
			results[i] = *r
			if p.OnStep != nil {
				p.OnStep(*r)
			}
			return err
		})
	}
	return results, g.Wait()
}

// prepareOutput clears a previous merge result when overwriting is allowed.
// createXCFramework refuses to write over an existing bundle.
func (p *Pipeline) prepareOutput(path string) error {
	if !p.FS.Exists(path) {
		return nil
	}
	if !p.Options.Overwrite {
		return fmt.Errorf("%w: %s (use overwrite to replace it)", ErrDestinationExists, path)
	}
	if p.Options.CacheEnabled {
		loggerOr(p.Logger).Warn("overwrite takes precedence over cache; rebuilding", "path", path)
	}
	return p.FS.RemoveAll(path)
}

// pathLocks hands out one single-slot semaphore per derived data path.
type pathLocks struct {
	mu sync.Mutex
	m  map[string]*semaphore.Weighted
}

func (l *pathLocks) get(path string) *semaphore.Weighted {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.m == nil {
		l.m = make(map[string]*semaphore.Weighted)
	}
	s, ok := l.m[path]
	if !ok {
		s = semaphore.NewWeighted(1)
		l.m[path] = s
	}
	return s
}

func loggerOr(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}
