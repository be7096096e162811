package build

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/sofmeright/xcforge/src/process"
)

// Merger combines single-platform frameworks into one .xcframework using the
// engine's createXCFramework tool.
type Merger struct {
	Exec             process.Executor
	Tools            EngineLocator
	LibraryEvolution bool
	Logger           *slog.Logger
}

// MergeArgs builds the createXCFramework argument list. The tool reads each
// bundle's platform from the binary, so framework order carries no meaning;
// paths are deduplicated and sorted to keep invocations reproducible.
func MergeArgs(frameworks, debugSymbols []string, output string, libraryEvolution bool) []string {
	args := []string{"createXCFramework"}
	for _, f := range uniqueSorted(frameworks) {
		args = append(args, "-framework", f)
	}
	for _, d := range uniqueSorted(debugSymbols) {
		args = append(args, "-debug-symbols", d)
	}
	args = append(args, "-output", output)
	if !libraryEvolution {
		args = append(args, "-allow-internal-distribution")
	}
	return args
}

// Merge runs createXCFramework. A failed merge may leave partial output at
// output; callers must treat it as invalid.
func (m *Merger) Merge(ctx context.Context, frameworks, debugSymbols []string, output string) error {
	if len(frameworks) == 0 {
		return fmt.Errorf("%w: no frameworks to merge into %s", ErrMerge, output)
	}
	engine, err := m.Tools.BuildEngine(ctx)
	if err != nil {
		return err
	}

	loggerOr(m.Logger).Info("merging", "output", output, "frameworks", len(frameworks), "debug_symbols", len(debugSymbols))
	res, err := m.Exec.Execute(ctx, engine, MergeArgs(frameworks, debugSymbols, output, m.LibraryEvolution)...)
	if err != nil {
		if detail, ok := DecodeBuildLog(res); ok {
			return fmt.Errorf("%w: %s: %w\n%s", ErrMerge, output, err, detail)
		}
		return fmt.Errorf("%w: %s: %w", ErrMerge, output, err)
	}
	return nil
}

// uniqueSorted returns the distinct paths of in, sorted.
func uniqueSorted(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return slices.Compact(out)
}
