// Package toolchain locates the active Xcode developer tools and the build
// engine shipped inside them.
package toolchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/sofmeright/xcforge/src/process"
)

// engineRelPath is the build engine's location relative to the developer
// directory reported by xcode-select.
const engineRelPath = "../SharedFrameworks/XCBuild.framework/Versions/A/Support/xcbuild"

var (
	ErrToolNotFound     = errors.New("build engine not found")
	ErrUnsupportedXcode = errors.New("unsupported Xcode version")
)

var xcodeVersionRe = regexp.MustCompile(`(?m)^Xcode\s+(\d+(?:\.\d+){0,2})`)

// Locator resolves developer tool paths. Results are memoized per Locator
// since the active toolchain does not change during a run.
type Locator struct {
	Exec   process.Executor
	Logger *slog.Logger

	mu      sync.Mutex
	devDir  string
	version *semver.Version
}

// NewLocator returns a Locator backed by exec.
func NewLocator(exec process.Executor, logger *slog.Logger) *Locator {
	return &Locator{Exec: exec, Logger: logger}
}

// DeveloperDir returns the active developer directory (xcode-select -p).
func (l *Locator) DeveloperDir(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.devDir != "" {
		return l.devDir, nil
	}

	res, err := l.Exec.Execute(ctx, "xcrun", "xcode-select", "-p")
	if err != nil {
		return "", fmt.Errorf("%w: querying developer directory: %v", ErrToolNotFound, err)
	}
	dir := strings.TrimSpace(res.Stdout)
	if dir == "" || strings.ContainsRune(dir, '\n') || !filepath.IsAbs(dir) {
		return "", fmt.Errorf("%w: unexpected developer directory %q", ErrToolNotFound, dir)
	}

	l.devDir = dir
	l.logger().Debug("developer dir", "path", dir)
	return dir, nil
}

// BuildEngine returns the absolute path of the xcbuild binary.
func (l *Locator) BuildEngine(ctx context.Context) (string, error) {
	dir, err := l.DeveloperDir(ctx)
	if err != nil {
		return "", err
	}
	return filepath.Clean(filepath.Join(dir, engineRelPath)), nil
}

// XcodeVersion returns the active Xcode version.
func (l *Locator) XcodeVersion(ctx context.Context) (*semver.Version, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.version != nil {
		return l.version, nil
	}

	res, err := l.Exec.Execute(ctx, "xcrun", "xcodebuild", "-version")
	if err != nil {
		return nil, fmt.Errorf("%w: querying Xcode version: %v", ErrToolNotFound, err)
	}
	v, err := ParseXcodeVersion(res.Stdout)
	if err != nil {
		return nil, err
	}
	l.version = v
	return v, nil
}

// CheckVersion fails with ErrUnsupportedXcode unless the active Xcode
// satisfies constraint (e.g. ">= 14.0"). An empty constraint always passes.
func (l *Locator) CheckVersion(ctx context.Context, constraint string) error {
	if strings.TrimSpace(constraint) == "" {
		return nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("parsing Xcode constraint %q: %w", constraint, err)
	}
	v, err := l.XcodeVersion(ctx)
	if err != nil {
		return err
	}
	if !c.Check(v) {
		return fmt.Errorf("%w: Xcode %s does not satisfy %q", ErrUnsupportedXcode, v, constraint)
	}
	return nil
}

// ParseXcodeVersion extracts the version from `xcodebuild -version` output.
func ParseXcodeVersion(out string) (*semver.Version, error) {
	m := xcodeVersionRe.FindStringSubmatch(out)
	if m == nil {
		return nil, fmt.Errorf("%w: cannot parse xcodebuild -version output", ErrToolNotFound)
	}
	v, err := semver.NewVersion(m[1])
	if err != nil {
		return nil, fmt.Errorf("parsing Xcode version %q: %w", m[1], err)
	}
	return v, nil
}

func (l *Locator) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l.Logger
}
