package build

import "path/filepath"

// DerivedDataMode selects how derived data directories are shared.
type DerivedDataMode string

const (
	// DerivedDataPerTarget gives each target its own derived data directory,
	// so different targets build in parallel.
	DerivedDataPerTarget DerivedDataMode = "per-target"
	// DerivedDataShared uses one directory for every target; all engine
	// invocations are then serialized.
	DerivedDataShared DerivedDataMode = "shared"
)

// Options configures one pipeline run. It is read-only once built.
type Options struct {
	Configuration Configuration
	// LibraryEvolution builds with BUILD_LIBRARY_FOR_DISTRIBUTION and omits
	// -allow-internal-distribution when merging.
	LibraryEvolution bool
	DebugSymbols     bool

	// ProjectPath is the project description consumed by the build engine.
	ProjectPath string
	// BuildDir holds derived data, parameter files and single-platform bundles.
	BuildDir    string
	DerivedData DerivedDataMode
	// OutputDir receives merged .xcframeworks and extracted binaries.
	OutputDir string

	// Settings are extra build settings passed through to the engine.
	Settings map[string]string
	// BundleVersion is written into every framework Info.plist.
	BundleVersion string
	// BundleIDPrefix prefixes CFBundleIdentifier ("com.example" → "com.example.Foo").
	BundleIDPrefix string

	Overwrite    bool
	CacheEnabled bool

	// Jobs bounds concurrently building targets. Zero means unbounded.
	Jobs int
}

// DerivedDataPath returns the derived data directory for a target.
func (o Options) DerivedDataPath(t Target) string {
	if o.DerivedData == DerivedDataShared {
		return filepath.Join(o.BuildDir, "DerivedData")
	}
	return filepath.Join(o.BuildDir, "DerivedData", t.Name)
}

// FrameworksDir is where single-platform bundles are assembled.
func (o Options) FrameworksDir() string {
	return filepath.Join(o.BuildDir, "Frameworks")
}

// XCFrameworkPath is the merged output path for a target.
func (o Options) XCFrameworkPath(t Target) string {
	return filepath.Join(o.OutputDir, t.Name+".xcframework")
}

// BundleIdentifier returns the CFBundleIdentifier for a target, or "" to
// use the default.
func (o Options) BundleIdentifier(t Target) string {
	if o.BundleIDPrefix == "" {
		return ""
	}
	return o.BundleIDPrefix + "." + t.Name
}
