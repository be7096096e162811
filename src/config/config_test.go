package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	require.Equal(t, defaults(), cfg)
	require.Equal(t, runtime.NumCPU(), cfg.Jobs)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), ".xcforge.yml", `
package: ./Package
configuration: debug
platforms: [ios, ios-simulator]
targets: ["core", "!Tests$"]
groups:
  core: "^(Foo|Bar)$"
library_evolution: true
settings:
  SWIFT_VERSION: "5"
jobs: 2
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "./Package", cfg.Package)
	require.Equal(t, "debug", cfg.Configuration)
	require.Equal(t, []string{"ios", "ios-simulator"}, cfg.Platforms)
	require.True(t, cfg.LibraryEvolution)
	require.Equal(t, map[string]string{"SWIFT_VERSION": "5"}, cfg.Settings)
	require.Equal(t, 2, cfg.Jobs)
	// Unset fields keep defaults.
	require.Equal(t, "XCFrameworks", cfg.Output)
	require.Equal(t, "per-target", cfg.DerivedData)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, t.TempDir(), ".xcforge.toml", `
configuration = "release"
platforms = ["macos", "visionos"]
derived_data = "shared"
min_xcode = ">= 15.0"
bundle_id_prefix = "com.example"

[settings]
OTHER_SWIFT_FLAGS = "-Osize"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"macos", "visionos"}, cfg.Platforms)
	require.Equal(t, "shared", cfg.DerivedData)
	require.Equal(t, ">= 15.0", cfg.MinXcode)
	require.Equal(t, "com.example", cfg.BundleIDPrefix)
	require.Equal(t, "-Osize", cfg.Settings["OTHER_SWIFT_FLAGS"])
}

func TestLoadRejectsMalformed(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yml", "platforms: [ios\n")
	_, err := Load(path)
	require.ErrorContains(t, err, "bad.yml")
}

func TestResolveBuildDir(t *testing.T) {
	cfg := defaults()
	pkg := t.TempDir()

	first, err := cfg.ResolveBuildDir(pkg)
	require.NoError(t, err)
	second, err := cfg.ResolveBuildDir(pkg)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.True(t, strings.HasPrefix(filepath.Base(first), filepath.Base(pkg)+"-"))

	other, err := cfg.ResolveBuildDir(t.TempDir())
	require.NoError(t, err)
	require.NotEqual(t, first, other)

	cfg.BuildDir = ".build/xcforge"
	got, err := cfg.ResolveBuildDir("/pkg")
	require.NoError(t, err)
	require.Equal(t, "/pkg/.build/xcforge", got)

	require.Equal(t, "/pkg/XCFrameworks", cfg.ResolveOutput("/pkg"))
	require.Equal(t, "/abs/describe.json", cfg.ResolvePath("/pkg", "/abs/describe.json"))
	require.Empty(t, cfg.ResolvePath("/pkg", ""))
}
