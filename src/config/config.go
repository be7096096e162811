package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/adrg/xdg"
	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const appName = "xcforge"

// defaultConfigFiles are tried in order when no path is given.
var defaultConfigFiles = []string{".xcforge.yml", ".xcforge.yaml", ".xcforge.toml"}

// Config is the xcforge configuration.
type Config struct {
	// Package is the Swift package root. Relative paths in the config are
	// resolved against it.
	Package string `yaml:"package" toml:"package"`
	// Project is the project description handed to the build engine.
	Project string `yaml:"project" toml:"project"`
	// Describe is a saved `swift package describe --type json` output. When
	// empty the description is produced live.
	Describe string `yaml:"describe" toml:"describe"`

	Configuration string   `yaml:"configuration" toml:"configuration"`
	Platforms     []string `yaml:"platforms" toml:"platforms"`
	// Targets selects package targets with regex include and "!" exclude
	// patterns. Tokens naming an entry of Groups expand to its pattern.
	Targets []string          `yaml:"targets" toml:"targets"`
	Groups  map[string]string `yaml:"groups" toml:"groups"`

	LibraryEvolution bool `yaml:"library_evolution" toml:"library_evolution"`
	DebugSymbols     bool `yaml:"debug_symbols" toml:"debug_symbols"`

	Output      string `yaml:"output" toml:"output"`
	BuildDir    string `yaml:"build_dir" toml:"build_dir"`
	DerivedData string `yaml:"derived_data" toml:"derived_data"`
	Jobs        int    `yaml:"jobs" toml:"jobs"`

	Settings map[string]string `yaml:"settings" toml:"settings"`
	// MinXcode is a semver constraint the installed Xcode must satisfy.
	MinXcode string `yaml:"min_xcode" toml:"min_xcode"`

	Overwrite bool `yaml:"overwrite" toml:"overwrite"`
	Cache     bool `yaml:"cache" toml:"cache"`

	// Version overrides the bundle version detected from git tags.
	Version        string `yaml:"version" toml:"version"`
	BundleIDPrefix string `yaml:"bundle_id_prefix" toml:"bundle_id_prefix"`
}

// Load reads configuration from a YAML or TOML file, chosen by extension.
// If path is empty, the default file names are tried in order.
// Returns sensible defaults if the file doesn't exist.
func Load(path string) (*Config, error) {
	if path == "" {
		for _, name := range defaultConfigFiles {
			if _, err := os.Stat(name); err == nil {
				path = name
				break
			}
		}
		if path == "" {
			return defaults(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return defaults(), nil
		}
		return nil, err
	}

	cfg := defaults()
	if err := decode(path, data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, cfg)
	default:
		return yaml.Unmarshal(data, cfg)
	}
}

func defaults() *Config {
	return &Config{
		Package:       ".",
		Configuration: "release",
		Platforms:     []string{"macos", "ios", "ios-simulator"},
		Output:        "XCFrameworks",
		DerivedData:   "per-target",
		Jobs:          runtime.NumCPU(),
	}
}

// ResolveBuildDir returns the configured build directory, or a per-package
// directory under the user cache home. The default is stable for a given
// package path.
func (c *Config) ResolveBuildDir(packageDir string) (string, error) {
	if c.BuildDir != "" {
		return c.resolve(packageDir, c.BuildDir), nil
	}
	abs, err := filepath.Abs(packageDir)
	if err != nil {
		return "", err
	}
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+abs)).String()[:8]
	return filepath.Join(xdg.CacheHome, appName, filepath.Base(abs)+"-"+id), nil
}

// ResolveOutput returns the output directory for packageDir.
func (c *Config) ResolveOutput(packageDir string) string {
	return c.resolve(packageDir, c.Output)
}

// ResolvePath resolves a config path against packageDir. Empty stays empty.
func (c *Config) ResolvePath(packageDir, p string) string {
	if p == "" {
		return ""
	}
	return c.resolve(packageDir, p)
}

func (c *Config) resolve(packageDir, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(packageDir, p)
}
