package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/sofmeright/xcforge/src/build"
)

var validDerivedData = map[string]bool{
	string(build.DerivedDataPerTarget): true,
	string(build.DerivedDataShared):    true,
}

// Validate checks structural invariants of a loaded Config.
// Returns warnings (soft issues) and a hard error if the config is invalid.
func Validate(cfg *Config) (warnings []string, err error) {
	var errs []string

	// ── Build ─────────────────────────────────────────────────────────────

	if _, err := build.ParseConfiguration(cfg.Configuration); err != nil {
		errs = append(errs, fmt.Sprintf("configuration: %v (supported: debug, release)", err))
	}

	if len(cfg.Platforms) == 0 {
		errs = append(errs, "platforms: at least one platform is required")
	}
	seen := make(map[build.Platform]bool)
	for i, name := range cfg.Platforms {
		p, err := build.ParsePlatform(name)
		if err != nil {
			errs = append(errs, fmt.Sprintf("platforms[%d]: %v", i, err))
			continue
		}
		if seen[p] {
			errs = append(errs, fmt.Sprintf("platforms[%d]: %s listed twice", i, p))
		}
		seen[p] = true
	}

	if !validDerivedData[cfg.DerivedData] {
		errs = append(errs, fmt.Sprintf("derived_data: unknown mode %q (supported: per-target, shared)", cfg.DerivedData))
	}
	if cfg.Jobs < 0 {
		errs = append(errs, fmt.Sprintf("jobs: must be >= 0, got %d", cfg.Jobs))
	}

	keys := make([]string, 0, len(cfg.Settings))
	for k := range cfg.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch {
		case strings.TrimSpace(k) == "":
			errs = append(errs, "settings: empty build setting name")
		case k != strings.ToUpper(k):
			warnings = append(warnings, fmt.Sprintf("settings.%s: build setting names are upper-case; the engine will likely ignore it", k))
		}
	}

	// ── Targets ───────────────────────────────────────────────────────────

	for name := range cfg.Groups {
		if !isIdentifier(name) {
			errs = append(errs, fmt.Sprintf("groups: key %q is not a valid identifier (must match [a-zA-Z][a-zA-Z0-9_.\\-]*)", name))
		}
	}
	_, warns, perr := CompilePatternsWithWarnings(cfg.Targets, cfg.Groups)
	for _, w := range warns {
		warnings = append(warnings, "targets: "+w)
	}
	if perr != nil {
		errs = append(errs, fmt.Sprintf("targets: %v", perr))
	}

	// ── Versions ──────────────────────────────────────────────────────────

	if cfg.MinXcode != "" {
		if _, err := semver.NewConstraint(cfg.MinXcode); err != nil {
			errs = append(errs, fmt.Sprintf("min_xcode: invalid constraint %q: %v", cfg.MinXcode, err))
		}
	}
	if cfg.Version != "" {
		v, err := semver.NewVersion(cfg.Version)
		if err != nil {
			errs = append(errs, fmt.Sprintf("version: %q is not a semantic version", cfg.Version))
		} else if v.Prerelease() != "" || v.Metadata() != "" {
			warnings = append(warnings, fmt.Sprintf("version: bundle versions are numeric; %q is written as %d.%d.%d", cfg.Version, v.Major(), v.Minor(), v.Patch()))
		}
	}

	// ── Output ────────────────────────────────────────────────────────────

	if cfg.Output == "" {
		errs = append(errs, "output: directory is required")
	}
	if cfg.Overwrite && cfg.Cache {
		warnings = append(warnings, "overwrite and cache are both set; overwrite wins and cached artifacts are replaced")
	}

	if len(errs) > 0 {
		return warnings, fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return warnings, nil
}
