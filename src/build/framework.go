package build

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sofmeright/xcforge/src/fsys"
)

// FrameworkComponents is everything needed to lay out one single-platform
// framework bundle.
type FrameworkComponents struct {
	Name     string
	Platform Platform

	BinaryPath      string
	SwiftModulePath string
	// PublicHeaderPaths is a set; order is irrelevant and duplicates collapse.
	PublicHeaderPaths []string
	// HeaderRoot, when set, preserves header paths relative to it inside
	// Headers/. Otherwise headers are placed by base name.
	HeaderRoot         string
	BridgingHeaderPath string
	ModuleMapPath      string

	Version          string
	BundleIdentifier string
}

// NewFrameworkComponents collects what assembly needs from discovery.
func NewFrameworkComponents(t Target, p Platform, prod *DiscoveredProduct, moduleMap string) FrameworkComponents {
	c := FrameworkComponents{
		Name:               t.Name,
		Platform:           p,
		BinaryPath:         prod.BinaryPath,
		SwiftModulePath:    prod.SwiftModulePath,
		PublicHeaderPaths:  prod.PublicHeaders,
		BridgingHeaderPath: prod.BridgingHeaderPath,
		ModuleMapPath:      moduleMap,
	}
	if mod := t.Clang(); mod != nil {
		c.HeaderRoot = mod.IncludeRoot
	}
	return c
}

// Assembler lays out framework bundles.
type Assembler struct {
	FS     fsys.FS
	Logger *slog.Logger
}

// Assemble creates <outputDir>/<Name>.framework and returns its path.
// macOS bundles use the versioned layout with Versions/Current links; all
// other platforms use the shallow layout.
func (a *Assembler) Assemble(c FrameworkComponents, outputDir string) (string, error) {
	if c.Name == "" {
		return "", fmt.Errorf("%w: framework name is empty", ErrAssembly)
	}
	if c.BinaryPath == "" || !a.FS.Exists(c.BinaryPath) {
		return "", fmt.Errorf("%w: %s: binary %q missing", ErrAssembly, c.Name, c.BinaryPath)
	}
	if c.ModuleMapPath == "" || !a.FS.Exists(c.ModuleMapPath) {
		return "", fmt.Errorf("%w: %s: module map %q missing", ErrAssembly, c.Name, c.ModuleMapPath)
	}

	bundle := filepath.Join(outputDir, c.Name+".framework")
	if a.FS.Exists(bundle) {
		return "", fmt.Errorf("%w: %s already exists", ErrAssembly, bundle)
	}

	content := bundle
	resources := bundle
	if c.Platform.VersionedBundle() {
		content = filepath.Join(bundle, "Versions", "A")
		resources = filepath.Join(content, "Resources")
	}

	headers, err := headerDestinations(c)
	if err != nil {
		return "", err
	}

	if err := a.FS.MkdirAll(content); err != nil {
		return "", a.fail(c, "creating bundle", err)
	}
	if err := a.FS.Copy(c.BinaryPath, filepath.Join(content, c.Name)); err != nil {
		return "", a.fail(c, "copying binary", err)
	}

	for _, h := range headers {
		if err := a.FS.Copy(h.src, filepath.Join(content, "Headers", h.dst)); err != nil {
			return "", a.fail(c, "copying header", err)
		}
	}

	modules := filepath.Join(content, "Modules")
	if err := a.FS.Copy(c.ModuleMapPath, filepath.Join(modules, moduleMapName)); err != nil {
		return "", a.fail(c, "copying module map", err)
	}
	if c.SwiftModulePath != "" {
		if err := a.FS.Copy(c.SwiftModulePath, filepath.Join(modules, c.Name+"."+swiftModuleExt)); err != nil {
			return "", a.fail(c, "copying swift module", err)
		}
	}

	if err := a.FS.WriteFile(filepath.Join(resources, "Info.plist"), InfoPlist(c)); err != nil {
		return "", a.fail(c, "writing Info.plist", err)
	}

	if c.Platform.VersionedBundle() {
		if err := a.linkVersioned(bundle, c, len(headers) > 0); err != nil {
			return "", a.fail(c, "linking versioned bundle", err)
		}
	}

	loggerOr(a.Logger).Debug("assembled framework", "name", c.Name, "platform", string(c.Platform), "path", bundle, "headers", len(headers))
	return bundle, nil
}

func (a *Assembler) linkVersioned(bundle string, c FrameworkComponents, hasHeaders bool) error {
	if err := a.FS.Symlink("A", filepath.Join(bundle, "Versions", "Current")); err != nil {
		return err
	}
	entries := []string{c.Name, "Modules", "Resources"}
	if hasHeaders {
		entries = append(entries, "Headers")
	}
	for _, e := range entries {
		if err := a.FS.Symlink(filepath.Join("Versions", "Current", e), filepath.Join(bundle, e)); err != nil {
			return err
		}
	}
	return nil
}

func (a *Assembler) fail(c FrameworkComponents, what string, err error) error {
	return fmt.Errorf("%w: %s (%s): %s: %v", ErrAssembly, c.Name, c.Platform, what, err)
}

type headerCopy struct {
	src string
	dst string // relative to Headers/
}

// headerDestinations dedupes the public headers, maps each into Headers/
// and appends the bridging header. Two sources landing on the same
// destination is a collision.
func headerDestinations(c FrameworkComponents) ([]headerCopy, error) {
	srcs := make(map[string]bool, len(c.PublicHeaderPaths))
	for _, h := range c.PublicHeaderPaths {
		srcs[filepath.Clean(h)] = true
	}
	sorted := make([]string, 0, len(srcs))
	for h := range srcs {
		sorted = append(sorted, h)
	}
	sort.Strings(sorted)

	var out []headerCopy
	taken := make(map[string]string, len(sorted)+1)
	add := func(src, dst string) error {
		if prev, ok := taken[dst]; ok {
			return fmt.Errorf("%w: %s: headers %s and %s both map to Headers/%s", ErrAssembly, c.Name, prev, src, dst)
		}
		taken[dst] = src
		out = append(out, headerCopy{src: src, dst: dst})
		return nil
	}

	for _, h := range sorted {
		dst := filepath.Base(h)
		if c.HeaderRoot != "" {
			if rel, err := filepath.Rel(c.HeaderRoot, h); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				dst = rel
			}
		}
		if err := add(h, dst); err != nil {
			return nil, err
		}
	}
	if c.BridgingHeaderPath != "" {
		if err := add(c.BridgingHeaderPath, c.Name+"-"+bridgingSuffix); err != nil {
			return nil, err
		}
	}
	return out, nil
}
