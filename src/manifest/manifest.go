// Package manifest reads the package description produced by
// `swift package describe --type json` and turns its targets into build
// targets.
package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sofmeright/xcforge/src/build"
	"github.com/sofmeright/xcforge/src/fsys"
	"github.com/sofmeright/xcforge/src/process"
)

// Package is the subset of the package description xcforge uses.
type Package struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Products []Product `json:"products"`
	Targets  []Target  `json:"targets"`
}

// Product is a declared package product.
type Product struct {
	Name    string   `json:"name"`
	Targets []string `json:"targets"`
}

// Target is one target entry of the description.
type Target struct {
	Name string `json:"name"`
	C99  string `json:"c99name"`
	// Type is "library", "executable", "test", "binary", "macro", "plugin"
	// or "snippet".
	Type string `json:"type"`
	// ModuleType is "SwiftTarget", "ClangTarget", "BinaryTarget", ...
	ModuleType string `json:"module_type"`
	// Path is relative to the package root.
	Path              string   `json:"path"`
	Sources           []string `json:"sources"`
	ProductMembership []string `json:"product_memberships"`
}

const (
	moduleSwift  = "SwiftTarget"
	moduleClang  = "ClangTarget"
	moduleBinary = "BinaryTarget"

	// publicHeadersDir is the default public headers path of a clang target.
	publicHeadersDir = "include"
)

// Parse decodes a package description. Tool output may be preceded by
// diagnostics; decoding starts at the first '{'.
func Parse(data []byte) (*Package, error) {
	start := strings.IndexByte(string(data), '{')
	if start < 0 {
		return nil, fmt.Errorf("package description: no JSON object found")
	}
	var pkg Package
	if err := json.Unmarshal(data[start:], &pkg); err != nil {
		return nil, fmt.Errorf("package description: %w", err)
	}
	if pkg.Path == "" {
		return nil, fmt.Errorf("package description: missing package path")
	}
	return &pkg, nil
}

// Load reads a package description from a file.
func Load(fs fsys.FS, path string) (*Package, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading package description: %w", err)
	}
	return Parse(data)
}

// Describe asks the swift toolchain for the description of the package in dir.
func Describe(ctx context.Context, exec process.Executor, dir string) (*Package, error) {
	res, err := exec.Execute(ctx, "swift", "package", "--package-path", dir, "describe", "--type", "json")
	if err != nil {
		return nil, fmt.Errorf("describing package %s: %w", dir, err)
	}
	return Parse([]byte(res.Stdout))
}

// Buildable reports whether t produces a framework or carries a pre-built one.
func (t Target) Buildable() bool {
	switch t.ModuleType {
	case moduleSwift, moduleClang:
		return t.Type == "library"
	case moduleBinary:
		return true
	}
	return false
}

// BuildTargets converts the package's buildable targets into build targets,
// sorted by name. Clang targets pick up every header under their include
// directory.
func (p *Package) BuildTargets(fs fsys.FS) ([]build.Target, error) {
	var out []build.Target
	for _, t := range p.Targets {
		if !t.Buildable() {
			continue
		}
		name := t.C99
		if name == "" {
			name = t.Name
		}
		dir := p.resolve(t.Path)

		switch t.ModuleType {
		case moduleSwift:
			out = append(out, build.NewSwiftTarget(name))

		case moduleClang:
			root := filepath.Join(dir, publicHeadersDir)
			headers, err := findHeaders(fs, root)
			if err != nil {
				return nil, fmt.Errorf("target %s: %w", t.Name, err)
			}
			out = append(out, build.NewClangTarget(name, build.ClangModule{PublicHeaders: headers, IncludeRoot: root}))

		case moduleBinary:
			if !fs.Exists(dir) {
				return nil, fmt.Errorf("target %s: binary artifact %s not found (resolve the package first)", t.Name, dir)
			}
			out = append(out, build.NewBinaryTarget(name, dir))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (p *Package) resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(p.Path, path)
}

// findHeaders returns every .h file under root. A missing root yields none.
func findHeaders(fs fsys.FS, root string) ([]string, error) {
	if !fs.IsDir(root) {
		return nil, nil
	}
	var out []string
	err := fs.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.EqualFold(filepath.Ext(path), ".h") {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning headers in %s: %w", root, err)
	}
	sort.Strings(out)
	return out, nil
}
