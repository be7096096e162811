package build

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sofmeright/xcforge/src/fsys"
)

const moduleMapName = "module.modulemap"

// ModuleMapGenerator writes framework-relative module maps. The maps the
// engine generates point into its intermediate build tree, so they break
// once the bundle is moved; these reference the bundle's own Headers.
type ModuleMapGenerator struct {
	FS fsys.FS
	// Dir is the root under which generated maps are written.
	Dir string
}

// Generate writes the module map for t and returns its path.
func (g *ModuleMapGenerator) Generate(t Target, p Platform, c Configuration, prod *DiscoveredProduct) (string, error) {
	content, err := ModuleMap(t, prod)
	if err != nil {
		return "", err
	}
	path := filepath.Join(g.Dir, ProductDirName(c, p), t.Name, moduleMapName)
	if err := g.FS.WriteFile(path, []byte(content)); err != nil {
		return "", fmt.Errorf("%w: writing %s: %v", ErrModuleMap, path, err)
	}
	return path, nil
}

// ModuleMap renders the module map text for t.
func ModuleMap(t Target, prod *DiscoveredProduct) (string, error) {
	if prod == nil {
		prod = &DiscoveredProduct{}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "framework module %s {\n", t.Name)

	switch t.Kind {
	case KindClang:
		mod := t.Clang()
		if mod == nil || len(prod.PublicHeaders) == 0 {
			return "", fmt.Errorf("%w: %s has no public headers under its include root", ErrModuleMap, t.Name)
		}
		if umbrella := umbrellaHeader(t.Name, mod.IncludeRoot, prod.PublicHeaders); umbrella != "" {
			fmt.Fprintf(&b, "    umbrella header %q\n", umbrella)
		} else {
			b.WriteString("    umbrella \"Headers\"\n")
		}
		if prod.BridgingHeaderPath != "" {
			fmt.Fprintf(&b, "    header %q\n", t.Name+"-"+bridgingSuffix)
		}
		b.WriteString("\n    export *\n    module * { export * }\n")

	case KindSwift:
		if prod.BridgingHeaderPath != "" {
			fmt.Fprintf(&b, "    header %q\n    requires objc\n", t.Name+"-"+bridgingSuffix)
		} else {
			b.WriteString("    export *\n")
		}

	default:
		return "", fmt.Errorf("%w: %s is a %s target", ErrModuleMap, t.Name, t.Kind)
	}

	b.WriteString("}\n")
	return b.String(), nil
}

// umbrellaHeader returns the header, relative to the include root, that
// shares the module's name: "Foo.h" or "Foo/Foo.h".
func umbrellaHeader(name, root string, headers []string) string {
	for _, candidate := range []string{name + ".h", filepath.Join(name, name+".h")} {
		want := filepath.Join(root, candidate)
		for _, h := range headers {
			if filepath.Clean(h) == want {
				return filepath.ToSlash(candidate)
			}
		}
	}
	return ""
}
