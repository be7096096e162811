package build

import (
	"fmt"
	"path/filepath"

	"github.com/sofmeright/xcforge/src/fsys"
)

const (
	swiftModuleExt     = "swiftmodule"
	bridgingSuffix     = "Swift.h"
	generatedMapsDir   = "Intermediates.noindex/GeneratedModuleMaps"
	debugSymbolsSuffix = ".dSYM"
)

// DiscoveredProduct is what a successful build left on disk. Only
// BinaryPath is guaranteed.
type DiscoveredProduct struct {
	BinaryPath         string
	SwiftModulePath    string
	BridgingHeaderPath string
	PublicHeaders      []string
	DebugSymbolsPath   string
}

// Discoverer locates build products for a finished step.
type Discoverer struct {
	FS fsys.FS
}

// Discover finds the products of step. A missing binary means the engine's
// layout does not match expectations and fails with ErrDiscovery; every
// other product is optional.
func (d *Discoverer) Discover(step BuildStep) (*DiscoveredProduct, error) {
	id := step.Target.Identifier()

	binary := filepath.Join(step.ProductDir, id)
	if !d.FS.Exists(binary) || d.FS.IsDir(binary) {
		return nil, fmt.Errorf("%w: %s", ErrDiscovery, binary)
	}
	prod := &DiscoveredProduct{BinaryPath: binary}

	if p := filepath.Join(step.ProductDir, id+"."+swiftModuleExt); d.FS.IsDir(p) {
		prod.SwiftModulePath = p
	}

	bridging := filepath.Join(step.DerivedData, generatedMapsDir, step.Platform.SettingValue(), id+"-"+bridgingSuffix)
	if d.FS.Exists(bridging) {
		prod.BridgingHeaderPath = bridging
	}

	if dsym := filepath.Join(step.ProductDir, id+debugSymbolsSuffix); d.FS.IsDir(dsym) {
		prod.DebugSymbolsPath = dsym
	}

	if mod := step.Target.Clang(); mod != nil {
		for _, h := range headersUnder(mod.PublicHeaders, mod.IncludeRoot) {
			if d.FS.Exists(h) {
				prod.PublicHeaders = append(prod.PublicHeaders, h)
			}
		}
	}

	return prod, nil
}
