package build

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/sofmeright/xcforge/src/fsys"
)

// Extractor copies pre-built binary artifacts into the output directory.
type Extractor struct {
	FS     fsys.FS
	Logger *slog.Logger
}

// Extract copies src to <destDir>/<base(src)> and returns that path.
//
// If the destination exists and overwrite is false it fails with
// ErrDestinationExists and leaves the destination untouched. If overwrite
// is true the destination is removed first, regardless of cacheEnabled. A
// failed copy leaves the destination in an undefined state.
func (x *Extractor) Extract(src, destDir string, overwrite, cacheEnabled bool) (string, error) {
	log := loggerOr(x.Logger)
	dest := filepath.Join(destDir, filepath.Base(src))

	if !x.FS.Exists(src) {
		return "", fmt.Errorf("extracting %s: source does not exist", src)
	}

	if x.FS.Exists(dest) {
		if !overwrite {
			return "", fmt.Errorf("%w: %s (use overwrite to replace it)", ErrDestinationExists, dest)
		}
		if cacheEnabled {
			log.Warn("overwrite takes precedence over cache; replacing cached artifact", "path", dest)
		}
		if err := x.FS.RemoveAll(dest); err != nil {
			return "", fmt.Errorf("removing %s: %w", dest, err)
		}
	}

	if err := x.FS.Copy(src, dest); err != nil {
		return "", fmt.Errorf("copying %s to %s: %w", src, dest, err)
	}
	log.Info("extracted", "source", src, "path", dest)
	return dest, nil
}
