package build

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sofmeright/xcforge/src/fsys"
	"github.com/sofmeright/xcforge/src/process/processtest"
)

const testEngine = "/Applications/Xcode.app/Contents/SharedFrameworks/XCBuild.framework/Versions/A/Support/xcbuild"

type staticEngine struct {
	path string
	err  error
}

func (s staticEngine) BuildEngine(context.Context) (string, error) { return s.path, s.err }

func testOptions() Options {
	return Options{
		Configuration: ConfigurationRelease,
		ProjectPath:   "/pkg/.build/xcforge/Package.pif",
		BuildDir:      "/build",
		OutputDir:     "/out",
		DerivedData:   DerivedDataPerTarget,
	}
}

// argValue returns the argument following flag.
func argValue(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

// argValues returns every argument following an occurrence of flag.
func argValues(args []string, flag string) []string {
	var out []string
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			out = append(out, args[i+1])
		}
	}
	return out
}

// emitProducts leaves a binary and a swift module where the engine would
// for the invoked build.
func emitProducts(fs fsys.FS) func(context.Context, processtest.Call) error {
	return func(_ context.Context, c processtest.Call) error {
		dd := argValue(c.Args, "--derivedDataPath")
		dir := strings.TrimSuffix(filepath.Base(argValue(c.Args, "--buildParametersFile")), ".parameters.json")
		id := argValue(c.Args, "--target")
		products := filepath.Join(dd, "Products", dir)
		if err := fs.WriteFile(filepath.Join(products, id), []byte("mach-o "+dir)); err != nil {
			return err
		}
		return fs.WriteFile(filepath.Join(products, id+".swiftmodule", "arm64.swiftinterface"), []byte("// swift-interface"))
	}
}

// emitXCFramework creates the merge output.
func emitXCFramework(fs fsys.FS) func(context.Context, processtest.Call) error {
	return func(_ context.Context, c processtest.Call) error {
		return fs.WriteFile(filepath.Join(argValue(c.Args, "-output"), "Info.plist"), []byte("xcframework"))
	}
}

// snapshot maps every path under root to its contents, or "<dir>".
func snapshot(t *testing.T, fs fsys.FS, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := fs.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if info.IsDir() {
			out[rel] = "<dir>"
			return nil
		}
		data, err := fs.ReadFile(path)
		if err != nil {
			return err
		}
		out[rel] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}
