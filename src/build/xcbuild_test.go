package build

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sofmeright/xcforge/src/fsys"
	"github.com/sofmeright/xcforge/src/process/processtest"
)

func newTestBuilder(fake *processtest.Fake, fs fsys.FS, opts Options) *Builder {
	return &Builder{Exec: fake, Tools: staticEngine{path: testEngine}, FS: fs, Options: opts}
}

func singleStep(t *testing.T, target Target, p Platform, opts Options) BuildStep {
	t.Helper()
	plan, err := NewPlan([]Target{target}, []Platform{p}, opts)
	require.NoError(t, err)
	return plan.Targets[0].Steps[0]
}

func TestBuilderBuild(t *testing.T) {
	fs := fsys.NewMemory()
	fake := (&processtest.Fake{}).On(testEngine, "build", processtest.Response{Do: emitProducts(fs)})
	opts := testOptions()
	opts.LibraryEvolution = true
	opts.BundleIDPrefix = "com.example"
	opts.Settings = map[string]string{"SWIFT_VERSION": "5", "ONLY_ACTIVE_ARCH": "YES"}

	step := singleStep(t, NewSwiftTarget("Foo"), PlatformIOS, opts)
	res, err := newTestBuilder(fake, fs, opts).Build(context.Background(), step)
	require.NoError(t, err)
	require.Equal(t, StateDone, res.State)
	require.Equal(t, "/build/Frameworks/Release-iphoneos/Foo.framework", res.Framework)
	require.Empty(t, res.DebugSymbols)

	calls := fake.CallsTo("build")
	require.Len(t, calls, 1)
	args := calls[0].Args
	require.Equal(t, "/pkg/.build/xcforge/Package.pif", args[1])
	require.Equal(t, "Release", argValue(args, "--configuration"))
	require.Equal(t, "/build/DerivedData/Foo", argValue(args, "--derivedDataPath"))
	require.Equal(t, step.Target.Identifier(), argValue(args, "--target"))

	raw, err := fs.ReadFile(argValue(args, "--buildParametersFile"))
	require.NoError(t, err)
	var params buildParameters
	require.NoError(t, json.Unmarshal(raw, &params))
	require.Equal(t, "Release", params.ConfigurationName)
	require.Equal(t, map[string]string{
		"SDKROOT":                        "iphoneos",
		"ONLY_ACTIVE_ARCH":               "YES",
		"SKIP_INSTALL":                   "NO",
		"BUILD_LIBRARY_FOR_DISTRIBUTION": "YES",
		"SWIFT_VERSION":                  "5",
	}, params.Overrides.Synthesized.Table)

	plist, err := fs.ReadFile(filepath.Join(res.Framework, "Info.plist"))
	require.NoError(t, err)
	require.Contains(t, string(plist), "<string>com.example.Foo</string>")
	require.True(t, fs.Exists(filepath.Join(res.Framework, "Modules", "Foo.swiftmodule", "arm64.swiftinterface")))
}

func TestBuilderReplacesStaleBundle(t *testing.T) {
	fs := fsys.NewMemory()
	fake := (&processtest.Fake{}).On(testEngine, "build", processtest.Response{Do: emitProducts(fs)})
	opts := testOptions()
	require.NoError(t, fs.WriteFile("/build/Frameworks/Release/Foo.framework/Leftover", []byte("old")))

	res, err := newTestBuilder(fake, fs, opts).Build(context.Background(), singleStep(t, NewSwiftTarget("Foo"), PlatformMacOS, opts))
	require.NoError(t, err)
	require.False(t, fs.Exists(filepath.Join(res.Framework, "Leftover")))
}

func TestBuilderDebugSymbols(t *testing.T) {
	fs := fsys.NewMemory()
	opts := testOptions()
	opts.DebugSymbols = true
	fake := (&processtest.Fake{}).On(testEngine, "build", processtest.Response{
		Do: func(ctx context.Context, c processtest.Call) error {
			if err := emitProducts(fs)(ctx, c); err != nil {
				return err
			}
			dir := filepath.Join(argValue(c.Args, "--derivedDataPath"), "Products", "Release-iphoneos")
			return fs.WriteFile(filepath.Join(dir, argValue(c.Args, "--target")+".dSYM", "Contents", "Info.plist"), nil)
		},
	})

	step := singleStep(t, NewSwiftTarget("Foo"), PlatformIOS, opts)
	res, err := newTestBuilder(fake, fs, opts).Build(context.Background(), step)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(step.ProductDir, step.Target.Identifier()+".dSYM"), res.DebugSymbols)
	require.Equal(t, "dwarf-with-dsym", newTestBuilder(fake, fs, opts).BuildSettings(PlatformIOS)["DEBUG_INFORMATION_FORMAT"])
}

func TestBuilderFailureDecodesLog(t *testing.T) {
	fs := fsys.NewMemory()
	fake := (&processtest.Fake{}).On(testEngine, "build", processtest.Response{
		ExitCode: 65,
		Stdout:   "{\"kind\":\"didUpdateProgress\"}\n{\"message\":\"error: cannot find type X\"}\nplain text line",
	})
	opts := testOptions()

	res, err := newTestBuilder(fake, fs, opts).Build(context.Background(), singleStep(t, NewSwiftTarget("Foo"), PlatformMacOS, opts))
	require.ErrorIs(t, err, ErrBuildFailed)
	require.Equal(t, StateFailed, res.State)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	require.Equal(t, StateBuilding, stepErr.State)
	require.Equal(t, "error: cannot find type X", stepErr.Detail)
	require.False(t, fs.Exists("/build/Frameworks/Release/Foo.framework"))
}

func TestBuilderFailureFallsBackToStderr(t *testing.T) {
	fake := (&processtest.Fake{}).On(testEngine, "build", processtest.Response{
		ExitCode: 1,
		Stderr:   "  xcbuild: unable to load project  \n",
	})
	opts := testOptions()

	_, err := newTestBuilder(fake, fsys.NewMemory(), opts).Build(context.Background(), singleStep(t, NewSwiftTarget("Foo"), PlatformIOS, opts))
	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	require.Equal(t, "xcbuild: unable to load project", stepErr.Detail)
}

func TestBuilderMissingProductFailsDiscovery(t *testing.T) {
	fake := (&processtest.Fake{}).On(testEngine, "build", processtest.Response{})
	opts := testOptions()

	res, err := newTestBuilder(fake, fsys.NewMemory(), opts).Build(context.Background(), singleStep(t, NewSwiftTarget("Foo"), PlatformIOS, opts))
	require.ErrorIs(t, err, ErrDiscovery)
	require.Equal(t, StateFailed, res.State)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	require.Equal(t, StateAssembling, stepErr.State)
}

func TestBuilderEngineNotFound(t *testing.T) {
	fake := &processtest.Fake{}
	opts := testOptions()
	b := newTestBuilder(fake, fsys.NewMemory(), opts)
	b.Tools = staticEngine{err: errors.New("xcode-select: no developer directory")}

	_, err := b.Build(context.Background(), singleStep(t, NewSwiftTarget("Foo"), PlatformIOS, opts))
	require.ErrorContains(t, err, "no developer directory")
	require.Empty(t, fake.Calls())
}
