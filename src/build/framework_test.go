package build

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/sofmeright/xcforge/src/fsys"
)

// seedComponents writes the inputs of a clang framework to fs.
func seedComponents(t *testing.T, fs fsys.FS, p Platform) FrameworkComponents {
	t.Helper()
	files := map[string]string{
		"/dd/Products/Foo_ABCD_PackageProduct":              "mach-o",
		"/dd/Products/Foo.swiftmodule/arm64.swiftinterface": "// interface",
		"/pkg/include/Foo.h":                                "#import <Foo/util.h>",
		"/pkg/include/Foo/util.h":                           "void util(void);",
		"/dd/Foo-Swift.h":                                   "// generated",
		"/maps/module.modulemap":                            "framework module Foo {}",
	}
	for path, data := range files {
		require.NoError(t, fs.WriteFile(path, []byte(data)))
	}
	return FrameworkComponents{
		Name:               "Foo",
		Platform:           p,
		BinaryPath:         "/dd/Products/Foo_ABCD_PackageProduct",
		SwiftModulePath:    "/dd/Products/Foo.swiftmodule",
		PublicHeaderPaths:  []string{"/pkg/include/Foo/util.h", "/pkg/include/Foo.h", "/pkg/include/Foo.h"},
		HeaderRoot:         "/pkg/include",
		BridgingHeaderPath: "/dd/Foo-Swift.h",
		ModuleMapPath:      "/maps/module.modulemap",
		Version:            "2.1.0",
	}
}

func TestAssembleShallowLayout(t *testing.T) {
	fs := fsys.NewMemory()
	c := seedComponents(t, fs, PlatformIOS)

	bundle, err := (&Assembler{FS: fs}).Assemble(c, "/fw/Release-iphoneos")
	require.NoError(t, err)
	require.Equal(t, "/fw/Release-iphoneos/Foo.framework", bundle)

	got := snapshot(t, fs, bundle)
	require.Equal(t, "mach-o", got["Foo"])
	require.Equal(t, "#import <Foo/util.h>", got["Headers/Foo.h"])
	require.Equal(t, "void util(void);", got["Headers/Foo/util.h"])
	require.Equal(t, "// generated", got["Headers/Foo-Swift.h"])
	require.Equal(t, "framework module Foo {}", got["Modules/module.modulemap"])
	require.Equal(t, "// interface", got["Modules/Foo.swiftmodule/arm64.swiftinterface"])
	require.Contains(t, got["Info.plist"], "<string>iPhoneOS</string>")
	require.Contains(t, got["Info.plist"], "<key>MinimumOSVersion</key>")
	require.Contains(t, got["Info.plist"], "<string>2.1.0</string>")
	require.NotContains(t, got, "Versions")
}

func TestAssembleVersionedLayout(t *testing.T) {
	fs := fsys.NewMemory()
	c := seedComponents(t, fs, PlatformMacOS)

	bundle, err := (&Assembler{FS: fs}).Assemble(c, "/fw/Release")
	require.NoError(t, err)

	got := snapshot(t, fs, bundle)
	require.Equal(t, "mach-o", got["Versions/A/Foo"])
	require.Contains(t, got["Versions/A/Resources/Info.plist"], "LSMinimumSystemVersion")
	require.Equal(t, "framework module Foo {}", got["Versions/A/Modules/module.modulemap"])
	// Memory filesystems have no links; the Current entries are copies.
	require.Equal(t, "mach-o", got["Versions/Current/Foo"])
	require.Equal(t, "mach-o", got["Foo"])
	require.Equal(t, "<dir>", got["Headers"])
	require.Equal(t, "<dir>", got["Resources"])
	require.NotContains(t, got, "Info.plist")
}

func TestAssembleIsDeterministic(t *testing.T) {
	for _, p := range []Platform{PlatformIOSSimulator, PlatformMacOS} {
		t.Run(string(p), func(t *testing.T) {
			fs := fsys.NewMemory()
			c := seedComponents(t, fs, p)
			a := &Assembler{FS: fs}

			first, err := a.Assemble(c, "/one")
			require.NoError(t, err)
			second, err := a.Assemble(c, "/two")
			require.NoError(t, err)

			if diff := cmp.Diff(snapshot(t, fs, first), snapshot(t, fs, second)); diff != "" {
				t.Fatalf("bundles differ (-first +second):\n%s", diff)
			}
		})
	}
}

func TestAssembleFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *FrameworkComponents)
		wantMsg string
	}{
		{
			name:    "missing binary",
			mutate:  func(c *FrameworkComponents) { c.BinaryPath = "/nope" },
			wantMsg: "binary",
		},
		{
			name:    "missing module map",
			mutate:  func(c *FrameworkComponents) { c.ModuleMapPath = "" },
			wantMsg: "module map",
		},
		{
			name: "header collision",
			mutate: func(c *FrameworkComponents) {
				c.HeaderRoot = ""
				c.PublicHeaderPaths = []string{"/pkg/include/Foo.h", "/pkg/other/Foo.h"}
			},
			wantMsg: "both map to Headers/Foo.h",
		},
		{
			name: "bridging header collides with public header",
			mutate: func(c *FrameworkComponents) {
				c.PublicHeaderPaths = []string{"/pkg/include/Foo-Swift.h"}
			},
			wantMsg: "Foo-Swift.h",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := fsys.NewMemory()
			c := seedComponents(t, fs, PlatformIOS)
			require.NoError(t, fs.WriteFile("/pkg/other/Foo.h", []byte("other")))
			require.NoError(t, fs.WriteFile("/pkg/include/Foo-Swift.h", []byte("user")))
			tt.mutate(&c)

			_, err := (&Assembler{FS: fs}).Assemble(c, "/fw")
			require.ErrorIs(t, err, ErrAssembly)
			require.Contains(t, err.Error(), tt.wantMsg)
			require.False(t, fs.Exists("/fw/Foo.framework/Foo"))
		})
	}
}

func TestAssembleRefusesExistingBundle(t *testing.T) {
	fs := fsys.NewMemory()
	c := seedComponents(t, fs, PlatformIOS)
	require.NoError(t, fs.WriteFile("/fw/Foo.framework/Foo", []byte("stale")))

	_, err := (&Assembler{FS: fs}).Assemble(c, "/fw")
	require.ErrorIs(t, err, ErrAssembly)

	data, _ := fs.ReadFile("/fw/Foo.framework/Foo")
	require.Equal(t, "stale", string(data))
}

func TestInfoPlist(t *testing.T) {
	plist := string(InfoPlist(FrameworkComponents{Name: "Foo", Platform: PlatformTVOS, BundleIdentifier: "com.example.Foo&Co"}))
	require.True(t, strings.HasPrefix(plist, "<?xml"))
	require.Contains(t, plist, "<string>com.example.Foo&amp;Co</string>")
	require.Contains(t, plist, "<string>AppleTVOS</string>")
	require.Contains(t, plist, "<string>1.0.0</string>")
	require.Equal(t, plist, string(InfoPlist(FrameworkComponents{Name: "Foo", Platform: PlatformTVOS, BundleIdentifier: "com.example.Foo&Co"})))

	require.Contains(t, string(InfoPlist(FrameworkComponents{Name: "Bar"})), "<string>xcforge.Bar</string>")
}
