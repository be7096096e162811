package build

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestC99Name(t *testing.T) {
	tests := map[string]string{
		"Foo":         "Foo",
		"swift-nio":   "swift_nio",
		"3DKit":       "_3DKit",
		"Foo.Bar baz": "Foo_Bar_baz",
		"Net_2":       "Net_2",
	}
	for in, want := range tests {
		require.Equal(t, want, C99Name(in), in)
	}
}

func TestIdentifier(t *testing.T) {
	id := NewSwiftTarget("Foo").Identifier()
	require.Regexp(t, regexp.MustCompile(`^Foo_[0-9A-F]{8}_PackageProduct$`), id)
	require.Equal(t, id, NewSwiftTarget("Foo").Identifier(), "identifier must be stable")
	require.NotEqual(t, id, NewSwiftTarget("Bar").Identifier())
}

func TestTargetVariants(t *testing.T) {
	swift := NewSwiftTarget("Foo")
	require.Nil(t, swift.Clang())
	require.Nil(t, swift.Binary())

	clang := NewClangTarget("CFoo", ClangModule{IncludeRoot: "/pkg/Sources/CFoo/include"})
	require.NotNil(t, clang.Clang())
	require.Nil(t, clang.Binary())
	require.Equal(t, "clang", clang.Kind.String())

	bin := NewBinaryTarget("Vendor", "/pkg/Vendor.xcframework")
	require.Nil(t, bin.Clang())
	require.Equal(t, "/pkg/Vendor.xcframework", bin.Binary().Path)
}

func TestHeadersUnder(t *testing.T) {
	got := headersUnder([]string{
		"/pkg/include/b.h",
		"/pkg/include/a.h",
		"/pkg/include/./a.h",
		"/pkg/include/sub/c.h",
		"/pkg/src/private.h",
		"/pkg/include-other/d.h",
	}, "/pkg/include")
	require.Equal(t, []string{"/pkg/include/a.h", "/pkg/include/b.h", "/pkg/include/sub/c.h"}, got)

	require.Nil(t, headersUnder([]string{"/a.h"}, ""))
}
