package fsys

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCopyTreeInMemory(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.WriteFile("/src/Foo.xcframework/Info.plist", []byte("plist")))
	require.NoError(t, m.WriteFile("/src/Foo.xcframework/ios-arm64/Foo.framework/Foo", []byte("bin")))

	require.NoError(t, m.Copy("/src/Foo.xcframework", "/out/Foo.xcframework"))

	data, err := m.ReadFile("/out/Foo.xcframework/ios-arm64/Foo.framework/Foo")
	require.NoError(t, err)
	require.Equal(t, "bin", string(data))
	require.True(t, m.IsDir("/out/Foo.xcframework/ios-arm64"))
}

func TestCopyRefusesExistingDestination(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.WriteFile("/a/file", []byte("new")))
	require.NoError(t, m.WriteFile("/b/file", []byte("old")))

	err := m.Copy("/a/file", "/b/file")
	require.ErrorIs(t, err, fs.ErrExist)

	data, _ := m.ReadFile("/b/file")
	require.Equal(t, "old", string(data))
}

func TestSymlinkFallsBackToCopyInMemory(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.WriteFile("/fw/Versions/A/Foo", []byte("bin")))

	require.NoError(t, m.Symlink("Versions/A/Foo", "/fw/Foo"))

	data, err := m.ReadFile("/fw/Foo")
	require.NoError(t, err)
	require.Equal(t, "bin", string(data))
}

func TestSymlinkOnDiskIsALink(t *testing.T) {
	dir := t.TempDir()
	d := NewOS()
	require.NoError(t, d.WriteFile(filepath.Join(dir, "Versions/A/Foo"), []byte("bin")))
	require.NoError(t, d.Symlink("A", filepath.Join(dir, "Versions/Current")))

	target, err := os.Readlink(filepath.Join(dir, "Versions/Current"))
	require.NoError(t, err)
	require.Equal(t, "A", target)

	// Copying a tree keeps links as links.
	require.NoError(t, d.Copy(dir, filepath.Join(t.TempDir(), "copy")))
}

func TestReadDirSorted(t *testing.T) {
	m := NewMemory()
	for _, name := range []string{"c.h", "a.h", "b.h"} {
		require.NoError(t, m.WriteFile("/inc/"+name, nil))
	}

	entries, err := m.ReadDir("/inc")
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.Equal(t, []string{"a.h", "b.h", "c.h"}, names)
}

func TestRemoveAll(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.WriteFile("/x/y/z", []byte("1")))
	require.NoError(t, m.RemoveAll("/x"))
	require.False(t, m.Exists("/x/y/z"))
	require.False(t, m.Exists("/x"))
}
