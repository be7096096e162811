// Package fsys is the filesystem capability used by bundle assembly and
// binary extraction. It is backed by afero so the same code runs against the
// real disk and against an in-memory tree in tests.
package fsys

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// FS is the set of filesystem operations the pipeline needs.
type FS interface {
	Exists(path string) bool
	IsDir(path string) bool
	MkdirAll(path string) error
	WriteFile(path string, data []byte) error
	ReadFile(path string) ([]byte, error)
	// ReadDir lists a directory sorted by name.
	ReadDir(path string) ([]fs.FileInfo, error)
	// Copy copies a file or a directory tree. dst must not exist.
	Copy(src, dst string) error
	RemoveAll(path string) error
	// Symlink creates newname pointing at oldname (relative to newname's
	// directory). Filesystems without link support copy the target instead.
	Symlink(oldname, newname string) error
	Walk(root string, fn filepath.WalkFunc) error
}

// Afero adapts an afero.Fs to FS.
type Afero struct {
	fs afero.Fs
}

// New wraps an arbitrary afero filesystem.
func New(fs afero.Fs) *Afero { return &Afero{fs: fs} }

// NewOS returns the real-disk filesystem.
func NewOS() *Afero { return New(afero.NewOsFs()) }

// NewMemory returns an empty in-memory filesystem.
func NewMemory() *Afero { return New(afero.NewMemMapFs()) }

// Afero exposes the underlying afero.Fs.
func (a *Afero) Afero() afero.Fs { return a.fs }

func (a *Afero) Exists(path string) bool {
	_, err := a.lstat(path)
	return err == nil
}

func (a *Afero) IsDir(path string) bool {
	ok, err := afero.IsDir(a.fs, path)
	return err == nil && ok
}

func (a *Afero) MkdirAll(path string) error {
	return a.fs.MkdirAll(path, dirPerm)
}

func (a *Afero) WriteFile(path string, data []byte) error {
	if err := a.fs.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return err
	}
	return afero.WriteFile(a.fs, path, data, filePerm)
}

func (a *Afero) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(a.fs, path)
}

func (a *Afero) ReadDir(path string) ([]fs.FileInfo, error) {
	return afero.ReadDir(a.fs, path)
}

func (a *Afero) RemoveAll(path string) error {
	return a.fs.RemoveAll(path)
}

func (a *Afero) Walk(root string, fn filepath.WalkFunc) error {
	return afero.Walk(a.fs, root, fn)
}

func (a *Afero) Symlink(oldname, newname string) error {
	if linker, ok := a.fs.(afero.Linker); ok {
		if err := linker.SymlinkIfPossible(oldname, newname); err == nil {
			return nil
		} else if !errors.Is(err, afero.ErrNoSymlink) {
			return err
		}
	}

	target := oldname
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(newname), oldname)
	}
	return a.Copy(target, newname)
}

func (a *Afero) Copy(src, dst string) error {
	info, err := a.lstat(src)
	if err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if a.Exists(dst) {
		return fmt.Errorf("copy %s: destination %s: %w", src, dst, fs.ErrExist)
	}
	if err := a.fs.MkdirAll(filepath.Dir(dst), dirPerm); err != nil {
		return err
	}
	return a.copyEntry(src, dst, info)
}

func (a *Afero) copyEntry(src, dst string, info fs.FileInfo) error {
	switch {
	case info.Mode()&fs.ModeSymlink != 0:
		return a.copyLink(src, dst)
	case info.IsDir():
		return a.copyDir(src, dst, info)
	default:
		return a.copyFile(src, dst, info)
	}
}

func (a *Afero) copyDir(src, dst string, info fs.FileInfo) error {
	if err := a.fs.MkdirAll(dst, info.Mode().Perm()|0o700); err != nil {
		return err
	}
	entries, err := afero.ReadDir(a.fs, src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		from := filepath.Join(src, e.Name())
		// ReadDir follows links; re-stat so links are copied as links.
		ei, err := a.lstat(from)
		if err != nil {
			return err
		}
		if err := a.copyEntry(from, filepath.Join(dst, e.Name()), ei); err != nil {
			return err
		}
	}
	return nil
}

func (a *Afero) copyFile(src, dst string, info fs.FileInfo) error {
	in, err := a.fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := a.fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (a *Afero) copyLink(src, dst string) error {
	reader, ok := a.fs.(afero.LinkReader)
	if !ok {
		return fmt.Errorf("copy %s: symlinks not supported", src)
	}
	target, err := reader.ReadlinkIfPossible(src)
	if err != nil {
		return err
	}
	return a.Symlink(target, dst)
}

func (a *Afero) lstat(path string) (fs.FileInfo, error) {
	if l, ok := a.fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return a.fs.Stat(path)
}
