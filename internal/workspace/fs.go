package workspace

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// ErrNotDirectory is returned when a directory path is occupied by a file.
var ErrNotDirectory = errors.New("not a directory")

// FS performs workspace IO on top of a billy.Filesystem so tests can run
// against memfs.
type FS struct {
	fs billy.Filesystem
}

// New wraps fs.
func New(fs billy.Filesystem) *FS {
	return &FS{fs: fs}
}

// OS returns an FS rooted at "/" that accepts absolute host paths.
func OS() *FS {
	return New(osfs.New("/"))
}

// EnsureDir creates path and its parents. It is idempotent and fails when
// any existing entry on the path is not a directory.
func (w *FS) EnsureDir(path string) error {
	info, err := w.fs.Stat(path)
	switch {
	case err == nil && !info.IsDir():
		return fmt.Errorf("ensure dir %s: %w", path, ErrNotDirectory)
	case err == nil:
		return nil
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("ensure dir %s: %w", path, err)
	}
	if err := w.fs.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("ensure dir %s: %w", path, err)
	}
	return nil
}

// CopyFile copies src to dst byte for byte, replacing dst.
func (w *FS) CopyFile(src, dst string) error {
	in, err := w.fs.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	out, err := w.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}
	return nil
}

// ReadFile returns the contents of path.
func (w *FS) ReadFile(path string) ([]byte, error) {
	data, err := util.ReadFile(w.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// WriteFile writes data to path, creating parent directories.
func (w *FS) WriteFile(path string, data []byte) error {
	if err := w.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := util.WriteFile(w.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteFileAtomic replaces path with data via a temp file in the same
// directory followed by a rename, so readers never see a partial file.
func (w *FS) WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := w.fs.TempFile(dir, ".splash-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = w.fs.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = w.fs.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("close temp: %w", err)
	}
	if err := w.fs.Rename(tmpName, path); err != nil {
		_ = w.fs.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("rename temp to %s: %w", path, err)
	}
	return nil
}

// Exists reports whether path exists.
func (w *FS) Exists(path string) bool {
	_, err := w.fs.Stat(path)
	return err == nil
}
