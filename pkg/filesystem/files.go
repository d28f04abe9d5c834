package filesystem

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// NewOS returns the OS-backed filesystem
func NewOS() afero.Fs {
	return afero.NewOsFs()
}

// Exists reports whether path exists. Errors other than not-exist are returned.
func Exists(fs afero.Fs, path string) (bool, error) {
	_, err := fs.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// ReadIfExists returns the file content, or nil and false when it is absent
func ReadIfExists(fs afero.Fs, path string) ([]byte, bool, error) {
	content, err := afero.ReadFile(fs, path)
	if err == nil {
		return content, true, nil
	}
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	return nil, false, err
}

// CopyFile copies src over dst, creating dst's parent directories. An
// existing dst keeps its permission bits; a new one takes src's.
func CopyFile(fs afero.Fs, src, dst string) error {
	info, err := fs.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}
	if info.IsDir() {
		return fmt.Errorf("cannot copy directory %s", src)
	}

	content, err := afero.ReadFile(fs, src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}

	perm := info.Mode().Perm()
	if dstInfo, err := fs.Stat(dst); err == nil {
		perm = dstInfo.Mode().Perm()
	}

	if err := fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", dst, err)
	}

	if err := afero.WriteFile(fs, dst, content, perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return nil
}

// SameFile reports whether a and b resolve to the same file, as when a local
// path is a symlink into the store
func SameFile(fs afero.Fs, a, b string) bool {
	ai, err := fs.Stat(a)
	if err != nil {
		return false
	}
	bi, err := fs.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}
