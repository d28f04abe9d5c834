package filesystem

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExists(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/home/u/.zshrc", []byte("x"), 0644))

	ok, err := Exists(fs, "/home/u/.zshrc")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Exists(fs, "/home/u/.bashrc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadIfExists(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/a", []byte("content"), 0644))

	content, ok, err := ReadIfExists(fs, "/a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "content", string(content))

	content, ok, err = ReadIfExists(fs, "/missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, content)
}

func TestCopyFile(t *testing.T) {
	t.Run("creates destination and parents", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/home/u/.zshrc", []byte("alias ll='ls -la'"), 0600))

		require.NoError(t, CopyFile(fs, "/home/u/.zshrc", "/store/sub/zshrc"))

		content, err := afero.ReadFile(fs, "/store/sub/zshrc")
		require.NoError(t, err)
		assert.Equal(t, "alias ll='ls -la'", string(content))

		info, err := fs.Stat("/store/sub/zshrc")
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})

	t.Run("overwrites and keeps destination mode", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/src", []byte("new"), 0600))
		require.NoError(t, afero.WriteFile(fs, "/dst", []byte("old"), 0644))

		require.NoError(t, CopyFile(fs, "/src", "/dst"))

		content, err := afero.ReadFile(fs, "/dst")
		require.NoError(t, err)
		assert.Equal(t, "new", string(content))
		info, err := fs.Stat("/dst")
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
	})

	t.Run("missing source", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		assert.Error(t, CopyFile(fs, "/nope", "/dst"))
	})
}

func TestLinker_EnsureSymlink(t *testing.T) {
	newLinker := func(t *testing.T) (*Linker, string) {
		dir := t.TempDir()
		l := NewLinker(afero.NewOsFs().(*afero.OsFs), filepath.Join(dir, "backups"))
		l.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
		return l, dir
	}

	t.Run("creates new link", func(t *testing.T) {
		l, dir := newLinker(t)
		target := filepath.Join(dir, "store", "zshrc")
		link := filepath.Join(dir, "home", ".zshrc")
		require.NoError(t, os.MkdirAll(filepath.Dir(target), 0755))
		require.NoError(t, os.WriteFile(target, []byte("x"), 0644))

		require.NoError(t, l.EnsureSymlink(target, link))

		got, err := os.Readlink(link)
		require.NoError(t, err)
		assert.Equal(t, target, got)
	})

	t.Run("idempotent", func(t *testing.T) {
		l, dir := newLinker(t)
		target := filepath.Join(dir, "target")
		link := filepath.Join(dir, "link")
		require.NoError(t, os.Symlink(target, link))

		require.NoError(t, l.EnsureSymlink(target, link))

		got, err := os.Readlink(link)
		require.NoError(t, err)
		assert.Equal(t, target, got)
	})

	t.Run("replaces stale link", func(t *testing.T) {
		l, dir := newLinker(t)
		link := filepath.Join(dir, "link")
		require.NoError(t, os.Symlink(filepath.Join(dir, "old"), link))

		require.NoError(t, l.EnsureSymlink(filepath.Join(dir, "new"), link))

		got, err := os.Readlink(link)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "new"), got)
	})

	t.Run("backs up regular file", func(t *testing.T) {
		l, dir := newLinker(t)
		link := filepath.Join(dir, ".zshrc")
		require.NoError(t, os.WriteFile(link, []byte("precious"), 0644))

		require.NoError(t, l.EnsureSymlink(filepath.Join(dir, "target"), link))

		backup := filepath.Join(dir, "backups", ".zshrc.20260102-030405")
		content, err := os.ReadFile(backup)
		require.NoError(t, err)
		assert.Equal(t, "precious", string(content))

		info, err := os.Lstat(link)
		require.NoError(t, err)
		assert.NotZero(t, info.Mode()&os.ModeSymlink)
	})

	t.Run("refuses directory", func(t *testing.T) {
		l, dir := newLinker(t)
		link := filepath.Join(dir, "confdir")
		require.NoError(t, os.MkdirAll(link, 0755))

		assert.Error(t, l.EnsureSymlink(filepath.Join(dir, "target"), link))
	})
}

func TestSameFile(t *testing.T) {
	dir := t.TempDir()
	fs := afero.NewOsFs()
	target := filepath.Join(dir, "zshrc")
	link := filepath.Join(dir, ".zshrc")
	other := filepath.Join(dir, "bashrc")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(other, []byte("x"), 0644))
	require.NoError(t, os.Symlink(target, link))

	assert.True(t, SameFile(fs, link, target))
	assert.False(t, SameFile(fs, other, target))
	assert.False(t, SameFile(fs, filepath.Join(dir, "missing"), target))
}
