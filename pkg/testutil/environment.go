package testutil

import (
	"path/filepath"
	"testing"

	"github.com/arthur-debert/gistsync/pkg/types"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// Env is a memory-backed layout: a home directory holding the local files
// and a store directory holding the mirrors
type Env struct {
	FS    afero.Fs
	Home  string
	Store string
	State string
	Files []types.TrackedFile

	t *testing.T
}

// NewEnv creates an Env tracking names as "~/.<name>" ↔ "<store>/<name>"
func NewEnv(t *testing.T, names ...string) *Env {
	t.Helper()
	e := &Env{
		FS:    afero.NewMemMapFs(),
		Home:  "/home/user",
		Store: "/home/user/.gistsync/gist",
		State: "/home/user/.local/state/gistsync",
		t:     t,
	}
	for _, dir := range []string{e.Home, e.Store, e.State} {
		require.NoError(t, e.FS.MkdirAll(dir, 0755))
	}
	for _, name := range names {
		e.Files = append(e.Files, types.TrackedFile{
			Name:       name,
			LocalPath:  filepath.Join(e.Home, "."+name),
			MirrorPath: filepath.Join(e.Store, name),
		})
	}
	return e
}

// File returns the tracked pair with the given mirror name
func (e *Env) File(name string) types.TrackedFile {
	e.t.Helper()
	for _, f := range e.Files {
		if f.Name == name {
			return f
		}
	}
	e.t.Fatalf("no tracked file %q", name)
	return types.TrackedFile{}
}

// WriteLocal writes the local side of a pair
func (e *Env) WriteLocal(name, content string) {
	e.t.Helper()
	require.NoError(e.t, afero.WriteFile(e.FS, e.File(name).LocalPath, []byte(content), 0644))
}

// WriteMirror writes the mirror side of a pair
func (e *Env) WriteMirror(name, content string) {
	e.t.Helper()
	require.NoError(e.t, afero.WriteFile(e.FS, e.File(name).MirrorPath, []byte(content), 0644))
}

// ReadLocal returns the local side of a pair
func (e *Env) ReadLocal(name string) string {
	e.t.Helper()
	data, err := afero.ReadFile(e.FS, e.File(name).LocalPath)
	require.NoError(e.t, err)
	return string(data)
}

// ReadMirror returns the mirror side of a pair
func (e *Env) ReadMirror(name string) string {
	e.t.Helper()
	data, err := afero.ReadFile(e.FS, e.File(name).MirrorPath)
	require.NoError(e.t, err)
	return string(data)
}

// NewStore returns a FakeStore rooted at the Env's store directory
func (e *Env) NewStore() *FakeStore {
	return NewFakeStore(e.FS, e.Store)
}
