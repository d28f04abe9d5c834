package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/arthur-debert/gistsync/pkg/types"
	"github.com/spf13/afero"
)

// FakeStore is an in-memory types.Store. Each revision is a snapshot of the
// store's files; Pull and SpeculativeMerge behave as fast-forwards to the
// remote snapshot unless a conflict is configured.
type FakeStore struct {
	FS   afero.Fs
	Root string

	Current types.Revision
	Remote  types.Revision
	Commits map[types.Revision]map[string][]byte

	// Statuses are returned by Status and cleared by a successful Commit
	Statuses []types.FileStatus
	// Stages holds conflict sides by stage and path
	Stages map[types.Stage]map[string][]byte

	FetchErr  error
	PullErr   error
	PushErr   error
	CommitErr error
	MergeErr  error

	// MergeConflicted marks speculative merges as conflicted
	MergeConflicted bool

	// PullFunc replaces the default fast-forward pull when set
	PullFunc func(ctx context.Context) error

	mu    sync.Mutex
	calls []string
	seq   int
}

var _ types.Store = (*FakeStore)(nil)

// NewFakeStore returns a store rooted at root with no commits
func NewFakeStore(fs afero.Fs, root string) *FakeStore {
	return &FakeStore{
		FS:      fs,
		Root:    root,
		Commits: map[types.Revision]map[string][]byte{},
		Stages:  map[types.Stage]map[string][]byte{},
	}
}

// Seed writes files into the store and records them as a revision that is
// both current and remote
func (s *FakeStore) Seed(files map[string]string) types.Revision {
	snap := map[string][]byte{}
	for name, content := range files {
		path := filepath.Join(s.Root, name)
		_ = s.FS.MkdirAll(filepath.Dir(path), 0755)
		_ = afero.WriteFile(s.FS, path, []byte(content), 0644)
		snap[name] = []byte(content)
	}
	rev := s.newRevision(snap)
	s.Current = rev
	s.Remote = rev
	return rev
}

// AddRemoteCommit records a remote revision whose files are the current
// snapshot with files applied on top
func (s *FakeStore) AddRemoteCommit(files map[string]string) types.Revision {
	snap := copySnapshot(s.Commits[s.Current])
	for name, content := range files {
		snap[name] = []byte(content)
	}
	rev := s.newRevision(snap)
	s.Remote = rev
	return rev
}

// Snapshot returns the files recorded for rev
func (s *FakeStore) Snapshot(rev types.Revision) map[string][]byte {
	return s.Commits[rev]
}

// Calls returns the recorded operation names in order
func (s *FakeStore) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// Called counts how many times op was invoked
func (s *FakeStore) Called(op string) int {
	n := 0
	for _, c := range s.Calls() {
		if c == op {
			n++
		}
	}
	return n
}

func (s *FakeStore) record(op string) {
	s.mu.Lock()
	s.calls = append(s.calls, op)
	s.mu.Unlock()
}

func (s *FakeStore) newRevision(snap map[string][]byte) types.Revision {
	s.seq++
	rev := types.Revision(fmt.Sprintf("rev-%04d", s.seq))
	s.Commits[rev] = snap
	return rev
}

func (s *FakeStore) Dir() string {
	return s.Root
}

func (s *FakeStore) CurrentRevision(ctx context.Context) (types.Revision, error) {
	s.record("CurrentRevision")
	return s.Current, nil
}

func (s *FakeStore) RemoteRevision(ctx context.Context, branches []string) (types.Revision, error) {
	s.record("RemoteRevision")
	return s.Remote, nil
}

func (s *FakeStore) Fetch(ctx context.Context) error {
	s.record("Fetch")
	return s.FetchErr
}

// Pull checks out the remote snapshot into the store directory
func (s *FakeStore) Pull(ctx context.Context, branches []string) error {
	s.record("Pull")
	if s.PullFunc != nil {
		return s.PullFunc(ctx)
	}
	if s.PullErr != nil {
		return s.PullErr
	}
	for name, content := range s.Commits[s.Remote] {
		path := filepath.Join(s.Root, name)
		if err := s.FS.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := afero.WriteFile(s.FS, path, content, 0644); err != nil {
			return err
		}
	}
	s.Current = s.Remote
	return nil
}

func (s *FakeStore) Push(ctx context.Context, branches []string) error {
	s.record("Push")
	if s.PushErr != nil {
		return s.PushErr
	}
	s.Remote = s.Current
	return nil
}

// Commit snapshots paths from the store directory. Nothing is committed
// when the snapshot matches the current revision and no conflicts are
// pending.
func (s *FakeStore) Commit(ctx context.Context, message string, paths []string) (bool, error) {
	s.record("Commit")
	if s.CommitErr != nil {
		return false, s.CommitErr
	}
	snap := copySnapshot(s.Commits[s.Current])
	for _, p := range paths {
		data, err := afero.ReadFile(s.FS, filepath.Join(s.Root, p))
		if err != nil {
			continue
		}
		snap[p] = data
	}
	if len(s.Statuses) == 0 && sameSnapshot(snap, s.Commits[s.Current]) {
		return false, nil
	}
	s.Current = s.newRevision(snap)
	s.Statuses = nil
	return true, nil
}

func (s *FakeStore) SpeculativeMerge(ctx context.Context, rev types.Revision, paths []string) (*types.MergeResult, error) {
	s.record("SpeculativeMerge")
	if s.MergeErr != nil {
		return nil, s.MergeErr
	}
	return &types.MergeResult{
		Before:     filterSnapshot(s.Commits[s.Current], paths),
		After:      filterSnapshot(s.Commits[rev], paths),
		Conflicted: s.MergeConflicted,
		Strategy:   "fake",
	}, nil
}

func (s *FakeStore) Status(ctx context.Context) ([]types.FileStatus, error) {
	s.record("Status")
	return s.Statuses, nil
}

func (s *FakeStore) StageContent(ctx context.Context, stage types.Stage, path string) ([]byte, error) {
	data, ok := s.Stages[stage][path]
	if !ok {
		return nil, fmt.Errorf("no stage %d for %s", stage, path)
	}
	return data, nil
}

// ResolveOurs writes the ours stage over the working copy and marks the path
// resolved. Without an ours stage the working copy is removed.
func (s *FakeStore) ResolveOurs(ctx context.Context, path string) error {
	s.record("ResolveOurs")
	target := filepath.Join(s.Root, path)
	if data, ok := s.Stages[types.StageOurs][path]; ok {
		if err := afero.WriteFile(s.FS, target, data, 0644); err != nil {
			return err
		}
	} else if err := s.FS.Remove(target); err != nil && !os.IsNotExist(err) {
		return err
	}
	kept := s.Statuses[:0]
	for _, st := range s.Statuses {
		if st.Path != path {
			kept = append(kept, st)
		}
	}
	s.Statuses = kept
	if len(s.Statuses) == 0 {
		// keep Commit from treating the resolution as a no-op
		s.Statuses = []types.FileStatus{{Path: path, Index: 'M', Worktree: ' '}}
	}
	return nil
}

// Diff lists the paths whose content differs between the two snapshots
func (s *FakeStore) Diff(ctx context.Context, from, to types.Revision, paths []string) (string, error) {
	s.record("Diff")
	var b strings.Builder
	a, z := s.Commits[from], s.Commits[to]
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)
	for _, p := range sorted {
		if string(a[p]) != string(z[p]) {
			fmt.Fprintf(&b, "--- a/%s\n+++ b/%s\n-%s\n+%s\n", p, p, a[p], z[p])
		}
	}
	return b.String(), nil
}

func copySnapshot(snap map[string][]byte) map[string][]byte {
	out := make(map[string][]byte, len(snap))
	for k, v := range snap {
		out[k] = v
	}
	return out
}

func filterSnapshot(snap map[string][]byte, paths []string) map[string][]byte {
	out := map[string][]byte{}
	for _, p := range paths {
		if v, ok := snap[p]; ok {
			out[p] = v
		}
	}
	return out
}

func sameSnapshot(a, b map[string][]byte) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || string(v) != string(w) {
			return false
		}
	}
	return true
}
