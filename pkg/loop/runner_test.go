package loop

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/arthur-debert/gistsync/pkg/detect"
	"github.com/arthur-debert/gistsync/pkg/errors"
	"github.com/arthur-debert/gistsync/pkg/lock"
	"github.com/arthur-debert/gistsync/pkg/reconcile"
	"github.com/arthur-debert/gistsync/pkg/testutil"
	"github.com/arthur-debert/gistsync/pkg/types"
	"github.com/arthur-debert/gistsync/pkg/watermark"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var branches = []string{"master", "main"}

type fixture struct {
	env       *testutil.Env
	store     *testutil.FakeStore
	marks     *watermark.Store
	clock     *clockwork.FakeClock
	confirmer *testutil.MockConfirmer
	linker    *testutil.MockLinker
	deps      Deps
	opts      Options
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	env := testutil.NewEnv(t, "zshrc", "zsh_aliases")
	f := &fixture{
		env:       env,
		store:     env.NewStore(),
		clock:     clockwork.NewFakeClockAt(time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)),
		confirmer: &testutil.MockConfirmer{Answer: true},
		linker:    &testutil.MockLinker{},
	}
	f.marks = watermark.New(env.FS, filepath.Join(env.State, "watermark.toml"), f.clock)
	ctrl := reconcile.New(env.FS, f.store, f.marks, env.Files, f.clock, reconcile.Options{
		Branches:  branches,
		BackupDir: "/backups",
		Notifier:  &testutil.MockNotifier{},
		Host:      "box",
		OS:        "linux",
	})
	f.deps = Deps{
		FS:         env.FS,
		Store:      f.store,
		Watermark:  f.marks,
		Local:      detect.NewLocal(env.FS, env.Files),
		Remote:     detect.NewRemote(f.store, f.marks, env.Files, detect.RemoteOptions{Branches: branches}),
		Controller: ctrl,
		Confirmer:  f.confirmer,
		Linker:     f.linker,
		Clock:      f.clock,
	}
	f.opts = Options{
		Files:    env.Files,
		Links:    []types.Link{{Target: env.Store + "/zshrc", Path: env.Home + "/.zshrc"}},
		Branches: branches,
		Interval: time.Minute,
	}
	return f
}

// synced seeds store and local files with the same content and an old
// watermark
func (f *fixture) synced(t *testing.T) types.Revision {
	t.Helper()
	rev := f.store.Seed(map[string]string{"zshrc": "alias ll='ls -la'\n", "zsh_aliases": "alias g=git\n"})
	f.env.WriteLocal("zshrc", "alias ll='ls -la'\n")
	f.env.WriteLocal("zsh_aliases", "alias g=git\n")
	require.NoError(t, f.marks.Set(rev))
	f.clock.Advance(10 * time.Minute)
	return rev
}

func (f *fixture) watermark(t *testing.T) types.Revision {
	t.Helper()
	w, ok, err := f.marks.Load()
	require.NoError(t, err)
	require.True(t, ok)
	return w.Revision
}

func TestBootstrap(t *testing.T) {
	f := newFixture(t)
	remote := f.store.Seed(map[string]string{"zsh_aliases": "alias g=git\n"})
	// local differs from what the gist holds; bootstrap must not offer it
	f.env.WriteLocal("zshrc", "alias ll='ls -la'\n")
	f.env.WriteLocal("zsh_aliases", "alias g=git\nalias k=kubectl\n")

	r := New(f.deps, f.opts)
	cycle, err := r.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, remote, f.watermark(t))
	assert.Equal(t, "alias ll='ls -la'\n", f.env.ReadMirror("zshrc"), "missing mirror created")
	assert.Equal(t, "alias g=git\n", f.env.ReadMirror("zsh_aliases"), "existing mirror kept")
	assert.Equal(t, f.opts.Links, f.linker.Links)

	assert.True(t, cycle.Skipped)
	assert.False(t, cycle.LocalChanged)
	assert.False(t, cycle.RemoteChanged)
	assert.Empty(t, f.confirmer.Asked)
	assert.Equal(t, StateSteady, r.State())
	assert.False(t, r.Skipping(), "skip mode cleared after the first cycle")

	// the following cycle does look at local changes
	cycle = r.Cycle(context.Background())
	assert.True(t, cycle.LocalChanged)
}

func TestBootstrap_NoRemoteBranch(t *testing.T) {
	f := newFixture(t)
	f.store.Current = "local-only"
	r := New(f.deps, f.opts)
	require.NoError(t, r.Bootstrap(context.Background()))
	assert.Equal(t, types.Revision("local-only"), f.watermark(t))
	assert.True(t, r.Skipping())
}

func TestBootstrap_StoreMissing(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.env.FS.RemoveAll(f.env.Store))

	_, err := New(f.deps, f.opts).RunOnce(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrStoreMissing))
	assert.False(t, errors.IsRetryable(err))
}

func TestCycle_Push(t *testing.T) {
	f := newFixture(t)
	f.synced(t)
	f.env.WriteLocal("zshrc", "alias ll='ls -lah'\n")

	cycle, err := New(f.deps, f.opts).RunOnce(context.Background())
	require.NoError(t, err)

	assert.True(t, cycle.LocalChanged)
	assert.True(t, cycle.Pushed)
	assert.False(t, cycle.RemoteChanged, "cooldown after push")
	assert.Equal(t, "alias ll='ls -lah'\n", f.env.ReadMirror("zshrc"))
	assert.Equal(t, f.store.Current, f.watermark(t))
	assert.Equal(t, f.store.Current, f.store.Remote)
	require.Len(t, f.confirmer.Asked, 1)
	assert.Contains(t, f.confirmer.Asked[0].Preview, "+alias ll='ls -lah'")
	assert.Equal(t, "pushed local changes", cycle.Summary())
}

func TestCycle_PushDeclined(t *testing.T) {
	f := newFixture(t)
	base := f.synced(t)
	f.confirmer.Answer = false
	f.env.WriteLocal("zshrc", "alias ll='ls -lah'\n")

	cycle, err := New(f.deps, f.opts).RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, cycle.LocalChanged)
	assert.False(t, cycle.Pushed)
	assert.Equal(t, base, f.watermark(t))
	assert.Zero(t, f.store.Called("Push"))
	assert.Equal(t, "local changes not pushed", cycle.Summary())
}

func TestCycle_Pull(t *testing.T) {
	f := newFixture(t)
	f.synced(t)
	remote := f.store.AddRemoteCommit(map[string]string{"zsh_aliases": "alias g=git\nalias k=kubectl\n"})

	cycle, err := New(f.deps, f.opts).RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, cycle.LocalChanged)
	assert.True(t, cycle.RemoteChanged)
	assert.True(t, cycle.Pulled)
	assert.Equal(t, "alias g=git\nalias k=kubectl\n", f.env.ReadLocal("zsh_aliases"))
	assert.Equal(t, remote, f.watermark(t))
}

func TestCycle_FailuresAreNotFatal(t *testing.T) {
	f := newFixture(t)
	base := f.synced(t)
	f.env.WriteLocal("zshrc", "alias ll='ls -lah'\n")
	f.store.PushErr = errors.New(errors.ErrStorePush, "rejected")

	cycle, err := New(f.deps, f.opts).RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, cycle.Errors, 1)
	assert.True(t, errors.IsErrorCode(cycle.Errors[0], errors.ErrStorePush))
	assert.Equal(t, base, f.watermark(t))
	assert.Contains(t, cycle.Summary(), "1 error(s)")
}

func TestSkipFirst(t *testing.T) {
	f := newFixture(t)
	f.synced(t)
	f.env.WriteLocal("zshrc", "alias ll='ls -lah'\n")
	f.store.AddRemoteCommit(map[string]string{"zsh_aliases": "alias k=kubectl\n"})
	f.opts.SkipFirst = true

	r := New(f.deps, f.opts)
	cycle, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, cycle.Skipped)
	assert.Empty(t, f.confirmer.Asked)
	assert.Zero(t, f.store.Called("Fetch"))
	assert.Equal(t, "first cycle after bootstrap skipped", cycle.Summary())
}

func TestRun_StopsOnCancel(t *testing.T) {
	f := newFixture(t)
	f.synced(t)
	r := New(f.deps, f.opts)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	// two cycles, separated by the interval
	require.NoError(t, f.clock.BlockUntilContext(ctx, 1))
	f.clock.Advance(time.Minute)
	require.NoError(t, f.clock.BlockUntilContext(ctx, 1))
	assert.Equal(t, 2, f.store.Called("Fetch"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}

func TestRun_Locked(t *testing.T) {
	f := newFixture(t)
	f.synced(t)
	path := filepath.Join(t.TempDir(), "gistsync.lock")
	holder := lock.New(path)
	require.NoError(t, holder.Acquire())
	defer func() { _ = holder.Release() }()

	f.deps.Lock = lock.New(path)
	_, err := New(f.deps, f.opts).RunOnce(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrLocked))

	err = New(f.deps, f.opts).Run(context.Background())
	assert.True(t, errors.IsErrorCode(err, errors.ErrLocked))
}
