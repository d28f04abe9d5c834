package loop

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arthur-debert/gistsync/pkg/detect"
	"github.com/arthur-debert/gistsync/pkg/errors"
	"github.com/arthur-debert/gistsync/pkg/filesystem"
	"github.com/arthur-debert/gistsync/pkg/lock"
	"github.com/arthur-debert/gistsync/pkg/logging"
	"github.com/arthur-debert/gistsync/pkg/reconcile"
	"github.com/arthur-debert/gistsync/pkg/types"
	"github.com/arthur-debert/gistsync/pkg/watermark"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// DefaultInterval is the pause between steady-state cycles
const DefaultInterval = 60 * time.Second

// State is the runner's position in its state machine
type State string

const (
	StateBootstrap State = "bootstrap"
	StateSteady    State = "steady"
)

// Deps are the runner's collaborators
type Deps struct {
	FS         afero.Fs
	Store      types.Store
	Watermark  *watermark.Store
	Local      *detect.Local
	Remote     *detect.Remote
	Controller *reconcile.Controller
	Confirmer  types.Confirmer
	Linker     types.Linker
	Clock      clockwork.Clock

	// Lock is held for the duration of Run and RunOnce when set
	Lock *lock.Lock
}

// Options configures a Runner
type Options struct {
	Files    []types.TrackedFile
	Links    []types.Link
	Branches []string
	Interval time.Duration

	// SkipFirst suppresses the checks of the first cycle
	SkipFirst bool
}

// Cycle reports what one steady-state iteration did
type Cycle struct {
	Skipped       bool
	LocalChanged  bool
	Pushed        bool
	RemoteChanged bool
	Pulled        bool
	Errors        []error
}

// Runner is the polling loop
type Runner struct {
	deps     Deps
	files    []types.TrackedFile
	links    []types.Link
	branches []string
	interval time.Duration
	skip     bool
	state    State
	logger   zerolog.Logger
}

// New creates a Runner
func New(deps Deps, opts Options) *Runner {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Runner{
		deps:     deps,
		files:    opts.Files,
		links:    opts.Links,
		branches: opts.Branches,
		interval: opts.Interval,
		skip:     opts.SkipFirst,
		state:    StateBootstrap,
		logger:   logging.GetLogger("loop"),
	}
}

// State returns the current state
func (r *Runner) State() State {
	return r.state
}

// Skipping reports whether the next cycle runs in skip mode
func (r *Runner) Skipping() bool {
	return r.skip
}

// Run bootstraps if needed and then cycles until ctx is cancelled. It
// returns nil on cancellation; only a failed bootstrap or lock is an error.
func (r *Runner) Run(ctx context.Context) error {
	release, err := r.acquire()
	if err != nil {
		return err
	}
	defer release()

	if err := r.ensureBootstrapped(ctx); err != nil {
		return err
	}

	r.logger.Info().Dur("interval", r.interval).Bool("skipFirst", r.skip).Msg("Entering steady state")
	for {
		r.Cycle(ctx)

		select {
		case <-ctx.Done():
			r.logger.Info().Msg("Stopping")
			return nil
		case <-r.deps.Clock.After(r.interval):
		}
	}
}

// RunOnce bootstraps if needed and runs a single cycle
func (r *Runner) RunOnce(ctx context.Context) (*Cycle, error) {
	release, err := r.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	if err := r.ensureBootstrapped(ctx); err != nil {
		return nil, err
	}
	return r.Cycle(ctx), nil
}

func (r *Runner) acquire() (func(), error) {
	if r.deps.Lock == nil {
		return func() {}, nil
	}
	if err := r.deps.Lock.Acquire(); err != nil {
		return nil, err
	}
	return func() {
		if err := r.deps.Lock.Release(); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to release lock")
		}
	}, nil
}

func (r *Runner) ensureBootstrapped(ctx context.Context) error {
	exists, err := r.deps.Watermark.Exists()
	if err != nil {
		return err
	}
	if !exists {
		if err := r.Bootstrap(ctx); err != nil {
			return err
		}
	}
	r.state = StateSteady
	return nil
}

// Bootstrap prepares a fresh installation: mirrors are created from the
// local files, symlinks are put in place and the watermark is seeded with
// the remote revision. Skip mode is enabled for the next cycle. A missing
// store directory is fatal.
func (r *Runner) Bootstrap(ctx context.Context) error {
	done := logging.LogOperationStart(r.logger, "bootstrap")
	defer done()
	r.state = StateBootstrap

	dir := r.deps.Store.Dir()
	ok, err := filesystem.Exists(r.deps.FS, dir)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to access store directory %s", dir)
	}
	if !ok {
		return errors.Newf(errors.ErrStoreMissing, "store directory %s does not exist; clone the gist there first", dir)
	}

	for _, f := range r.files {
		if err := r.createMirror(f); err != nil {
			return err
		}
	}

	if r.deps.Linker != nil {
		for _, l := range r.links {
			if err := r.deps.Linker.EnsureSymlink(l.Target, l.Path); err != nil {
				r.logger.Warn().Err(err).Str("link", l.Path).Msg("Failed to create symlink")
			}
		}
	}

	if err := r.deps.Store.Fetch(ctx); err != nil {
		r.logger.Warn().Err(err).Msg("Fetch failed during bootstrap, seeding from local revision")
	}
	rev, err := r.deps.Store.RemoteRevision(ctx, r.branches)
	if err != nil {
		return err
	}
	if rev.IsZero() {
		if rev, err = r.deps.Store.CurrentRevision(ctx); err != nil {
			return err
		}
	}
	if err := r.deps.Watermark.Set(rev); err != nil {
		return err
	}

	r.skip = true
	r.logger.Info().Str("revision", rev.Short()).Msg("Bootstrap complete")
	return nil
}

// createMirror copies a local file into the store when it has no mirror yet
func (r *Runner) createMirror(f types.TrackedFile) error {
	exists, err := filesystem.Exists(r.deps.FS, f.MirrorPath)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to access %s", f.MirrorPath)
	}
	if exists {
		return nil
	}
	local, err := filesystem.Exists(r.deps.FS, f.LocalPath)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to access %s", f.LocalPath)
	}
	if !local {
		return nil
	}
	if err := filesystem.CopyFile(r.deps.FS, f.LocalPath, f.MirrorPath); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to create mirror of %s", f.LocalPath)
	}
	r.logger.Info().Str("file", f.Name).Msg("Mirror created from local file")
	return nil
}

// Cycle runs one steady-state iteration. Failures are logged and reported
// in the result; none of them stops the loop.
func (r *Runner) Cycle(ctx context.Context) *Cycle {
	c := &Cycle{Skipped: r.skip}
	defer func() { r.skip = false }()

	if !r.skip {
		r.localStep(ctx, c)
	}
	if ctx.Err() != nil {
		return c
	}
	r.remoteStep(ctx, c)
	return c
}

func (r *Runner) localStep(ctx context.Context, c *Cycle) {
	changed, err := r.deps.Local.HasChanges()
	if err != nil {
		r.fail(c, "local check", err)
		return
	}
	c.LocalChanged = changed
	if !changed {
		return
	}

	preview, err := r.deps.Controller.LocalPreview()
	if err != nil {
		r.logger.Debug().Err(err).Msg("No local preview")
	}
	if !r.deps.Confirmer.Confirm(ctx, "Local shell config changed. Push to the gist?", preview) {
		r.logger.Info().Msg("Push declined")
		return
	}
	if err := r.deps.Controller.Push(ctx); err != nil {
		r.fail(c, "push", err)
		return
	}
	c.Pushed = true
}

func (r *Runner) remoteStep(ctx context.Context, c *Cycle) {
	changed, err := r.deps.Remote.HasChanges(ctx, r.skip)
	if err != nil {
		r.fail(c, "remote check", err)
		return
	}
	c.RemoteChanged = changed
	if !changed {
		return
	}

	preview, err := r.deps.Controller.RemotePreview(ctx)
	if err != nil {
		r.logger.Debug().Err(err).Msg("No remote preview")
	}
	if !r.deps.Confirmer.Confirm(ctx, "The gist has new shell config. Pull it?", preview) {
		r.logger.Info().Msg("Pull declined")
		return
	}
	if err := r.deps.Controller.Pull(ctx); err != nil {
		r.fail(c, "pull", err)
		return
	}
	c.Pulled = true
}

func (r *Runner) fail(c *Cycle, step string, err error) {
	c.Errors = append(c.Errors, fmt.Errorf("%s: %w", step, err))
	r.logger.Error().
		Err(err).
		Str("step", step).
		Str("code", string(errors.GetErrorCode(err))).
		Bool("retryable", errors.IsRetryable(err)).
		Msg("Sync step failed")
}

// Summary is a one-line description of a cycle
func (c *Cycle) Summary() string {
	if c.Skipped && !c.RemoteChanged {
		return "first cycle after bootstrap skipped"
	}
	var parts []string
	switch {
	case c.Pushed:
		parts = append(parts, "pushed local changes")
	case c.LocalChanged:
		parts = append(parts, "local changes not pushed")
	}
	switch {
	case c.Pulled:
		parts = append(parts, "pulled remote changes")
	case c.RemoteChanged:
		parts = append(parts, "remote changes not pulled")
	}
	if len(parts) == 0 {
		parts = append(parts, "in sync")
	}
	if len(c.Errors) > 0 {
		parts = append(parts, fmt.Sprintf("%d error(s)", len(c.Errors)))
	}
	return strings.Join(parts, ", ")
}
