package reconcile

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/arthur-debert/gistsync/pkg/errors"
	"github.com/arthur-debert/gistsync/pkg/filesystem"
	"github.com/arthur-debert/gistsync/pkg/logging"
	"github.com/arthur-debert/gistsync/pkg/types"
	"github.com/arthur-debert/gistsync/pkg/watermark"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Options configures a Controller
type Options struct {
	Branches  []string
	BackupDir string
	Hooks     []types.PostPullHook
	Notifier  types.Notifier

	// Host and OS appear in commit messages; detected when empty
	Host string
	OS   string
}

// Controller performs push and pull for the tracked files
type Controller struct {
	fs        afero.Fs
	store     types.Store
	marks     *watermark.Store
	files     []types.TrackedFile
	clock     clockwork.Clock
	branches  []string
	backupDir string
	hooks     []types.PostPullHook
	notifier  types.Notifier
	host      string
	goos      string
	logger    zerolog.Logger
}

// New creates a Controller
func New(fs afero.Fs, store types.Store, marks *watermark.Store, files []types.TrackedFile, clock clockwork.Clock, opts Options) *Controller {
	c := &Controller{
		fs:        fs,
		store:     store,
		marks:     marks,
		files:     files,
		clock:     clock,
		branches:  opts.Branches,
		backupDir: opts.BackupDir,
		hooks:     opts.Hooks,
		notifier:  opts.Notifier,
		host:      opts.Host,
		goos:      opts.OS,
		logger:    logging.GetLogger("reconcile"),
	}
	if c.host == "" {
		c.host, _ = os.Hostname()
	}
	if c.goos == "" {
		c.goos = runtime.GOOS
	}
	return c
}

// CommitMessage is the message used for sync commits
func (c *Controller) CommitMessage() string {
	return fmt.Sprintf("sync: %s from %s/%s", c.clock.Now().UTC().Format(time.RFC3339), c.goos, c.host)
}

// Push publishes every existing local file. A failure leaves the watermark
// untouched so the next cycle detects the pending change again.
func (c *Controller) Push(ctx context.Context) error {
	done := logging.LogOperationStart(c.logger, "push")
	defer done()

	for _, f := range c.files {
		ok, err := filesystem.Exists(c.fs, f.LocalPath)
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileAccess, "failed to access %s", f.LocalPath)
		}
		if !ok {
			continue
		}
		if filesystem.SameFile(c.fs, f.LocalPath, f.MirrorPath) {
			continue
		}
		if err := filesystem.CopyFile(c.fs, f.LocalPath, f.MirrorPath); err != nil {
			return errors.Wrapf(err, errors.ErrFileWrite, "failed to copy %s into the store", f.LocalPath)
		}
	}

	committed, err := c.store.Commit(ctx, c.CommitMessage(), types.Names(c.files))
	if err != nil {
		return coded(err, errors.ErrStoreCommit, "failed to commit local changes")
	}
	if !committed {
		c.logger.Info().Msg("Nothing new to commit, pushing pending commits")
	}

	if err := c.store.Push(ctx, c.branches); err != nil {
		return coded(err, errors.ErrStorePush, "failed to push local changes")
	}

	if err := c.advance(ctx); err != nil {
		return err
	}
	c.logger.Info().Msg("Local changes pushed")
	return nil
}

// Pull merges the remote into the store and refreshes the local files.
// Conflict handling runs after every attempt. A conflicted pull returns a
// CONFLICT error and does not move the watermark.
func (c *Controller) Pull(ctx context.Context) error {
	done := logging.LogOperationStart(c.logger, "pull")
	defer done()

	pullErr := c.store.Pull(ctx, c.branches)

	resolved, all, err := c.resolveConflicts(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Conflict handling failed")
		if pullErr == nil {
			pullErr = err
		}
	} else if len(all) > 0 && len(resolved) == 0 {
		// only untracked gist files conflicted; the merge is complete
		pullErr = nil
	}

	if len(resolved) > 0 {
		// cleanly merged files still come down; conflicted ones keep local
		c.copyMirrors(excluding(c.files, resolved))
		return errors.Newf(errors.ErrConflict, "pull conflicted on %d file(s); local versions kept", len(resolved)).
			WithDetail("files", resolved)
	}
	if pullErr != nil {
		return coded(pullErr, errors.ErrStorePull, "failed to pull remote changes")
	}

	if err := c.advance(ctx); err != nil {
		return err
	}
	refreshed := c.copyMirrors(c.files)
	c.runHooks(ctx, refreshed)
	c.logger.Info().Int("files", len(refreshed)).Msg("Remote changes pulled")
	return nil
}

// advance sets the watermark to the store's current revision
func (c *Controller) advance(ctx context.Context) error {
	rev, err := c.store.CurrentRevision(ctx)
	if err != nil {
		return coded(err, errors.ErrStoreRev, "failed to read current revision")
	}
	return c.marks.Set(rev)
}

// copyMirrors copies every existing mirror over its local path and returns
// the refreshed files. Failures are logged per file.
func (c *Controller) copyMirrors(files []types.TrackedFile) []types.TrackedFile {
	var refreshed []types.TrackedFile
	for _, f := range files {
		ok, err := filesystem.Exists(c.fs, f.MirrorPath)
		if err != nil || !ok {
			continue
		}
		if !filesystem.SameFile(c.fs, f.MirrorPath, f.LocalPath) {
			if err := filesystem.CopyFile(c.fs, f.MirrorPath, f.LocalPath); err != nil {
				c.logger.Error().Err(err).Str("file", f.Name).Msg("Failed to update local file")
				continue
			}
		}
		refreshed = append(refreshed, f)
	}
	return refreshed
}

func (c *Controller) runHooks(ctx context.Context, files []types.TrackedFile) {
	for _, h := range c.hooks {
		if err := h.AfterPull(ctx, files); err != nil {
			c.logger.Warn().Err(err).Str("hook", h.Name()).Msg("Post-pull hook failed")
		}
	}
}

func excluding(files []types.TrackedFile, names []string) []types.TrackedFile {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	var out []types.TrackedFile
	for _, f := range files {
		if !skip[f.Name] {
			out = append(out, f)
		}
	}
	return out
}

// coded keeps an existing error code, wrapping uncoded errors with code
func coded(err error, code errors.ErrorCode, msg string) error {
	if errors.GetErrorCode(err) != errors.ErrUnknown {
		return err
	}
	return errors.Wrap(err, code, msg)
}
