package reconcile

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/gistsync/pkg/errors"
	"github.com/arthur-debert/gistsync/pkg/filesystem"
	"github.com/arthur-debert/gistsync/pkg/types"
	"github.com/spf13/afero"
)

const backupStamp = "20060102-150405"

// HandleConflicts resolves every conflicted path in the store by keeping the
// local side and commits the resolution. Tracked files are backed up first.
// It returns the resolved tracked files; none means there was nothing to do.
func (c *Controller) HandleConflicts(ctx context.Context) ([]string, error) {
	tracked, _, err := c.resolveConflicts(ctx)
	return tracked, err
}

// resolveConflicts returns the resolved tracked paths and every resolved
// path. Untracked gist files are resolved too so the merge can complete.
func (c *Controller) resolveConflicts(ctx context.Context) ([]string, []string, error) {
	statuses, err := c.store.Status(ctx)
	if err != nil {
		return nil, nil, coded(err, errors.ErrStoreStatus, "failed to read store status")
	}

	names := make(map[string]bool, len(c.files))
	for _, n := range types.Names(c.files) {
		names[n] = true
	}
	var all, tracked []string
	for _, st := range statuses {
		if !st.Conflicted() {
			continue
		}
		all = append(all, st.Path)
		if names[st.Path] {
			tracked = append(tracked, st.Path)
		}
	}
	if len(all) == 0 {
		return nil, nil, nil
	}

	if len(tracked) > 0 {
		list := strings.Join(tracked, ", ")
		c.logger.Warn().Strs("files", tracked).Msg("Merge conflict, keeping local versions")
		if c.notifier != nil {
			c.notifier.Notify("gistsync: merge conflict", fmt.Sprintf("Conflicts in %s. Keeping local versions; remote edits were backed up.", list))
		}
		if dir := c.backupConflicts(ctx, tracked); dir != "" {
			c.logger.Info().Str("dir", dir).Msg("Conflict variants backed up")
		}
	}
	if len(all) > len(tracked) {
		c.logger.Debug().Strs("files", all).Msg("Resolving conflicts outside the tracked set")
	}

	for _, p := range all {
		if err := c.store.ResolveOurs(ctx, p); err != nil {
			return nil, nil, coded(err, errors.ErrConflict, "failed to resolve "+p)
		}
	}

	msg := fmt.Sprintf("sync: resolve conflicts in %s keeping local (%s/%s)", strings.Join(all, ", "), c.goos, c.host)
	if _, err := c.store.Commit(ctx, msg, all); err != nil {
		return nil, nil, coded(err, errors.ErrStoreCommit, "failed to commit conflict resolution")
	}
	c.logger.Info().Strs("files", all).Msg("Conflicts resolved in favour of local")

	// best effort: publish the local-wins result
	if err := c.store.Push(ctx, c.branches); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to push conflict resolution, will retry on next push")
	}
	return tracked, all, nil
}

// backupConflicts copies the conflict-marked working copy and both stages
// of every path into a timestamped directory. Missing variants are skipped.
func (c *Controller) backupConflicts(ctx context.Context, paths []string) string {
	if c.backupDir == "" {
		c.logger.Warn().Msg("No backup directory configured, conflict variants not saved")
		return ""
	}
	dir := filepath.Join(c.backupDir, c.clock.Now().Format(backupStamp))
	if err := c.fs.MkdirAll(dir, 0755); err != nil {
		c.logger.Warn().Err(err).Str("dir", dir).Msg("Failed to create backup directory")
		return ""
	}

	for _, p := range paths {
		base := filepath.Join(dir, filepath.Base(p))

		if data, ok, err := filesystem.ReadIfExists(c.fs, filepath.Join(c.store.Dir(), p)); err == nil && ok {
			c.writeBackup(base+".conflict", data)
		}
		if data, err := c.store.StageContent(ctx, types.StageOurs, p); err == nil {
			c.writeBackup(base+".ours", data)
		}
		if data, err := c.store.StageContent(ctx, types.StageTheirs, p); err == nil {
			c.writeBackup(base+".theirs", data)
		}
	}
	return dir
}

func (c *Controller) writeBackup(path string, data []byte) {
	if err := afero.WriteFile(c.fs, path, data, 0600); err != nil {
		c.logger.Warn().Err(err).Str("path", path).Msg("Failed to write backup")
	}
}
