package gitstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/gistsync/pkg/errors"
)

// Fetch updates remote-tracking refs
func (c *Client) Fetch(ctx context.Context) error {
	res, err := c.run(ctx, "fetch", "--prune", c.remote)
	if err != nil {
		return errors.Wrapf(err, errors.ErrStoreFetch, "failed to fetch from %s", c.remote).
			WithDetail("output", res.output())
	}
	return nil
}

// Pull merges the first available remote branch into the current branch.
// Conflicts are reported as CONFLICT, leaving the merge in progress.
func (c *Client) Pull(ctx context.Context, branches []string) error {
	branch, _, err := c.remoteBranch(branches)
	if err != nil {
		return err
	}
	if branch == "" {
		c.logger.Info().Strs("candidates", branches).Msg("Remote has no matching branch, nothing to pull")
		return nil
	}

	res, err := c.run(ctx, "pull", "--no-rebase", "--ff", "--no-edit", c.remote, branch)
	if err != nil {
		out := res.output()
		if strings.Contains(out, "CONFLICT") || c.merging() {
			return errors.Wrapf(err, errors.ErrConflict, "pull from %s/%s stopped on conflicts", c.remote, branch).
				WithDetail("output", out)
		}
		return errors.Wrapf(err, errors.ErrStorePull, "failed to pull %s/%s", c.remote, branch).
			WithDetail("output", out)
	}
	c.logger.Debug().Str("branch", branch).Msg("Pulled")
	return nil
}

// Push publishes HEAD to the remote branch. The target is the first
// candidate present on the remote, then the checked out branch, then the
// first candidate.
func (c *Client) Push(ctx context.Context, branches []string) error {
	branch, _, err := c.remoteBranch(branches)
	if err != nil {
		return err
	}
	if branch == "" {
		if branch, err = c.currentBranch(); err != nil {
			return err
		}
	}
	if branch == "" && len(branches) > 0 {
		branch = branches[0]
	}
	if branch == "" {
		return errors.New(errors.ErrStorePush, "no branch to push to")
	}

	res, err := c.run(ctx, "push", c.remote, "HEAD:refs/heads/"+branch)
	if err != nil {
		e := errors.Wrapf(err, errors.ErrStorePush, "failed to push to %s/%s", c.remote, branch).
			WithDetail("output", res.output())
		if strings.Contains(res.output(), "rejected") {
			e = e.WithDetail("rejected", true)
		}
		return e
	}
	c.logger.Debug().Str("branch", branch).Msg("Pushed")
	return nil
}

// Commit stages paths and records a commit. It returns false when there was
// nothing to commit. While a merge is in progress the whole index is
// committed, which concludes the merge.
func (c *Client) Commit(ctx context.Context, message string, paths []string) (bool, error) {
	var existing []string
	for _, p := range paths {
		if _, err := os.Lstat(filepath.Join(c.dir, p)); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) > 0 {
		args := append([]string{"add", "--"}, existing...)
		if res, err := c.run(ctx, args...); err != nil {
			return false, errors.Wrap(err, errors.ErrStoreCommit, "failed to stage files").
				WithDetail("output", res.output())
		}
	}

	merging := c.merging()
	if !merging {
		// exit 0 means the index matches HEAD
		if _, err := c.run(ctx, "diff", "--cached", "--quiet"); err == nil && c.hasHead(ctx) {
			return false, nil
		}
	}

	args := []string{"commit", "-m", message}
	if merging {
		args = append(args, "--no-edit")
	}
	res, err := c.run(ctx, args...)
	if err != nil {
		if strings.Contains(res.output(), "nothing to commit") {
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrStoreCommit, "failed to commit").
			WithDetail("output", res.output())
	}
	return true, nil
}

// merging reports whether a merge is in progress in the store
func (c *Client) merging() bool {
	_, err := os.Stat(c.gitPath("MERGE_HEAD"))
	return err == nil
}

func (c *Client) hasHead(ctx context.Context) bool {
	rev, err := c.CurrentRevision(ctx)
	return err == nil && !rev.IsZero()
}

// gitPath locates a file inside the git directory, following a .git file
func (c *Client) gitPath(name string) string {
	dotgit := filepath.Join(c.dir, ".git")
	if data, err := os.ReadFile(dotgit); err == nil {
		line := strings.TrimSpace(string(data))
		if gitdir, ok := strings.CutPrefix(line, "gitdir: "); ok {
			if !filepath.IsAbs(gitdir) {
				gitdir = filepath.Join(c.dir, gitdir)
			}
			return filepath.Join(gitdir, name)
		}
	}
	return filepath.Join(dotgit, name)
}
