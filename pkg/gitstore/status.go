package gitstore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/arthur-debert/gistsync/pkg/errors"
	"github.com/arthur-debert/gistsync/pkg/types"
)

// Status lists tracked entries that differ from HEAD, including unmerged
// paths during a merge
func (c *Client) Status(ctx context.Context) ([]types.FileStatus, error) {
	res, err := c.run(ctx, "status", "--porcelain=v1", "-z", "--untracked-files=no")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrStoreStatus, "failed to read store status").
			WithDetail("output", res.output())
	}
	return parsePorcelain(res.stdout), nil
}

// parsePorcelain parses `git status --porcelain=v1 -z` output
func parsePorcelain(out []byte) []types.FileStatus {
	var statuses []types.FileStatus
	entries := bytes.Split(out, []byte{0})
	for i := 0; i < len(entries); i++ {
		e := entries[i]
		if len(e) < 4 {
			continue
		}
		st := types.FileStatus{Index: e[0], Worktree: e[1], Path: string(e[3:])}
		statuses = append(statuses, st)
		// Renames and copies carry the source path as the next entry
		if e[0] == 'R' || e[0] == 'C' {
			i++
		}
	}
	return statuses
}

// StageContent returns one side of an unmerged path
func (c *Client) StageContent(ctx context.Context, stage types.Stage, path string) ([]byte, error) {
	res, err := c.run(ctx, "show", fmt.Sprintf(":%d:%s", stage, path))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrStoreStatus, "failed to read stage %d of %s", stage, path).
			WithDetail("output", res.output())
	}
	return res.stdout, nil
}

// ResolveOurs keeps the local side of a conflicted path and stages it. When
// the local side has no version of the path (deleted by us, both deleted)
// the path is removed instead.
func (c *Client) ResolveOurs(ctx context.Context, path string) error {
	if !c.hasStage(ctx, types.StageOurs, path) {
		if res, err := c.run(ctx, "rm", "-q", "--force", "--ignore-unmatch", "--", path); err != nil {
			return errors.Wrapf(err, errors.ErrConflict, "failed to remove %s", path).
				WithDetail("output", res.output())
		}
		return nil
	}
	if res, err := c.run(ctx, "checkout", "--ours", "--", path); err != nil {
		return errors.Wrapf(err, errors.ErrConflict, "failed to check out our side of %s", path).
			WithDetail("output", res.output())
	}
	if res, err := c.run(ctx, "add", "--", path); err != nil {
		return errors.Wrapf(err, errors.ErrConflict, "failed to stage resolution of %s", path).
			WithDetail("output", res.output())
	}
	return nil
}

func (c *Client) hasStage(ctx context.Context, stage types.Stage, path string) bool {
	_, err := c.run(ctx, "cat-file", "-e", fmt.Sprintf(":%d:%s", stage, path))
	return err == nil
}

// Diff returns a unified diff of paths between two revisions
func (c *Client) Diff(ctx context.Context, from, to types.Revision, paths []string) (string, error) {
	args := []string{"diff", "--no-color", from.String(), to.String(), "--"}
	args = append(args, paths...)
	res, err := c.run(ctx, args...)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrStoreStatus, "failed to diff revisions").
			WithDetail("output", res.output())
	}
	return string(res.stdout), nil
}
