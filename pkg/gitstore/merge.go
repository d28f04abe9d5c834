package gitstore

import (
	"bufio"
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/gistsync/pkg/errors"
	"github.com/arthur-debert/gistsync/pkg/types"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var errMergeTreeUnsupported = stderrors.New("git merge-tree --write-tree is not supported")

// SpeculativeMerge computes the tracked files before and after merging rev
// into HEAD. Nothing observable in the store changes: no ref moves and the
// index and working tree are untouched.
func (c *Client) SpeculativeMerge(ctx context.Context, rev types.Revision, paths []string) (*types.MergeResult, error) {
	repo, err := c.open()
	if err != nil {
		return nil, err
	}

	current, err := c.CurrentRevision(ctx)
	if err != nil {
		return nil, err
	}

	before := map[string][]byte{}
	if !current.IsZero() {
		if before, err = commitFiles(repo, current, paths); err != nil {
			return nil, err
		}
	}

	// Unborn HEAD: the merge result is simply the remote tree
	if current.IsZero() {
		after, err := commitFiles(repo, rev, paths)
		if err != nil {
			return nil, err
		}
		return &types.MergeResult{Before: before, After: after, Strategy: "checkout"}, nil
	}

	strategy := c.strategy
	if strategy == StrategyAuto {
		strategy = StrategyMergeTree
		if c.mergeTreeUnsupported {
			strategy = StrategyWorktree
		}
	}

	if strategy == StrategyMergeTree {
		result, err := c.mergeTree(ctx, repo, current, rev, paths)
		if err == nil {
			result.Before = before
			return result, nil
		}
		if !stderrors.Is(err, errMergeTreeUnsupported) || c.strategy == StrategyMergeTree {
			return nil, err
		}
		c.mergeTreeUnsupported = true
		c.logger.Info().Msg("git merge-tree --write-tree unavailable, using a temporary worktree")
	}

	result, err := c.worktreeMerge(ctx, current, rev, paths)
	if err != nil {
		return nil, err
	}
	result.Before = before
	return result, nil
}

// mergeTree runs an in-object-store merge. Exit status 1 means the merge
// has conflicts; the tree is still written with conflict markers.
func (c *Client) mergeTree(ctx context.Context, repo *git.Repository, ours, theirs types.Revision, paths []string) (*types.MergeResult, error) {
	res, err := c.run(ctx, "merge-tree", "--write-tree", "--no-messages", ours.String(), theirs.String())
	conflicted := false
	if err != nil {
		switch {
		case res.exitCode == 1 && len(res.stdout) > 0:
			conflicted = true
		case res.exitCode == 129 || strings.Contains(string(res.stderr), "usage: git merge-tree"):
			return nil, errMergeTreeUnsupported
		default:
			return nil, errors.Wrap(err, errors.ErrStoreMerge, "merge-tree failed").
				WithDetail("output", res.output())
		}
	}

	treeID, err := firstLine(res.stdout)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrStoreMerge, "unexpected merge-tree output")
	}
	if !plumbing.IsHash(treeID) {
		// Old merge-tree prints a diff instead of a tree id
		return nil, errMergeTreeUnsupported
	}

	tree, err := repo.TreeObject(plumbing.NewHash(treeID))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrStoreMerge, "failed to read merged tree %s", treeID)
	}
	after, err := treeFiles(tree, paths)
	if err != nil {
		return nil, err
	}
	return &types.MergeResult{After: after, Conflicted: conflicted, Strategy: StrategyMergeTree}, nil
}

// worktreeMerge performs the merge in a detached throwaway worktree
func (c *Client) worktreeMerge(ctx context.Context, ours, theirs types.Revision, paths []string) (*types.MergeResult, error) {
	tmp, err := os.MkdirTemp("", "gistsync-merge-*")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrStoreMerge, "failed to create temporary directory")
	}
	wt := filepath.Join(tmp, "wt")

	if res, err := c.run(ctx, "worktree", "add", "--detach", wt, ours.String()); err != nil {
		_ = os.RemoveAll(tmp)
		return nil, errors.Wrap(err, errors.ErrStoreMerge, "failed to create temporary worktree").
			WithDetail("output", res.output())
	}
	defer func() {
		// Cleanup must run even when the caller's context is done
		cleanup := context.WithoutCancel(ctx)
		if _, err := c.run(cleanup, "worktree", "remove", "--force", wt); err != nil {
			c.logger.Warn().Err(err).Str("worktree", wt).Msg("Failed to remove temporary worktree")
		}
		_ = os.RemoveAll(tmp)
		_, _ = c.run(cleanup, "worktree", "prune")
	}()

	res, err := c.runIn(ctx, wt, "merge", "--no-commit", "--no-ff", theirs.String())
	conflicted := false
	if err != nil {
		if res.exitCode != 1 {
			return nil, errors.Wrap(err, errors.ErrStoreMerge, "worktree merge failed").
				WithDetail("output", res.output())
		}
		conflicted = true
	}

	after := make(map[string][]byte, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(filepath.Join(wt, p))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.Wrapf(err, errors.ErrStoreMerge, "failed to read merged %s", p)
		}
		after[p] = data
	}

	_, _ = c.runIn(ctx, wt, "merge", "--abort")
	return &types.MergeResult{After: after, Conflicted: conflicted, Strategy: StrategyWorktree}, nil
}

func commitFiles(repo *git.Repository, rev types.Revision, paths []string) (map[string][]byte, error) {
	commit, err := repo.CommitObject(plumbing.NewHash(rev.String()))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrStoreRev, "failed to read commit %s", rev.Short())
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrStoreRev, "failed to read tree of %s", rev.Short())
	}
	return treeFiles(tree, paths)
}

// treeFiles reads the requested paths from a tree. Absent paths are omitted.
func treeFiles(tree *object.Tree, paths []string) (map[string][]byte, error) {
	files := make(map[string][]byte, len(paths))
	for _, p := range paths {
		f, err := tree.File(filepath.ToSlash(p))
		if err != nil {
			if stderrors.Is(err, object.ErrFileNotFound) {
				continue
			}
			return nil, errors.Wrapf(err, errors.ErrStoreMerge, "failed to look up %s", p)
		}
		contents, err := f.Contents()
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrStoreMerge, "failed to read %s", p)
		}
		files[p] = []byte(contents)
	}
	return files, nil
}

func firstLine(out []byte) (string, error) {
	sc := bufio.NewScanner(bytes.NewReader(out))
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", stderrors.New("empty output")
	}
	return strings.TrimSpace(sc.Text()), nil
}
