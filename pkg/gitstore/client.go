package gitstore

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/arthur-debert/gistsync/pkg/errors"
	"github.com/arthur-debert/gistsync/pkg/logging"
	"github.com/arthur-debert/gistsync/pkg/types"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/rs/zerolog"
)

// Strategy names for the speculative merge
const (
	StrategyAuto      = "auto"
	StrategyMergeTree = "merge-tree"
	StrategyWorktree  = "worktree"
)

// DefaultRemote is used when Options.Remote is empty
const DefaultRemote = "origin"

// Options configures a Client
type Options struct {
	// Dir is the store working copy
	Dir string

	// Remote is the remote name, "origin" when empty
	Remote string

	// AuthorName and AuthorEmail override git's identity when set
	AuthorName  string
	AuthorEmail string

	// Strategy selects the speculative merge implementation
	Strategy string
}

// Client is a types.Store backed by a git working copy
type Client struct {
	dir      string
	remote   string
	env      []string
	strategy string
	logger   zerolog.Logger

	// set once merge-tree --write-tree has been rejected by the local git
	mergeTreeUnsupported bool
}

var _ types.Store = (*Client)(nil)

// New opens the store at opts.Dir. A missing directory is reported as
// STORE_MISSING, a directory that is not a git repository as STORE_OPEN.
func New(opts Options) (*Client, error) {
	info, err := os.Stat(opts.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrStoreMissing, "store directory %s does not exist; clone the gist there first", opts.Dir).
				WithDetail("dir", opts.Dir)
		}
		return nil, errors.Wrapf(err, errors.ErrStoreOpen, "failed to access store directory %s", opts.Dir)
	}
	if !info.IsDir() {
		return nil, errors.Newf(errors.ErrStoreMissing, "store path %s is not a directory", opts.Dir)
	}

	c := &Client{
		dir:      opts.Dir,
		remote:   opts.Remote,
		strategy: opts.Strategy,
		logger:   logging.GetLogger("gitstore"),
	}
	if c.remote == "" {
		c.remote = DefaultRemote
	}
	if c.strategy == "" {
		c.strategy = StrategyAuto
	}

	// Never block on credential prompts and keep messages parseable
	c.env = []string{"GIT_TERMINAL_PROMPT=0", "LC_ALL=C"}
	if opts.AuthorName != "" {
		c.env = append(c.env, "GIT_AUTHOR_NAME="+opts.AuthorName, "GIT_COMMITTER_NAME="+opts.AuthorName)
	}
	if opts.AuthorEmail != "" {
		c.env = append(c.env, "GIT_AUTHOR_EMAIL="+opts.AuthorEmail, "GIT_COMMITTER_EMAIL="+opts.AuthorEmail)
	}

	if _, err := c.open(); err != nil {
		return nil, err
	}
	return c, nil
}

// Dir returns the store's working directory
func (c *Client) Dir() string {
	return c.dir
}

// Remote returns the configured remote name
func (c *Client) Remote() string {
	return c.remote
}

func (c *Client) open() (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(c.dir, &git.PlainOpenOptions{EnableDotGitCommonDir: true})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrStoreOpen, "failed to open git repository at %s", c.dir)
	}
	return repo, nil
}

// CurrentRevision returns HEAD, or a zero revision on an unborn branch
func (c *Client) CurrentRevision(ctx context.Context) (types.Revision, error) {
	repo, err := c.open()
	if err != nil {
		return "", err
	}
	ref, err := repo.Head()
	if err != nil {
		if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", nil
		}
		return "", errors.Wrap(err, errors.ErrStoreRev, "failed to resolve HEAD")
	}
	return types.Revision(ref.Hash().String()), nil
}

// RemoteRevision returns the remote-tracking revision of the first branch
// candidate present after the last fetch
func (c *Client) RemoteRevision(ctx context.Context, branches []string) (types.Revision, error) {
	branch, rev, err := c.remoteBranch(branches)
	if err != nil {
		return "", err
	}
	if branch == "" {
		c.logger.Debug().Strs("candidates", branches).Msg("No remote branch found")
	}
	return rev, nil
}

// remoteBranch finds the first candidate with a remote-tracking ref
func (c *Client) remoteBranch(branches []string) (string, types.Revision, error) {
	repo, err := c.open()
	if err != nil {
		return "", "", err
	}
	for _, b := range branches {
		ref, err := repo.Reference(plumbing.NewRemoteReferenceName(c.remote, b), true)
		if err != nil {
			if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
				continue
			}
			return "", "", errors.Wrapf(err, errors.ErrStoreRev, "failed to resolve %s/%s", c.remote, b)
		}
		return b, types.Revision(ref.Hash().String()), nil
	}
	return "", "", nil
}

// currentBranch returns the checked out branch name, empty when detached
func (c *Client) currentBranch() (string, error) {
	repo, err := c.open()
	if err != nil {
		return "", err
	}
	ref, err := repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrStoreRev, "failed to read HEAD")
	}
	if ref.Type() != plumbing.SymbolicReference {
		return "", nil
	}
	return ref.Target().Short(), nil
}

// result is the captured outcome of one git invocation
type result struct {
	stdout   []byte
	stderr   []byte
	exitCode int
}

func (r *result) output() string {
	return strings.TrimSpace(string(r.stderr) + "\n" + string(r.stdout))
}

// run executes git in the store directory. A non-zero exit is returned as
// an error together with the captured result so callers can inspect it.
func (c *Client) run(ctx context.Context, args ...string) (*result, error) {
	return c.runIn(ctx, c.dir, args...)
}

func (c *Client) runIn(ctx context.Context, dir string, args ...string) (*result, error) {
	full := append([]string{"-C", dir}, args...)
	cmd := exec.CommandContext(ctx, "git", full...)
	cmd.Env = append(os.Environ(), c.env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.Debug().Strs("args", args).Str("dir", dir).Msg("Executing git")
	err := cmd.Run()

	res := &result{stdout: stdout.Bytes(), stderr: stderr.Bytes()}
	if err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			res.exitCode = exitErr.ExitCode()
		} else {
			res.exitCode = -1
		}
		return res, fmt.Errorf("git %s failed: %w\n%s", strings.Join(args, " "), err, res.output())
	}
	return res, nil
}
