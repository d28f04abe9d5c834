package types

import "context"

// Stage selects a side of a conflicted index entry
type Stage int

const (
	// StageOurs is the local side of a conflict (index stage 2)
	StageOurs Stage = 2
	// StageTheirs is the incoming side of a conflict (index stage 3)
	StageTheirs Stage = 3
)

// FileStatus is one porcelain status entry of the store working tree
type FileStatus struct {
	Path     string
	Index    byte
	Worktree byte
}

// Conflicted reports an unmerged entry: either side marked U, or both
// sides added or deleted the path
func (s FileStatus) Conflicted() bool {
	if s.Index == 'U' || s.Worktree == 'U' {
		return true
	}
	return (s.Index == 'A' && s.Worktree == 'A') || (s.Index == 'D' && s.Worktree == 'D')
}

// MergeResult is the outcome of a speculative merge. Before holds each
// requested path at the current revision and After the merged content. A
// path missing on one side has no entry in that map.
type MergeResult struct {
	Before     map[string][]byte
	After      map[string][]byte
	Conflicted bool
	Strategy   string
}

// Store is the remote store client: a single remote-tracked directory.
// Implementations must leave the branch, index and working tree untouched
// when asked for a speculative merge.
type Store interface {
	// Dir returns the store's working directory
	Dir() string

	// CurrentRevision returns the revision checked out locally
	CurrentRevision(ctx context.Context) (Revision, error)

	// RemoteRevision returns the remote-tracking revision of the first branch
	// candidate that exists, or a zero revision when none does
	RemoteRevision(ctx context.Context, branches []string) (Revision, error)

	Fetch(ctx context.Context) error
	Pull(ctx context.Context, branches []string) error
	Push(ctx context.Context, branches []string) error

	// Commit stages paths and commits them. It reports false when there
	// was nothing to commit.
	Commit(ctx context.Context, message string, paths []string) (bool, error)

	// SpeculativeMerge computes the merge of rev into the current revision
	// for the given paths without touching the durable state
	SpeculativeMerge(ctx context.Context, rev Revision, paths []string) (*MergeResult, error)

	Status(ctx context.Context) ([]FileStatus, error)

	// StageContent reads one side of a conflicted path from the index
	StageContent(ctx context.Context, stage Stage, path string) ([]byte, error)

	// ResolveOurs resolves a conflicted path with the local side and stages
	// it. A path the local side deleted is removed.
	ResolveOurs(ctx context.Context, path string) error

	// Diff returns a unified diff between two revisions limited to paths
	Diff(ctx context.Context, from, to Revision, paths []string) (string, error)
}
