// Package gitstore implements the remote store client on top of a git
// working copy (typically a cloned gist).
//
// Network and index operations (fetch, pull, push, commit, conflict
// resolution, merge computation) go through the git command line, run with
// `git -C <dir>` and a non-interactive environment. Reads of refs, commits
// and trees go through go-git so they do not depend on porcelain output.
//
// # Speculative merges
//
// SpeculativeMerge answers "what would the tracked files look like if the
// remote revision were merged now" without changing the branch, the index
// or the working tree. The preferred strategy is `git merge-tree
// --write-tree` (git 2.38+), which only writes objects. Older gits fall back
// to a detached worktree in a temporary directory that is always removed.
package gitstore
