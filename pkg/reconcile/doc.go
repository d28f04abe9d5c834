// Package reconcile moves changes between the local files and the store.
//
// Push copies local files onto their mirrors, commits and pushes. Pull
// merges the remote into the store and copies mirrors back over the local
// files. After every pull attempt, conflicts on tracked files are resolved
// by keeping the local side, after backing up both sides. Local always wins
// at file granularity; no line-level merge is attempted.
//
// The watermark only moves after a successful push or pull.
package reconcile
