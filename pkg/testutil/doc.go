// Package testutil provides fakes for unit testing gistsync components.
//
// Key components:
//   - FakeStore: in-memory types.Store over an afero filesystem, modelling
//     revisions as snapshots of the mirror files
//   - MockNotifier, MockConfirmer, MockHook, MockLinker: recording
//     collaborators with Func overrides
//   - Env: a memory-backed home and store layout with tracked file pairs
//
// Tests that need real git semantics use pkg/gitstore against a bare
// repository instead.
package testutil
