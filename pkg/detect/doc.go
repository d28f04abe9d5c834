// Package detect decides, once per poll cycle, whether the local files or
// the remote store have changed in a way worth synchronizing.
//
// Both detectors compare contents through pkg/normalize, so edits that only
// touch whitespace are never reported. Neither detector mutates the local
// files or the store; the only write is the remote detector advancing the
// watermark past a whitespace-only remote change.
package detect
