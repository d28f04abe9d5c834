// Package lock serialises gistsync invocations that share a store. It uses
// an advisory file lock, which the kernel releases when the holder exits,
// so a crashed run never leaves a stale lock behind.
package lock

import (
	"os"
	"path/filepath"

	"github.com/arthur-debert/gistsync/pkg/errors"
	"github.com/gofrs/flock"
)

// Lock is an exclusive lock on a file
type Lock struct {
	flock *flock.Flock
}

// New prepares a lock on path without acquiring it
func New(path string) *Lock {
	return &Lock{flock: flock.New(path)}
}

// Path returns the lock file location
func (l *Lock) Path() string {
	return l.flock.Path()
}

// Acquire takes the lock without waiting. A lock held by another process
// is reported as LOCKED.
func (l *Lock) Acquire() error {
	dir := filepath.Dir(l.flock.Path())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create directory %s", dir)
	}

	locked, err := l.flock.TryLock()
	if err != nil {
		return errors.Wrapf(err, errors.ErrLocked, "failed to lock %s", l.flock.Path())
	}
	if !locked {
		return errors.Newf(errors.ErrLocked, "another gistsync instance holds %s", l.flock.Path())
	}
	return nil
}

// Release drops the lock if held. The file stays in place since another
// process may already have it open.
func (l *Lock) Release() error {
	if !l.flock.Locked() {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return errors.Wrapf(err, errors.ErrLocked, "failed to unlock %s", l.flock.Path())
	}
	return nil
}
