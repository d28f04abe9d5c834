package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/arthur-debert/gistsync/pkg/errors"
	"github.com/arthur-debert/gistsync/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// SymlinkFS is a filesystem able to create and inspect symlinks
type SymlinkFS interface {
	afero.Fs
	afero.Symlinker
}

// Linker creates symlinks with backup-then-replace semantics
type Linker struct {
	fs        SymlinkFS
	backupDir string
	now       func() time.Time
	logger    zerolog.Logger
}

// NewLinker creates a Linker that moves pre-existing regular files into backupDir
func NewLinker(fs SymlinkFS, backupDir string) *Linker {
	return &Linker{
		fs:        fs,
		backupDir: backupDir,
		now:       time.Now,
		logger:    logging.GetLogger("filesystem.linker"),
	}
}

// EnsureSymlink makes link point at target. An existing symlink is replaced
// when it points elsewhere; an existing regular file is moved into the
// backup directory first. Directories are never replaced.
func (l *Linker) EnsureSymlink(target, link string) error {
	info, lstatErr := l.lstat(link)
	switch {
	case lstatErr == nil && info.Mode()&os.ModeSymlink != 0:
		current, err := l.fs.ReadlinkIfPossible(link)
		if err == nil && current == target {
			l.logger.Debug().Str("link", link).Str("target", target).Msg("Symlink already in place")
			return nil
		}
		if err := l.fs.Remove(link); err != nil {
			return errors.Wrapf(err, errors.ErrSymlinkCreate, "failed to remove stale symlink %s", link)
		}

	case lstatErr == nil && info.IsDir():
		return errors.Newf(errors.ErrSymlinkCreate, "refusing to replace directory %s", link)

	case lstatErr == nil:
		backup, err := l.backup(link)
		if err != nil {
			return err
		}
		l.logger.Info().Str("path", link).Str("backup", backup).Msg("Backed up existing file before linking")

	case !os.IsNotExist(lstatErr):
		return errors.Wrapf(lstatErr, errors.ErrFileAccess, "failed to inspect %s", link)
	}

	if err := l.fs.MkdirAll(filepath.Dir(link), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create parent directory for %s", link)
	}
	if err := l.fs.SymlinkIfPossible(target, link); err != nil {
		return errors.Wrapf(err, errors.ErrSymlinkCreate, "failed to link %s -> %s", link, target)
	}

	l.logger.Info().Str("link", link).Str("target", target).Msg("Created symlink")
	return nil
}

func (l *Linker) lstat(path string) (os.FileInfo, error) {
	info, _, err := l.fs.LstatIfPossible(path)
	return info, err
}

// backup moves path into the backup directory under a timestamped name
func (l *Linker) backup(path string) (string, error) {
	if err := l.fs.MkdirAll(l.backupDir, 0755); err != nil {
		return "", errors.Wrapf(err, errors.ErrDirCreate, "failed to create backup directory %s", l.backupDir)
	}
	name := fmt.Sprintf("%s.%s", filepath.Base(path), l.now().Format("20060102-150405"))
	dest := filepath.Join(l.backupDir, name)
	if err := l.fs.Rename(path, dest); err != nil {
		return "", errors.Wrapf(err, errors.ErrFileWrite, "failed to back up %s", path)
	}
	return dest, nil
}
