// Package watermark persists the last remote revision known to be
// reconciled with the local files, together with the time it was written.
// The time drives the cooldown that suppresses remote checks right after a
// sync.
package watermark

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arthur-debert/gistsync/pkg/errors"
	"github.com/arthur-debert/gistsync/pkg/logging"
	"github.com/arthur-debert/gistsync/pkg/types"
	"github.com/jonboulle/clockwork"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Watermark is the persisted synchronization state
type Watermark struct {
	Revision  types.Revision `toml:"revision"`
	UpdatedAt time.Time      `toml:"updated_at"`
}

// Store reads and writes the watermark file
type Store struct {
	fs     afero.Fs
	path   string
	clock  clockwork.Clock
	logger zerolog.Logger
}

// New creates a Store backed by the file at path
func New(fs afero.Fs, path string, clock clockwork.Clock) *Store {
	return &Store{
		fs:     fs,
		path:   path,
		clock:  clock,
		logger: logging.GetLogger("watermark"),
	}
}

// Path returns the watermark file location
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored watermark. The boolean is false when no watermark
// has been written yet.
func (s *Store) Load() (Watermark, bool, error) {
	content, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Watermark{}, false, nil
		}
		return Watermark{}, false, errors.Wrapf(err, errors.ErrWatermark, "failed to read watermark %s", s.path)
	}

	var wm Watermark
	if err := toml.Unmarshal(content, &wm); err != nil {
		// Older installs stored the bare revision; fall back to its mtime
		legacy, legacyErr := s.loadLegacy(content)
		if legacyErr != nil {
			return Watermark{}, false, legacyErr
		}
		wm = legacy
	}

	if wm.Revision.IsZero() {
		return Watermark{}, false, nil
	}
	return wm, true, nil
}

func (s *Store) loadLegacy(content []byte) (Watermark, error) {
	rev := strings.TrimSpace(string(content))
	if rev == "" || strings.ContainsAny(rev, " \t\n=") {
		return Watermark{}, errors.Newf(errors.ErrWatermark, "unreadable watermark %s", s.path)
	}

	info, err := s.fs.Stat(s.path)
	if err != nil {
		return Watermark{}, errors.Wrapf(err, errors.ErrWatermark, "failed to stat watermark %s", s.path)
	}

	s.logger.Debug().Str("path", s.path).Msg("Read plain-text watermark")
	return Watermark{Revision: types.Revision(rev), UpdatedAt: info.ModTime()}, nil
}

// Exists reports whether a watermark has been written
func (s *Store) Exists() (bool, error) {
	_, ok, err := s.Load()
	return ok, err
}

// Set overwrites the watermark with rev, stamped with the current time.
// The file is replaced atomically.
func (s *Store) Set(rev types.Revision) error {
	wm := Watermark{Revision: rev, UpdatedAt: s.clock.Now().UTC()}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(wm); err != nil {
		return errors.Wrap(err, errors.ErrWatermark, "failed to encode watermark")
	}

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create state directory %s", dir)
	}

	tmp, err := afero.TempFile(s.fs, dir, ".watermark-*")
	if err != nil {
		return errors.Wrap(err, errors.ErrWatermark, "failed to create temporary watermark")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return errors.Wrap(err, errors.ErrWatermark, "failed to write watermark")
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return errors.Wrap(err, errors.ErrWatermark, "failed to write watermark")
	}
	if err := s.fs.Rename(tmpName, s.path); err != nil {
		_ = s.fs.Remove(tmpName)
		return errors.Wrapf(err, errors.ErrWatermark, "failed to replace watermark %s", s.path)
	}

	s.logger.Info().Str("revision", rev.Short()).Msg("Watermark updated")
	return nil
}

// WithinCooldown reports whether the watermark was updated less than window ago
func (s *Store) WithinCooldown(window time.Duration) (bool, error) {
	if window <= 0 {
		return false, nil
	}
	wm, ok, err := s.Load()
	if err != nil || !ok {
		return false, err
	}
	return s.clock.Since(wm.UpdatedAt) < window, nil
}
