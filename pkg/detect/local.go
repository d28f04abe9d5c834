package detect

import (
	"github.com/arthur-debert/gistsync/pkg/errors"
	"github.com/arthur-debert/gistsync/pkg/filesystem"
	"github.com/arthur-debert/gistsync/pkg/logging"
	"github.com/arthur-debert/gistsync/pkg/normalize"
	"github.com/arthur-debert/gistsync/pkg/types"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Change is the verdict for one tracked pair
type Change struct {
	File types.TrackedFile
	Kind normalize.Kind

	// LocalMissing pairs are skipped and never count as changes
	LocalMissing bool
	// MirrorMissing pairs with an existing local file are significant
	MirrorMissing bool
}

// Significant reports whether the pair should be pushed
func (c Change) Significant() bool {
	return !c.LocalMissing && c.Kind == normalize.Significant
}

// Local compares every local file with its mirror
type Local struct {
	fs     afero.Fs
	files  []types.TrackedFile
	logger zerolog.Logger
}

// NewLocal creates a detector over files in their configured order
func NewLocal(fs afero.Fs, files []types.TrackedFile) *Local {
	return &Local{
		fs:     fs,
		files:  files,
		logger: logging.GetLogger("detect.local"),
	}
}

// Changes returns one verdict per tracked pair
func (d *Local) Changes() ([]Change, error) {
	changes := make([]Change, 0, len(d.files))
	for _, f := range d.files {
		c := Change{File: f}

		local, ok, err := filesystem.ReadIfExists(d.fs, f.LocalPath)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", f.LocalPath)
		}
		if !ok {
			c.LocalMissing = true
			d.logger.Debug().Str("file", f.Name).Msg("Local file missing, skipped")
			changes = append(changes, c)
			continue
		}

		mirror, ok, err := filesystem.ReadIfExists(d.fs, f.MirrorPath)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", f.MirrorPath)
		}
		if !ok {
			c.MirrorMissing = true
			c.Kind = normalize.Significant
		} else {
			c.Kind = normalize.Classify(mirror, local)
		}

		switch c.Kind {
		case normalize.Significant:
			d.logger.Info().Str("file", f.Name).Bool("mirrorMissing", c.MirrorMissing).Msg("Significant local changes")
		case normalize.WhitespaceOnly:
			d.logger.Info().Str("file", f.Name).Msg("Whitespace-only local changes, ignored")
		default:
			d.logger.Debug().Str("file", f.Name).Msg("No local changes")
		}
		changes = append(changes, c)
	}
	return changes, nil
}

// HasChanges reports whether any pair differs significantly
func (d *Local) HasChanges() (bool, error) {
	changes, err := d.Changes()
	if err != nil {
		return false, err
	}
	for _, c := range changes {
		if c.Significant() {
			return true, nil
		}
	}
	return false, nil
}
