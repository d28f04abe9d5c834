package detect

import (
	"context"
	"time"

	"github.com/arthur-debert/gistsync/pkg/logging"
	"github.com/arthur-debert/gistsync/pkg/normalize"
	"github.com/arthur-debert/gistsync/pkg/types"
	"github.com/arthur-debert/gistsync/pkg/watermark"
	"github.com/rs/zerolog"
)

// DefaultCooldown suppresses remote checks right after a sync
const DefaultCooldown = 300 * time.Second

// Reason explains a remote verdict
type Reason string

const (
	ReasonSkipped        Reason = "skipped"
	ReasonCooldown       Reason = "cooldown"
	ReasonUpToDate       Reason = "up-to-date"
	ReasonAccounted      Reason = "watermark"
	ReasonWhitespaceOnly Reason = "whitespace-only"
	ReasonSignificant    Reason = "significant"
	ReasonFetchFailed    Reason = "fetch-failed"
	ReasonMergeFailed    Reason = "merge-failed"
	ReasonConflicted     Reason = "conflicted"
)

// RemoteVerdict is the full outcome of one remote check
type RemoteVerdict struct {
	Changed bool
	Reason  Reason
	Current types.Revision
	Remote  types.Revision
	// Files lists the mirrors that changed significantly
	Files []string
}

// Remote decides whether the remote store moved past what was last synced
type Remote struct {
	store    types.Store
	marks    *watermark.Store
	files    []types.TrackedFile
	branches []string
	cooldown time.Duration
	logger   zerolog.Logger
}

// RemoteOptions configures a Remote detector
type RemoteOptions struct {
	Branches []string
	Cooldown time.Duration
}

// NewRemote creates a remote detector
func NewRemote(store types.Store, marks *watermark.Store, files []types.TrackedFile, opts RemoteOptions) *Remote {
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	return &Remote{
		store:    store,
		marks:    marks,
		files:    files,
		branches: opts.Branches,
		cooldown: opts.Cooldown,
		logger:   logging.GetLogger("detect.remote"),
	}
}

// HasChanges reports whether the remote carries significant changes not yet
// reconciled. Failures to fetch or merge count as changes so a real remote
// edit is never silently dropped; they are logged, not returned. Only
// watermark read or write failures are returned.
func (d *Remote) HasChanges(ctx context.Context, skip bool) (bool, error) {
	v, err := d.Check(ctx, skip)
	return v.Changed, err
}

// Check is HasChanges with the reasoning attached
func (d *Remote) Check(ctx context.Context, skip bool) (RemoteVerdict, error) {
	if skip {
		d.logger.Debug().Msg("Remote check skipped")
		return RemoteVerdict{Reason: ReasonSkipped}, nil
	}

	cooling, err := d.marks.WithinCooldown(d.cooldown)
	if err != nil {
		return RemoteVerdict{}, err
	}
	if cooling {
		d.logger.Debug().Dur("cooldown", d.cooldown).Msg("Watermark updated recently, remote check suppressed")
		return RemoteVerdict{Reason: ReasonCooldown}, nil
	}

	if err := d.store.Fetch(ctx); err != nil {
		d.logger.Warn().Err(err).Msg("Fetch failed, assuming remote changes")
		return RemoteVerdict{Changed: true, Reason: ReasonFetchFailed}, nil
	}

	current, err := d.store.CurrentRevision(ctx)
	if err != nil {
		d.logger.Warn().Err(err).Msg("Cannot read current revision, assuming remote changes")
		return RemoteVerdict{Changed: true, Reason: ReasonMergeFailed}, nil
	}
	remote, err := d.store.RemoteRevision(ctx, d.branches)
	if err != nil {
		d.logger.Warn().Err(err).Msg("Cannot read remote revision, assuming remote changes")
		return RemoteVerdict{Changed: true, Reason: ReasonMergeFailed, Current: current}, nil
	}
	v := RemoteVerdict{Current: current, Remote: remote}

	if remote.IsZero() || remote == current {
		v.Reason = ReasonUpToDate
		return v, nil
	}

	mark, _, err := d.marks.Load()
	if err != nil {
		return v, err
	}
	if remote == mark.Revision {
		d.logger.Debug().Str("remote", remote.Short()).Msg("Remote revision already accounted for")
		v.Reason = ReasonAccounted
		return v, nil
	}

	names := types.Names(d.files)
	result, err := d.store.SpeculativeMerge(ctx, remote, names)
	if err != nil {
		d.logger.Warn().Err(err).Str("remote", remote.Short()).Msg("Speculative merge failed, assuming remote changes")
		v.Changed = true
		v.Reason = ReasonMergeFailed
		return v, nil
	}
	if result.Conflicted {
		d.logger.Info().Str("remote", remote.Short()).Msg("Remote changes conflict with local commits")
		v.Changed = true
		v.Reason = ReasonConflicted
	}

	for _, name := range names {
		before, after := result.Before[name], result.After[name]
		_, hadBefore := result.Before[name]
		_, hasAfter := result.After[name]
		kind := normalize.Classify(before, after)
		if hadBefore != hasAfter && kind != normalize.Significant {
			// a file appearing or disappearing is a change even when empty
			kind = normalize.Significant
		}
		switch kind {
		case normalize.Significant:
			d.logger.Info().Str("file", name).Str("remote", remote.Short()).Msg("Significant remote changes")
			v.Files = append(v.Files, name)
		case normalize.WhitespaceOnly:
			d.logger.Info().Str("file", name).Msg("Whitespace-only remote changes, ignored")
		}
	}

	if len(v.Files) > 0 {
		v.Changed = true
		if v.Reason == "" {
			v.Reason = ReasonSignificant
		}
		return v, nil
	}
	if v.Changed {
		return v, nil
	}

	// Nothing worth pulling: absorb the remote revision
	if err := d.marks.Set(remote); err != nil {
		return v, err
	}
	d.logger.Info().Str("remote", remote.Short()).Str("strategy", result.Strategy).
		Msg("Remote changes are whitespace only, watermark advanced")
	v.Reason = ReasonWhitespaceOnly
	return v, nil
}
