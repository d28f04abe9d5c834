package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/arthur-debert/gistsync/pkg/detect"
	"github.com/arthur-debert/gistsync/pkg/normalize"
	"github.com/arthur-debert/gistsync/pkg/ui"
	"github.com/spf13/cobra"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "status",
		Short:   MsgStatusShort,
		Long:    MsgStatusLong,
		Example: MsgStatusExample,
		GroupID: "sync",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := ui.ParseFormat(output)
			if err != nil {
				return fmt.Errorf(MsgErrFormat, err)
			}
			if format == ui.FormatAuto {
				format = ui.FormatText
				if f, ok := cmd.OutOrStdout().(*os.File); ok {
					format = ui.DetectFormat(f)
				}
			}

			a, err := newApp(opts)
			if err != nil {
				return err
			}
			report, err := a.statusReport(cmd.Context())
			if err != nil {
				return err
			}
			return ui.RenderStatus(cmd.OutOrStdout(), report, format)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "auto", MsgFlagOutput)
	return cmd
}

// statusReport gathers the state of the store and every tracked pair. It
// fetches but never commits, pulls or moves the watermark.
func (a *app) statusReport(ctx context.Context) (*ui.StatusReport, error) {
	report := &ui.StatusReport{StoreDir: a.store.Dir()}

	mark, ok, err := a.marks.Load()
	if err != nil {
		return nil, err
	}
	if ok {
		report.Watermark = mark.Revision.String()
		updated := mark.UpdatedAt
		report.WatermarkUpdated = &updated
	}

	changes, err := a.local.Changes()
	if err != nil {
		return nil, err
	}
	for _, c := range changes {
		report.Files = append(report.Files, ui.FileStatus{
			Name:   c.File.Name,
			Local:  c.File.LocalPath,
			Mirror: c.File.MirrorPath,
			State:  fileState(c),
		})
		if c.Significant() {
			report.LocalChanges = true
		}
	}

	verdict, err := a.remote.Check(ctx, false)
	if err != nil {
		return nil, err
	}
	report.RemoteChanges = verdict.Changed
	report.RemoteReason = string(verdict.Reason)
	report.Current = verdict.Current.String()
	report.Remote = verdict.Remote.String()

	// cooldown verdicts carry no revisions
	if report.Current == "" {
		if rev, err := a.store.CurrentRevision(ctx); err == nil {
			report.Current = rev.String()
		}
	}
	if report.Remote == "" {
		if rev, err := a.store.RemoteRevision(ctx, a.cfg.Store.Branches); err == nil {
			report.Remote = rev.String()
		}
	}
	return report, nil
}

func fileState(c detect.Change) string {
	switch {
	case c.LocalMissing:
		return ui.StateLocalMissing
	case c.MirrorMissing:
		return ui.StateMirrorMissing
	case c.Kind == normalize.WhitespaceOnly:
		return ui.StateWhitespaceOnly
	case c.Kind == normalize.Significant:
		return ui.StateChanged
	default:
		return ui.StateInSync
	}
}
