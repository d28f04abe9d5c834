package commands

import (
	"fmt"
	"time"

	"github.com/arthur-debert/gistsync/pkg/logging"
	"github.com/spf13/cobra"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var (
		skipFirst bool
		interval  time.Duration
		cooldown  time.Duration
	)

	cmd := &cobra.Command{
		Use:     "run",
		Short:   MsgRunShort,
		Long:    MsgRunLong,
		Example: MsgRunExample,
		GroupID: "sync",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("interval") {
				opts.override("sync.interval", interval.String())
			}
			if cmd.Flags().Changed("cooldown") {
				opts.override("sync.cooldown", cooldown.String())
			}
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			logger := logging.GetLogger("cmd.run")
			logger.Info().
				Str("store", a.cfg.Store.Dir).
				Dur("interval", a.cfg.Sync.Interval).
				Msg("Starting poll loop")
			return a.runner(skipFirst).Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&skipFirst, "skip-first", false, MsgFlagSkipFirst)
	cmd.Flags().DurationVar(&interval, "interval", 0, MsgFlagInterval)
	cmd.Flags().DurationVar(&cooldown, "cooldown", 0, MsgFlagCooldown)
	return cmd
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "check",
		Short:   MsgCheckShort,
		GroupID: "sync",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			cycle, err := a.runner(false).RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cycle.Summary())
			for _, e := range cycle.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %v\n", e)
			}
			if len(cycle.Errors) > 0 {
				return fmt.Errorf(MsgErrCycleFailed, len(cycle.Errors))
			}
			return nil
		},
	}
}

func newPushCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "push",
		Short:   MsgPushShort,
		GroupID: "sync",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			err = a.locked(func() error {
				return a.ctrl.Push(cmd.Context())
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), MsgPushed)
			return nil
		},
	}
}

func newPullCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "pull",
		Short:   MsgPullShort,
		GroupID: "sync",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			err = a.locked(func() error {
				if err := a.store.Fetch(cmd.Context()); err != nil {
					return err
				}
				return a.ctrl.Pull(cmd.Context())
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), MsgPulled)
			return nil
		},
	}
}

func newBootstrapCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "bootstrap",
		Short:   MsgBootstrapShort,
		GroupID: "setup",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			err = a.locked(func() error {
				return a.runner(false).Bootstrap(cmd.Context())
			})
			if err != nil {
				return err
			}
			mark, _, err := a.marks.Load()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), MsgBootstrapped, mark.Revision.Short())
			return nil
		},
	}
}
