package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/gistsync/pkg/autostart"
	"github.com/arthur-debert/gistsync/pkg/config"
	"github.com/arthur-debert/gistsync/pkg/errors"
	"github.com/arthur-debert/gistsync/pkg/filesystem"
	"github.com/arthur-debert/gistsync/pkg/logging"
	"github.com/arthur-debert/gistsync/pkg/paths"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// setupFS is where autostart and genconfig write; tests swap it
var setupFS = filesystem.NewOS

func newAutostartCmd(opts *rootOptions) *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:     "autostart",
		Short:   MsgAutostartShort,
		Long:    MsgAutostartLong,
		GroupID: "setup",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf(MsgErrExecutable, err)
			}
			home, err := os.UserHomeDir()
			if err != nil {
				return errors.Wrap(err, errors.ErrFileAccess, "failed to locate the home directory")
			}

			svcArgs := []string{"run"}
			if opts.configPath != "" {
				abs, err := filepath.Abs(opts.configPath)
				if err == nil {
					svcArgs = append(svcArgs, "--config", abs)
				}
			}
			if opts.autoYes {
				svcArgs = append(svcArgs, "--yes")
			}

			unit, err := autostart.Render(runtime.GOOS, home, xdg.ConfigHome, autostart.Service{
				Executable: exe,
				Args:       svcArgs,
				LogPath:    logging.LogFilePath(),
				Env:        serviceEnv(),
			})
			if err != nil {
				return err
			}

			if !write {
				fmt.Fprint(cmd.OutOrStdout(), unit.Content)
				return nil
			}
			if err := autostart.Write(setupFS(), unit); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), MsgUnitWritten, unit.Path, unit.Activate)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, MsgFlagWrite)
	return cmd
}

// serviceEnv carries the directory overrides into the service
func serviceEnv() map[string]string {
	env := map[string]string{}
	for _, k := range []string{paths.EnvConfigDir, paths.EnvStateDir, paths.EnvDataDir} {
		if v := os.Getenv(k); v != "" {
			env[k] = v
		}
	}
	if v := os.Getenv("SHELL"); v != "" {
		env["SHELL"] = v
	}
	return env
}

func newGenConfigCmd(opts *rootOptions) *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:     "genconfig",
		Short:   MsgGenConfigShort,
		Long:    MsgGenConfigLong,
		GroupID: "setup",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			content := config.GenerateConfigContent()
			if !write {
				fmt.Fprint(cmd.OutOrStdout(), content)
				return nil
			}

			target := opts.configPath
			if target == "" {
				target = paths.New().ConfigFile()
			}
			fs := setupFS()
			exists, err := filesystem.Exists(fs, target)
			if err != nil {
				return errors.Wrapf(err, errors.ErrFileAccess, "failed to access %s", target)
			}
			if exists {
				return errors.Newf(errors.ErrInvalidInput, MsgConfigExists, target)
			}
			if err := fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return errors.Wrapf(err, errors.ErrDirCreate, "failed to create %s", filepath.Dir(target))
			}
			if err := afero.WriteFile(fs, target, []byte(content), 0644); err != nil {
				return errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", target)
			}
			fmt.Fprintf(cmd.OutOrStdout(), MsgConfigWritten, target)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, MsgFlagWrite)
	return cmd
}
