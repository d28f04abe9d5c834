// Package hooks holds the post-pull hooks run after remote changes have
// been copied over the local files.
package hooks

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/arthur-debert/gistsync/pkg/logging"
	"github.com/arthur-debert/gistsync/pkg/types"
	"github.com/rs/zerolog"
)

// DefaultReloadTimeout bounds the reload shell
const DefaultReloadTimeout = 30 * time.Second

// ShellReload re-sources the managed shell's primary file when the user's
// login shell is the managed one
type ShellReload struct {
	// Shell is the managed shell name, e.g. "zsh"
	Shell string
	// Primary is the tracked file name to source, e.g. "zshrc"
	Primary string
	Timeout time.Duration

	getenv func(string) string
	run    func(ctx context.Context, name string, args ...string) ([]byte, error)
	logger zerolog.Logger
}

var _ types.PostPullHook = (*ShellReload)(nil)

// NewShellReload creates the hook for shell and its primary tracked file
func NewShellReload(shell, primary string) *ShellReload {
	return &ShellReload{
		Shell:   shell,
		Primary: primary,
		Timeout: DefaultReloadTimeout,
		getenv:  os.Getenv,
		run:     runCommand,
		logger:  logging.GetLogger("hooks.shell"),
	}
}

func (h *ShellReload) Name() string {
	return "shell-reload"
}

// AfterPull sources the primary file in the user's shell. It does nothing
// when $SHELL is a different shell or the primary file was not refreshed.
func (h *ShellReload) AfterPull(ctx context.Context, files []types.TrackedFile) error {
	shellPath := h.getenv("SHELL")
	if shellPath == "" || filepath.Base(shellPath) != h.Shell {
		h.logger.Debug().Str("shell", shellPath).Str("managed", h.Shell).Msg("Active shell not managed, skipping reload")
		return nil
	}

	var primary *types.TrackedFile
	for i := range files {
		if files[i].Name == h.Primary {
			primary = &files[i]
			break
		}
	}
	if primary == nil {
		return nil
	}

	timeout := h.Timeout
	if timeout <= 0 {
		timeout = DefaultReloadTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	script := ". " + shellQuote(primary.LocalPath)
	if out, err := h.run(ctx, shellPath, "-c", script); err != nil {
		return fmt.Errorf("reloading %s failed: %w: %s", primary.LocalPath, err, strings.TrimSpace(string(out)))
	}
	h.logger.Info().Str("file", primary.LocalPath).Msg("Shell configuration reloaded")
	return nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// shellQuote wraps s in single quotes for POSIX-like shells
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
