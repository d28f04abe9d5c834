package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/arthur-debert/gistsync/pkg/logging"
	"github.com/arthur-debert/gistsync/pkg/types"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

const notifyTimeout = 10 * time.Second

// Notifier shows desktop notifications, falling back to a terminal message
// when no desktop notifier is available or it fails
type Notifier struct {
	Desktop bool

	goos     string
	out      io.Writer
	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args ...string) error
	logger   zerolog.Logger
}

var _ types.Notifier = (*Notifier)(nil)

// NewNotifier creates a Notifier. With desktop false only the terminal is used.
func NewNotifier(desktop bool) *Notifier {
	return &Notifier{
		Desktop:  desktop,
		goos:     runtime.GOOS,
		out:      os.Stderr,
		lookPath: exec.LookPath,
		run: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
		logger: logging.GetLogger("ui.notify"),
	}
}

// Notify delivers the message. It never blocks for long and never fails.
func (n *Notifier) Notify(title, message string) {
	n.logger.Info().Str("title", title).Str("message", message).Msg("Notification")
	if n.Desktop && n.desktop(title, message) {
		return
	}
	pterm.Warning.WithWriter(n.out).Println(fmt.Sprintf("%s\n%s", title, message))
}

func (n *Notifier) desktop(title, message string) bool {
	name, args := n.command(title, message)
	if name == "" {
		return false
	}
	if _, err := n.lookPath(name); err != nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	if err := n.run(ctx, name, args...); err != nil {
		n.logger.Debug().Err(err).Str("notifier", name).Msg("Desktop notification failed")
		return false
	}
	return true
}

// command returns the platform notifier invocation, empty when unsupported
func (n *Notifier) command(title, message string) (string, []string) {
	switch n.goos {
	case "darwin":
		script := fmt.Sprintf("display notification %s with title %s", appleScriptString(message), appleScriptString(title))
		return "osascript", []string{"-e", script}
	case "linux", "freebsd", "openbsd":
		return "notify-send", []string{"--app-name=gistsync", title, message}
	default:
		return "", nil
	}
}

func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
