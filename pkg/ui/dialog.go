package ui

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// Dialog asks questions through a desktop dialog: osascript on macOS,
// zenity elsewhere. It is used when there is no terminal to prompt on.
type Dialog struct {
	goos     string
	lookPath func(string) (string, error)
	output   func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewDialog returns a Dialog for the running platform
func NewDialog() *Dialog {
	return &Dialog{
		goos:     runtime.GOOS,
		lookPath: exec.LookPath,
		output: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
	}
}

// Available reports whether a dialog program exists on this system
func (d *Dialog) Available() bool {
	name := d.program()
	if name == "" {
		return false
	}
	_, err := d.lookPath(name)
	return err == nil
}

func (d *Dialog) program() string {
	switch d.goos {
	case "darwin":
		return "osascript"
	case "linux", "freebsd", "openbsd":
		return "zenity"
	default:
		return ""
	}
}

// Ask shows question with an optional detail text. Only an explicit yes
// returns true. The dialog gives up when ctx is done.
func (d *Dialog) Ask(ctx context.Context, question, detail string) (bool, error) {
	text := question
	if detail != "" {
		text += "\n\n" + detail
	}

	switch d.program() {
	case "osascript":
		giveUp := 0
		if deadline, ok := ctx.Deadline(); ok {
			giveUp = int(time.Until(deadline).Seconds())
		}
		script := fmt.Sprintf(`display dialog %s with title "gistsync" buttons {"No", "Yes"} default button "Yes"`, appleScriptString(text))
		if giveUp > 0 {
			script += fmt.Sprintf(" giving up after %d", giveUp)
		}
		out, err := d.output(ctx, "osascript", "-e", script)
		if err != nil {
			// osascript exits non-zero when the dialog is cancelled
			return false, nil
		}
		return strings.Contains(string(out), "button returned:Yes") && !strings.Contains(string(out), "gave up:true"), nil
	case "zenity":
		args := []string{"--question", "--title=gistsync", "--no-markup", "--text=" + text}
		if deadline, ok := ctx.Deadline(); ok {
			if secs := int(time.Until(deadline).Seconds()); secs > 0 {
				args = append(args, fmt.Sprintf("--timeout=%d", secs))
			}
		}
		_, err := d.output(ctx, "zenity", args...)
		// exit 0 is yes; 1 is no, 5 is timeout
		return err == nil, nil
	default:
		return false, fmt.Errorf("no desktop dialog on %s", d.goos)
	}
}
