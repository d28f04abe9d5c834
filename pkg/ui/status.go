package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// File states in a status report
const (
	StateInSync         = "in-sync"
	StateWhitespaceOnly = "whitespace-only"
	StateChanged        = "changed"
	StateLocalMissing   = "local-missing"
	StateMirrorMissing  = "mirror-missing"
)

// FileStatus is one tracked pair in a status report
type FileStatus struct {
	Name   string `json:"name" yaml:"name"`
	Local  string `json:"local" yaml:"local"`
	Mirror string `json:"mirror" yaml:"mirror"`
	State  string `json:"state" yaml:"state"`
}

// StatusReport is the output of `gistsync status`
type StatusReport struct {
	StoreDir         string       `json:"store_dir" yaml:"store_dir"`
	Current          string       `json:"current" yaml:"current"`
	Remote           string       `json:"remote" yaml:"remote"`
	Watermark        string       `json:"watermark" yaml:"watermark"`
	WatermarkUpdated *time.Time   `json:"watermark_updated,omitempty" yaml:"watermark_updated,omitempty"`
	LocalChanges     bool         `json:"local_changes" yaml:"local_changes"`
	RemoteChanges    bool         `json:"remote_changes" yaml:"remote_changes"`
	RemoteReason     string       `json:"remote_reason" yaml:"remote_reason"`
	Files            []FileStatus `json:"files" yaml:"files"`
}

// RenderStatus writes the report in the given format
func RenderStatus(w io.Writer, report *StatusReport, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	case FormatTerminal:
		_, err := io.WriteString(w, renderStatusText(report, true))
		return err
	default:
		_, err := io.WriteString(w, renderStatusText(report, false))
		return err
	}
}

func renderStatusText(r *StatusReport, styled bool) string {
	paint := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", paint(TitleStyle, "Store"), paint(PathStyle, r.StoreDir))
	fmt.Fprintf(&b, "  current    %s\n", orNone(r.Current))
	fmt.Fprintf(&b, "  remote     %s\n", orNone(r.Remote))
	wm := orNone(r.Watermark)
	if r.WatermarkUpdated != nil {
		wm += paint(MutedStyle, " ("+r.WatermarkUpdated.Local().Format(time.RFC3339)+")")
	}
	fmt.Fprintf(&b, "  watermark  %s\n\n", wm)

	b.WriteString(paint(TitleStyle, "Files") + "\n")
	for _, f := range r.Files {
		indicator := "="
		switch f.State {
		case StateChanged, StateMirrorMissing:
			indicator = "!"
			if styled {
				indicator = ChangedIndicator
			}
		case StateLocalMissing:
			indicator = "-"
			if styled {
				indicator = MissingIndicator
			}
		default:
			if styled {
				indicator = SuccessIndicator
			}
		}
		fmt.Fprintf(&b, "  %s %-14s %s %s\n", indicator, f.Name, paint(MutedStyle, f.State), paint(PathStyle, f.Local))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Local changes:  %s\n", yesNo(r.LocalChanges, styled))
	remote := yesNo(r.RemoteChanges, styled)
	if r.RemoteReason != "" {
		remote += paint(MutedStyle, " ("+r.RemoteReason+")")
	}
	fmt.Fprintf(&b, "Remote changes: %s\n", remote)
	return b.String()
}

func orNone(rev string) string {
	if rev == "" {
		return "(none)"
	}
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

func yesNo(v bool, styled bool) string {
	switch {
	case v && styled:
		return WarningStyle.Render("yes")
	case v:
		return "yes"
	case styled:
		return SuccessStyle.Render("no")
	default:
		return "no"
	}
}
