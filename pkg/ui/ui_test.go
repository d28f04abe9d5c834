package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/arthur-debert/gistsync/pkg/logging"
	"github.com/charmbracelet/huh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatAuto, false},
		{"term", FormatTerminal, false},
		{"plain", FormatText, false},
		{"JSON", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"xml", FormatAuto, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.in != "" {
				assert.NotEqual(t, "unknown", got.String())
			}
		})
	}
}

func TestDetectFormat_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, FormatText, DetectFormat(os.Stdout))
}

func newTestPrompt(terminal bool, answer bool, err error) (*Prompt, *bytes.Buffer, *int) {
	out := &bytes.Buffer{}
	asked := 0
	p := &Prompt{
		Timeout:    time.Second,
		out:        out,
		isTerminal: func(*os.File) bool { return terminal },
		logger:     logging.GetLogger("test"),
	}
	p.ask = func(ctx context.Context, question string) (bool, error) {
		asked++
		return answer, err
	}
	return p, out, &asked
}

func TestPrompt_Confirm(t *testing.T) {
	ctx := context.Background()

	t.Run("yes", func(t *testing.T) {
		p, out, asked := newTestPrompt(true, true, nil)
		assert.True(t, p.Confirm(ctx, "Push?", "-a\n+b\n"))
		assert.Equal(t, 1, *asked)
		assert.Contains(t, out.String(), "+b")
	})

	t.Run("no", func(t *testing.T) {
		p, _, _ := newTestPrompt(true, false, nil)
		assert.False(t, p.Confirm(ctx, "Push?", ""))
	})

	t.Run("no terminal declines without asking", func(t *testing.T) {
		p, _, asked := newTestPrompt(false, true, nil)
		assert.False(t, p.Confirm(ctx, "Push?", ""))
		assert.Zero(t, *asked)
	})

	t.Run("auto yes", func(t *testing.T) {
		p, _, asked := newTestPrompt(false, false, nil)
		p.AutoYes = true
		assert.True(t, p.Confirm(ctx, "Push?", ""))
		assert.Zero(t, *asked)
	})

	for name, err := range map[string]error{
		"timeout": context.DeadlineExceeded,
		"aborted": huh.ErrUserAborted,
		"broken":  errors.New("tty gone"),
	} {
		t.Run(name+" declines", func(t *testing.T) {
			p, _, _ := newTestPrompt(true, true, err)
			assert.False(t, p.Confirm(ctx, "Pull?", ""))
		})
	}

	t.Run("bounded by timeout", func(t *testing.T) {
		p, _, _ := newTestPrompt(true, true, nil)
		p.Timeout = 10 * time.Millisecond
		p.ask = func(ctx context.Context, question string) (bool, error) {
			<-ctx.Done()
			return false, ctx.Err()
		}
		assert.False(t, p.Confirm(ctx, "Pull?", ""))
	})
}

func TestNotifier(t *testing.T) {
	newNotifier := func(goos string, available bool, runErr error) (*Notifier, *bytes.Buffer, *[]string) {
		out := &bytes.Buffer{}
		var ran []string
		n := NewNotifier(true)
		n.goos = goos
		n.out = out
		n.lookPath = func(name string) (string, error) {
			if !available {
				return "", errors.New("not found")
			}
			return "/usr/bin/" + name, nil
		}
		n.run = func(ctx context.Context, name string, args ...string) error {
			ran = append(ran, name+" "+strings.Join(args, " "))
			return runErr
		}
		return n, out, &ran
	}

	t.Run("linux desktop", func(t *testing.T) {
		n, out, ran := newNotifier("linux", true, nil)
		n.Notify("gistsync", "conflict in zshrc")
		require.Len(t, *ran, 1)
		assert.Equal(t, "notify-send --app-name=gistsync gistsync conflict in zshrc", (*ran)[0])
		assert.Empty(t, out.String())
	})

	t.Run("darwin desktop", func(t *testing.T) {
		n, _, ran := newNotifier("darwin", true, nil)
		n.Notify("gist\"sync", "hi")
		require.Len(t, *ran, 1)
		assert.Equal(t, `osascript -e display notification "hi" with title "gist\"sync"`, (*ran)[0])
	})

	t.Run("falls back to terminal", func(t *testing.T) {
		n, out, _ := newNotifier("linux", false, nil)
		n.Notify("gistsync", "conflict in zshrc")
		assert.Contains(t, out.String(), "conflict in zshrc")
	})

	t.Run("desktop failure falls back", func(t *testing.T) {
		n, out, _ := newNotifier("linux", true, errors.New("no dbus"))
		n.Notify("gistsync", "conflict")
		assert.Contains(t, out.String(), "conflict")
	})

	t.Run("desktop disabled", func(t *testing.T) {
		n, out, ran := newNotifier("linux", true, nil)
		n.Desktop = false
		n.Notify("gistsync", "conflict")
		assert.Empty(t, *ran)
		assert.Contains(t, out.String(), "conflict")
	})
}

func TestRenderPreview(t *testing.T) {
	assert.Empty(t, RenderPreview("", false))
	assert.Equal(t, "-a\n+b\n", RenderPreview("-a\n+b\n", false))

	long := strings.Repeat("+x\n", maxPreviewLines+5)
	got := RenderPreview(long, false)
	assert.Contains(t, got, "(5 more lines)")
}

func sampleReport() *StatusReport {
	updated := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &StatusReport{
		StoreDir:         "/home/u/.gistsync/gist",
		Current:          "0123456789abcdef0123",
		Remote:           "fedcba9876543210fedc",
		Watermark:        "0123456789abcdef0123",
		WatermarkUpdated: &updated,
		LocalChanges:     true,
		RemoteReason:     "cooldown",
		Files: []FileStatus{
			{Name: "zshrc", Local: "/home/u/.zshrc", Mirror: "/home/u/.gistsync/gist/zshrc", State: StateChanged},
			{Name: "bashrc", Local: "/home/u/.bashrc", Mirror: "/home/u/.gistsync/gist/bashrc", State: StateLocalMissing},
		},
	}
}

func TestRenderStatus(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderStatus(&buf, sampleReport(), FormatJSON))
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, true, decoded["local_changes"])
		assert.Len(t, decoded["files"], 2)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderStatus(&buf, sampleReport(), FormatYAML))
		var decoded map[string]any
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "cooldown", decoded["remote_reason"])
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderStatus(&buf, sampleReport(), FormatText))
		out := buf.String()
		assert.Contains(t, out, "current    0123456789ab")
		assert.Contains(t, out, "! zshrc")
		assert.Contains(t, out, "- bashrc")
		assert.Contains(t, out, "Local changes:  yes")
		assert.Contains(t, out, "Remote changes: no (cooldown)")
	})
}
