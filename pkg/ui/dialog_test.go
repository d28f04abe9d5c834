package ui

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeDialog(goos string, out string, err error) (*Dialog, *[]string) {
	var calls []string
	d := &Dialog{
		goos:     goos,
		lookPath: func(name string) (string, error) { return "/usr/bin/" + name, nil },
		output: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			calls = append(calls, name+" "+strings.Join(args, " "))
			return []byte(out), err
		},
	}
	return d, &calls
}

func TestDialog_Darwin(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	d, calls := fakeDialog("darwin", "button returned:Yes, gave up:false\n", nil)
	ok, err := d.Ask(ctx, "Push?", "+x")
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, *calls, 1)
	assert.Contains(t, (*calls)[0], `display dialog "Push?`)
	assert.Contains(t, (*calls)[0], "giving up after")

	d, _ = fakeDialog("darwin", "button returned:, gave up:true\n", nil)
	ok, _ = d.Ask(ctx, "Push?", "")
	assert.False(t, ok)

	d, _ = fakeDialog("darwin", "", errors.New("User canceled"))
	ok, err = d.Ask(ctx, "Push?", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDialog_Zenity(t *testing.T) {
	d, calls := fakeDialog("linux", "", nil)
	ok, err := d.Ask(context.Background(), "Pull?", "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "zenity --question --title=gistsync --no-markup --text=Pull?", (*calls)[0])

	d, _ = fakeDialog("linux", "", errors.New("exit status 1"))
	ok, _ = d.Ask(context.Background(), "Pull?", "")
	assert.False(t, ok)
}

func TestDialog_Unsupported(t *testing.T) {
	d, _ := fakeDialog("plan9", "", nil)
	assert.False(t, d.Available())
	_, err := d.Ask(context.Background(), "?", "")
	assert.Error(t, err)
}

func TestPrompt_FallsBackToDialog(t *testing.T) {
	p, _, asked := newTestPrompt(false, false, nil)
	p.Dialog, _ = fakeDialog("linux", "", nil)
	assert.True(t, p.Confirm(context.Background(), "Pull?", "+x"))
	assert.Zero(t, *asked)

	p.Dialog.lookPath = func(string) (string, error) { return "", os.ErrNotExist }
	assert.False(t, p.Confirm(context.Background(), "Pull?", ""))
}
