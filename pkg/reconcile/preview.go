package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/arthur-debert/gistsync/pkg/filesystem"
	"github.com/arthur-debert/gistsync/pkg/types"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// LocalPreview returns a line diff from each mirror to its local file for
// the pairs that would be pushed
func (c *Controller) LocalPreview() (string, error) {
	var b strings.Builder
	for _, f := range c.files {
		local, ok, err := filesystem.ReadIfExists(c.fs, f.LocalPath)
		if err != nil {
			return "", err
		}
		if !ok {
			continue
		}
		mirror, _, err := filesystem.ReadIfExists(c.fs, f.MirrorPath)
		if err != nil {
			return "", err
		}
		b.WriteString(LineDiff(f.Name, string(mirror), string(local)))
	}
	return b.String(), nil
}

// RemotePreview returns the store diff between the current and the remote
// revision for the tracked files
func (c *Controller) RemotePreview(ctx context.Context) (string, error) {
	current, err := c.store.CurrentRevision(ctx)
	if err != nil {
		return "", err
	}
	remote, err := c.store.RemoteRevision(ctx, c.branches)
	if err != nil {
		return "", err
	}
	if remote.IsZero() || remote == current {
		return "", nil
	}
	return c.store.Diff(ctx, current, remote, types.Names(c.files))
}

// LineDiff renders a unified-style line diff of name from before to after.
// It returns "" when the contents are equal.
func LineDiff(name, before, after string) string {
	if before == after {
		return ""
	}
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	fmt.Fprintf(&out, "--- a/%s\n+++ b/%s\n", name, name)
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out.WriteString(prefix)
			out.WriteString(strings.TrimSuffix(line, "\n"))
			out.WriteString("\n")
		}
	}
	return out.String()
}
