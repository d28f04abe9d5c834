package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

const previewWidth = 100

// maxPreviewLines keeps prompts readable for large diffs
const maxPreviewLines = 200

// RenderPreview renders a diff for display. Styled output goes through
// glamour as a markdown diff block; plain output is returned as-is.
func RenderPreview(diff string, styled bool) string {
	diff = truncateLines(strings.TrimRight(diff, "\n"), maxPreviewLines)
	if diff == "" {
		return ""
	}
	if !styled {
		return diff + "\n"
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(previewWidth),
	)
	if err != nil {
		return diff + "\n"
	}
	rendered, err := renderer.Render("```diff\n" + diff + "\n```\n")
	if err != nil {
		return diff + "\n"
	}
	return rendered
}

func truncateLines(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n") + fmt.Sprintf("\n... (%d more lines)", len(lines)-limit)
}
