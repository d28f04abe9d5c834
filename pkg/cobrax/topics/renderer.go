package topics

import (
	"os"

	"github.com/charmbracelet/glamour"
)

// Renderer turns raw topic content into terminal output. format is the
// topic file extension, e.g. ".md".
type Renderer interface {
	Render(content string, format string) string
}

// PlainRenderer returns content unchanged
type PlainRenderer struct{}

func (r *PlainRenderer) Render(content string, format string) string {
	return content
}

// GlamourRenderer renders markdown topics with glamour. Other formats and
// rendering failures fall back to the raw content.
type GlamourRenderer struct {
	// Style is a glamour style name or path; empty picks one from the terminal
	Style string
	// Width wraps output at this many columns; 0 keeps glamour's default
	Width int
}

// NewGlamourRenderer creates a renderer that adapts to the terminal
func NewGlamourRenderer() *GlamourRenderer {
	return &GlamourRenderer{}
}

func (r *GlamourRenderer) options() []glamour.TermRendererOption {
	var opts []glamour.TermRendererOption
	switch {
	case os.Getenv("NO_COLOR") != "":
		opts = append(opts, glamour.WithStandardStyle("notty"))
	case r.Style != "":
		opts = append(opts, glamour.WithStylePath(r.Style))
	default:
		opts = append(opts, glamour.WithAutoStyle())
	}
	if r.Width > 0 {
		opts = append(opts, glamour.WithWordWrap(r.Width))
	}
	return opts
}

func (r *GlamourRenderer) Render(content string, format string) string {
	if format != ".md" {
		return content
	}
	tr, err := glamour.NewTermRenderer(r.options()...)
	if err != nil {
		return content
	}
	out, err := tr.Render(content)
	if err != nil {
		return content
	}
	return out
}
