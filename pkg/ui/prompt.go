package ui

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/arthur-debert/gistsync/pkg/logging"
	"github.com/arthur-debert/gistsync/pkg/types"
	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog"
)

// DefaultPromptTimeout is how long a question waits before counting as no
const DefaultPromptTimeout = 2 * time.Minute

// Prompt asks yes/no questions on the terminal, or through a desktop
// dialog when there is no terminal. Anything but an explicit yes counts as
// no, including a timeout or a dismissed prompt.
type Prompt struct {
	// AutoYes answers every question with yes without asking
	AutoYes bool
	Timeout time.Duration
	// Dialog is used when stdin is not a terminal
	Dialog *Dialog

	in         *os.File
	out        io.Writer
	styled     bool
	isTerminal func(*os.File) bool
	ask        func(ctx context.Context, question string) (bool, error)
	logger     zerolog.Logger
}

var _ types.Confirmer = (*Prompt)(nil)

// NewPrompt creates a terminal prompt on stdin and stderr
func NewPrompt(autoYes bool, timeout time.Duration, desktop bool) *Prompt {
	if timeout <= 0 {
		timeout = DefaultPromptTimeout
	}
	p := &Prompt{
		AutoYes:    autoYes,
		Timeout:    timeout,
		in:         os.Stdin,
		out:        os.Stderr,
		styled:     DetectFormat(os.Stderr) == FormatTerminal,
		isTerminal: IsTerminal,
		logger:     logging.GetLogger("ui.prompt"),
	}
	if desktop {
		p.Dialog = NewDialog()
	}
	p.ask = p.askForm
	return p
}

// Confirm shows preview, then asks question
func (p *Prompt) Confirm(ctx context.Context, question, preview string) bool {
	if p.AutoYes {
		p.logger.Info().Str("question", question).Msg("Auto-confirmed")
		return true
	}
	if !p.isTerminal(p.in) {
		return p.askDialog(ctx, question, preview)
	}

	if preview != "" {
		_, _ = fmt.Fprint(p.out, RenderPreview(preview, p.styled))
	}

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	ok, err := p.ask(ctx, question)
	switch {
	case err == nil:
		p.logger.Debug().Str("question", question).Bool("answer", ok).Msg("Answered")
		return ok
	case stderrors.Is(err, context.DeadlineExceeded):
		p.logger.Info().Str("question", question).Dur("timeout", p.Timeout).Msg("Prompt timed out, declined")
	case stderrors.Is(err, huh.ErrUserAborted):
		p.logger.Info().Str("question", question).Msg("Prompt dismissed, declined")
	default:
		p.logger.Warn().Err(err).Str("question", question).Msg("Prompt failed, declined")
	}
	return false
}

func (p *Prompt) askForm(ctx context.Context, question string) (bool, error) {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(question).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).WithInput(p.in).WithOutput(p.out)

	if err := form.RunWithContext(ctx); err != nil {
		return false, err
	}
	return ok, nil
}

func (p *Prompt) askDialog(ctx context.Context, question, preview string) bool {
	if p.Dialog == nil || !p.Dialog.Available() {
		p.logger.Info().Str("question", question).Msg("No terminal or dialog to ask on, declined")
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	ok, err := p.Dialog.Ask(ctx, question, truncateLines(preview, dialogPreviewLines))
	if err != nil {
		p.logger.Warn().Err(err).Str("question", question).Msg("Dialog failed, declined")
		return false
	}
	p.logger.Debug().Str("question", question).Bool("answer", ok).Msg("Answered in dialog")
	return ok
}

const dialogPreviewLines = 20
