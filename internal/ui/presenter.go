package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/Dicklesworthstone/kcwrap/internal/classify"
	"github.com/Dicklesworthstone/kcwrap/internal/utils"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Presenter writes operator-facing messages. It writes to stderr in
// normal use so the wrapped tool's stdout can still be piped.
type Presenter struct {
	out      io.Writer
	renderer *lipgloss.Renderer
	theme    *Theme
	tty      bool
}

// Option configures a Presenter.
type Option func(*Presenter)

// WithTheme sets the palette.
func WithTheme(t *Theme) Option {
	return func(p *Presenter) {
		if t != nil {
			p.theme = t
		}
	}
}

// NewPresenter creates a presenter writing to out.
func NewPresenter(out io.Writer, opts ...Option) *Presenter {
	p := &Presenter{
		out:      out,
		renderer: lipgloss.NewRenderer(out),
		theme:    Mocha(),
		tty:      IsTerminal(out),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// CategoryStyle returns the banner style for cat.
func (p *Presenter) CategoryStyle(cat classify.Category) lipgloss.Style {
	style := p.renderer.NewStyle().Foreground(p.theme.CategoryColor(cat))
	if cat == classify.CategoryProd {
		style = style.Bold(true)
	}
	return style
}

// ShowContext prints the current context colored by its category.
// Without a terminal there is no color, so the category is spelled out.
func (p *Presenter) ShowContext(context string, cat classify.Category) error {
	line := "Current context: " + utils.SanitizeInput(context)
	if !p.tty {
		line += fmt.Sprintf(" [%s]", cat)
	}
	_, err := fmt.Fprintln(p.out, p.CategoryStyle(cat).Render(line))
	return err
}

// ShowAborted reports that the operator declined.
func (p *Presenter) ShowAborted() error {
	_, err := fmt.Fprintln(p.out, p.renderer.NewStyle().Foreground(p.theme.Muted).Render("Command aborted"))
	return err
}
