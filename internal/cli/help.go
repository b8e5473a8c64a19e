package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Dicklesworthstone/kcwrap/internal/config"
	"github.com/Dicklesworthstone/kcwrap/internal/dispatch"
	"github.com/Dicklesworthstone/kcwrap/internal/session"
	"github.com/Dicklesworthstone/kcwrap/internal/ui"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// usageStyles renders the usage card for one writer.
type usageStyles struct {
	title   lipgloss.Style
	section lipgloss.Style
	command lipgloss.Style
	muted   lipgloss.Style
	prod    lipgloss.Style
	test    lipgloss.Style
	dev     lipgloss.Style
}

func newUsageStyles(w io.Writer, th *ui.Theme) usageStyles {
	if th == nil {
		th = ui.Mocha()
	}
	r := lipgloss.NewRenderer(w)
	return usageStyles{
		title:   r.NewStyle().Bold(true).Foreground(th.Accent),
		section: r.NewStyle().Bold(true).Foreground(th.Unknown).MarginTop(1),
		command: r.NewStyle().Foreground(th.Dev),
		muted:   r.NewStyle().Foreground(th.Muted),
		prod:    r.NewStyle().Bold(true).Foreground(th.Prod),
		test:    r.NewStyle().Foreground(th.Test),
		dev:     r.NewStyle().Foreground(th.Dev),
	}
}

// printUsage explains how to invoke kcwrap and how to set the name lists.
func printUsage(w io.Writer, tools []string, th *ui.Theme) {
	if len(tools) == 0 {
		tools = dispatch.DefaultTools
	}
	s := newUsageStyles(w, th)
	width := clampWidth(detectWidth())

	lines := []string{
		s.title.Render("kcwrap: confirm the Kubernetes context before running cluster tools"),
		"",
		"Usage: " + s.command.Render("kcwrap <tool> [args...]"),
		"Tools: " + strings.Join(tools, ", "),
		renderSection(s, "Categorize contexts by name fragment", []string{
			s.prod.Render(fmt.Sprintf("  export %s_PROD1=prod", config.EnvPrefix)) + s.muted.Render("     red, bold"),
			s.test.Render(fmt.Sprintf("  export %s_TEST1=staging", config.EnvPrefix)) + s.muted.Render("  yellow"),
			s.dev.Render(fmt.Sprintf("  export %s_DEV1=dev", config.EnvPrefix)) + s.muted.Render("       green"),
			s.muted.Render(fmt.Sprintf("  Numbering runs 1..%d and stops at the first unset variable.", config.MaxNamesPerCategory)),
		}),
		renderSection(s, "Wrap your tools", []string{
			bullet(s, "alias kubectl='kcwrap kubectl'", "one alias per tool"),
			bullet(s, fmt.Sprintf("kcwrap kubectl %s get pods", dispatch.DefaultBypassToken), "skip the check once"),
			bullet(s, `eval "$(kcwrap session token)"`, "sets "+session.DefaultTokenEnv+" for subshells"),
		}),
		renderSection(s, "More", []string{
			bullet(s, "kcwrap status", "what the next command would do"),
			bullet(s, "kcwrap config", "effective configuration"),
			bullet(s, "kcwrap --help", "all commands"),
		}),
	}

	fmt.Fprintln(w, lipgloss.NewStyle().MaxWidth(width).Render(strings.Join(lines, "\n")))
}

func renderSection(s usageStyles, title string, lines []string) string {
	return lipgloss.JoinVertical(lipgloss.Left, s.section.Render(title), strings.Join(lines, "\n"))
}

func bullet(s usageStyles, command, desc string) string {
	return s.command.Render("  "+command) + s.muted.Render("  "+desc)
}

func clampWidth(w int) int {
	if w < 72 {
		return 72
	}
	if w > 100 {
		return 100
	}
	return w
}

func detectWidth() int {
	if w, _, err := term.GetSize(int(os.Stderr.Fd())); err == nil && w > 0 {
		return w
	}
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if v, err := strconv.Atoi(cols); err == nil && v > 0 {
			return v
		}
	}
	return 80
}
