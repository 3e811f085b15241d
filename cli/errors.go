package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	scpierrors "github.com/robinvdvleuten/scpi/errors"
)

var (
	errCaretStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	errContextStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#808080", Dark: "#808080"})
)

// ErrorRenderer renders errors with terminal styling and source context.
type ErrorRenderer struct {
	formatter *scpierrors.TextFormatter
}

// NewErrorRenderer creates a renderer with source content for context.
func NewErrorRenderer(source []byte) *ErrorRenderer {
	return &ErrorRenderer{
		formatter: scpierrors.NewTextFormatter(scpierrors.WithSource(source)),
	}
}

// Render formats a single error. The message line is highlighted, source
// lines are dimmed and the caret line is colored.
func (r *ErrorRenderer) Render(err error) string {
	text := strings.TrimRight(r.formatter.Format(err), "\n")
	lines := strings.Split(text, "\n")

	var buf strings.Builder
	for i, line := range lines {
		switch {
		case i == 0:
			buf.WriteString(errorStyle.Render(line))
		case strings.TrimSpace(line) == "^":
			buf.WriteString(errCaretStyle.Render(line))
		case line == "":
		default:
			buf.WriteString(errContextStyle.Render(line))
		}
		if i < len(lines)-1 {
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

// RenderAll formats multiple errors, separating them with blank lines.
func (r *ErrorRenderer) RenderAll(errs []error) string {
	rendered := make([]string, 0, len(errs))
	for _, err := range errs {
		rendered = append(rendered, r.Render(err))
	}
	return strings.Join(rendered, "\n\n")
}
