// Package output provides styling helpers for terminal output.
package output

import (
	"io"

	"github.com/muesli/termenv"
)

// Styles renders styled strings for one writer. Colors are dropped
// automatically when the writer is not a terminal.
type Styles struct {
	output *termenv.Output
}

// NewStyles creates a Styles instance for w.
func NewStyles(w io.Writer) *Styles {
	return &Styles{output: termenv.NewOutput(w)}
}

// Success is green and bold.
func (s *Styles) Success(text string) string {
	return s.output.String(text).Foreground(s.output.Color("2")).Bold().String()
}

// Error is red and bold.
func (s *Styles) Error(text string) string {
	return s.output.String(text).Foreground(s.output.Color("1")).Bold().String()
}

// FilePath is cyan.
func (s *Styles) FilePath(text string) string {
	return s.output.String(text).Foreground(s.output.Color("6")).String()
}

// Command renders a command name (yellow).
func (s *Styles) Command(text string) string {
	return s.output.String(text).Foreground(s.output.Color("3")).String()
}

// Number renders values and counters (magenta).
func (s *Styles) Number(text string) string {
	return s.output.String(text).Foreground(s.output.Color("5")).String()
}

// Keyword is bold.
func (s *Styles) Keyword(text string) string {
	return s.output.String(text).Bold().String()
}

// Dim is used for secondary information.
func (s *Styles) Dim(text string) string {
	return s.output.String(text).Faint().String()
}

// Warning is yellow and bold.
func (s *Styles) Warning(text string) string {
	return s.output.String(text).Foreground(s.output.Color("3")).Bold().String()
}

// Timing dims fast timings and turns slow ones red.
func (s *Styles) Timing(text string, isSlowOperation bool) string {
	if isSlowOperation {
		return s.output.String(text).Foreground(s.output.Color("1")).String()
	}
	return s.Dim(text)
}

// State renders a parser state, red for the error state.
func (s *Styles) State(text string, isError bool) string {
	if isError {
		return s.Error(text)
	}
	return s.output.String(text).Foreground(s.output.Color("4")).String()
}
