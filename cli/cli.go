// Package cli implements the scpi command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/robinvdvleuten/scpi/output"
	"github.com/robinvdvleuten/scpi/telemetry"
)

var (
	successSymbol = "✓"
	errorSymbol   = "✗"
	infoSymbol    = "→"

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00D787", Dark: "#00D787"})
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5FAFFF", Dark: "#5FAFFF"})
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00D7D7", Dark: "#00D7D7"})
)

func printSuccess(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n",
		successStyle.Render(successSymbol),
		message,
	)
}

func printError(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n",
		errorStyle.Render(errorSymbol),
		errorStyle.Render(message),
	)
}

func printInfof(w io.Writer, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(w, "%s %s\n",
		infoStyle.Render(infoSymbol),
		fmt.Sprintf(format, args...),
	)
}

// promptYesNo asks a yes/no question. It answers no without asking when
// stdin is not a terminal.
func promptYesNo(question string) (bool, error) {
	if !isTerminal() {
		return false, nil
	}

	var confirm bool

	form := huh.NewConfirm().
		Title(question).
		WithButtonAlignment(lipgloss.Left).
		Value(&confirm)

	if err := form.Run(); err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}

	return confirm, nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// startTelemetry installs a timing collector when --telemetry is set. The
// returned function ends the root timer and prints the report; it is safe to
// call more than once.
func startTelemetry(ctx context.Context, kctx *kong.Context, globals *Globals, name string) (context.Context, func()) {
	if !globals.Telemetry {
		return ctx, func() {}
	}

	collector := telemetry.NewCollector()
	ctx = telemetry.WithCollector(ctx, collector)
	timer := collector.Start(name)

	reported := false
	return ctx, func() {
		if reported {
			return
		}
		reported = true

		timer.End()
		_, _ = fmt.Fprintln(kctx.Stderr)
		collector.Report(kctx.Stderr, output.NewStyles(kctx.Stderr))
	}
}

const stdinName = "<stdin>"

// FileOrStdin accepts either a file path or "-" for stdin.
type FileOrStdin struct {
	Filename string
	Contents []byte
}

// Decode implements kong.MapperValue.
func (f *FileOrStdin) Decode(ctx *kong.DecodeContext) error {
	var filename string
	if err := ctx.Scan.PopValueInto("filename", &filename); err != nil {
		return err
	}

	if filename == "-" || filename == "" {
		f.Filename = stdinName
		return nil
	}

	if _, err := os.Stat(filename); err != nil {
		return err
	}
	f.Filename = filename

	return nil
}

// IsStdin reports whether input comes from stdin.
func (f *FileOrStdin) IsStdin() bool {
	return f.Filename == "" || f.Filename == stdinName
}

// Load reads the whole input. Stdin is read once and cached.
func (f *FileOrStdin) Load(stdin io.Reader) ([]byte, error) {
	if f.IsStdin() {
		if f.Contents == nil {
			contents, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("failed to read from stdin: %w", err)
			}
			f.Filename = stdinName
			f.Contents = contents
		}
		return f.Contents, nil
	}

	contents, err := os.ReadFile(f.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Filename, err)
	}
	return contents, nil
}

// Name is the display name used in positions.
func (f *FileOrStdin) Name() string {
	if f.IsStdin() {
		return stdinName
	}
	return filepath.Base(f.Filename)
}

// AbsoluteFilename returns the absolute path, or "<stdin>".
func (f *FileOrStdin) AbsoluteFilename() string {
	if f.IsStdin() {
		return stdinName
	}
	absPath, err := filepath.Abs(f.Filename)
	if err != nil {
		return f.Filename
	}
	return absPath
}
