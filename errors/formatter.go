// Package errors renders feed errors for different consumers: a text form
// with source context for the command line, and JSON for tooling.
//
// Error types stay in their own packages (stream, scpi); this package only
// handles presentation.
package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/robinvdvleuten/scpi"
	"github.com/robinvdvleuten/scpi/stream"
)

// Formatter formats errors for output.
type Formatter interface {
	Format(err error) string
	FormatAll(errs []error) string
}

type positioned interface {
	GetPosition() stream.Position
	Error() string
}

// TextFormatter formats errors as plain text. With source content it shows
// the lines around the offending byte and a caret under it.
type TextFormatter struct {
	sourceContent []byte
	contextLines  int
}

// TextFormatterOption configures a TextFormatter.
type TextFormatterOption func(*TextFormatter)

// WithSource sets the source content used for context.
func WithSource(source []byte) TextFormatterOption {
	return func(tf *TextFormatter) {
		tf.sourceContent = source
	}
}

// WithContextLines sets how many lines before the error line are shown.
func WithContextLines(n int) TextFormatterOption {
	return func(tf *TextFormatter) {
		tf.contextLines = n
	}
}

// NewTextFormatter creates a text formatter.
func NewTextFormatter(opts ...TextFormatterOption) *TextFormatter {
	tf := &TextFormatter{contextLines: 2}
	for _, opt := range opts {
		opt(tf)
	}
	return tf
}

// Format formats a single error.
func (tf *TextFormatter) Format(err error) string {
	if e, ok := err.(positioned); ok && tf.sourceContent != nil {
		return tf.formatWithSourceContext(e.GetPosition(), e.Error())
	}
	return err.Error()
}

// FormatAll formats errors separated by blank lines.
func (tf *TextFormatter) FormatAll(errs []error) string {
	var buf bytes.Buffer
	for i, err := range errs {
		buf.WriteString(tf.Format(err))
		if i < len(errs)-1 {
			buf.WriteString("\n\n")
		}
	}
	return buf.String()
}

func (tf *TextFormatter) formatWithSourceContext(pos stream.Position, message string) string {
	var buf bytes.Buffer

	buf.WriteString(message)
	buf.WriteString("\n\n")

	lines := strings.Split(string(tf.sourceContent), "\n")

	// pos.Line is 1-based, indexes are 0-based.
	startLine := max(pos.Line-1-tf.contextLines, 0)
	endLine := min(pos.Line-1, len(lines)-1)

	for i := startLine; i <= endLine; i++ {
		buf.WriteString("   ")
		buf.WriteString(visible(lines[i]))
		buf.WriteByte('\n')

		if i == pos.Line-1 && pos.Column > 0 {
			buf.WriteString("   ")
			buf.WriteString(strings.Repeat(" ", pos.Column-1))
			buf.WriteString("^\n")
		}
	}

	return buf.String()
}

// visible replaces bytes that would shift the caret column.
func visible(line string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\r', '\t', '\v', '\f', 0:
			return ' '
		}
		return r
	}, line)
}

// JSONFormatter formats errors as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// ErrorJSON is the JSON shape of an error.
type ErrorJSON struct {
	Type     string         `json:"type"`
	Message  string         `json:"message"`
	Code     *int           `json:"code,omitempty"`
	Command  string         `json:"command,omitempty"`
	Position *PositionJSON  `json:"position,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
}

// PositionJSON is the JSON shape of a stream position.
type PositionJSON struct {
	Name   string `json:"name,omitempty"`
	Offset int64  `json:"offset"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// Format formats a single error as a JSON object.
func (jf *JSONFormatter) Format(err error) string {
	data, _ := json.Marshal(jf.toJSON(err))
	return string(data)
}

// FormatAll formats errors as an indented JSON array.
func (jf *JSONFormatter) FormatAll(errs []error) string {
	data, _ := json.MarshalIndent(jf.FormatAllToSlice(errs), "", "  ")
	return string(data)
}

// FormatAllToSlice converts errors to their JSON shape.
func (jf *JSONFormatter) FormatAllToSlice(errs []error) []ErrorJSON {
	result := make([]ErrorJSON, 0, len(errs))
	for _, err := range errs {
		result = append(result, jf.toJSON(err))
	}
	return result
}

func (jf *JSONFormatter) toJSON(err error) ErrorJSON {
	errJSON := ErrorJSON{
		Type:    fmt.Sprintf("%T", err),
		Message: err.Error(),
	}

	if e, ok := err.(positioned); ok {
		pos := e.GetPosition()
		errJSON.Position = &PositionJSON{
			Name:   pos.Name,
			Offset: pos.Offset,
			Line:   pos.Line,
			Column: pos.Column,
		}
	}

	switch e := err.(type) {
	case *stream.FeedError:
		code := int(e.Code)
		errJSON.Code = &code
		errJSON.Command = e.Command
		errJSON.Details = map[string]any{
			"char":  string(rune(e.Char)),
			"start": e.Start.String(),
		}
	case *scpi.CodeError:
		code := int(e.Code)
		errJSON.Code = &code
	case *scpi.NumeralError:
		errJSON.Details = map[string]any{
			"input":  e.Input,
			"offset": e.Offset,
		}
	}

	return errJSON
}
