package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/scpi"
)

// NumCmd exposes the numeral helpers used by command handlers.
type NumCmd struct {
	Parse  NumParseCmd  `cmd:"" help:"Parse numerals as signed 16-bit integers."`
	Bool   NumBoolCmd   `cmd:"" help:"Parse numerals as booleans."`
	Format NumFormatCmd `cmd:"" help:"Format signed 16-bit integers in decimal."`
}

type NumParseCmd struct {
	Values []string `arg:"" help:"Numerals such as 42, #1A, Q17 or B101. Put negative numerals after '--'."`
}

func (cmd *NumParseCmd) Run(ctx *kong.Context) error {
	return eachNumeral(ctx, cmd.Values, func(value string) (string, error) {
		v, err := scpi.ParseInt16(value)
		if err != nil {
			return "", err
		}
		return scpi.FormatInt16(v), nil
	})
}

type NumBoolCmd struct {
	Values []string `arg:"" help:"Numerals; zero is false and anything else true."`
}

func (cmd *NumBoolCmd) Run(ctx *kong.Context) error {
	return eachNumeral(ctx, cmd.Values, func(value string) (string, error) {
		b, err := scpi.ParseBool(value)
		if err != nil {
			return "", err
		}
		if b {
			return "1", nil
		}
		return "0", nil
	})
}

type NumFormatCmd struct {
	Values []int16 `arg:"" help:"Integers between -32768 and 32767. Put negative values after '--'."`
}

func (cmd *NumFormatCmd) Run(ctx *kong.Context) error {
	var buf []byte
	for _, v := range cmd.Values {
		buf = scpi.AppendInt16(buf[:0], v)
		buf = append(buf, '\n')
		if _, err := ctx.Stdout.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// eachNumeral prints "input<TAB>result" per value and renders failures with
// a caret under the offending byte.
func eachNumeral(ctx *kong.Context, values []string, convert func(string) (string, error)) error {
	failed := 0
	for _, value := range values {
		result, err := convert(value)
		if err != nil {
			renderNumeralError(ctx.Stderr, err)
			failed++
			continue
		}
		_, _ = fmt.Fprintf(ctx.Stdout, "%s\t%s\n", value, result)
	}

	if failed > 0 {
		return NewCommandError(1)
	}
	return nil
}

func renderNumeralError(w io.Writer, err error) {
	var numErr *scpi.NumeralError
	if !errors.As(err, &numErr) {
		printError(w, err.Error())
		return
	}

	printError(w, numErr.Error())
	_, _ = fmt.Fprintf(w, "  %s\n", errContextStyle.Render(visibleNumeral(numErr.Input)))
	_, _ = fmt.Fprintf(w, "  %s%s\n", strings.Repeat(" ", numErr.Offset), errCaretStyle.Render("^"))
}

// visibleNumeral keeps the input one column per byte.
func visibleNumeral(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c < ' ' || c > '~' {
			b[i] = '.'
		}
	}
	return string(b)
}
