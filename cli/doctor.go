package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/alecthomas/repr"
	"github.com/mattn/go-runewidth"

	"github.com/robinvdvleuten/scpi"
	"github.com/robinvdvleuten/scpi/instrument"
	"github.com/robinvdvleuten/scpi/output"
)

// DoctorCmd provides utilities for debugging command streams.
type DoctorCmd struct {
	Trace TraceCmd `cmd:"" help:"Show the parser state after every byte of a command stream."`
	Table TableCmd `cmd:"" help:"List the instrument command table in search order."`
}

// TraceCmd feeds a script one byte at a time and prints every transition.
type TraceCmd struct {
	File FileOrStdin `help:"SCPI command script (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
	Dump bool        `help:"Dump every step as a Go value."`
}

// traceStep is one row of a trace.
type traceStep struct {
	Offset  int
	Char    byte
	Nature  scpi.Nature
	From    scpi.State
	To      scpi.State
	Code    scpi.Code
	Call    scpi.Kind
	Command string
	Value   string
}

func (cmd *TraceCmd) Run(ctx *kong.Context, globals *Globals) error {
	cfg, err := globals.InstrumentConfig()
	if err != nil {
		return err
	}

	source, err := cmd.File.Load(os.Stdin)
	if err != nil {
		return err
	}

	var responses bytes.Buffer
	inst := instrument.New(cfg)
	p, err := scpi.New(inst.Table(&responses), cfg.ParserOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	styles := output.NewStyles(ctx.Stdout)
	if !cmd.Dump {
		_, _ = fmt.Fprintln(ctx.Stdout, styles.Dim(fmt.Sprintf("%-6s  %-6s  %-10s  %-38s  %-20s  %s",
			"OFFSET", "CHAR", "NATURE", "STATE", "CODE", "CALL")))
	}

	for i, c := range source {
		step := traceStep{Offset: i, Char: c, Nature: scpi.Classify(c), From: p.State()}
		step.Code = p.Feed(c)
		step.To = p.State()
		step.Call = p.LastCall()
		step.Command = p.Command()
		step.Value = p.Value()

		if cmd.Dump {
			_, _ = fmt.Fprintln(ctx.Stdout, repr.String(step, repr.Indent("  ")))
		} else {
			writeTraceStep(ctx.Stdout, styles, step)
		}

		if responses.Len() > 0 {
			for _, line := range strings.Split(strings.TrimRight(responses.String(), "\n"), "\n") {
				_, _ = fmt.Fprintf(ctx.Stdout, "%8s %s\n", styles.Dim("←"), styles.Number(line))
			}
			responses.Reset()
		}
	}

	return nil
}

func writeTraceStep(w io.Writer, styles *output.Styles, step traceStep) {
	char := strconv.QuoteRune(rune(step.Char))
	transition := fmt.Sprintf("%s → %s", step.From, step.To)
	if step.From == step.To {
		transition = step.To.String()
	}

	code := styles.Dim(fmt.Sprintf("%-20s", step.Code))
	if step.Code != scpi.CodeOK {
		code = styles.Error(fmt.Sprintf("%-20s", step.Code))
	}

	call := ""
	if step.Call != scpi.None {
		call = styles.Command(fmt.Sprintf("%s %s", step.Call, step.Command))
	}

	_, _ = fmt.Fprintf(w, "%-6d  %-6s  %-10s  %s  %s  %s\n",
		step.Offset,
		char,
		step.Nature,
		styles.State(runewidth.FillRight(transition, 38), step.To == scpi.StateError),
		code,
		call,
	)
}

// TableCmd lists the command table the parser searches.
type TableCmd struct {
	Lookup []string `help:"Resolve command names against the table." placeholder:"NAME"`
}

func (cmd *TableCmd) Run(ctx *kong.Context, globals *Globals) error {
	cfg, err := globals.InstrumentConfig()
	if err != nil {
		return err
	}

	table := instrument.New(cfg).Table(io.Discard)
	commands := table.Commands()

	width := runewidth.StringWidth("NAME")
	for _, c := range commands {
		width = max(width, runewidth.StringWidth(c.Name))
	}

	styles := output.NewStyles(ctx.Stdout)
	_, _ = fmt.Fprintf(ctx.Stdout, "%s\n", styles.Dim(fmt.Sprintf("%3s  %s  %s", "#", runewidth.FillRight("NAME", width), "PARTITION")))
	for i, c := range commands {
		partition := "device"
		if i < table.Common() {
			partition = "common"
		}
		_, _ = fmt.Fprintf(ctx.Stdout, "%3d  %s  %s\n", i, styles.Command(runewidth.FillRight(c.Name, width)), partition)
	}
	_, _ = fmt.Fprintf(ctx.Stdout, "\n%d commands, %d common, command length %d\n", table.Len(), table.Common(), cfg.CommandLength)

	missing := 0
	for _, name := range cmd.Lookup {
		if c, ok := table.Lookup(name, cfg.CommandLength); ok {
			printSuccess(ctx.Stdout, fmt.Sprintf("%s resolves to %s", name, c.Name))
			continue
		}
		printError(ctx.Stdout, fmt.Sprintf("%s: %s", name, scpi.CodeCommandNotFound))
		missing++
	}

	if missing > 0 {
		return NewCommandError(1)
	}
	return nil
}
