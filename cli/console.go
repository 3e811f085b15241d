package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/scpi/instrument"
	"github.com/robinvdvleuten/scpi/stream"
)

type ConsoleCmd struct {
	Status bool `help:"Print the instrument registers on exit."`
}

func (cmd *ConsoleCmd) Run(ctx *kong.Context, globals *Globals) error {
	cfg, err := globals.InstrumentConfig()
	if err != nil {
		return err
	}
	inst := instrument.New(cfg)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runCtx, report := startTelemetry(runCtx, ctx, globals, "console")
	defer report()

	if isTerminal() {
		printInfof(ctx.Stderr, "Connected to %s. End with Ctrl-D.", inst.Identity())
	}

	err = cmd.session(runCtx, ctx, inst, bufio.NewReader(os.Stdin))
	if cmd.Status {
		printStatus(ctx.Stderr, inst.Snapshot())
	}
	return err
}

// session runs commands from in until EOF. The reader is shared with the
// runner so that a declined line can be discarded after a reset.
func (cmd *ConsoleCmd) session(ctx context.Context, kctx *kong.Context, inst *instrument.Instrument, in *bufio.Reader) error {
	runner, err := newRunner(inst, kctx.Stdout, stream.WithErrorHandler(func(err *stream.FeedError) {
		inst.PushError(err.Code)
		if !err.IsSyntax() {
			printError(kctx.Stderr, err.Error())
		}
	}))
	if err != nil {
		return err
	}

	for {
		_, err := runner.Run(ctx, "console", in)

		var feedErr *stream.FeedError
		if !errors.As(err, &feedErr) {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		printError(kctx.Stderr, feedErr.Error())
		reset, err := promptYesNo("Syntax error. Reset the parser and discard the rest of the line?")
		if err != nil {
			return err
		}
		if !reset {
			return NewCommandError(1)
		}

		runner.Parser().Reset()
		if _, err := in.ReadString('\n'); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
