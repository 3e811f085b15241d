package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fsnotify/fsnotify"
	"github.com/mattn/go-runewidth"

	"github.com/robinvdvleuten/scpi"
	scpierrors "github.com/robinvdvleuten/scpi/errors"
	"github.com/robinvdvleuten/scpi/instrument"
	"github.com/robinvdvleuten/scpi/stream"
)

// Editors often write a file in several steps.
const debounceDelay = 100 * time.Millisecond

type FeedCmd struct {
	File         FileOrStdin `help:"SCPI command script (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
	Watch        bool        `help:"Replay the script whenever the file changes." short:"w"`
	JSON         bool        `help:"Report errors as JSON."`
	ResetOnError bool        `help:"Skip to the next terminator after a syntax error instead of stopping."`
	Status       bool        `help:"Print the instrument registers after each run."`
}

func (cmd *FeedCmd) Run(ctx *kong.Context, globals *Globals) error {
	cfg, err := globals.InstrumentConfig()
	if err != nil {
		return err
	}
	inst := instrument.New(cfg)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runCtx, report := startTelemetry(runCtx, ctx, globals, fmt.Sprintf("feed %s", cmd.File.Name()))
	defer report()

	failed, err := cmd.replay(runCtx, ctx, inst)
	if err != nil {
		return err
	}

	if cmd.Watch && !cmd.File.IsStdin() {
		return cmd.watch(runCtx, ctx, inst)
	}

	if failed {
		report()
		return NewCommandError(1)
	}
	return nil
}

// replay feeds the whole script through a fresh parser. Instrument state
// carries over between replays, like a real device between sessions.
func (cmd *FeedCmd) replay(ctx context.Context, kctx *kong.Context, inst *instrument.Instrument) (bool, error) {
	source, err := cmd.File.Load(os.Stdin)
	if err != nil {
		return false, err
	}

	var errs []error
	opts := []stream.Option{
		stream.WithErrorHandler(func(err *stream.FeedError) {
			inst.PushError(err.Code)
			errs = append(errs, err)
		}),
	}
	if cmd.ResetOnError {
		opts = append(opts, stream.WithResetOnError())
	}

	runner, err := newRunner(inst, kctx.Stdout, opts...)
	if err != nil {
		return false, err
	}

	stats, err := runner.Run(ctx, cmd.File.Name(), bytes.NewReader(source))
	var feedErr *stream.FeedError
	if err != nil && !errors.As(err, &feedErr) {
		return false, err
	}

	switch state := runner.Parser().State(); state {
	case scpi.StateAwaitNextCommand, scpi.StateError:
	default:
		printInfof(kctx.Stderr, "Script ends inside a command (%s)", state)
	}

	if len(errs) > 0 {
		if cmd.JSON {
			_, _ = fmt.Fprintln(kctx.Stderr, scpierrors.NewJSONFormatter().FormatAll(errs))
		} else {
			_, _ = fmt.Fprintln(kctx.Stderr, NewErrorRenderer(source).RenderAll(errs))
			_, _ = fmt.Fprintln(kctx.Stderr)
		}
		printError(kctx.Stderr, fmt.Sprintf("%d error(s) in %d command(s)", len(errs), stats.Commands))
	} else {
		printSuccess(kctx.Stderr, fmt.Sprintf("%d command(s) executed", stats.Commands))
	}

	if cmd.Status {
		printStatus(kctx.Stderr, inst.Snapshot())
	}

	return len(errs) > 0, nil
}

func (cmd *FeedCmd) watch(ctx context.Context, kctx *kong.Context, inst *instrument.Instrument) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory since many editors replace the file on save.
	path := cmd.File.AbsoluteFilename()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	printInfof(kctx.Stderr, "Watching %s for changes", pathStyle.Render(path))

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			debounce = time.After(debounceDelay)

		case <-debounce:
			debounce = nil
			printInfof(kctx.Stderr, "Replaying %s", pathStyle.Render(cmd.File.Name()))
			if _, err := cmd.replay(ctx, kctx, inst); err != nil {
				printError(kctx.Stderr, err.Error())
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Warning: file watcher error: %v", err)
		}
	}
}

// newRunner binds a fresh parser to inst with responses written to w.
func newRunner(inst *instrument.Instrument, w io.Writer, opts ...stream.Option) (*stream.Runner, error) {
	p, err := scpi.New(inst.Table(w), inst.Config().ParserOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create parser: %w", err)
	}
	return stream.New(p, opts...), nil
}

func printStatus(w io.Writer, snap instrument.Snapshot) {
	rows := snap.Rows()

	width := 0
	for _, row := range rows {
		width = max(width, runewidth.StringWidth(row[0]))
	}

	_, _ = fmt.Fprintln(w)
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "  %s  %s\n", runewidth.FillRight(row[0], width), row[1])
	}
}
