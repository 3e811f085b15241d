// Package stream drives a scpi.Parser from an io.Reader.
//
// A Runner reads one byte at a time, tracks line and column positions, and
// reports every completed invocation as an Event and every non-zero code as
// a *FeedError. Whether the parser is reset after a syntax error is the
// Runner's policy; the parser itself never recovers on its own.
package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/robinvdvleuten/scpi"
	"github.com/robinvdvleuten/scpi/telemetry"
)

// Event describes one completed invocation.
type Event struct {
	Pos     Position
	Start   Position
	Kind    scpi.Kind
	Command string
	Value   string
	Code    scpi.Code
}

// Stats summarizes a run.
type Stats struct {
	Bytes    int64
	Commands int
	Errors   int
}

// Runner feeds a parser from readers. A Runner is not safe for concurrent
// use, just like the parser it drives.
type Runner struct {
	parser       *scpi.Parser
	onEvent      func(Event)
	onError      func(*FeedError)
	resetOnError bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithEventHandler is called after each completed invocation.
func WithEventHandler(fn func(Event)) Option {
	return func(r *Runner) {
		r.onEvent = fn
	}
}

// WithErrorHandler is called for each non-zero code.
func WithErrorHandler(fn func(*FeedError)) Option {
	return func(r *Runner) {
		r.onError = fn
	}
}

// WithResetOnError makes the runner skip input up to the next terminator
// after a syntax error and then reset the parser. Without it, Run stops and
// returns the syntax error.
func WithResetOnError() Option {
	return func(r *Runner) {
		r.resetOnError = true
	}
}

// New creates a Runner for p.
func New(p *scpi.Parser, opts ...Option) *Runner {
	r := &Runner{parser: p}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Parser returns the parser driven by r.
func (r *Runner) Parser() *scpi.Parser {
	return r.parser
}

// Run feeds src until EOF, a read error, cancellation of ctx, or an
// unrecovered syntax error. Reaching EOF in the middle of a command is not
// an error; the partial command stays in the parser.
func (r *Runner) Run(ctx context.Context, name string, src io.Reader) (Stats, error) {
	collector := telemetry.FromContext(ctx)
	timer := collector.Start(fmt.Sprintf("stream %s", name))
	defer timer.End()

	var (
		stats    Stats
		pos      = Position{Name: name, Line: 1, Column: 1}
		start    = pos
		skipping bool
	)

	in := bufio.NewReader(src)
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		c, err := in.ReadByte()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, fmt.Errorf("read %s: %w", name, err)
		}
		stats.Bytes++

		if skipping {
			if scpi.Classify(c) == scpi.Terminator {
				r.parser.Reset()
				skipping = false
				collector.Count("resets", 1)
			}
			pos.advance(c)
			continue
		}

		before := r.parser.State()
		code := r.parser.Feed(c)
		if before == scpi.StateAwaitNextCommand && r.parser.State() != scpi.StateAwaitNextCommand {
			start = pos
		}

		if kind := r.parser.LastCall(); kind != scpi.None {
			stats.Commands++
			collector.Count("kind."+kind.String(), 1)
			if r.onEvent != nil {
				ev := Event{
					Pos:     pos,
					Start:   start,
					Kind:    kind,
					Command: r.parser.Command(),
					Code:    code,
				}
				if kind == scpi.Set {
					ev.Value = r.parser.Value()
				}
				r.onEvent(ev)
			}
		}

		if code != scpi.CodeOK {
			stats.Errors++
			collector.Count(fmt.Sprintf("code.%d", int(code)), 1)

			feedErr := &FeedError{
				Pos:     pos,
				Start:   start,
				Code:    code,
				Command: r.parser.Command(),
				Char:    c,
			}
			if r.onError != nil {
				r.onError(feedErr)
			}

			if r.parser.State() == scpi.StateError {
				if !r.resetOnError {
					return stats, feedErr
				}
				if scpi.Classify(c) == scpi.Terminator {
					r.parser.Reset()
					collector.Count("resets", 1)
				} else {
					skipping = true
				}
			}
		}

		pos.advance(c)
	}
}
