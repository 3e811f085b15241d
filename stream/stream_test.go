package stream

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/scpi"
	"github.com/robinvdvleuten/scpi/telemetry"
)

func newParser(t *testing.T) *scpi.Parser {
	t.Helper()

	ok := scpi.HandlerFunc(func(*scpi.Parser, scpi.Kind) scpi.Code { return scpi.CodeOK })
	readOnly := scpi.HandlerFunc(func(_ *scpi.Parser, kind scpi.Kind) scpi.Code {
		if kind != scpi.Query {
			return scpi.CodeInvalidUse
		}
		return scpi.CodeOK
	})

	p, err := scpi.New(scpi.NewTable(
		scpi.Command{Name: "*RST", Handler: ok},
		scpi.Command{Name: "FREQ", Handler: ok},
		scpi.Command{Name: "MEAS", Handler: readOnly},
	))
	assert.NoError(t, err)
	return p
}

type recorded struct {
	events []Event
	errs   []*FeedError
}

func (r *recorded) options() []Option {
	return []Option{
		WithEventHandler(func(ev Event) { r.events = append(r.events, ev) }),
		WithErrorHandler(func(err *FeedError) { r.errs = append(r.errs, err) }),
	}
}

func TestRunEvents(t *testing.T) {
	rec := &recorded{}
	r := New(newParser(t), rec.options()...)

	stats, err := r.Run(context.Background(), "cmds.scpi", strings.NewReader("*RST\n  FREQ 100;FREQ?\n"))
	assert.NoError(t, err)
	assert.Equal(t, Stats{Bytes: 22, Commands: 3}, stats)

	assert.Equal(t, 3, len(rec.events))
	assert.Equal(t, scpi.Event, rec.events[0].Kind)
	assert.Equal(t, "*RST", rec.events[0].Command)

	set := rec.events[1]
	assert.Equal(t, scpi.Set, set.Kind)
	assert.Equal(t, "FREQ", set.Command)
	assert.Equal(t, "100", set.Value)
	assert.Equal(t, Position{Name: "cmds.scpi", Offset: 7, Line: 2, Column: 3}, set.Start)
	assert.Equal(t, Position{Name: "cmds.scpi", Offset: 15, Line: 2, Column: 11}, set.Pos)

	assert.Equal(t, scpi.Query, rec.events[2].Kind)
	assert.Equal(t, "", rec.events[2].Value)
}

func TestRunReportsHandlerCodes(t *testing.T) {
	rec := &recorded{}
	r := New(newParser(t), rec.options()...)

	stats, err := r.Run(context.Background(), "", strings.NewReader("MEAS 1\nAMPL?\nMEAS?\n"))
	assert.NoError(t, err)
	assert.Equal(t, 3, stats.Commands)
	assert.Equal(t, 2, stats.Errors)

	assert.Equal(t, 2, len(rec.errs))
	assert.IsError(t, rec.errs[0], scpi.ErrInvalidUse)
	assert.IsError(t, rec.errs[1], scpi.ErrCommandNotFound)
	assert.Equal(t, "2:5: AMPL: command not found", rec.errs[1].Error())
	assert.Equal(t, scpi.CodeInvalidUse, rec.events[0].Code)
}

func TestRunStopsOnSyntaxError(t *testing.T) {
	rec := &recorded{}
	p := newParser(t)
	r := New(p, rec.options()...)

	_, err := r.Run(context.Background(), "in", strings.NewReader("FREQ? 1\nFREQ?\n"))

	var feedErr *FeedError
	assert.True(t, errors.As(err, &feedErr))
	assert.True(t, feedErr.IsSyntax())
	assert.Equal(t, Position{Name: "in", Offset: 6, Line: 1, Column: 7}, feedErr.GetPosition())
	assert.Equal(t, byte('1'), feedErr.Char)
	assert.Equal(t, 1, len(rec.events))
	assert.Equal(t, scpi.StateError, p.State())
}

func TestRunResetOnError(t *testing.T) {
	rec := &recorded{}
	p := newParser(t)
	r := New(p, append(rec.options(), WithResetOnError())...)

	collector := telemetry.NewCollector()
	ctx := telemetry.WithCollector(context.Background(), collector)

	stats, err := r.Run(ctx, "in", strings.NewReader("FREQ? 1 2 3\n?\nFREQ 5\n"))
	assert.NoError(t, err)
	assert.Equal(t, 2, stats.Errors)
	assert.Equal(t, 2, len(rec.errs))
	assert.Equal(t, "in:2:1: syntax error at '?'", rec.errs[1].Error())

	assert.Equal(t, 2, len(rec.events))
	assert.Equal(t, "5", rec.events[1].Value)
	assert.Equal(t, scpi.StateAwaitNextCommand, p.State())

	assert.Equal(t, 2, collector.Counter("resets"))
	assert.Equal(t, 2, collector.Counter("code.1"))
	assert.Equal(t, 1, collector.Counter("kind.Query"))
	assert.Equal(t, 1, collector.Counter("kind.Set"))
}

func TestRunPartialCommandSurvivesEOF(t *testing.T) {
	rec := &recorded{}
	p := newParser(t)
	r := New(p, rec.options()...)

	_, err := r.Run(context.Background(), "a", strings.NewReader("FREQ 10"))
	assert.NoError(t, err)
	assert.Equal(t, 0, len(rec.events))

	_, err = r.Run(context.Background(), "b", strings.NewReader("0\n"))
	assert.NoError(t, err)
	assert.Equal(t, 1, len(rec.events))
	assert.Equal(t, "100", rec.events[0].Value)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(newParser(t)).Run(ctx, "", strings.NewReader("*RST\n"))
	assert.IsError(t, err, context.Canceled)
}

func TestRunReadError(t *testing.T) {
	boom := errors.New("boom")
	_, err := New(newParser(t)).Run(context.Background(), "tty", iotest.ErrReader(boom))
	assert.IsError(t, err, boom)
	assert.Contains(t, err.Error(), "read tty")
}
