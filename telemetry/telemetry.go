// Package telemetry collects timings and counters for parser sessions.
//
// Collectors travel through a context so that stream runners, servers and
// CLI commands can be instrumented without threading extra parameters:
//
//	collector := telemetry.NewCollector()
//	ctx := telemetry.WithCollector(context.Background(), collector)
//
//	timer := telemetry.FromContext(ctx).Start("stream commands.scpi")
//	defer timer.End()
//
//	telemetry.FromContext(ctx).Count("kind.Query", 1)
//
//	collector.Report(os.Stderr, output.NewStyles(os.Stderr))
package telemetry

import (
	"context"
	"io"

	"github.com/robinvdvleuten/scpi/output"
)

type contextKey struct{}

var collectorKey = contextKey{}

// Collector records timings and counters.
type Collector interface {
	// Start begins timing an operation. Nested timers are created with
	// Timer.Child.
	Start(name string) Timer

	// Count adds delta to the named counter.
	Count(name string, delta int)

	// Report writes the collected data. styles may be nil for plain output.
	Report(w io.Writer, styles *output.Styles)
}

// Timer tracks a single operation.
type Timer interface {
	End()
	Child(name string) Timer
}

// WithCollector stores collector in ctx.
func WithCollector(ctx context.Context, collector Collector) context.Context {
	return context.WithValue(ctx, collectorKey, collector)
}

// FromContext returns the collector stored in ctx, or a collector that
// discards everything.
func FromContext(ctx context.Context) Collector {
	if collector, ok := ctx.Value(collectorKey).(Collector); ok {
		return collector
	}
	return noOpCollector{}
}
