package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func TestNoOpCollector(t *testing.T) {
	collector := noOpCollector{}

	timer := collector.Start("test")
	timer.Child("child").End()
	timer.End()
	collector.Count("kind.Query", 3)

	var buf bytes.Buffer
	collector.Report(&buf, nil)
	assert.Zero(t, buf.Len())
}

func TestFromContext(t *testing.T) {
	_, ok := FromContext(context.Background()).(noOpCollector)
	assert.True(t, ok)

	collector := NewCollector()
	ctx := WithCollector(context.Background(), collector)
	got, ok := FromContext(ctx).(*TimingCollector)
	assert.True(t, ok)
	assert.True(t, got == collector)
}

func TestTimingCollectorTree(t *testing.T) {
	collector := NewCollector()

	root := collector.Start("feed")
	child := root.Child("stream a.scpi")
	grandchild := child.Child("dispatch")
	time.Sleep(2 * time.Millisecond)
	grandchild.End()
	child.End()
	root.Child("stream b.scpi").End()
	root.End()

	var buf bytes.Buffer
	collector.Report(&buf, nil)
	out := buf.String()

	assert.Contains(t, out, "feed: ")
	assert.Contains(t, out, "├─ stream a.scpi")
	assert.Contains(t, out, "│  └─ dispatch")
	assert.Contains(t, out, "└─ stream b.scpi")
}

func TestTimingCollectorNestsStartedTimers(t *testing.T) {
	collector := NewCollector()

	outer := collector.Start("outer")
	inner := collector.Start("inner")
	inner.End()
	collector.Start("sibling").End()
	outer.End()

	var buf bytes.Buffer
	collector.Report(&buf, nil)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

	assert.Equal(t, 3, len(lines))
	assert.True(t, strings.HasPrefix(lines[1], "├─ inner"))
	assert.True(t, strings.HasPrefix(lines[2], "└─ sibling"))
}

func TestCounters(t *testing.T) {
	collector := NewCollector()
	collector.Count("kind.Set", 2)
	collector.Count("code.2", 1)
	collector.Count("kind.Set", 1)

	assert.Equal(t, 3, collector.Counter("kind.Set"))
	assert.Equal(t, 0, collector.Counter("kind.Event"))

	var buf bytes.Buffer
	collector.Report(&buf, nil)
	assert.Equal(t, "code.2    1\nkind.Set  3\n", buf.String())
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		want     string
	}{
		{time.Millisecond, "1ms"},
		{999 * time.Millisecond, "999ms"},
		{time.Second, "1.00s"},
		{1500 * time.Millisecond, "1.50s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.duration))
	}
}
