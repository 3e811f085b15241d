package telemetry

import (
	"io"
	"sync"
	"time"

	"github.com/robinvdvleuten/scpi/output"
	"golang.org/x/exp/slices"
)

// TimingCollector builds a tree of timed operations and a set of counters.
// It is safe for concurrent use, so one collector can serve every connection
// of a server.
type TimingCollector struct {
	mu       sync.Mutex
	root     *timerNode
	current  *timerNode
	counters map[string]int
}

type timerNode struct {
	name     string
	start    time.Time
	end      time.Time
	children []*timerNode
	parent   *timerNode
}

// NewCollector creates an empty TimingCollector.
func NewCollector() *TimingCollector {
	return &TimingCollector{counters: make(map[string]int)}
}

// Start begins timing an operation. The first timer becomes the root; later
// ones nest under the innermost timer that has not ended.
func (c *TimingCollector) Start(name string) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	node := &timerNode{name: name, start: time.Now()}
	if c.root == nil {
		c.root = node
	} else {
		node.parent = c.current
		c.current.children = append(c.current.children, node)
	}
	c.current = node

	return &timingTimer{collector: c, node: node}
}

// Count adds delta to the named counter.
func (c *TimingCollector) Count(name string, delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counters[name] += delta
}

// Counter returns the current value of a counter.
func (c *TimingCollector) Counter(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.counters[name]
}

// Report writes the timing tree followed by the counters in name order.
func (c *TimingCollector) Report(w io.Writer, styles *output.Styles) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.root != nil {
		formatTimingTree(w, c.root, styles)
	}

	names := make([]string, 0, len(c.counters))
	for name := range c.counters {
		names = append(names, name)
	}
	slices.Sort(names)
	formatCounters(w, names, c.counters, styles)
}

type timingTimer struct {
	collector *TimingCollector
	node      *timerNode
}

func (t *timingTimer) End() {
	t.collector.mu.Lock()
	defer t.collector.mu.Unlock()

	t.node.end = time.Now()
	if t.collector.current == t.node && t.node.parent != nil {
		t.collector.current = t.node.parent
	}
}

func (t *timingTimer) Child(name string) Timer {
	t.collector.mu.Lock()
	defer t.collector.mu.Unlock()

	node := &timerNode{
		name:   name,
		start:  time.Now(),
		parent: t.node,
	}
	t.node.children = append(t.node.children, node)

	return &timingTimer{collector: t.collector, node: node}
}
