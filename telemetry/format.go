package telemetry

import (
	"fmt"
	"io"
	"time"

	"github.com/robinvdvleuten/scpi/output"
)

// slowOperation marks timings that are highlighted in reports.
const slowOperation = 100 * time.Millisecond

// formatTimingTree writes the timer tree:
//
//	feed commands.scpi: 12ms
//	├─ stream commands.scpi: 11ms
//	└─ replay commands.scpi: 1ms
func formatTimingTree(w io.Writer, root *timerNode, styles *output.Styles) {
	name := root.name
	if styles != nil {
		name = styles.Keyword(name)
	}
	_, _ = fmt.Fprintf(w, "%s: %s\n", name, formatDuration(root.duration()))

	for i, child := range root.children {
		formatNode(w, child, "", i == len(root.children)-1, styles)
	}
}

func formatNode(w io.Writer, node *timerNode, prefix string, isLast bool, styles *output.Styles) {
	branch, extension := "├─ ", "│  "
	if isLast {
		branch, extension = "└─ ", "   "
	}

	d := node.duration()
	timing := formatDuration(d)
	tree := prefix + branch
	if styles != nil {
		tree = styles.Dim(tree)
		timing = styles.Timing(timing, d >= slowOperation)
	}
	_, _ = fmt.Fprintf(w, "%s%s: %s\n", tree, node.name, timing)

	for i, child := range node.children {
		formatNode(w, child, prefix+extension, i == len(node.children)-1, styles)
	}
}

func formatCounters(w io.Writer, names []string, counters map[string]int, styles *output.Styles) {
	if len(names) == 0 {
		return
	}

	width := 0
	for _, name := range names {
		width = max(width, len(name))
	}

	for _, name := range names {
		value := fmt.Sprintf("%d", counters[name])
		if styles != nil {
			value = styles.Number(value)
		}
		_, _ = fmt.Fprintf(w, "%-*s  %s\n", width, name, value)
	}
}

// duration of a timer that never ended runs until now.
func (n *timerNode) duration() time.Duration {
	if n.end.IsZero() {
		return time.Since(n.start)
	}
	return n.end.Sub(n.start)
}

// formatDuration shows milliseconds below one second and seconds above.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.0fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.2fs", float64(d)/float64(time.Second))
}
