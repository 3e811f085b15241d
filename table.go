package scpi

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// CommonPrefix marks IEEE 488.2 common commands such as *RST and *IDN.
const CommonPrefix = '*'

// Kind classifies a recognized invocation.
type Kind uint8

const (
	// None means no invocation completed.
	None Kind = iota
	// Event is a bare command: no value and no query suffix.
	Event
	// Query is a command suffixed by '?'.
	Query
	// Set is a command followed by a value token.
	Set
)

var kindNames = [...]string{
	None:  "None",
	Event: "Event",
	Query: "Query",
	Set:   "Set",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}

// Handler is invoked synchronously by Parser.Feed once a command completes.
// The returned code becomes the result of that Feed call.
type Handler interface {
	ServeSCPI(p *Parser, kind Kind) Code
}

// HandlerFunc adapts an ordinary function to Handler.
type HandlerFunc func(p *Parser, kind Kind) Code

// ServeSCPI calls f(p, kind).
func (f HandlerFunc) ServeSCPI(p *Parser, kind Kind) Code {
	return f(p, kind)
}

// Command binds a fixed-width name to a handler.
//
// Names are matched against the full width of the command token; a name
// shorter than the width is treated as NUL padded. Names should be stored in
// upper case since the parser folds input to upper case.
type Command struct {
	Name    string
	Handler Handler
}

// IsCommon reports whether the command belongs to the common partition.
func (c Command) IsCommon() bool {
	return len(c.Name) > 0 && c.Name[0] == CommonPrefix
}

// Table is an immutable, two-segment command registry. The first Common()
// entries form the common partition and are only searched for tokens that
// start with '*'; the rest are only searched for all other tokens.
type Table struct {
	commands []Command
	common   int
}

// NewTable builds a table from cmds, moving '*' prefixed commands in front
// while keeping the relative order within each partition.
func NewTable(cmds ...Command) *Table {
	commands := slices.Clone(cmds)
	slices.SortStableFunc(commands, func(a, b Command) int {
		switch {
		case a.IsCommon() == b.IsCommon():
			return 0
		case a.IsCommon():
			return -1
		default:
			return 1
		}
	})

	common := slices.IndexFunc(commands, func(c Command) bool { return !c.IsCommon() })
	if common < 0 {
		common = len(commands)
	}

	return &Table{commands: commands, common: common}
}

// NewPartitionedTable uses cmds in the given order and treats the first
// common entries as the common partition, regardless of their names.
func NewPartitionedTable(cmds []Command, common int) (*Table, error) {
	if common < 0 || common > len(cmds) {
		return nil, fmt.Errorf("common count %d out of range [0, %d]", common, len(cmds))
	}
	return &Table{commands: slices.Clone(cmds), common: common}, nil
}

// Len returns the total number of commands.
func (t *Table) Len() int {
	return len(t.commands)
}

// Common returns the size of the common partition.
func (t *Table) Common() int {
	return t.common
}

// Commands returns a copy of the registered commands in search order.
func (t *Table) Commands() []Command {
	return slices.Clone(t.commands)
}

// Find resolves a fixed-width token. Every byte of token takes part in the
// comparison, so callers pass the full NUL padded buffer.
func (t *Table) Find(token []byte) (Command, bool) {
	lo, hi := t.common, len(t.commands)
	if len(token) > 0 && token[0] == CommonPrefix {
		lo, hi = 0, t.common
	}

	for i := lo; i < hi; i++ {
		if matchFixed(t.commands[i].Name, token) {
			return t.commands[i], true
		}
	}
	return Command{}, false
}

// Lookup resolves a command name as the parser would see it after folding
// and truncation to width.
func (t *Table) Lookup(name string, width int) (Command, bool) {
	tok := newToken(width, width)
	for i := 0; i < len(name); i++ {
		tok.push(upper(name[i]))
	}
	return t.Find(tok.fixed())
}

func matchFixed(name string, token []byte) bool {
	if len(name) > len(token) {
		return false
	}
	for i := range token {
		var c byte
		if i < len(name) {
			c = name[i]
		}
		if c != token[i] {
			return false
		}
	}
	return true
}

func (t *Table) longestName() int {
	n := 0
	for _, c := range t.commands {
		n = max(n, len(c.Name))
	}
	return n
}
