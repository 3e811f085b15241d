// Package scpi implements an incremental, byte-at-a-time parser for a small
// subset of the SCPI instrument control protocol.
//
// A Parser is fed one byte at a time. It accumulates a command name and an
// optional value into fixed-capacity buffers and, once an invocation is
// complete, resolves the name in a Table and calls the registered Handler
// inline. Nothing is buffered beyond the two tokens, which keeps the memory
// footprint constant.
//
// Framing:
//
//	*RST\n       common command, Event
//	FREQ?\n      Query
//	FREQ 100\n   Set with value "100"
//	:SYST:FREQ;  colons discard the token in progress, FREQ is matched
//
// Commands end at NUL, '\n', '\r' or ';'. Names are folded to upper case and
// truncated to the command length (4 by default).
package scpi

import (
	"fmt"
)

const (
	// DefaultCommandLength is the command token capacity.
	DefaultCommandLength = 4
	// DefaultValueLength is the value token capacity, terminator included.
	DefaultValueLength = 16
)

// State is a parser state.
type State uint8

const (
	// StateError is sticky until Reset.
	StateError State = iota
	// StateAwaitTerminator follows a completed command that did not end on a
	// terminator; anything but whitespace before the next terminator is a
	// syntax error.
	StateAwaitTerminator
	// StateAwaitNextCommand is the idle state between commands.
	StateAwaitNextCommand
	// StateReadingCommand accumulates the command name.
	StateReadingCommand
	// StateAwaitValue skips whitespace between a name and its value.
	StateAwaitValue
	// StateReadingValue accumulates the value.
	StateReadingValue
)

var stateNames = [...]string{
	StateError:            "Error",
	StateAwaitTerminator:  "AwaitTerminator",
	StateAwaitNextCommand: "AwaitNextCommand",
	StateReadingCommand:   "ReadingCommand",
	StateAwaitValue:       "AwaitValue",
	StateReadingValue:     "ReadingValue",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Option configures a Parser.
type Option func(*config)

type config struct {
	commandLength int
	valueLength   int
}

// WithCommandLength sets the command token capacity. Longer names are
// truncated for matching.
func WithCommandLength(n int) Option {
	return func(c *config) {
		c.commandLength = n
	}
}

// WithValueLength sets the value token capacity. One slot is reserved for
// the terminator, so at most n-1 value bytes are kept.
func WithValueLength(n int) Option {
	return func(c *config) {
		c.valueLength = n
	}
}

// Parser is the streaming state machine. One Parser serves one input stream
// and must not be fed concurrently.
type Parser struct {
	table *Table
	state State

	command token
	value   token

	err  Code
	last Kind
}

// New creates a parser bound to table and resets it.
func New(table *Table, opts ...Option) (*Parser, error) {
	if table == nil {
		return nil, fmt.Errorf("command table is required")
	}

	cfg := config{
		commandLength: DefaultCommandLength,
		valueLength:   DefaultValueLength,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.commandLength < 1 {
		return nil, fmt.Errorf("command length must be positive, got %d", cfg.commandLength)
	}
	if cfg.valueLength < 2 {
		return nil, fmt.Errorf("value length must be at least 2, got %d", cfg.valueLength)
	}
	if n := table.longestName(); n > cfg.commandLength {
		return nil, fmt.Errorf("command name of %d characters exceeds command length %d", n, cfg.commandLength)
	}

	p := &Parser{
		table:   table,
		command: newToken(cfg.commandLength, cfg.commandLength),
		value:   newToken(cfg.valueLength, cfg.valueLength-1),
	}
	p.Reset()

	return p, nil
}

// Reset returns the parser to StateAwaitNextCommand and clears both tokens.
func (p *Parser) Reset() {
	p.state = StateAwaitNextCommand
	p.command.reset()
	p.value.reset()
	p.err = CodeOK
	p.last = None
}

// Feed consumes one byte. It returns CodeOK while a command is still being
// read, the handler's code when a command completes and resolves,
// CodeCommandNotFound when it does not, and CodeSyntaxError on malformed
// framing. After a syntax error every call returns the stored code until
// Reset.
func (p *Parser) Feed(c byte) Code {
	p.last = None
	nature := Classify(c)
	call := None

	// A byte is evaluated by at most two states in sequence: a name ending
	// flows into AwaitValue, and a first value byte flows from AwaitValue
	// into ReadingValue.
	for again := true; again; {
		again = false

		switch p.state {
		case StateError:
			return p.err

		case StateAwaitTerminator:
			switch nature {
			case Normal:
				return p.fail(CodeSyntaxError)
			case Terminator:
				p.state = StateAwaitNextCommand
			}

		case StateAwaitNextCommand:
			if c == ':' || nature != Normal {
				break
			}
			p.state = StateReadingCommand
			p.command.reset()
			again = true

		case StateReadingCommand:
			switch {
			case c == '?':
				call = Query
			case c == ':':
				// No subsystem tree: the colon abandons the name read so far.
				p.state = StateAwaitNextCommand
			case nature != Normal:
				p.state = StateAwaitValue
				again = true
			default:
				p.command.push(upper(c))
			}

		case StateAwaitValue:
			switch nature {
			case Terminator:
				call = Event
			case Whitespace:
			default:
				p.state = StateReadingValue
				p.value.reset()
				again = true
			}

		case StateReadingValue:
			if nature != Normal {
				p.value.terminate()
				call = Set
				break
			}
			p.value.push(c)

		default:
			return p.fail(CodeSyntaxError)
		}
	}

	if call == None {
		return CodeOK
	}

	if p.command.len() == 0 {
		return p.fail(CodeSyntaxError)
	}

	if nature == Terminator {
		p.state = StateAwaitNextCommand
	} else {
		p.state = StateAwaitTerminator
	}
	p.last = call

	cmd, ok := p.table.Find(p.command.fixed())
	if !ok {
		return CodeCommandNotFound
	}
	return cmd.Handler.ServeSCPI(p, call)
}

// Write feeds every byte of b. It stops at the first non-zero code and
// returns it as a *CodeError together with the number of bytes consumed.
func (p *Parser) Write(b []byte) (int, error) {
	for i, c := range b {
		if code := p.Feed(c); code != CodeOK {
			return i + 1, code.Err()
		}
	}
	return len(b), nil
}

func (p *Parser) fail(code Code) Code {
	p.state = StateError
	p.err = code
	return code
}

// State returns the current state.
func (p *Parser) State() State {
	return p.state
}

// Err returns the stored error code. It is only meaningful in StateError.
func (p *Parser) Err() Code {
	return p.err
}

// Command returns the command name in progress or last completed, folded to
// upper case and truncated to the command length.
func (p *Parser) Command() string {
	return p.command.String()
}

// Value returns the value text in progress or last completed.
func (p *Parser) Value() string {
	return p.value.String()
}

// LastCall returns the kind of invocation completed by the most recent Feed,
// or None. It is set even when the command was not found.
func (p *Parser) LastCall() Kind {
	return p.last
}

// Table returns the command table the parser is bound to.
func (p *Parser) Table() *Table {
	return p.table
}

// upper folds a-z to A-Z by clearing bit 5.
func upper(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c ^ 0x20
	}
	return c
}
