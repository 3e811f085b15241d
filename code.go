package scpi

import (
	"errors"
	"fmt"
)

// Code is the status returned by Parser.Feed and by command handlers.
//
// Codes 0 through 3 are reserved by the parser. Any other value is owned by
// the handler that returned it; negative values are the convention for
// handler specific failures.
type Code int

const (
	// CodeOK means success, or that parsing is still in progress.
	CodeOK Code = 0
	// CodeSyntaxError reports malformed framing. The parser enters StateError.
	CodeSyntaxError Code = 1
	// CodeCommandNotFound reports a well formed but unregistered command.
	CodeCommandNotFound Code = 2
	// CodeInvalidUse is returned by handlers rejecting an invocation kind,
	// such as setting a read-only quantity.
	CodeInvalidUse Code = 3
)

var (
	ErrSyntax          = errors.New("syntax error")
	ErrCommandNotFound = errors.New("command not found")
	ErrInvalidUse      = errors.New("invalid use")
	ErrHandler         = errors.New("handler error")
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeSyntaxError:
		return "syntax error"
	case CodeCommandNotFound:
		return "command not found"
	case CodeInvalidUse:
		return "invalid use"
	default:
		return fmt.Sprintf("handler code %d", int(c))
	}
}

// Err returns nil for CodeOK and a *CodeError otherwise.
func (c Code) Err() error {
	if c == CodeOK {
		return nil
	}
	return &CodeError{Code: c}
}

// CodeError wraps a non-zero Code as an error.
type CodeError struct {
	Code Code
}

func (e *CodeError) Error() string {
	return e.Code.String()
}

// Unwrap maps the code onto one of the package sentinels so callers can use
// errors.Is.
func (e *CodeError) Unwrap() error {
	switch e.Code {
	case CodeSyntaxError:
		return ErrSyntax
	case CodeCommandNotFound:
		return ErrCommandNotFound
	case CodeInvalidUse:
		return ErrInvalidUse
	default:
		return ErrHandler
	}
}
