package stream

import (
	"fmt"

	"github.com/robinvdvleuten/scpi"
)

// FeedError is a non-zero code returned while feeding a stream.
type FeedError struct {
	Pos     Position  // Position of the byte that produced the code
	Start   Position  // Position where the command began
	Code    scpi.Code // Code returned by the parser or handler
	Command string    // Command token at the time of the error
	Char    byte      // Byte that produced the code
}

func (e *FeedError) Error() string {
	if e.Command == "" {
		return fmt.Sprintf("%s: %s at %q", e.Pos, e.Code, e.Char)
	}
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Command, e.Code)
}

// Unwrap exposes the scpi sentinel for the code.
func (e *FeedError) Unwrap() error {
	return e.Code.Err()
}

// GetPosition returns the position of the offending byte.
func (e *FeedError) GetPosition() Position {
	return e.Pos
}

// IsSyntax reports whether the parser entered its error state.
func (e *FeedError) IsSyntax() bool {
	return e.Code == scpi.CodeSyntaxError
}
