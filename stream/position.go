package stream

import "fmt"

// Position locates a byte in a named input stream.
type Position struct {
	Name   string // Stream name, such as a file name or remote address
	Offset int64  // Byte offset, 0-indexed
	Line   int    // Line number, 1-indexed
	Column int    // Column number, 1-indexed
}

func (p Position) String() string {
	if p.Name == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.Name, p.Line, p.Column)
}

// advance moves past c. Only '\n' starts a new line, so "\r\n" counts once.
func (p *Position) advance(c byte) {
	p.Offset++
	if c == '\n' {
		p.Line++
		p.Column = 1
		return
	}
	p.Column++
}
