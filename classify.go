package scpi

// Nature is the role a single input byte plays in the framing.
type Nature uint8

const (
	// Normal bytes carry no framing meaning.
	Normal Nature = iota
	// Whitespace separates a command name from its value.
	Whitespace
	// Terminator unconditionally ends the current command.
	Terminator
)

var natureNames = [...]string{
	Normal:     "Normal",
	Whitespace: "Whitespace",
	Terminator: "Terminator",
}

func (n Nature) String() string {
	if int(n) < len(natureNames) {
		return natureNames[n]
	}
	return "Nature(?)"
}

// Classify reports the nature of c.
func Classify(c byte) Nature {
	switch c {
	case 0, '\n', '\r', ';':
		return Terminator
	case ' ', '\t', '\v', '\f':
		return Whitespace
	default:
		return Normal
	}
}
