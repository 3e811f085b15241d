package scpi

import (
	"errors"
	"fmt"
)

// ErrMalformedNumeral is the sentinel behind every *NumeralError.
var ErrMalformedNumeral = errors.New("malformed numeral")

// MaxInt16Width is the longest output of PutInt16: a sign and five digits.
const MaxInt16Width = 6

// NumeralError reports the offending byte of a value that is not a numeral.
type NumeralError struct {
	Input  string
	Offset int
	Char   byte
}

func (e *NumeralError) Error() string {
	return fmt.Sprintf("malformed numeral %q: unexpected %q at offset %d", e.Input, e.Char, e.Offset)
}

func (e *NumeralError) Unwrap() error {
	return ErrMalformedNumeral
}

// ParseInt16 parses a signed 16-bit numeral.
//
// Before the first digit, '-' toggles the sign, '#' selects base 16, 'q' or
// 'Q' base 8 and 'b' or 'B' base 2; the last base marker wins and leading
// zeros are skipped. Digits follow in the active base. A digit outside the
// base is an error, while any other byte after the first digit ends the
// numeral without error. A NUL byte ends the input.
//
// Accumulation wraps like native int16 arithmetic; overflow is not reported.
func ParseInt16(s string) (int16, error) {
	var (
		negative bool
		digits   bool
		base     int16 = 10
		acc      int16
	)

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == 0 {
			break
		}

		if !digits {
			switch c {
			case '-':
				negative = !negative
				continue
			case '#':
				base = 16
				continue
			case 'q', 'Q':
				base = 8
				continue
			case 'b', 'B':
				base = 2
				continue
			case '0':
				continue
			}

			d, ok := digitValue(c)
			if !ok || d >= base {
				return 0, &NumeralError{Input: s, Offset: i, Char: c}
			}
			digits = true
		}

		d, ok := digitValue(c)
		if !ok {
			break
		}
		if d >= base {
			return 0, &NumeralError{Input: s, Offset: i, Char: c}
		}
		acc = acc*base + d
	}

	if negative {
		acc = -acc
	}
	return acc, nil
}

// ParseBool reports whether s is a non-zero numeral. Only numeric truthiness
// is supported; textual forms such as ON and OFF are malformed numerals.
func ParseBool(s string) (bool, error) {
	v, err := ParseInt16(s)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// digitValue maps 0-9, a-f and A-F onto their values.
func digitValue(c byte) (int16, bool) {
	switch {
	case '0' <= c && c <= '9':
		return int16(c - '0'), true
	case 'a' <= c && c <= 'f':
		return int16(c-'a') + 10, true
	case 'A' <= c && c <= 'F':
		return int16(c-'A') + 10, true
	default:
		return 0, false
	}
}

var powersOfTen = [...]uint16{10000, 1000, 100, 10, 1}

// PutInt16 writes v in minimal decimal form into dst and returns the number
// of bytes written. dst must hold at least MaxInt16Width bytes. No NUL is
// written.
func PutInt16(dst []byte, v int16) int {
	_ = dst[MaxInt16Width-1]

	n := 0
	u := uint16(v)
	if v < 0 {
		dst[n] = '-'
		n++
		u = uint16(-int32(v))
	}

	started := false
	for _, pow := range powersOfTen {
		var digit byte
		for u >= pow {
			u -= pow
			digit++
		}
		if digit != 0 || started || pow == 1 {
			dst[n] = '0' + digit
			n++
			started = true
		}
	}

	return n
}

// AppendInt16 appends the decimal form of v to dst.
func AppendInt16(dst []byte, v int16) []byte {
	var buf [MaxInt16Width]byte
	n := PutInt16(buf[:], v)
	return append(dst, buf[:n]...)
}

// FormatInt16 returns the decimal form of v.
func FormatInt16(v int16) string {
	var buf [MaxInt16Width]byte
	n := PutInt16(buf[:], v)
	return string(buf[:n])
}
