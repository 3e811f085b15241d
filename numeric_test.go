package scpi

import (
	"math"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestParseInt16(t *testing.T) {
	tests := []struct {
		input string
		want  int16
	}{
		{"0", 0},
		{"", 0},
		{"-5", -5},
		{"100", 100},
		{"007", 7},
		{"#1A", 26},
		{"#ff", 255},
		{"#A", 10},
		{"Q17", 15},
		{"q777", 511},
		{"B101", 5},
		{"b0011", 3},
		{"--5", 5},
		{"-#10", -16},
		{"#Q17", 15},
		{"Q#1F", 31},
		{"12x", 12},
		{"12 ", 12},
		{"-0", 0},
		{"32767", 32767},
		{"-32768", -32768},
		{"42\x0099", 42},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseInt16(tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseInt16Malformed(t *testing.T) {
	tests := []struct {
		input  string
		offset int
	}{
		{"x12", 0},
		{"Q8", 1},
		{"B2", 1},
		{"B102", 3},
		{"Q178", 3},
		{"12a", 2},
		{"+5", 0},
		{" 5", 0},
		{"ON", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseInt16(tt.input)
			assert.IsError(t, err, ErrMalformedNumeral)

			numErr, ok := err.(*NumeralError)
			assert.True(t, ok)
			assert.Equal(t, tt.offset, numErr.Offset)
			assert.Equal(t, tt.input[tt.offset], numErr.Char)
		})
	}
}

func TestParseInt16Wraps(t *testing.T) {
	got, err := ParseInt16("32768")
	assert.NoError(t, err)
	assert.Equal(t, int16(math.MinInt16), got)

	got, err = ParseInt16("65537")
	assert.NoError(t, err)
	assert.Equal(t, int16(1), got)
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"0", false},
		{"1", true},
		{"-1", true},
		{"#0", false},
		{"B10", true},
		{"000", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBool(tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, input := range []string{"ON", "OFF", "Q9"} {
		_, err := ParseBool(input)
		assert.IsError(t, err, ErrMalformedNumeral)
	}
}

func TestFormatInt16(t *testing.T) {
	tests := []struct {
		value int16
		want  string
	}{
		{0, "0"},
		{1, "1"},
		{-1, "-1"},
		{10, "10"},
		{100, "100"},
		{-123, "-123"},
		{10001, "10001"},
		{32767, "32767"},
		{-32767, "-32767"},
		{math.MinInt16, "-32768"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			var buf [MaxInt16Width]byte
			n := PutInt16(buf[:], tt.value)
			assert.Equal(t, len(tt.want), n)
			assert.Equal(t, tt.want, string(buf[:n]))
			assert.Equal(t, tt.want, FormatInt16(tt.value))
		})
	}
}

func TestPutInt16ShortBuffer(t *testing.T) {
	assert.Panics(t, func() {
		PutInt16(make([]byte, 3), 1)
	})
}

func TestAppendInt16(t *testing.T) {
	out := AppendInt16([]byte("FREQ "), -42)
	assert.Equal(t, "FREQ -42", string(out))
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, v := range []int16{0, 7, -7, 999, -1000, math.MaxInt16, math.MinInt16} {
		got, err := ParseInt16(FormatInt16(v))
		assert.NoError(t, err)
		assert.Equal(t, v, got)
	}
}
