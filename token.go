package scpi

// token is a fixed-capacity accumulation buffer.
//
// Bytes pushed beyond limit are dropped without error. The buffer keeps its
// full capacity zeroed past the logical length, which is what fixed-width
// command matching relies on.
type token struct {
	buf   []byte
	n     int
	limit int
}

func newToken(capacity, limit int) token {
	return token{
		buf:   make([]byte, capacity),
		limit: limit,
	}
}

func (t *token) reset() {
	clear(t.buf)
	t.n = 0
}

// push appends c and reports whether it was stored.
func (t *token) push(c byte) bool {
	if t.n >= t.limit {
		return false
	}
	t.buf[t.n] = c
	t.n++
	return true
}

// terminate writes the NUL after the logical content when there is room.
func (t *token) terminate() {
	if t.n < len(t.buf) {
		t.buf[t.n] = 0
	}
}

func (t *token) len() int {
	return t.n
}

func (t *token) String() string {
	return string(t.buf[:t.n])
}

// fixed returns the whole buffer, padding included.
func (t *token) fixed() []byte {
	return t.buf
}
