package link

import (
	"log"
)

// Framer splits a byte stream into newline terminated lines of bounded
// length. Carriage returns are dropped.
type Framer struct {
	max       int
	buf       []byte
	overflows int
}

func NewFramer(max int) *Framer {
	if max < 1 {
		max = 1
	}
	return &Framer{
		max: max,
		buf: make([]byte, 0, max),
	}
}

// Feed adds one byte and returns a line once its terminator arrives. When
// the line grows past max before a terminator, the partial line is lost and
// accumulation restarts with b.
func (f *Framer) Feed(b byte) (string, bool) {
	switch b {
	case '\r':
		return "", false
	case '\n':
		line := string(f.buf)
		f.buf = f.buf[:0]
		return line, true
	}

	if len(f.buf) >= f.max {
		f.overflows++
		log.Printf("command line overflow - dropped %d bytes\n", len(f.buf))
		f.buf = f.buf[:0]
	}
	f.buf = append(f.buf, b)
	return "", false
}

// Overflows counts partial lines discarded so far.
func (f *Framer) Overflows() int {
	return f.overflows
}

func (f *Framer) Reset() {
	f.buf = f.buf[:0]
}
