package channel

import "bytes"

// Delimiter terminates every message on the wire.
const Delimiter = 0

// Framer splits a byte stream into NUL-terminated messages. Bytes after the
// last delimiter stay buffered until the next Feed.
type Framer struct {
	buf []byte
}

// Feed appends p and returns the complete messages it closed, in order.
// Empty messages are dropped.
func (f *Framer) Feed(p []byte) []string {
	f.buf = append(f.buf, p...)

	var msgs []string
	for {
		idx := bytes.IndexByte(f.buf, Delimiter)
		if idx < 0 {
			break
		}
		if idx > 0 {
			msgs = append(msgs, string(f.buf[:idx]))
		}
		f.buf = f.buf[idx+1:]
	}
	if len(f.buf) == 0 {
		f.buf = nil
	}
	return msgs
}

// Pending returns the number of buffered bytes not yet terminated.
func (f *Framer) Pending() int {
	return len(f.buf)
}

// Frame encodes msg for the wire.
func Frame(msg string) []byte {
	b := make([]byte, 0, len(msg)+1)
	b = append(b, msg...)
	return append(b, Delimiter)
}
