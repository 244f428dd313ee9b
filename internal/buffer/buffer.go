package buffer

import "strings"

// Buffer accumulates every chunk received for one message. It is append
// only while the message is active; segments and the scanner's pending tail
// must always add up to String().
type Buffer struct {
	sb     strings.Builder
	chunks int
}

// New creates a new Buffer.
func New() *Buffer {
	return &Buffer{}
}

// Write appends a chunk to the buffer.
func (b *Buffer) Write(chunk string) {
	if chunk == "" {
		return
	}
	b.sb.WriteString(chunk)
	b.chunks++
}

// Len returns the buffered size in bytes.
func (b *Buffer) Len() int {
	return b.sb.Len()
}

// Chunks returns how many non-empty chunks were written.
func (b *Buffer) Chunks() int {
	return b.chunks
}

// String returns the accumulated text.
func (b *Buffer) String() string {
	return b.sb.String()
}

// HasSuffix reports whether the buffer currently ends with s. The scanner's
// pending tail is always a suffix of the buffer.
func (b *Buffer) HasSuffix(s string) bool {
	return strings.HasSuffix(b.sb.String(), s)
}

// Reset clears the buffer for reuse by a new message.
func (b *Buffer) Reset() {
	b.sb.Reset()
	b.chunks = 0
}
