// Package transport turns a byte stream into ordered text chunks for the
// scanner.
package transport

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"time"
	"unicode/utf8"
)

// DefaultChunkSize is the read size used when none is given.
const DefaultChunkSize = 4096

// Reader yields chunks that never end inside a UTF-8 sequence. An incomplete
// trailing sequence is carried into the next chunk; at EOF whatever is left
// is returned as is, so no byte is ever dropped.
type Reader struct {
	r     *bufio.Reader
	buf   []byte
	carry []byte
	eof   bool
}

// NewReader wraps r. size <= 0 selects DefaultChunkSize.
func NewReader(r io.Reader, size int) *Reader {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &Reader{
		r:   bufio.NewReaderSize(r, max(size, 16)),
		buf: make([]byte, size),
	}
}

// Next returns the next non-empty chunk, or io.EOF once the stream is drained.
func (t *Reader) Next() (string, error) {
	for {
		if t.eof {
			if len(t.carry) > 0 {
				out := string(t.carry)
				t.carry = t.carry[:0]
				return out, nil
			}
			return "", io.EOF
		}
		n, err := t.r.Read(t.buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("transport: read: %w", err)
		}
		if errors.Is(err, io.EOF) {
			t.eof = true
		}
		if n == 0 {
			continue
		}
		data := append(t.carry, t.buf[:n]...)
		cut := completePrefix(data)
		out := string(data[:cut])
		t.carry = append(t.carry[:0:0], data[cut:]...)
		if out != "" {
			return out, nil
		}
	}
}

// completePrefix returns the length of the longest prefix of p that does not
// end in the middle of a UTF-8 sequence. Invalid bytes count as complete.
func completePrefix(p []byte) int {
	// 最多回看 UTFMax-1 个字节
	for i := 1; i < utf8.UTFMax && i <= len(p); i++ {
		c := p[len(p)-i]
		if c < utf8.RuneSelf {
			return len(p)
		}
		if utf8.RuneStart(c) {
			if utf8.FullRune(p[len(p)-i:]) {
				return len(p)
			}
			return len(p) - i
		}
	}
	return len(p)
}

// SlowReader simulates token-timed delivery: each Read returns at most
// MaxChunk bytes and sleeps Delay after returning data.
type SlowReader struct {
	R        io.Reader
	Delay    time.Duration
	MaxChunk int
}

func (s *SlowReader) Read(p []byte) (int, error) {
	if s.MaxChunk > 0 && len(p) > s.MaxChunk {
		p = p[:s.MaxChunk]
	}
	n, err := s.R.Read(p)
	if n > 0 && s.Delay > 0 {
		time.Sleep(s.Delay)
	}
	return n, err
}
