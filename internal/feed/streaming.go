package feed

// streaming.go wraps a table stream before it reaches the CSV tokenizer:
//
//   - the UTF-8 byte order mark some editors write is dropped
//   - invalid UTF-8 bytes are replaced with '?' so they surface as field
//     values rather than tokenizer failures
//   - bytes read are counted for progress reporting
//
// Use WrapForStreaming to apply all three in the correct order.

import (
	"bufio"
	"bytes"
	"io"
	"sync/atomic"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// BOMSkippingReader drops a leading UTF-8 BOM.
type BOMSkippingReader struct {
	r       *bufio.Reader
	checked bool
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{r: bufio.NewReader(r)}
}

// Read implements io.Reader.
func (b *BOMSkippingReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		head, err := b.r.Peek(len(utf8BOM))
		if err == nil && bytes.Equal(head, utf8BOM) {
			if _, err := b.r.Discard(len(utf8BOM)); err != nil {
				return 0, err
			}
		}
	}
	return b.r.Read(p)
}

// UTF8Sanitizer replaces each invalid UTF-8 byte with '?'. Valid multi-byte
// sequences split across reads of the underlying stream are kept intact.
type UTF8Sanitizer struct {
	r       *bufio.Reader
	pending []byte
}

// NewUTF8Sanitizer creates a new streaming UTF-8 sanitizer.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{r: bufio.NewReader(r)}
}

// Read implements io.Reader. It returns early with what it has once the
// internal buffer runs dry rather than blocking to fill p.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(s.pending) > 0 {
			c := copy(p[n:], s.pending)
			s.pending = s.pending[c:]
			n += c
			continue
		}
		if n > 0 && s.r.Buffered() == 0 {
			break
		}

		r, size, err := s.r.ReadRune()
		if err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, err
		}
		if r == utf8.RuneError && size == 1 {
			p[n] = '?'
			n++
			continue
		}

		var buf [utf8.UTFMax]byte
		w := utf8.EncodeRune(buf[:], r)
		c := copy(p[n:], buf[:w])
		n += c
		if c < w {
			s.pending = append(s.pending[:0], buf[c:w]...)
		}
	}
	return n, nil
}

// CountingReader tracks bytes read. BytesRead is safe to call from another
// goroutine while the scan is running.
type CountingReader struct {
	reader io.Reader
	read   atomic.Int64
	Total  int64 // 0 if unknown
}

// NewCountingReader creates a counting reader with optional total size.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{reader: r, Total: total}
}

// Read implements io.Reader.
func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.reader.Read(p)
	c.read.Add(int64(n))
	return n, err
}

// BytesRead returns the number of bytes consumed so far.
func (c *CountingReader) BytesRead() int64 {
	return c.read.Load()
}

// Progress returns the read progress as a percentage (0-100), or 0 when the
// total is unknown.
func (c *CountingReader) Progress() int {
	if c.Total <= 0 {
		return 0
	}
	return int(c.BytesRead() * 100 / c.Total)
}

// WrapForStreaming applies BOM skipping, then UTF-8 sanitization, then byte
// counting. The BOM must be stripped before sanitization sees it.
func WrapForStreaming(r io.Reader, totalSize int64) *CountingReader {
	return NewCountingReader(NewUTF8Sanitizer(NewBOMSkippingReader(r)), totalSize)
}
