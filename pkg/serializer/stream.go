package serializer

import (
	"bytes"
	"encoding/base64"
	"io"
	"sync"
)

// DefaultMaxBufferLength bounds how many body bytes the stream serializer
// retains for storage. Bodies that grow past the cap still flow to the
// consumer but are not cached.
const DefaultMaxBufferLength = 1 << 20

// Stream captures a body as it is consumed. The caller keeps reading the
// returned body exactly as it would the original; the serializer retains a
// bounded copy on the side and reports it when the stream ends.
type Stream struct {
	maxBufferLength int
}

// NewStream creates a stream serializer retaining at most maxBufferLength
// bytes. Non-positive values use DefaultMaxBufferLength.
func NewStream(maxBufferLength int) Stream {
	if maxBufferLength <= 0 {
		maxBufferLength = DefaultMaxBufferLength
	}
	return Stream{maxBufferLength: maxBufferLength}
}

func (Stream) Name() string {
	return "stream"
}

func (Stream) Parse(stored string) io.ReadCloser {
	return io.NopCloser(bytes.NewReader(decode(stored)))
}

func (s Stream) Capture(body io.ReadCloser, done DoneFunc) io.ReadCloser {
	if body == nil {
		done(nil, ErrNoBody)
		return io.NopCloser(bytes.NewReader(nil))
	}
	return &captureReader{
		src:  body,
		max:  s.maxBufferLength,
		done: done,
	}
}

// captureReader relays every byte from src to the consumer while keeping a
// bounded copy. Once total consumption exceeds max, further bytes are
// relayed but dropped from the copy so memory stays bounded.
type captureReader struct {
	src  io.ReadCloser
	max  int
	done DoneFunc

	buf   bytes.Buffer
	total int
	once  sync.Once
}

func (c *captureReader) Read(p []byte) (int, error) {
	n, err := c.src.Read(p)
	if n > 0 {
		c.total += n
		if c.total <= c.max {
			c.buf.Write(p[:n])
		}
	}

	switch {
	case err == io.EOF:
		c.finish(nil)
	case err != nil:
		c.finish(err)
	}
	return n, err
}

func (c *captureReader) Close() error {
	// Closing before EOF means the body was not fully consumed; the capture
	// is incomplete and must not be stored.
	c.once.Do(func() {
		c.done(nil, nil)
	})
	return c.src.Close()
}

func (c *captureReader) finish(err error) {
	c.once.Do(func() {
		if err != nil {
			c.done(nil, err)
			return
		}
		if c.total > c.max {
			c.done(nil, nil)
			return
		}
		stored := base64.StdEncoding.EncodeToString(c.buf.Bytes())
		c.done(&stored, nil)
	})
}
