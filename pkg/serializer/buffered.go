package serializer

import (
	"bytes"
	"encoding/base64"
	"io"
)

// Buffered drains the whole body up front and reports the stored form
// synchronously. Suited to small bodies that are consumed in full anyway.
type Buffered struct{}

// NewBuffered creates a buffered serializer.
func NewBuffered() Buffered {
	return Buffered{}
}

func (Buffered) Name() string {
	return "buffer"
}

func (Buffered) Parse(stored string) io.ReadCloser {
	return io.NopCloser(bytes.NewReader(decode(stored)))
}

func (Buffered) Capture(body io.ReadCloser, done DoneFunc) io.ReadCloser {
	if body == nil {
		done(nil, ErrNoBody)
		return io.NopCloser(bytes.NewReader(nil))
	}

	data, err := io.ReadAll(body)
	body.Close()
	if err != nil {
		done(nil, err)
	} else {
		stored := base64.StdEncoding.EncodeToString(data)
		done(&stored, nil)
	}
	return io.NopCloser(bytes.NewReader(data))
}

// decode returns the base64 decoding of stored, degrading to the raw bytes
// when the input was not produced by this serializer.
func decode(stored string) []byte {
	data, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return []byte(stored)
	}
	return data
}
