package serializer

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestBuffered_RoundTrip(t *testing.T) {
	s := NewBuffered()

	var stored *string
	body := s.Capture(io.NopCloser(strings.NewReader("hello world")), func(v *string, err error) {
		if err != nil {
			t.Fatalf("done error: %v", err)
		}
		stored = v
	})

	// done fires synchronously for the buffered serializer.
	if stored == nil {
		t.Fatal("done was not called with a stored value")
	}

	// The returned body still carries the original bytes.
	got, _ := io.ReadAll(body)
	if string(got) != "hello world" {
		t.Errorf("forwarded body = %q, want %q", got, "hello world")
	}

	// Parse reconstructs the original bytes.
	parsed, _ := io.ReadAll(s.Parse(*stored))
	if string(parsed) != "hello world" {
		t.Errorf("parsed body = %q, want %q", parsed, "hello world")
	}
}

func TestBuffered_NilBody(t *testing.T) {
	var captured error
	body := NewBuffered().Capture(nil, func(v *string, err error) {
		captured = err
	})
	if !errors.Is(captured, ErrNoBody) {
		t.Errorf("done error = %v, want ErrNoBody", captured)
	}
	if got, _ := io.ReadAll(body); len(got) != 0 {
		t.Errorf("body = %q, want empty", got)
	}
}

func TestStream_RoundTrip(t *testing.T) {
	s := NewStream(100)

	var stored *string
	var doneErr error
	body := s.Capture(io.NopCloser(strings.NewReader("streamed bytes")), func(v *string, err error) {
		stored = v
		doneErr = err
	})

	got, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(got) != "streamed bytes" {
		t.Errorf("forwarded body = %q, want %q", got, "streamed bytes")
	}
	if doneErr != nil {
		t.Fatalf("done error: %v", doneErr)
	}
	if stored == nil {
		t.Fatal("done was not called with a stored value")
	}

	parsed, _ := io.ReadAll(s.Parse(*stored))
	if string(parsed) != "streamed bytes" {
		t.Errorf("parsed body = %q, want %q", parsed, "streamed bytes")
	}
}

func TestStream_OverCapSkipsStorage(t *testing.T) {
	s := NewStream(10)

	called := false
	var stored *string
	var doneErr error
	body := s.Capture(io.NopCloser(strings.NewReader("12345678901")), func(v *string, err error) {
		called = true
		stored = v
		doneErr = err
	})

	// The consumer still receives all 11 bytes.
	got, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(got) != "12345678901" {
		t.Errorf("forwarded body = %q, want all 11 bytes", got)
	}

	if !called {
		t.Fatal("done was not called")
	}
	if stored != nil || doneErr != nil {
		t.Errorf("done = (%v, %v), want (nil, nil)", stored, doneErr)
	}
}

func TestStream_ReadError(t *testing.T) {
	readErr := errors.New("connection reset")
	s := NewStream(100)

	var doneErr error
	body := s.Capture(io.NopCloser(&failingReader{err: readErr}), func(v *string, err error) {
		doneErr = err
	})

	if _, err := io.ReadAll(body); !errors.Is(err, readErr) {
		t.Fatalf("read error = %v, want %v", err, readErr)
	}
	if !errors.Is(doneErr, readErr) {
		t.Errorf("done error = %v, want %v", doneErr, readErr)
	}
}

func TestStream_CloseBeforeEOFSkipsStorage(t *testing.T) {
	s := NewStream(100)

	called := false
	var stored *string
	body := s.Capture(io.NopCloser(strings.NewReader("partial content")), func(v *string, err error) {
		called = true
		stored = v
		if err != nil {
			t.Errorf("done error = %v, want nil", err)
		}
	})

	buf := make([]byte, 4)
	if _, err := body.Read(buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	body.Close()

	if !called {
		t.Fatal("done was not called on close")
	}
	if stored != nil {
		t.Errorf("stored = %q, want nil for incomplete body", *stored)
	}
}

func TestStream_DoneFiresOnce(t *testing.T) {
	s := NewStream(100)

	calls := 0
	body := s.Capture(io.NopCloser(bytes.NewReader([]byte("x"))), func(v *string, err error) {
		calls++
	})

	io.ReadAll(body)
	body.Close()
	body.Close()

	if calls != 1 {
		t.Errorf("done called %d times, want 1", calls)
	}
}

func TestStream_NilBody(t *testing.T) {
	var captured error
	NewStream(10).Capture(nil, func(v *string, err error) {
		captured = err
	})
	if !errors.Is(captured, ErrNoBody) {
		t.Errorf("done error = %v, want ErrNoBody", captured)
	}
}

func TestParse_RawFallback(t *testing.T) {
	// Not valid base64; Parse degrades to the raw bytes rather than failing.
	parsed, _ := io.ReadAll(NewStream(0).Parse("!!not-base64!!"))
	if string(parsed) != "!!not-base64!!" {
		t.Errorf("parsed = %q, want raw input", parsed)
	}
}

type failingReader struct {
	err error
}

func (r *failingReader) Read(p []byte) (int, error) {
	return 0, r.err
}
