package store

import (
	"net/http"
	"testing"
)

func TestFlattenAndParseRawHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Content-Type", "text/plain")
	h.Add("Set-Cookie", "a=1")
	h.Add("Set-Cookie", "b=2")

	parsed := ParseRawHeaders(FlattenHeader(h))

	if parsed.Get("Content-Type") != "text/plain" {
		t.Errorf("Content-Type = %q", parsed.Get("Content-Type"))
	}
	if got := parsed.Values("Set-Cookie"); len(got) != 2 {
		t.Errorf("Set-Cookie values = %v, want both", got)
	}
}

func TestParseRawHeaders_SkipsMalformedLines(t *testing.T) {
	parsed := ParseRawHeaders([]string{"Content-Type: text/html", "garbage-without-colon", "X-Key:   padded  "})

	if parsed.Get("Content-Type") != "text/html" {
		t.Errorf("Content-Type = %q", parsed.Get("Content-Type"))
	}
	if parsed.Get("X-Key") != "padded" {
		t.Errorf("X-Key = %q, want trimmed value", parsed.Get("X-Key"))
	}
	if len(parsed) != 2 {
		t.Errorf("header count = %d, want 2", len(parsed))
	}
}
