// Package serializer converts response bodies to and from their stored
// string form. Serialization of a streaming body must not delay returning
// the response, so Capture hands back a body immediately and reports the
// storable form through a completion callback once the body has been
// consumed.
package serializer

import (
	"errors"
	"io"
)

// ErrNoBody indicates a nil body was handed to a serializer that requires
// a readable stream. It signals a wiring mistake, not a runtime condition.
var ErrNoBody = errors.New("serializer: response has no body to capture")

// DoneFunc receives the outcome of a capture exactly once. A nil stored
// value with a nil error means the body must not be cached.
type DoneFunc func(stored *string, err error)

// Serializer turns a response body into a storable string and back.
// Name participates in the cache id, so two serializers with different
// storage formats never share entries.
type Serializer interface {
	Name() string

	// Parse reconstructs a response body from its stored form. It never
	// fails on data produced by the same serializer.
	Parse(stored string) io.ReadCloser

	// Capture returns a body for the in-flight response immediately and
	// invokes done once the storable form is known.
	Capture(body io.ReadCloser, done DoneFunc) io.ReadCloser
}
