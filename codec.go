// Package syncwire encodes the values and messages exchanged by peers of a
// shared session, and the string forms used for session properties.
package syncwire

import (
	"encoding"
	"io"
)

// Sizer reports the binary size of a value so buffers can be sized up front.
type Sizer interface {
	Size() int
}

// Marshaler encodes an object as a slice, into a caller buffer, or onto a stream.
type Marshaler interface {
	encoding.BinaryMarshaler
	io.WriterTo

	// MarshalTo encodes into buf and fails with io.ErrShortWrite when buf is
	// smaller than Size.
	MarshalTo(buf []byte) (int, error)
}

// Unmarshaler decodes an object from a slice or a stream.
type Unmarshaler interface {
	encoding.BinaryUnmarshaler
	io.ReaderFrom
}

// Codec is a complete, self-sizing binary encoder/decoder. Envelope and Fixed
// implement it.
type Codec interface {
	Sizer
	Marshaler
	Unmarshaler
}
