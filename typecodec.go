package syncwire

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// TypeCodec encodes the payload of one DataTag. Codecs are stateless and
// safe for concurrent use; Encode and Decode report failures through the
// Writer and Reader error state.
type TypeCodec interface {
	Tag() DataTag
	// Size returns the exact number of payload bytes Encode writes for v, or
	// -1 when v is not of this codec's type.
	Size(v Value) int
	Encode(w *Writer, v Value)
	Decode(r *Reader) Value
	// Text and ParseText convert to and from the text embedding used for
	// string-only property channels.
	Text(v Value) string
	ParseText(s string) (Value, bool)
}

// typed adapts per-type functions to TypeCodec. A nil text or parse falls
// back to base64 of the binary payload.
type typed[V Value] struct {
	tag    DataTag
	size   func(V) int
	encode func(*Writer, V)
	decode func(*Reader) V
	text   func(V) string
	parse  func(string) (V, bool)
}

func (c *typed[V]) Tag() DataTag { return c.tag }

func (c *typed[V]) Size(v Value) int {
	x, ok := v.(V)
	if !ok {
		return -1
	}
	return c.size(x)
}

func (c *typed[V]) Encode(w *Writer, v Value) {
	x, ok := v.(V)
	if !ok {
		w.Fail(fmt.Errorf("%w: %T is not %s", ErrTypeMismatch, v, c.tag))
		return
	}
	c.encode(w, x)
}

func (c *typed[V]) Decode(r *Reader) Value {
	v := c.decode(r)
	if r.Err() != nil {
		return nil
	}
	return v
}

func (c *typed[V]) Text(v Value) string {
	x, ok := v.(V)
	if !ok {
		return ""
	}
	if c.text != nil {
		return c.text(x)
	}
	b, err := encodePayload(c, v)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(b)
}

func (c *typed[V]) ParseText(s string) (Value, bool) {
	if c.parse != nil {
		v, ok := c.parse(s)
		if !ok {
			return nil, false
		}
		return v, true
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, false
	}
	v, err := decodePayload(c, b)
	if err != nil {
		return nil, false
	}
	return v, true
}

// encodePayload encodes v with c into an exactly sized slice.
func encodePayload(c TypeCodec, v Value) ([]byte, error) {
	size := c.Size(v)
	if size < 0 {
		return nil, fmt.Errorf("%w: %T is not %s", ErrTypeMismatch, v, c.Tag())
	}
	bw := NewFixedWriter(make([]byte, size))
	w := &Writer{w: bw}
	c.Encode(w, v)
	if err := w.Err(); err != nil {
		if errors.Is(err, io.ErrShortWrite) {
			return nil, fmt.Errorf("%w: %s wrote past its reported %d bytes", ErrSizeMismatch, c.Tag(), size)
		}
		return nil, err
	}
	if bw.Len() != size {
		return nil, fmt.Errorf("%w: %s reported %d bytes, wrote %d", ErrSizeMismatch, c.Tag(), size, bw.Len())
	}
	return bw.Bytes(), nil
}

// decodePayload decodes exactly one payload from b.
func decodePayload(c TypeCodec, b []byte) (Value, error) {
	br := NewBytesReader(b)
	r := &Reader{r: br}
	v := c.Decode(r)
	if err := r.Err(); err != nil {
		return nil, err
	}
	if br.Available() > 0 {
		return nil, fmt.Errorf("%w: %d bytes after %s payload", ErrTrailingData, br.Available(), c.Tag())
	}
	return v, nil
}
