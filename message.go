package syncwire

import (
	"errors"
	"fmt"
	"io"
	"math"
)

// MaxFrameSize is the largest message a stream frame carries.
const MaxFrameSize = math.MaxInt16

// Message is the unit exchanged between peers:
//
//	kind  uint8
//	tag   uint8
//	payload
type Message struct {
	Kind  MessageKind
	Value Value
}

// Size returns the encoded size of m.
func (c *Catalog) Size(m Message) (int, error) {
	if !m.Kind.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(m.Kind))
	}
	n, err := c.ValueSize(m.Value)
	if err != nil {
		return 0, err
	}
	return 1 + n, nil
}

// Encode returns m encoded into a new slice of exactly Size bytes.
func (c *Catalog) Encode(m Message) ([]byte, error) {
	size, err := c.Size(m)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	if _, err := c.encodeSized(buf, m, size); err != nil {
		return nil, err
	}
	return buf, nil
}

// AppendEncode appends the encoding of m to dst.
func (c *Catalog) AppendEncode(dst []byte, m Message) ([]byte, error) {
	size, err := c.Size(m)
	if err != nil {
		return dst, err
	}
	start := len(dst)
	dst = append(dst, make([]byte, size)...)
	if _, err := c.encodeSized(dst[start:], m, size); err != nil {
		return dst[:start], err
	}
	return dst, nil
}

// EncodeTo encodes m into buf and returns the number of bytes written.
// It fails with io.ErrShortWrite when buf is smaller than Size.
func (c *Catalog) EncodeTo(buf []byte, m Message) (int, error) {
	size, err := c.Size(m)
	if err != nil {
		return 0, err
	}
	if len(buf) < size {
		return 0, io.ErrShortWrite
	}
	return c.encodeSized(buf[:size:size], m, size)
}

func (c *Catalog) encodeSized(buf []byte, m Message, size int) (int, error) {
	bw := NewFixedWriter(buf[:size:size])
	w := &Writer{w: bw}
	w.WriteUint8(uint8(m.Kind))
	c.EncodeValue(w, m.Value)
	if err := w.Err(); err != nil {
		if errors.Is(err, io.ErrShortWrite) {
			return bw.Len(), fmt.Errorf("%w: %s wrote past its reported %d bytes", ErrSizeMismatch, m.Value.Tag(), size)
		}
		return bw.Len(), err
	}
	if bw.Len() != size {
		return bw.Len(), fmt.Errorf("%w: %s reported %d bytes, wrote %d", ErrSizeMismatch, m.Value.Tag(), size, bw.Len())
	}
	return size, nil
}

// Decode decodes a message occupying data. Only zero padding may follow it.
func (c *Catalog) Decode(data []byte) (Message, error) {
	br := NewBytesReader(data)
	m, err := c.decodeFrom(&Reader{r: br})
	if err != nil {
		return Message{}, err
	}
	if err := CheckBufferNotZeros(br.Rest()); err != nil {
		return Message{}, err
	}
	return m, nil
}

func (c *Catalog) decodeFrom(r *Reader) (Message, error) {
	kind := MessageKind(r.ReadUint8())
	if err := r.Err(); err != nil {
		return Message{}, err
	}
	if !kind.Valid() {
		c.logger.Warn("dropping message with unknown kind", "kind", uint8(kind))
		return Message{}, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(kind))
	}
	v := c.DecodeValue(r)
	if err := r.Err(); err != nil {
		return Message{}, err
	}
	return Message{Kind: kind, Value: v}, nil
}

// WriteMessage writes m to w as a frame: a uint16 length then the message.
func (c *Catalog) WriteMessage(w io.Writer, m Message) (int64, error) {
	size, err := c.Size(m)
	if err != nil {
		return 0, err
	}
	if size > MaxFrameSize {
		return 0, fmt.Errorf("%w: message of %d bytes exceeds frame limit %d", ErrOversizeLength, size, MaxFrameSize)
	}
	var written int64
	err = Buffers.With(2+size, func(buf []byte) error {
		Order.PutUint16(buf, uint16(size))
		if _, err := c.encodeSized(buf[2:], m, size); err != nil {
			return err
		}
		n, err := w.Write(buf)
		written = int64(n)
		if err == nil && n < len(buf) {
			err = io.ErrShortWrite
		}
		return err
	})
	return written, err
}

// ReadMessage reads one frame written by WriteMessage.
func (c *Catalog) ReadMessage(r io.Reader) (Message, int64, error) {
	var hdr [2]byte
	n, err := io.ReadFull(r, hdr[:])
	if err != nil {
		if err == io.ErrUnexpectedEOF {
			err = fmt.Errorf("%w: frame header", ErrTruncatedData)
		}
		return Message{}, int64(n), err
	}
	size := int(Order.Uint16(hdr[:]))
	if size > MaxFrameSize {
		return Message{}, int64(n), fmt.Errorf("%w: frame of %d bytes exceeds limit %d", ErrOversizeLength, size, MaxFrameSize)
	}

	var m Message
	read := int64(n)
	err = Buffers.With(size, func(buf []byte) error {
		n, err := io.ReadFull(r, buf)
		read += int64(n)
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return fmt.Errorf("%w: frame body %d of %d bytes", ErrTruncatedData, n, size)
			}
			return err
		}
		br := NewBytesReader(buf)
		if m, err = c.decodeFrom(&Reader{r: br}); err != nil {
			return err
		}
		if br.Available() > 0 {
			return fmt.Errorf("%w: %d bytes after message in frame", ErrTrailingData, br.Available())
		}
		return nil
	})
	if err != nil {
		return Message{}, read, err
	}
	return m, read, nil
}
