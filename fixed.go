package syncwire

import (
	"encoding/binary"
	"io"
	"reflect"

	"github.com/puzpuzpuz/xsync/v4"
)

// sizeCache keeps binary.Size results per payload type; binary.Size walks the
// type with reflection on every call.
var sizeCache = xsync.NewMap[reflect.Type, int]()

// Fixed is a Codec for payloads made only of fixed-size fields (numbers,
// arrays and structs of them). GUIDs, colors, ping payloads and pose vectors
// travel through it.
type Fixed[Payload any] struct {
	Payload Payload
}

var _ Codec = (*Fixed[struct{}])(nil)

// FixedSize returns the encoded size of Payload.
func FixedSize[Payload any]() int {
	t := reflect.TypeFor[Payload]()
	if size, ok := sizeCache.Load(t); ok {
		return size
	}
	var zero Payload
	size := binary.Size(&zero)
	sizeCache.Store(t, size)
	return size
}

func (c *Fixed[Payload]) Size() int { return FixedSize[Payload]() }

func (c *Fixed[Payload]) MarshalBinary() ([]byte, error) {
	buf := make([]byte, c.Size())
	if _, err := binary.Encode(buf, Order, &c.Payload); err != nil {
		return nil, io.ErrShortWrite
	}
	return buf, nil
}

func (c *Fixed[Payload]) MarshalTo(p []byte) (int, error) {
	n, err := binary.Encode(p, Order, &c.Payload)
	if err != nil {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// UnmarshalBinary decodes data, tolerating only zero padding after the payload.
func (c *Fixed[Payload]) UnmarshalBinary(data []byte) error {
	n, err := binary.Decode(data, Order, &c.Payload)
	if err != nil {
		return ErrTruncatedData
	}
	return CheckBufferNotZeros(data[n:])
}

func (c *Fixed[Payload]) ReadFrom(r io.Reader) (int64, error) {
	if err := binary.Read(r, Order, &c.Payload); err != nil {
		return 0, err
	}
	return int64(c.Size()), nil
}

func (c *Fixed[Payload]) WriteTo(w io.Writer) (int64, error) {
	if err := binary.Write(w, Order, &c.Payload); err != nil {
		return 0, err
	}
	return int64(c.Size()), nil
}

// writeFixed encodes v through Fixed onto w.
func writeFixed[Payload any](w *Writer, v Payload) {
	w.WriteFrom(&Fixed[Payload]{Payload: v})
}

// readFixed decodes a Payload through Fixed from r.
func readFixed[Payload any](r *Reader) Payload {
	var f Fixed[Payload]
	r.ReadTo(&f)
	return f.Payload
}
