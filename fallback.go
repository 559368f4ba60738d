package syncwire

import (
	"encoding/base64"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// MaxOpaqueSize bounds the CBOR body of an Opaque value.
const MaxOpaqueSize = 1 << 20

// opaqueCodec carries Opaque values as a uint32 length followed by CBOR. It
// is registered under TagUnknown only when a catalog enables the generic
// fallback. Decoding yields plain data (maps, slices, strings, numbers); no
// caller type is ever instantiated from the wire.
type opaqueCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func newOpaqueCodec() *opaqueCodec {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("syncwire: CBOR encoder initialization failed: " + err.Error())
	}
	dec, err := cbor.DecOptions{
		DefaultMapType:   reflect.TypeOf(map[string]any(nil)),
		MaxArrayElements: 1 << 16,
		MaxMapPairs:      1 << 16,
	}.DecMode()
	if err != nil {
		panic("syncwire: CBOR decoder initialization failed: " + err.Error())
	}
	return &opaqueCodec{enc: enc, dec: dec}
}

func (c *opaqueCodec) Tag() DataTag { return TagUnknown }

func (c *opaqueCodec) marshal(v Value) ([]byte, error) {
	o, ok := v.(Opaque)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not %s", ErrTypeMismatch, v, TagUnknown)
	}
	b, err := c.enc.Marshal(o.Data)
	if err != nil {
		return nil, fmt.Errorf("syncwire: opaque value %T: %w", o.Data, err)
	}
	if len(b) > MaxOpaqueSize {
		return nil, fmt.Errorf("%w: opaque value of %d bytes", ErrOversizeLength, len(b))
	}
	return b, nil
}

// Size encodes v to measure it; there is no cheaper way for arbitrary data.
func (c *opaqueCodec) Size(v Value) int {
	b, err := c.marshal(v)
	if err != nil {
		return -1
	}
	return 4 + len(b)
}

func (c *opaqueCodec) Encode(w *Writer, v Value) {
	b, err := c.marshal(v)
	if err != nil {
		w.Fail(err)
		return
	}
	w.WriteUint32(uint32(len(b)))
	w.WriteBytes(b)
}

func (c *opaqueCodec) Decode(r *Reader) Value {
	n := r.ReadUint32()
	if r.Err() != nil {
		return nil
	}
	if n > MaxOpaqueSize {
		r.Fail(fmt.Errorf("%w: opaque value of %d bytes", ErrOversizeLength, n))
		return nil
	}
	b := r.ReadBytes(int(n))
	if r.Err() != nil {
		return nil
	}
	var data any
	if err := c.dec.Unmarshal(b, &data); err != nil {
		r.Fail(fmt.Errorf("syncwire: opaque value: %w", err))
		return nil
	}
	return Opaque{Data: data}
}

func (c *opaqueCodec) Text(v Value) string {
	b, err := c.marshal(v)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(b)
}

func (c *opaqueCodec) ParseText(s string) (Value, bool) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, false
	}
	var data any
	if err := c.dec.Unmarshal(b, &data); err != nil {
		return nil, false
	}
	return Opaque{Data: data}, true
}
