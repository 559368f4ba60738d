package syncwire

import (
	"fmt"
	"log/slog"
	"sync"
)

// Catalog maps every DataTag to its codec. A Catalog is immutable after
// construction and safe for concurrent use.
type Catalog struct {
	codecs   [256]TypeCodec
	fallback bool
	logger   *slog.Logger
}

// NewCatalog builds a catalog holding every built-in codec.
func NewCatalog(opts ...Option) *Catalog {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	c := &Catalog{logger: o.logger, fallback: o.fallback}
	for _, tc := range builtinCodecs() {
		c.codecs[tc.Tag()] = tc
	}
	if o.fallback {
		c.codecs[TagUnknown] = newOpaqueCodec()
	}
	return c
}

// DefaultCatalog returns the process-wide catalog, built on first use without
// the generic fallback.
var DefaultCatalog = sync.OnceValue(func() *Catalog { return NewCatalog() })

// Lookup returns the codec of tag.
func (c *Catalog) Lookup(tag DataTag) (TypeCodec, bool) {
	tc := c.codecs[tag]
	return tc, tc != nil
}

// TagOf returns the tag v would be encoded under by this catalog, TagUnknown
// when it has no codec for v.
func (c *Catalog) TagOf(v any) DataTag {
	tag := TagOf(v)
	if c.codecs[tag] == nil {
		return TagUnknown
	}
	return tag
}

// Fallback reports whether Opaque values are accepted.
func (c *Catalog) Fallback() bool { return c.fallback }

func (c *Catalog) codecFor(v Value) (TypeCodec, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: nil value", ErrTypeMismatch)
	}
	tc := c.codecs[v.Tag()]
	if tc == nil {
		return nil, fmt.Errorf("%w: %s (%T)", ErrUnknownTag, v.Tag(), v)
	}
	return tc, nil
}

// ValueSize returns the size of a tagged value: tag byte plus payload.
func (c *Catalog) ValueSize(v Value) (int, error) {
	tc, err := c.codecFor(v)
	if err != nil {
		return 0, err
	}
	n := tc.Size(v)
	if n < 0 {
		return 0, fmt.Errorf("%w: %T cannot be sized as %s", ErrTypeMismatch, v, tc.Tag())
	}
	return 1 + n, nil
}

// EncodeValue writes the tag byte and payload of v.
func (c *Catalog) EncodeValue(w *Writer, v Value) {
	tc, err := c.codecFor(v)
	if err != nil {
		w.Fail(err)
		return
	}
	w.WriteUint8(uint8(tc.Tag()))
	tc.Encode(w, v)
}

// DecodeValue reads a tag byte and its payload. An unregistered tag is logged
// and fails with ErrUnknownTag.
func (c *Catalog) DecodeValue(r *Reader) Value {
	tag := DataTag(r.ReadUint8())
	if r.Err() != nil {
		return nil
	}
	tc := c.codecs[tag]
	if tc == nil {
		c.logger.Warn("dropping value with unknown data tag", "tag", uint8(tag))
		r.Fail(fmt.Errorf("%w: %d", ErrUnknownTag, uint8(tag)))
		return nil
	}
	return tc.Decode(r)
}

// Text returns the text form of v without its tag.
func (c *Catalog) Text(v Value) (string, error) {
	tc, err := c.codecFor(v)
	if err != nil {
		return "", err
	}
	return tc.Text(v), nil
}
