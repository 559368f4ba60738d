package syncwire

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"
)

// KeySeparator separates owner from name and tag from text.
const KeySeparator = ':'

// minEncodedLen is the shortest string Decode accepts as a key and
// DecodeValue accepts as a value.
const minEncodedLen = 3

// PropertyKey names a shared property. An empty Owner is the global scope.
type PropertyKey struct {
	Owner string
	Name  string
}

// Global reports whether k is not scoped to an owner.
func (k PropertyKey) Global() bool { return k.Owner == "" }

func (k PropertyKey) String() string { return k.Owner + string(KeySeparator) + k.Name }

// KeyCodec maps property keys and values to the flat strings used by
// string-only property channels. Owners must not contain the separator;
// names may, since decoding splits on the first one. KeyCodec is safe for
// concurrent use.
type KeyCodec struct {
	catalog  *Catalog
	logger   *slog.Logger
	keys     *xsync.Map[PropertyKey, string]
	keyCount atomic.Int64
	keyMax   int64
	interned *internTable
}

// NewKeyCodec returns a KeyCodec with its own caches.
func NewKeyCodec(opts ...Option) *KeyCodec {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.catalog == nil {
		o.catalog = DefaultCatalog()
	}
	return &KeyCodec{
		catalog:  o.catalog,
		logger:   o.logger,
		keys:     xsync.NewMap[PropertyKey, string](),
		keyMax:   int64(o.keyCacheMax),
		interned: newInternTable(o.internMax),
	}
}

// DefaultKeyCodec returns the process-wide KeyCodec over DefaultCatalog.
var DefaultKeyCodec = sync.OnceValue(func() *KeyCodec { return NewKeyCodec() })

// Encode returns "owner:name". Repeated calls with the same pair return the
// same string while the cache has room.
func (kc *KeyCodec) Encode(owner, name string) (string, error) {
	k := PropertyKey{Owner: owner, Name: name}
	if s, ok := kc.keys.Load(k); ok {
		return s, nil
	}
	if strings.IndexByte(owner, KeySeparator) >= 0 {
		return "", fmt.Errorf("%w: owner %q contains %q", ErrMalformedKey, owner, KeySeparator)
	}
	s := k.String()
	if name == "" || len(s) < minEncodedLen {
		return "", fmt.Errorf("%w: %q is too short to decode", ErrMalformedKey, s)
	}
	if kc.keyCount.Load() >= kc.keyMax {
		return s, nil
	}
	s, loaded := kc.keys.LoadOrStore(k, s)
	if !loaded {
		kc.keyCount.Add(1)
	}
	return s, nil
}

// EncodeKey is Encode for a PropertyKey.
func (kc *KeyCodec) EncodeKey(k PropertyKey) (string, error) {
	return kc.Encode(k.Owner, k.Name)
}

// Decode splits s on its first separator. It fails when s is shorter than
// three bytes, has no separator or has an empty name.
func (kc *KeyCodec) Decode(s string) (PropertyKey, bool) {
	if len(s) < minEncodedLen {
		return PropertyKey{}, false
	}
	i := strings.IndexByte(s, KeySeparator)
	if i < 0 || i == len(s)-1 {
		return PropertyKey{}, false
	}
	return PropertyKey{
		Owner: kc.interned.intern(s[:i]),
		Name:  kc.interned.intern(s[i+1:]),
	}, true
}

// EncodeValue returns "<tag>:<text>" for v. A nil v encodes as "". Values
// whose text is too short to decode, such as an empty String, are rejected.
func (kc *KeyCodec) EncodeValue(v Value) (string, error) {
	if v == nil {
		return "", nil
	}
	text, err := kc.catalog.Text(v)
	if err != nil {
		return "", err
	}
	enc := strconv.Itoa(int(v.Tag())) + string(KeySeparator) + text
	if len(enc) < minEncodedLen {
		return "", fmt.Errorf("%w: %q is too short to decode", ErrMalformedEncodedValue, enc)
	}
	return enc, nil
}

// DecodeValue parses the output of EncodeValue. An empty s decodes to a nil
// Value without error; any other input shorter than three bytes is malformed.
func (kc *KeyCodec) DecodeValue(s string) (Value, error) {
	if s == "" {
		return nil, nil
	}
	if len(s) < minEncodedLen {
		return nil, fmt.Errorf("%w: %q is too short", ErrMalformedEncodedValue, s)
	}
	i := strings.IndexByte(s, KeySeparator)
	if i <= 0 {
		return nil, fmt.Errorf("%w: %q", ErrMalformedEncodedValue, s)
	}
	n, err := strconv.ParseUint(s[:i], 10, 8)
	if err != nil {
		kc.logger.Error("cannot parse data tag of encoded value", "value", s, "error", err)
		return nil, fmt.Errorf("%w: tag %q", ErrUnknownTag, s[:i])
	}
	tc, ok := kc.catalog.Lookup(DataTag(n))
	if !ok {
		kc.logger.Error("encoded value has unknown data tag", "tag", n)
		return nil, fmt.Errorf("%w: %d", ErrUnknownTag, n)
	}
	v, ok := tc.ParseText(s[i+1:])
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a valid %s", ErrMalformedEncodedValue, s[i+1:], tc.Tag())
	}
	return v, nil
}
