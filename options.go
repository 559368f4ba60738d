package syncwire

import "log/slog"

type options struct {
	logger      *slog.Logger
	fallback    bool
	catalog     *Catalog
	keyCacheMax int
	internMax   int
}

// Option configures a Catalog or a KeyCodec.
type Option func(*options)

func defaultOptions() options {
	return options{
		logger:      slog.Default(),
		keyCacheMax: 4096,
		internMax:   4096,
	}
}

// WithLogger sets the logger used for dropped or malformed data.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithGenericFallback accepts Opaque values under TagUnknown, CBOR encoded.
// Without it TagUnknown is rejected like any unregistered tag.
func WithGenericFallback() Option {
	return func(o *options) { o.fallback = true }
}

// WithCatalog sets the catalog a KeyCodec uses for value text.
func WithCatalog(c *Catalog) Option {
	return func(o *options) { o.catalog = c }
}

// WithKeyCacheSize bounds the number of encoded keys a KeyCodec remembers
// and the number of strings it interns while decoding.
func WithKeyCacheSize(n int) Option {
	return func(o *options) {
		o.keyCacheMax = n
		o.internMax = n
	}
}
