package relay

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/oy3o/syncwire"
	"github.com/oy3o/syncwire/pose"
)

// BreakerSettings tune the circuit breaker guarding the transport.
type BreakerSettings struct {
	// MaxRequests is the number of probes allowed while half-open.
	MaxRequests uint32
	// Interval clears the failure counts while closed. Zero never clears.
	Interval time.Duration
	// Timeout is how long the breaker stays open.
	Timeout time.Duration
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
}

// DefaultBreakerSettings is used unless WithBreaker is given.
var DefaultBreakerSettings = BreakerSettings{
	MaxRequests:         1,
	Timeout:             5 * time.Second,
	ConsecutiveFailures: 5,
}

const (
	DefaultPoseCacheSize = 4
	DefaultPingRate      = rate.Limit(2)
	DefaultPingBurst     = 4
)

type options struct {
	handler       Handler
	props         PropertyChannel
	catalog       *syncwire.Catalog
	keys          *syncwire.KeyCodec
	logger        *slog.Logger
	policy        pose.Policy
	poseCacheSize int
	breaker       BreakerSettings
	pingRate      rate.Limit
	pingBurst     int
	registerer    prometheus.Registerer
	namespace     string
	clock         func() time.Time
}

// Option configures a Relay.
type Option func(*options)

func defaultOptions() options {
	return options{
		handler:       NopHandler{},
		logger:        slog.Default(),
		policy:        pose.PolicyNone,
		poseCacheSize: DefaultPoseCacheSize,
		breaker:       DefaultBreakerSettings,
		pingRate:      DefaultPingRate,
		pingBurst:     DefaultPingBurst,
		namespace:     "syncwire",
		clock:         time.Now,
	}
}

func WithHandler(h Handler) Option {
	return func(o *options) {
		if h != nil {
			o.handler = h
		}
	}
}

// WithPropertyChannel enables PublishProperty.
func WithPropertyChannel(p PropertyChannel) Option {
	return func(o *options) { o.props = p }
}

func WithCatalog(c *syncwire.Catalog) Option {
	return func(o *options) { o.catalog = c }
}

// WithKeyCodec sets the codec used for property keys and values. By default
// the relay builds one over its catalog.
func WithKeyCodec(kc *syncwire.KeyCodec) Option {
	return func(o *options) { o.keys = kc }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPolicy selects which finger joints SendPose transmits.
func WithPolicy(p pose.Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithPoseCacheSize bounds the number of concurrent SendPose calls.
func WithPoseCacheSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.poseCacheSize = n
		}
	}
}

func WithBreaker(s BreakerSettings) Option {
	return func(o *options) {
		if s.ConsecutiveFailures == 0 {
			s.ConsecutiveFailures = DefaultBreakerSettings.ConsecutiveFailures
		}
		o.breaker = s
	}
}

// WithPingRate limits SendPing to limit pings per second with the given burst.
func WithPingRate(limit rate.Limit, burst int) Option {
	return func(o *options) {
		o.pingRate = limit
		o.pingBurst = burst
	}
}

// WithRegisterer registers the relay metrics under namespace. Without it the
// metrics are collected but never exported.
func WithRegisterer(reg prometheus.Registerer, namespace string) Option {
	return func(o *options) {
		o.registerer = reg
		if namespace != "" {
			o.namespace = namespace
		}
	}
}

func withClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}
