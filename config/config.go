// Package config loads process-level syncwire settings from a YAML file and
// turns them into component options.
//
// The file is chosen with the --config flag or the SYNCWIRE_CONFIG
// environment variable. Fields missing from the file keep their defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/oy3o/syncwire"
	"github.com/oy3o/syncwire/pose"
	"github.com/oy3o/syncwire/relay"
)

// EnvVar names the environment variable read by Load.
const EnvVar = "SYNCWIRE_CONFIG"

// Config is the root of the configuration file.
type Config struct {
	Codec   CodecConfig   `yaml:"codec"`
	Pose    PoseConfig    `yaml:"pose"`
	Relay   RelayConfig   `yaml:"relay"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type CodecConfig struct {
	// GenericFallback accepts values outside the built-in set, CBOR encoded
	// under the unknown tag.
	GenericFallback bool `yaml:"generic_fallback"`

	// KeyCacheSize bounds the property key caches.
	// Default: 4096
	KeyCacheSize int `yaml:"key_cache_size"`
}

type PoseConfig struct {
	// Policy is one of none, fingertips, rotations.
	// Default: none
	Policy pose.Policy `yaml:"policy"`

	// CacheSize is the number of capture buffers, which bounds concurrent
	// pose sends.
	// Default: 4
	CacheSize int `yaml:"cache_size"`
}

type RelayConfig struct {
	Breaker BreakerConfig `yaml:"breaker"`
	Ping    PingConfig    `yaml:"ping"`
}

type BreakerConfig struct {
	MaxRequests         uint32        `yaml:"max_requests"`
	Interval            time.Duration `yaml:"interval"`
	Timeout             time.Duration `yaml:"timeout"`
	ConsecutiveFailures uint32        `yaml:"consecutive_failures"`
}

type PingConfig struct {
	// Rate is the sustained number of pings per second.
	// Default: 2
	Rate float64 `yaml:"rate"`
	// Burst is the number of pings allowed at once.
	// Default: 4
	Burst int `yaml:"burst"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// Default returns the configuration used for anything the file omits.
func Default() *Config {
	return &Config{
		Codec: CodecConfig{
			KeyCacheSize: 4096,
		},
		Pose: PoseConfig{
			Policy:    pose.PolicyNone,
			CacheSize: relay.DefaultPoseCacheSize,
		},
		Relay: RelayConfig{
			Breaker: BreakerConfig{
				MaxRequests:         relay.DefaultBreakerSettings.MaxRequests,
				Interval:            relay.DefaultBreakerSettings.Interval,
				Timeout:             relay.DefaultBreakerSettings.Timeout,
				ConsecutiveFailures: relay.DefaultBreakerSettings.ConsecutiveFailures,
			},
			Ping: PingConfig{
				Rate:  float64(relay.DefaultPingRate),
				Burst: relay.DefaultPingBurst,
			},
		},
		Metrics: MetricsConfig{
			Namespace: "syncwire",
		},
	}
}

// Load reads the file named by SYNCWIRE_CONFIG. When the variable is unset
// the defaults are returned.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads and validates a configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// fields are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Codec.KeyCacheSize < 0 {
		errs = append(errs, fmt.Errorf("codec.key_cache_size must not be negative"))
	}
	switch c.Pose.Policy {
	case pose.PolicyNone, pose.PolicyFingerTips, pose.PolicyJointRotations:
	default:
		errs = append(errs, fmt.Errorf("pose.policy must be one of: none, fingertips, rotations"))
	}
	if c.Pose.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("pose.cache_size must be positive"))
	}
	if c.Relay.Breaker.ConsecutiveFailures == 0 {
		errs = append(errs, fmt.Errorf("relay.breaker.consecutive_failures must be positive"))
	}
	if c.Relay.Breaker.Timeout < 0 || c.Relay.Breaker.Interval < 0 {
		errs = append(errs, fmt.Errorf("relay.breaker durations must not be negative"))
	}
	if c.Relay.Ping.Rate < 0 {
		errs = append(errs, fmt.Errorf("relay.ping.rate must not be negative"))
	}
	if c.Relay.Ping.Burst < 1 {
		errs = append(errs, fmt.Errorf("relay.ping.burst must be at least 1"))
	}
	if c.Metrics.Enabled && !validMetricName(c.Metrics.Namespace) {
		errs = append(errs, fmt.Errorf("metrics.namespace %q is not a valid metric name prefix", c.Metrics.Namespace))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func validMetricName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// CatalogOptions returns the options for syncwire.NewCatalog.
func (c *Config) CatalogOptions(logger *slog.Logger) []syncwire.Option {
	opts := []syncwire.Option{syncwire.WithLogger(logger)}
	if c.Codec.GenericFallback {
		opts = append(opts, syncwire.WithGenericFallback())
	}
	return opts
}

// NewCatalog builds the catalog and key codec described by c.
func (c *Config) NewCatalog(logger *slog.Logger) (*syncwire.Catalog, *syncwire.KeyCodec) {
	cat := syncwire.NewCatalog(c.CatalogOptions(logger)...)
	kc := syncwire.NewKeyCodec(
		syncwire.WithCatalog(cat),
		syncwire.WithLogger(logger),
		syncwire.WithKeyCacheSize(c.Codec.KeyCacheSize),
	)
	return cat, kc
}

// RelayOptions returns the options for relay.New. Metrics are registered
// with reg only when enabled.
func (c *Config) RelayOptions(logger *slog.Logger, reg prometheus.Registerer) []relay.Option {
	cat, kc := c.NewCatalog(logger)
	opts := []relay.Option{
		relay.WithLogger(logger),
		relay.WithCatalog(cat),
		relay.WithKeyCodec(kc),
		relay.WithPolicy(c.Pose.Policy),
		relay.WithPoseCacheSize(c.Pose.CacheSize),
		relay.WithBreaker(relay.BreakerSettings{
			MaxRequests:         c.Relay.Breaker.MaxRequests,
			Interval:            c.Relay.Breaker.Interval,
			Timeout:             c.Relay.Breaker.Timeout,
			ConsecutiveFailures: c.Relay.Breaker.ConsecutiveFailures,
		}),
		relay.WithPingRate(rate.Limit(c.Relay.Ping.Rate), c.Relay.Ping.Burst),
	}
	if c.Metrics.Enabled && reg != nil {
		opts = append(opts, relay.WithRegisterer(reg, c.Metrics.Namespace))
	}
	return opts
}

// String renders c as YAML.
func (c *Config) String() string {
	var b strings.Builder
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err.Error()
	}
	_ = enc.Close()
	return b.String()
}
