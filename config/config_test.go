package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oy3o/syncwire"
	"github.com/oy3o/syncwire/pose"
	"github.com/oy3o/syncwire/relay"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, pose.PolicyNone, cfg.Pose.Policy)
	assert.Equal(t, relay.DefaultPoseCacheSize, cfg.Pose.CacheSize)
	assert.False(t, cfg.Codec.GenericFallback)
	assert.Equal(t, 5*time.Second, cfg.Relay.Breaker.Timeout)
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
codec:
  generic_fallback: true
pose:
  policy: fingertips
  cache_size: 8
relay:
  breaker:
    timeout: 30s
    consecutive_failures: 3
  ping:
    rate: 0.5
    burst: 1
metrics:
  enabled: true
  namespace: game
`))
	require.NoError(t, err)

	assert.True(t, cfg.Codec.GenericFallback)
	assert.Equal(t, 4096, cfg.Codec.KeyCacheSize, "omitted fields keep defaults")
	assert.Equal(t, pose.PolicyFingerTips, cfg.Pose.Policy)
	assert.Equal(t, 8, cfg.Pose.CacheSize)
	assert.Equal(t, 30*time.Second, cfg.Relay.Breaker.Timeout)
	assert.Equal(t, uint32(3), cfg.Relay.Breaker.ConsecutiveFailures)
	assert.Equal(t, 0.5, cfg.Relay.Ping.Rate)
	assert.Equal(t, "game", cfg.Metrics.Namespace)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown policy", "pose:\n  policy: everything\n", "unknown serialization policy"},
		{"unknown field", "pose:\n  colour: red\n", "colour"},
		{"zero cache", "pose:\n  cache_size: 0\n", "pose.cache_size"},
		{"zero failures", "relay:\n  breaker:\n    consecutive_failures: 0\n", "consecutive_failures"},
		{"bad burst", "relay:\n  ping:\n    burst: 0\n", "relay.ping.burst"},
		{"bad namespace", "metrics:\n  enabled: true\n  namespace: 9lives\n", "metrics.namespace"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "syncwire.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pose:\n  policy: rotations\n"), 0o644))

	t.Setenv(EnvVar, path)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, pose.PolicyJointRotations, cfg.Pose.Policy)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadWithoutEnv(t *testing.T) {
	t.Setenv(EnvVar, "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestStringRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Pose.Policy = pose.PolicyFingerTips
	cfg.Relay.Breaker.Interval = time.Minute

	again, err := Parse([]byte(cfg.String()))
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestOptions(t *testing.T) {
	cfg := Default()
	cfg.Codec.GenericFallback = true
	cfg.Metrics.Enabled = true
	cfg.Metrics.Namespace = "test"
	logger := slog.New(slog.DiscardHandler)

	cat, kc := cfg.NewCatalog(logger)
	assert.True(t, cat.Fallback())
	s, err := kc.EncodeValue(syncwire.Opaque{Data: "x"})
	require.NoError(t, err)
	assert.NotEmpty(t, s)

	reg := prometheus.NewRegistry()
	r := relay.New(nil, cfg.RelayOptions(logger, reg)...)
	assert.Equal(t, pose.PolicyNone, r.Policy())
	n, err := testutil.GatherAndCount(reg, "test_relay_pose_cache_available")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
