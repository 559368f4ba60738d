package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"

	"github.com/oy3o/syncwire/checkout"
)

type metrics struct {
	sent       *prometheus.CounterVec
	sendErrors *prometheus.CounterVec
	received   *prometheus.CounterVec
	dropped    *prometheus.CounterVec
	poseBytes  prometheus.Histogram
	latency    prometheus.Histogram

	poseCacheAvailable prometheus.GaugeFunc
	poseCacheWaiting   prometheus.GaugeFunc
	breakerState       prometheus.GaugeFunc
}

func newMetrics(
	registerer prometheus.Registerer,
	namespace, subsystem string,
	poseCache func() checkout.Stats,
	breaker func() gobreaker.State,
) *metrics {
	m := metrics{
		sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_sent_total",
			Help:      "Number of messages handed to the transport",
		}, []string{"kind"}),
		sendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "send_errors_total",
			Help:      "Number of messages that failed to encode or send",
		}, []string{"kind"}),
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_received_total",
			Help:      "Number of messages decoded from peers",
		}, []string{"kind"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_dropped_total",
			Help:      "Number of inbound messages or pings dropped",
		}, []string{"reason"}),
		poseBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pose_message_bytes",
			Help:      "Encoded size of sent pose updates",
			Buckets:   prometheus.ExponentialBuckets(32, 2, 6),
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "ping_latency_seconds",
			Help:      "Round trip of answered pings",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 8),
		}),
		poseCacheAvailable: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pose_cache_available",
			Help:      "Pose capture buffers not checked out",
		}, func() float64 { return float64(poseCache().Available) }),
		poseCacheWaiting: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pose_cache_waiting",
			Help:      "Callers waiting for a pose capture buffer",
		}, func() float64 { return float64(poseCache().Waiting) }),
		breakerState: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "breaker_state",
			Help:      "Transport breaker state: 0 closed, 1 half-open, 2 open",
		}, func() float64 { return float64(breaker()) }),
	}

	if registerer != nil {
		registerer = prometheus.WrapRegistererWith(
			prometheus.Labels{"component": "syncwire"},
			registerer,
		)
		registerer.MustRegister(
			m.sent,
			m.sendErrors,
			m.received,
			m.dropped,
			m.poseBytes,
			m.latency,
			m.poseCacheAvailable,
			m.poseCacheWaiting,
			m.breakerState,
		)
	}

	return &m
}
