// Package relay moves messages between the syncwire codecs and a session
// transport. It answers pings, times their responses, sends hand poses from a
// bounded cache of capture buffers and dispatches decoded messages to a
// Handler.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/oy3o/syncwire"
	"github.com/oy3o/syncwire/checkout"
	"github.com/oy3o/syncwire/pose"
)

// Everyone addresses every peer of the session.
const Everyone = ""

// Transport delivers encoded messages. Send must not retain data after it
// returns.
type Transport interface {
	Send(ctx context.Context, target string, data []byte) error
}

// PropertyChannel stores string properties shared by the session.
type PropertyChannel interface {
	SetProperty(ctx context.Context, key, value string) error
}

// Relay is safe for concurrent use, except that a given pose.Hand must only be
// passed to SendPose by its single writer.
type Relay struct {
	transport Transport
	props     PropertyChannel
	catalog   *syncwire.Catalog
	keys      *syncwire.KeyCodec
	handler   Handler
	logger    *slog.Logger
	policy    pose.Policy
	clock     func() time.Time

	poses   *checkout.Pool[*poseEntry]
	breaker *gobreaker.CircuitBreaker[struct{}]
	limiter *rate.Limiter
	pings   pingTracker
	metrics *metrics
}

// poseEntry is a reusable capture buffer.
type poseEntry struct {
	pose pose.HandPose
}

func (e *poseEntry) OnCheckedIn() { e.pose.Reset() }

// New returns a Relay sending through t.
func New(t Transport, opts ...Option) *Relay {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.catalog == nil {
		o.catalog = syncwire.DefaultCatalog()
	}
	if o.keys == nil {
		o.keys = syncwire.NewKeyCodec(syncwire.WithCatalog(o.catalog), syncwire.WithLogger(o.logger))
	}

	r := &Relay{
		transport: t,
		props:     o.props,
		catalog:   o.catalog,
		keys:      o.keys,
		handler:   o.handler,
		logger:    o.logger,
		policy:    o.policy,
		clock:     o.clock,
		limiter:   rate.NewLimiter(o.pingRate, o.pingBurst),
	}
	r.pings.reset()
	r.poses = checkout.New(o.poseCacheSize, func() *poseEntry { return &poseEntry{} },
		checkout.WithLogger(o.logger))
	r.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "relay",
		MaxRequests: o.breaker.MaxRequests,
		Interval:    o.breaker.Interval,
		Timeout:     o.breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= o.breaker.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.logger.Warn("relay: transport breaker changed state",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})
	r.metrics = newMetrics(o.registerer, o.namespace, "relay", r.poses.Stats, r.breaker.State)
	return r
}

// Policy returns the pose serialization policy.
func (r *Relay) Policy() pose.Policy { return r.policy }

// Send encodes m and hands it to the transport.
func (r *Relay) Send(ctx context.Context, target string, m syncwire.Message) error {
	_, err := r.send(ctx, target, m)
	return err
}

func (r *Relay) send(ctx context.Context, target string, m syncwire.Message) (int, error) {
	size, err := r.catalog.Size(m)
	if err != nil {
		return 0, err
	}
	if size > syncwire.MaxFrameSize {
		return 0, fmt.Errorf("%w: message of %d bytes exceeds frame limit %d",
			syncwire.ErrOversizeLength, size, syncwire.MaxFrameSize)
	}

	err = syncwire.Buffers.With(size, func(buf []byte) error {
		if _, err := r.catalog.EncodeTo(buf, m); err != nil {
			return err
		}
		_, err := r.breaker.Execute(func() (struct{}, error) {
			return struct{}{}, r.transport.Send(ctx, target, buf)
		})
		return err
	})
	if err != nil {
		r.metrics.sendErrors.WithLabelValues(m.Kind.String()).Inc()
		return 0, err
	}
	r.metrics.sent.WithLabelValues(m.Kind.String()).Inc()
	return size, nil
}

// SendTransform shares the placement of an object.
func (r *Relay) SendTransform(ctx context.Context, target string, t syncwire.Transform) error {
	return r.Send(ctx, target, syncwire.Message{Kind: syncwire.KindTransform, Value: t})
}

// SendAppMessage sends an application command.
func (r *Relay) SendAppMessage(ctx context.Context, target string, m syncwire.AppMessage) error {
	return r.Send(ctx, target, syncwire.Message{Kind: syncwire.KindAppMessage, Value: m})
}

// SendCommand sends a bare command value.
func (r *Relay) SendCommand(ctx context.Context, target string, v syncwire.Value) error {
	return r.Send(ctx, target, syncwire.Message{Kind: syncwire.KindCommand, Value: v})
}

// SendPose broadcasts the changed joints of h allowed by the relay policy.
// The hand's change flags are cleared only when the update was sent; a hand
// with nothing to send is left untouched. SendPose waits for a free capture
// buffer while the pose cache is exhausted.
func (r *Relay) SendPose(ctx context.Context, h *pose.Hand) error {
	return r.poses.WithContext(ctx, func(e *poseEntry) error {
		pose.Capture(h, r.policy, &e.pose)
		if e.pose.Empty() {
			return nil
		}
		m := syncwire.Message{
			Kind:  syncwire.KindPropertyChanged,
			Value: syncwire.AvatarPose{HandPose: e.pose},
		}
		n, err := r.send(ctx, Everyone, m)
		if err != nil {
			return err
		}
		r.metrics.poseBytes.Observe(float64(n))
		h.Reset()
		return nil
	})
}

// Receive decodes data sent by sender and dispatches it to the handler.
// Ping requests are answered before Receive returns.
func (r *Relay) Receive(ctx context.Context, sender string, data []byte) error {
	m, err := r.catalog.Decode(data)
	if err != nil {
		r.drop(sender, reasonOf(err), err)
		return err
	}
	r.metrics.received.WithLabelValues(m.Kind.String()).Inc()

	if err := r.dispatch(ctx, sender, m); err != nil {
		r.drop(sender, reasonOf(err), err)
		return err
	}
	return nil
}

func (r *Relay) dispatch(ctx context.Context, sender string, m syncwire.Message) error {
	switch m.Kind {
	case syncwire.KindTransform:
		if v, ok := m.Value.(syncwire.Transform); ok {
			r.handler.OnTransform(sender, v)
			return nil
		}
	case syncwire.KindAppMessage:
		if v, ok := m.Value.(syncwire.AppMessage); ok {
			r.handler.OnAppMessage(sender, v)
			return nil
		}
	case syncwire.KindPropertyChanged:
		if v, ok := m.Value.(syncwire.AvatarPose); ok {
			r.handler.OnPose(sender, v.HandPose)
			return nil
		}
	case syncwire.KindCommand:
		r.handler.OnCommand(sender, m.Value)
		return nil
	case syncwire.KindSpawnParameter:
		r.handler.OnSpawnParameter(sender, m.Value)
		return nil
	case syncwire.KindPingRequest:
		if v, ok := m.Value.(syncwire.PingRequest); ok {
			return r.answerPing(ctx, sender, v)
		}
	case syncwire.KindPingResponse:
		if v, ok := m.Value.(syncwire.PingResponse); ok {
			r.pingReturned(sender, v)
			return nil
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnhandledKind, m.Kind)
	}
	return fmt.Errorf("%w: %s message carries %s", syncwire.ErrTypeMismatch, m.Kind, m.Value.Tag())
}

func (r *Relay) drop(sender, reason string, err error) {
	r.metrics.dropped.WithLabelValues(reason).Inc()
	r.logger.Debug("relay: dropping message", "sender", sender, "reason", reason, "error", err)
}

// reasonOf maps an error to a low-cardinality metric label.
func reasonOf(err error) string {
	switch {
	case errors.Is(err, syncwire.ErrUnknownKind):
		return "unknown_kind"
	case errors.Is(err, syncwire.ErrUnknownTag):
		return "unknown_tag"
	case errors.Is(err, syncwire.ErrTruncatedData):
		return "truncated"
	case errors.Is(err, syncwire.ErrTrailingData):
		return "trailing"
	case errors.Is(err, syncwire.ErrMalformedPose):
		return "malformed_pose"
	case errors.Is(err, syncwire.ErrTypeMismatch):
		return "type_mismatch"
	case errors.Is(err, ErrUnhandledKind):
		return "unhandled_kind"
	case errors.Is(err, syncwire.ErrMalformedKey):
		return "malformed_key"
	case errors.Is(err, syncwire.ErrMalformedEncodedValue):
		return "malformed_value"
	}
	return "other"
}
