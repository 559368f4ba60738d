package relay

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/time/rate"

	"github.com/oy3o/syncwire"
	"github.com/oy3o/syncwire/pose"
)

type packet struct {
	target string
	data   []byte
}

// memTransport records every packet it is asked to send.
type memTransport struct {
	mu      sync.Mutex
	packets []packet
	err     error
}

func (t *memTransport) Send(_ context.Context, target string, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	t.packets = append(t.packets, packet{target: target, data: bytes.Clone(data)})
	return nil
}

func (t *memTransport) take() []packet {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.packets
	t.packets = nil
	return p
}

type memProperties map[string]string

func (p memProperties) SetProperty(_ context.Context, key, value string) error {
	p[key] = value
	return nil
}

type event struct {
	kind   string
	sender string
	value  any
}

type recorder struct {
	mu     sync.Mutex
	events []event
}

func (r *recorder) add(kind, sender string, v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{kind, sender, v})
}

func (r *recorder) OnTransform(s string, t syncwire.Transform)   { r.add("transform", s, t) }
func (r *recorder) OnAppMessage(s string, m syncwire.AppMessage) { r.add("app", s, m) }
func (r *recorder) OnPose(s string, p pose.HandPose)             { r.add("pose", s, p) }
func (r *recorder) OnCommand(s string, v syncwire.Value)         { r.add("command", s, v) }
func (r *recorder) OnSpawnParameter(s string, v syncwire.Value)  { r.add("spawn", s, v) }
func (r *recorder) OnLatency(s string, d time.Duration)          { r.add("latency", s, d) }
func (r *recorder) OnProperty(k syncwire.PropertyKey, v syncwire.Value) {
	r.add("property", k.String(), v)
}

func (r *recorder) last() event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return event{}
	}
	return r.events[len(r.events)-1]
}

// fakeClock advances only when told to.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var wristPose = pose.Pose{
	Position: pose.Vec3{X: 0.1, Y: 1.2, Z: 0.3},
	Rotation: pose.Identity,
}

type RelayTestSuite struct {
	suite.Suite
	ctx   context.Context
	clock *fakeClock

	wireA, wireB *memTransport
	recA, recB   *recorder
	a, b         *Relay
}

func (s *RelayTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s.wireA, s.wireB = &memTransport{}, &memTransport{}
	s.recA, s.recB = &recorder{}, &recorder{}
	s.a = New(s.wireA, WithHandler(s.recA), withClock(s.clock.Now), WithPolicy(pose.PolicyFingerTips))
	s.b = New(s.wireB, WithHandler(s.recB), withClock(s.clock.Now))
}

// deliver feeds everything a sent into b as coming from sender.
func (s *RelayTestSuite) deliver(from *memTransport, to *Relay, sender string) {
	for _, p := range from.take() {
		s.Require().NoError(to.Receive(s.ctx, sender, p.data))
	}
}

func (s *RelayTestSuite) TestTransformAndAppMessage() {
	tr := syncwire.Transform{
		Target:   "crate",
		Position: pose.Vec3{X: 1, Y: 2, Z: 3},
		Rotation: pose.Identity,
		Scale:    pose.Vec3{X: 1, Y: 1, Z: 1},
	}
	s.Require().NoError(s.a.SendTransform(s.ctx, Everyone, tr))
	s.deliver(s.wireA, s.b, "alice")
	s.Equal(event{"transform", "alice", tr}, s.recB.last())

	msg := syncwire.AppMessage{Target: "door", Command: "open", Data: []byte{7}}
	s.Require().NoError(s.a.SendAppMessage(s.ctx, "bob", msg))
	packets := s.wireA.packets
	s.Require().Len(packets, 1)
	s.Equal("bob", packets[0].target)
	s.deliver(s.wireA, s.b, "alice")
	s.Equal(event{"app", "alice", msg}, s.recB.last())

	s.Require().NoError(s.a.SendCommand(s.ctx, Everyone, syncwire.String("reset")))
	s.deliver(s.wireA, s.b, "alice")
	s.Equal(event{"command", "alice", syncwire.String("reset")}, s.recB.last())
}

func (s *RelayTestSuite) TestSendPoseClearsFlagsOnSuccess() {
	h := pose.NewHand(pose.Right)
	s.Require().True(h.SetPose(pose.Wrist, wristPose))
	s.Require().True(h.SetPose(pose.IndexTipJoint, wristPose))
	s.Require().True(h.SetRotation(pose.IndexDistalJoint, pose.Identity))

	s.Require().NoError(s.a.SendPose(s.ctx, h))
	s.Equal(pose.None, h.Flags())

	s.deliver(s.wireA, s.b, "alice")
	ev := s.recB.last()
	s.Equal("pose", ev.kind)
	got := ev.value.(pose.HandPose)
	s.Equal(pose.Right, got.Side)
	s.True(got.HasPrimary)
	s.Equal(wristPose, got.Primary)
	s.Require().Len(got.Joints, 1, "fingertip policy drops rotations")
	s.Equal(pose.IndexTipJoint, got.Joints[0].Joint)

	// Nothing changed: nothing is sent.
	s.Require().NoError(s.a.SendPose(s.ctx, h))
	s.Empty(s.wireA.take())
	s.Equal(1.0, testutil.ToFloat64(s.a.metrics.sent.WithLabelValues("property_changed")))
}

func (s *RelayTestSuite) TestSendPoseKeepsFlagsOnFailure() {
	s.wireA.err = errors.New("link down")
	h := pose.NewHand(pose.Left)
	s.Require().True(h.SetPose(pose.Wrist, wristPose))

	err := s.a.SendPose(s.ctx, h)
	s.ErrorContains(err, "link down")
	s.Equal(pose.HandFlag, h.Flags())
	s.Equal(DefaultPoseCacheSize, s.a.poses.Stats().Available)
}

func (s *RelayTestSuite) TestTargetedPing() {
	s.Require().NoError(s.a.SendPing(s.ctx, "bob"))
	reqs := s.wireA.take()
	s.Require().Len(reqs, 1)
	s.Equal("bob", reqs[0].target)

	// b answers automatically, addressed to the sender.
	s.Require().NoError(s.b.Receive(s.ctx, "alice", reqs[0].data))
	resps := s.wireB.take()
	s.Require().Len(resps, 1)
	s.Equal("alice", resps[0].target)

	s.clock.Advance(15 * time.Millisecond)
	s.Require().NoError(s.a.Receive(s.ctx, "bob", resps[0].data))
	s.Equal(event{"latency", "bob", 15 * time.Millisecond}, s.recA.last())

	// The same response again no longer matches.
	s.Require().NoError(s.a.Receive(s.ctx, "bob", resps[0].data))
	s.Equal(event{"latency", "bob", MaxLatency}, s.recA.last())
}

func (s *RelayTestSuite) TestTargetedPingIDNeverBroadcast() {
	a := New(s.wireA, WithPingRate(rate.Inf, 0))
	for range 500 {
		s.Require().NoError(a.SendPing(s.ctx, "bob"))
	}
	for _, p := range s.wireA.take() {
		m, err := syncwire.DefaultCatalog().Decode(p.data)
		s.Require().NoError(err)
		s.NotEqual(BroadcastPingID, m.Value.(syncwire.PingRequest).ID)
	}

	seen := make(map[uint8]bool)
	for n := range targetedPingIDs {
		id := targetedPingID(n)
		s.NotEqual(BroadcastPingID, id)
		s.LessOrEqual(id, uint8(0xFE))
		seen[id] = true
	}
	s.Len(seen, targetedPingIDs)
}

func (s *RelayTestSuite) TestBroadcastPingMatchesEachPeerOnce() {
	s.Require().NoError(s.a.SendPing(s.ctx, Everyone))
	reqs := s.wireA.take()
	s.Require().Len(reqs, 1)
	m, err := syncwire.DefaultCatalog().Decode(reqs[0].data)
	s.Require().NoError(err)
	s.Equal(BroadcastPingID, m.Value.(syncwire.PingRequest).ID)

	s.Require().NoError(s.b.Receive(s.ctx, "alice", reqs[0].data))
	resp := s.wireB.take()[0].data

	s.clock.Advance(40 * time.Millisecond)
	s.Require().NoError(s.a.Receive(s.ctx, "bob", resp))
	s.Equal(event{"latency", "bob", 40 * time.Millisecond}, s.recA.last())
	s.Require().NoError(s.a.Receive(s.ctx, "carol", resp))
	s.Equal(event{"latency", "carol", 40 * time.Millisecond}, s.recA.last())
	s.Require().NoError(s.a.Receive(s.ctx, "bob", resp))
	s.Equal(event{"latency", "bob", MaxLatency}, s.recA.last())
}

func (s *RelayTestSuite) TestUnexpectedPingResponse() {
	data, err := syncwire.DefaultCatalog().Encode(syncwire.Message{
		Kind:  syncwire.KindPingResponse,
		Value: syncwire.PingResponse{ID: 3, RequestSentAt: s.clock.Now().UnixNano()},
	})
	s.Require().NoError(err)
	s.Require().NoError(s.a.Receive(s.ctx, "mallory", data))
	s.Equal(event{"latency", "mallory", MaxLatency}, s.recA.last())
}

func (s *RelayTestSuite) TestPingRateLimit() {
	a := New(s.wireA, WithPingRate(rate.Every(time.Hour), 1))
	s.Require().NoError(a.SendPing(s.ctx, "bob"))
	s.ErrorIs(a.SendPing(s.ctx, "bob"), ErrPingRateLimited)
	s.Len(s.wireA.take(), 1)
	s.Equal(1.0, testutil.ToFloat64(a.metrics.dropped.WithLabelValues("ping_rate_limited")))
}

func (s *RelayTestSuite) TestBreakerOpensAfterConsecutiveFailures() {
	var logs bytes.Buffer
	wire := &memTransport{err: errors.New("link down")}
	r := New(wire,
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
		WithBreaker(BreakerSettings{MaxRequests: 1, Timeout: time.Minute, ConsecutiveFailures: 2}))

	cmd := syncwire.Bool(true)
	s.ErrorContains(r.SendCommand(s.ctx, Everyone, cmd), "link down")
	s.ErrorContains(r.SendCommand(s.ctx, Everyone, cmd), "link down")

	wire.err = nil
	s.ErrorIs(r.SendCommand(s.ctx, Everyone, cmd), gobreaker.ErrOpenState)
	s.Empty(wire.take(), "open breaker must not reach the transport")
	s.Contains(logs.String(), "breaker changed state")
	s.Equal(2.0, testutil.ToFloat64(r.metrics.breakerState))
	s.Equal(3.0, testutil.ToFloat64(r.metrics.sendErrors.WithLabelValues("command")))
}

func (s *RelayTestSuite) TestEncodeErrorsBypassBreaker() {
	r := New(s.wireA, WithBreaker(BreakerSettings{ConsecutiveFailures: 1, Timeout: time.Minute}))
	err := r.SendCommand(s.ctx, Everyone, syncwire.Opaque{Data: 1})
	s.ErrorIs(err, syncwire.ErrUnknownTag)
	s.Equal(gobreaker.StateClosed, r.breaker.State())
}

func (s *RelayTestSuite) TestReceiveRejects() {
	tests := []struct {
		name   string
		data   []byte
		err    error
		reason string
	}{
		{"unknown kind", []byte{3, byte(syncwire.TagBool), 1}, syncwire.ErrUnknownKind, "unknown_kind"},
		{"unknown tag", []byte{byte(syncwire.KindCommand), 99}, syncwire.ErrUnknownTag, "unknown_tag"},
		{"truncated", []byte{byte(syncwire.KindCommand), byte(syncwire.TagInt), 1}, syncwire.ErrTruncatedData, "truncated"},
		{"wrong value for kind", []byte{byte(syncwire.KindTransform), byte(syncwire.TagBool), 1}, syncwire.ErrTypeMismatch, "type_mismatch"},
		{"unhandled kind", []byte{byte(syncwire.KindUnknown), byte(syncwire.TagBool), 1}, ErrUnhandledKind, "unhandled_kind"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			r := New(s.wireA, WithLogger(slog.New(slog.DiscardHandler)))
			s.ErrorIs(r.Receive(s.ctx, "x", tt.data), tt.err)
			s.Equal(1.0, testutil.ToFloat64(r.metrics.dropped.WithLabelValues(tt.reason)))
		})
	}
}

func (s *RelayTestSuite) TestProperties() {
	props := memProperties{}
	a := New(s.wireA, WithPropertyChannel(props))
	key := syncwire.PropertyKey{Owner: "p1", Name: "color"}
	v := syncwire.Color{R: 1, G: 0.5, B: 0, A: 1}
	s.Require().NoError(a.PublishProperty(s.ctx, key, v))
	s.Require().Len(props, 1)

	for k, val := range props {
		s.Equal("p1:color", k)
		s.Require().NoError(s.b.PropertyUpdated(k, val))
	}
	s.Equal(event{"property", "p1:color", syncwire.Value(v)}, s.recB.last())

	s.Require().NoError(s.b.PropertyUpdated("p1:color", ""))
	s.Nil(s.recB.last().value)

	s.ErrorIs(s.b.PropertyUpdated("x", "1:true"), syncwire.ErrMalformedKey)
	s.ErrorIs(s.b.PropertyUpdated("p1:color", "99:x"), syncwire.ErrUnknownTag)
	s.ErrorIs(s.b.PublishProperty(s.ctx, key, v), ErrNoPropertyChannel)
}

func (s *RelayTestSuite) TestSpawnParameters() {
	s.Require().NoError(s.a.Send(s.ctx, Everyone, syncwire.Message{
		Kind: syncwire.KindSpawnParameter, Value: syncwire.Int(9),
	}))
	s.deliver(s.wireA, s.b, "alice")
	s.Equal(event{"spawn", "alice", syncwire.Value(syncwire.Int(9))}, s.recB.last())
}

func (s *RelayTestSuite) TestMetricsRegistered() {
	reg := prometheus.NewRegistry()
	r := New(s.wireA, WithRegisterer(reg, "game"))
	s.Require().NoError(r.SendCommand(s.ctx, Everyone, syncwire.Bool(true)))

	n, err := testutil.GatherAndCount(reg,
		"game_relay_messages_sent_total",
		"game_relay_pose_cache_available",
		"game_relay_breaker_state")
	s.Require().NoError(err)
	s.Equal(3, n)
	s.Equal(float64(DefaultPoseCacheSize), testutil.ToFloat64(r.metrics.poseCacheAvailable))
}

func TestRelaySuite(t *testing.T) {
	suite.Run(t, new(RelayTestSuite))
}

func TestWrapUnwrap(t *testing.T) {
	c := syncwire.DefaultCatalog()
	params := []syncwire.Value{syncwire.String("crate"), syncwire.Int(3), syncwire.Bool(false)}

	wrapped, err := Wrap(c, params)
	require.NoError(t, err)
	require.Len(t, wrapped, 3)

	got, err := Unwrap(c, wrapped)
	require.NoError(t, err)
	assert.Equal(t, params, got)

	empty, err := Wrap(c, nil)
	require.NoError(t, err)
	assert.Nil(t, empty)

	cmd, err := c.Encode(syncwire.Message{Kind: syncwire.KindCommand, Value: syncwire.Int(1)})
	require.NoError(t, err)
	_, err = Unwrap(c, [][]byte{wrapped[0], cmd})
	assert.ErrorIs(t, err, ErrNotSpawnParameter)
}

func TestConcurrentSendPose(t *testing.T) {
	wire := &memTransport{}
	r := New(wire, WithPoseCacheSize(2), WithPolicy(pose.PolicyJointRotations))

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			side := pose.Left
			if i%2 == 0 {
				side = pose.Right
			}
			h := pose.NewHand(side)
			h.SetPose(pose.Wrist, wristPose)
			h.SetRotation(pose.ThumbDistalJoint, pose.Identity)
			assert.NoError(t, r.SendPose(context.Background(), h))
			assert.Equal(t, pose.None, h.Flags())
		}()
	}
	wg.Wait()

	assert.Len(t, wire.take(), 16)
	assert.Equal(t, 2, r.poses.Stats().Available)
}
