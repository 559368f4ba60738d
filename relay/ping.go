package relay

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/oy3o/syncwire"
)

// BroadcastPingID marks a ping sent to everyone. A response from any peer
// matches it once.
const BroadcastPingID uint8 = 0xFB

// MaxLatency is reported for responses that match no outstanding ping.
const MaxLatency = time.Duration(math.MaxInt64)

// pingTracker remembers the outstanding ping ids. A broadcast forgets every
// earlier ping.
type pingTracker struct {
	mu        sync.Mutex
	pending   map[string]uint8
	broadcast bool
	answered  map[string]bool
}

func (t *pingTracker) reset() {
	t.pending = make(map[string]uint8)
	t.answered = make(map[string]bool)
	t.broadcast = false
}

func (t *pingTracker) start(target string) uint8 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if target == Everyone {
		t.reset()
		t.broadcast = true
		return BroadcastPingID
	}
	id := targetedPingID(rand.IntN(targetedPingIDs))
	t.pending[target] = id
	return id
}

// targetedPingIDs is the number of ids available to targeted pings: 0x00-0xFE
// without BroadcastPingID.
const targetedPingIDs = 0xFF - 1

// targetedPingID maps n in [0, targetedPingIDs) onto a targeted ping id.
func targetedPingID(n int) uint8 {
	id := uint8(n)
	if id >= BroadcastPingID {
		id++
	}
	return id
}

func (t *pingTracker) cancel(target string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if target == Everyone {
		t.broadcast = false
		return
	}
	delete(t.pending, target)
}

// match consumes the outstanding ping answered by a response.
func (t *pingTracker) match(sender string, id uint8) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if want, ok := t.pending[sender]; ok && want == id {
		delete(t.pending, sender)
		return true
	}
	if t.broadcast && id == BroadcastPingID && !t.answered[sender] {
		t.answered[sender] = true
		return true
	}
	return false
}

// SendPing sends a timed ping to target, or to everyone when target is
// Everyone. The round trip is reported through Handler.OnLatency.
func (r *Relay) SendPing(ctx context.Context, target string) error {
	if !r.limiter.Allow() {
		r.metrics.dropped.WithLabelValues("ping_rate_limited").Inc()
		return ErrPingRateLimited
	}
	id := r.pings.start(target)
	req := syncwire.PingRequest{ID: id, SentAt: r.clock().UnixNano()}
	if err := r.Send(ctx, target, syncwire.Message{Kind: syncwire.KindPingRequest, Value: req}); err != nil {
		r.pings.cancel(target)
		return err
	}
	return nil
}

func (r *Relay) answerPing(ctx context.Context, sender string, req syncwire.PingRequest) error {
	resp := syncwire.PingResponse{ID: req.ID, RequestSentAt: req.SentAt}
	return r.Send(ctx, sender, syncwire.Message{Kind: syncwire.KindPingResponse, Value: resp})
}

func (r *Relay) pingReturned(sender string, resp syncwire.PingResponse) {
	d := MaxLatency
	if r.pings.match(sender, resp.ID) {
		d = max(r.clock().Sub(time.Unix(0, resp.RequestSentAt)), 0)
		r.metrics.latency.Observe(d.Seconds())
	} else {
		r.logger.Debug("relay: unexpected ping response", "sender", sender, "id", resp.ID)
	}
	r.handler.OnLatency(sender, d)
}
