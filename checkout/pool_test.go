package checkout

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type entry struct {
	id         int
	out, in    int
	checkedOut bool
}

func (e *entry) OnCheckedOut() { e.out++; e.checkedOut = true }
func (e *entry) OnCheckedIn()  { e.in++; e.checkedOut = false }

func newPool(n int, opts ...Option) *Pool[*entry] {
	id := 0
	return New(n, func() *entry { id++; return &entry{id: id} }, opts...)
}

// receiveWithin waits up to d for a value on ch.
func receiveWithin[T any](ch <-chan T, d time.Duration) (T, bool) {
	select {
	case v := <-ch:
		return v, true
	case <-time.After(d):
		var zero T
		return zero, false
	}
}

type PoolTestSuite struct {
	suite.Suite
	logs bytes.Buffer
	pool *Pool[*entry]
}

func (s *PoolTestSuite) SetupTest() {
	s.logs.Reset()
	s.pool = newPool(2, WithLogger(slog.New(slog.NewTextHandler(&s.logs, nil))))
}

func (s *PoolTestSuite) TestThirdCheckoutBlocksUntilCheckIn() {
	a := s.pool.Checkout()
	b := s.pool.Checkout()
	s.NotSame(a, b)

	got := make(chan *entry, 1)
	go func() { got <- s.pool.Checkout() }()

	_, ok := receiveWithin(got, 50*time.Millisecond)
	s.False(ok, "third checkout must block")

	s.pool.CheckIn(a)
	e, ok := receiveWithin(got, time.Second)
	s.Require().True(ok, "check-in must unblock the waiter")
	s.Same(a, e)
}

func (s *PoolTestSuite) TestFirstFreeSlotAndHooks() {
	a := s.pool.Checkout()
	s.Equal(1, a.id)
	s.True(a.checkedOut)
	s.Equal(1, a.out)

	s.pool.CheckIn(a)
	s.False(a.checkedOut)
	s.Equal(1, a.in)

	again := s.pool.Checkout()
	s.Same(a, again, "first free slot is reused")
}

func (s *PoolTestSuite) TestMisuse() {
	s.pool.CheckIn(nil)
	s.Contains(s.logs.String(), "nil entry")

	foreign := &entry{id: 99}
	s.pool.CheckIn(foreign)
	s.Zero(foreign.in, "foreign entries are not touched")

	a := s.pool.Checkout()
	s.pool.CheckIn(a)
	s.pool.CheckIn(a) // already available
	s.Equal(1, a.in)

	st := s.pool.Stats()
	s.Equal(Stats{Capacity: 2, Available: 2}, st)
}

func (s *PoolTestSuite) TestWithReleasesOnPanic() {
	s.Panics(func() {
		_ = s.pool.With(func(e *entry) error { panic("work failed") })
	})
	s.Equal(2, s.pool.Stats().Available)

	err := s.pool.With(func(e *entry) error {
		s.Equal(1, s.pool.Stats().CheckedOut)
		return context.Canceled
	})
	s.ErrorIs(err, context.Canceled)
	s.Equal(2, s.pool.Stats().Available)
}

func (s *PoolTestSuite) TestLeaseAndMove() {
	l := s.pool.Lease()
	e := l.Entry()
	s.NotNil(e)

	h := l.Move()
	s.Require().NotNil(h)
	s.Nil(l.Entry())
	l.Release() // no-op after move
	s.Nil(l.Move())
	s.Equal(1, s.pool.Stats().CheckedOut)

	s.Same(e, h.Entry())
	h.Release()
	h.Release()
	s.Equal(0, s.pool.Stats().CheckedOut)
	s.Equal(1, e.in)

	l2 := s.pool.Lease()
	l2.Release()
	l2.Release()
	s.Equal(2, s.pool.Stats().Available)
}

func (s *PoolTestSuite) TestWithLease() {
	var held *Held[*entry]
	err := s.pool.WithLease(func(l *Lease[*entry]) error {
		held = l.Move()
		return nil
	})
	s.Require().NoError(err)
	s.Equal(1, s.pool.Stats().CheckedOut, "moved entry outlives the scope")
	held.Release()

	_ = s.pool.WithLease(func(l *Lease[*entry]) error { return nil })
	s.Equal(2, s.pool.Stats().Available)
}

func (s *PoolTestSuite) TestCheckoutContext() {
	s.pool.Checkout()
	s.pool.Checkout()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.pool.CheckoutContext(ctx)
	s.ErrorIs(err, context.DeadlineExceeded)

	_, ok := s.pool.TryCheckout()
	s.False(ok)
	s.Zero(s.pool.Stats().Waiting)
}

func (s *PoolTestSuite) TestOneWaiterWokenPerCheckIn() {
	a := s.pool.Checkout()
	b := s.pool.Checkout()

	got := make(chan *entry, 3)
	for range 3 {
		go func() { got <- s.pool.Checkout() }()
	}
	s.Eventually(func() bool { return s.pool.Stats().Waiting == 3 }, time.Second, time.Millisecond)

	s.pool.CheckIn(a)
	first, ok := receiveWithin(got, time.Second)
	s.Require().True(ok)
	_, ok = receiveWithin(got, 50*time.Millisecond)
	s.False(ok, "a single check-in wakes a single waiter")
	s.Equal(2, s.pool.Stats().Waiting)

	s.pool.CheckIn(first)
	s.pool.CheckIn(b)
	for range 2 {
		_, ok := receiveWithin(got, time.Second)
		s.True(ok)
	}
}

func TestPool(t *testing.T) {
	suite.Run(t, new(PoolTestSuite))
}

func TestNewPanics(t *testing.T) {
	assert.Panics(t, func() { New(0, func() *entry { return &entry{} }) })
	assert.Panics(t, func() { New(2, func() *entry { return nil }) })
	shared := &entry{}
	assert.Panics(t, func() { New(2, func() *entry { return shared }) })
}

func TestPoolConservation(t *testing.T) {
	const size, workers, rounds = 4, 16, 200
	p := newPool(size)

	var inUse sync.Map
	var violations atomic.Int64
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range rounds {
				_ = p.With(func(e *entry) error {
					if _, dup := inUse.LoadOrStore(e, true); dup {
						violations.Add(1)
					}
					st := p.Stats()
					if st.Available+st.CheckedOut != size {
						violations.Add(1)
					}
					inUse.Delete(e)
					return nil
				})
			}
		}()
	}
	wg.Wait()

	require.Zero(t, violations.Load())
	assert.Equal(t, Stats{Capacity: size, Available: size}, p.Stats())
}

// gatedEntry blocks in OnCheckedIn until released.
type gatedEntry struct {
	entered chan struct{}
	release chan struct{}
	in      atomic.Int32
}

func (e *gatedEntry) OnCheckedIn() {
	e.in.Add(1)
	e.entered <- struct{}{}
	<-e.release
}

func TestConcurrentCheckInRunsHookOnce(t *testing.T) {
	p := New(1, func() *gatedEntry {
		return &gatedEntry{entered: make(chan struct{}, 2), release: make(chan struct{})}
	})
	e := p.Checkout()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.CheckIn(e)
	}()
	_, ok := receiveWithin(e.entered, time.Second)
	require.True(t, ok)

	// The first check-in is parked inside the hook; the second must not
	// enter it or return the entry a second time.
	p.CheckIn(e)
	assert.Equal(t, int32(1), e.in.Load())
	assert.Equal(t, Stats{Capacity: 1, CheckedOut: 1}, p.Stats())

	close(e.release)
	wg.Wait()
	assert.Equal(t, int32(1), e.in.Load())
	assert.Equal(t, Stats{Capacity: 1, Available: 1}, p.Stats())

	got, ok := p.TryCheckout()
	require.True(t, ok)
	assert.Same(t, e, got)
	_, ok = p.TryCheckout()
	assert.False(t, ok, "the entry was returned once")
}
