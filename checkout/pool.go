// Package checkout provides a fixed-capacity pool of pre-allocated entries
// that callers borrow under mutual exclusion. Checkout blocks while every
// entry is out.
package checkout

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// CheckedOutHook is implemented by entries that want to know when they are
// handed out.
type CheckedOutHook interface {
	OnCheckedOut()
}

// CheckedInHook is implemented by entries that want to reset themselves when
// returned.
type CheckedInHook interface {
	OnCheckedIn()
}

// Pool holds N entries. Each entry is either available or checked out, never
// both. The zero value of T marks an empty slot, so entries are usually
// pointers.
type Pool[T comparable] struct {
	mu      sync.Mutex
	slots   []T              // available entries; zero value = empty slot
	state   map[T]entryState // membership
	free    *semaphore.Weighted
	waiting atomic.Int64
	logger  *slog.Logger
}

type entryState uint8

const (
	available entryState = iota
	checkedOut
	returning // claimed by CheckIn, hook still running
)

// Option configures a Pool.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used to report misuse.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// New allocates a pool of n entries produced by newEntry. It panics if n is
// not positive or newEntry returns the zero value or a duplicate.
func New[T comparable](n int, newEntry func() T, opts ...Option) *Pool[T] {
	if n <= 0 {
		panic("checkout: pool size must be positive")
	}
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	p := &Pool[T]{
		slots:  make([]T, n),
		state:  make(map[T]entryState, n),
		free:   semaphore.NewWeighted(int64(n)),
		logger: o.logger,
	}
	var zero T
	for i := range p.slots {
		e := newEntry()
		if e == zero {
			panic("checkout: newEntry returned the zero value")
		}
		if _, dup := p.state[e]; dup {
			panic("checkout: newEntry returned a duplicate entry")
		}
		p.slots[i] = e
		p.state[e] = available
	}
	return p
}

// Cap returns the number of entries.
func (p *Pool[T]) Cap() int { return len(p.slots) }

// Checkout removes and returns the first available entry, blocking until one
// is checked in.
func (p *Pool[T]) Checkout() T {
	e, _ := p.CheckoutContext(context.Background())
	return e
}

// CheckoutContext is Checkout with cancellation. It returns ctx.Err() when
// ctx ends before an entry becomes available.
func (p *Pool[T]) CheckoutContext(ctx context.Context) (T, error) {
	p.waiting.Add(1)
	err := p.free.Acquire(ctx, 1)
	p.waiting.Add(-1)
	if err != nil {
		var zero T
		return zero, err
	}

	return p.take(), nil
}

// take removes the first available entry. The caller holds a semaphore unit.
func (p *Pool[T]) take() T {
	var zero T
	p.mu.Lock()
	e := zero
	for i, s := range p.slots {
		if s != zero {
			e = s
			p.slots[i] = zero
			break
		}
	}
	p.state[e] = checkedOut
	p.mu.Unlock()

	if h, ok := any(e).(CheckedOutHook); ok {
		h.OnCheckedOut()
	}
	return e
}

// TryCheckout returns an available entry without blocking.
func (p *Pool[T]) TryCheckout() (T, bool) {
	if !p.free.TryAcquire(1) {
		var zero T
		return zero, false
	}
	return p.take(), true
}

// CheckIn returns e to the first empty slot and wakes one waiter. A zero
// entry is logged and ignored; entries that do not belong to the pool or are
// already available are ignored.
func (p *Pool[T]) CheckIn(e T) {
	var zero T
	if e == zero {
		p.logger.Error("checkout: check-in of nil entry ignored")
		return
	}

	// Claim the entry first so that of two racing check-ins only one runs
	// the hook and refills a slot.
	p.mu.Lock()
	if p.state[e] != checkedOut {
		p.mu.Unlock()
		return
	}
	p.state[e] = returning
	p.mu.Unlock()

	if h, ok := any(e).(CheckedInHook); ok {
		h.OnCheckedIn()
	}

	p.mu.Lock()
	p.state[e] = available
	for i, s := range p.slots {
		if s == zero {
			p.slots[i] = e
			break
		}
	}
	p.mu.Unlock()
	p.free.Release(1)
}

// With checks out an entry for the duration of fn. The entry is checked in
// on every exit path, panics included.
func (p *Pool[T]) With(fn func(T) error) error {
	return p.WithContext(context.Background(), fn)
}

// WithContext is With with a bounded wait for the entry.
func (p *Pool[T]) WithContext(ctx context.Context, fn func(T) error) error {
	e, err := p.CheckoutContext(ctx)
	if err != nil {
		return err
	}
	defer p.CheckIn(e)
	return fn(e)
}

// Stats is a point-in-time view of a pool.
type Stats struct {
	Capacity   int
	Available  int
	CheckedOut int
	Waiting    int
}

func (p *Pool[T]) Stats() Stats {
	var zero T
	p.mu.Lock()
	defer p.mu.Unlock()
	s := Stats{Capacity: len(p.slots), Waiting: int(p.waiting.Load())}
	for _, e := range p.slots {
		if e != zero {
			s.Available++
		}
	}
	for _, st := range p.state {
		if st != available {
			s.CheckedOut++
		}
	}
	return s
}
