package checkout

import (
	"context"
	"sync/atomic"
)

// Lease is a manually released checkout. Release must be called exactly once
// unless ownership is passed on with Move.
type Lease[T comparable] struct {
	pool  *Pool[T]
	entry T
	done  atomic.Bool
}

// Lease checks out an entry, blocking until one is available.
func (p *Pool[T]) Lease() *Lease[T] {
	l, _ := p.LeaseContext(context.Background())
	return l
}

// LeaseContext is Lease with cancellation.
func (p *Pool[T]) LeaseContext(ctx context.Context) (*Lease[T], error) {
	e, err := p.CheckoutContext(ctx)
	if err != nil {
		return nil, err
	}
	return &Lease[T]{pool: p, entry: e}, nil
}

// WithLease passes a lease to fn and releases it when fn returns or panics,
// unless fn moved it.
func (p *Pool[T]) WithLease(fn func(*Lease[T]) error) error {
	l := p.Lease()
	defer l.Release()
	return fn(l)
}

// Entry returns the leased entry, or the zero value once released or moved.
func (l *Lease[T]) Entry() T {
	if l.done.Load() {
		var zero T
		return zero
	}
	return l.entry
}

// Release checks the entry back in. Only the first call has an effect.
func (l *Lease[T]) Release() {
	if l == nil || !l.done.CompareAndSwap(false, true) {
		return
	}
	l.pool.CheckIn(l.entry)
}

// Move transfers the entry to a new owner without checking it in. The lease
// becomes empty and its Release a no-op. Moving an empty lease returns nil.
func (l *Lease[T]) Move() *Held[T] {
	if l == nil || !l.done.CompareAndSwap(false, true) {
		return nil
	}
	h := &Held[T]{pool: l.pool, entry: l.entry}
	var zero T
	l.entry = zero
	return h
}

// Held owns a moved entry for as long as the holder wants it.
type Held[T comparable] struct {
	pool  *Pool[T]
	entry T
	done  atomic.Bool
}

// Entry returns the held entry, or the zero value once released.
func (h *Held[T]) Entry() T {
	if h.done.Load() {
		var zero T
		return zero
	}
	return h.entry
}

// Release checks the entry back in. Only the first call has an effect.
func (h *Held[T]) Release() {
	if h == nil || !h.done.CompareAndSwap(false, true) {
		return
	}
	h.pool.CheckIn(h.entry)
}
