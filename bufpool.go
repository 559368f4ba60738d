package syncwire

import (
	"math/bits"
	"sync"
	"sync/atomic"
)

const (
	minBufferShift = 6  // 64 B
	maxBufferShift = 16 // 64 KiB

	// MinBufferSize is the smallest pooled buffer.
	MinBufferSize = 1 << minBufferShift
	// MaxBufferSize is the largest pooled buffer. Larger leases are allocated
	// and dropped on release.
	MaxBufferSize = 1 << maxBufferShift
)

// BufferPool hands out byte slices from power-of-two size classes.
// It is safe for concurrent use.
type BufferPool struct {
	classes [maxBufferShift - minBufferShift + 1]sync.Pool
}

// Buffers is the pool used by the package's own encode and frame paths.
var Buffers = NewBufferPool()

func NewBufferPool() *BufferPool {
	p := &BufferPool{}
	for i := range p.classes {
		size := MinBufferSize << i
		p.classes[i].New = func() any {
			b := make([]byte, size)
			return &b
		}
	}
	return p
}

// classOf returns the size class holding size bytes, or -1 when size is not pooled.
func classOf(size int) int {
	if size > MaxBufferSize {
		return -1
	}
	size = Roundup(max(size, 1), MinBufferSize)
	return bits.Len(uint(size-1)) - minBufferShift
}

// PooledBuffer is a leased slice. B has exactly the requested length; its
// contents are undefined until written.
type PooledBuffer struct {
	B []byte

	pool     *BufferPool
	backing  *[]byte
	class    int
	released atomic.Bool
}

// Lease returns a buffer of len size. Call Release when done.
func (p *BufferPool) Lease(size int) *PooledBuffer {
	class := classOf(size)
	if class < 0 {
		return &PooledBuffer{B: make([]byte, size), class: -1}
	}
	backing := p.classes[class].Get().(*[]byte)
	return &PooledBuffer{B: (*backing)[:size], pool: p, backing: backing, class: class}
}

// Release returns the buffer to its pool. Calls after the first are no-ops
// and B must not be used after the first.
func (b *PooledBuffer) Release() {
	if b == nil || !b.released.CompareAndSwap(false, true) {
		return
	}
	if b.class >= 0 {
		b.pool.classes[b.class].Put(b.backing)
	}
	b.B, b.backing = nil, nil
}

// With leases a buffer of size bytes for the duration of fn. The buffer is
// released on every exit path, panics included; fn must not retain it.
func (p *BufferPool) With(size int, fn func([]byte) error) error {
	buf := p.Lease(size)
	defer buf.Release()
	return fn(buf.B)
}
