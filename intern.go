package syncwire

import (
	"strings"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/zeebo/xxh3"
)

// internTable deduplicates decoded owner and name strings so repeated keys
// share one allocation. Entries are keyed by hash; a colliding string is
// simply returned uninterned. The table stops growing at max entries.
type internTable struct {
	m    *xsync.Map[uint64, string]
	size atomic.Int64
	max  int64
}

func newInternTable(max int) *internTable {
	return &internTable{m: xsync.NewMap[uint64, string](), max: int64(max)}
}

// intern returns a string equal to b, allocating only when b is new.
func (t *internTable) intern(b string) string {
	if b == "" {
		return ""
	}
	h := xxh3.HashString(b)
	if s, ok := t.m.Load(h); ok {
		if s == b {
			return s
		}
		return b
	}
	if t.size.Load() >= t.max {
		return b
	}
	s, loaded := t.m.LoadOrStore(h, strings.Clone(b))
	if !loaded {
		t.size.Add(1)
	}
	if s == b {
		return s
	}
	return b
}
