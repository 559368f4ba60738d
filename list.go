package syncwire

import (
	"fmt"
	"math"
)

// MaxListLen is the longest list a uint8 count prefix can carry.
const MaxListLen = math.MaxUint8

// list8Size returns the encoded size of a count-prefixed list.
func list8Size[T any](items []T, size func(T) int) int {
	total := 1
	for _, it := range items {
		total += size(it)
	}
	return total
}

// writeList8 writes a uint8 count followed by each item.
func writeList8[T any](w *Writer, items []T, encode func(*Writer, T)) {
	if len(items) > MaxListLen {
		w.Fail(fmt.Errorf("%w: list of %d items", ErrOversizeLength, len(items)))
		return
	}
	w.WriteUint8(uint8(len(items)))
	for _, it := range items {
		if w.Err() != nil {
			return
		}
		encode(w, it)
	}
}

// readList8 reads a list written by writeList8. An empty list decodes as nil.
func readList8[T any](r *Reader, decode func(*Reader) T) []T {
	n := int(r.ReadUint8())
	if n == 0 || r.Err() != nil {
		return nil
	}
	items := make([]T, 0, n)
	for range n {
		it := decode(r)
		if r.Err() != nil {
			return nil
		}
		items = append(items, it)
	}
	return items
}
