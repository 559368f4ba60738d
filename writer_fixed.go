package syncwire

import "io"

// FixedWriter fills a frame whose length was computed up front by the size
// functions. It never allocates: a write that does not fit copies what it can
// and reports io.ErrShortWrite, which the encoder turns into a size mismatch.
type FixedWriter struct {
	B []byte // frame, used up to its capacity
	N int    // bytes filled so far
}

func NewFixedWriter(frame []byte) *FixedWriter {
	return &FixedWriter{B: frame[:cap(frame)]}
}

// fill reports how much of an n-byte write landed after copied bytes went in.
func (w *FixedWriter) fill(copied, n int) (int, error) {
	w.N += copied
	if copied < n {
		return copied, io.ErrShortWrite
	}
	return copied, nil
}

func (w *FixedWriter) Write(p []byte) (int, error) {
	return w.fill(copy(w.B[w.N:], p), len(p))
}

func (w *FixedWriter) WriteString(s string) (int, error) {
	return w.fill(copy(w.B[w.N:], s), len(s))
}

func (w *FixedWriter) WriteByte(c byte) error {
	if w.Available() == 0 {
		return io.ErrShortWrite
	}
	w.B[w.N] = c
	w.N++
	return nil
}

// Reset empties the frame for reuse.
func (w *FixedWriter) Reset()         { w.N = 0 }
func (w *FixedWriter) Len() int       { return w.N }
func (w *FixedWriter) Available() int { return len(w.B) - w.N }
func (w *FixedWriter) Bytes() []byte  { return w.B[:w.N] }
