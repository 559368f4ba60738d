package syncwire

import "io"

// BytesReader reads from an in-memory slice without copying it.
type BytesReader struct {
	B []byte // source
	N int    // read position
}

func NewBytesReader(b []byte) *BytesReader {
	return &BytesReader{B: b}
}

func (r *BytesReader) Read(p []byte) (int, error) {
	if r.N >= len(r.B) {
		return 0, io.EOF
	}
	n := copy(p, r.B[r.N:])
	r.N += n
	return n, nil
}

func (r *BytesReader) ReadByte() (byte, error) {
	if r.N >= len(r.B) {
		return 0, io.EOF
	}
	b := r.B[r.N]
	r.N++
	return b, nil
}

// Next returns the next n bytes as a view into B and advances past them.
// The view is only valid as long as B is.
func (r *BytesReader) Next(n int) ([]byte, error) {
	if n > r.Available() {
		r.N = len(r.B)
		return nil, io.ErrUnexpectedEOF
	}
	b := r.B[r.N : r.N+n]
	r.N += n
	return b, nil
}

// Len returns the number of bytes read.
func (r *BytesReader) Len() int { return r.N }

// Available returns the number of unread bytes.
func (r *BytesReader) Available() int {
	if r.N >= len(r.B) {
		return 0
	}
	return len(r.B) - r.N
}

// Rest returns the unread bytes.
func (r *BytesReader) Rest() []byte {
	if r.N >= len(r.B) {
		return nil
	}
	return r.B[r.N:]
}
