package syncwire

import (
	"bufio"
	"fmt"
	"io"
	"math"
)

// MaxStringLen is the longest string or byte field a uint16 prefix can carry.
const MaxStringLen = math.MaxUint16

type sink interface {
	io.Writer
	io.ByteWriter
	io.StringWriter
}

// Writer encodes primitives onto an underlying writer. It records the first
// error; every later write becomes a no-op so codec bodies stay linear.
type Writer struct {
	w     sink
	buf   *bufio.Writer // non-nil when Writer owns the buffering
	count int64
	err   error
}

// NewWriter wraps w. Slices, bytes.Buffer and bufio.Writer are used directly,
// anything else is buffered and must be flushed through Result or Flush.
func NewWriter(w io.Writer) (*Writer, error) {
	if w == nil {
		return nil, ErrNilIO
	}
	if s, ok := w.(sink); ok {
		return &Writer{w: s}, nil
	}
	bw := bufio.NewWriter(w)
	return &Writer{w: bw, buf: bw}, nil
}

func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	n, err := w.w.Write(p)
	if n < 0 {
		n, err = 0, ErrInvalidWrite
	}
	w.count += int64(n)
	w.setError(err)
	return n, w.err
}

func (w *Writer) Count() int64 { return w.count }
func (w *Writer) Err() error   { return w.err }

// Fail records err unless an earlier error is already recorded. Codecs use it
// to reject values they cannot represent.
func (w *Writer) Fail(err error) { w.setError(err) }

func (w *Writer) setError(err error) {
	if w.err == nil && err != nil {
		w.err = err
	}
}

// Flush pushes buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if w.buf == nil || w.err != nil {
		return w.err
	}
	w.setError(w.buf.Flush())
	return w.err
}

// Result flushes and returns the byte count and the first error.
func (w *Writer) Result() (int64, error) {
	w.Flush()
	return w.count, w.err
}

// WriteFrom lets wt encode itself onto the underlying writer.
func (w *Writer) WriteFrom(wt io.WriterTo) {
	if wt == nil || w.err != nil {
		return
	}
	n, err := wt.WriteTo(w.w)
	w.count += n
	w.setError(err)
}

func (w *Writer) WriteBytes(p []byte) {
	if len(p) == 0 || w.err != nil {
		return
	}
	_, _ = w.Write(p)
}

func (w *Writer) WriteUint8(v uint8) {
	if w.err != nil {
		return
	}
	if err := w.w.WriteByte(v); err != nil {
		w.err = err
		return
	}
	w.count++
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteUint8(1)
	} else {
		w.WriteUint8(0)
	}
}

func (w *Writer) WriteUint16(v uint16) {
	if w.err != nil {
		return
	}
	var buf [2]byte
	Order.PutUint16(buf[:], v)
	_, _ = w.Write(buf[:])
}

func (w *Writer) WriteUint32(v uint32) {
	if w.err != nil {
		return
	}
	var buf [4]byte
	Order.PutUint32(buf[:], v)
	_, _ = w.Write(buf[:])
}

func (w *Writer) WriteUint64(v uint64) {
	if w.err != nil {
		return
	}
	var buf [8]byte
	Order.PutUint64(buf[:], v)
	_, _ = w.Write(buf[:])
}

func (w *Writer) WriteInt16(v int16)     { w.WriteUint16(uint16(v)) }
func (w *Writer) WriteInt32(v int32)     { w.WriteUint32(uint32(v)) }
func (w *Writer) WriteInt64(v int64)     { w.WriteUint64(uint64(v)) }
func (w *Writer) WriteFloat32(v float32) { w.WriteUint32(math.Float32bits(v)) }

// WriteString16 writes a uint16 length followed by the string bytes.
func (w *Writer) WriteString16(s string) {
	if w.err != nil {
		return
	}
	if len(s) > MaxStringLen {
		w.setError(fmt.Errorf("%w: string of %d bytes", ErrOversizeLength, len(s)))
		return
	}
	w.WriteUint16(uint16(len(s)))
	if len(s) == 0 || w.err != nil {
		return
	}
	n, err := w.w.WriteString(s)
	w.count += int64(n)
	w.setError(err)
}

// WriteBytes16 writes a uint16 length followed by p.
func (w *Writer) WriteBytes16(p []byte) {
	if w.err != nil {
		return
	}
	if len(p) > MaxStringLen {
		w.setError(fmt.Errorf("%w: byte field of %d bytes", ErrOversizeLength, len(p)))
		return
	}
	w.WriteUint16(uint16(len(p)))
	w.WriteBytes(p)
}

// string16Size is the encoded size of a WriteString16 field.
func string16Size(s string) int { return 2 + len(s) }
