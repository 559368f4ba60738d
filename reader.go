package syncwire

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
)

type source interface {
	io.Reader
	io.ByteReader
}

// Reader decodes primitives from an underlying reader. Like Writer it keeps
// the first error and turns later reads into no-ops. A premature end of input
// is reported as ErrTruncatedData.
type Reader struct {
	r     source
	count int64
	err   error
}

// NewReader wraps r. Readers that already implement io.ByteReader are used
// directly, anything else is buffered.
func NewReader(r io.Reader) (*Reader, error) {
	if r == nil {
		return nil, ErrNilIO
	}
	if s, ok := r.(source); ok {
		return &Reader{r: s}, nil
	}
	return &Reader{r: bufio.NewReader(r)}, nil
}

func (r *Reader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	n, err := r.r.Read(p)
	r.count += int64(n)
	if err != nil && err != io.EOF {
		r.setError(err)
	}
	return n, err
}

func (r *Reader) Count() int64 { return r.count }
func (r *Reader) Err() error   { return r.err }

// Fail records err unless an earlier error is already recorded.
func (r *Reader) Fail(err error) { r.setError(err) }

func (r *Reader) setError(err error) {
	if r.err != nil || err == nil {
		return
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		err = fmt.Errorf("%w after %d bytes", ErrTruncatedData, r.count)
	}
	r.err = err
}

// Result returns the bytes consumed and the first error.
func (r *Reader) Result() (int64, error) { return r.count, r.err }

// ReadTo lets rf decode itself from the underlying reader.
func (r *Reader) ReadTo(rf io.ReaderFrom) {
	if r.err != nil {
		return
	}
	n, err := rf.ReadFrom(r.r)
	r.count += n
	r.setError(err)
}

// ReadBytesTo fills dst completely.
func (r *Reader) ReadBytesTo(dst []byte) {
	if r.err != nil || len(dst) == 0 {
		return
	}
	n, err := io.ReadFull(r.r, dst)
	r.count += int64(n)
	r.setError(err)
}

// next returns n bytes, as a view when reading from a BytesReader.
func (r *Reader) next(n int, scratch []byte) []byte {
	if r.err != nil {
		return nil
	}
	if br, ok := r.r.(*BytesReader); ok {
		b, err := br.Next(n)
		if err != nil {
			r.count += int64(br.Available())
			r.setError(err)
			return nil
		}
		r.count += int64(n)
		return b
	}
	buf := scratch[:n]
	r.ReadBytesTo(buf)
	if r.err != nil {
		return nil
	}
	return buf
}

func (r *Reader) ReadUint8() uint8 {
	if r.err != nil {
		return 0
	}
	b, err := r.r.ReadByte()
	if err != nil {
		r.setError(err)
		return 0
	}
	r.count++
	return b
}

func (r *Reader) ReadBool() bool { return r.ReadUint8() != 0 }

func (r *Reader) ReadUint16() uint16 {
	var scratch [2]byte
	if b := r.next(2, scratch[:]); b != nil {
		return Order.Uint16(b)
	}
	return 0
}

func (r *Reader) ReadUint32() uint32 {
	var scratch [4]byte
	if b := r.next(4, scratch[:]); b != nil {
		return Order.Uint32(b)
	}
	return 0
}

func (r *Reader) ReadUint64() uint64 {
	var scratch [8]byte
	if b := r.next(8, scratch[:]); b != nil {
		return Order.Uint64(b)
	}
	return 0
}

func (r *Reader) ReadInt16() int16     { return int16(r.ReadUint16()) }
func (r *Reader) ReadInt32() int32     { return int32(r.ReadUint32()) }
func (r *Reader) ReadInt64() int64     { return int64(r.ReadUint64()) }
func (r *Reader) ReadFloat32() float32 { return math.Float32frombits(r.ReadUint32()) }

// ReadBytes returns a fresh copy of the next n bytes.
func (r *Reader) ReadBytes(n int) []byte {
	if n <= 0 || r.err != nil {
		return nil
	}
	buf := make([]byte, n)
	r.ReadBytesTo(buf)
	if r.err != nil {
		return nil
	}
	return buf
}

// ReadString16 reads a uint16 length-prefixed string.
func (r *Reader) ReadString16() string {
	n := int(r.ReadUint16())
	if n == 0 || r.err != nil {
		return ""
	}
	if br, ok := r.r.(*BytesReader); ok {
		b, err := br.Next(n)
		if err != nil {
			r.setError(err)
			return ""
		}
		r.count += int64(n)
		return string(b)
	}
	return string(r.ReadBytes(n))
}

// ReadBytes16 reads a uint16 length-prefixed byte field. An empty field
// decodes as nil.
func (r *Reader) ReadBytes16() []byte {
	return r.ReadBytes(int(r.ReadUint16()))
}
