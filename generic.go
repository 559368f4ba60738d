package syncwire

import (
	"fmt"
	"io"
)

// MarshalBinaryGeneric builds MarshalBinary from Size and WriteTo.
func MarshalBinaryGeneric[T interface {
	Size() int
	io.WriterTo
}](v T) ([]byte, error) {
	expected := v.Size()
	w := NewFixedWriter(make([]byte, expected))
	n, err := v.WriteTo(w)
	if err != nil {
		return nil, err
	}
	if n != int64(expected) {
		return nil, fmt.Errorf("%w: reported %d bytes, wrote %d", ErrSizeMismatch, expected, n)
	}
	return w.Bytes(), nil
}

// UnmarshalBinaryGeneric builds UnmarshalBinary from ReadFrom and rejects
// non-zero trailing data.
func UnmarshalBinaryGeneric[T interface {
	io.ReaderFrom
	Size() int
}](v T, data []byte) error {
	n, err := v.ReadFrom(NewBytesReader(data))
	if err != nil {
		return err
	}
	if expected := v.Size(); n < int64(expected) {
		return fmt.Errorf("%w: expected at least %d bytes, but read %d", ErrTruncatedData, expected, n)
	}
	return CheckBufferNotZeros(data[n:])
}

// MarshalToGeneric builds MarshalTo from Size and WriteTo.
func MarshalToGeneric[T interface {
	Size() int
	io.WriterTo
}](v T, p []byte) (int, error) {
	size := v.Size()
	if len(p) < size {
		return 0, io.ErrShortWrite
	}
	n, err := v.WriteTo(NewFixedWriter(p[:size:size]))
	if err != nil {
		return int(n), err
	}
	if n != int64(size) {
		return int(n), fmt.Errorf("%w: reported %d bytes, wrote %d", ErrSizeMismatch, size, n)
	}
	return int(n), nil
}
