package syncwire

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"golang.org/x/exp/constraints"
)

// Order is the byte order of every multi-byte field on the wire.
var Order binary.ByteOrder = binary.BigEndian

// Roundup rounds n up to the nearest multiple of align, which must be a power of two.
func Roundup[T constraints.Integer](n, align T) T { return (n + (align - 1)) &^ (align - 1) }

// MaxPadding bounds the trailing zero bytes accepted after a message.
const MaxPadding = 1024

// CheckBufferNotZeros reports ErrTrailingData if b holds anything but a short
// run of zero padding.
func CheckBufferNotZeros(b []byte) error {
	if len(b) > MaxPadding {
		return fmt.Errorf("%w: %d bytes exceed maximum padding of %d", ErrTrailingData, len(b), MaxPadding)
	}
	for i, c := range b {
		if c != 0 {
			return fmt.Errorf("%w: found non-zero byte 0x%02x at offset %d", ErrTrailingData, c, i)
		}
	}
	return nil
}

func formatSigned[T constraints.Signed](v T) string { return strconv.FormatInt(int64(v), 10) }

func parseSigned[T constraints.Signed](s string, bitSize int) (T, bool) {
	v, err := strconv.ParseInt(s, 10, bitSize)
	if err != nil {
		return 0, false
	}
	return T(v), true
}

func formatFloat[T constraints.Float](v T, bitSize int) string {
	return strconv.FormatFloat(float64(v), 'g', -1, bitSize)
}

func parseFloat[T constraints.Float](s string, bitSize int) (T, bool) {
	v, err := strconv.ParseFloat(s, bitSize)
	if err != nil {
		return 0, false
	}
	return T(v), true
}
