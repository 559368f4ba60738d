package pose

import (
	"math/bits"
	"strconv"
	"strings"
)

// Flag is a 32-bit set of joint change bits. A set bit means the joint holds a
// valid value that changed since the owning Hand was last reset.
type Flag uint32

const (
	None Flag = 0x00000000

	// HandFlag is the primary wrist joint. It is sent with every pose update
	// regardless of the serialization policy.
	HandFlag Flag = 0x00000001

	ThumbTip  Flag = 0x00000004
	IndexTip  Flag = 0x00000010
	MiddleTip Flag = 0x00000020
	RingTip   Flag = 0x00000040
	LittleTip Flag = 0x00000080

	ThumbDistal  Flag = 0x00000100
	IndexDistal  Flag = 0x00000200
	MiddleDistal Flag = 0x00000400
	RingDistal   Flag = 0x00000800
	LittleDistal Flag = 0x00001000

	ThumbProximal Flag = 0x00002000
	IndexMiddle   Flag = 0x00004000
	MiddleMiddle  Flag = 0x00008000
	RingMiddle    Flag = 0x00010000
	LittleMiddle  Flag = 0x00020000

	IndexProximal  Flag = 0x00040000
	MiddleProximal Flag = 0x00080000
	RingProximal   Flag = 0x00100000
	LittleProximal Flag = 0x00200000

	// MaxFlag is the highest assigned bit.
	MaxFlag = LittleProximal
)

// Has reports whether every bit of f is set. None is never considered set.
func (s Flag) Has(f Flag) bool {
	return f != None && s&f == f
}

// Count returns the number of set bits.
func (s Flag) Count() int { return bits.OnesCount32(uint32(s)) }

// Each calls fn for every single-bit flag set in s, lowest bit first.
func (s Flag) Each(fn func(Flag)) {
	for v := uint32(s); v != 0; v &= v - 1 {
		fn(Flag(v & -v))
	}
}

func (s Flag) String() string {
	if s == None {
		return "None"
	}
	var b strings.Builder
	s.Each(func(f Flag) {
		if b.Len() > 0 {
			b.WriteByte('|')
		}
		if d, ok := ByFlag(f); ok {
			b.WriteString(d.Joint.String())
		} else {
			b.WriteString("0x")
			b.WriteString(strconv.FormatUint(uint64(f), 16))
		}
	})
	return b.String()
}
