package pose

import (
	"strconv"
	"sync"
)

// Descriptor describes how a joint is tracked and transmitted.
type Descriptor struct {
	Joint JointID
	// Flag is the joint's change bit, or None when the joint is never sent on
	// its own (palm and metacarpals exist only to resolve bones).
	Flag Flag
	// HasPose is set when the full pose (position and rotation) is sent.
	// Otherwise only the rotation is sent.
	HasPose bool
	// HasBone is set when the joint drives an avatar bone.
	HasBone bool

	bone Bone
}

// IsPrimary reports whether d is the wrist joint carried in every update.
func (d Descriptor) IsPrimary() bool { return d.Flag == HandFlag }

// IsFingerTip reports whether d is one of the five fingertips.
func (d Descriptor) IsFingerTip() bool { return d.HasPose && !d.IsPrimary() }

// Bone returns the avatar bone the joint drives on the given hand.
func (d Descriptor) Bone(side Handedness) (SidedBone, bool) {
	if !d.HasBone || !side.Valid() {
		return SidedBone{}, false
	}
	return SidedBone{Side: side, Bone: d.bone}, true
}

type jointSpec struct {
	joint JointID
	flag  Flag
	tip   bool
	bone  Bone
}

// jointSpecs is the authoritative joint table. Order is the transmission order.
var jointSpecs = [...]jointSpec{
	{Wrist, HandFlag, false, HandBone},
	{Palm, None, false, HandBone},
	{ThumbMetacarpalJoint, None, false, ThumbProximalBone},
	{ThumbProximalJoint, ThumbProximal, false, ThumbIntermediateBone},
	{ThumbDistalJoint, ThumbDistal, false, ThumbDistalBone},
	{ThumbTipJoint, ThumbTip, true, NoBone},
	{IndexMetacarpalJoint, None, false, NoBone},
	{IndexProximalJoint, IndexProximal, false, IndexProximalBone},
	{IndexIntermediateJoint, IndexMiddle, false, IndexIntermediateBone},
	{IndexDistalJoint, IndexDistal, false, IndexDistalBone},
	{IndexTipJoint, IndexTip, true, NoBone},
	{MiddleMetacarpalJoint, None, false, NoBone},
	{MiddleProximalJoint, MiddleProximal, false, MiddleProximalBone},
	{MiddleIntermediateJoint, MiddleMiddle, false, MiddleIntermediateBone},
	{MiddleDistalJoint, MiddleDistal, false, MiddleDistalBone},
	{MiddleTipJoint, MiddleTip, true, NoBone},
	{RingMetacarpalJoint, None, false, NoBone},
	{RingProximalJoint, RingProximal, false, RingProximalBone},
	{RingIntermediateJoint, RingMiddle, false, RingIntermediateBone},
	{RingDistalJoint, RingDistal, false, RingDistalBone},
	{RingTipJoint, RingTip, true, NoBone},
	{LittleMetacarpalJoint, None, false, NoBone},
	{LittleProximalJoint, LittleProximal, false, LittleProximalBone},
	{LittleIntermediateJoint, LittleMiddle, false, LittleIntermediateBone},
	{LittleDistalJoint, LittleDistal, false, LittleDistalBone},
	{LittleTipJoint, LittleTip, true, NoBone},
}

// table is the process-wide joint table. It is built on first use and never
// mutated afterwards.
type table struct {
	all      []Descriptor
	byJoint  [JointCount + 1]int8 // index into all, -1 when absent
	byFlag   [32]int8             // bit index -> index into all, -1 when absent
	policies [policyCount][]Descriptor
}

var joints = sync.OnceValue(buildTable)

func buildTable() *table {
	t := &table{all: make([]Descriptor, 0, len(jointSpecs))}
	for i := range t.byJoint {
		t.byJoint[i] = -1
	}
	for i := range t.byFlag {
		t.byFlag[i] = -1
	}

	for _, s := range jointSpecs {
		d := Descriptor{
			Joint:   s.joint,
			Flag:    s.flag,
			HasPose: s.tip || s.flag == HandFlag,
			HasBone: s.bone != NoBone,
			bone:    s.bone,
		}
		idx := int8(len(t.all))
		t.all = append(t.all, d)
		t.byJoint[d.Joint] = idx

		if d.Flag == None {
			continue
		}
		bit := bitIndex(d.Flag)
		if t.byFlag[bit] >= 0 {
			panic("pose: flag 0x" + strconv.FormatUint(uint64(d.Flag), 16) + " assigned to more than one joint")
		}
		t.byFlag[bit] = idx
	}

	for p := range policyCount {
		policy := Policy(p)
		for _, d := range t.all {
			if d.Flag == None {
				continue
			}
			if d.IsPrimary() ||
				(policy == PolicyFingerTips && d.IsFingerTip()) ||
				(policy == PolicyJointRotations && !d.IsFingerTip()) {
				t.policies[p] = append(t.policies[p], d)
			}
		}
	}
	return t
}

func bitIndex(f Flag) int {
	for i := 0; i < 32; i++ {
		if f == 1<<i {
			return i
		}
	}
	return -1
}

// All returns every joint in transmission order. The slice must not be modified.
func All() []Descriptor { return joints().all }

// Lookup returns the descriptor of a joint.
func Lookup(j JointID) (Descriptor, bool) {
	if !j.Valid() {
		return Descriptor{}, false
	}
	t := joints()
	idx := t.byJoint[j]
	if idx < 0 {
		return Descriptor{}, false
	}
	return t.all[idx], true
}

// ByFlag returns the joint owning a single-bit flag.
func ByFlag(f Flag) (Descriptor, bool) {
	bit := bitIndex(f)
	if bit < 0 {
		return Descriptor{}, false
	}
	t := joints()
	idx := t.byFlag[bit]
	if idx < 0 {
		return Descriptor{}, false
	}
	return t.all[idx], true
}

// FlagOf returns the change flag of a joint, None when it has none.
func FlagOf(j JointID) Flag {
	d, _ := Lookup(j)
	return d.Flag
}

// Primary returns the wrist descriptor.
func Primary() Descriptor { return joints().all[0] }

// Serializable returns the joints transmitted under the policy, primary first.
// The slice must not be modified.
func Serializable(p Policy) []Descriptor {
	if p >= policyCount {
		p = PolicyUnknown
	}
	return joints().policies[p]
}
