// Package pose tracks hand joints and builds the delta updates sent to peers.
package pose

import "strconv"

// JointID identifies a hand joint. Values follow the XR hand joint numbering so
// they can be sent on the wire as a single byte.
type JointID uint8

const (
	InvalidJoint JointID = iota
	Wrist
	Palm
	ThumbMetacarpalJoint
	ThumbProximalJoint
	ThumbDistalJoint
	ThumbTipJoint
	IndexMetacarpalJoint
	IndexProximalJoint
	IndexIntermediateJoint
	IndexDistalJoint
	IndexTipJoint
	MiddleMetacarpalJoint
	MiddleProximalJoint
	MiddleIntermediateJoint
	MiddleDistalJoint
	MiddleTipJoint
	RingMetacarpalJoint
	RingProximalJoint
	RingIntermediateJoint
	RingDistalJoint
	RingTipJoint
	LittleMetacarpalJoint
	LittleProximalJoint
	LittleIntermediateJoint
	LittleDistalJoint
	LittleTipJoint

	// JointCount is the number of valid joint ids (excluding InvalidJoint).
	JointCount = int(LittleTipJoint)
)

var jointNames = [...]string{
	"Invalid", "Wrist", "Palm",
	"ThumbMetacarpal", "ThumbProximal", "ThumbDistal", "ThumbTip",
	"IndexMetacarpal", "IndexProximal", "IndexIntermediate", "IndexDistal", "IndexTip",
	"MiddleMetacarpal", "MiddleProximal", "MiddleIntermediate", "MiddleDistal", "MiddleTip",
	"RingMetacarpal", "RingProximal", "RingIntermediate", "RingDistal", "RingTip",
	"LittleMetacarpal", "LittleProximal", "LittleIntermediate", "LittleDistal", "LittleTip",
}

// Valid reports whether j names a real joint.
func (j JointID) Valid() bool { return j > InvalidJoint && int(j) <= JointCount }

func (j JointID) String() string {
	if int(j) < len(jointNames) {
		return jointNames[j]
	}
	return "Joint(" + strconv.Itoa(int(j)) + ")"
}

// Handedness selects the left or right hand.
type Handedness uint8

const (
	NoHand Handedness = iota
	Left
	Right
)

func (h Handedness) Valid() bool { return h == Left || h == Right }

func (h Handedness) String() string {
	switch h {
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "none"
}

// Bone is a side independent avatar bone kind. Rendering maps it onto a model.
type Bone uint8

const (
	NoBone Bone = iota
	HandBone
	ThumbProximalBone
	ThumbIntermediateBone
	ThumbDistalBone
	IndexProximalBone
	IndexIntermediateBone
	IndexDistalBone
	MiddleProximalBone
	MiddleIntermediateBone
	MiddleDistalBone
	RingProximalBone
	RingIntermediateBone
	RingDistalBone
	LittleProximalBone
	LittleIntermediateBone
	LittleDistalBone
)

// SidedBone is a bone on a specific hand.
type SidedBone struct {
	Side Handedness
	Bone Bone
}

// Policy controls which finger joints are serialized next to the primary joint.
type Policy uint8

const (
	// PolicyUnknown is treated like PolicyNone.
	PolicyUnknown Policy = iota
	// PolicyNone sends no finger data.
	PolicyNone
	// PolicyFingerTips sends fingertip poses only.
	PolicyFingerTips
	// PolicyJointRotations sends every non-tip, non-metacarpal joint rotation.
	PolicyJointRotations

	policyCount
)

func (p Policy) String() string {
	switch p {
	case PolicyNone:
		return "none"
	case PolicyFingerTips:
		return "fingertips"
	case PolicyJointRotations:
		return "rotations"
	}
	return "unknown"
}

// ParsePolicy accepts the names produced by Policy.String.
func ParsePolicy(s string) (Policy, bool) {
	switch s {
	case "none", "":
		return PolicyNone, true
	case "fingertips", "tips":
		return PolicyFingerTips, true
	case "rotations", "joints", "jointrotations":
		return PolicyJointRotations, true
	}
	return PolicyUnknown, false
}

// MarshalText implements encoding.TextMarshaler for configuration files.
func (p Policy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(b []byte) error {
	v, ok := ParsePolicy(string(b))
	if !ok {
		return ErrUnknownPolicy
	}
	*p = v
	return nil
}
