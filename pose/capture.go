package pose

import "fmt"

// JointSample is one transmitted finger joint. Joints without a full pose in
// their descriptor only carry Pose.Rotation.
type JointSample struct {
	Joint JointID
	Pose  Pose
}

// HandPose is a delta update of one hand. Joints not listed are unchanged.
type HandPose struct {
	Side       Handedness
	HasPrimary bool
	Primary    Pose
	Joints     []JointSample
}

// Empty reports whether the update carries no joint data.
func (p *HandPose) Empty() bool { return !p.HasPrimary && len(p.Joints) == 0 }

// Reset clears p keeping the joint slice capacity.
func (p *HandPose) Reset() {
	p.Side = NoHand
	p.HasPrimary = false
	p.Primary = Pose{}
	p.Joints = p.Joints[:0]
}

// Clone returns a deep copy of p.
func (p *HandPose) Clone() HandPose {
	c := *p
	c.Joints = append([]JointSample(nil), p.Joints...)
	return c
}

// Capture fills dst with the joints of h that are flagged and allowed by
// policy. The primary joint is included whenever it is flagged.
func Capture(h *Hand, policy Policy, dst *HandPose) {
	dst.Reset()
	dst.Side = h.side
	if h.flags.Has(HandFlag) {
		dst.HasPrimary = true
		dst.Primary = h.poses[Primary().Joint]
	}
	for _, d := range Serializable(policy) {
		if d.IsPrimary() || !h.flags.Has(d.Flag) {
			continue
		}
		s := JointSample{Joint: d.Joint, Pose: h.poses[d.Joint]}
		if !d.HasPose {
			s.Pose.Position = Vec3{}
		}
		dst.Joints = append(dst.Joints, s)
	}
}

// Apply merges an update into h. Joints absent from the update keep their
// previous values.
func Apply(update *HandPose, h *Hand) error {
	if update.Side != h.side {
		return fmt.Errorf("%w: got %s, want %s", ErrSideMismatch, update.Side, h.side)
	}
	if update.HasPrimary {
		h.SetPose(Primary().Joint, update.Primary)
	}
	for _, s := range update.Joints {
		d, ok := Lookup(s.Joint)
		if !ok || d.Flag == None {
			return fmt.Errorf("%w: %d", ErrUnknownJoint, s.Joint)
		}
		if d.HasPose {
			h.SetPose(s.Joint, s.Pose)
		} else {
			h.SetRotation(s.Joint, s.Pose.Rotation)
		}
	}
	return nil
}
