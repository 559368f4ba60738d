package pose

// Hand tracks the latest joint values of one hand together with the set of
// joints that changed since the last Reset.
//
// A Hand has a single writer. Capture and Reset must be coordinated by the
// caller with the goroutine feeding SetPose and SetRotation.
type Hand struct {
	side  Handedness
	flags Flag
	poses [JointCount + 1]Pose
}

func NewHand(side Handedness) *Hand {
	h := &Hand{side: side}
	for i := range h.poses {
		h.poses[i].Rotation = Identity
	}
	return h
}

func (h *Hand) Side() Handedness { return h.side }

// Flags returns the joints changed since the last Reset.
func (h *Hand) Flags() Flag { return h.flags }

// Reset clears every change bit. Stored values are kept.
func (h *Hand) Reset() { h.flags = None }

// Has reports whether the joint holds a valid value changed since Reset.
func (h *Hand) Has(j JointID) bool {
	f := FlagOf(j)
	return h.flags.Has(f)
}

// Pose returns the last stored value of a joint.
func (h *Hand) Pose(j JointID) (Pose, bool) {
	if !j.Valid() {
		return Pose{}, false
	}
	return h.poses[j], true
}

// SetPose stores a full pose. An invalid pose clears the joint's bit and leaves
// the stored value untouched so stale data is never transmitted.
func (h *Hand) SetPose(j JointID, p Pose) bool {
	d, ok := Lookup(j)
	if !ok {
		return false
	}
	if !p.Valid() {
		h.flags &^= d.Flag
		return false
	}
	h.poses[j] = p
	h.flags |= d.Flag
	return true
}

// SetRotation stores a rotation, keeping the joint's last position.
func (h *Hand) SetRotation(j JointID, q Quat) bool {
	d, ok := Lookup(j)
	if !ok {
		return false
	}
	if !q.Normalized() {
		h.flags &^= d.Flag
		return false
	}
	h.poses[j].Rotation = q
	h.flags |= d.Flag
	return true
}

// Invalidate clears a joint's bit, e.g. when tracking is lost.
func (h *Hand) Invalidate(j JointID) {
	h.flags &^= FlagOf(j)
}
