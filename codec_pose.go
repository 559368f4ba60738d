package syncwire

import (
	"fmt"

	"github.com/oy3o/syncwire/pose"
)

// Avatar pose payload:
//
//	side     uint8
//	primary  uint8 (0 or 1)
//	[pose]   Vec3 position + Quat rotation, when primary is 1
//	count    uint8
//	count x  joint uint8, then a Pose when the joint carries a full pose,
//	         otherwise a Quat rotation

var poseSize = FixedSize[pose.Pose]

func jointSampleSize(s pose.JointSample) int {
	if d, ok := pose.Lookup(s.Joint); ok && d.HasPose {
		return 1 + poseSize()
	}
	return 1 + quatSize()
}

func avatarPoseSize(p AvatarPose) int {
	n := 2 + list8Size(p.Joints, jointSampleSize)
	if p.HasPrimary {
		n += poseSize()
	}
	return n
}

// sampleDescriptor returns the descriptor of a listed joint. The primary joint
// and joints without a change flag never appear in the list.
func sampleDescriptor(j pose.JointID) (pose.Descriptor, error) {
	d, ok := pose.Lookup(j)
	if !ok || d.Flag == pose.None || d.IsPrimary() {
		return d, fmt.Errorf("%w: joint %s cannot be listed", ErrMalformedPose, j)
	}
	return d, nil
}

func encodeAvatarPose(w *Writer, p AvatarPose) {
	if !p.Side.Valid() {
		w.Fail(fmt.Errorf("%w: side %d", ErrMalformedPose, p.Side))
		return
	}
	w.WriteUint8(uint8(p.Side))
	w.WriteBool(p.HasPrimary)
	if p.HasPrimary {
		writeFixed(w, p.Primary)
	}
	writeList8(w, p.Joints, encodeJointSample)
}

func encodeJointSample(w *Writer, s pose.JointSample) {
	d, err := sampleDescriptor(s.Joint)
	if err != nil {
		w.Fail(err)
		return
	}
	w.WriteUint8(uint8(s.Joint))
	if d.HasPose {
		writeFixed(w, s.Pose)
	} else {
		writeFixed(w, s.Pose.Rotation)
	}
}

func decodeAvatarPose(r *Reader) AvatarPose {
	var p AvatarPose
	p.Side = pose.Handedness(r.ReadUint8())
	primary := r.ReadUint8()
	if r.Err() != nil {
		return p
	}
	if !p.Side.Valid() || primary > 1 {
		r.Fail(fmt.Errorf("%w: side %d, primary flag %d", ErrMalformedPose, p.Side, primary))
		return p
	}
	if primary == 1 {
		p.HasPrimary = true
		p.Primary = readFixed[pose.Pose](r)
	}
	p.Joints = readList8(r, decodeJointSample)
	return p
}

func decodeJointSample(r *Reader) pose.JointSample {
	s := pose.JointSample{Joint: pose.JointID(r.ReadUint8())}
	if r.Err() != nil {
		return s
	}
	d, err := sampleDescriptor(s.Joint)
	if err != nil {
		r.Fail(err)
		return s
	}
	if d.HasPose {
		s.Pose = readFixed[pose.Pose](r)
	} else {
		s.Pose.Rotation = readFixed[pose.Quat](r)
	}
	return s
}
