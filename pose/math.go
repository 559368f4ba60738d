package pose

import "math"

// rotationTolerance bounds |q|^2 - 1 for a rotation to count as normalized.
const rotationTolerance = 1e-2

type Vec3 struct {
	X, Y, Z float32
}

// Finite reports whether no component is NaN or infinite.
func (v Vec3) Finite() bool { return finite(v.X) && finite(v.Y) && finite(v.Z) }

// Quat is a rotation quaternion. The zero value is not a valid rotation; use
// Identity.
type Quat struct {
	X, Y, Z, W float32
}

var Identity = Quat{W: 1}

func (q Quat) Finite() bool {
	return finite(q.X) && finite(q.Y) && finite(q.Z) && finite(q.W)
}

// Normalized reports whether q is finite and of unit length within tolerance.
func (q Quat) Normalized() bool {
	if !q.Finite() {
		return false
	}
	n := float64(q.X)*float64(q.X) + float64(q.Y)*float64(q.Y) +
		float64(q.Z)*float64(q.Z) + float64(q.W)*float64(q.W)
	return math.Abs(n-1) <= rotationTolerance
}

// Pose is a position and orientation in tracking space.
type Pose struct {
	Position Vec3
	Rotation Quat
}

// Valid reports whether the position is finite and the rotation normalized.
func (p Pose) Valid() bool { return p.Position.Finite() && p.Rotation.Normalized() }

func finite(f float32) bool {
	v := float64(f)
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
