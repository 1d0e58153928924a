// SPDX-License-Identifier: GPL-2.0-or-later

package vec

import (
	"github.com/chewxy/math32"

	qmath "gostudio/math"
)

// Quat is a rotation quaternion, W is the real part.
type Quat struct {
	X, Y, Z, W float32
}

var IdentityQuat = Quat{0, 0, 0, 1}

func (q Quat) Array() [4]float32 {
	return [4]float32{q.X, q.Y, q.Z, q.W}
}

func QDot(a, b Quat) float32 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z + a.W*b.W
}

func (q Quat) Length() float32 {
	return math32.Sqrt(QDot(q, q))
}

// Normalize returns the unit quaternion, or identity for a zero quaternion.
func (q Quat) Normalize() Quat {
	l := q.Length()
	if l < 1e-12 {
		return IdentityQuat
	}
	f := 1 / l
	return Quat{q.X * f, q.Y * f, q.Z * f, q.W * f}
}

// QMul returns a * b.
func QMul(a, b Quat) Quat {
	return Quat{
		a.X*b.W + a.Y*b.Z - a.Z*b.Y + a.W*b.X,
		-a.X*b.Z + a.Y*b.W + a.Z*b.X + a.W*b.Y,
		a.X*b.Y - a.Y*b.X + a.Z*b.W + a.W*b.Z,
		-a.X*b.X - a.Y*b.Y - a.Z*b.Z + a.W*b.W,
	}
}

// Equivalent reports whether a and b describe the same rotation within eps.
// q and -q are the same rotation.
func Equivalent(a, b Quat, eps float32) bool {
	d := math32.Abs(QDot(a, b))
	return 1-d <= eps
}

// EulerToQuat converts radian euler angles (X roll, Y pitch, Z yaw, applied
// in Z*Y*X order) to a quaternion.
func EulerToQuat(e Vec3) Quat {
	sy, cy := math32.Sincos(e.Z * 0.5)
	sp, cp := math32.Sincos(e.Y * 0.5)
	sr, cr := math32.Sincos(e.X * 0.5)

	srXcp, crXsp := sr*cp, cr*sp
	crXcp, srXsp := cr*cp, sr*sp
	return Quat{
		X: srXcp*cy - crXsp*sy,
		Y: crXsp*cy + srXcp*sy,
		Z: crXcp*sy - srXsp*cy,
		W: crXcp*cy + srXsp*sy,
	}
}

// QuatToEuler is the inverse of EulerToQuat.
func QuatToEuler(q Quat) Vec3 {
	roll := math32.Atan2(2*(q.W*q.X+q.Y*q.Z), 1-2*(q.X*q.X+q.Y*q.Y))
	pitch := math32.Asin(qmath.Clamp(-1, 2*(q.W*q.Y-q.Z*q.X), 1))
	yaw := math32.Atan2(2*(q.W*q.Z+q.X*q.Y), 1-2*(q.Y*q.Y+q.Z*q.Z))
	return Vec3{roll, pitch, yaw}
}

// Rotate returns v rotated by the unit quaternion q.
func Rotate(q Quat, v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	t := Cross(u, v).Scale(2)
	return Add(Add(v, t.Scale(q.W)), Cross(u, t))
}
