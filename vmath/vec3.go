package vmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Axis unit vectors in the vehicle/world convention: +Y up, +Z forward, +X left
var (
	AxisX = mgl64.Vec3{1, 0, 0}
	AxisY = mgl64.Vec3{0, 1, 0}
	AxisZ = mgl64.Vec3{0, 0, 1}
)

// MulElem multiplies two vectors component-wise
func MulElem(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// AbsVec returns the component-wise absolute value
func AbsVec(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Abs(v[0]), math.Abs(v[1]), math.Abs(v[2])}
}

// MinVec returns the component-wise minimum
func MinVec(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Min(a[0], b[0]), math.Min(a[1], b[1]), math.Min(a[2], b[2])}
}

// MaxVec returns the component-wise maximum
func MaxVec(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Max(a[0], b[0]), math.Max(a[1], b[1]), math.Max(a[2], b[2])}
}

// SafeNormalize returns v/|v|, or fallback when v is (near) zero
func SafeNormalize(v, fallback mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l <= Epsilon {
		return fallback
	}
	return v.Mul(1 / l)
}

// ToLocal expresses a world-space direction in the frame of rot
func ToLocal(rot mgl64.Quat, v mgl64.Vec3) mgl64.Vec3 {
	return rot.Conjugate().Rotate(v)
}

// QuatFromBasis returns the rotation whose columns are the given orthonormal axes
func QuatFromBasis(x, y, z mgl64.Vec3) mgl64.Quat {
	m := mgl64.Mat4FromCols(x.Vec4(0), y.Vec4(0), z.Vec4(0), mgl64.Vec4{0, 0, 0, 1})
	return mgl64.Mat4ToQuat(m).Normalize()
}

// IntegrateRotation advances q by angular velocity w (world space, rad/s) over dt
func IntegrateRotation(q mgl64.Quat, w mgl64.Vec3, dt float64) mgl64.Quat {
	if w.Len() <= Epsilon {
		return q
	}
	spin := mgl64.Quat{W: 0, V: w}.Mul(q).Scale(0.5 * dt)
	return q.Add(spin).Normalize()
}

// QuatAngle returns the rotation angle of q in [0, pi]
func QuatAngle(q mgl64.Quat) float64 {
	w := Clamp(math.Abs(q.W), 0, 1)
	return 2 * math.Acos(w)
}

// RotateX returns q followed by a local rotation of angle around X
func RotateX(q mgl64.Quat, angle float64) mgl64.Quat {
	return q.Mul(mgl64.QuatRotate(angle, AxisX)).Normalize()
}
