package common

import (
	"github.com/chewxy/math32"
)

// QuatIdentity returns the identity rotation (0, 0, 0, 1).
func QuatIdentity() [4]float32 {
	return [4]float32{0, 0, 0, 1}
}

// QuatDot returns the 4D dot product of two quaternions.
func QuatDot(a, b [4]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] + a[3]*b[3]
}

// QuatLength returns the magnitude of q.
func QuatLength(q [4]float32) float32 {
	return math32.Sqrt(QuatDot(q, q))
}

// QuatNormalize scales q to unit length.
// A zero-length quaternion normalizes to the identity rotation.
//
// Parameters:
//   - q: the quaternion to normalize
//
// Returns:
//   - [4]float32: the unit quaternion
func QuatNormalize(q [4]float32) [4]float32 {
	l := QuatLength(q)
	if l == 0 || !IsFinite(l) {
		return QuatIdentity()
	}
	inv := 1 / l
	return [4]float32{q[0] * inv, q[1] * inv, q[2] * inv, q[3] * inv}
}

// QuatFromAxisAngle builds a rotation of angle radians around axis.
//
// Parameters:
//   - axis: rotation axis, normalized internally
//   - angle: rotation angle in radians
//
// Returns:
//   - [4]float32: the rotation quaternion (x, y, z, w)
func QuatFromAxisAngle(axis [3]float32, angle float32) [4]float32 {
	l := math32.Sqrt(axis[0]*axis[0] + axis[1]*axis[1] + axis[2]*axis[2])
	if l == 0 {
		return QuatIdentity()
	}
	s, c := math32.Sincos(angle / 2)
	s /= l
	return [4]float32{axis[0] * s, axis[1] * s, axis[2] * s, c}
}

// QuatSlerp spherically interpolates from a to b along the shortest arc.
// Nearly parallel inputs fall back to a normalized lerp. The result is not
// renormalized; callers that need a unit quaternion should normalize it.
//
// Parameters:
//   - a: rotation at t = 0
//   - b: rotation at t = 1
//   - t: the interpolation factor
//
// Returns:
//   - [4]float32: the interpolated rotation
func QuatSlerp(a, b [4]float32, t float32) [4]float32 {
	if t == 0 {
		return a
	}
	if t == 1 {
		return b
	}

	cosHalfTheta := QuatDot(a, b)
	if cosHalfTheta < 0 {
		b = [4]float32{-b[0], -b[1], -b[2], -b[3]}
		cosHalfTheta = -cosHalfTheta
	}
	if cosHalfTheta >= 1 {
		return a
	}

	sqrSinHalfTheta := 1 - cosHalfTheta*cosHalfTheta
	if sqrSinHalfTheta < 0.001 {
		s := 1 - t
		return QuatNormalize([4]float32{
			s*a[0] + t*b[0],
			s*a[1] + t*b[1],
			s*a[2] + t*b[2],
			s*a[3] + t*b[3],
		})
	}

	sinHalfTheta := math32.Sqrt(sqrSinHalfTheta)
	halfTheta := math32.Atan2(sinHalfTheta, cosHalfTheta)
	ratioA := math32.Sin((1-t)*halfTheta) / sinHalfTheta
	ratioB := math32.Sin(t*halfTheta) / sinHalfTheta

	return [4]float32{
		a[0]*ratioA + b[0]*ratioB,
		a[1]*ratioA + b[1]*ratioB,
		a[2]*ratioA + b[2]*ratioB,
		a[3]*ratioA + b[3]*ratioB,
	}
}
