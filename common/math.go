package common

import (
	"github.com/chewxy/math32"
)

// Identity4 returns a 4x4 identity matrix.
// All matrices in this package are stored in column-major order.
//
// Returns:
//   - [16]float32: the identity matrix
func Identity4() [16]float32 {
	return [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mul4 multiplies two 4x4 column-major matrices.
// Result: a * b, so b is applied to a column vector first.
//
// Parameters:
//   - a: left-hand matrix
//   - b: right-hand matrix
//
// Returns:
//   - [16]float32: the product a * b
func Mul4(a, b [16]float32) [16]float32 {
	var out [16]float32
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += a[k*4+row] * b[col*4+k]
			}
			out[col*4+row] = sum
		}
	}
	return out
}

// Translate4 builds a translation matrix.
//
// Parameters:
//   - v: translation along x, y, z
//
// Returns:
//   - [16]float32: the translation matrix
func Translate4(v [3]float32) [16]float32 {
	m := Identity4()
	m[12], m[13], m[14] = v[0], v[1], v[2]
	return m
}

// Scale4 builds a non-uniform scale matrix.
//
// Parameters:
//   - v: scale factors along x, y, z
//
// Returns:
//   - [16]float32: the scale matrix
func Scale4(v [3]float32) [16]float32 {
	m := Identity4()
	m[0], m[5], m[10] = v[0], v[1], v[2]
	return m
}

// QuatToMat4 converts a unit quaternion (x, y, z, w) into a rotation matrix.
//
// Parameters:
//   - q: the quaternion, expected to be normalized
//
// Returns:
//   - [16]float32: the rotation matrix
func QuatToMat4(q [4]float32) [16]float32 {
	x, y, z, w := q[0], q[1], q[2], q[3]
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	return [16]float32{
		1 - 2*(yy+zz), 2 * (xy + wz), 2 * (xz - wy), 0,
		2 * (xy - wz), 1 - 2*(xx+zz), 2 * (yz + wx), 0,
		2 * (xz + wy), 2 * (yz - wx), 1 - 2*(xx+yy), 0,
		0, 0, 0, 1,
	}
}

// ComposeTRS builds translation * rotation * scale. Applied to a point, the
// scale happens first, then the rotation, then the translation.
//
// Parameters:
//   - t: translation
//   - q: rotation quaternion (x, y, z, w)
//   - s: scale
//
// Returns:
//   - [16]float32: the composed local transform
func ComposeTRS(t [3]float32, q [4]float32, s [3]float32) [16]float32 {
	m := QuatToMat4(q)
	for col := 0; col < 3; col++ {
		m[col*4+0] *= s[col]
		m[col*4+1] *= s[col]
		m[col*4+2] *= s[col]
	}
	m[12], m[13], m[14] = t[0], t[1], t[2]
	return m
}

// DecomposeTRS splits a column-major affine matrix into translation, rotation and scale.
// Shear is not supported; a matrix with shear decomposes to the closest rotation.
//
// Parameters:
//   - m: the matrix to decompose
//
// Returns:
//   - [3]float32: translation
//   - [4]float32: rotation quaternion (x, y, z, w)
//   - [3]float32: scale
func DecomposeTRS(m [16]float32) ([3]float32, [4]float32, [3]float32) {
	t := [3]float32{m[12], m[13], m[14]}
	s := [3]float32{
		math32.Sqrt(m[0]*m[0] + m[1]*m[1] + m[2]*m[2]),
		math32.Sqrt(m[4]*m[4] + m[5]*m[5] + m[6]*m[6]),
		math32.Sqrt(m[8]*m[8] + m[9]*m[9] + m[10]*m[10]),
	}

	div := s
	for i := range div {
		if div[i] < 1e-4 {
			div[i] = 1
		}
	}

	// r[row][col] of the pure rotation part.
	r00, r10, r20 := m[0]/div[0], m[1]/div[0], m[2]/div[0]
	r01, r11, r21 := m[4]/div[1], m[5]/div[1], m[6]/div[1]
	r02, r12, r22 := m[8]/div[2], m[9]/div[2], m[10]/div[2]

	var x, y, z, w float32
	trace := r00 + r11 + r22
	switch {
	case trace > 0:
		k := math32.Sqrt(trace+1) * 2
		w = 0.25 * k
		x = (r21 - r12) / k
		y = (r02 - r20) / k
		z = (r10 - r01) / k
	case r00 > r11 && r00 > r22:
		k := math32.Sqrt(1+r00-r11-r22) * 2
		w = (r21 - r12) / k
		x = 0.25 * k
		y = (r01 + r10) / k
		z = (r02 + r20) / k
	case r11 > r22:
		k := math32.Sqrt(1+r11-r00-r22) * 2
		w = (r02 - r20) / k
		x = (r01 + r10) / k
		y = 0.25 * k
		z = (r12 + r21) / k
	default:
		k := math32.Sqrt(1+r22-r00-r11) * 2
		w = (r10 - r01) / k
		x = (r02 + r20) / k
		y = (r12 + r21) / k
		z = 0.25 * k
	}

	return t, QuatNormalize([4]float32{x, y, z, w}), s
}

// Invert4 computes the inverse of a 4x4 column-major matrix using cofactor expansion.
//
// Parameters:
//   - m: source matrix
//
// Returns:
//   - [16]float32: the inverse, or the identity if m is singular
//   - bool: false if m is singular
func Invert4(m [16]float32) ([16]float32, bool) {
	s0 := m[0]*m[5] - m[4]*m[1]
	s1 := m[0]*m[6] - m[4]*m[2]
	s2 := m[0]*m[7] - m[4]*m[3]
	s3 := m[1]*m[6] - m[5]*m[2]
	s4 := m[1]*m[7] - m[5]*m[3]
	s5 := m[2]*m[7] - m[6]*m[3]

	c5 := m[10]*m[15] - m[14]*m[11]
	c4 := m[9]*m[15] - m[13]*m[11]
	c3 := m[9]*m[14] - m[13]*m[10]
	c2 := m[8]*m[15] - m[12]*m[11]
	c1 := m[8]*m[14] - m[12]*m[10]
	c0 := m[8]*m[13] - m[12]*m[9]

	det := s0*c5 - s1*c4 + s2*c3 + s3*c2 - s4*c1 + s5*c0
	if det == 0 {
		return Identity4(), false
	}
	inv := 1 / det

	return [16]float32{
		(m[5]*c5 - m[6]*c4 + m[7]*c3) * inv,
		(-m[1]*c5 + m[2]*c4 - m[3]*c3) * inv,
		(m[13]*s5 - m[14]*s4 + m[15]*s3) * inv,
		(-m[9]*s5 + m[10]*s4 - m[11]*s3) * inv,

		(-m[4]*c5 + m[6]*c2 - m[7]*c1) * inv,
		(m[0]*c5 - m[2]*c2 + m[3]*c1) * inv,
		(-m[12]*s5 + m[14]*s2 - m[15]*s1) * inv,
		(m[8]*s5 - m[10]*s2 + m[11]*s1) * inv,

		(m[4]*c4 - m[5]*c2 + m[7]*c0) * inv,
		(-m[0]*c4 + m[1]*c2 - m[3]*c0) * inv,
		(m[12]*s4 - m[13]*s2 + m[15]*s0) * inv,
		(-m[8]*s4 + m[9]*s2 - m[11]*s0) * inv,

		(-m[4]*c3 + m[5]*c1 - m[6]*c0) * inv,
		(m[0]*c3 - m[1]*c1 + m[2]*c0) * inv,
		(-m[12]*s3 + m[13]*s1 - m[14]*s0) * inv,
		(m[8]*s3 - m[9]*s1 + m[10]*s0) * inv,
	}, true
}

// TransformPoint applies m to the point p (w = 1) and drops the w component.
//
// Parameters:
//   - m: the transform
//   - p: the point
//
// Returns:
//   - [3]float32: the transformed point
func TransformPoint(m [16]float32, p [3]float32) [3]float32 {
	return [3]float32{
		m[0]*p[0] + m[4]*p[1] + m[8]*p[2] + m[12],
		m[1]*p[0] + m[5]*p[1] + m[9]*p[2] + m[13],
		m[2]*p[0] + m[6]*p[1] + m[10]*p[2] + m[14],
	}
}

// Lerp3 linearly interpolates two vectors component-wise.
//
// Parameters:
//   - a: value at t = 0
//   - b: value at t = 1
//   - t: the interpolation factor
//
// Returns:
//   - [3]float32: a + (b - a) * t
func Lerp3(a, b [3]float32, t float32) [3]float32 {
	return [3]float32{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
	}
}

// ApproxEqual4 reports whether every element of a and b differs by at most eps.
func ApproxEqual4(a, b [16]float32, eps float32) bool {
	for i := range a {
		if math32.Abs(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}

// IsFinite reports whether f is neither NaN nor an infinity.
func IsFinite(f float32) bool {
	return !math32.IsNaN(f) && !math32.IsInf(f, 0)
}
