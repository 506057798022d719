// Package lie implements the Lie groups SO(3) and SE(3) used to represent
// camera rotations and rigid motions, following original_source's
// so3/mod.rs and track.rs (se3::exp/log, apply_step) formula-for-formula.
package lie

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

const (
	epsilonTaylor   = 1e-2
	epsilonTaylorSq = epsilonTaylor * epsilonTaylor
)

// Vec3 is an so(3) element / a translation vector.
type Vec3 = [3]float64

// Mat3 is a dense row-major 3x3 matrix, used only for the small,
// fixed-size Lie-algebra computations in this package.
type Mat3 = [3][3]float64

// Hat is the skew-symmetric matrix associated to w, so that Hat(w)*v == w x v.
func Hat(w Vec3) Mat3 {
	return Mat3{
		{0, -w[2], w[1]},
		{w[2], 0, -w[0]},
		{-w[1], w[0], 0},
	}
}

// Hat2 is Hat(w) squared, computed directly rather than via matrix
// multiplication (it is always symmetric).
func Hat2(w Vec3) Mat3 {
	w1, w2, w3 := w[0], w[1], w[2]
	w11, w22, w33 := w1*w1, w2*w2, w3*w3
	w12, w13, w23 := w1*w2, w1*w3, w2*w3
	return Mat3{
		{-w22 - w33, w12, w13},
		{w12, -w11 - w33, w23},
		{w13, w23, -w11 - w22},
	}
}

// Vee is the inverse of Hat. It does not check that mat is skew-symmetric.
func Vee(m Mat3) Vec3 {
	return Vec3{m[2][1], m[0][2], m[1][0]}
}

// ExpSO3 is the so(3) exponential map, returning a unit quaternion.
func ExpSO3(w Vec3) quat.Number {
	theta2 := w[0]*w[0] + w[1]*w[1] + w[2]*w[2]
	var real, imagFactor float64
	if theta2 < epsilonTaylorSq {
		real = 1 - theta2/8
		imagFactor = 0.5 - theta2/48
	} else {
		theta := math.Sqrt(theta2)
		half := 0.5 * theta
		real = math.Cos(half)
		imagFactor = math.Sin(half) / theta
	}
	return quat.Number{Real: real, Imag: imagFactor * w[0], Jmag: imagFactor * w[1], Kmag: imagFactor * w[2]}
}

// LogSO3 is the so(3) logarithm map, the inverse of ExpSO3.
func LogSO3(q quat.Number) Vec3 {
	v := Vec3{q.Imag, q.Jmag, q.Kmag}
	normSq := v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
	real := q.Real
	switch {
	case normSq < epsilonTaylorSq:
		k := 2.0 / real
		return scale3(v, k)
	case math.Abs(real) < epsilonTaylor:
		norm := math.Sqrt(normSq)
		alpha := math.Abs(real) / norm
		theta := math.Copysign(math.Pi-2*alpha, real)
		return scale3(v, theta/norm)
	default:
		norm := math.Sqrt(normSq)
		theta := 2 * math.Atan2(norm, real)
		return scale3(v, theta/norm)
	}
}

func scale3(v Vec3, k float64) Vec3 {
	return Vec3{v[0] * k, v[1] * k, v[2] * k}
}

func add3(a, b Vec3) Vec3 {
	return Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func sub3(a, b Vec3) Vec3 {
	return Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func neg3(a Vec3) Vec3 {
	return Vec3{-a[0], -a[1], -a[2]}
}

func mulMat3Vec(m Mat3, v Vec3) Vec3 {
	return Vec3{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}

func addMat3(a, b Mat3) Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = a[i][j] + b[i][j]
		}
	}
	return out
}

func scaleMat3(m Mat3, k float64) Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[i][j] * k
		}
	}
	return out
}

func identityMat3() Mat3 {
	return Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// invert3 returns the inverse of a 3x3 matrix via the adjugate method. It
// is only ever called on V(omega), which is well-conditioned for any
// rotation magnitude (it is the identity at omega=0).
func invert3(m Mat3) Mat3 {
	a, b, c := m[0][0], m[0][1], m[0][2]
	d, e, f := m[1][0], m[1][1], m[1][2]
	g, h, i := m[2][0], m[2][1], m[2][2]

	cofA := e*i - f*h
	cofB := -(d*i - f*g)
	cofC := d*h - e*g
	det := a*cofA + b*cofB + c*cofC
	invDet := 1.0 / det

	return Mat3{
		{cofA * invDet, (c*h - b*i) * invDet, (b*f - c*e) * invDet},
		{cofB * invDet, (a*i - c*g) * invDet, (c*d - a*f) * invDet},
		{cofC * invDet, (b*g - a*h) * invDet, (a*e - b*d) * invDet},
	}
}
