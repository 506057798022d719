package lie

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// SE3 is a rigid transform: a unit quaternion rotation plus a translation.
type SE3 struct {
	Rot   quat.Number
	Trans Vec3
}

// Twist is an se(3) tangent vector, (nu, omega): linear velocity followed
// by angular velocity, matching original_source's Vector6 layout.
type Twist [6]float64

// Identity returns the identity transform.
func Identity() SE3 {
	return SE3{Rot: quat.Number{Real: 1}, Trans: Vec3{}}
}

// Mul composes two transforms: (s.Mul(other)).Apply(p) == s.Apply(other.Apply(p)).
func (s SE3) Mul(other SE3) SE3 {
	rotatedTrans := rotate(s.Rot, other.Trans)
	return SE3{
		Rot:   quat.Mul(s.Rot, other.Rot),
		Trans: add3(s.Trans, rotatedTrans),
	}
}

// Inverse returns the transform undoing s.
func (s SE3) Inverse() SE3 {
	conj := quat.Conj(s.Rot)
	return SE3{Rot: conj, Trans: neg3(rotate(conj, s.Trans))}
}

// Apply transforms a point by s.
func (s SE3) Apply(p Vec3) Vec3 {
	return add3(rotate(s.Rot, p), s.Trans)
}

func rotate(q quat.Number, v Vec3) Vec3 {
	p := quat.Number{Imag: v[0], Jmag: v[1], Kmag: v[2]}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return Vec3{r.Imag, r.Jmag, r.Kmag}
}

// Exp is the se(3) exponential map.
func Exp(xi Twist) SE3 {
	nu := Vec3{xi[0], xi[1], xi[2]}
	omega := Vec3{xi[3], xi[4], xi[5]}
	rot := ExpSO3(omega)
	v := vMatrix(omega)
	trans := mulMat3Vec(v, nu)
	return SE3{Rot: rot, Trans: trans}
}

// Log is the se(3) logarithm map, the inverse of Exp.
func Log(s SE3) Twist {
	omega := LogSO3(s.Rot)
	v := vMatrix(omega)
	nu := mulMat3Vec(invert3(v), s.Trans)
	return Twist{nu[0], nu[1], nu[2], omega[0], omega[1], omega[2]}
}

// vMatrix computes the V(omega) matrix used by both Exp and Log, with a
// Taylor-series fallback near omega=0 to avoid the 0/0 indeterminate forms.
func vMatrix(omega Vec3) Mat3 {
	theta2 := omega[0]*omega[0] + omega[1]*omega[1] + omega[2]*omega[2]
	hat := Hat(omega)
	hat2 := Hat2(omega)
	id := identityMat3()
	if theta2 < epsilonTaylorSq {
		return addMat3(id, addMat3(scaleMat3(hat, 0.5), scaleMat3(hat2, 1.0/6.0)))
	}
	theta := math.Sqrt(theta2)
	a := (1 - math.Cos(theta)) / theta2
	b := (theta - math.Sin(theta)) / (theta2 * theta)
	return addMat3(id, addMat3(scaleMat3(hat, a), scaleMat3(hat2, b)))
}

// FromVector builds a Twist from its 6 components (nu, omega).
func FromVector(v [6]float64) Twist {
	return Twist(v)
}

// ToVector returns the Twist as a plain 6-vector.
func (t Twist) ToVector() [6]float64 {
	return [6]float64(t)
}
