package lie

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func almostEqualVec3(a, b Vec3, tol float64) bool {
	return math.Abs(a[0]-b[0]) < tol && math.Abs(a[1]-b[1]) < tol && math.Abs(a[2]-b[2]) < tol
}

func TestHatVeeRoundTrip(t *testing.T) {
	w := Vec3{0.1, -0.2, 0.3}
	test.That(t, Vee(Hat(w)), test.ShouldResemble, w)
}

func TestHat2MatchesHatSquared(t *testing.T) {
	w := Vec3{0.2, 0.4, -0.1}
	h := Hat(w)
	got := mulMat3(h, h)
	want := Hat2(w)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			test.That(t, math.Abs(got[i][j]-want[i][j]) < 1e-9, test.ShouldBeTrue)
		}
	}
}

func mulMat3(a, b Mat3) Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += a[i][k] * b[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

func TestExpLogRoundTrip(t *testing.T) {
	cases := []Vec3{
		{0, 0, 0},
		{0.001, -0.002, 0.0005},
		{0.3, -0.1, 0.2},
		{1.5, 0.4, -0.9},
	}
	for _, w := range cases {
		q := ExpSO3(w)
		back := LogSO3(q)
		test.That(t, almostEqualVec3(back, w, 1e-6), test.ShouldBeTrue)
	}
}

func TestExpIsUnitQuaternion(t *testing.T) {
	w := Vec3{0.4, -1.1, 0.7}
	q := ExpSO3(w)
	normSq := q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag
	test.That(t, math.Abs(normSq-1) < 1e-9, test.ShouldBeTrue)
}
