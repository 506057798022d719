package warp

import (
	"math"
	"testing"

	"go.viam.com/test"

	"github.com/nvisio/dvo/camera"
	"github.com/nvisio/dvo/lie"
	"github.com/nvisio/dvo/pyramid"
)

func testIntrinsics() camera.Intrinsics {
	return camera.Intrinsics{FocalLength: 500.0, Cu: 160.0, Cv: 120.0, Su: 1.0, Sv: 1.0}
}

func TestWarpIdentityIsNoOp(t *testing.T) {
	k := testIntrinsics()
	u, v := Warp(lie.Identity(), 100.0, 90.0, 1.0/2.5, k)
	test.That(t, math.Abs(u-100.0) < 1e-9, test.ShouldBeTrue)
	test.That(t, math.Abs(v-90.0) < 1e-9, test.ShouldBeTrue)
}

// TestJacobianMatchesWarpJacobianAtFormula checks every component of
// Jacobian against hand-computed warp_jacobian_at values for an
// intrinsics model with nonzero skew, so a dropped skew cross-term
// would be caught.
func TestJacobianMatchesWarpJacobianAtFormula(t *testing.T) {
	k := camera.Intrinsics{FocalLength: 500.0, Cu: 160.0, Cv: 120.0, Su: 1.0, Sv: 1.0, Skew: 10.0}
	j := Jacobian(k, 170.0, 130.0, 0.4, 5.0, -3.0)
	want := [6]float64{1000, -580, -8, 1449.6, 2500.392, -78.42}
	for i := 0; i < 6; i++ {
		test.That(t, math.Abs(j[i]-want[i]) < 1e-9, test.ShouldBeTrue)
	}
}

func TestHessianIsOuterProductOfJacobian(t *testing.T) {
	j := [6]float64{1, 2, 3, 4, 5, 6}
	h := Hessian(j)
	for i := 0; i < 6; i++ {
		for k := 0; k < 6; k++ {
			test.That(t, h.At(i, k), test.ShouldEqual, j[i]*j[k])
		}
	}
}

func TestInterpolateMatchesExactPixel(t *testing.T) {
	img := pyramid.NewImage(4, 4)
	for i := range img.Data {
		img.Data[i] = uint8(i * 10)
	}
	v, ok := Interpolate(img, 1.0, 1.0)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, float64(img.At(1, 1)))
}

func TestInterpolateRejectsOutOfBounds(t *testing.T) {
	img := pyramid.NewImage(4, 4)
	_, ok := Interpolate(img, 3.5, 1.0)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestInterpolateAveragesMidpoint(t *testing.T) {
	img := pyramid.NewImage(2, 2)
	img.Set(0, 0, 0)
	img.Set(1, 0, 100)
	img.Set(0, 1, 0)
	img.Set(1, 1, 100)
	v, ok := Interpolate(img, 0.5, 0.0)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, 50.0)
}
