// Package warp computes the photometric warp function and its analytic
// Jacobian/Hessian with respect to an se(3) twist, following
// original_source's track.rs warp/warp_jacobian_at formulas.
package warp

import (
	"github.com/nvisio/dvo/camera"
	"github.com/nvisio/dvo/lie"
	"github.com/nvisio/dvo/pyramid"
	"gonum.org/v1/gonum/mat"
)

// Warp projects the point at pixel (x,y) with inverse depth zInv through
// model, returning the pixel coordinates it lands at in the new frame.
func Warp(model lie.SE3, x, y, zInv float64, k camera.Intrinsics) (float64, float64) {
	z := 1.0 / zInv
	p := k.BackProject(x, y, z)
	warped := model.Apply(p)
	proj := k.Project(warped)
	return proj[0] / proj[2], proj[1] / proj[2]
}

// Jacobian computes the 6-vector d(residual)/d(twist) at pixel (u,v) with
// inverse depth zInv and image gradient (gu,gv), transcribed directly
// from track.rs's warp_jacobian_at.
func Jacobian(k camera.Intrinsics, u, v, zInv, gu, gv float64) [6]float64 {
	fu, fv, s := k.Fx(), k.Fy(), k.Skew
	a := u - k.Cu
	b := v - k.Cv
	c := a*fv - s*b
	invFv := 1.0 / fv
	invFuv := 1.0 / (fu * fv)

	var j [6]float64
	j[0] = gu * zInv * fu
	j[1] = zInv * (gu*s + gv*fv)
	j[2] = -zInv * (gu*a + gv*b)
	j[3] = gu*(-a*b*invFv-s) + gv*(-b*b*invFv-fv)
	j[4] = gu*(a*c*invFuv+fu) + gv*(b*c*invFuv)
	j[5] = gu*(-fu*fu*b+s*c)*invFuv + gv*(c/fu)
	return j
}

// Hessian returns the 6x6 outer product j*j^T, the Gauss-Newton
// approximation contributed by a single candidate.
func Hessian(j [6]float64) *mat.SymDense {
	h := mat.NewSymDense(6, nil)
	for i := 0; i < 6; i++ {
		for k := i; k < 6; k++ {
			h.SetSym(i, k, j[i]*j[k])
		}
	}
	return h
}

// Interpolate returns the bilinearly-interpolated intensity of img at
// (x,y), or ok=false if the sample falls outside the valid interior.
func Interpolate(img pyramid.Image, x, y float64) (float64, bool) {
	if x < 0 || y < 0 || x >= float64(img.W-1) || y >= float64(img.H-1) {
		return 0, false
	}
	x0 := int(x)
	y0 := int(y)
	dx := x - float64(x0)
	dy := y - float64(y0)
	v00 := float64(img.At(x0, y0))
	v10 := float64(img.At(x0+1, y0))
	v01 := float64(img.At(x0, y0+1))
	v11 := float64(img.At(x0+1, y0+1))
	top := v00*(1-dx) + v10*dx
	bot := v01*(1-dx) + v11*dx
	return top*(1-dy) + bot*dy, true
}
