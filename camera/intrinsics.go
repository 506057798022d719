// Package camera implements the pinhole projection model used to
// project/back-project points between 3D camera space and image space,
// following original_source's Intrinsics (project/back_project) exactly.
package camera

import (
	"fmt"
	"math"

	"github.com/nvisio/dvo/dvoerr"
)

// Intrinsics holds a pinhole camera model with an optional skew term.
type Intrinsics struct {
	FocalLength float64
	Cu, Cv      float64
	Su, Sv      float64
	Skew        float64
}

// Fx is the focal length in pixels along the u axis.
func (k Intrinsics) Fx() float64 { return k.Su * k.FocalLength }

// Fy is the focal length in pixels along the v axis.
func (k Intrinsics) Fy() float64 { return k.Sv * k.FocalLength }

// Project maps a camera-space point to homogeneous image coordinates
// (u*z, v*z, z); divide by the third component to obtain pixel (u,v).
func (k Intrinsics) Project(p [3]float64) [3]float64 {
	x, y, z := p[0], p[1], p[2]
	return [3]float64{
		k.Su*(k.FocalLength*x+k.Skew*y) + k.Cu*z,
		k.Sv*k.FocalLength*y + k.Cv*z,
		z,
	}
}

// BackProject is the exact inverse of Project: given pixel (u,v) and a
// depth, it returns the camera-space point that projects there.
func (k Intrinsics) BackProject(u, v, depth float64) [3]float64 {
	fu := k.Su * k.FocalLength
	fv := k.Sv * k.FocalLength
	y := depth * (v - k.Cv) / fv
	x := depth*(u-k.Cu)/fu - k.Skew*y/k.FocalLength
	return [3]float64{x, y, depth}
}

// MultiRes returns levels successively halved intrinsics, one per pyramid
// level, matching the pyramid's 2x downsampling at every level.
func (k Intrinsics) MultiRes(levels int) []Intrinsics {
	out := make([]Intrinsics, levels)
	scale := 1.0
	for l := 0; l < levels; l++ {
		out[l] = Intrinsics{
			FocalLength: k.FocalLength * scale,
			Cu:          k.Cu * scale,
			Cv:          k.Cv * scale,
			Su:          k.Su * scale,
			Sv:          k.Sv * scale,
			Skew:        k.Skew * scale,
		}
		scale *= 0.5
	}
	return out
}

// Validate reports malformed intrinsics: non-finite fields or a
// non-positive focal length / scale factor.
func (k Intrinsics) Validate() error {
	for name, v := range map[string]float64{
		"focal_length": k.FocalLength,
		"cu":           k.Cu,
		"cv":           k.Cv,
		"su":           k.Su,
		"sv":           k.Sv,
		"skew":         k.Skew,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("intrinsics field %s is not finite: %w", name, dvoerr.ErrNonFinite)
		}
	}
	if k.FocalLength <= 0 {
		return fmt.Errorf("focal_length must be positive: %w", dvoerr.ErrInvalidInput)
	}
	if k.Su <= 0 || k.Sv <= 0 {
		return fmt.Errorf("su/sv must be positive: %w", dvoerr.ErrInvalidInput)
	}
	return nil
}
