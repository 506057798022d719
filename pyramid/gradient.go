package pyramid

// Gradient holds the x/y image gradients for one pyramid level, row-major,
// zero on the outer one-pixel border.
type Gradient struct {
	W, H   int
	Gx, Gy []int16
}

func newGradient(w, h int) Gradient {
	return Gradient{W: w, H: h, Gx: make([]int16, w*h), Gy: make([]int16, w*h)}
}

// gradientAt computes the central-difference gradient of img. When
// normalize is true (used at the finest pyramid level) each component is
// divided by 2, matching original_source's level-0 vs higher-level
// gradient normalization asymmetry.
func gradientAt(img Image, normalize bool) Gradient {
	g := newGradient(img.W, img.H)
	for y := 1; y < img.H-1; y++ {
		for x := 1; x < img.W-1; x++ {
			gx := int16(int(img.At(x+1, y)) - int(img.At(x-1, y)))
			gy := int16(int(img.At(x, y+1)) - int(img.At(x, y-1)))
			if normalize {
				gx /= 2
				gy /= 2
			}
			g.Gx[y*img.W+x] = gx
			g.Gy[y*img.W+x] = gy
		}
	}
	return g
}

// LevelZeroGradient computes the normalized gradient used at the finest
// pyramid level, where candidate selection happens.
func LevelZeroGradient(img Image) Gradient {
	return gradientAt(img, true)
}

// GradientsXY computes non-normalized gradients for every image in imgs,
// including imgs[0]. Callers pass only the levels above the finest, whose
// gradient comes from LevelZeroGradient instead.
func GradientsXY(imgs []Image) []Gradient {
	out := make([]Gradient, len(imgs))
	for i, img := range imgs {
		out[i] = gradientAt(img, false)
	}
	return out
}

// GradSquaredNorm returns gx^2+gy^2 per pixel, saturated at 65535.
func GradSquaredNorm(g Gradient) []uint16 {
	out := make([]uint16, len(g.Gx))
	for i := range g.Gx {
		gx, gy := int32(g.Gx[i]), int32(g.Gy[i])
		sq := gx*gx + gy*gy
		if sq > 65535 {
			sq = 65535
		}
		out[i] = uint16(sq)
	}
	return out
}
