package pyramid

import (
	"gonum.org/v1/gonum/mat"

	"github.com/nvisio/dvo/idepth"
)

// Coord is a pixel coordinate, X being the column and Y the row, matching
// original_source's (x,y) indexing convention (track.rs pre_eval indexes
// obs.template[(y,x)] from a destructured (x,y) pair).
type Coord struct {
	X, Y int
}

// UsableCandidates is the flattened set of pixels with a known inverse
// depth at one pyramid level, ready to be warped and optimized over. ZInv
// holds each pixel's inverse depth (InverseDepth.Z, i.e. 1/depth) in the
// same order as Coords.
type UsableCandidates struct {
	Coords []Coord
	ZInv   []float64
}

// ExtractUsable scans m in row-major order and collects every pixel whose
// InverseDepth carries a variance, preserving that order so that
// downstream reductions are deterministic.
func ExtractUsable(m InverseDepthMap) UsableCandidates {
	var out UsableCandidates
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			v := m.At(x, y)
			if v.Kind != idepth.WithVariance {
				continue
			}
			out.Coords = append(out.Coords, Coord{X: x, Y: y})
			out.ZInv = append(out.ZInv, v.Z)
		}
	}
	return out
}

// LimitedSequence repeatedly applies step to init, collecting every
// intermediate value, up to levels entries total (including init). It
// stops early, returning fewer than levels entries, if step reports
// failure - used when halving a pyramid runs out of pixels before
// reaching the configured depth.
func LimitedSequence[T any](levels int, init T, step func(T) (T, bool)) []T {
	if levels < 1 {
		return nil
	}
	out := make([]T, 1, levels)
	out[0] = init
	cur := init
	for i := 1; i < levels; i++ {
		next, ok := step(cur)
		if !ok {
			break
		}
		out = append(out, next)
		cur = next
	}
	return out
}

// ToDense converts img into a gonum dense matrix, useful for diagnostics
// and for feeding the image into other gonum-based tooling.
func ToDense(img Image) *mat.Dense {
	d := mat.NewDense(img.H, img.W, nil)
	for y := 0; y < img.H; y++ {
		for x := 0; x < img.W; x++ {
			d.Set(y, x, float64(img.At(x, y)))
		}
	}
	return d
}
