package pyramid

import "github.com/nvisio/dvo/idepth"

// DepthMap is a raw scaled-depth frame, row-major, 0 meaning "no measurement".
type DepthMap struct {
	W, H int
	Data []uint16
}

// At returns the raw depth sample at (x,y).
func (d DepthMap) At(x, y int) uint16 {
	return d.Data[y*d.W+x]
}

// InverseDepthMap is a row-major grid of tagged inverse-depth values.
type InverseDepthMap struct {
	W, H int
	Data []idepth.InverseDepth
}

// At returns the InverseDepth at (x,y).
func (m InverseDepthMap) At(x, y int) idepth.InverseDepth {
	return m.Data[y*m.W+x]
}

// NewInverseDepthMap allocates a map of Unknown values.
func NewInverseDepthMap(w, h int) InverseDepthMap {
	return InverseDepthMap{W: w, H: h, Data: make([]idepth.InverseDepth, w*h)}
}

// FromDepthMap converts a raw DepthMap into an InverseDepthMap wholesale,
// masked by keep (candidate selection); pixels outside keep are Unknown
// regardless of their depth sample.
func FromDepthMap(d DepthMap, scale float64, keep []bool) InverseDepthMap {
	out := NewInverseDepthMap(d.W, d.H)
	for i, raw := range d.Data {
		if keep != nil && !keep[i] {
			continue
		}
		out.Data[i] = idepth.FromDepth(scale, raw)
	}
	return out
}

// Halve fuses 2x2 blocks of m using fuse, returning the child level and
// whether the result has at least one pixel in each dimension.
func Halve(m InverseDepthMap, fuse idepth.FuseFunc) (InverseDepthMap, bool) {
	w, h := m.W/2, m.H/2
	if w < 1 || h < 1 {
		return InverseDepthMap{}, false
	}
	out := NewInverseDepthMap(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x0, y0 := 2*x, 2*y
			out.Data[y*w+x] = fuse(m.At(x0, y0), m.At(x0+1, y0), m.At(x0, y0+1), m.At(x0+1, y0+1))
		}
	}
	return out, true
}
