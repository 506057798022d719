// Package pyramid builds multi-resolution image, gradient, and
// inverse-depth representations of a frame, following original_source's
// multires.rs and candidates.rs mean-pooling and gradient computations.
package pyramid

import (
	"fmt"

	"github.com/nvisio/dvo/dvoerr"
)

// Image is a single-channel 8-bit grayscale frame, row-major.
type Image struct {
	W, H int
	Data []uint8
}

// At returns the pixel at (x,y), x being the column and y the row.
func (img Image) At(x, y int) uint8 {
	return img.Data[y*img.W+x]
}

// Set writes the pixel at (x,y).
func (img Image) Set(x, y int, v uint8) {
	img.Data[y*img.W+x] = v
}

// NewImage allocates a zeroed image of the given size.
func NewImage(w, h int) Image {
	return Image{W: w, H: h, Data: make([]uint8, w*h)}
}

// MeanPyramid builds levels successively 2x-mean-downsampled images,
// starting from img at level 0. Dimensions are first truncated to a
// multiple of 2^(levels-1) so every level divides evenly.
func MeanPyramid(levels int, img Image) ([]Image, error) {
	if levels < 1 {
		return nil, fmt.Errorf("levels must be >= 1: %w", dvoerr.ErrInvalidInput)
	}
	factor := 1 << uint(levels-1)
	w := (img.W / factor) * factor
	h := (img.H / factor) * factor
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("image too small for %d levels: %w", levels, dvoerr.ErrInvalidInput)
	}
	base := cropImage(img, w, h)
	out := make([]Image, levels)
	out[0] = base
	cur := base
	for l := 1; l < levels; l++ {
		cur = halveImage(cur)
		out[l] = cur
	}
	return out, nil
}

func cropImage(img Image, w, h int) Image {
	if w == img.W && h == img.H {
		return img
	}
	out := NewImage(w, h)
	for y := 0; y < h; y++ {
		copy(out.Data[y*w:(y+1)*w], img.Data[y*img.W:y*img.W+w])
	}
	return out
}

func halveImage(img Image) Image {
	w, h := img.W/2, img.H/2
	out := NewImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x0, y0 := 2*x, 2*y
			sum := int(img.At(x0, y0)) + int(img.At(x0+1, y0)) + int(img.At(x0, y0+1)) + int(img.At(x0+1, y0+1))
			out.Set(x, y, uint8(sum/4))
		}
	}
	return out
}
