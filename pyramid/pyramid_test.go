package pyramid

import (
	"testing"

	"go.viam.com/test"

	"github.com/nvisio/dvo/idepth"
)

func uniformImage(w, h int, v uint8) Image {
	img := NewImage(w, h)
	for i := range img.Data {
		img.Data[i] = v
	}
	return img
}

func TestMeanPyramidPreservesUniformValue(t *testing.T) {
	img := uniformImage(8, 8, 42)
	levels, err := MeanPyramid(3, img)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(levels), test.ShouldEqual, 3)
	test.That(t, levels[2].W, test.ShouldEqual, 2)
	for _, px := range levels[2].Data {
		test.That(t, px, test.ShouldEqual, uint8(42))
	}
}

func TestMeanPyramidAveragesBlock(t *testing.T) {
	img := NewImage(2, 2)
	img.Set(0, 0, 0)
	img.Set(1, 0, 10)
	img.Set(0, 1, 20)
	img.Set(1, 1, 30)
	levels, err := MeanPyramid(2, img)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, levels[1].At(0, 0), test.ShouldEqual, uint8(15))
}

func TestMeanPyramidRejectsZeroLevels(t *testing.T) {
	_, err := MeanPyramid(0, uniformImage(4, 4, 1))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestGradientZeroOnFlatImage(t *testing.T) {
	img := uniformImage(5, 5, 100)
	g := gradientAt(img, false)
	for _, v := range g.Gx {
		test.That(t, v, test.ShouldEqual, int16(0))
	}
}

func TestGradientSignMatchesRamp(t *testing.T) {
	img := NewImage(5, 5)
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			img.Set(x, y, uint8(x*10))
		}
	}
	g := gradientAt(img, false)
	test.That(t, g.Gx[2*5+2] > 0, test.ShouldBeTrue)
	test.That(t, g.Gy[2*5+2], test.ShouldEqual, int16(0))
}

func TestHalveDiscardsTooSmall(t *testing.T) {
	m := NewInverseDepthMap(1, 1)
	_, ok := Halve(m, idepth.FuseFuncFor(idepth.DSOMean))
	test.That(t, ok, test.ShouldBeFalse)
}

func TestHalveFusesQuadrant(t *testing.T) {
	m := NewInverseDepthMap(2, 2)
	m.Data[0] = idepth.InverseDepth{Kind: idepth.WithVariance, Z: 1.0, Variance: 1.0}
	m.Data[1] = idepth.InverseDepth{Kind: idepth.WithVariance, Z: 2.0, Variance: 1.0}
	m.Data[2] = idepth.InverseDepth{Kind: idepth.WithVariance, Z: 3.0, Variance: 1.0}
	m.Data[3] = idepth.InverseDepth{Kind: idepth.WithVariance, Z: 4.0, Variance: 1.0}
	out, ok := Halve(m, idepth.FuseFuncFor(idepth.DSOMean))
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, out.W, test.ShouldEqual, 1)
	test.That(t, out.At(0, 0).Z, test.ShouldEqual, 2.5)
}

func TestExtractUsableOnlyKeepsValid(t *testing.T) {
	m := NewInverseDepthMap(2, 1)
	m.Data[0] = idepth.InverseDepth{Kind: idepth.Unknown}
	m.Data[1] = idepth.InverseDepth{Kind: idepth.WithVariance, Z: 1.5, Variance: 1.0}
	usable := ExtractUsable(m)
	test.That(t, len(usable.Coords), test.ShouldEqual, 1)
	test.That(t, usable.Coords[0], test.ShouldResemble, Coord{X: 1, Y: 0})
}

func TestLimitedSequenceStopsEarly(t *testing.T) {
	seq := LimitedSequence(6, 16, func(n int) (int, bool) {
		if n <= 1 {
			return 0, false
		}
		return n / 2, true
	})
	test.That(t, seq, test.ShouldResemble, []int{16, 8, 4, 2, 1})
}
