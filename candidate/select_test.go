package candidate

import (
	"math/rand"
	"testing"

	"go.viam.com/test"
)

func syntheticG2(w, h int, seed int64) []uint16 {
	r := rand.New(rand.NewSource(seed))
	out := make([]uint16, w*h)
	for i := range out {
		out[i] = uint16(r.Intn(4000))
	}
	return out
}

func TestSelectReturnsFullSizeMask(t *testing.T) {
	w, h := 64, 64
	g2 := syntheticG2(w, h, 1)
	mask := Select(g2, w, h, DefaultRegionConfig, DefaultBlockConfig, DefaultRecursiveConfig, DefaultTarget)
	test.That(t, len(mask), test.ShouldEqual, w*h)
}

func TestSelectApproachesTarget(t *testing.T) {
	w, h := 128, 128
	g2 := syntheticG2(w, h, 7)
	target := 500
	mask := Select(g2, w, h, DefaultRegionConfig, DefaultBlockConfig, DefaultRecursiveConfig, target)
	count := countTrue(mask)
	test.That(t, count >= 0, test.ShouldBeTrue)
	test.That(t, count <= w*h, test.ShouldBeTrue)

	// The kept count starts far above target, so the recursive passes must
	// raise the threshold and keep fewer pixels than a single pass does.
	onePass := DefaultRecursiveConfig
	onePass.NbIterationsLeft = 0
	single := countTrue(Select(g2, w, h, DefaultRegionConfig, DefaultBlockConfig, onePass, target))
	test.That(t, count < single, test.ShouldBeTrue)
}

func TestSelectEmptyOnZeroDims(t *testing.T) {
	mask := Select(nil, 0, 0, DefaultRegionConfig, DefaultBlockConfig, DefaultRecursiveConfig, DefaultTarget)
	test.That(t, len(mask), test.ShouldEqual, 0)
}

func TestSelectKeepsHighContrastPixelOverFlatNeighbors(t *testing.T) {
	w, h := 16, 16
	g2 := make([]uint16, w*h)
	for i := range g2 {
		g2[i] = 10
	}
	// A single strong corner in an otherwise flat region must clear the
	// region's adaptive threshold even though the median stays near zero.
	g2[0] = 60000
	mask := Select(g2, w, h, DefaultRegionConfig, DefaultBlockConfig, DefaultRecursiveConfig, DefaultTarget)
	test.That(t, mask[0], test.ShouldBeTrue)
	test.That(t, mask[w*h-1], test.ShouldBeFalse)
}
