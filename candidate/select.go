// Package candidate selects the sparse set of high-gradient pixels used
// as photometric tracking points, following the region/block/recursive
// design described in original_source's examples/icip-02-tracking_dso.rs.
package candidate

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// RegionConfig controls the per-region adaptive gradient threshold,
// T_region = Alpha*median + Beta, computed over square tiles of Size.
type RegionConfig struct {
	Size       int
	Alpha      float64
	Beta       float64
}

// BlockConfig sets a per-region floor on the threshold: ThresholdFactor
// times the region's largest magnitude. Select does not scan blocks;
// BaseSize and NbLevels are not read by Select.
type BlockConfig struct {
	BaseSize        int
	NbLevels        int
	ThresholdFactor float64
}

// RecursiveConfig controls the outer pass that nudges the effective
// threshold scale toward a target candidate count.
type RecursiveConfig struct {
	NbIterationsLeft int
	LowThresh        float64
	HighThresh       float64
	RandomThresh      float64
}

// DefaultRegionConfig matches original_source's icip-02 example defaults.
var DefaultRegionConfig = RegionConfig{Size: 16, Alpha: 1.0, Beta: 10.0}

// DefaultBlockConfig matches original_source's icip-02 example defaults.
var DefaultBlockConfig = BlockConfig{BaseSize: 4, NbLevels: 3, ThresholdFactor: 0.5}

// DefaultRecursiveConfig matches original_source's icip-02 example defaults.
var DefaultRecursiveConfig = RecursiveConfig{NbIterationsLeft: 3, LowThresh: 0.8, HighThresh: 1.2, RandomThresh: 0.1}

// DefaultTarget is the desired candidate count, ~2000 per original_source.
const DefaultTarget = 2000

// Select returns a boolean mask over a w x h grid of squared-gradient
// magnitudes, true where the pixel is kept as a tracking candidate.
//
// The per-region adaptive threshold (region/Alpha/Beta) is the primary
// selector. Each region keeps pixels at or above the larger of that
// threshold, multiplied by a shared scale factor, and
// block.ThresholdFactor times the region's maximum. The recursive config
// adjusts the scale factor by RandomThresh across at most
// NbIterationsLeft+1 passes to steer the kept count toward target; this is
// a simplification of original_source's fully self-referential
// block-then-recursive description, which defines the block threshold in
// terms of neighboring blocks' own candidate counts.
func Select(g2 []uint16, w, h int, region RegionConfig, block BlockConfig, recursive RecursiveConfig, target int) []bool {
	mask := make([]bool, w*h)
	if w == 0 || h == 0 || region.Size <= 0 {
		return mask
	}

	scale := 1.0
	passes := recursive.NbIterationsLeft + 1
	for pass := 0; pass < passes; pass++ {
		applyRegionThresholds(g2, w, h, region, block, scale, mask)
		count := countTrue(mask)
		if target <= 0 {
			break
		}
		ratio := float64(count) / float64(target)
		if ratio >= recursive.LowThresh && ratio <= recursive.HighThresh {
			break
		}
		if ratio < recursive.LowThresh {
			scale *= 1.0 - recursive.RandomThresh
		} else {
			scale *= 1.0 + recursive.RandomThresh
		}
	}
	return mask
}

func applyRegionThresholds(g2 []uint16, w, h int, region RegionConfig, block BlockConfig, scale float64, mask []bool) {
	for i := range mask {
		mask[i] = false
	}
	size := region.Size
	for ry := 0; ry < h; ry += size {
		for rx := 0; rx < w; rx += size {
			y1 := minInt(ry+size, h)
			x1 := minInt(rx+size, w)
			median := regionMedian(g2, w, rx, ry, x1, y1)
			threshold := (region.Alpha*median + region.Beta) * scale
			blockMax := float64(regionMax(g2, w, rx, ry, x1, y1))
			keepThreshold := threshold
			if block.ThresholdFactor > 0 {
				byFactor := block.ThresholdFactor * blockMax
				if byFactor > keepThreshold {
					keepThreshold = byFactor
				}
			}
			for y := ry; y < y1; y++ {
				for x := rx; x < x1; x++ {
					if float64(g2[y*w+x]) >= keepThreshold {
						mask[y*w+x] = true
					}
				}
			}
		}
	}
}

func regionMedian(g2 []uint16, w, x0, y0, x1, y1 int) float64 {
	n := (x1 - x0) * (y1 - y0)
	if n <= 0 {
		return 0
	}
	vals := make([]float64, 0, n)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			vals = append(vals, float64(g2[y*w+x]))
		}
	}
	sort.Float64s(vals)
	return stat.Quantile(0.5, stat.Empirical, vals, nil)
}

func regionMax(g2 []uint16, w, x0, y0, x1, y1 int) uint16 {
	var max uint16
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if v := g2[y*w+x]; v > max {
				max = v
			}
		}
	}
	return max
}

func countTrue(mask []bool) int {
	n := 0
	for _, v := range mask {
		if v {
			n++
		}
	}
	return n
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
