// Package idepth implements the inverse-depth parameterization used by
// the tracker's keyframe candidates, following original_source's
// idepth.rs Kind/fuse design.
package idepth

import "math"

// Kind tags the state of an InverseDepth value.
type Kind int

const (
	// Unknown means no depth measurement was ever available here.
	Unknown Kind = iota
	// Discarded means a measurement existed but was rejected during fusion.
	Discarded
	// WithVariance means a valid inverse-depth estimate with an associated variance.
	WithVariance
)

// PriorVariance is the variance assigned to a freshly measured depth pixel.
const PriorVariance = 1.0

// InverseDepth is a tagged inverse-depth value, zInv = 1/z.
type InverseDepth struct {
	Kind     Kind
	Z        float64
	Variance float64
}

// FromDepth converts a raw scaled depth sample (0 meaning "no measurement")
// into an InverseDepth.
func FromDepth(scale float64, raw uint16) InverseDepth {
	if raw == 0 {
		return InverseDepth{Kind: Unknown}
	}
	z := 1.0 / (scale * float64(raw))
	return InverseDepth{Kind: WithVariance, Z: z, Variance: PriorVariance}
}

// Strategy selects how four child inverse-depths are fused into one parent
// value during pyramid downsampling.
type Strategy int

const (
	// DSOMean averages all four children when all are valid; the parent is
	// Unknown when none are valid and Discarded when only some are.
	DSOMean Strategy = iota
	// StatisticallySimilar averages the four children when all are valid
	// and each lies within k standard deviations of their mean; a single
	// outlier discards the whole parent.
	StatisticallySimilar
)

// DefaultK is the default outlier-rejection factor for StatisticallySimilar.
const DefaultK = 3.0

// FuseFunc fuses four child InverseDepth values (a 2x2 block) into one.
type FuseFunc func(a, b, c, d InverseDepth) InverseDepth

// FuseFuncFor returns the FuseFunc implementing strategy s.
func FuseFuncFor(s Strategy) FuseFunc {
	switch s {
	case StatisticallySimilar:
		return func(a, b, c, d InverseDepth) InverseDepth {
			return FuseStatisticallySimilar(a, b, c, d, DefaultK)
		}
	default:
		return fuseDSOMean
	}
}

// Fuse dispatches to the FuseFunc for strategy.
func Fuse(a, b, c, d InverseDepth, strategy Strategy) InverseDepth {
	return FuseFuncFor(strategy)(a, b, c, d)
}

func fuseDSOMean(a, b, c, d InverseDepth) InverseDepth {
	values := [4]InverseDepth{a, b, c, d}
	var sumZ, sumVar float64
	valid := 0
	for _, v := range values {
		if v.Kind == WithVariance {
			sumZ += v.Z
			sumVar += v.Variance
			valid++
		}
	}
	switch valid {
	case 0:
		return InverseDepth{Kind: Unknown}
	case 4:
		return InverseDepth{Kind: WithVariance, Z: sumZ / 4, Variance: sumVar / 16}
	default:
		return InverseDepth{Kind: Discarded}
	}
}

// FuseStatisticallySimilar requires all four children to be valid and
// each to lie within k of its own standard deviations (the square root of
// its Variance) of their mean; otherwise the parent is discarded.
func FuseStatisticallySimilar(a, b, c, d InverseDepth, k float64) InverseDepth {
	values := [4]InverseDepth{a, b, c, d}
	valid := 0
	var sumZ float64
	for _, v := range values {
		if v.Kind == WithVariance {
			sumZ += v.Z
			valid++
		}
	}
	if valid == 0 {
		return InverseDepth{Kind: Unknown}
	}
	if valid < 4 {
		return InverseDepth{Kind: Discarded}
	}
	mean := sumZ / 4
	var sumVar float64
	for _, v := range values {
		sumVar += v.Variance
		if math.Abs(v.Z-mean) > k*math.Sqrt(v.Variance) {
			return InverseDepth{Kind: Discarded}
		}
	}
	return InverseDepth{Kind: WithVariance, Z: mean, Variance: sumVar / 16}
}
