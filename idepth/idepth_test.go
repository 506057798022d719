package idepth

import (
	"testing"

	"go.viam.com/test"
)

func valid(z float64) InverseDepth {
	return InverseDepth{Kind: WithVariance, Z: z, Variance: PriorVariance}
}

func TestFromDepthZeroIsUnknown(t *testing.T) {
	d := FromDepth(0.001, 0)
	test.That(t, d.Kind, test.ShouldEqual, Unknown)
}

func TestFromDepthNonZero(t *testing.T) {
	d := FromDepth(0.001, 1000)
	test.That(t, d.Kind, test.ShouldEqual, WithVariance)
	test.That(t, d.Z, test.ShouldEqual, 1.0)
}

func TestFuseDSOMeanAllValid(t *testing.T) {
	out := fuseDSOMean(valid(1.0), valid(2.0), valid(3.0), valid(4.0))
	test.That(t, out.Kind, test.ShouldEqual, WithVariance)
	test.That(t, out.Z, test.ShouldEqual, 2.5)
	test.That(t, out.Variance, test.ShouldEqual, 4*PriorVariance/16)
}

func TestFuseDSOMeanNoneValid(t *testing.T) {
	unk := InverseDepth{Kind: Unknown}
	out := fuseDSOMean(unk, unk, unk, unk)
	test.That(t, out.Kind, test.ShouldEqual, Unknown)
}

func TestFuseDSOMeanPartial(t *testing.T) {
	unk := InverseDepth{Kind: Unknown}
	out := fuseDSOMean(valid(1.0), unk, valid(2.0), unk)
	test.That(t, out.Kind, test.ShouldEqual, Discarded)
}

func TestFuseStatisticallySimilarAgreeing(t *testing.T) {
	out := FuseStatisticallySimilar(valid(1.0), valid(1.1), valid(0.9), valid(1.0), DefaultK)
	test.That(t, out.Kind, test.ShouldEqual, WithVariance)
}

func TestFuseStatisticallySimilarOutlier(t *testing.T) {
	out := FuseStatisticallySimilar(valid(1.0), valid(1.0), valid(1.0), valid(50.0), DefaultK)
	test.That(t, out.Kind, test.ShouldEqual, Discarded)
}

func TestFuseStatisticallySimilarRequiresAllFour(t *testing.T) {
	unk := InverseDepth{Kind: Unknown}
	out := FuseStatisticallySimilar(valid(1.0), valid(1.0), valid(1.0), unk, DefaultK)
	test.That(t, out.Kind, test.ShouldEqual, Discarded)
}
