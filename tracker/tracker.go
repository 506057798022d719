// Package tracker ties the pyramid, candidate, warp, and optimize
// packages together into the coarse-to-fine direct visual odometry loop,
// following original_source's track.rs Tracker/State design.
package tracker

import (
	"fmt"
	"math"

	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"

	"github.com/nvisio/dvo/camera"
	"github.com/nvisio/dvo/candidate"
	"github.com/nvisio/dvo/dvoerr"
	"github.com/nvisio/dvo/idepth"
	"github.com/nvisio/dvo/lie"
	"github.com/nvisio/dvo/logging"
	"github.com/nvisio/dvo/optimize"
	"github.com/nvisio/dvo/pyramid"
	"github.com/nvisio/dvo/warp"
)

// Config controls every tunable of a Tracker.
type Config struct {
	NbLevels                int
	CandidatesDiffThreshold uint16
	DepthScale              float64
	Intrinsics              camera.Intrinsics
	OpticalFlowThreshold    float64
	RegionConfig            candidate.RegionConfig
	BlockConfig             candidate.BlockConfig
	RecursiveConfig         candidate.RecursiveConfig
	CandidateTarget         int
	FuseStrategy            idepth.Strategy
	Logger                  logging.Logger
}

func (c Config) withDefaults() Config {
	if c.OpticalFlowThreshold == 0 {
		c.OpticalFlowThreshold = 1.0
	}
	if c.CandidateTarget == 0 {
		c.CandidateTarget = candidate.DefaultTarget
	}
	if c.RegionConfig.Size == 0 {
		c.RegionConfig = candidate.DefaultRegionConfig
	}
	if c.BlockConfig.BaseSize == 0 {
		c.BlockConfig = candidate.DefaultBlockConfig
	}
	if c.RecursiveConfig.NbIterationsLeft == 0 && c.RecursiveConfig.LowThresh == 0 {
		c.RecursiveConfig = candidate.DefaultRecursiveConfig
	}
	if c.Logger == nil {
		c.Logger = logging.NewNopLogger()
	}
	return c
}

func (c Config) validate(depthMap pyramid.DepthMap, img pyramid.Image) error {
	var errs error
	if c.NbLevels < 1 {
		errs = multierr.Append(errs, fmt.Errorf("nb_levels must be >= 1: %w", dvoerr.ErrInvalidInput))
	}
	if c.DepthScale <= 0 || math.IsNaN(c.DepthScale) || math.IsInf(c.DepthScale, 0) {
		errs = multierr.Append(errs, fmt.Errorf("depth_scale must be positive and finite: %w", dvoerr.ErrInvalidInput))
	}
	if depthMap.W != img.W || depthMap.H != img.H {
		errs = multierr.Append(errs, fmt.Errorf("depth map and image dimensions differ: %w", dvoerr.ErrInvalidInput))
	}
	if err := c.Intrinsics.Validate(); err != nil {
		errs = multierr.Append(errs, err)
	}
	return errs
}

// LevelDiagnostics records the LM outcome for a single pyramid level.
type LevelDiagnostics struct {
	Level         int
	Converged     bool
	FinalLMCoef   float64
	FinalEnergy   float64
}

// TrackDiagnostics summarizes the last call to Track.
type TrackDiagnostics struct {
	Converged       bool
	OpticalFlow     float64
	KeyframeChanged bool
	Levels          []LevelDiagnostics
}

// MultiresData is everything precomputed once per keyframe: multi-
// resolution images, gradients, candidate geometry, and the per-candidate
// Jacobians/Hessians used by the optimizer.
type MultiresData struct {
	IntrinsicsMultires       []camera.Intrinsics
	ImgMultires              []pyramid.Image
	GradientsMultires        []pyramid.Gradient
	GradSquaredNormMultires  [][]uint16
	CandidateMask            []bool
	UsableCandidatesMultires []pyramid.UsableCandidates
	JacobiansMultires        [][][6]float64
	HessiansMultires         [][]*mat.SymDense
}

// State is the tracker's mutable working state: the current keyframe and
// the latest tracked frame pose relative to it.
type State struct {
	KeyframeMultiresData      MultiresData
	KeyframePose              lie.SE3
	KeyframeDepthTimestamp    float64
	KeyframeImgTimestamp      float64
	CurrentFramePose          lie.SE3
	CurrentFrameDepthTimestamp float64
	CurrentFrameImgTimestamp  float64
}

// Tracker runs direct photometric tracking against a single keyframe,
// promoting a new keyframe whenever optical flow from the current
// keyframe grows too large.
type Tracker struct {
	config Config
	state  State
	diag   TrackDiagnostics
}

// Init builds a Tracker seeded with the given depth map and image as the
// first keyframe, both at the identity pose.
func (c Config) Init(keyframeDepthTimestamp float64, depthMap pyramid.DepthMap, keyframeImgTimestamp float64, img pyramid.Image) (*Tracker, error) {
	cfg := c.withDefaults()
	if err := cfg.validate(depthMap, img); err != nil {
		return nil, err
	}

	intrinsicsMultires := cfg.Intrinsics.MultiRes(cfg.NbLevels)
	imgMultires, err := pyramid.MeanPyramid(cfg.NbLevels, img)
	if err != nil {
		return nil, fmt.Errorf("building image pyramid: %w", err)
	}

	data, err := precomputeMultiresData(cfg, depthMap, intrinsicsMultires, imgMultires)
	if err != nil {
		return nil, err
	}

	return &Tracker{
		config: cfg,
		state: State{
			KeyframeMultiresData:       data,
			KeyframePose:               lie.Identity(),
			KeyframeDepthTimestamp:     keyframeDepthTimestamp,
			KeyframeImgTimestamp:       keyframeImgTimestamp,
			CurrentFramePose:           lie.Identity(),
			CurrentFrameDepthTimestamp: keyframeDepthTimestamp,
			CurrentFrameImgTimestamp:   keyframeImgTimestamp,
		},
	}, nil
}

func precomputeMultiresData(cfg Config, depthMap pyramid.DepthMap, intrinsicsMultires []camera.Intrinsics, imgMultires []pyramid.Image) (MultiresData, error) {
	levels := len(imgMultires)

	gradients := make([]pyramid.Gradient, levels)
	gradients[0] = pyramid.LevelZeroGradient(imgMultires[0])
	if levels > 1 {
		copy(gradients[1:], pyramid.GradientsXY(imgMultires[1:]))
	}

	g2multires := make([][]uint16, levels)
	for l, g := range gradients {
		g2multires[l] = pyramid.GradSquaredNorm(g)
	}

	finest := g2multires[0]
	mask := candidate.Select(finest, imgMultires[0].W, imgMultires[0].H, cfg.RegionConfig, cfg.BlockConfig, cfg.RecursiveConfig, cfg.CandidateTarget)
	for i, g2 := range finest {
		if g2 < cfg.CandidatesDiffThreshold {
			mask[i] = false
		}
	}

	fullDepth := pyramid.FromDepthMap(depthMap, cfg.DepthScale, mask)
	fuse := idepth.FuseFuncFor(cfg.FuseStrategy)
	idepthLevels := pyramid.LimitedSequence(levels, fullDepth, func(m pyramid.InverseDepthMap) (pyramid.InverseDepthMap, bool) {
		return pyramid.Halve(m, fuse)
	})
	for len(idepthLevels) < levels {
		idepthLevels = append(idepthLevels, pyramid.InverseDepthMap{})
	}

	usable := make([]pyramid.UsableCandidates, levels)
	jacobians := make([][][6]float64, levels)
	hessians := make([][]*mat.SymDense, levels)
	for l := 0; l < levels; l++ {
		if idepthLevels[l].Data == nil {
			continue
		}
		uc := pyramid.ExtractUsable(idepthLevels[l])
		usable[l] = uc
		js := make([][6]float64, len(uc.Coords))
		hs := make([]*mat.SymDense, len(uc.Coords))
		g := gradients[l]
		k := intrinsicsMultires[l]
		for i, c := range uc.Coords {
			gu := float64(g.Gx[c.Y*g.W+c.X])
			gv := float64(g.Gy[c.Y*g.W+c.X])
			j := warp.Jacobian(k, float64(c.X), float64(c.Y), uc.ZInv[i], gu, gv)
			js[i] = j
			hs[i] = warp.Hessian(j)
		}
		jacobians[l] = js
		hessians[l] = hs
	}

	return MultiresData{
		IntrinsicsMultires:       intrinsicsMultires,
		ImgMultires:              imgMultires,
		GradientsMultires:        gradients,
		GradSquaredNormMultires:  g2multires,
		CandidateMask:            mask,
		UsableCandidatesMultires: usable,
		JacobiansMultires:        jacobians,
		HessiansMultires:         hessians,
	}, nil
}

// CurrentFrame returns the timestamp and pose of the last tracked frame.
func (t *Tracker) CurrentFrame() (float64, lie.SE3) {
	return t.state.CurrentFrameImgTimestamp, t.state.CurrentFramePose
}

// LastTrackDiagnostics returns the diagnostics produced by the most
// recent call to Track.
func (t *Tracker) LastTrackDiagnostics() TrackDiagnostics {
	return t.diag
}

// KeyframeImageDense returns the keyframe's image at the given pyramid
// level as a dense matrix, for diagnostics and gonum-based tooling.
func (t *Tracker) KeyframeImageDense(level int) (*mat.Dense, error) {
	imgs := t.state.KeyframeMultiresData.ImgMultires
	if level < 0 || level >= len(imgs) {
		return nil, fmt.Errorf("level %d out of range [0,%d): %w", level, len(imgs), dvoerr.ErrInvalidInput)
	}
	return pyramid.ToDense(imgs[level]), nil
}

// Track runs coarse-to-fine LM tracking of (img, depthMap) against the
// current keyframe, updates the tracker's pose estimate, and promotes a
// new keyframe if the optical flow from the keyframe grows too large.
func (t *Tracker) Track(depthTime float64, depthMap pyramid.DepthMap, imgTime float64, img pyramid.Image) error {
	cfg := t.config
	if err := cfg.validate(depthMap, img); err != nil {
		return err
	}

	imgMultires, err := pyramid.MeanPyramid(cfg.NbLevels, img)
	if err != nil {
		return fmt.Errorf("building image pyramid: %w", err)
	}

	lmModel := t.state.CurrentFramePose.Inverse().Mul(t.state.KeyframePose)

	diag := TrackDiagnostics{Levels: make([]LevelDiagnostics, 0, cfg.NbLevels)}
	optimizationWentWell := true

	kf := t.state.KeyframeMultiresData
	for lvl := cfg.NbLevels - 1; lvl >= 0; lvl-- {
		uc := kf.UsableCandidatesMultires[lvl]
		obs := &optimize.Obs{
			Intrinsics:  kf.IntrinsicsMultires[lvl],
			Template:    kf.ImgMultires[lvl],
			Image:       imgMultires[lvl],
			Coordinates: uc.Coords,
			ZInv:        uc.ZInv,
			Jacobians:   kf.JacobiansMultires[lvl],
			Hessians:    kf.HessiansMultires[lvl],
		}
		state, accepted := optimize.Run(obs, lmModel)
		diag.Levels = append(diag.Levels, LevelDiagnostics{
			Level:       lvl,
			Converged:   accepted,
			FinalLMCoef: state.LMCoef,
			FinalEnergy: state.Data.Energy,
		})
		if !accepted {
			optimizationWentWell = false
			cfg.Logger.Warnf("level %d failed to converge", lvl)
			break
		}
		lmModel = state.Data.Model
	}

	t.state.CurrentFrameDepthTimestamp = depthTime
	t.state.CurrentFrameImgTimestamp = imgTime
	if !optimizationWentWell {
		t.diag = diag
		return nil
	}
	t.state.CurrentFramePose = t.state.KeyframePose.Mul(lmModel.Inverse())

	coarsest := cfg.NbLevels - 1
	flow := opticalFlow(kf, coarsest, lmModel)
	diag.Converged = optimizationWentWell
	diag.OpticalFlow = flow

	if flow >= cfg.OpticalFlowThreshold {
		newData, err := precomputeMultiresData(cfg, depthMap, kf.IntrinsicsMultires, imgMultires)
		if err != nil {
			return fmt.Errorf("promoting keyframe: %w", err)
		}
		t.state.KeyframeMultiresData = newData
		t.state.KeyframePose = t.state.CurrentFramePose
		t.state.KeyframeDepthTimestamp = depthTime
		t.state.KeyframeImgTimestamp = imgTime
		diag.KeyframeChanged = true
	}

	t.diag = diag
	return nil
}

func opticalFlow(kf MultiresData, level int, model lie.SE3) float64 {
	uc := kf.UsableCandidatesMultires[level]
	if len(uc.Coords) == 0 {
		return 0
	}
	k := kf.IntrinsicsMultires[level]
	var sum float64
	for i, c := range uc.Coords {
		u, v := warp.Warp(model, float64(c.X), float64(c.Y), uc.ZInv[i], k)
		sum += math.Abs(u-float64(c.X)) + math.Abs(v-float64(c.Y))
	}
	return sum / float64(len(uc.Coords))
}
