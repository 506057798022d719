// Package optimize implements the generic Levenberg-Marquardt state
// machine driving photometric tracking, following original_source's
// track.rs Optimizer trait and its State/EvalState/EvalData types.
package optimize

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"github.com/nvisio/dvo/camera"
	"github.com/nvisio/dvo/lie"
	"github.com/nvisio/dvo/pyramid"
	"github.com/nvisio/dvo/warp"
)

// maxIterations bounds a single level's LM search, matching track.rs's hard
// iteration cap.
const maxIterations = 20

// energyImprovementThreshold is the minimum mean-energy decrease required
// to keep iterating.
const energyImprovementThreshold = 1.0

// Continue reports whether the LM loop should keep iterating.
type Continue int

const (
	// Forward means the loop should run another iteration.
	Forward Continue = iota
	// Stop means the loop has converged or exhausted its iteration budget.
	Stop
)

// Obs bundles everything the optimizer needs to evaluate one pyramid
// level: the keyframe template, the new image to warp into, and the
// precomputed per-candidate geometry.
type Obs struct {
	Intrinsics  camera.Intrinsics
	Template    pyramid.Image
	Image       pyramid.Image
	Coordinates []pyramid.Coord
	ZInv        []float64
	Jacobians   [][6]float64
	Hessians    []*mat.SymDense
}

// Data is the accepted LM state at some iteration: the current model and
// the Gauss-Newton system built from it.
type Data struct {
	Hessian  *mat.SymDense
	Gradient [6]float64
	Energy   float64
	Model    lie.SE3
}

// State is the full LM state: the damping coefficient plus the last
// accepted Data.
type State struct {
	LMCoef float64
	Data   Data
}

// PreEval is the result of warping every candidate through a model and
// computing residuals, before deciding whether to accept the step.
type PreEval struct {
	InsideIndices []int
	Residuals     []float64
	Energy        float64
}

// PartialState is the outcome of evaluating a candidate step: whether it
// was accepted, and if so the Data it produced.
type PartialState struct {
	Ok     bool
	Data   Data
	Energy float64
}

// InitialEnergy is the sentinel "no prior step" energy, larger than any
// real mean residual.
func InitialEnergy() float64 {
	return math.Inf(1)
}

// ComputeStep solves the damped normal equations H' * delta = gradient,
// where H' is Hessian with its diagonal scaled by (1+LMCoef), returning
// ok=false if the system is not positive-definite. ApplyStep then applies
// the resulting delta as model * exp(delta)^-1, the same net descent
// direction as track.rs's compute_step/apply_step pair.
func ComputeStep(state State) ([6]float64, bool) {
	n := 6
	damped := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := state.Data.Hessian.At(i, j)
			if i == j {
				v *= 1 + state.LMCoef
			}
			damped.SetSym(i, j, v)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(damped); !ok {
		return [6]float64{}, false
	}

	rhs := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		rhs.SetVec(i, state.Data.Gradient[i])
	}
	var sol mat.VecDense
	if err := chol.SolveVecTo(&sol, rhs); err != nil {
		return [6]float64{}, false
	}

	var delta [6]float64
	for i := 0; i < n; i++ {
		delta[i] = sol.AtVec(i)
	}
	return delta, true
}

// ApplyStep composes model with the inverse of exp(delta), then
// renormalizes the resulting quaternion with a fast first-order
// correction (matching track.rs's apply_step renormalization).
func ApplyStep(delta [6]float64, model lie.SE3) lie.SE3 {
	step := lie.Exp(lie.Twist(delta))
	composed := model.Mul(step.Inverse())
	q := composed.Rot
	normSq := q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag
	factor := 0.5 * (3 - normSq)
	composed.Rot = quat.Number{
		Real: factor * q.Real,
		Imag: factor * q.Imag,
		Jmag: factor * q.Jmag,
		Kmag: factor * q.Kmag,
	}
	return composed
}

// Eval warps every candidate through model and computes photometric
// residuals, recording which candidates landed inside the image.
func Eval(obs *Obs, model lie.SE3) PreEval {
	n := len(obs.Coordinates)
	pre := PreEval{
		InsideIndices: make([]int, 0, n),
		Residuals:     make([]float64, n),
	}
	var sumSq float64
	for i, c := range obs.Coordinates {
		u, v := warp.Warp(model, float64(c.X), float64(c.Y), obs.ZInv[i], obs.Intrinsics)
		sampled, ok := warp.Interpolate(obs.Image, u, v)
		if !ok {
			continue
		}
		residual := sampled - float64(obs.Template.At(c.X, c.Y))
		pre.Residuals[i] = residual
		pre.InsideIndices = append(pre.InsideIndices, i)
		sumSq += residual * residual
	}
	if len(pre.InsideIndices) == 0 {
		pre.Energy = math.Inf(1)
	} else {
		pre.Energy = sumSq / float64(len(pre.InsideIndices))
	}
	return pre
}

// EvalPartial decides whether pre's energy is an improvement over energy,
// and if so accumulates the Gauss-Newton gradient and Hessian over the
// candidates that landed inside the image, in their original order (so
// the reduction is deterministic across runs).
func EvalPartial(obs *Obs, energy float64, pre PreEval, model lie.SE3) PartialState {
	if pre.Energy > energy {
		return PartialState{Ok: false, Energy: pre.Energy}
	}
	var gradient [6]float64
	hessian := mat.NewSymDense(6, nil)
	for _, idx := range pre.InsideIndices {
		r := pre.Residuals[idx]
		j := obs.Jacobians[idx]
		for k := 0; k < 6; k++ {
			gradient[k] += j[k] * r
		}
		hessian.AddSym(hessian, obs.Hessians[idx])
	}
	return PartialState{
		Ok:     true,
		Energy: pre.Energy,
		Data: Data{
			Hessian:  hessian,
			Gradient: gradient,
			Energy:   pre.Energy,
			Model:    model,
		},
	}
}

// StopCriterion implements track.rs's four-branch convergence decision:
// whether the candidate step was accepted and whether the iteration
// budget is exhausted together determine the next LMCoef and whether to
// keep iterating.
func StopCriterion(iter int, s0 State, s1 PartialState) (State, Continue) {
	tooManyIterations := iter > maxIterations
	switch {
	case !s1.Ok && tooManyIterations:
		return s0, Stop
	case s1.Ok && tooManyIterations:
		return State{LMCoef: s0.LMCoef, Data: s1.Data}, Stop
	case !s1.Ok && !tooManyIterations:
		return State{LMCoef: s0.LMCoef * 10, Data: s0.Data}, Forward
	default:
		next := State{LMCoef: s0.LMCoef / 10, Data: s1.Data}
		if s0.Data.Energy-s1.Energy <= energyImprovementThreshold {
			return next, Stop
		}
		return next, Forward
	}
}

// Run executes the LM loop for one pyramid level, seeded
// at initModel, returning the final state and whether any step was ever
// accepted (false models a total convergence failure at this level).
func Run(obs *Obs, initModel lie.SE3) (State, bool) {
	pre := Eval(obs, initModel)
	seed := EvalPartial(obs, InitialEnergy(), pre, initModel)
	state := State{LMCoef: 0.1, Data: seed.Data}
	anyAccepted := seed.Ok

	for iter := 1; ; iter++ {
		delta, ok := ComputeStep(state)
		var cont Continue
		if !ok {
			state, cont = StopCriterion(iter, state, PartialState{Ok: false, Energy: math.Inf(1)})
		} else {
			candidateModel := ApplyStep(delta, state.Data.Model)
			candidatePre := Eval(obs, candidateModel)
			partial := EvalPartial(obs, state.Data.Energy, candidatePre, candidateModel)
			if partial.Ok {
				anyAccepted = true
			}
			state, cont = StopCriterion(iter, state, partial)
		}
		if cont == Stop {
			break
		}
	}
	return state, anyAccepted
}
