// Package dvoerr defines the sentinel error taxonomy shared across the
// tracker. Call sites wrap one of these with fmt.Errorf("...: %w", Err...)
// so callers can test with errors.Is.
package dvoerr

import "errors"

var (
	// ErrInvalidInput marks malformed configuration or mismatched buffer shapes.
	ErrInvalidInput = errors.New("dvo: invalid input")
	// ErrNonFinite marks a NaN/Inf value reaching a component that requires finite inputs.
	ErrNonFinite = errors.New("dvo: non-finite value")
	// ErrDegenerateStep marks a non-positive-definite Hessian in the LM solver.
	ErrDegenerateStep = errors.New("dvo: degenerate (non-PD) hessian")
	// ErrConvergenceFailed names the ConvergenceFailure condition (a pyramid
	// level whose LM run accepted no step). Tracker.Track does not return it;
	// it reports the condition through TrackDiagnostics.Converged.
	ErrConvergenceFailed = errors.New("dvo: lm failed to converge at a level")
)
