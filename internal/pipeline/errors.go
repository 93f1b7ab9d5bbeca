package pipeline

import (
	"errors"
	"fmt"
)

// Sentinel errors for orchestrator operations.
var (
	// ErrPhaseNotFound indicates a phase number outside the plan.
	ErrPhaseNotFound = errors.New("phase not found")
	// ErrBuildComplete indicates no pending phases remain.
	ErrBuildComplete = errors.New("build complete")
	// ErrNoPlan indicates the orchestrator was constructed without a plan.
	ErrNoPlan = errors.New("no plan loaded")
)

// GenerationError wraps a failure from the generation callable. It is
// recorded onto the phase result and surfaced via the error callback; it
// never aborts the plan.
type GenerationError struct {
	Phase int
	Err   error
}

// Error returns the phase-qualified message.
func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed for phase %d: %v", e.Phase, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is/As.
func (e *GenerationError) Unwrap() error { return e.Err }

// ReviewError wraps a failure from the review callable.
type ReviewError struct {
	Phase int
	Err   error
}

// Error returns the phase-qualified message.
func (e *ReviewError) Error() string {
	return fmt.Sprintf("review failed for phase %d: %v", e.Phase, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is/As.
func (e *ReviewError) Unwrap() error { return e.Err }
