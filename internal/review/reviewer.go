package review

import (
	"context"

	"github.com/stackweaver/stackweaver/internal/generate"
)

// PhaseContext carries what the light review needs to know about the phase
// whose output it is checking.
type PhaseContext struct {
	PhaseNumber int
	PhaseName   string
	Features    []string
}

// RequirementsContext carries the whole-build knowledge the comprehensive
// review checks against.
type RequirementsContext struct {
	Features  []string // Original feature names from the concept.
	Contracts []string // Rendered API contracts.
	Patterns  []string // Established coding patterns.
}

// Reviewer is the analysis boundary. LightReview checks one phase's newly
// generated files; ComprehensiveReview checks the entire accumulated file
// set against the original requirements. Both are async boundary calls;
// implementations may be local rules or a remote analysis capability.
type Reviewer interface {
	LightReview(ctx context.Context, files []generate.GeneratedFile, phase PhaseContext) (*Report, error)
	ComprehensiveReview(ctx context.Context, files []generate.GeneratedFile, reqs RequirementsContext) (*Report, error)
}
