package generate

import (
	"context"

	"github.com/stackweaver/stackweaver/internal/plan"
)

// Context is the accumulated build knowledge handed to the generator so a
// phase stays consistent with everything generated before it.
type Context struct {
	Concept         plan.Concept
	AccumulatedCode string   // Delimited blob of all files generated so far.
	Patterns        []string // Established coding patterns to follow.
	Contracts       []string // Rendered API contracts generated so far.
}

// Generator produces a raw multi-file code blob for one phase. The blob uses
// the format parsed by ParseBlob.
type Generator interface {
	Generate(ctx context.Context, phase *plan.Phase, buildCtx Context) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, phase *plan.Phase, buildCtx Context) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, phase *plan.Phase, buildCtx Context) (string, error) {
	return f(ctx, phase, buildCtx)
}
