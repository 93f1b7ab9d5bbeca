package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/stackweaver/stackweaver/internal/plan"
	"github.com/stackweaver/stackweaver/internal/telemetry"
)

// Runner drives an Orchestrator through a full build: execute, validate,
// proceed, with state and metrics persisted between phases. One failed
// phase gets a single automatic retry before the run stops; the build
// remains resumable afterwards.
type Runner struct {
	Orch    *Orchestrator
	Dir     string   // Directory for state and metrics files.
	Watcher *Watcher // Optional concept watcher.
	Logger  io.Writer
	Resume  bool // Reapply persisted phase statuses before running.
}

// BuildSummary is the outcome of one Runner.Run call.
type BuildSummary struct {
	PhasesRun    int
	PhasesFailed []int
	FilesBuilt   int
	FinalScore   int
	Stopped      bool // True when the run stopped before completing the plan.
}

// Run executes the plan from its first pending phase to completion or the
// first unrecoverable phase failure.
func (r *Runner) Run(ctx context.Context) (*BuildSummary, error) {
	o := r.Orch
	o.StartBuild(ctx)

	state, err := LoadState(r.Dir)
	if err != nil {
		return nil, err
	}
	if r.Resume && state.ConceptName == o.Plan().Concept.Name {
		state.Apply(o.Plan())
		o.RestoreAccumulated(state.Files)
	}

	metrics := NewMetrics(o.Plan().Concept.Name)
	summary := &BuildSummary{}

	for _, ph := range o.Plan().Phases {
		if ph.Status != plan.StatusPending {
			continue
		}
		if err := ctx.Err(); err != nil {
			summary.Stopped = true
			break
		}
		r.drainWatcher()

		if !r.runPhase(ctx, ph.Number, metrics, summary) {
			summary.Stopped = true
			break
		}

		state.Capture(o.Plan())
		state.Files = o.State().FileMap()
		r.saveState(state)

		if _, err := o.ProceedToNextPhase(); errors.Is(err, ErrBuildComplete) {
			break
		}
	}

	if o.State().Len() > 0 {
		if report, err := o.FinalReview(ctx); err == nil {
			summary.FinalScore = report.OverallScore
		} else {
			r.logf("warning: final review failed: %v", err)
		}
	}

	state.Capture(o.Plan())
	state.Files = o.State().FileMap()
	r.saveState(state)
	if err := metrics.Save(r.Dir); err != nil {
		r.logf("warning: failed to save metrics: %v", err)
	}

	summary.FilesBuilt = o.State().Len()
	return summary, nil
}

// runPhase executes one phase with a single retry on failure. Returns
// false when the phase still cannot proceed.
func (r *Runner) runPhase(ctx context.Context, number int, metrics *Metrics, summary *BuildSummary) bool {
	o := r.Orch

	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			if err := o.RetryPhase(number); err != nil {
				return false
			}
			r.logf("retrying phase %d", number)
		}

		metrics.RecordPhaseStart(number)
		res, err := o.ExecutePhase(ctx, number)
		if err != nil {
			// Only ErrPhaseNotFound reaches here; the plan is broken.
			r.logf("error: %v", err)
			return false
		}
		summary.PhasesRun++

		fixes, score := r.reportNumbers(number)
		metrics.RecordPhaseComplete(number, res, fixes, score)

		for _, w := range res.Warnings {
			r.logf("phase %d warning: %s", number, w)
		}
		for _, e := range res.Errors {
			r.logf("phase %d error: %s", number, e)
		}

		v, err := o.ValidatePhase(number)
		if err != nil {
			return false
		}
		if res.Success() && v.CanProceed {
			return true
		}
	}

	summary.PhasesFailed = append(summary.PhasesFailed, number)
	return false
}

func (r *Runner) reportNumbers(number int) (fixes, score int) {
	if report, ok := r.Orch.Reports().Phase(number); ok {
		return len(report.AppliedFixes), report.OverallScore
	}
	return 0, 0
}

// drainWatcher surfaces concept edits detected since the last phase. The
// run continues with the original plan; the operator decides whether to
// restart with a fresh plan.
func (r *Runner) drainWatcher() {
	if r.Watcher == nil {
		return
	}
	for {
		select {
		case change, ok := <-r.Watcher.Changes:
			if !ok {
				r.Watcher = nil
				return
			}
			r.logf("concept file changed (%s); current plan is stale, consider replanning", change.File)
			r.Orch.emit(telemetry.Event{Kind: telemetry.KindReplanNeeded, Data: change.File})
		default:
			return
		}
	}
}

func (r *Runner) saveState(state *BuildState) {
	if err := SaveState(r.Dir, state); err != nil {
		r.logf("warning: failed to save state: %v", err)
	}
}

func (r *Runner) logf(format string, args ...any) {
	if r.Logger == nil {
		return
	}
	fmt.Fprintf(r.Logger, format+"\n", args...)
}
