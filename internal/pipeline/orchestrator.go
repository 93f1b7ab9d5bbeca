// Package pipeline drives a build plan through its phases: dependency-aware
// scheduling, accumulated-state folding, quality gating with auto-fixing,
// and restore points around risky transitions. A single Orchestrator owns
// all mutable build state; callers must serialize calls into one instance.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/stackweaver/stackweaver/internal/analyze"
	"github.com/stackweaver/stackweaver/internal/autofix"
	"github.com/stackweaver/stackweaver/internal/dag"
	"github.com/stackweaver/stackweaver/internal/generate"
	"github.com/stackweaver/stackweaver/internal/ledger"
	"github.com/stackweaver/stackweaver/internal/plan"
	"github.com/stackweaver/stackweaver/internal/restore"
	"github.com/stackweaver/stackweaver/internal/review"
	"github.com/stackweaver/stackweaver/internal/telemetry"
)

// Orchestrator executes a plan phase by phase. Phases never run
// concurrently: phase N's generation context depends on the accumulated
// output of every phase before it.
type Orchestrator struct {
	plan      *plan.Plan
	generator generate.Generator
	reviewer  review.Reviewer
	fixer     *autofix.Engine
	analyzer  *analyze.Analyzer
	state     *analyze.State
	restore   *restore.Service
	ledger    *ledger.Store      // Optional.
	telemetry *telemetry.Emitter // Optional; nil is a no-op emitter.
	events    Events
	reports   *review.ReportSet

	current  int // Number of the phase currently in focus.
	paused   bool
	complete bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithEvents installs notification callbacks.
func WithEvents(e Events) Option {
	return func(o *Orchestrator) { o.events = e }
}

// WithRestoreService installs a restore point service. Without one, no
// snapshots are taken.
func WithRestoreService(s *restore.Service) Option {
	return func(o *Orchestrator) { o.restore = s }
}

// WithLedger installs a persistent knowledge ledger.
func WithLedger(l *ledger.Store) Option {
	return func(o *Orchestrator) { o.ledger = l }
}

// WithTelemetry installs a telemetry emitter.
func WithTelemetry(t *telemetry.Emitter) Option {
	return func(o *Orchestrator) { o.telemetry = t }
}

// WithAnalyzer overrides the default file analyzer. The analyzer is an
// injected strategy: the orchestrator is indifferent to how the concrete
// implementation is obtained.
func WithAnalyzer(a *analyze.Analyzer) Option {
	return func(o *Orchestrator) { o.analyzer = a }
}

// New constructs an Orchestrator for the given plan with injected
// generation and review collaborators. New validates the plan's dependency
// graph and returns an error for cycles, forward references, or
// non-contiguous numbering.
func New(p *plan.Plan, gen generate.Generator, rev review.Reviewer, opts ...Option) (*Orchestrator, error) {
	if p == nil {
		return nil, ErrNoPlan
	}
	if err := ValidatePlan(p); err != nil {
		return nil, err
	}

	o := &Orchestrator{
		plan:      p,
		generator: gen,
		reviewer:  rev,
		fixer:     autofix.New(),
		analyzer:  analyze.New(),
		state:     analyze.NewState(),
		reports:   review.NewReportSet(),
		current:   1,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// ValidatePlan checks that phase numbers form a contiguous 1..N range and
// the dependency graph is acyclic and strictly backward-referencing.
func ValidatePlan(p *plan.Plan) error {
	g := dag.New()
	for i, ph := range p.Phases {
		if ph.Number != i+1 {
			return fmt.Errorf("phase numbering not contiguous: index %d has number %d", i, ph.Number)
		}
		if err := g.AddNode(ph.Number); err != nil {
			return fmt.Errorf("invalid plan: %w", err)
		}
	}
	for _, ph := range p.Phases {
		for _, dep := range ph.DependsOn {
			if err := g.AddDependency(ph.Number, dep); err != nil {
				return fmt.Errorf("invalid plan: %w", err)
			}
		}
	}
	if _, err := g.TopoOrder(); err != nil {
		return fmt.Errorf("invalid plan: %w", err)
	}
	return nil
}

// Plan returns the orchestrator's plan.
func (o *Orchestrator) Plan() *plan.Plan { return o.plan }

// State returns the accumulated build state.
func (o *Orchestrator) State() *analyze.State { return o.state }

// Reports returns the stored quality reports.
func (o *Orchestrator) Reports() *review.ReportSet { return o.reports }

// StartBuild resets every phase to pending, clears accumulated state and
// reports, and marks phases skipped according to the concept's declared
// complexity. The plan's phase count never changes, only statuses.
func (o *Orchestrator) StartBuild(ctx context.Context) {
	for _, ph := range o.plan.Phases {
		ph.Status = plan.StatusPending
		ph.GeneratedCode = ""
		for i := range ph.Tasks {
			ph.Tasks[i].Done = false
		}
		for i := range ph.Checks {
			ph.Checks[i].Passed = false
			ph.Checks[i].Message = ""
		}
	}
	o.state = analyze.NewState()
	o.reports = review.NewReportSet()
	o.current = 1
	o.paused = false
	o.complete = false

	o.applyComplexitySkips()

	o.emit(telemetry.Event{Kind: telemetry.KindBuildStart, Build: o.plan.Concept.Name})
}

// applyComplexitySkips marks phases skipped based on declared complexity.
// Simple concepts skip the polish pass entirely; moderate concepts skip
// polish only when the plan is already large. Complex concepts skip
// nothing. Setup is never skipped.
func (o *Orchestrator) applyComplexitySkips() {
	const moderatePolishThreshold = 6

	for _, ph := range o.plan.Phases {
		if ph.Domain != plan.DomainPolish {
			continue
		}
		switch o.plan.Concept.Complexity {
		case plan.ComplexitySimple:
			ph.Status = plan.StatusSkipped
		case plan.ComplexityModerate:
			if len(o.plan.Phases) >= moderatePolishThreshold {
				ph.Status = plan.StatusSkipped
			}
		}
		if ph.Status == plan.StatusSkipped {
			o.emit(telemetry.Event{Kind: telemetry.KindPhaseSkipped, Phase: ph.Number})
		}
	}
}

// PhaseResult is the outcome of one ExecutePhase call.
type PhaseResult struct {
	Phase          int
	TasksCompleted int
	TotalTasks     int
	Duration       time.Duration
	Errors         []string
	Warnings       []string
}

// Success reports whether every declared task completed.
func (r PhaseResult) Success() bool {
	return r.TasksCompleted == r.TotalTasks && len(r.Errors) == 0
}

// ExecutePhase runs one phase: generation, analysis folding, light review
// with auto-fixing, and the task loop with a cooperative pause check
// between tasks. Execution failures are captured into the result's error
// list and reported via the error callback; they do not propagate. Only a
// missing phase returns a non-nil error.
func (o *Orchestrator) ExecutePhase(ctx context.Context, number int) (*PhaseResult, error) {
	ph := o.plan.PhaseByNumber(number)
	if ph == nil {
		return nil, fmt.Errorf("%w: %d", ErrPhaseNotFound, number)
	}

	res := &PhaseResult{Phase: number, TotalTasks: len(ph.Tasks)}

	if ph.Status == plan.StatusSkipped {
		// Trivial success: a skipped phase has no work.
		res.TotalTasks = 0
		return res, nil
	}

	start := time.Now()
	ph.Status = plan.StatusInProgress
	o.current = number
	o.events.phaseStart(o.progressEvent(ph, "phase started"))
	o.emit(telemetry.Event{Kind: telemetry.KindPhaseStart, Phase: number, Data: ph.Name})

	o.snapshot(fmt.Sprintf("before phase %d: %s", number, ph.Name), number)

	if ph.GeneratedCode == "" {
		if err := o.generateAndGate(ctx, ph, res); err != nil {
			res.Errors = append(res.Errors, err.Error())
			o.events.reportError(number, err)
		}
	}

	// Task loop. The pause flag is polled between tasks only; there is no
	// mid-task preemption. A paused phase stays in-progress and resumes
	// from its first unfinished task on a later call.
	if len(res.Errors) == 0 {
		for i := range ph.Tasks {
			if ph.Tasks[i].Done {
				res.TasksCompleted++
				continue
			}
			if o.paused {
				break
			}
			ph.Tasks[i].Done = true
			res.TasksCompleted++
		}
	}

	res.Duration = time.Since(start)

	switch {
	case len(res.Errors) > 0:
		ph.Status = plan.StatusFailed
	case res.TasksCompleted < res.TotalTasks:
		// Paused mid-loop: leave in-progress with partial completion.
	default:
		ph.Status = plan.StatusCompleted
	}

	if ph.Status != plan.StatusInProgress {
		o.events.phaseComplete(o.progressEvent(ph, fmt.Sprintf("phase %s", ph.Status)))
		o.emit(telemetry.Event{Kind: telemetry.KindPhaseDone, Phase: number, Data: string(ph.Status)})
	}
	return res, nil
}

// generateAndGate calls the generation boundary, folds the analysis into
// the accumulated state, and runs the light review with auto-fixing.
func (o *Orchestrator) generateAndGate(ctx context.Context, ph *plan.Phase, res *PhaseResult) error {
	blob, err := o.generator.Generate(ctx, ph, generate.Context{
		Concept:         o.plan.Concept,
		AccumulatedCode: o.state.CombinedCode(),
		Patterns:        o.state.Patterns(),
		Contracts:       o.state.ContractStrings(),
	})
	if err != nil {
		return &GenerationError{Phase: ph.Number, Err: err}
	}

	_, files := generate.ParseBlob(blob)
	if len(files) == 0 {
		return &GenerationError{Phase: ph.Number, Err: fmt.Errorf("blob contained no files")}
	}

	analysis := o.analyzer.Analyze(files)
	o.state.Fold(analysis)

	report, fixedFiles, err := o.gatePhase(ctx, ph, files)
	if err != nil {
		// Review failure is advisory: record a warning and continue with
		// ungated output.
		res.Warnings = append(res.Warnings, err.Error())
		o.events.reportError(ph.Number, err)
	} else {
		o.reports.SetPhase(ph.Number, report)
		if !report.Passed {
			res.Warnings = append(res.Warnings, fmt.Sprintf("quality gate score %d", report.OverallScore))
		}
		files = mergeFixed(files, fixedFiles)
	}

	ph.GeneratedCode = generate.FormatBlob(generate.BlobHeader{}, files)
	o.recordLedger(ctx, ph.Number, res)
	return nil
}

// gatePhase runs the light review and applies validated auto-fixes,
// refolding any fixed files so the accumulated state reflects their final
// content.
func (o *Orchestrator) gatePhase(ctx context.Context, ph *plan.Phase, files []generate.GeneratedFile) (*review.Report, []generate.GeneratedFile, error) {
	features := make([]string, 0, len(ph.Features))
	for _, fc := range ph.Features {
		features = append(features, fc.Feature.Name)
	}

	report, err := o.reviewer.LightReview(ctx, files, review.PhaseContext{
		PhaseNumber: ph.Number,
		PhaseName:   ph.Name,
		Features:    features,
	})
	if err != nil {
		return nil, nil, &ReviewError{Phase: ph.Number, Err: err}
	}

	fixRes := o.fixer.Fix(files, report.Issues)
	if len(fixRes.Files) > 0 {
		o.state.Fold(o.analyzer.Analyze(fixRes.Files))
		for _, fix := range fixRes.Applied {
			o.emit(telemetry.Event{Kind: telemetry.KindFixApplied, Phase: ph.Number, Data: fix})
		}
	}

	report.AppliedFixes = append(report.AppliedFixes, fixRes.Applied...)
	report.Issues = fixRes.Unresolved
	report.Score()
	o.emit(telemetry.Event{Kind: telemetry.KindReviewDone, Phase: ph.Number, Data: report.OverallScore})
	return report, fixRes.Files, nil
}

// FinalReview runs the comprehensive review over the entire accumulated
// file set, applies auto-fixes, and stores the report under the reserved
// final key.
func (o *Orchestrator) FinalReview(ctx context.Context) (*review.Report, error) {
	files := accumulatedAsGenerated(o.state)

	var features []string
	for _, f := range o.plan.Concept.Features {
		features = append(features, f.Name)
	}

	report, err := o.reviewer.ComprehensiveReview(ctx, files, review.RequirementsContext{
		Features:  features,
		Contracts: o.state.ContractStrings(),
		Patterns:  o.state.Patterns(),
	})
	if err != nil {
		return nil, &ReviewError{Phase: 0, Err: err}
	}

	fixRes := o.fixer.Fix(files, report.Issues)
	if len(fixRes.Files) > 0 {
		o.state.Fold(o.analyzer.Analyze(fixRes.Files))
	}
	report.AppliedFixes = append(report.AppliedFixes, fixRes.Applied...)
	report.Issues = fixRes.Unresolved
	report.Score()

	o.reports.SetFinal(report)
	o.emit(telemetry.Event{Kind: telemetry.KindReviewDone, Data: "final"})
	return report, nil
}

// ValidationResult is the outcome of ValidatePhase. Failures of type
// "render" are hard-blocking; all other failures are advisory.
type ValidationResult struct {
	Phase      int
	Checks     []plan.ValidationCheck
	Passed     bool
	CanProceed bool
}

// ValidatePhase evaluates the phase's declared validation checks.
func (o *Orchestrator) ValidatePhase(number int) (*ValidationResult, error) {
	ph := o.plan.PhaseByNumber(number)
	if ph == nil {
		return nil, fmt.Errorf("%w: %d", ErrPhaseNotFound, number)
	}

	report, hasReport := o.reports.Phase(number)

	for i := range ph.Checks {
		check := &ph.Checks[i]
		switch check.Type {
		case "static":
			check.Passed = !hasReport || noErrorIssues(report)
			if !check.Passed {
				check.Message = "review reported error-severity issues"
			}
		case "render":
			check.Passed = ph.Status == plan.StatusCompleted && ph.GeneratedCode != ""
			if !check.Passed {
				check.Message = "phase has no accepted generated output"
			}
		case "semantic":
			check.Passed = !hasReport || report.OverallScore >= 50
			if !check.Passed {
				check.Message = fmt.Sprintf("quality score %d below semantic floor", report.OverallScore)
			}
		default:
			check.Passed = true
		}
	}

	res := &ValidationResult{Phase: number, Checks: ph.Checks}
	res.Passed = allPassed(ph.Checks)
	res.CanProceed = res.Passed || noFailing(ph.Checks, "render")

	o.events.validationComplete(*res)
	o.emit(telemetry.Event{Kind: telemetry.KindValidationDone, Phase: number, Data: res.CanProceed})
	return res, nil
}

// ProceedToNextPhase advances to the next phase with status pending. When
// none remain the build is marked complete and the build-complete event
// fires. Returns ErrBuildComplete once complete.
func (o *Orchestrator) ProceedToNextPhase() (int, error) {
	for _, ph := range o.plan.Phases {
		if ph.Number > o.current && ph.Status == plan.StatusPending {
			o.current = ph.Number
			return ph.Number, nil
		}
	}
	if !o.complete {
		o.complete = true
		o.events.buildComplete(o.Progress())
		o.emit(telemetry.Event{Kind: telemetry.KindBuildDone, Build: o.plan.Concept.Name})
	}
	return 0, ErrBuildComplete
}

// SkipPhase marks a phase skipped.
func (o *Orchestrator) SkipPhase(number int) error {
	ph := o.plan.PhaseByNumber(number)
	if ph == nil {
		return fmt.Errorf("%w: %d", ErrPhaseNotFound, number)
	}
	ph.Status = plan.StatusSkipped
	o.emit(telemetry.Event{Kind: telemetry.KindPhaseSkipped, Phase: number})
	return nil
}

// RetryPhase resets a phase to pending and clears only that phase's task
// and check state. Accumulated files from other phases are untouched.
func (o *Orchestrator) RetryPhase(number int) error {
	ph := o.plan.PhaseByNumber(number)
	if ph == nil {
		return fmt.Errorf("%w: %d", ErrPhaseNotFound, number)
	}
	ph.Status = plan.StatusPending
	ph.GeneratedCode = ""
	for i := range ph.Tasks {
		ph.Tasks[i].Done = false
	}
	for i := range ph.Checks {
		ph.Checks[i].Passed = false
		ph.Checks[i].Message = ""
	}
	if number <= o.current {
		o.current = number
	}
	o.complete = false
	o.emit(telemetry.Event{Kind: telemetry.KindPhaseRetried, Phase: number})
	return nil
}

// Pause sets the cooperative pause flag polled between tasks.
func (o *Orchestrator) Pause() { o.paused = true }

// Resume clears the cooperative pause flag.
func (o *Orchestrator) Resume() { o.paused = false }

// Paused reports the cooperative pause flag.
func (o *Orchestrator) Paused() bool { return o.paused }

// Rollback restores the accumulated file set from a restore point,
// re-running analysis so the state matches the restored content.
func (o *Orchestrator) Rollback(id string) error {
	if o.restore == nil {
		return fmt.Errorf("%w: no restore service", restore.ErrNotFound)
	}
	files, err := o.restore.RollbackTo(id)
	if err != nil {
		return err
	}
	o.state.Restore(files, o.analyzer)
	o.emit(telemetry.Event{Kind: telemetry.KindRollbackPerformed, Data: id})
	return nil
}

// RestoreAccumulated rehydrates the accumulated file set from a persisted
// build, re-running analysis so patterns and contracts are available to the
// next phase's generation context.
func (o *Orchestrator) RestoreAccumulated(files map[string]string) {
	if len(files) == 0 {
		return
	}
	o.state.Restore(files, o.analyzer)
}

// RollbackFile restores a single file's content from a restore point
// without disturbing the rest of the accumulated state.
func (o *Orchestrator) RollbackFile(id, path string) error {
	if o.restore == nil {
		return fmt.Errorf("%w: no restore service", restore.ErrNotFound)
	}
	content, err := o.restore.RollbackFile(id, path)
	if err != nil {
		return err
	}
	o.state.SetContent(path, content)
	o.emit(telemetry.Event{Kind: telemetry.KindRollbackPerformed, Data: id + ":" + path})
	return nil
}

// snapshot captures a restore point before a risky transition.
func (o *Orchestrator) snapshot(label string, phase int) {
	if o.restore == nil || o.state.Len() == 0 {
		return
	}
	id := o.restore.Create(label, o.state.FileMap(), map[string]string{
		"phase":   fmt.Sprintf("%d", phase),
		"concept": o.plan.Concept.Name,
	})
	o.emit(telemetry.Event{Kind: telemetry.KindRestorePointTaken, Phase: phase, Data: id})
}

// recordLedger persists the phase's extracted knowledge. Ledger failures
// are warnings, never build failures.
func (o *Orchestrator) recordLedger(ctx context.Context, phase int, res *PhaseResult) {
	if o.ledger == nil {
		return
	}
	if err := o.ledger.RecordFiles(ctx, phase, o.state.Files()); err != nil {
		res.Warnings = append(res.Warnings, err.Error())
	}
	if err := o.ledger.RecordContracts(ctx, phase, o.state.Contracts()); err != nil {
		res.Warnings = append(res.Warnings, err.Error())
	}
}

func (o *Orchestrator) emit(evt telemetry.Event) {
	_ = o.telemetry.Emit(evt)
}

func (o *Orchestrator) progressEvent(ph *plan.Phase, msg string) ProgressEvent {
	p := o.Progress()
	return ProgressEvent{
		Phase:       ph.Number,
		PhaseName:   ph.Name,
		PhaseIndex:  ph.Number - 1,
		TotalPhases: p.TotalPhases,
		Percent:     p.PercentComplete,
		Message:     msg,
	}
}

func mergeFixed(files, fixed []generate.GeneratedFile) []generate.GeneratedFile {
	if len(fixed) == 0 {
		return files
	}
	byPath := make(map[string]string, len(fixed))
	for _, f := range fixed {
		byPath[f.Path] = f.Content
	}
	out := make([]generate.GeneratedFile, len(files))
	for i, f := range files {
		if content, ok := byPath[f.Path]; ok {
			f.Content = content
		}
		out[i] = f
	}
	return out
}

func accumulatedAsGenerated(s *analyze.State) []generate.GeneratedFile {
	files := s.Files()
	out := make([]generate.GeneratedFile, 0, len(files))
	for _, f := range files {
		out = append(out, generate.GeneratedFile{Path: f.Path, Content: f.Content})
	}
	return out
}

func noErrorIssues(r *review.Report) bool {
	for _, issue := range r.Issues {
		if issue.Severity == review.SeverityError {
			return false
		}
	}
	return true
}

func allPassed(checks []plan.ValidationCheck) bool {
	for _, c := range checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

func noFailing(checks []plan.ValidationCheck, typ string) bool {
	for _, c := range checks {
		if c.Type == typ && !c.Passed {
			return false
		}
	}
	return true
}
