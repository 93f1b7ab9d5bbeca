package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stackweaver/stackweaver/internal/generate"
	"github.com/stackweaver/stackweaver/internal/plan"
	"github.com/stackweaver/stackweaver/internal/restore"
	"github.com/stackweaver/stackweaver/internal/review"
)

// chainPlan builds an n-phase plan: setup, feature phases, polish. Each
// phase depends on the one before it.
func chainPlan(n int, complexity plan.Complexity) *plan.Plan {
	p := &plan.Plan{
		Concept: plan.Concept{
			Name:       "tasker",
			AppType:    plan.AppTypeFullStack,
			Complexity: complexity,
			Features: []plan.Feature{
				{ID: "f1", Name: "login form", Priority: 1},
				{ID: "f2", Name: "task list", Priority: 2},
			},
		},
	}
	for i := 1; i <= n; i++ {
		ph := &plan.Phase{
			Number:        i,
			Name:          fmt.Sprintf("Phase %d", i),
			Domain:        plan.DomainData,
			Status:        plan.StatusPending,
			EstimatedTime: "2 min",
			Tasks: []plan.TaskStatus{
				{Name: "generate code"},
				{Name: "verify output"},
			},
			Checks: []plan.ValidationCheck{
				{Name: "renders", Type: "render"},
				{Name: "no static errors", Type: "static"},
				{Name: "quality floor", Type: "semantic"},
			},
		}
		if i > 1 {
			ph.DependsOn = []int{i - 1}
		}
		switch i {
		case 1:
			ph.Name = "Project Setup"
			ph.Domain = plan.DomainSetup
		case n:
			ph.Name = "Polish & Integration"
			ph.Domain = plan.DomainPolish
		}
		p.Phases = append(p.Phases, ph)
	}
	return p
}

// cleanGenerator emits one well-formed file per phase, free of anything
// the static reviewer would flag, with the sample concept's feature
// keywords in the content.
func cleanGenerator() generate.Generator {
	return generate.GeneratorFunc(func(_ context.Context, ph *plan.Phase, _ generate.Context) (string, error) {
		return fmt.Sprintf(
			"===FILE:src/phase%d.ts===\n// login form and task list\nexport function phase%d() {\n  return %d;\n}\n===END===\n",
			ph.Number, ph.Number, ph.Number), nil
	})
}

func newTestOrchestrator(t *testing.T, p *plan.Plan, gen generate.Generator, opts ...Option) *Orchestrator {
	t.Helper()
	o, err := New(p, gen, review.NewStaticReviewer(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o
}

func TestNew_NilPlan(t *testing.T) {
	t.Parallel()
	if _, err := New(nil, cleanGenerator(), review.NewStaticReviewer()); !errors.Is(err, ErrNoPlan) {
		t.Errorf("err = %v, want ErrNoPlan", err)
	}
}

func TestValidatePlan(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(*plan.Plan)
		wantErr bool
	}{
		{"valid chain", func(p *plan.Plan) {}, false},
		{"non-contiguous numbering", func(p *plan.Plan) { p.Phases[2].Number = 5 }, true},
		{"forward dependency", func(p *plan.Plan) { p.Phases[0].DependsOn = []int{2} }, true},
		{"self dependency", func(p *plan.Plan) { p.Phases[1].DependsOn = []int{2} }, true},
		{"unknown dependency", func(p *plan.Plan) { p.Phases[2].DependsOn = []int{9} }, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := chainPlan(3, plan.ComplexityComplex)
			tt.mutate(p)
			err := ValidatePlan(p)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePlan() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStartBuild_ResetsEverything(t *testing.T) {
	t.Parallel()
	p := chainPlan(3, plan.ComplexityComplex)
	o := newTestOrchestrator(t, p, cleanGenerator())

	ph := p.Phases[1]
	ph.Status = plan.StatusFailed
	ph.GeneratedCode = "stale"
	ph.Tasks[0].Done = true
	ph.Checks[0].Passed = true
	ph.Checks[0].Message = "stale"
	o.Reports().SetPhase(2, &review.Report{})

	o.StartBuild(context.Background())

	if ph.Status != plan.StatusPending {
		t.Errorf("status = %s, want pending", ph.Status)
	}
	if ph.GeneratedCode != "" {
		t.Errorf("generated code not cleared")
	}
	if ph.Tasks[0].Done {
		t.Errorf("task not reset")
	}
	if ph.Checks[0].Passed || ph.Checks[0].Message != "" {
		t.Errorf("check not reset: %+v", ph.Checks[0])
	}
	if _, ok := o.Reports().Phase(2); ok {
		t.Errorf("reports not cleared")
	}
	if o.State().Len() != 0 {
		t.Errorf("state not cleared, Len = %d", o.State().Len())
	}
}

func TestStartBuild_ComplexitySkips(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		phases     int
		complexity plan.Complexity
		wantSkip   bool
	}{
		{"simple skips polish", 3, plan.ComplexitySimple, true},
		{"moderate small plan keeps polish", 3, plan.ComplexityModerate, false},
		{"moderate large plan skips polish", 6, plan.ComplexityModerate, true},
		{"complex keeps polish", 6, plan.ComplexityComplex, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := chainPlan(tt.phases, tt.complexity)
			o := newTestOrchestrator(t, p, cleanGenerator())
			o.StartBuild(context.Background())

			polish := p.Phases[len(p.Phases)-1]
			skipped := polish.Status == plan.StatusSkipped
			if skipped != tt.wantSkip {
				t.Errorf("polish status = %s, want skipped=%v", polish.Status, tt.wantSkip)
			}
			// Setup and feature phases are never skipped on complexity.
			for _, ph := range p.Phases[:len(p.Phases)-1] {
				if ph.Status != plan.StatusPending {
					t.Errorf("phase %d status = %s, want pending", ph.Number, ph.Status)
				}
			}
		})
	}
}

func TestExecutePhase_RunsPlanInOrder(t *testing.T) {
	t.Parallel()
	p := chainPlan(3, plan.ComplexityComplex)

	var started []int
	var buildDone bool
	o := newTestOrchestrator(t, p, cleanGenerator(), WithEvents(Events{
		PhaseStart:    func(evt ProgressEvent) { started = append(started, evt.Phase) },
		BuildComplete: func(Progress) { buildDone = true },
	}))
	o.StartBuild(context.Background())

	ctx := context.Background()
	for number := 1; ; {
		res, err := o.ExecutePhase(ctx, number)
		if err != nil {
			t.Fatalf("ExecutePhase(%d): %v", number, err)
		}
		if !res.Success() {
			t.Fatalf("phase %d failed: %+v", number, res)
		}
		v, err := o.ValidatePhase(number)
		if err != nil {
			t.Fatalf("ValidatePhase(%d): %v", number, err)
		}
		if !v.CanProceed {
			t.Fatalf("phase %d blocked: %+v", number, v.Checks)
		}
		next, err := o.ProceedToNextPhase()
		if errors.Is(err, ErrBuildComplete) {
			break
		}
		number = next
	}

	for _, ph := range p.Phases {
		if ph.Status != plan.StatusCompleted {
			t.Errorf("phase %d status = %s, want completed", ph.Number, ph.Status)
		}
	}
	if want := []int{1, 2, 3}; fmt.Sprint(started) != fmt.Sprint(want) {
		t.Errorf("phase start order = %v, want %v", started, want)
	}
	if !buildDone {
		t.Errorf("build complete event never fired")
	}
	if o.State().Len() != 3 {
		t.Errorf("accumulated files = %d, want 3", o.State().Len())
	}
}

func TestExecutePhase_UnknownPhase(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, chainPlan(2, plan.ComplexityComplex), cleanGenerator())
	if _, err := o.ExecutePhase(context.Background(), 9); !errors.Is(err, ErrPhaseNotFound) {
		t.Errorf("err = %v, want ErrPhaseNotFound", err)
	}
}

func TestExecutePhase_SkippedIsTrivialSuccess(t *testing.T) {
	t.Parallel()
	p := chainPlan(3, plan.ComplexityComplex)
	o := newTestOrchestrator(t, p, cleanGenerator())
	o.StartBuild(context.Background())

	if err := o.SkipPhase(2); err != nil {
		t.Fatalf("SkipPhase: %v", err)
	}
	res, err := o.ExecutePhase(context.Background(), 2)
	if err != nil {
		t.Fatalf("ExecutePhase: %v", err)
	}
	if res.TotalTasks != 0 || !res.Success() {
		t.Errorf("result = %+v, want trivial success", res)
	}
	if p.Phases[1].Status != plan.StatusSkipped {
		t.Errorf("status = %s, want skipped", p.Phases[1].Status)
	}
	// A skipped phase does not block its dependents.
	if res, err := o.ExecutePhase(context.Background(), 3); err != nil || !res.Success() {
		t.Errorf("dependent phase: res = %+v, err = %v", res, err)
	}
}

func TestExecutePhase_GenerationFailure(t *testing.T) {
	t.Parallel()
	p := chainPlan(2, plan.ComplexityComplex)
	boom := errors.New("model unavailable")
	gen := generate.GeneratorFunc(func(context.Context, *plan.Phase, generate.Context) (string, error) {
		return "", boom
	})

	var reported error
	o := newTestOrchestrator(t, p, gen, WithEvents(Events{
		Error: func(_ int, err error) { reported = err },
	}))
	o.StartBuild(context.Background())

	res, err := o.ExecutePhase(context.Background(), 1)
	if err != nil {
		t.Fatalf("ExecutePhase: %v", err)
	}
	if len(res.Errors) != 1 || res.Success() {
		t.Fatalf("result = %+v, want one captured error", res)
	}
	if p.Phases[0].Status != plan.StatusFailed {
		t.Errorf("status = %s, want failed", p.Phases[0].Status)
	}
	var genErr *GenerationError
	if !errors.As(reported, &genErr) || !errors.Is(reported, boom) {
		t.Errorf("reported = %v, want GenerationError wrapping cause", reported)
	}
	if res.TasksCompleted != 0 {
		t.Errorf("tasks ran after generation failure: %d", res.TasksCompleted)
	}
}

func TestExecutePhase_EmptyBlobFails(t *testing.T) {
	t.Parallel()
	gen := generate.GeneratorFunc(func(context.Context, *plan.Phase, generate.Context) (string, error) {
		return "no fences here", nil
	})
	o := newTestOrchestrator(t, chainPlan(2, plan.ComplexityComplex), gen)
	o.StartBuild(context.Background())

	res, err := o.ExecutePhase(context.Background(), 1)
	if err != nil {
		t.Fatalf("ExecutePhase: %v", err)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("errors = %v, want blob rejection", res.Errors)
	}
	if !strings.Contains(res.Errors[0], "no files") {
		t.Errorf("error = %q, want mention of empty blob", res.Errors[0])
	}
}

func TestPauseResume(t *testing.T) {
	t.Parallel()
	p := chainPlan(2, plan.ComplexityComplex)
	o := newTestOrchestrator(t, p, cleanGenerator())
	o.StartBuild(context.Background())

	o.Pause()
	res, err := o.ExecutePhase(context.Background(), 1)
	if err != nil {
		t.Fatalf("ExecutePhase: %v", err)
	}
	if res.TasksCompleted != 0 {
		t.Errorf("tasks completed while paused: %d", res.TasksCompleted)
	}
	if p.Phases[0].Status != plan.StatusInProgress {
		t.Errorf("status = %s, want in_progress while paused", p.Phases[0].Status)
	}
	if p.Phases[0].GeneratedCode == "" {
		t.Errorf("generation should have run before the task loop")
	}

	o.Resume()
	res, err = o.ExecutePhase(context.Background(), 1)
	if err != nil {
		t.Fatalf("ExecutePhase after resume: %v", err)
	}
	if !res.Success() {
		t.Fatalf("resumed phase did not finish: %+v", res)
	}
	if p.Phases[0].Status != plan.StatusCompleted {
		t.Errorf("status = %s, want completed", p.Phases[0].Status)
	}
}

func TestRetryPhase_ClearsOnlyThatPhase(t *testing.T) {
	t.Parallel()
	p := chainPlan(3, plan.ComplexityComplex)
	o := newTestOrchestrator(t, p, cleanGenerator())
	o.StartBuild(context.Background())

	ctx := context.Background()
	for _, n := range []int{1, 2} {
		if res, err := o.ExecutePhase(ctx, n); err != nil || !res.Success() {
			t.Fatalf("phase %d: res = %+v, err = %v", n, res, err)
		}
		if _, err := o.ProceedToNextPhase(); err != nil {
			t.Fatalf("ProceedToNextPhase: %v", err)
		}
	}

	if err := o.RetryPhase(1); err != nil {
		t.Fatalf("RetryPhase: %v", err)
	}

	ph1, ph2 := p.Phases[0], p.Phases[1]
	if ph1.Status != plan.StatusPending || ph1.GeneratedCode != "" || ph1.Tasks[0].Done {
		t.Errorf("phase 1 not reset: status=%s code=%q done=%v", ph1.Status, ph1.GeneratedCode, ph1.Tasks[0].Done)
	}
	if ph2.Status != plan.StatusCompleted || ph2.GeneratedCode == "" {
		t.Errorf("phase 2 disturbed by retry of phase 1: status=%s", ph2.Status)
	}
	if res, err := o.ExecutePhase(ctx, 1); err != nil || !res.Success() {
		t.Errorf("re-executed phase 1: res = %+v, err = %v", res, err)
	}
}

func TestRetryPhase_Unknown(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, chainPlan(2, plan.ComplexityComplex), cleanGenerator())
	if err := o.RetryPhase(7); !errors.Is(err, ErrPhaseNotFound) {
		t.Errorf("err = %v, want ErrPhaseNotFound", err)
	}
}

func TestProceedToNextPhase_SkipsNonPending(t *testing.T) {
	t.Parallel()
	p := chainPlan(3, plan.ComplexityComplex)
	o := newTestOrchestrator(t, p, cleanGenerator())
	o.StartBuild(context.Background())

	if err := o.SkipPhase(2); err != nil {
		t.Fatalf("SkipPhase: %v", err)
	}
	if res, err := o.ExecutePhase(context.Background(), 1); err != nil || !res.Success() {
		t.Fatalf("phase 1: res = %+v, err = %v", res, err)
	}
	next, err := o.ProceedToNextPhase()
	if err != nil {
		t.Fatalf("ProceedToNextPhase: %v", err)
	}
	if next != 3 {
		t.Errorf("next = %d, want 3 (phase 2 is skipped)", next)
	}
}

func TestValidatePhase(t *testing.T) {
	t.Parallel()

	errorReport := func(n int) *review.Report {
		r := &review.Report{}
		for i := 0; i < n; i++ {
			r.Issues = append(r.Issues, review.Issue{
				ID:       fmt.Sprintf("syntax-%08x", i),
				Severity: review.SeverityError,
				Message:  fmt.Sprintf("problem %d", i),
			})
		}
		r.Score()
		return r
	}

	t.Run("clean completed phase passes", func(t *testing.T) {
		t.Parallel()
		p := chainPlan(2, plan.ComplexityComplex)
		o := newTestOrchestrator(t, p, cleanGenerator())
		o.StartBuild(context.Background())
		if _, err := o.ExecutePhase(context.Background(), 1); err != nil {
			t.Fatalf("ExecutePhase: %v", err)
		}

		v, err := o.ValidatePhase(1)
		if err != nil {
			t.Fatalf("ValidatePhase: %v", err)
		}
		if !v.Passed || !v.CanProceed {
			t.Errorf("result = %+v, want passed", v)
		}
	})

	t.Run("static failure is advisory", func(t *testing.T) {
		t.Parallel()
		p := chainPlan(2, plan.ComplexityComplex)
		o := newTestOrchestrator(t, p, cleanGenerator())
		o.StartBuild(context.Background())
		if _, err := o.ExecutePhase(context.Background(), 1); err != nil {
			t.Fatalf("ExecutePhase: %v", err)
		}
		o.Reports().SetPhase(1, errorReport(1))

		v, err := o.ValidatePhase(1)
		if err != nil {
			t.Fatalf("ValidatePhase: %v", err)
		}
		if v.Passed {
			t.Errorf("Passed = true with error-severity issues")
		}
		if !v.CanProceed {
			t.Errorf("CanProceed = false; only render failures block")
		}
	})

	t.Run("semantic floor at fifty", func(t *testing.T) {
		t.Parallel()
		p := chainPlan(2, plan.ComplexityComplex)
		o := newTestOrchestrator(t, p, cleanGenerator())
		o.StartBuild(context.Background())
		if _, err := o.ExecutePhase(context.Background(), 1); err != nil {
			t.Fatalf("ExecutePhase: %v", err)
		}
		// Four error issues put the score at 40, below the floor.
		o.Reports().SetPhase(1, errorReport(4))

		v, err := o.ValidatePhase(1)
		if err != nil {
			t.Fatalf("ValidatePhase: %v", err)
		}
		var semantic *plan.ValidationCheck
		for i := range v.Checks {
			if v.Checks[i].Type == "semantic" {
				semantic = &v.Checks[i]
			}
		}
		if semantic == nil || semantic.Passed {
			t.Errorf("semantic check = %+v, want failed below floor", semantic)
		}
		if !v.CanProceed {
			t.Errorf("CanProceed = false; semantic failures are advisory")
		}
	})

	t.Run("render failure blocks", func(t *testing.T) {
		t.Parallel()
		p := chainPlan(2, plan.ComplexityComplex)
		o := newTestOrchestrator(t, p, cleanGenerator())
		o.StartBuild(context.Background())
		// Phase never executed: no accepted output to render.
		v, err := o.ValidatePhase(1)
		if err != nil {
			t.Fatalf("ValidatePhase: %v", err)
		}
		if v.Passed || v.CanProceed {
			t.Errorf("result = %+v, want hard block", v)
		}
	})

	t.Run("unknown phase", func(t *testing.T) {
		t.Parallel()
		o := newTestOrchestrator(t, chainPlan(2, plan.ComplexityComplex), cleanGenerator())
		if _, err := o.ValidatePhase(8); !errors.Is(err, ErrPhaseNotFound) {
			t.Errorf("err = %v, want ErrPhaseNotFound", err)
		}
	})
}

func TestFinalReview(t *testing.T) {
	t.Parallel()
	p := chainPlan(2, plan.ComplexityComplex)
	o := newTestOrchestrator(t, p, cleanGenerator())
	o.StartBuild(context.Background())

	ctx := context.Background()
	for _, n := range []int{1, 2} {
		if res, err := o.ExecutePhase(ctx, n); err != nil || !res.Success() {
			t.Fatalf("phase %d: res = %+v, err = %v", n, res, err)
		}
	}

	report, err := o.FinalReview(ctx)
	if err != nil {
		t.Fatalf("FinalReview: %v", err)
	}
	if !report.Passed || report.OverallScore != 100 {
		t.Errorf("report = passed=%v score=%d, want clean pass", report.Passed, report.OverallScore)
	}
	final, ok := o.Reports().Final()
	if !ok || final != report {
		t.Errorf("Final() = %v, %v; want stored report", final, ok)
	}
}

func TestFinalReview_FlagsUncoveredFeature(t *testing.T) {
	t.Parallel()
	p := chainPlan(2, plan.ComplexityComplex)
	p.Concept.Features = append(p.Concept.Features, plan.Feature{ID: "f3", Name: "billing portal"})
	o := newTestOrchestrator(t, p, cleanGenerator())
	o.StartBuild(context.Background())

	ctx := context.Background()
	for _, n := range []int{1, 2} {
		if _, err := o.ExecutePhase(ctx, n); err != nil {
			t.Fatalf("phase %d: %v", n, err)
		}
	}

	report, err := o.FinalReview(ctx)
	if err != nil {
		t.Fatalf("FinalReview: %v", err)
	}
	found := false
	for _, issue := range report.Issues {
		if issue.Category == review.CategoryCompleteness && strings.Contains(issue.Message, "billing portal") {
			found = true
		}
	}
	if !found {
		t.Errorf("no completeness issue for uncovered feature; issues = %+v", report.Issues)
	}
}

func TestSnapshotAndRollback(t *testing.T) {
	t.Parallel()
	p := chainPlan(3, plan.ComplexityComplex)
	svc := restore.NewService(0)
	o := newTestOrchestrator(t, p, cleanGenerator(), WithRestoreService(svc))
	o.StartBuild(context.Background())

	ctx := context.Background()
	// Phase 1 starts with empty state: nothing worth snapshotting yet.
	if _, err := o.ExecutePhase(ctx, 1); err != nil {
		t.Fatalf("phase 1: %v", err)
	}
	if svc.Len() != 0 {
		t.Fatalf("snapshots after phase 1 = %d, want 0", svc.Len())
	}

	if _, err := o.ExecutePhase(ctx, 2); err != nil {
		t.Fatalf("phase 2: %v", err)
	}
	points := svc.List()
	if len(points) != 1 {
		t.Fatalf("snapshots after phase 2 = %d, want 1", len(points))
	}
	if !strings.Contains(points[0].Label, "before phase 2") {
		t.Errorf("label = %q, want pre-phase marker", points[0].Label)
	}
	if o.State().Len() != 2 {
		t.Fatalf("accumulated files = %d, want 2", o.State().Len())
	}

	// Rolling back drops phase 2's file and keeps phase 1's.
	if err := o.Rollback(points[0].ID); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if o.State().Len() != 1 {
		t.Errorf("files after rollback = %d, want 1", o.State().Len())
	}
	if _, ok := o.State().File("src/phase2.ts"); ok {
		t.Errorf("phase 2 file survived rollback")
	}
	if _, ok := o.State().File("src/phase1.ts"); !ok {
		t.Errorf("phase 1 file lost in rollback")
	}
}

func TestRollbackFile(t *testing.T) {
	t.Parallel()
	p := chainPlan(3, plan.ComplexityComplex)
	svc := restore.NewService(0)
	o := newTestOrchestrator(t, p, cleanGenerator(), WithRestoreService(svc))
	o.StartBuild(context.Background())

	ctx := context.Background()
	for _, n := range []int{1, 2} {
		if _, err := o.ExecutePhase(ctx, n); err != nil {
			t.Fatalf("phase %d: %v", n, err)
		}
	}
	id := svc.List()[0].ID

	o.State().SetContent("src/phase1.ts", "// clobbered")
	if err := o.RollbackFile(id, "src/phase1.ts"); err != nil {
		t.Fatalf("RollbackFile: %v", err)
	}
	f, ok := o.State().File("src/phase1.ts")
	if !ok || !strings.Contains(f.Content, "phase1") {
		t.Errorf("content = %q, want original restored", f.Content)
	}
	// Phase 2's file is untouched by the single-file rollback.
	if _, ok := o.State().File("src/phase2.ts"); !ok {
		t.Errorf("phase 2 file lost during single-file rollback")
	}

	if err := o.RollbackFile(id, "src/other.ts"); !errors.Is(err, restore.ErrFileNotFound) {
		t.Errorf("err = %v, want ErrFileNotFound", err)
	}
}

func TestRollback_NoService(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, chainPlan(2, plan.ComplexityComplex), cleanGenerator())
	if err := o.Rollback("rp-1-1"); !errors.Is(err, restore.ErrNotFound) {
		t.Errorf("Rollback err = %v, want ErrNotFound", err)
	}
	if err := o.RollbackFile("rp-1-1", "a.ts"); !errors.Is(err, restore.ErrNotFound) {
		t.Errorf("RollbackFile err = %v, want ErrNotFound", err)
	}
}

func TestAutoFixFoldsIntoState(t *testing.T) {
	t.Parallel()
	p := chainPlan(2, plan.ComplexityComplex)
	gen := generate.GeneratorFunc(func(context.Context, *plan.Phase, generate.Context) (string, error) {
		return "===FILE:src/app.ts===\n// login form task list\nconsole.log('debug');\nexport function app() {\n  return 1;\n}\n===END===\n", nil
	})
	o := newTestOrchestrator(t, p, gen)
	o.StartBuild(context.Background())

	res, err := o.ExecutePhase(context.Background(), 1)
	if err != nil || !res.Success() {
		t.Fatalf("ExecutePhase: res = %+v, err = %v", res, err)
	}

	report, ok := o.Reports().Phase(1)
	if !ok {
		t.Fatalf("no report stored for phase 1")
	}
	if len(report.AppliedFixes) != 1 {
		t.Fatalf("applied fixes = %d, want 1", len(report.AppliedFixes))
	}
	if len(report.Issues) != 0 || report.OverallScore != 100 {
		t.Errorf("post-fix report = %+v, want clean", report)
	}

	f, ok := o.State().File("src/app.ts")
	if !ok {
		t.Fatalf("file missing from state")
	}
	if strings.Contains(f.Content, "console.log") {
		t.Errorf("debug line survived the fix in accumulated state:\n%s", f.Content)
	}
	if !strings.Contains(p.Phases[0].GeneratedCode, "export function app") {
		t.Errorf("generated blob missing fixed content")
	}
	if strings.Contains(p.Phases[0].GeneratedCode, "console.log") {
		t.Errorf("generated blob still carries the debug line")
	}
}
