package plan

import (
	"testing"
)

func taskAppConcept() Concept {
	return Concept{
		Name:    "taskboard",
		AppType: AppTypeFullStack,
		Features: []Feature{
			{ID: "f1", Name: "User login", Description: "Email and password auth", Priority: 1},
			{ID: "f2", Name: "Task list", Description: "Create and sort task records", Priority: 2},
			{ID: "f3", Name: "Dashboard", Description: "Overview page with navigation", Priority: 3},
		},
	}
}

func TestBuildPlan_Shape(t *testing.T) {
	t.Parallel()
	p := BuildPlan(taskAppConcept(), Budgets{})

	if len(p.Phases) < 3 {
		t.Fatalf("expected at least setup + feature + polish, got %d phases", len(p.Phases))
	}

	first := p.Phases[0]
	if first.Number != 1 || first.Domain != DomainSetup {
		t.Errorf("first phase = %d/%s, want 1/%s", first.Number, first.Domain, DomainSetup)
	}
	if len(first.DependsOn) != 0 {
		t.Errorf("setup phase has deps %v, want none", first.DependsOn)
	}

	last := p.Phases[len(p.Phases)-1]
	if last.Domain != DomainPolish {
		t.Errorf("last phase domain = %s, want %s", last.Domain, DomainPolish)
	}
	if len(last.DependsOn) != len(p.Phases)-1 {
		t.Errorf("polish deps = %v, want all %d prior phases", last.DependsOn, len(p.Phases)-1)
	}
}

func TestBuildPlan_ContiguousNumbering(t *testing.T) {
	t.Parallel()
	p := BuildPlan(taskAppConcept(), Budgets{})
	for i, ph := range p.Phases {
		if ph.Number != i+1 {
			t.Errorf("phase at index %d has number %d", i, ph.Number)
		}
		if ph.Status != StatusPending {
			t.Errorf("phase %d status = %q, want pending", ph.Number, ph.Status)
		}
	}
}

func TestBuildPlan_BackwardDependenciesOnly(t *testing.T) {
	t.Parallel()
	p := BuildPlan(taskAppConcept(), Budgets{})
	for _, ph := range p.Phases {
		for _, dep := range ph.DependsOn {
			if dep >= ph.Number {
				t.Errorf("phase %d depends on %d; deps must be strictly backward", ph.Number, dep)
			}
			if dep < 1 {
				t.Errorf("phase %d depends on invalid phase %d", ph.Number, dep)
			}
		}
	}
}

func TestBuildPlan_FeatureCountBudget(t *testing.T) {
	t.Parallel()
	concept := Concept{Name: "lists"}
	for _, name := range []string{"Tags", "Labels", "Colors", "Icons", "Sizes"} {
		concept.Features = append(concept.Features, Feature{Name: name, Description: "display " + name})
	}

	p := BuildPlan(concept, Budgets{MaxFeaturesPerPhase: 2})
	for _, ph := range p.Phases {
		if len(ph.Features) > 2 {
			t.Errorf("phase %d holds %d features, budget is 2", ph.Number, len(ph.Features))
		}
	}
	// 5 features at 2 per phase => 3 feature phases, plus setup and polish.
	if len(p.Phases) != 5 {
		t.Errorf("got %d phases, want 5", len(p.Phases))
	}
}

func TestBuildPlan_OversizedFeatureAlone(t *testing.T) {
	t.Parallel()
	concept := Concept{
		Name: "mixed",
		Features: []Feature{
			{Name: "Tags", Description: "colored tags", Priority: 1},
			{Name: "Live collaboration", Description: "realtime collaborative editing", Priority: 2},
		},
	}

	// Budget below the realtime feature's own estimate forces it into its
	// own phase.
	p := BuildPlan(concept, Budgets{MaxTokensPerPhase: 4000})
	var oversizedPhase *Phase
	for _, ph := range p.Phases {
		for _, fc := range ph.Features {
			if fc.Feature.Name == "Live collaboration" {
				oversizedPhase = ph
			}
		}
	}
	if oversizedPhase == nil {
		t.Fatal("oversized feature not placed in any phase")
	}
	if len(oversizedPhase.Features) != 1 {
		t.Errorf("oversized feature shares a phase with %d others", len(oversizedPhase.Features)-1)
	}
}

func TestBuildPlan_EmptyConceptDegrades(t *testing.T) {
	t.Parallel()
	p := BuildPlan(Concept{}, Budgets{})
	if len(p.Phases) != 2 {
		t.Fatalf("empty concept: got %d phases, want setup + polish", len(p.Phases))
	}
	if p.Phases[0].Domain != DomainSetup || p.Phases[1].Domain != DomainPolish {
		t.Errorf("phases = %s, %s; want setup, polish", p.Phases[0].Domain, p.Phases[1].Domain)
	}
}

func TestBuildPlan_LayoutInjection(t *testing.T) {
	t.Parallel()
	concept := taskAppConcept()
	concept.HasLayout = true

	p := BuildPlan(concept, Budgets{})
	first := p.Phases[0]
	if first.Name != "Layout Injection" {
		t.Errorf("first phase name = %q, want Layout Injection", first.Name)
	}
	if first.EstimatedTokens >= 2500 {
		t.Errorf("layout injection estimate = %d, should be far below a generated setup", first.EstimatedTokens)
	}

	plain := BuildPlan(taskAppConcept(), Budgets{})
	if first.EstimatedTokens >= plain.Phases[0].EstimatedTokens {
		t.Error("layout injection should cost less than generated setup")
	}
}

func TestFinalizeDependencies_AuthOrdering(t *testing.T) {
	t.Parallel()
	p := BuildPlan(taskAppConcept(), Budgets{MaxFeaturesPerPhase: 1})

	authNumber := 0
	for _, ph := range p.Phases {
		if ph.Domain == DomainAuth {
			authNumber = ph.Number
		}
	}
	if authNumber == 0 {
		t.Fatal("no auth phase in plan")
	}

	for _, ph := range p.Phases {
		if ph.Number <= authNumber || ph.Domain == DomainPolish {
			continue
		}
		if !containsInt(ph.DependsOn, authNumber) {
			t.Errorf("phase %d (%s) does not depend on auth phase %d: %v",
				ph.Number, ph.Name, authNumber, ph.DependsOn)
		}
	}
}

func TestBuildPlan_AuthTestCriteria(t *testing.T) {
	t.Parallel()
	p := BuildPlan(taskAppConcept(), Budgets{MaxFeaturesPerPhase: 1})

	var authPhase *Phase
	for _, ph := range p.Phases {
		if ph.Domain == DomainAuth {
			authPhase = ph
		}
	}
	if authPhase == nil {
		t.Fatal("no auth phase in plan")
	}

	wantCriteria := []string{
		"User can log in with valid credentials",
		"User can log out and the session is cleared",
		"Protected routes redirect unauthenticated users",
	}
	for _, want := range wantCriteria {
		found := false
		for _, got := range authPhase.TestCriteria {
			if got == want {
				found = true
			}
		}
		if !found {
			t.Errorf("auth phase missing criterion %q", want)
		}
	}
}

func TestBuildPlan_ChecksPresent(t *testing.T) {
	t.Parallel()
	p := BuildPlan(taskAppConcept(), Budgets{})
	for _, ph := range p.Phases {
		types := map[string]bool{}
		for _, c := range ph.Checks {
			types[c.Type] = true
		}
		for _, want := range []string{"static", "render", "semantic"} {
			if !types[want] {
				t.Errorf("phase %d missing %q check", ph.Number, want)
			}
		}
	}
}

func TestEstimateTime(t *testing.T) {
	t.Parallel()
	tests := []struct {
		tokens int
		want   string
	}{
		{200, "1 min"},
		{2000, "1 min"},
		{7000, "3 min"},
	}
	for _, tt := range tests {
		if got := estimateTime(tt.tokens); got != tt.want {
			t.Errorf("estimateTime(%d) = %q, want %q", tt.tokens, got, tt.want)
		}
	}
}

func TestPhaseByNumber(t *testing.T) {
	t.Parallel()
	p := BuildPlan(taskAppConcept(), Budgets{})
	if ph := p.PhaseByNumber(1); ph == nil || ph.Number != 1 {
		t.Error("PhaseByNumber(1) did not return phase 1")
	}
	if ph := p.PhaseByNumber(99); ph != nil {
		t.Errorf("PhaseByNumber(99) = %v, want nil", ph)
	}
}

func TestRelevantRoles(t *testing.T) {
	t.Parallel()
	concept := Concept{
		Name:      "shop",
		UserRoles: []string{"Admin", "Shopper"},
		Features: []Feature{
			{Name: "Admin panel", Description: "admin manages the catalog", Priority: 1},
		},
	}
	p := BuildPlan(concept, Budgets{})

	var featurePhase *Phase
	for _, ph := range p.Phases {
		if len(ph.Features) > 0 {
			featurePhase = ph
		}
	}
	if featurePhase == nil {
		t.Fatal("no feature phase")
	}
	if len(featurePhase.RelevantRoles) != 1 || featurePhase.RelevantRoles[0] != "Admin" {
		t.Errorf("RelevantRoles = %v, want [Admin]", featurePhase.RelevantRoles)
	}
}
