package plan

import (
	"fmt"
	"sort"
	"strings"
)

// BuildPlan groups a concept's features into budget-bounded phases and
// brackets them with the mandatory setup and polish phases. Malformed or
// empty input degrades to a minimal setup+polish plan; BuildPlan never fails.
func BuildPlan(concept Concept, budgets Budgets) *Plan {
	budgets = budgets.withDefaults()

	classified := Classify(concept.Features)

	// Greedy grouping over (priority asc, complexity asc). Stable so that
	// equal features keep their declared order.
	sort.SliceStable(classified, func(i, j int) bool {
		if classified[i].Feature.Priority != classified[j].Feature.Priority {
			return classified[i].Feature.Priority < classified[j].Feature.Priority
		}
		return complexityRank[classified[i].Complexity] < complexityRank[classified[j].Complexity]
	})

	groups := groupFeatures(classified, budgets)

	phases := make([]*Phase, 0, len(groups)+2)
	phases = append(phases, setupPhase(concept))

	for _, g := range groups {
		n := len(phases) + 1
		phases = append(phases, featurePhase(n, g, concept))
	}

	phases = append(phases, polishPhase(len(phases)+1, concept))

	p := &Plan{Concept: concept, Phases: phases}
	FinalizeDependencies(p)
	return p
}

// groupFeatures closes the current group when adding a feature would exceed
// either budget. A single feature whose own cost exceeds the token budget is
// placed alone.
func groupFeatures(classified []FeatureClassification, budgets Budgets) [][]FeatureClassification {
	var groups [][]FeatureClassification
	var current []FeatureClassification
	tokens := 0

	flush := func() {
		if len(current) > 0 {
			groups = append(groups, current)
			current = nil
			tokens = 0
		}
	}

	for _, fc := range classified {
		if fc.EstimatedTokens > budgets.MaxTokensPerPhase {
			// Indivisible oversized feature: its own phase.
			flush()
			groups = append(groups, []FeatureClassification{fc})
			continue
		}
		if len(current) >= budgets.MaxFeaturesPerPhase || tokens+fc.EstimatedTokens > budgets.MaxTokensPerPhase {
			flush()
		}
		current = append(current, fc)
		tokens += fc.EstimatedTokens
	}
	flush()
	return groups
}

func setupPhase(concept Concept) *Phase {
	name := "Project Setup"
	desc := fmt.Sprintf("Scaffold %s: project structure, routing shell, shared types, and base styling.", conceptLabel(concept))
	tokens := 2500
	tasks := []TaskStatus{
		{Name: "Create project structure"},
		{Name: "Set up routing shell"},
		{Name: "Define shared types"},
		{Name: "Apply base styling"},
	}
	if concept.HasLayout {
		// Layout injection copies a pre-built layout instead of generating one.
		name = "Layout Injection"
		desc = fmt.Sprintf("Inject the pre-built layout for %s and wire its navigation shell.", conceptLabel(concept))
		tokens = 200
		tasks = []TaskStatus{
			{Name: "Copy pre-built layout"},
			{Name: "Wire navigation shell"},
		}
	}
	return &Phase{
		Number:          1,
		Name:            name,
		Domain:          DomainSetup,
		Status:          StatusPending,
		Description:     desc,
		DependsOn:       []int{},
		EstimatedTokens: tokens,
		EstimatedTime:   estimateTime(tokens),
		Tasks:           tasks,
		Checks:          defaultChecks(),
		TestCriteria:    []string{"App shell renders without errors", "Navigation between top-level routes works"},
	}
}

func featurePhase(number int, group []FeatureClassification, concept Concept) *Phase {
	domain := dominantDomain(group)
	tokens := 0
	tasks := make([]TaskStatus, 0, len(group))
	names := make([]string, 0, len(group))
	for _, fc := range group {
		tokens += fc.EstimatedTokens
		tasks = append(tasks, TaskStatus{Name: "Implement " + fc.Feature.Name})
		names = append(names, fc.Feature.Name)
	}

	return &Phase{
		Number:          number,
		Name:            phaseName(domain, group),
		Domain:          domain,
		Status:          StatusPending,
		Description:     fmt.Sprintf("Build %s for %s.", strings.Join(names, ", "), conceptLabel(concept)),
		Features:        group,
		DependsOn:       []int{1},
		EstimatedTokens: tokens,
		EstimatedTime:   estimateTime(tokens),
		Tasks:           tasks,
		Checks:          defaultChecks(),
		TestCriteria:    testCriteria(domain, group),
		RelevantRoles:   relevantRoles(concept.UserRoles, group),
	}
}

func polishPhase(number int, concept Concept) *Phase {
	deps := make([]int, 0, number-1)
	for n := 1; n < number; n++ {
		deps = append(deps, n)
	}
	tokens := 3000
	return &Phase{
		Number:          number,
		Name:            "Polish & Integration",
		Domain:          DomainPolish,
		Status:          StatusPending,
		Description:     fmt.Sprintf("Final pass over %s: loading and error states, empty states, visual consistency, cross-feature wiring.", conceptLabel(concept)),
		DependsOn:       deps,
		EstimatedTokens: tokens,
		EstimatedTime:   estimateTime(tokens),
		Tasks: []TaskStatus{
			{Name: "Add loading and error states"},
			{Name: "Add empty states"},
			{Name: "Align visual styling"},
			{Name: "Verify cross-feature flows"},
		},
		Checks:       defaultChecks(),
		TestCriteria: []string{"Every screen handles loading and error states", "No console errors on any route"},
	}
}

// FinalizeDependencies links feature phases to the auth phase (when present)
// so generated screens can assume a signed-in user. Called once after
// BuildPlan assembles the phase list.
func FinalizeDependencies(p *Plan) {
	authPhase := 0
	for _, ph := range p.Phases {
		if ph.Domain == DomainAuth {
			authPhase = ph.Number
			break
		}
	}
	for _, ph := range p.Phases {
		if ph.Domain == DomainPolish || ph.Number == 1 {
			continue
		}
		if authPhase > 0 && ph.Number > authPhase && !containsInt(ph.DependsOn, authPhase) {
			ph.DependsOn = append(ph.DependsOn, authPhase)
			sort.Ints(ph.DependsOn)
		}
	}
}

func dominantDomain(group []FeatureClassification) Domain {
	counts := map[Domain]int{}
	for _, fc := range group {
		counts[fc.Domain]++
	}
	best, bestCount := DomainCore, 0
	for _, fc := range group {
		if counts[fc.Domain] > bestCount {
			best, bestCount = fc.Domain, counts[fc.Domain]
		}
	}
	return best
}

func phaseName(domain Domain, group []FeatureClassification) string {
	if len(group) == 1 {
		return group[0].Feature.Name
	}
	return suggestedPhaseName(domain)
}

// relevantRoles matches declared user roles against feature text by keyword
// containment.
func relevantRoles(roles []string, group []FeatureClassification) []string {
	var out []string
	for _, role := range roles {
		lower := strings.ToLower(role)
		for _, fc := range group {
			text := strings.ToLower(fc.Feature.Name + " " + fc.Feature.Description)
			if strings.Contains(text, lower) {
				out = append(out, role)
				break
			}
		}
	}
	return out
}

// testCriteria returns domain-specific acceptance criteria. Auth phases
// always assert the login/logout/route-protection triad.
func testCriteria(domain Domain, group []FeatureClassification) []string {
	var out []string
	switch domain {
	case DomainAuth:
		out = append(out,
			"User can log in with valid credentials",
			"User can log out and the session is cleared",
			"Protected routes redirect unauthenticated users",
		)
	case DomainData:
		out = append(out,
			"Records can be created, edited, and deleted",
			"Lists reflect changes without a reload",
		)
	case DomainAPI:
		out = append(out,
			"Endpoints return well-formed responses",
			"Invalid requests return structured errors",
		)
	case DomainRealtime:
		out = append(out, "Updates from one session appear in another without refresh")
	case DomainCommerce:
		out = append(out, "Checkout completes with a valid cart", "Failed payments surface a retryable error")
	case DomainMedia:
		out = append(out, "Uploads succeed for supported formats and reject oversized files")
	}
	for _, fc := range group {
		out = append(out, fc.Feature.Name+" behaves as described")
	}
	return out
}

func defaultChecks() []ValidationCheck {
	return []ValidationCheck{
		{Name: "compiles", Type: "static"},
		{Name: "renders", Type: "render"},
		{Name: "matches requirements", Type: "semantic"},
	}
}

// estimateTime converts a token estimate to an "N min" wall-clock string.
func estimateTime(tokens int) string {
	minutes := tokens / 2000
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min", minutes)
}

func conceptLabel(c Concept) string {
	if c.Name != "" {
		return c.Name
	}
	return "the application"
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
