// Package plan turns a structured application concept into an ordered,
// dependency-aware set of build phases. Features are classified by domain and
// complexity, grouped under token and count budgets, and bracketed by a
// mandatory setup phase and a mandatory polish phase.
package plan

// AppType describes the overall shape of the generated application.
type AppType string

const (
	AppTypeFrontendOnly AppType = "FRONTEND_ONLY"
	AppTypeFullStack    AppType = "FULL_STACK"
)

// Complexity grades a feature or a whole concept.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// complexityRank orders complexities for sorting and budget decisions.
var complexityRank = map[Complexity]int{
	ComplexitySimple:   0,
	ComplexityModerate: 1,
	ComplexityComplex:  2,
}

// Domain tags a feature with the slice of the application it belongs to.
type Domain string

const (
	DomainSetup       Domain = "setup"
	DomainAuth        Domain = "auth"
	DomainData        Domain = "data"
	DomainUI          Domain = "ui"
	DomainAPI         Domain = "api"
	DomainRealtime    Domain = "realtime"
	DomainMedia       Domain = "media"
	DomainCommerce    Domain = "commerce"
	DomainIntegration Domain = "integration"
	DomainPolish      Domain = "polish"
	DomainCore        Domain = "core"
)

// PhaseStatus is the lifecycle state of a single phase.
type PhaseStatus string

const (
	StatusPending    PhaseStatus = "pending"
	StatusInProgress PhaseStatus = "in_progress"
	StatusCompleted  PhaseStatus = "completed"
	StatusSkipped    PhaseStatus = "skipped"
	StatusFailed     PhaseStatus = "failed"
)

// Terminal reports whether the status is an end state for this build pass.
func (s PhaseStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusSkipped || s == StatusFailed
}

// Feature is one requested capability from the application concept.
type Feature struct {
	ID          string
	Name        string
	Description string
	Priority    int // Lower value = earlier in the build.
}

// Concept is the structured application concept the planner consumes.
type Concept struct {
	Name        string
	Description string
	AppType     AppType
	Complexity  Complexity // Declared overall complexity; drives phase skipping.
	UserRoles   []string
	HasLayout   bool // A pre-built layout exists; phase 1 injects it instead of generating.
	Features    []Feature
}

// FeatureClassification is a feature tagged with domain, complexity, and an
// estimated generation cost.
type FeatureClassification struct {
	Feature         Feature
	Domain          Domain
	Complexity      Complexity
	EstimatedTokens int
	SuggestedPhase  string
}

// TaskStatus tracks completion of one unit of work inside a phase.
type TaskStatus struct {
	Name string
	Done bool
}

// ValidationCheck is one post-phase check. Checks of type "render" are
// hard-blocking; all other types are advisory.
type ValidationCheck struct {
	Name    string
	Type    string // "render", "static", "semantic"
	Passed  bool
	Message string
}

// Phase is one discrete, independently generated unit of the build plan.
type Phase struct {
	Number          int // Unique, contiguous from 1.
	Name            string
	Domain          Domain
	Status          PhaseStatus
	Description     string
	Features        []FeatureClassification
	DependsOn       []int // Phase numbers, all strictly smaller than Number.
	EstimatedTokens int
	EstimatedTime   string // "N min"
	GeneratedCode   string
	Tasks           []TaskStatus
	Checks          []ValidationCheck
	TestCriteria    []string
	RelevantRoles   []string
}

// Plan is the full ordered phase list for one concept.
type Plan struct {
	Concept Concept
	Phases  []*Phase
}

// PhaseByNumber returns the phase with the given number, or nil.
func (p *Plan) PhaseByNumber(n int) *Phase {
	for _, ph := range p.Phases {
		if ph.Number == n {
			return ph
		}
	}
	return nil
}

// Budgets bounds how much work a single phase may carry.
type Budgets struct {
	MaxTokensPerPhase   int
	MaxFeaturesPerPhase int
}

// DefaultBudgets are applied when a budget field is zero or negative.
var DefaultBudgets = Budgets{
	MaxTokensPerPhase:   12000,
	MaxFeaturesPerPhase: 4,
}

func (b Budgets) withDefaults() Budgets {
	if b.MaxTokensPerPhase <= 0 {
		b.MaxTokensPerPhase = DefaultBudgets.MaxTokensPerPhase
	}
	if b.MaxFeaturesPerPhase <= 0 {
		b.MaxFeaturesPerPhase = DefaultBudgets.MaxFeaturesPerPhase
	}
	return b
}
