// Package review defines the quality gate: issue taxonomy, per-phase
// reports, the Reviewer boundary interface, and a built-in static reviewer
// so the pipeline can gate phases without a remote analysis capability.
package review

import (
	"fmt"
	"hash/fnv"
)

// Category classifies an issue for scoring and auto-fix dispatch.
type Category string

const (
	CategorySyntax        Category = "syntax"
	CategoryUnusedImport  Category = "unused-import"
	CategoryMissingImport Category = "missing-import"
	CategoryMissingKey    Category = "missing-key-prop"
	CategoryUnsafeEval    Category = "unsafe-eval"
	CategoryTimerString   Category = "timer-string-arg"
	CategoryCompleteness  Category = "completeness"
)

// Severity grades an issue's impact.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// severityPenalty is the score deduction per issue of each severity.
var severityPenalty = map[Severity]int{
	SeverityInfo:    2,
	SeverityWarning: 5,
	SeverityError:   15,
}

// Issue is one problem found in a reviewed file. Line is 1-based.
type Issue struct {
	ID          string
	File        string
	Line        int
	Category    Category
	Severity    Severity
	Message     string
	AutoFixable bool
}

// IssueID derives a stable identifier from an issue's identity fields, so
// re-running a review reports the same ID for the same problem.
func IssueID(category Category, file string, line int, message string) string {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s|%s|%d|%s", category, file, line, message)
	return fmt.Sprintf("%s-%08x", category, h.Sum32())
}

// AppliedFix records one successful auto-fix.
type AppliedFix struct {
	IssueID     string
	File        string
	Line        int
	Description string
	Category    Category
}

// Report is the outcome of one review pass.
type Report struct {
	Issues         []Issue
	AppliedFixes   []AppliedFix
	CategoryScores map[Category]int
	OverallScore   int
	Passed         bool
}

// passThreshold is the minimum overall score for a passing report.
const passThreshold = 70

// Score recomputes category scores, the overall score, and the pass flag
// from the report's current issue list. A report passes when the overall
// score clears the threshold and no error-severity issues remain.
func (r *Report) Score() {
	r.CategoryScores = make(map[Category]int)
	penalties := make(map[Category]int)
	total := 0
	hasError := false

	for _, issue := range r.Issues {
		p := severityPenalty[issue.Severity]
		penalties[issue.Category] += p
		total += p
		if issue.Severity == SeverityError {
			hasError = true
		}
	}

	for cat, p := range penalties {
		r.CategoryScores[cat] = clampScore(100 - p)
	}
	r.OverallScore = clampScore(100 - total)
	r.Passed = r.OverallScore >= passThreshold && !hasError
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	return s
}

// FinalKey is the reserved report key for the whole-build comprehensive
// review, distinct from any phase number.
const FinalKey = "final"

// ReportSet stores reports keyed by phase ("1", "2", …) plus the reserved
// final key. A report is overwritten only by an explicit re-run.
type ReportSet struct {
	reports map[string]*Report
}

// NewReportSet returns an empty report set.
func NewReportSet() *ReportSet {
	return &ReportSet{reports: make(map[string]*Report)}
}

// SetPhase stores the report for a phase, replacing any prior run.
func (rs *ReportSet) SetPhase(phase int, r *Report) {
	rs.reports[phaseKey(phase)] = r
}

// Phase returns the stored report for a phase.
func (rs *ReportSet) Phase(phase int) (*Report, bool) {
	r, ok := rs.reports[phaseKey(phase)]
	return r, ok
}

// SetFinal stores the comprehensive whole-build report.
func (rs *ReportSet) SetFinal(r *Report) {
	rs.reports[FinalKey] = r
}

// Final returns the comprehensive whole-build report.
func (rs *ReportSet) Final() (*Report, bool) {
	r, ok := rs.reports[FinalKey]
	return r, ok
}

func phaseKey(phase int) string {
	return fmt.Sprintf("%d", phase)
}
