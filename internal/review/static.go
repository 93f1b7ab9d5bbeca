package review

import (
	"context"
	"regexp"
	"strings"

	"github.com/stackweaver/stackweaver/internal/generate"
)

// StaticReviewer is a rule-based Reviewer that runs entirely in-process.
// It covers the structural issue classes the auto-fix engine knows how to
// repair, plus a keyword-based completeness check for comprehensive passes.
type StaticReviewer struct{}

// NewStaticReviewer returns the built-in rule-based reviewer.
func NewStaticReviewer() *StaticReviewer {
	return &StaticReviewer{}
}

var (
	debugLine   = regexp.MustCompile(`^\s*(?:console\.log|console\.debug|debugger)\b.*;?\s*$`)
	evalCall    = regexp.MustCompile(`\beval\s*\(|\bnew\s+Function\s*\(`)
	timerString = regexp.MustCompile(`\bset(?:Timeout|Interval)\s*\(\s*['"]`)
	mapReturn   = regexp.MustCompile(`\.map\s*\(\s*(?:\([^)]*\)|[\w$]+)\s*=>\s*[\({]?\s*<`)
	keyProp     = regexp.MustCompile(`\bkey\s*=`)
	importLine  = regexp.MustCompile(`^\s*import\b`)
	hookCall    = regexp.MustCompile(`\b(use(?:State|Effect|Ref|Memo|Callback|Context|Reducer))\s*\(`)
)

// reactHooks maps hook names to their import source for missing-import
// detection.
var reactHooks = map[string]bool{
	"useState": true, "useEffect": true, "useRef": true,
	"useMemo": true, "useCallback": true, "useContext": true, "useReducer": true,
}

// LightReview runs the structural rules over a phase's newly generated
// files and returns a scored report.
func (sr *StaticReviewer) LightReview(ctx context.Context, files []generate.GeneratedFile, phase PhaseContext) (*Report, error) {
	r := &Report{}
	for _, f := range files {
		r.Issues = append(r.Issues, checkFile(f)...)
	}
	r.Score()
	return r, nil
}

// ComprehensiveReview runs the structural rules over the whole accumulated
// file set and adds a semantic completeness check: every original feature
// must leave a keyword trace somewhere in the generated code.
func (sr *StaticReviewer) ComprehensiveReview(ctx context.Context, files []generate.GeneratedFile, reqs RequirementsContext) (*Report, error) {
	r := &Report{}
	var combined strings.Builder
	for _, f := range files {
		r.Issues = append(r.Issues, checkFile(f)...)
		combined.WriteString(strings.ToLower(f.Path))
		combined.WriteString("\n")
		combined.WriteString(strings.ToLower(f.Content))
		combined.WriteString("\n")
	}

	corpus := combined.String()
	for _, feature := range reqs.Features {
		if !featureCovered(corpus, feature) {
			msg := "no generated code references feature " + quote(feature)
			r.Issues = append(r.Issues, Issue{
				ID:       IssueID(CategoryCompleteness, "", 0, msg),
				Category: CategoryCompleteness,
				Severity: SeverityWarning,
				Message:  msg,
			})
		}
	}

	r.Score()
	return r, nil
}

// checkFile applies every structural rule to one file. Line numbers are
// 1-based.
func checkFile(f generate.GeneratedFile) []Issue {
	var issues []Issue
	add := func(line int, cat Category, sev Severity, msg string, fixable bool) {
		issues = append(issues, Issue{
			ID:          IssueID(cat, f.Path, line, msg),
			File:        f.Path,
			Line:        line,
			Category:    cat,
			Severity:    sev,
			Message:     msg,
			AutoFixable: fixable,
		})
	}

	lines := strings.Split(f.Content, "\n")
	imported := importedSymbols(lines)
	flaggedHooks := make(map[string]bool)

	for i, line := range lines {
		n := i + 1
		switch {
		case debugLine.MatchString(line):
			add(n, CategorySyntax, SeverityWarning, "debug statement left in generated code", true)
		case evalCall.MatchString(line):
			add(n, CategoryUnsafeEval, SeverityError, "dynamic code evaluation is unsafe", false)
		case timerString.MatchString(line):
			add(n, CategoryTimerString, SeverityWarning, "timer called with a string argument instead of a function", true)
		case mapReturn.MatchString(line) && !keyProp.MatchString(line):
			add(n, CategoryMissingKey, SeverityWarning, "list rendering without a key prop", true)
		}

		for _, m := range hookCall.FindAllStringSubmatch(line, -1) {
			hook := m[1]
			if reactHooks[hook] && !imported[hook] && !flaggedHooks[hook] {
				flaggedHooks[hook] = true
				add(n, CategoryMissingImport, SeverityError, hook+" is used but not imported", true)
			}
		}
	}

	issues = append(issues, unusedImports(f.Path, lines, imported)...)
	return issues
}

// importedSymbols collects every symbol name brought in by import lines.
func importedSymbols(lines []string) map[string]bool {
	imported := make(map[string]bool)
	for _, line := range lines {
		if !importLine.MatchString(line) {
			continue
		}
		clause := line
		if idx := strings.Index(clause, "from"); idx >= 0 {
			clause = clause[:idx]
		}
		clause = strings.TrimPrefix(strings.TrimSpace(clause), "import")
		clause = strings.Trim(clause, " {};")
		for _, part := range strings.Split(clause, ",") {
			part = strings.TrimSpace(strings.Trim(part, "{}"))
			if idx := strings.Index(part, " as "); idx >= 0 {
				part = part[idx+4:]
			}
			if part != "" && part != "*" {
				imported[strings.TrimSpace(part)] = true
			}
		}
	}
	return imported
}

// unusedImports flags imported symbols that never appear outside their
// import line.
func unusedImports(path string, lines []string, imported map[string]bool) []Issue {
	var body strings.Builder
	importAt := make(map[string]int)
	for i, line := range lines {
		if importLine.MatchString(line) {
			for sym := range imported {
				if strings.Contains(line, sym) {
					if _, ok := importAt[sym]; !ok {
						importAt[sym] = i + 1
					}
				}
			}
			continue
		}
		body.WriteString(line)
		body.WriteString("\n")
	}

	var issues []Issue
	text := body.String()
	for sym, lineNo := range importAt {
		if !symbolUsed(text, sym) {
			msg := "imported symbol " + sym + " is never used"
			issues = append(issues, Issue{
				ID:          IssueID(CategoryUnusedImport, path, lineNo, msg),
				File:        path,
				Line:        lineNo,
				Category:    CategoryUnusedImport,
				Severity:    SeverityInfo,
				Message:     msg,
				AutoFixable: true,
			})
		}
	}
	return issues
}

var wordBoundary = regexp.MustCompile(`[A-Za-z0-9_$]`)

// symbolUsed reports whether sym appears in text as a whole identifier.
func symbolUsed(text, sym string) bool {
	for idx := strings.Index(text, sym); idx >= 0; {
		before := idx == 0 || !wordBoundary.MatchString(string(text[idx-1]))
		afterIdx := idx + len(sym)
		after := afterIdx >= len(text) || !wordBoundary.MatchString(string(text[afterIdx]))
		if before && after {
			return true
		}
		next := strings.Index(text[idx+1:], sym)
		if next < 0 {
			return false
		}
		idx = idx + 1 + next
	}
	return false
}

// featureCovered checks whether any significant word of the feature name
// appears in the generated corpus.
func featureCovered(corpus, feature string) bool {
	for _, word := range strings.Fields(strings.ToLower(feature)) {
		word = strings.Trim(word, ".,:;()")
		if len(word) < 4 {
			continue
		}
		if strings.Contains(corpus, word) {
			return true
		}
	}
	return false
}

func quote(s string) string {
	return `"` + s + `"`
}
