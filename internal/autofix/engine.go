// Package autofix applies category-scoped, validated text repairs for a
// bounded set of safe issue classes. A fix is never partially applied: if
// the repaired file fails structural validation, the original content is
// kept and every attempted fix for that file is requeued as unresolved.
package autofix

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/stackweaver/stackweaver/internal/generate"
	"github.com/stackweaver/stackweaver/internal/review"
)

// ErrFixValidation is returned (wrapped) when a fix would corrupt file
// structure. The engine fails closed: callers only ever see the issue back
// on the unresolved list.
var ErrFixValidation = errors.New("fix failed validation")

// Strategy attempts one category's repair on a file's lines. It returns the
// modified lines, a human-readable description, and whether it applied.
type Strategy func(lines []string, issue review.Issue) ([]string, string, bool)

// Engine dispatches issues to category strategies and validates results.
type Engine struct {
	strategies map[review.Category]Strategy
}

// New returns an Engine with the default strategy table: the fixed
// allow-list of issue classes that are safe to repair mechanically.
func New() *Engine {
	return &Engine{
		strategies: map[review.Category]Strategy{
			review.CategorySyntax:        removeDebugLine,
			review.CategoryMissingKey:    insertListKey,
			review.CategoryUnusedImport:  removeUnusedImport,
			review.CategoryMissingImport: insertHookImport,
			review.CategoryTimerString:   convertTimerString,
		},
	}
}

// Fixable reports whether an issue's category is in the allow-list and the
// issue itself is flagged auto-fixable.
func (e *Engine) Fixable(issue review.Issue) bool {
	_, ok := e.strategies[issue.Category]
	return ok && issue.AutoFixable
}

// Result is the outcome of one fix run.
type Result struct {
	Files      []generate.GeneratedFile // Files whose content changed.
	Applied    []review.AppliedFix
	Unresolved []review.Issue
}

// Fix attempts every fixable issue against the given files. Issues within a
// file are processed in descending line order so earlier edits cannot shift
// the line numbers of later ones.
func (e *Engine) Fix(files []generate.GeneratedFile, issues []review.Issue) Result {
	byPath := make(map[string]generate.GeneratedFile, len(files))
	for _, f := range files {
		byPath[f.Path] = f
	}

	var res Result
	perFile := make(map[string][]review.Issue)
	var order []string

	for _, issue := range issues {
		if !e.Fixable(issue) {
			res.Unresolved = append(res.Unresolved, issue)
			continue
		}
		if _, ok := byPath[issue.File]; !ok {
			res.Unresolved = append(res.Unresolved, issue)
			continue
		}
		if _, ok := perFile[issue.File]; !ok {
			order = append(order, issue.File)
		}
		perFile[issue.File] = append(perFile[issue.File], issue)
	}

	for _, path := range order {
		fileIssues := perFile[path]
		sort.Slice(fileIssues, func(i, j int) bool {
			return fileIssues[i].Line > fileIssues[j].Line
		})

		original := byPath[path]
		fixed, applied, unresolved := e.fixFile(original, fileIssues)

		if err := Validate(original.Content, fixed.Content); err != nil {
			// Discard every tentative fix for this file.
			res.Unresolved = append(res.Unresolved, fileIssues...)
			continue
		}

		res.Unresolved = append(res.Unresolved, unresolved...)
		if len(applied) > 0 {
			res.Files = append(res.Files, fixed)
			res.Applied = append(res.Applied, applied...)
		}
	}

	return res
}

// fixFile tentatively applies each issue's strategy to one file.
func (e *Engine) fixFile(f generate.GeneratedFile, issues []review.Issue) (generate.GeneratedFile, []review.AppliedFix, []review.Issue) {
	lines := strings.Split(f.Content, "\n")
	var applied []review.AppliedFix
	var unresolved []review.Issue

	for _, issue := range issues {
		strategy := e.strategies[issue.Category]
		newLines, desc, ok := strategy(lines, issue)
		if !ok {
			unresolved = append(unresolved, issue)
			continue
		}
		lines = newLines
		applied = append(applied, review.AppliedFix{
			IssueID:     issue.ID,
			File:        f.Path,
			Line:        issue.Line,
			Description: desc,
			Category:    issue.Category,
		})
	}

	f.Content = strings.Join(lines, "\n")
	return f, applied, unresolved
}

// Validate checks that a repaired file is structurally sound: non-empty,
// balanced braces/brackets/parens, and an unchanged count of top-level
// export statements. Returns a wrapped ErrFixValidation on failure.
func Validate(original, fixed string) error {
	if strings.TrimSpace(fixed) == "" {
		return fmt.Errorf("%w: result is empty", ErrFixValidation)
	}
	for _, pair := range []struct {
		open, close rune
		name        string
	}{
		{'{', '}', "braces"},
		{'[', ']', "brackets"},
		{'(', ')', "parens"},
	} {
		if balance(fixed, pair.open, pair.close) != 0 {
			return fmt.Errorf("%w: unbalanced %s", ErrFixValidation, pair.name)
		}
	}
	if exportCount(original) != exportCount(fixed) {
		return fmt.Errorf("%w: top-level export count changed", ErrFixValidation)
	}
	return nil
}

// balance counts open minus close occurrences, skipping string literals and
// line comments so brace characters in text do not skew the count.
func balance(content string, open, close rune) int {
	count := 0
	var inString rune // 0 when outside a string; otherwise the quote rune.
	escaped := false
	inComment := false

	for i, r := range content {
		if inComment {
			if r == '\n' {
				inComment = false
			}
			continue
		}
		if inString != 0 {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == inString:
				inString = 0
			case r == '\n' && inString != '`':
				inString = 0 // Unterminated single-line string.
			}
			continue
		}
		switch r {
		case '\'', '"', '`':
			inString = r
		case '/':
			if i+1 < len(content) && content[i+1] == '/' {
				inComment = true
			}
		case open:
			count++
		case close:
			count--
		}
	}
	return count
}

// exportCount counts top-level export statements (lines beginning with the
// export keyword at column zero).
func exportCount(content string) int {
	count := 0
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "export ") || strings.HasPrefix(line, "export{") {
			count++
		}
	}
	return count
}
