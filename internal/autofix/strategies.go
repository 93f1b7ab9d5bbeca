package autofix

import (
	"regexp"
	"strings"

	"github.com/stackweaver/stackweaver/internal/review"
)

var (
	debugStmt     = regexp.MustCompile(`^\s*(?:console\.log|console\.debug|debugger)\b.*;?\s*$`)
	singleParamFn = regexp.MustCompile(`\.map\s*\(\s*\(\s*([\w$]+)\s*\)\s*=>`)
	bareParamFn   = regexp.MustCompile(`\.map\s*\(\s*([\w$]+)\s*=>`)
	twoParamFn    = regexp.MustCompile(`\.map\s*\(\s*\(\s*[\w$]+\s*,\s*([\w$]+)\s*\)\s*=>`)
	openingTag    = regexp.MustCompile(`<([A-Za-z][\w.]*)`)
	reactImport   = regexp.MustCompile(`^\s*import\s+(?:[\w$]+\s*,\s*)?\{([^}]*)\}\s*from\s+['"]react['"]`)
	unusedSymbol  = regexp.MustCompile(`imported symbol (\S+) is never used`)
	missingHook   = regexp.MustCompile(`^(\w+) is used but not imported`)
)

// lineIndex converts a 1-based issue line to a slice index, or -1.
func lineIndex(lines []string, line int) int {
	idx := line - 1
	if idx < 0 || idx >= len(lines) {
		return -1
	}
	return idx
}

// removeDebugLine deletes a standalone debug statement line.
func removeDebugLine(lines []string, issue review.Issue) ([]string, string, bool) {
	idx := lineIndex(lines, issue.Line)
	if idx < 0 || !debugStmt.MatchString(lines[idx]) {
		return lines, "", false
	}
	out := append(append([]string{}, lines[:idx]...), lines[idx+1:]...)
	return out, "removed debug statement", true
}

// insertListKey adds a key prop to a list-rendered JSX element, extending
// the map callback with an index parameter when it only takes one.
func insertListKey(lines []string, issue review.Issue) ([]string, string, bool) {
	idx := lineIndex(lines, issue.Line)
	if idx < 0 {
		return lines, "", false
	}
	line := lines[idx]
	if strings.Contains(line, "key=") {
		return lines, "", false
	}

	// Ensure the key references an index variable that is actually in
	// scope: extend a one-parameter callback, reuse the second parameter
	// of a two-parameter one, and bail on anything else.
	keyVar := "index"
	switch {
	case singleParamFn.MatchString(line):
		line = singleParamFn.ReplaceAllString(line, ".map(($1, index) =>")
	case bareParamFn.MatchString(line):
		line = bareParamFn.ReplaceAllString(line, ".map(($1, index) =>")
	case twoParamFn.MatchString(line):
		keyVar = twoParamFn.FindStringSubmatch(line)[1]
	default:
		return lines, "", false
	}

	loc := openingTag.FindStringSubmatchIndex(line)
	if loc == nil {
		return lines, "", false
	}
	insertAt := loc[3] // End of the tag name.
	line = line[:insertAt] + " key={" + keyVar + "}" + line[insertAt:]

	out := append([]string{}, lines...)
	out[idx] = line
	return out, "inserted key prop into list rendering", true
}

// removeUnusedImport drops one symbol from an import statement, removing
// the whole line when no symbols remain.
func removeUnusedImport(lines []string, issue review.Issue) ([]string, string, bool) {
	m := unusedSymbol.FindStringSubmatch(issue.Message)
	if m == nil {
		return lines, "", false
	}
	sym := m[1]

	idx := lineIndex(lines, issue.Line)
	if idx < 0 || !strings.Contains(lines[idx], sym) {
		return lines, "", false
	}
	line := lines[idx]

	open := strings.Index(line, "{")
	closeIdx := strings.Index(line, "}")
	if open >= 0 && closeIdx > open {
		inner := line[open+1 : closeIdx]
		var kept []string
		for _, part := range strings.Split(inner, ",") {
			name := strings.TrimSpace(part)
			if idx := strings.Index(name, " as "); idx >= 0 {
				name = strings.TrimSpace(name[idx+4:])
			}
			if name != sym && name != "" {
				kept = append(kept, strings.TrimSpace(part))
			}
		}
		if len(kept) > 0 {
			out := append([]string{}, lines...)
			out[idx] = line[:open+1] + " " + strings.Join(kept, ", ") + " " + line[closeIdx:]
			return out, "removed unused import " + sym, true
		}
		// Fall through: no named imports left.
		if defaultBeforeBrace(line, open) {
			// A default import remains; strip only the brace group.
			out := append([]string{}, lines...)
			out[idx] = strings.Replace(line[:open], ", ", " ", 1) + strings.TrimSpace(line[closeIdx+1:])
			return out, "removed unused import " + sym, true
		}
	}

	out := append(append([]string{}, lines[:idx]...), lines[idx+1:]...)
	return out, "removed unused import " + sym, true
}

// defaultBeforeBrace reports whether an import line has a default import
// clause ahead of its brace group.
func defaultBeforeBrace(line string, brace int) bool {
	head := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line[:brace]), "import"))
	head = strings.TrimSuffix(head, ",")
	return strings.TrimSpace(head) != ""
}

// insertHookImport adds a missing React hook import, merging into an
// existing react import when one exists.
func insertHookImport(lines []string, issue review.Issue) ([]string, string, bool) {
	m := missingHook.FindStringSubmatch(issue.Message)
	if m == nil {
		return lines, "", false
	}
	hook := m[1]

	for i, line := range lines {
		sm := reactImport.FindStringSubmatch(line)
		if sm == nil {
			continue
		}
		inner := strings.TrimSpace(sm[1])
		if containsSymbol(inner, hook) {
			return lines, "", false
		}
		merged := inner + ", " + hook
		if inner == "" {
			merged = hook
		}
		out := append([]string{}, lines...)
		out[i] = strings.Replace(line, "{"+sm[1]+"}", "{ "+merged+" }", 1)
		return out, "added " + hook + " to react import", true
	}

	out := append([]string{"import { " + hook + " } from 'react';"}, lines...)
	return out, "inserted import for " + hook, true
}

func containsSymbol(clause, sym string) bool {
	for _, part := range strings.Split(clause, ",") {
		if strings.TrimSpace(part) == sym {
			return true
		}
	}
	return false
}

// timerStringCall matches setTimeout/setInterval with a string first
// argument. Single- and double-quoted strings are handled separately to
// keep the match anchored to the closing quote.
var (
	timerSingle = regexp.MustCompile(`\b(setTimeout|setInterval)\s*\(\s*'([^']*)'\s*,`)
	timerDouble = regexp.MustCompile(`\b(setTimeout|setInterval)\s*\(\s*"([^"]*)"\s*,`)
)

// convertTimerString rewrites a string timer argument into an arrow
// function, removing the implicit eval.
func convertTimerString(lines []string, issue review.Issue) ([]string, string, bool) {
	idx := lineIndex(lines, issue.Line)
	if idx < 0 {
		return lines, "", false
	}
	line := lines[idx]

	replaced := timerSingle.ReplaceAllString(line, "$1(() => { $2 },")
	replaced = timerDouble.ReplaceAllString(replaced, "$1(() => { $2 },")
	if replaced == line {
		return lines, "", false
	}

	out := append([]string{}, lines...)
	out[idx] = replaced
	return out, "converted timer string argument to a function", true
}
