package analyze

import (
	"sort"

	"github.com/stackweaver/stackweaver/internal/generate"
)

// State is the running ledger of everything generated so far: the latest
// version of every file (keyed by path, replace semantics), all extracted
// API contracts, and the set of established coding patterns. A single
// orchestrator owns a State; it is not safe for concurrent writers.
type State struct {
	files      map[string]AccumulatedFile
	order      []string // Paths in first-seen order.
	contracts  []APIContract
	patterns   []string
	patternSet map[string]bool
}

// NewState returns an empty accumulated build state.
func NewState() *State {
	return &State{
		files:      make(map[string]AccumulatedFile),
		patternSet: make(map[string]bool),
	}
}

// Fold merges an analysis batch into the state. Files are replaced in place
// at their path; contracts and patterns are appended with de-duplication.
func (s *State) Fold(a Analysis) {
	for _, f := range a.Files {
		if _, ok := s.files[f.Path]; !ok {
			s.order = append(s.order, f.Path)
		}
		s.files[f.Path] = f
	}

	for _, c := range a.Contracts {
		if !s.hasContract(c) {
			s.contracts = append(s.contracts, c)
		}
	}

	for _, p := range a.Patterns {
		if !s.patternSet[p] {
			s.patternSet[p] = true
			s.patterns = append(s.patterns, p)
		}
	}
}

// SetContent overwrites one file's content in place (used after auto-fixes)
// without re-running analysis. Unknown paths are ignored.
func (s *State) SetContent(path, content string) {
	f, ok := s.files[path]
	if !ok {
		return
	}
	f.Content = content
	s.files[path] = f
}

// File returns the accumulated entry for a path.
func (s *State) File(path string) (AccumulatedFile, bool) {
	f, ok := s.files[path]
	return f, ok
}

// Files returns all accumulated files in first-seen order.
func (s *State) Files() []AccumulatedFile {
	out := make([]AccumulatedFile, 0, len(s.order))
	for _, p := range s.order {
		out = append(out, s.files[p])
	}
	return out
}

// FileMap returns a copy of path → content for snapshotting.
func (s *State) FileMap() map[string]string {
	out := make(map[string]string, len(s.files))
	for p, f := range s.files {
		out[p] = f.Content
	}
	return out
}

// Restore replaces the entire file set from a path → content map, re-running
// analysis so exports, contracts, and patterns match the restored content.
func (s *State) Restore(files map[string]string, analyzer *Analyzer) {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	batch := make([]generate.GeneratedFile, 0, len(paths))
	for _, p := range paths {
		batch = append(batch, generate.GeneratedFile{Path: p, Content: files[p]})
	}

	s.files = make(map[string]AccumulatedFile)
	s.order = nil
	s.contracts = nil
	s.patterns = nil
	s.patternSet = make(map[string]bool)
	s.Fold(analyzer.Analyze(batch))
}

// Contracts returns all extracted API contracts in extraction order.
func (s *State) Contracts() []APIContract {
	return append([]APIContract(nil), s.contracts...)
}

// ContractStrings renders the contracts for prompt context.
func (s *State) ContractStrings() []string {
	out := make([]string, 0, len(s.contracts))
	for _, c := range s.contracts {
		out = append(out, c.String())
	}
	return out
}

// Patterns returns the established pattern set in detection order.
func (s *State) Patterns() []string {
	return append([]string(nil), s.patterns...)
}

// CombinedCode renders every accumulated file into a single delimited blob,
// the representation handed to later phases as generation context.
func (s *State) CombinedCode() string {
	if len(s.order) == 0 {
		return ""
	}
	files := make([]generate.GeneratedFile, 0, len(s.order))
	for _, p := range s.order {
		files = append(files, generate.GeneratedFile{Path: p, Content: s.files[p].Content})
	}
	return generate.FormatBlob(generate.BlobHeader{}, files)
}

// Len returns the number of accumulated files.
func (s *State) Len() int {
	return len(s.files)
}

func (s *State) hasContract(c APIContract) bool {
	for _, have := range s.contracts {
		if have.Endpoint == c.Endpoint && have.Method == c.Method {
			return true
		}
	}
	return false
}
