package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/stackweaver/stackweaver/internal/plan"
)

const stateFileName = "stackweaver.state.toml"

// BuildState is the persisted record of a build in progress, allowing a
// later invocation to resume without replaying completed phases.
type BuildState struct {
	Version     int                    `toml:"version"`
	ConceptName string                 `toml:"concept_name"`
	Phases      map[string]*PhaseState `toml:"phases"`
	// Files is the accumulated file set at save time. A resumed build
	// folds it back so later phases generate with full prior context.
	Files map[string]string `toml:"files,omitempty"`
}

// PhaseState is one phase's persisted status.
type PhaseState struct {
	Status    plan.PhaseStatus `toml:"status"`
	CreatedAt time.Time        `toml:"created_at"`
	UpdatedAt time.Time        `toml:"updated_at"`
}

// LoadState reads the state file from dir. Returns an empty state if the
// file does not exist.
func LoadState(dir string) (*BuildState, error) {
	path := filepath.Join(dir, stateFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &BuildState{
				Version: 1,
				Phases:  make(map[string]*PhaseState),
			}, nil
		}
		return nil, fmt.Errorf("reading state file: %w", err)
	}

	var state BuildState
	if err := toml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing state file: %w", err)
	}
	if state.Phases == nil {
		state.Phases = make(map[string]*PhaseState)
	}
	return &state, nil
}

// SaveState writes the state file atomically (write temp + rename).
func SaveState(dir string, state *BuildState) error {
	data, err := toml.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	path := filepath.Join(dir, stateFileName)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing temp state file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming state file: %w", err)
	}
	return nil
}

// SetPhaseState updates or creates a phase's persisted entry.
func (s *BuildState) SetPhaseState(number int, status plan.PhaseStatus) {
	now := time.Now()
	key := fmt.Sprintf("%d", number)
	ps, ok := s.Phases[key]
	if !ok {
		ps = &PhaseState{CreatedAt: now}
		s.Phases[key] = ps
	}
	ps.Status = status
	ps.UpdatedAt = now
}

// Capture copies every phase's current status from the orchestrator's plan.
func (s *BuildState) Capture(p *plan.Plan) {
	s.ConceptName = p.Concept.Name
	for _, ph := range p.Phases {
		s.SetPhaseState(ph.Number, ph.Status)
	}
}

// Apply restores captured statuses onto a freshly built plan. Unknown
// phase numbers are ignored so a replanned concept degrades gracefully.
// A phase persisted mid-execution comes back as pending: the interrupted
// run never finished it, and a resumed build only picks up pending phases.
func (s *BuildState) Apply(p *plan.Plan) {
	for key, ps := range s.Phases {
		var n int
		if _, err := fmt.Sscanf(key, "%d", &n); err != nil {
			continue
		}
		ph := p.PhaseByNumber(n)
		if ph == nil {
			continue
		}
		status := ps.Status
		if status == plan.StatusInProgress {
			status = plan.StatusPending
		}
		ph.Status = status
	}
}
