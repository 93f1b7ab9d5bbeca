package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const metricsFileName = "stackweaver.metrics.toml"

// maxHistoryEntries is the maximum number of historical run summaries kept.
const maxHistoryEntries = 10

// Metrics collects per-phase timing for one build run.
type Metrics struct {
	ConceptName string
	StartedAt   time.Time
	CompletedAt time.Time
	Phases      map[int]*PhaseMetrics
}

// PhaseMetrics is one phase's recorded timing and outcome.
type PhaseMetrics struct {
	StartedAt    time.Time
	CompletedAt  time.Time
	Duration     time.Duration
	TasksTotal   int
	TasksDone    int
	FixesApplied int
	Score        int
}

// NewMetrics starts a metrics record for one run.
func NewMetrics(conceptName string) *Metrics {
	return &Metrics{
		ConceptName: conceptName,
		StartedAt:   time.Now(),
		Phases:      make(map[int]*PhaseMetrics),
	}
}

// RecordPhaseStart marks a phase's start time.
func (m *Metrics) RecordPhaseStart(number int) {
	m.Phases[number] = &PhaseMetrics{StartedAt: time.Now()}
}

// RecordPhaseComplete fills in a phase's final numbers.
func (m *Metrics) RecordPhaseComplete(number int, res *PhaseResult, fixes, score int) {
	pm, ok := m.Phases[number]
	if !ok {
		pm = &PhaseMetrics{StartedAt: time.Now()}
		m.Phases[number] = pm
	}
	pm.CompletedAt = time.Now()
	pm.Duration = res.Duration
	pm.TasksTotal = res.TotalTasks
	pm.TasksDone = res.TasksCompleted
	pm.FixesApplied = fixes
	pm.Score = score
}

// metricsFile is the TOML-serializable representation: the most recent run
// plus a capped history of previous runs. time.Duration is stored as
// nanoseconds since the TOML library has no native duration support.
type metricsFile struct {
	Current metricsRecord    `toml:"current"`
	History []historySummary `toml:"history"`
}

type metricsRecord struct {
	ConceptName string        `toml:"concept_name"`
	StartedAt   time.Time     `toml:"started_at"`
	CompletedAt time.Time     `toml:"completed_at"`
	TotalPhases int           `toml:"total_phases"`
	Phases      []phaseRecord `toml:"phases"`
}

type phaseRecord struct {
	Number       int       `toml:"number"`
	StartedAt    time.Time `toml:"started_at"`
	CompletedAt  time.Time `toml:"completed_at"`
	DurationNs   int64     `toml:"duration_ns"`
	TasksTotal   int       `toml:"tasks_total"`
	TasksDone    int       `toml:"tasks_done"`
	FixesApplied int       `toml:"fixes_applied"`
	Score        int       `toml:"score"`
}

type historySummary struct {
	ConceptName string    `toml:"concept_name"`
	CompletedAt time.Time `toml:"completed_at"`
	TotalPhases int       `toml:"total_phases"`
	TotalNs     int64     `toml:"total_ns"`
}

// Save writes the metrics file, rotating the previous current record into
// the capped history. Written atomically.
func (m *Metrics) Save(dir string) error {
	m.CompletedAt = time.Now()
	path := filepath.Join(dir, metricsFileName)

	var file metricsFile
	if data, err := os.ReadFile(path); err == nil {
		// A parse failure discards the old file rather than failing the save.
		_ = toml.Unmarshal(data, &file)
	}

	if !file.Current.StartedAt.IsZero() {
		file.History = append([]historySummary{{
			ConceptName: file.Current.ConceptName,
			CompletedAt: file.Current.CompletedAt,
			TotalPhases: file.Current.TotalPhases,
			TotalNs:     file.Current.CompletedAt.Sub(file.Current.StartedAt).Nanoseconds(),
		}}, file.History...)
		if len(file.History) > maxHistoryEntries {
			file.History = file.History[:maxHistoryEntries]
		}
	}

	file.Current = m.record()

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("marshaling metrics: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing temp metrics file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming metrics file: %w", err)
	}
	return nil
}

func (m *Metrics) record() metricsRecord {
	rec := metricsRecord{
		ConceptName: m.ConceptName,
		StartedAt:   m.StartedAt,
		CompletedAt: m.CompletedAt,
		TotalPhases: len(m.Phases),
	}
	for n, pm := range m.Phases {
		rec.Phases = append(rec.Phases, phaseRecord{
			Number:       n,
			StartedAt:    pm.StartedAt,
			CompletedAt:  pm.CompletedAt,
			DurationNs:   pm.Duration.Nanoseconds(),
			TasksTotal:   pm.TasksTotal,
			TasksDone:    pm.TasksDone,
			FixesApplied: pm.FixesApplied,
			Score:        pm.Score,
		})
	}
	sort.Slice(rec.Phases, func(i, j int) bool { return rec.Phases[i].Number < rec.Phases[j].Number })
	return rec
}
