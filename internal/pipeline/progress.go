package pipeline

import (
	"strconv"
	"strings"

	"github.com/stackweaver/stackweaver/internal/plan"
)

// Progress is a derived snapshot of build completion.
type Progress struct {
	CompletedPhases []int
	TotalPhases     int // Excluding skipped phases.
	PercentComplete float64
	// EstimatedTimeRemaining sums the "N min" estimates of every phase not
	// yet in a terminal state, in minutes.
	EstimatedTimeRemaining int
}

// Progress derives the current completion snapshot from phase statuses.
// Skipped phases are excluded from the total and do not count as complete.
func (o *Orchestrator) Progress() Progress {
	var p Progress
	for _, ph := range o.plan.Phases {
		switch ph.Status {
		case plan.StatusSkipped:
			continue
		case plan.StatusCompleted:
			p.CompletedPhases = append(p.CompletedPhases, ph.Number)
		}
		p.TotalPhases++
		if !ph.Status.Terminal() {
			p.EstimatedTimeRemaining += parseMinutes(ph.EstimatedTime)
		}
	}
	if p.TotalPhases > 0 {
		p.PercentComplete = float64(len(p.CompletedPhases)) / float64(p.TotalPhases) * 100
	}
	return p
}

// parseMinutes extracts the numeric estimate from an "N min" string.
// Unparseable estimates contribute zero.
func parseMinutes(s string) int {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 0 {
		return 0
	}
	return n
}
