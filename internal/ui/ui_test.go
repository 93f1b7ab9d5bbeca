package ui

import (
	"testing"

	"github.com/stackweaver/stackweaver/internal/pipeline"
	"github.com/stackweaver/stackweaver/internal/plan"
)

func TestProgressLine(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		pr   pipeline.Progress
		want string
	}{
		{
			"mid build",
			pipeline.Progress{CompletedPhases: []int{1, 2}, TotalPhases: 5, PercentComplete: 40, EstimatedTimeRemaining: 7},
			"[build] 2/5 phases complete (40%) | ~7 min remaining",
		},
		{
			"nothing done",
			pipeline.Progress{TotalPhases: 3, EstimatedTimeRemaining: 6},
			"[build] 0/3 phases complete (0%) | ~6 min remaining",
		},
		{
			"fractional percent rounds",
			pipeline.Progress{CompletedPhases: []int{1}, TotalPhases: 3, PercentComplete: 100.0 / 3},
			"[build] 1/3 phases complete (33%) | ~0 min remaining",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ProgressLine(tt.pr); got != tt.want {
				t.Errorf("ProgressLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatusGlyph(t *testing.T) {
	t.Parallel()
	tests := []struct {
		status plan.PhaseStatus
		glyph  string
	}{
		{plan.StatusCompleted, "✓"},
		{plan.StatusInProgress, "▶"},
		{plan.StatusFailed, "✗"},
		{plan.StatusSkipped, "-"},
		{plan.StatusPending, "·"},
	}
	for _, tt := range tests {
		tt := tt
		glyph, _ := statusGlyph(tt.status)
		if glyph != tt.glyph {
			t.Errorf("statusGlyph(%s) = %q, want %q", tt.status, glyph, tt.glyph)
		}
	}
}
