package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/stackweaver/stackweaver/internal/pipeline"
	"github.com/stackweaver/stackweaver/internal/plan"
	"github.com/stackweaver/stackweaver/internal/review"
)

// ANSI color codes.
const (
	reset   = "\033[0m"
	bold    = "\033[1m"
	dim     = "\033[2m"
	blue    = "\033[34m"
	yellow  = "\033[33m"
	green   = "\033[32m"
	red     = "\033[31m"
	cyan    = "\033[36m"
	magenta = "\033[35m"
)

type Printer struct{}

func New() *Printer {
	return &Printer{}
}

func (p *Printer) Banner() {
	fmt.Fprintln(os.Stderr, bold+cyan+"  ╔══════════════════════════════════════╗"+reset)
	fmt.Fprintln(os.Stderr, bold+cyan+"  ║"+reset+bold+"  STACKWEAVER  "+dim+"phased app builder"+reset+bold+cyan+"     ║"+reset)
	fmt.Fprintln(os.Stderr, bold+cyan+"  ╚══════════════════════════════════════╝"+reset)
	fmt.Fprintln(os.Stderr)
}

func (p *Printer) Error(msg string) {
	fmt.Fprintf(os.Stderr, red+bold+"error: "+reset+"%s\n", msg)
}

func (p *Printer) Info(msg string) {
	fmt.Fprintf(os.Stderr, dim+"%s"+reset+"\n", msg)
}

func statusGlyph(s plan.PhaseStatus) (string, string) {
	switch s {
	case plan.StatusCompleted:
		return "✓", green
	case plan.StatusInProgress:
		return "▶", blue
	case plan.StatusFailed:
		return "✗", red
	case plan.StatusSkipped:
		return "-", dim
	default:
		return "·", dim
	}
}

// Plan renders the phase table: number, status, name, domain, estimates
// and dependency lists.
func (p *Printer) Plan(pl *plan.Plan) {
	fmt.Fprintf(os.Stderr, "\n"+bold+cyan+"build plan: %s"+reset+" "+dim+"(%s, %s)"+reset+"\n",
		pl.Concept.Name, pl.Concept.AppType, pl.Concept.Complexity)
	if len(pl.Phases) == 0 {
		fmt.Fprintln(os.Stderr, dim+"  (no phases)"+reset)
		return
	}
	for _, ph := range pl.Phases {
		glyph, color := statusGlyph(ph.Status)

		var deps string
		if len(ph.DependsOn) > 0 {
			parts := make([]string, len(ph.DependsOn))
			for i, d := range ph.DependsOn {
				parts[i] = fmt.Sprintf("%d", d)
			}
			deps = " depends:[" + strings.Join(parts, ",") + "]"
		}

		fmt.Fprintf(os.Stderr, "  "+color+glyph+reset+" %d. %-24s %-12s "+dim+"~%d tok, %s%s"+reset+"\n",
			ph.Number, ph.Name, ph.Domain, ph.EstimatedTokens, ph.EstimatedTime, deps)
		for _, f := range ph.Features {
			fmt.Fprintf(os.Stderr, "      "+dim+"• %s"+reset+"\n", f.Feature.Name)
		}
	}
	fmt.Fprintln(os.Stderr)
}

func (p *Printer) PhaseStart(ph *plan.Phase, index, total int) {
	fmt.Fprintf(os.Stderr, "\n"+bold+magenta+"── phase %d/%d: %s ──"+reset+"\n", index, total, ph.Name)
}

func (p *Printer) PhaseDone(ph *plan.Phase, ok bool) {
	if ok {
		fmt.Fprintf(os.Stderr, green+"✓ phase %d complete"+reset+": %s\n", ph.Number, ph.Name)
		return
	}
	fmt.Fprintf(os.Stderr, red+bold+"✗ phase %d failed"+reset+": %s\n", ph.Number, ph.Name)
}

func (p *Printer) PhaseSkipped(ph *plan.Phase) {
	fmt.Fprintf(os.Stderr, dim+"- phase %d skipped: %s"+reset+"\n", ph.Number, ph.Name)
}

// Validation prints each check with its outcome.
func (p *Printer) Validation(phaseNumber int, checks []plan.ValidationCheck, canProceed bool) {
	fmt.Fprintf(os.Stderr, dim+"validation for phase %d:"+reset+"\n", phaseNumber)
	for _, c := range checks {
		if c.Passed {
			fmt.Fprintf(os.Stderr, "  "+green+"✓"+reset+" %-24s "+dim+"%s"+reset+"\n", c.Name, c.Message)
		} else {
			fmt.Fprintf(os.Stderr, "  "+red+"✗"+reset+" %-24s %s\n", c.Name, c.Message)
		}
	}
	if canProceed {
		fmt.Fprintln(os.Stderr, green+bold+"✓ can proceed"+reset)
	} else {
		fmt.Fprintln(os.Stderr, red+bold+"✗ cannot proceed"+reset+": render checks failing")
	}
}

// Report prints a quality report: scores, issues, applied fixes.
func (p *Printer) Report(label string, r *review.Report) {
	if r == nil {
		return
	}
	verdict := red + bold + "✗ below threshold" + reset
	if r.Passed {
		verdict = green + bold + "✓ passed" + reset
	}
	fmt.Fprintf(os.Stderr, "\n"+bold+"review %s"+reset+": score %d/100 %s\n", label, r.OverallScore, verdict)
	for _, fix := range r.AppliedFixes {
		fmt.Fprintf(os.Stderr, "  "+green+"~ fixed"+reset+" %s:%d "+dim+"%s"+reset+"\n", fix.File, fix.Line, fix.Description)
	}
	for _, iss := range r.Issues {
		color := yellow
		if iss.Severity == review.SeverityError {
			color = red
		}
		fmt.Fprintf(os.Stderr, "  "+color+"• [%s/%s]"+reset+" %s:%d: %s\n",
			iss.Category, iss.Severity, iss.File, iss.Line, iss.Message)
	}
}

// ProgressLine formats the in-place progress string.
// Exported for testing.
func ProgressLine(pr pipeline.Progress) string {
	return fmt.Sprintf("[build] %d/%d phases complete (%.0f%%) | ~%d min remaining",
		len(pr.CompletedPhases), pr.TotalPhases, pr.PercentComplete, pr.EstimatedTimeRemaining)
}

// Progress writes a carriage-return-overwritten progress line to stderr.
func (p *Printer) Progress(pr pipeline.Progress) {
	fmt.Fprintf(os.Stderr, "\r"+cyan+"%s"+reset+"   ", ProgressLine(pr))
}

func (p *Printer) ProgressDone() {
	fmt.Fprintln(os.Stderr)
}

func (p *Printer) BuildSummary(s pipeline.BuildSummary) {
	fmt.Fprintln(os.Stderr)
	if s.Stopped {
		fmt.Fprintln(os.Stderr, yellow+bold+"⚠ build stopped early"+reset)
	} else {
		fmt.Fprintln(os.Stderr, green+bold+"✓ build complete"+reset)
	}
	fmt.Fprintf(os.Stderr, "  phases run:    %d\n", s.PhasesRun)
	if len(s.PhasesFailed) > 0 {
		parts := make([]string, len(s.PhasesFailed))
		for i, n := range s.PhasesFailed {
			parts[i] = fmt.Sprintf("%d", n)
		}
		fmt.Fprintf(os.Stderr, "  phases failed: "+red+"%s"+reset+"\n", strings.Join(parts, ", "))
	}
	fmt.Fprintf(os.Stderr, "  files built:   %d\n", s.FilesBuilt)
	fmt.Fprintf(os.Stderr, "  final score:   %d/100\n", s.FinalScore)
}

// RestorePoints lists restore points newest-first.
func (p *Printer) RestorePoints(points []RestorePointRow) {
	if len(points) == 0 {
		fmt.Fprintln(os.Stderr, dim+"no restore points"+reset)
		return
	}
	fmt.Fprintln(os.Stderr, bold+"restore points:"+reset)
	for _, rp := range points {
		fmt.Fprintf(os.Stderr, "  %-28s %-30s "+dim+"%s (%d files)"+reset+"\n",
			rp.ID, rp.Label, rp.Timestamp, rp.FileCount)
	}
}

// RestorePointRow lives here to avoid the ui package importing restore
// just for display.
type RestorePointRow struct {
	ID        string
	Label     string
	Timestamp string
	FileCount int
}
