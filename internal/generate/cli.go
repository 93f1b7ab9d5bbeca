package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/stackweaver/stackweaver/internal/plan"
)

// CLIGenerator shells out to an external agent CLI for code generation. The
// CLI is expected to accept a prompt via -p and emit a JSON envelope whose
// result field contains the delimited multi-file blob.
type CLIGenerator struct {
	Path         string  // Binary path, e.g. "claude".
	Model        string  // Optional model override.
	MaxBudgetUSD float64 // 0 disables the budget flag.
	WorkDir      string
	Verbose      bool
}

// cliResponse mirrors the agent CLI's JSON output envelope.
type cliResponse struct {
	Type         string  `json:"type"`
	IsError      bool    `json:"is_error"`
	DurationMs   int64   `json:"duration_ms"`
	Result       string  `json:"result"`
	SessionID    string  `json:"session_id"`
	TotalCostUSD float64 `json:"total_cost_usd"`
}

// Generate invokes the CLI with a phase prompt and returns the raw blob.
func (g *CLIGenerator) Generate(ctx context.Context, phase *plan.Phase, buildCtx Context) (string, error) {
	args := []string{
		"-p", buildPrompt(phase, buildCtx),
		"--output-format", "json",
	}
	if g.Model != "" {
		args = append(args, "--model", g.Model)
	}
	if g.MaxBudgetUSD > 0 {
		args = append(args, "--max-budget-usd", fmt.Sprintf("%.2f", g.MaxBudgetUSD))
	}

	cmd := exec.CommandContext(ctx, g.Path, args...)
	cmd.Dir = g.WorkDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if g.Verbose {
		fmt.Fprintf(os.Stderr, "[generate] running: %s (phase %d)\n", g.Path, phase.Number)
	}

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("generator invocation failed: %w\nstderr: %s", err, stderr.String())
	}

	var resp cliResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return "", fmt.Errorf("failed to parse generator JSON output: %w", err)
	}
	if resp.IsError {
		return "", fmt.Errorf("generator returned error: %s", resp.Result)
	}
	return resp.Result, nil
}

// Validate checks that the configured CLI binary is runnable.
func (g *CLIGenerator) Validate() error {
	out, err := exec.Command(g.Path, "--version").Output()
	if err != nil {
		return fmt.Errorf("generator CLI not found at %q: %w", g.Path, err)
	}
	if g.Verbose {
		fmt.Fprintf(os.Stderr, "[generate] version: %s", string(out))
	}
	return nil
}

// buildPrompt renders the phase and accumulated context into a generation
// prompt. The exact wording is intentionally minimal: the phase description,
// feature list, established patterns, and prior code carry the signal.
func buildPrompt(phase *plan.Phase, buildCtx Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Phase %d: %s\n%s\n\n", phase.Number, phase.Name, phase.Description)
	for _, fc := range phase.Features {
		fmt.Fprintf(&b, "- %s: %s\n", fc.Feature.Name, fc.Feature.Description)
	}
	if len(buildCtx.Patterns) > 0 {
		fmt.Fprintf(&b, "\nFollow the established patterns: %s\n", strings.Join(buildCtx.Patterns, ", "))
	}
	if len(buildCtx.Contracts) > 0 {
		fmt.Fprintf(&b, "\nExisting API contracts:\n%s\n", strings.Join(buildCtx.Contracts, "\n"))
	}
	if buildCtx.AccumulatedCode != "" {
		fmt.Fprintf(&b, "\nCode generated so far:\n%s\n", buildCtx.AccumulatedCode)
	}
	b.WriteString("\nRespond with the delimited multi-file format, ending with ===END===.\n")
	return b.String()
}
