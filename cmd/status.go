package cmd

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stackweaver/stackweaver/internal/config"
	"github.com/stackweaver/stackweaver/internal/pipeline"
	"github.com/stackweaver/stackweaver/internal/plan"
	"github.com/stackweaver/stackweaver/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show persisted phase state for the build in this directory",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	printer := ui.New()

	state, err := pipeline.LoadState(cfg.WorkDir)
	if err != nil {
		return err
	}
	if state.ConceptName == "" && len(state.Phases) == 0 {
		printer.Info("no build state found")
		return nil
	}

	fmt.Fprintf(os.Stderr, "build: %s\n", state.ConceptName)

	// Phase keys are stringified numbers; sort numerically.
	keys := make([]string, 0, len(state.Phases))
	for k := range state.Phases {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.Atoi(keys[i])
		b, _ := strconv.Atoi(keys[j])
		return a < b
	})

	for _, k := range keys {
		ps := state.Phases[k]
		fmt.Fprintf(os.Stderr, "  phase %-3s %-12s updated %s\n",
			k, ps.Status, ps.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	done := 0
	for _, ps := range state.Phases {
		if ps.Status == plan.StatusCompleted || ps.Status == plan.StatusSkipped {
			done++
		}
	}
	fmt.Fprintf(os.Stderr, "%s\n", strings.Repeat("─", 40))
	fmt.Fprintf(os.Stderr, "%d/%d phases done\n", done, len(state.Phases))
	return nil
}
