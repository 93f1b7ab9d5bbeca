package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stackweaver/stackweaver/internal/config"
	"github.com/stackweaver/stackweaver/internal/pipeline"
	"github.com/stackweaver/stackweaver/internal/plan"
	"github.com/stackweaver/stackweaver/internal/ui"
)

var validateCmd = &cobra.Command{
	Use:   "validate <concept.toml>",
	Short: "Validate a concept file and its derived phase plan",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	printer := ui.New()

	concept, err := plan.LoadConcept(args[0])
	if err != nil {
		printer.Error(err.Error())
		return fmt.Errorf("concept %q is invalid", args[0])
	}

	p := plan.BuildPlan(concept, plan.Budgets{
		MaxTokensPerPhase:   cfg.MaxTokensPerPhase,
		MaxFeaturesPerPhase: cfg.MaxFeaturesPerPhase,
	})
	if err := pipeline.ValidatePlan(p); err != nil {
		printer.Error(err.Error())
		return fmt.Errorf("plan for %q is invalid", concept.Name)
	}

	printer.Info(fmt.Sprintf("✓ concept %q: %d feature(s), %d phase(s), no errors",
		concept.Name, len(concept.Features), len(p.Phases)))
	return nil
}
