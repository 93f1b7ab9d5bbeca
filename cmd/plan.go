package cmd

import (
	"github.com/spf13/cobra"

	"github.com/stackweaver/stackweaver/internal/config"
	"github.com/stackweaver/stackweaver/internal/pipeline"
	"github.com/stackweaver/stackweaver/internal/plan"
	"github.com/stackweaver/stackweaver/internal/ui"
)

var planCmd = &cobra.Command{
	Use:   "plan <concept.toml>",
	Short: "Show the phase plan for a concept without building",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	printer := ui.New()

	concept, err := plan.LoadConcept(args[0])
	if err != nil {
		return err
	}

	p := plan.BuildPlan(concept, plan.Budgets{
		MaxTokensPerPhase:   cfg.MaxTokensPerPhase,
		MaxFeaturesPerPhase: cfg.MaxFeaturesPerPhase,
	})
	if err := pipeline.ValidatePlan(p); err != nil {
		return err
	}

	printer.Plan(p)
	return nil
}
