package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stackweaver/stackweaver/internal/config"
	"github.com/stackweaver/stackweaver/internal/generate"
	"github.com/stackweaver/stackweaver/internal/ledger"
	"github.com/stackweaver/stackweaver/internal/pipeline"
	"github.com/stackweaver/stackweaver/internal/plan"
	"github.com/stackweaver/stackweaver/internal/restore"
	"github.com/stackweaver/stackweaver/internal/review"
	"github.com/stackweaver/stackweaver/internal/telemetry"
	"github.com/stackweaver/stackweaver/internal/ui"
)

var runCmd = &cobra.Command{
	Use:   "run <concept.toml>",
	Short: "Build an application from a concept file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().Bool("resume", false, "resume a previous build from persisted phase state")
	runCmd.Flags().Bool("watch", false, "watch the concept file and flag mid-build edits")
	runCmd.Flags().Float64("max-budget", 0, "override max budget in USD")
	runCmd.Flags().String("model", "", "override generator model")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	printer := ui.New()
	applyFlagOverrides(cmd, &cfg)

	concept, err := plan.LoadConcept(args[0])
	if err != nil {
		return err
	}

	p := plan.BuildPlan(concept, plan.Budgets{
		MaxTokensPerPhase:   cfg.MaxTokensPerPhase,
		MaxFeaturesPerPhase: cfg.MaxFeaturesPerPhase,
	})

	printer.Banner()
	printer.Plan(p)

	gen := &generate.CLIGenerator{
		Path:         cfg.GeneratorPath,
		Model:        cfg.Model,
		MaxBudgetUSD: cfg.MaxBudgetUSD,
		WorkDir:      cfg.WorkDir,
		Verbose:      cfg.Verbose,
	}
	if err := gen.Validate(); err != nil {
		return fmt.Errorf("generator unavailable: %w", err)
	}

	restoreSvc := restore.NewService(cfg.MaxRestorePoints)
	restorePath := filepath.Join(cfg.WorkDir, cfg.RestoreFile)
	if err := restoreSvc.Load(restorePath); err != nil {
		printer.Info(fmt.Sprintf("restore points unavailable: %v", err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts := []pipeline.Option{
		pipeline.WithRestoreService(restoreSvc),
		pipeline.WithEvents(printerEvents(printer)),
	}

	store, err := ledger.Open(ctx, filepath.Join(cfg.WorkDir, cfg.LedgerFile))
	if err != nil {
		printer.Info(fmt.Sprintf("ledger unavailable: %v", err))
	} else {
		defer store.Close()
		opts = append(opts, pipeline.WithLedger(store))
	}

	if cfg.TelemetryFile != "" {
		emitter, err := telemetry.NewEmitter(filepath.Join(cfg.WorkDir, cfg.TelemetryFile))
		if err != nil {
			printer.Info(fmt.Sprintf("telemetry unavailable: %v", err))
		} else {
			defer emitter.Close()
			opts = append(opts, pipeline.WithTelemetry(emitter))
		}
	}

	orch, err := pipeline.New(p, gen, review.NewStaticReviewer(), opts...)
	if err != nil {
		return err
	}

	runner := &pipeline.Runner{
		Orch:   orch,
		Dir:    cfg.WorkDir,
		Logger: os.Stderr,
	}
	if resume, _ := cmd.Flags().GetBool("resume"); resume {
		runner.Resume = true
	}
	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		w, err := pipeline.NewWatcher(args[0])
		if err != nil {
			printer.Info(fmt.Sprintf("concept watcher unavailable: %v", err))
		} else if err := w.Start(); err != nil {
			printer.Info(fmt.Sprintf("concept watcher unavailable: %v", err))
		} else {
			defer w.Stop()
			runner.Watcher = w
		}
	}

	summary, err := runner.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		printer.Error(err.Error())
	}

	if err := restoreSvc.Save(restorePath); err != nil {
		printer.Info(fmt.Sprintf("saving restore points: %v", err))
	}

	if summary != nil {
		printer.BuildSummary(*summary)
		if final, ok := orch.Reports().Final(); ok {
			printer.Report("final", final)
		}
	}
	return nil
}

// applyFlagOverrides applies CLI flag values to the loaded config.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if v, _ := cmd.Flags().GetFloat64("max-budget"); v > 0 {
		cfg.MaxBudgetUSD = v
	}
	if v, _ := cmd.Flags().GetString("model"); v != "" {
		cfg.Model = v
	}
	if v, _ := rootCmd.PersistentFlags().GetBool("verbose"); v {
		cfg.Verbose = true
	}
}

// printerEvents adapts the ANSI printer to orchestrator callbacks.
func printerEvents(printer *ui.Printer) pipeline.Events {
	return pipeline.Events{
		PhaseStart: func(evt pipeline.ProgressEvent) {
			printer.Info(fmt.Sprintf("phase %d starting: %s", evt.Phase, evt.PhaseName))
		},
		PhaseComplete: func(evt pipeline.ProgressEvent) {
			printer.Info(fmt.Sprintf("phase %d: %s", evt.Phase, evt.Message))
		},
		BuildComplete: func(pr pipeline.Progress) {
			printer.Progress(pr)
			printer.ProgressDone()
		},
		Error: func(phase int, err error) {
			printer.Error(fmt.Sprintf("phase %d: %v", phase, err))
		},
	}
}
