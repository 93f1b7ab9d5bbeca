package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/stackweaver/stackweaver/internal/config"
	"github.com/stackweaver/stackweaver/internal/restore"
	"github.com/stackweaver/stackweaver/internal/ui"
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Inspect and roll back to saved restore points",
}

var restoreListCmd = &cobra.Command{
	Use:   "list",
	Short: "List restore points, newest first",
	RunE:  runRestoreList,
}

var restoreRollbackCmd = &cobra.Command{
	Use:   "rollback <point-id>",
	Short: "Write a restore point's files back to the working directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runRestoreRollback,
}

func init() {
	restoreRollbackCmd.Flags().String("file", "", "roll back a single file instead of the whole point")

	restoreCmd.AddCommand(restoreListCmd)
	restoreCmd.AddCommand(restoreRollbackCmd)
	rootCmd.AddCommand(restoreCmd)
}

func loadRestoreService(cfg config.Config) (*restore.Service, string, error) {
	svc := restore.NewService(cfg.MaxRestorePoints)
	path := filepath.Join(cfg.WorkDir, cfg.RestoreFile)
	if err := svc.Load(path); err != nil {
		return nil, "", fmt.Errorf("loading restore points: %w", err)
	}
	return svc, path, nil
}

func runRestoreList(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	printer := ui.New()

	svc, _, err := loadRestoreService(cfg)
	if err != nil {
		return err
	}

	rows := make([]ui.RestorePointRow, 0, svc.Len())
	for _, d := range svc.List() {
		rows = append(rows, ui.RestorePointRow{
			ID:        d.ID,
			Label:     d.Label,
			Timestamp: d.Timestamp.Format("2006-01-02 15:04:05"),
			FileCount: d.FileCount,
		})
	}
	printer.RestorePoints(rows)
	return nil
}

func runRestoreRollback(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	printer := ui.New()

	svc, _, err := loadRestoreService(cfg)
	if err != nil {
		return err
	}

	id := args[0]
	if single, _ := cmd.Flags().GetString("file"); single != "" {
		content, err := svc.RollbackFile(id, single)
		if err != nil {
			return err
		}
		if err := writeRestoredFile(cfg.WorkDir, single, content); err != nil {
			return err
		}
		printer.Info(fmt.Sprintf("restored %s from %s", single, id))
		return nil
	}

	files, err := svc.RollbackTo(id)
	if err != nil {
		return err
	}
	for path, content := range files {
		if err := writeRestoredFile(cfg.WorkDir, path, content); err != nil {
			return err
		}
	}
	printer.Info(fmt.Sprintf("restored %d file(s) from %s", len(files), id))
	return nil
}

func writeRestoredFile(dir, path, content string) error {
	full := filepath.Join(dir, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, []byte(content), 0o644)
}
