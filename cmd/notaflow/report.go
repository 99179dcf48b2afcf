package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gabrielmr/notaflow/internal/config"
	"github.com/gabrielmr/notaflow/internal/model"
	"github.com/gabrielmr/notaflow/internal/report"
	"github.com/gabrielmr/notaflow/internal/storage"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Re-render the outcome table of a past run",
		RunE:  runReport,
	}

	cmd.Flags().Int64("run", 0, "run ID to report on (default: most recent run)")
	cmd.Flags().String("db", "", "run log database (default: $HOME/.local/share/notaflow/notaflow.db)")
	_ = viper.BindPFlag("capture.db", cmd.Flags().Lookup("db"))

	return cmd
}

func runReport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	dbPath := config.ExpandPath(viper.GetString("capture.db"))
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open run log: %w", err)
	}
	defer func() { _ = store.Close() }()
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate run log: %w", err)
	}

	runID, _ := cmd.Flags().GetInt64("run")
	var run *model.Run
	if runID == 0 {
		run, err = store.LatestRun(ctx)
	} else {
		run, err = store.GetRun(ctx, runID)
	}
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}

	outcomes, err := store.GetOutcomes(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("failed to load outcomes: %w", err)
	}

	return report.Render(cmd.OutOrStdout(), run, outcomes)
}
