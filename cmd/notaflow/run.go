package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gabrielmr/notaflow/internal/capture"
	"github.com/gabrielmr/notaflow/internal/common"
	"github.com/gabrielmr/notaflow/internal/config"
	"github.com/gabrielmr/notaflow/internal/extract"
	"github.com/gabrielmr/notaflow/internal/organizer"
	"github.com/gabrielmr/notaflow/internal/report"
	"github.com/gabrielmr/notaflow/internal/rules"
	"github.com/gabrielmr/notaflow/internal/storage"
	"github.com/gabrielmr/notaflow/internal/watcher"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Capture, classify and file the downloads for a batch of rows",
		Long: `Process a batch of portal rows: for each row in the manifest, wait for its
PDF to land in the staging directory, extract its text, classify it against
the rule taxonomy and move it into the destination tree.

Rows come from a CSV manifest exported from the portal's results table; the
downloads themselves are triggered in the browser.`,
		RunE: runCapture,
	}

	cmd.Flags().String("staging-dir", "", "directory the browser downloads into")
	cmd.Flags().String("dest-root", "", "root of the organized output tree")
	cmd.Flags().String("rules", "", "rule taxonomy file (default: $HOME/.config/notaflow/rules.yaml)")
	cmd.Flags().StringP("manifest", "m", "", "CSV manifest with one line per portal row")
	cmd.Flags().Duration("timeout", 30*time.Second, "per-row download deadline")
	cmd.Flags().Duration("poll-interval", time.Second, "staging directory poll interval")
	cmd.Flags().Duration("settle-interval", 1500*time.Millisecond, "delay between the two size-stability reads")
	cmd.Flags().String("db", "", "run log database (default: $HOME/.local/share/notaflow/notaflow.db)")
	cmd.Flags().Bool("no-date", false, "do not append today's date to the destination root")
	cmd.Flags().Bool("no-progress", false, "disable the row progress bar")

	_ = viper.BindPFlag("capture.staging_dir", cmd.Flags().Lookup("staging-dir"))
	_ = viper.BindPFlag("capture.dest_root", cmd.Flags().Lookup("dest-root"))
	_ = viper.BindPFlag("capture.rules_file", cmd.Flags().Lookup("rules"))
	_ = viper.BindPFlag("capture.manifest", cmd.Flags().Lookup("manifest"))
	_ = viper.BindPFlag("capture.timeout", cmd.Flags().Lookup("timeout"))
	_ = viper.BindPFlag("capture.poll_interval", cmd.Flags().Lookup("poll-interval"))
	_ = viper.BindPFlag("capture.settle_interval", cmd.Flags().Lookup("settle-interval"))
	_ = viper.BindPFlag("capture.db", cmd.Flags().Lookup("db"))
	_ = viper.BindPFlag("capture.no_date", cmd.Flags().Lookup("no-date"))
	_ = viper.BindPFlag("capture.no_progress", cmd.Flags().Lookup("no-progress"))

	return cmd
}

func runCapture(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	stagingDir := config.ExpandPath(viper.GetString("capture.staging_dir"))
	if stagingDir == "" {
		return common.NewUserError("staging directory is required (--staging-dir)", common.ErrMissingConfig)
	}
	destBase := config.ExpandPath(viper.GetString("capture.dest_root"))
	if destBase == "" {
		return common.NewUserError("destination root is required (--dest-root)", common.ErrMissingConfig)
	}
	manifestPath := config.ExpandPath(viper.GetString("capture.manifest"))
	if manifestPath == "" {
		return common.NewUserError("row manifest is required (--manifest)", common.ErrMissingConfig)
	}

	rulesPath := config.ExpandPath(viper.GetString("capture.rules_file"))
	if rulesPath == "" {
		rulesPath = config.DefaultRulesPath()
	}
	ruleSet, err := rules.Load(rulesPath)
	if err != nil {
		return common.NewUserError("could not load classification rules", err)
	}

	source, err := capture.LoadManifest(manifestPath)
	if err != nil {
		return common.NewUserError("could not load row manifest", err)
	}

	destRoot := destBase
	if !viper.GetBool("capture.no_date") {
		destRoot = organizer.DatedRoot(destBase, time.Now())
	}

	if err := os.MkdirAll(stagingDir, 0o750); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	if err := os.MkdirAll(destRoot, 0o750); err != nil {
		return fmt.Errorf("failed to create destination root: %w", err)
	}

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

	watcherCfg := watcher.DefaultConfig()
	watcherCfg.StagingDir = stagingDir
	watcherCfg.Timeout = viper.GetDuration("capture.timeout")
	watcherCfg.PollInterval = viper.GetDuration("capture.poll_interval")
	watcherCfg.SettleInterval = viper.GetDuration("capture.settle_interval")
	if suffixes := viper.GetStringSlice("capture.partial_suffixes"); len(suffixes) > 0 {
		watcherCfg.PartialSuffixes = suffixes
	}
	if exts := viper.GetStringSlice("capture.extensions"); len(exts) > 0 {
		watcherCfg.Extensions = exts
	}

	orch := capture.New(capture.Config{
		Watcher:      watcherCfg,
		DestRoot:     destRoot,
		Rules:        ruleSet,
		ShowProgress: !viper.GetBool("capture.no_progress"),
	}, source, extract.NewPDFExtractor(), store)

	outcomes, runErr := orch.Run(ctx)

	// The rows processed before an abort still deserve a report.
	if len(outcomes) > 0 {
		if err := report.Render(cmd.OutOrStdout(), nil, outcomes); err != nil {
			return fmt.Errorf("failed to render report: %w", err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("capture run aborted: %w", runErr)
	}
	return nil
}
