package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/gabrielmr/notaflow/internal/common"
	"github.com/gabrielmr/notaflow/internal/model"
	"github.com/gabrielmr/notaflow/internal/organizer"
	"github.com/gabrielmr/notaflow/internal/rules"
	"github.com/gabrielmr/notaflow/internal/watcher"
)

// Config holds configuration options for the capture orchestrator.
type Config struct {
	Watcher      watcher.Config
	DestRoot     string
	Rules        rules.Set
	Retry        common.RetryOptions
	ShowProgress bool
}

// DefaultRetry returns the retry options used for download triggers. The
// portal's PDF button misses clicks now and then; one quick re-attempt
// recovers most of those.
func DefaultRetry() common.RetryOptions {
	return common.RetryOptions{
		MaxAttempts:  2,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     2 * time.Second,
	}
}

// Orchestrator walks every table row through the capture state machine:
// trigger, watch, extract, classify, relocate. Rows are strictly sequential:
// a second in-flight download would make the staging directory's
// before-snapshot ambiguous.
type Orchestrator struct {
	source    DocumentSource
	extractor TextExtractor
	runLog    RunLog
	watcher   *watcher.Watcher
	organizer *organizer.Organizer
	matcher   *rules.Matcher
	cfg       Config
}

// New creates an orchestrator. runLog may be nil for callers that only want
// the in-memory outcome slice.
func New(cfg Config, source DocumentSource, extractor TextExtractor, runLog RunLog) *Orchestrator {
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetry()
	}
	return &Orchestrator{
		cfg:       cfg,
		source:    source,
		extractor: extractor,
		runLog:    runLog,
		watcher:   watcher.New(cfg.Watcher),
		organizer: organizer.New(cfg.DestRoot),
		matcher:   rules.NewMatcher(cfg.Rules),
	}
}

// Run processes every row and returns the ordered outcome log. Per-row
// failures are recorded and skipped; only a relocation failure or a staging
// directory access error aborts the run, since either means the filesystem
// contract is broken and later snapshots would be contaminated. The outcomes
// accumulated so far are returned even on abort.
func (o *Orchestrator) Run(ctx context.Context) ([]model.DownloadOutcome, error) {
	rows, err := o.source.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rows: %w", err)
	}

	slog.Info("Starting capture run",
		"rows", len(rows),
		"staging_dir", o.cfg.Watcher.StagingDir,
		"dest_root", o.cfg.DestRoot)

	var runID int64
	if o.runLog != nil {
		runID, err = o.runLog.CreateRun(ctx, &model.Run{
			StartedAt:  time.Now(),
			StagingDir: o.cfg.Watcher.StagingDir,
			DestRoot:   o.cfg.DestRoot,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to record run: %w", err)
		}
	}

	var bar *progressbar.ProgressBar
	if o.cfg.ShowProgress {
		bar = progressbar.NewOptions(len(rows),
			progressbar.OptionSetDescription("processing rows"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	outcomes := make([]model.DownloadOutcome, 0, len(rows))
	for _, row := range rows {
		select {
		case <-ctx.Done():
			o.finish(ctx, runID, len(outcomes))
			return outcomes, ctx.Err()
		default:
		}

		outcome, fatal := o.processRow(ctx, row)
		if fatal != nil {
			o.finish(ctx, runID, len(outcomes))
			return outcomes, fatal
		}

		outcomes = append(outcomes, outcome)
		o.record(ctx, runID, &outcome)

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	o.finish(ctx, runID, len(outcomes))
	slog.Info("Capture run finished", "processed", len(outcomes))
	return outcomes, nil
}

// processRow runs one row through the state machine. The second return is
// non-nil only for run-fatal conditions.
func (o *Orchestrator) processRow(ctx context.Context, row model.RowData) (model.DownloadOutcome, error) {
	outcome := model.DownloadOutcome{Row: row}

	slog.Info("Processing row", "row", row.Index, "store", row.Store())

	// Snapshot before triggering so pre-existing files are never ours.
	exclude, err := o.watcher.Snapshot()
	if err != nil {
		return outcome, fmt.Errorf("row %d: %w", row.Index, err)
	}

	err = common.WithRetry(ctx, func() error {
		return o.source.TriggerDownload(ctx, row.Index)
	}, o.cfg.Retry)
	if err != nil {
		slog.Warn("Download trigger failed", "row", row.Index, "error", err)
		return o.sealed(outcome, model.StatusTriggerFailed, "", "", err), nil
	}

	staged, err := o.watcher.Await(ctx, exclude)
	if err != nil {
		if errors.Is(err, common.ErrStagingUnavailable) {
			return outcome, fmt.Errorf("row %d: %w", row.Index, err)
		}
		slog.Warn("Download did not land", "row", row.Index, "error", err)
		return o.sealed(outcome, model.StatusDownloadTimedOut, "", "", err), nil
	}

	slog.Debug("Download complete", "row", row.Index, "file", staged.Name(), "size", staged.Size)

	text, err := o.extractor.ExtractText(ctx, staged.Path)
	if err != nil {
		// The document is unreadable but must not be lost: it still
		// moves to the general bucket before the row is written off.
		slog.Warn("Text extraction failed", "row", row.Index, "file", staged.Name(), "error", err)
		final, moveErr := o.organizer.RelocateUnclassified(staged.Path)
		if moveErr != nil {
			return outcome, fmt.Errorf("row %d: %w", row.Index, moveErr)
		}
		return o.sealed(outcome, model.StatusExtractFailed, "", final, err), nil
	}

	result := o.matcher.Classify(text)

	final, err := o.organizer.Relocate(staged.Path, result)
	if err != nil {
		// A stuck file in staging would contaminate the next row's
		// snapshot; relocation failures end the run.
		return outcome, fmt.Errorf("row %d: %w", row.Index, err)
	}

	if result.Matched() {
		slog.Info("Document classified",
			"row", row.Index,
			"category", result.Category,
			"subcategory", result.Subcategory,
			"final_path", final)
		return o.sealed(outcome, model.StatusClassified, result.Label(), final, nil), nil
	}

	slog.Info("No rule matched, moved to general bucket", "row", row.Index, "final_path", final)
	return o.sealed(outcome, model.StatusUnclassifiedMoved, "", final, nil), nil
}

// sealed finalizes a row's outcome record.
func (o *Orchestrator) sealed(outcome model.DownloadOutcome, status model.OutcomeStatus, category, finalPath string, err error) model.DownloadOutcome {
	outcome.Status = status
	outcome.Category = category
	outcome.FinalPath = finalPath
	outcome.CompletedAt = time.Now()
	if err != nil {
		outcome.Err = err.Error()
	}
	return outcome
}

func (o *Orchestrator) record(ctx context.Context, runID int64, outcome *model.DownloadOutcome) {
	if o.runLog == nil {
		return
	}
	if err := o.runLog.SaveOutcome(ctx, runID, outcome); err != nil {
		slog.Error("Failed to persist outcome", "row", outcome.Row.Index, "error", err)
	}
}

func (o *Orchestrator) finish(ctx context.Context, runID int64, processed int) {
	if o.runLog == nil {
		return
	}
	// The run record should close even when the run was canceled.
	ctx = context.WithoutCancel(ctx)
	if err := o.runLog.CompleteRun(ctx, runID, processed); err != nil {
		slog.Error("Failed to close run record", "run_id", runID, "error", err)
	}
}
