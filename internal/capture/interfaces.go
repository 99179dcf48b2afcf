// Package capture orchestrates the per-row download pipeline: trigger, watch,
// extract, classify, relocate.
package capture

import (
	"context"

	"github.com/gabrielmr/notaflow/internal/model"
)

// DocumentSource is the external collaborator driving the portal. It is the
// only entity allowed to write into the staging directory.
type DocumentSource interface {
	// Rows returns the table rows to process, in portal order.
	Rows(ctx context.Context) ([]model.RowData, error)
	// TriggerDownload fires the download for one row. Fire-and-forget:
	// the file lands (or doesn't) in the staging directory later.
	TriggerDownload(ctx context.Context, rowIndex int) error
}

// TextExtractor turns a downloaded file into raw text.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// RunLog persists the per-row outcomes of a capture session.
type RunLog interface {
	CreateRun(ctx context.Context, run *model.Run) (int64, error)
	CompleteRun(ctx context.Context, runID int64, processed int) error
	SaveOutcome(ctx context.Context, runID int64, outcome *model.DownloadOutcome) error
}
