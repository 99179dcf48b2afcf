package capture

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"

	"github.com/gabrielmr/notaflow/internal/model"
)

// ManualSource is the attended-capture DocumentSource: the row list comes
// from a CSV manifest exported from the portal, and "triggering" means
// telling the operator which row's PDF button to click in the browser. The
// watcher then picks up whatever lands in staging.
type ManualSource struct {
	rows []model.RowData
}

// NewManualSource wraps an already-loaded row list.
func NewManualSource(rows []model.RowData) *ManualSource {
	return &ManualSource{rows: rows}
}

// LoadManifest reads a CSV manifest into row data, one row per line, cells in
// portal column order. Lines may have varying cell counts.
func LoadManifest(path string) (*ManualSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	rows := make([]model.RowData, 0, len(records))
	for i, record := range records {
		rows = append(rows, model.RowData{Index: i, Cells: record})
	}
	return &ManualSource{rows: rows}, nil
}

// Rows implements DocumentSource.
func (s *ManualSource) Rows(_ context.Context) ([]model.RowData, error) {
	out := make([]model.RowData, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

// TriggerDownload implements DocumentSource. Fire-and-forget: the operator
// performs the actual click, so this only announces the row.
func (s *ManualSource) TriggerDownload(_ context.Context, rowIndex int) error {
	if rowIndex < 0 || rowIndex >= len(s.rows) {
		return fmt.Errorf("row %d out of range (%d rows)", rowIndex, len(s.rows))
	}
	slog.Info("Trigger the PDF download for this row now",
		"row", rowIndex,
		"store", s.rows[rowIndex].Store())
	return nil
}
