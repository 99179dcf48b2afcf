package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gabrielmr/notaflow/internal/common"
	"github.com/gabrielmr/notaflow/internal/model"
)

// CreateRun records the start of a capture session and returns its id.
func (s *SQLiteStorage) CreateRun(ctx context.Context, run *model.Run) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateRun(run); err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (started_at, staging_dir, dest_root, processed)
		VALUES (?, ?, ?, 0)
	`, run.StartedAt, run.StagingDir, run.DestRoot)
	if err != nil {
		return 0, fmt.Errorf("failed to create run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}
	run.ID = id
	return id, nil
}

// CompleteRun marks a run finished with its final processed count.
func (s *SQLiteStorage) CompleteRun(ctx context.Context, runID int64, processed int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET completed_at = ?, processed = ? WHERE id = ?
	`, time.Now(), processed, runID)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check run update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run %d: %w", runID, common.ErrNotFound)
	}
	return nil
}

// GetRun loads one run by id.
func (s *SQLiteStorage) GetRun(ctx context.Context, runID int64) (*model.Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	run := &model.Run{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, completed_at, staging_dir, dest_root, processed
		FROM runs WHERE id = ?
	`, runID).Scan(&run.ID, &run.StartedAt, &run.CompletedAt, &run.StagingDir, &run.DestRoot, &run.Processed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d: %w", runID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// LatestRun loads the most recently started run.
func (s *SQLiteStorage) LatestRun(ctx context.Context) (*model.Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	run := &model.Run{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, completed_at, staging_dir, dest_root, processed
		FROM runs ORDER BY started_at DESC, id DESC LIMIT 1
	`).Scan(&run.ID, &run.StartedAt, &run.CompletedAt, &run.StagingDir, &run.DestRoot, &run.Processed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no runs recorded: %w", common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return run, nil
}

// SaveOutcome appends one row outcome to a run.
func (s *SQLiteStorage) SaveOutcome(ctx context.Context, runID int64, outcome *model.DownloadOutcome) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateOutcome(outcome); err != nil {
		return err
	}

	completedAt := outcome.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now()
	}

	cells, err := json.Marshal(outcome.Row.Cells)
	if err != nil {
		return fmt.Errorf("failed to encode row cells: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO outcomes (run_id, row_index, row_cells, status, category, final_path, error, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, outcome.Row.Index, string(cells), string(outcome.Status),
		outcome.Category, outcome.FinalPath, outcome.Err, completedAt)
	if err != nil {
		return fmt.Errorf("failed to save outcome: %w", err)
	}
	return nil
}

// GetOutcomes loads a run's outcomes in row order.
func (s *SQLiteStorage) GetOutcomes(ctx context.Context, runID int64) ([]model.DownloadOutcome, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT row_index, row_cells, status, category, final_path, error, completed_at
		FROM outcomes WHERE run_id = ? ORDER BY row_index, id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var outcomes []model.DownloadOutcome
	for rows.Next() {
		var (
			out      model.DownloadOutcome
			cellsRaw string
			status   string
		)
		if err := rows.Scan(&out.Row.Index, &cellsRaw, &status, &out.Category,
			&out.FinalPath, &out.Err, &out.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		out.Status = model.OutcomeStatus(status)
		if cellsRaw != "" {
			if err := json.Unmarshal([]byte(cellsRaw), &out.Row.Cells); err != nil {
				return nil, fmt.Errorf("failed to decode row cells: %w", err)
			}
		}
		outcomes = append(outcomes, out)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outcomes: %w", err)
	}
	return outcomes, nil
}
