package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gabrielmr/notaflow/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrNilParameter   = errors.New("parameter cannot be nil")
	ErrInvalidOutcome = errors.New("invalid outcome")
	ErrInvalidRun     = errors.New("invalid run")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRun validates a run before persisting it.
func validateRun(run *model.Run) error {
	if run == nil {
		return fmt.Errorf("%w: run", ErrNilParameter)
	}
	if run.StartedAt.IsZero() {
		return fmt.Errorf("%w: started_at is zero", ErrInvalidRun)
	}
	if run.StagingDir == "" {
		return fmt.Errorf("%w: staging_dir is empty", ErrInvalidRun)
	}
	if run.DestRoot == "" {
		return fmt.Errorf("%w: dest_root is empty", ErrInvalidRun)
	}
	return nil
}

// validateOutcome validates an outcome before persisting it.
func validateOutcome(outcome *model.DownloadOutcome) error {
	if outcome == nil {
		return fmt.Errorf("%w: outcome", ErrNilParameter)
	}
	switch outcome.Status {
	case model.StatusTriggerFailed,
		model.StatusDownloadTimedOut,
		model.StatusExtractFailed,
		model.StatusClassified,
		model.StatusUnclassifiedMoved:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidOutcome, outcome.Status)
	}
	if outcome.Status == model.StatusClassified && outcome.Category == "" {
		return fmt.Errorf("%w: classified outcome without category", ErrInvalidOutcome)
	}
	return nil
}
