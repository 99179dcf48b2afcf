package model

import "time"

// OutcomeStatus indicates how processing one row ended.
type OutcomeStatus string

// Outcome status constants.
const (
	// StatusTriggerFailed means the download trigger never fired; no file
	// was expected in staging.
	StatusTriggerFailed OutcomeStatus = "TRIGGER_FAILED"
	// StatusDownloadTimedOut means no new stable file landed in staging
	// before the watcher's deadline.
	StatusDownloadTimedOut OutcomeStatus = "DOWNLOAD_TIMED_OUT"
	// StatusExtractFailed means the file landed but its text could not be
	// read; the file was still moved to the general bucket.
	StatusExtractFailed OutcomeStatus = "EXTRACT_FAILED"
	// StatusClassified means a rule matched and the file was relocated
	// under its category.
	StatusClassified OutcomeStatus = "CLASSIFIED"
	// StatusUnclassifiedMoved means no rule matched and the file was moved
	// to the general bucket unchanged.
	StatusUnclassifiedMoved OutcomeStatus = "UNCLASSIFIED_MOVED"
)

// Succeeded reports whether the row's document ended up classified.
func (s OutcomeStatus) Succeeded() bool {
	return s == StatusClassified
}

// FileRetained reports whether a file exists somewhere under the destination
// root for this status.
func (s OutcomeStatus) FileRetained() bool {
	switch s {
	case StatusClassified, StatusUnclassifiedMoved, StatusExtractFailed:
		return true
	case StatusTriggerFailed, StatusDownloadTimedOut:
		return false
	}
	return false
}

// DownloadOutcome records the result of processing one results-table row.
// Created once per row, never mutated afterwards.
type DownloadOutcome struct {
	CompletedAt time.Time
	Status      OutcomeStatus
	Category    string
	FinalPath   string
	Err         string
	Row         RowData
}
