package model

import "time"

// Run identifies one capture session: a pass over the portal's results table
// that produced a sequence of DownloadOutcome records.
type Run struct {
	StartedAt   time.Time
	CompletedAt *time.Time
	StagingDir  string
	DestRoot    string
	ID          int64
	Processed   int
}
