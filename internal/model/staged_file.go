package model

import (
	"path/filepath"
	"time"
)

// StagedFile is a completed download discovered in the staging directory.
// It is transient: the watcher owns it until the text extractor has run,
// after which the organizer relocates it out of staging.
type StagedFile struct {
	FoundAt time.Time
	Path    string
	Size    int64
}

// Name returns the base name of the staged file.
func (f StagedFile) Name() string {
	return filepath.Base(f.Path)
}
