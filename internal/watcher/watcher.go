// Package watcher detects completed downloads landing in a staging directory.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gabrielmr/notaflow/internal/common"
	"github.com/gabrielmr/notaflow/internal/model"
)

// Config holds the watcher's tuning knobs.
type Config struct {
	StagingDir      string
	PartialSuffixes []string
	Extensions      []string
	Timeout         time.Duration
	PollInterval    time.Duration
	SettleInterval  time.Duration
}

// DefaultConfig returns the default watcher configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:         30 * time.Second,
		PollInterval:    time.Second,
		SettleInterval:  1500 * time.Millisecond,
		PartialSuffixes: []string{".crdownload", ".partial", ".tmp"},
		Extensions:      []string{".pdf"},
	}
}

// Watcher polls a staging directory for a newly completed download. It only
// ever reads names and sizes; file content is someone else's business.
type Watcher struct {
	cfg Config
}

// New creates a watcher, filling zero config fields with defaults.
func New(cfg Config) *Watcher {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.SettleInterval <= 0 {
		cfg.SettleInterval = def.SettleInterval
	}
	if len(cfg.PartialSuffixes) == 0 {
		cfg.PartialSuffixes = def.PartialSuffixes
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = def.Extensions
	}
	return &Watcher{cfg: cfg}
}

// Snapshot lists the staging directory's current entries. Callers take one
// before triggering a download and pass it to Await so pre-existing files are
// never mistaken for the new download.
func (w *Watcher) Snapshot() (map[string]struct{}, error) {
	entries, err := os.ReadDir(w.cfg.StagingDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStagingUnavailable, err)
	}
	names := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		names[e.Name()] = struct{}{}
	}
	return names, nil
}

// Await blocks until a new stable file appears in the staging directory or
// the configured timeout elapses. A timeout is a normal outcome for one row,
// reported as common.ErrDownloadTimeout; a listing failure is reported as
// common.ErrStagingUnavailable and should abort the whole run.
//
// Stability is decided by two size reads separated by the settle interval:
// a single read can catch the writer mid-flush. A candidate whose size is
// still moving stays eligible and is re-examined on the next poll.
func (w *Watcher) Await(ctx context.Context, exclude map[string]struct{}) (model.StagedFile, error) {
	deadline := time.Now().Add(w.cfg.Timeout)

	// The deadline bounds the settle sleeps too, not just the poll gaps:
	// several never-stabilizing candidates would otherwise stretch a round
	// past the timeout by one settle interval each.
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	for {
		candidates, err := w.listCandidates(exclude)
		if err != nil {
			return model.StagedFile{}, err
		}

		for _, name := range candidates {
			staged, ok, err := w.checkStable(ctx, name)
			if err != nil {
				return model.StagedFile{}, err
			}
			if ok {
				return staged, nil
			}
		}

		if time.Now().After(deadline) {
			return model.StagedFile{}, fmt.Errorf("%w: no stable file in %s after %s",
				common.ErrDownloadTimeout, w.cfg.StagingDir, w.cfg.Timeout)
		}

		select {
		case <-ctx.Done():
			return model.StagedFile{}, fmt.Errorf("%w: %v", common.ErrDownloadTimeout, ctx.Err())
		case <-time.After(w.cfg.PollInterval):
		}
	}
}

// listCandidates diffs the directory against the pre-trigger snapshot and
// filters out partial downloads and unexpected file types.
func (w *Watcher) listCandidates(exclude map[string]struct{}) ([]string, error) {
	entries, err := os.ReadDir(w.cfg.StagingDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStagingUnavailable, err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if _, existed := exclude[name]; existed {
			continue
		}
		if e.IsDir() || w.isPartial(name) || !w.hasWantedExtension(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// checkStable reads the candidate's size twice across the settle interval.
// A candidate that vanishes between reads (the browser renaming its partial
// file, for instance) is skipped, not fatal.
func (w *Watcher) checkStable(ctx context.Context, name string) (model.StagedFile, bool, error) {
	path := filepath.Join(w.cfg.StagingDir, name)

	first, err := os.Stat(path)
	if err != nil {
		return model.StagedFile{}, false, nil
	}

	select {
	case <-ctx.Done():
		return model.StagedFile{}, false, fmt.Errorf("%w: %v", common.ErrDownloadTimeout, ctx.Err())
	case <-time.After(w.cfg.SettleInterval):
	}

	second, err := os.Stat(path)
	if err != nil {
		return model.StagedFile{}, false, nil
	}

	if first.Size() != second.Size() || second.Size() == 0 {
		return model.StagedFile{}, false, nil
	}

	return model.StagedFile{
		Path:    path,
		Size:    second.Size(),
		FoundAt: time.Now(),
	}, true, nil
}

func (w *Watcher) isPartial(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range w.cfg.PartialSuffixes {
		if strings.HasSuffix(lower, strings.ToLower(suffix)) {
			return true
		}
	}
	return false
}

func (w *Watcher) hasWantedExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range w.cfg.Extensions {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}
