package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabrielmr/notaflow/internal/common"
)

func fastConfig(dir string) Config {
	return Config{
		StagingDir:     dir,
		Timeout:        2 * time.Second,
		PollInterval:   20 * time.Millisecond,
		SettleInterval: 20 * time.Millisecond,
	}
}

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o600))
}

func TestAwaitFindsStableFile(t *testing.T) {
	dir := t.TempDir()
	w := New(fastConfig(dir))

	exclude, err := w.Snapshot()
	require.NoError(t, err)
	require.Empty(t, exclude)

	writeFile(t, filepath.Join(dir, "report.pdf"), 1000)

	staged, err := w.Await(context.Background(), exclude)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", staged.Name())
	assert.Equal(t, int64(1000), staged.Size)
	assert.False(t, staged.FoundAt.IsZero())
}

func TestAwaitIgnoresPreExistingFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "old.pdf"), 500)

	w := New(fastConfig(dir))
	exclude, err := w.Snapshot()
	require.NoError(t, err)
	require.Contains(t, exclude, "old.pdf")

	writeFile(t, filepath.Join(dir, "new.pdf"), 800)

	staged, err := w.Await(context.Background(), exclude)
	require.NoError(t, err)
	assert.Equal(t, "new.pdf", staged.Name())
}

func TestAwaitRejectsPartialAndForeignFiles(t *testing.T) {
	dir := t.TempDir()
	w := New(fastConfig(dir))
	exclude, err := w.Snapshot()
	require.NoError(t, err)

	writeFile(t, filepath.Join(dir, "report.pdf.crdownload"), 1000)
	writeFile(t, filepath.Join(dir, "notes.txt"), 1000)

	_, err = w.Await(context.Background(), exclude)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDownloadTimeout)
}

func TestAwaitTimesOutOnEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	cfg := fastConfig(dir)
	cfg.Timeout = 100 * time.Millisecond
	w := New(cfg)

	start := time.Now()
	_, err := w.Await(context.Background(), map[string]struct{}{})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDownloadTimeout)
	assert.Less(t, time.Since(start), cfg.Timeout+time.Second)
}

func TestAwaitWaitsForGrowingFile(t *testing.T) {
	dir := t.TempDir()
	cfg := fastConfig(dir)
	cfg.SettleInterval = 60 * time.Millisecond
	w := New(cfg)

	path := filepath.Join(dir, "growing.pdf")
	writeFile(t, path, 100)

	// Keep appending for a while, then stop; the watcher must only return
	// once two consecutive size reads agree.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			time.Sleep(30 * time.Millisecond)
			f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
			if err != nil {
				return
			}
			_, _ = f.Write(make([]byte, 100))
			_ = f.Close()
		}
	}()

	staged, err := w.Await(context.Background(), map[string]struct{}{})
	<-done
	require.NoError(t, err)

	final, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, final.Size(), staged.Size)
}

func TestAwaitSkipsZeroByteFile(t *testing.T) {
	dir := t.TempDir()
	cfg := fastConfig(dir)
	cfg.Timeout = 150 * time.Millisecond
	w := New(cfg)

	writeFile(t, filepath.Join(dir, "empty.pdf"), 0)

	_, err := w.Await(context.Background(), map[string]struct{}{})
	assert.ErrorIs(t, err, common.ErrDownloadTimeout)
}

func TestAwaitTimeoutBoundsSettleWaits(t *testing.T) {
	dir := t.TempDir()
	cfg := fastConfig(dir)
	cfg.Timeout = 100 * time.Millisecond
	cfg.SettleInterval = 80 * time.Millisecond
	w := New(cfg)

	// Several candidates that never stabilize: each costs a settle wait per
	// round, which must not stack up past the deadline.
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf", "e.pdf"} {
		writeFile(t, filepath.Join(dir, name), 0)
	}

	start := time.Now()
	_, err := w.Await(context.Background(), map[string]struct{}{})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDownloadTimeout)
	assert.Less(t, time.Since(start), cfg.Timeout+cfg.SettleInterval+100*time.Millisecond)
}

func TestAwaitStagingDirectoryGone(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "staging")
	require.NoError(t, os.Mkdir(sub, 0o750))

	w := New(fastConfig(sub))
	require.NoError(t, os.RemoveAll(sub))

	_, err := w.Snapshot()
	assert.ErrorIs(t, err, common.ErrStagingUnavailable)

	_, err = w.Await(context.Background(), map[string]struct{}{})
	assert.ErrorIs(t, err, common.ErrStagingUnavailable)
}

func TestAwaitHonorsContextCancellation(t *testing.T) {
	dir := t.TempDir()
	cfg := fastConfig(dir)
	cfg.Timeout = 10 * time.Second
	w := New(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := w.Await(ctx, map[string]struct{}{})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDownloadTimeout)
	assert.True(t, errors.Is(err, common.ErrDownloadTimeout))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNewAppliesDefaults(t *testing.T) {
	w := New(Config{StagingDir: "/tmp/x"})
	def := DefaultConfig()

	assert.Equal(t, def.Timeout, w.cfg.Timeout)
	assert.Equal(t, def.PollInterval, w.cfg.PollInterval)
	assert.Equal(t, def.SettleInterval, w.cfg.SettleInterval)
	assert.Equal(t, def.PartialSuffixes, w.cfg.PartialSuffixes)
	assert.Equal(t, def.Extensions, w.cfg.Extensions)
}
