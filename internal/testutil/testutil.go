// Package testutil provides shared helpers for capture pipeline tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gabrielmr/notaflow/internal/storage"
)

// SetupTestDB creates an in-memory run log with migrations applied and
// cleanup registered.
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	s, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { _ = s.Close() })
	return s
}

// StagingDir creates a temp staging directory plus a helper that drops a
// file into it, simulating the browser finishing a download.
func StagingDir(t *testing.T) (string, func(name string, content []byte)) {
	t.Helper()

	dir := t.TempDir()
	drop := func(name string, content []byte) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), content, 0o600); err != nil {
			t.Fatalf("failed to stage %s: %v", name, err)
		}
	}
	return dir, drop
}
