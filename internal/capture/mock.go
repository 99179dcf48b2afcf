package capture

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/gabrielmr/notaflow/internal/common"
	"github.com/gabrielmr/notaflow/internal/model"
)

// MockSource is a scripted DocumentSource for tests. TriggerFunc stands in
// for the browser: it usually writes a file into the staging directory.
type MockSource struct {
	TriggerFunc func(ctx context.Context, rowIndex int) error
	rows        []model.RowData
	calls       []int
	mu          sync.Mutex
}

// NewMockSource creates a source that serves the given rows.
func NewMockSource(rows []model.RowData) *MockSource {
	return &MockSource{rows: rows}
}

// Rows implements DocumentSource.
func (m *MockSource) Rows(_ context.Context) ([]model.RowData, error) {
	out := make([]model.RowData, len(m.rows))
	copy(out, m.rows)
	return out, nil
}

// TriggerDownload implements DocumentSource.
func (m *MockSource) TriggerDownload(ctx context.Context, rowIndex int) error {
	m.mu.Lock()
	m.calls = append(m.calls, rowIndex)
	m.mu.Unlock()

	if m.TriggerFunc == nil {
		return nil
	}
	return m.TriggerFunc(ctx, rowIndex)
}

// TriggerCalls returns the row indices triggered so far.
func (m *MockSource) TriggerCalls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, len(m.calls))
	copy(out, m.calls)
	return out
}

// MockExtractor is a canned TextExtractor keyed by file base name.
type MockExtractor struct {
	TextFor map[string]string
	ErrFor  map[string]error
	calls   []string
	mu      sync.Mutex
}

// NewMockExtractor creates an extractor serving the given texts.
func NewMockExtractor(textFor map[string]string) *MockExtractor {
	return &MockExtractor{TextFor: textFor}
}

// ExtractText implements TextExtractor.
func (m *MockExtractor) ExtractText(_ context.Context, path string) (string, error) {
	name := filepath.Base(path)

	m.mu.Lock()
	m.calls = append(m.calls, name)
	m.mu.Unlock()

	if err, ok := m.ErrFor[name]; ok {
		return "", err
	}
	if text, ok := m.TextFor[name]; ok {
		return text, nil
	}
	return "", fmt.Errorf("%w: no canned text for %s", common.ErrExtractFailed, name)
}

// Calls returns the base names extracted so far.
func (m *MockExtractor) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}
