package capture

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabrielmr/notaflow/internal/common"
	"github.com/gabrielmr/notaflow/internal/model"
	"github.com/gabrielmr/notaflow/internal/rules"
	"github.com/gabrielmr/notaflow/internal/watcher"
)

func testRules() rules.Set {
	return rules.Set{
		{Category: "seguro", Kind: rules.KindSimple, Keyword: "Seguro"},
		{Category: "ecad", Kind: rules.KindSimple, Keyword: "ECAD"},
		{
			Category: "MKT-REG",
			Kind:     rules.KindHierarchical,
			Trigger:  "Mídia Regional",
			Subcategories: []rules.Subcategory{
				{Name: "MKT-REG_1", Keyword: "Gestão Franqueador"},
			},
		},
	}
}

func testConfig(staging, dest string) Config {
	return Config{
		Watcher: watcher.Config{
			StagingDir:     staging,
			Timeout:        time.Second,
			PollInterval:   10 * time.Millisecond,
			SettleInterval: 10 * time.Millisecond,
		},
		DestRoot: dest,
		Rules:    testRules(),
		Retry: common.RetryOptions{
			MaxAttempts:  2,
			InitialDelay: time.Millisecond,
			MaxDelay:     5 * time.Millisecond,
		},
	}
}

func dropFile(t *testing.T, staging, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(staging, name), []byte(content), 0o600))
}

func TestRunClassifiesAndRelocates(t *testing.T) {
	staging := t.TempDir()
	dest := t.TempDir()

	rows := []model.RowData{
		{Index: 0, Cells: []string{"Loja 1"}},
		{Index: 1, Cells: []string{"Loja 2"}},
	}
	files := map[int]string{0: "nota_a.pdf", 1: "nota_b.pdf"}

	source := NewMockSource(rows)
	source.TriggerFunc = func(_ context.Context, rowIndex int) error {
		dropFile(t, staging, files[rowIndex], "pdf bytes")
		return nil
	}

	extractor := NewMockExtractor(map[string]string{
		"nota_a.pdf": "Apólice de Seguro vigente",
		"nota_b.pdf": "Verba de Gestão Franqueador",
	})

	o := New(testConfig(staging, dest), source, extractor, nil)
	outcomes, err := o.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	assert.Equal(t, model.StatusClassified, outcomes[0].Status)
	assert.Equal(t, "seguro", outcomes[0].Category)
	assert.Equal(t, filepath.Join(dest, "seguro", "nota_a_seguro.pdf"), outcomes[0].FinalPath)
	assert.FileExists(t, outcomes[0].FinalPath)

	assert.Equal(t, model.StatusClassified, outcomes[1].Status)
	assert.Equal(t, "MKT-REG_1", outcomes[1].Category)
	assert.Equal(t, filepath.Join(dest, "MKT-REG", "MKT-REG_1", "nota_b_MKT-REG_1.pdf"), outcomes[1].FinalPath)

	// Staging must be clean again.
	entries, err := os.ReadDir(staging)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunUnmatchedGoesToGeneralBucket(t *testing.T) {
	staging := t.TempDir()
	dest := t.TempDir()

	source := NewMockSource([]model.RowData{{Index: 0}})
	source.TriggerFunc = func(_ context.Context, _ int) error {
		dropFile(t, staging, "misterio.pdf", "x")
		return nil
	}
	extractor := NewMockExtractor(map[string]string{
		"misterio.pdf": "nenhuma palavra-chave aqui",
	})

	o := New(testConfig(staging, dest), source, extractor, nil)
	outcomes, err := o.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	assert.Equal(t, model.StatusUnclassifiedMoved, outcomes[0].Status)
	assert.Empty(t, outcomes[0].Category)
	assert.Equal(t, filepath.Join(dest, "arquivos gerais", "misterio.pdf"), outcomes[0].FinalPath)
	assert.FileExists(t, outcomes[0].FinalPath)
}

func TestRunExtractFailureStillRelocatesFile(t *testing.T) {
	staging := t.TempDir()
	dest := t.TempDir()

	source := NewMockSource([]model.RowData{{Index: 0}})
	source.TriggerFunc = func(_ context.Context, _ int) error {
		dropFile(t, staging, "cifrado.pdf", "encrypted")
		return nil
	}
	extractor := NewMockExtractor(nil)
	extractor.ErrFor = map[string]error{"cifrado.pdf": common.ErrExtractFailed}

	o := New(testConfig(staging, dest), source, extractor, nil)
	outcomes, err := o.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	assert.Equal(t, model.StatusExtractFailed, outcomes[0].Status)
	assert.Equal(t, filepath.Join(dest, "arquivos gerais", "cifrado.pdf"), outcomes[0].FinalPath)
	assert.FileExists(t, outcomes[0].FinalPath)
	assert.NotEmpty(t, outcomes[0].Err)
}

func TestRunTimeoutIsRowLocal(t *testing.T) {
	staging := t.TempDir()
	dest := t.TempDir()

	cfg := testConfig(staging, dest)
	cfg.Watcher.Timeout = 50 * time.Millisecond

	// Row 0 never lands; row 1 does. The run must survive row 0.
	source := NewMockSource([]model.RowData{{Index: 0}, {Index: 1}})
	source.TriggerFunc = func(_ context.Context, rowIndex int) error {
		if rowIndex == 1 {
			dropFile(t, staging, "tardia.pdf", "x")
		}
		return nil
	}
	extractor := NewMockExtractor(map[string]string{"tardia.pdf": "cobrança ECAD"})

	o := New(cfg, source, extractor, nil)
	outcomes, err := o.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	assert.Equal(t, model.StatusDownloadTimedOut, outcomes[0].Status)
	assert.Empty(t, outcomes[0].FinalPath)
	assert.Equal(t, model.StatusClassified, outcomes[1].Status)
	assert.Equal(t, "ecad", outcomes[1].Category)
}

func TestRunTriggerFailureIsRetriedThenRecorded(t *testing.T) {
	staging := t.TempDir()
	dest := t.TempDir()

	attempts := 0
	source := NewMockSource([]model.RowData{{Index: 0}})
	source.TriggerFunc = func(_ context.Context, _ int) error {
		attempts++
		return &common.RetryableError{Err: common.ErrTriggerFailed, Retryable: true}
	}

	o := New(testConfig(staging, dest), source, NewMockExtractor(nil), nil)
	outcomes, err := o.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	assert.Equal(t, model.StatusTriggerFailed, outcomes[0].Status)
	assert.Equal(t, 2, attempts)
}

func TestRunTriggerRecoversOnRetry(t *testing.T) {
	staging := t.TempDir()
	dest := t.TempDir()

	attempts := 0
	source := NewMockSource([]model.RowData{{Index: 0}})
	source.TriggerFunc = func(_ context.Context, _ int) error {
		attempts++
		if attempts == 1 {
			return &common.RetryableError{Err: common.ErrTriggerFailed, Retryable: true}
		}
		dropFile(t, staging, "ok.pdf", "x")
		return nil
	}

	o := New(testConfig(staging, dest), source, NewMockExtractor(map[string]string{"ok.pdf": "Seguro"}), nil)
	outcomes, err := o.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, model.StatusClassified, outcomes[0].Status)
}

func TestRunAbortsWhenStagingDisappears(t *testing.T) {
	parent := t.TempDir()
	staging := filepath.Join(parent, "staging")
	require.NoError(t, os.Mkdir(staging, 0o750))
	dest := t.TempDir()

	source := NewMockSource([]model.RowData{{Index: 0}, {Index: 1}})
	require.NoError(t, os.RemoveAll(staging))

	o := New(testConfig(staging, dest), source, NewMockExtractor(nil), nil)
	outcomes, err := o.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrStagingUnavailable)
	assert.Empty(t, outcomes)
}

func TestRunAbortsOnRelocationFailure(t *testing.T) {
	staging := t.TempDir()
	dest := t.TempDir()

	// Pre-place the destination file so the move collides.
	require.NoError(t, os.MkdirAll(filepath.Join(dest, "seguro"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "seguro", "nota_seguro.pdf"), []byte("x"), 0o600))

	source := NewMockSource([]model.RowData{{Index: 0}, {Index: 1}})
	source.TriggerFunc = func(_ context.Context, _ int) error {
		dropFile(t, staging, "nota.pdf", "x")
		return nil
	}

	o := New(testConfig(staging, dest), source, NewMockExtractor(map[string]string{"nota.pdf": "Seguro"}), nil)
	outcomes, err := o.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrRelocationFailed)
	// Row 1 was never attempted.
	assert.Empty(t, outcomes)
	assert.Equal(t, []int{0}, source.TriggerCalls())
}

func TestRunPersistsOutcomes(t *testing.T) {
	staging := t.TempDir()
	dest := t.TempDir()

	source := NewMockSource([]model.RowData{{Index: 0, Cells: []string{"Loja 7"}}})
	source.TriggerFunc = func(_ context.Context, _ int) error {
		dropFile(t, staging, "nota.pdf", "x")
		return nil
	}
	log := &recordingRunLog{}

	o := New(testConfig(staging, dest), source, NewMockExtractor(map[string]string{"nota.pdf": "Seguro"}), log)
	outcomes, err := o.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	assert.Equal(t, 1, log.created)
	assert.Len(t, log.outcomes, 1)
	assert.Equal(t, "Loja 7", log.outcomes[0].Row.Store())
	assert.Equal(t, 1, log.completedWith)
}

type recordingRunLog struct {
	outcomes      []model.DownloadOutcome
	created       int
	completedWith int
}

func (r *recordingRunLog) CreateRun(_ context.Context, _ *model.Run) (int64, error) {
	r.created++
	return 1, nil
}

func (r *recordingRunLog) CompleteRun(_ context.Context, _ int64, processed int) error {
	r.completedWith = processed
	return nil
}

func (r *recordingRunLog) SaveOutcome(_ context.Context, _ int64, outcome *model.DownloadOutcome) error {
	r.outcomes = append(r.outcomes, *outcome)
	return nil
}
