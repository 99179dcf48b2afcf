package capture

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rows.csv")
	csv := "Loja 12,SAP-9,0001,01/10/2025,15/10/2025,\"R$ 1.200,00\"\nLoja 13,SAP-10\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o600))

	source, err := LoadManifest(path)
	require.NoError(t, err)

	rows, err := source.Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 0, rows[0].Index)
	assert.Equal(t, "Loja 12", rows[0].Store())
	assert.Equal(t, "R$ 1.200,00", rows[0].Cell(5))
	assert.Len(t, rows[1].Cells, 2)
}

func TestLoadManifestMissingFile(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestManualSourceTrigger(t *testing.T) {
	source := NewManualSource(nil)
	assert.Error(t, source.TriggerDownload(context.Background(), 0))
}
