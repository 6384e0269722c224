package cachestore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/anvil/internal/core/domain"
)

func TestReadRecords_UnsupportedVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":99,"records":[]}`), domain.FilePerm))

	records, err := readRecords(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrCacheCorrupt.Error())
	assert.Contains(t, err.Error(), domain.ErrCacheVersionUnsupported.Error())
	assert.Empty(t, records)
}

func TestReadRecords_Missing(t *testing.T) {
	records, err := readRecords(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, records)
}
