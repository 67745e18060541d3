package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	r := New(Config{LedgerRoot: "/ledger"})

	assert.Equal(t, "/ledger", r.LedgerRoot())
	assert.Equal(t, filepath.Join("/ledger", ".cache", ".ledger-tools.cache.json"), r.CachePath())
	assert.Equal(t, filepath.Join("/ledger", ".cache", "ledger-tools.runs.db"), r.DatabasePath())
}

func TestNewOverrides(t *testing.T) {
	r := New(Config{
		LedgerRoot:   "/ledger",
		CachePath:    "/elsewhere/cache.json",
		DatabasePath: "/elsewhere/runs.db",
		ToolName:     "lt",
	})

	assert.Equal(t, "/elsewhere/cache.json", r.CachePath())
	assert.Equal(t, "/elsewhere/runs.db", r.DatabasePath())
}

func TestNewToolName(t *testing.T) {
	r := New(Config{LedgerRoot: "/ledger", ToolName: "lt"})

	assert.Equal(t, filepath.Join("/ledger", ".cache", ".lt.cache.json"), r.CachePath())
	assert.Equal(t, filepath.Join("/ledger", ".cache", "lt.runs.db"), r.DatabasePath())
}

func TestMonthDir(t *testing.T) {
	r := New(Config{LedgerRoot: "/ledger"})

	dir, err := r.MonthDir("2026-03")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/ledger", "2026-03"), dir)

	for _, bad := range []string{"2026", "2026-3", "202603", "2026-03-01"} {
		_, err := r.MonthDir(bad)
		assert.Error(t, err, bad)
	}
}

func TestEnsureDirAndFileChecks(t *testing.T) {
	root := t.TempDir()
	r := New(Config{LedgerRoot: root})

	nested := filepath.Join(root, "a", "b")
	require.NoError(t, r.EnsureDir(nested))
	assert.True(t, r.IsDir(nested))

	file := filepath.Join(root, "c", "d.json")
	require.NoError(t, r.EnsureParentDir(file))
	assert.False(t, r.FileExists(file))

	require.NoError(t, os.WriteFile(file, []byte("{}"), 0o644))
	assert.True(t, r.FileExists(file))
	assert.False(t, r.IsDir(file))
}
