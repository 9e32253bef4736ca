package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "MeanReversion", cfg.Analysis.DiagnosticStrategy)

	p := cfg.Policy()
	assert.InDelta(t, 0.1, p.MaxLotSize, 1e-9)
	assert.InDelta(t, 10000, p.BaselineEquity, 1e-9)
	assert.Equal(t, 30, p.LookbackDays)
}

func TestYAMLRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	want := Default()
	want.Database.Path = "/var/lib/tradememory/trades.db"
	want.Risk.MaxLotSize = 0.2
	want.Reflection.Model = "claude-sonnet-4-5"
	require.NoError(t, want.SaveToFile(path))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestJSONRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.json")
	want := Default()
	want.Risk.ConsecutiveLossLimit = 3
	require.NoError(t, want.SaveToFile(path))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("database:\n  path: \"\"\n")
	require.NoError(t, os.WriteFile(path, data, 0644))

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.path")
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidateBounds(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Risk.MinLotSize = 0.5 // above the max of 0.1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_lot_size")
}
