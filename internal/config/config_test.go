package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "./data", cfg.Storage.DataDir)
	assert.Equal(t, uint32(4096), cfg.Storage.PageSize)
	assert.Equal(t, 256, cfg.BufferPool.Frames)
	assert.Empty(t, cfg.MySQL.DSN)
}

func TestLoadFillsInMissingFieldsFromDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `
[storage]
data_dir = "/var/lib/bptreeindex"

[mysql]
dsn = "user:pass@tcp(127.0.0.1:3306)/app"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/bptreeindex", cfg.Storage.DataDir)
	assert.Equal(t, uint32(4096), cfg.Storage.PageSize) // falls back to default
	assert.Equal(t, 256, cfg.BufferPool.Frames)          // falls back to default
	assert.Equal(t, "user:pass@tcp(127.0.0.1:3306)/app", cfg.MySQL.DSN)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
