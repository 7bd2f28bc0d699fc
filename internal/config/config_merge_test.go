package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Unit tests for the Default/KDL-file layering described in spec.md §0.2.

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, ValidateConfig(&cfg))
}

func TestLoadKDLWithNoFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadKDL(dir)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadKDLOverridesDatabaseAndServer(t *testing.T) {
	dir := t.TempDir()
	content := `
database {
    path "/var/lib/croissantine/index.db"
    map_size "200GB"
}
server {
    listen "127.0.0.1:8080"
    admin_user "root"
    admin_password "hunter2"
    result_limit 50
}
indexing {
    workers 8
    backoff "1m"
    fetch_timeout "30s"
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".croissantine.kdl"), []byte(content), 0o644))

	cfg, err := LoadKDL(dir)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/croissantine/index.db", cfg.Database.Path)
	assert.Equal(t, int64(200*1024*1024*1024), cfg.Database.MapSizeBytes)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.ListenAddr)
	assert.Equal(t, "root", cfg.Server.AdminUser)
	assert.Equal(t, "hunter2", cfg.Server.AdminPassword)
	assert.Equal(t, 50, cfg.Server.ResultLimit)
	assert.Equal(t, 8, cfg.Indexing.Workers)
	assert.Equal(t, time.Minute, cfg.Indexing.BackoffInterval)
	assert.Equal(t, 30*time.Second, cfg.Indexing.FetchTimeout)
}

func TestLoadKDLPartialOverrideKeepsOtherDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `
server {
    listen "0.0.0.0:9090"
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".croissantine.kdl"), []byte(content), 0o644))

	cfg, err := LoadKDL(dir)
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.ListenAddr)
	assert.Equal(t, def.Database, cfg.Database)
	assert.Equal(t, def.Indexing, cfg.Indexing)
}
