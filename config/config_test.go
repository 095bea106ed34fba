package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, "talentmap.db", cfg.Database.Path)
	assert.Equal(t, 5.0, cfg.Board.ClickTolerancePx)
	assert.Equal(t, 30*time.Minute, cfg.Board.SessionTTL)
	assert.Equal(t, ":8080", cfg.Server.Addr())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "talentmap.yaml")
	yaml := `
server:
  port: 9000
cache:
  driver: redis
redis:
  addresses: ["redis:6379"]
board:
  click_tolerance_px: 8
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	// GIVEN: the environment overrides the file
	t.Setenv("TALENTMAP_SERVER_PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, []string{"redis:6379"}, cfg.Redis.Addresses)
	assert.Equal(t, 8.0, cfg.Board.ClickTolerancePx)
}

func TestLoad_RejectsUnknownCacheDriver(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  driver: memcached\n"), 0o600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "cache.driver")
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
