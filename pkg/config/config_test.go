package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 20, cfg.Registry.PathCap)
	assert.Equal(t, 50, cfg.Registry.RegistryCap)
	assert.Equal(t, 60*time.Second, cfg.Connectivity.Period)
	assert.Equal(t, 3*time.Second, cfg.Connectivity.BannerWindow)
	assert.Equal(t, 180*time.Second, cfg.Session.GuardPeriod)
	assert.Equal(t, 10*time.Second, cfg.Session.GraceBuffer)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Registry, cfg.Registry)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trackd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: https://api.pasearch.example
socket:
  url: wss://api.pasearch.example/socket
registry:
  path_cap: 10
log:
  level: debug
  json: true
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.pasearch.example", cfg.API.BaseURL)
	assert.Equal(t, "wss://api.pasearch.example/socket", cfg.Socket.URL)
	assert.Equal(t, 10, cfg.Registry.PathCap)
	// Unset keys keep their defaults
	assert.Equal(t, 50, cfg.Registry.RegistryCap)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TRACKD_API_URL", "http://elsewhere:9000")
	t.Setenv("TRACKD_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://elsewhere:9000", cfg.API.BaseURL)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestValidateRejectsBadCaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trackd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
registry:
  path_cap: -1
`), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
