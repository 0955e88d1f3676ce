package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000", cfg.Server.BaseURL)
	assert.Equal(t, "/api/auth", cfg.Server.AuthRoute)
	assert.Equal(t, "/api/resources", cfg.Server.ResourcesRoute)
	assert.Equal(t, 30, cfg.Server.TimeoutSec)
	assert.True(t, cfg.Server.RememberSession)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  base_url: https://mail.example.com/
  timeout_sec: 5
  remember_session: false
log:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://mail.example.com", cfg.Server.BaseURL)
	assert.Equal(t, 5, cfg.Server.TimeoutSec)
	assert.False(t, cfg.Server.RememberSession)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/api/auth", cfg.Server.AuthRoute)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("WEBMAIL_SERVER_BASE_URL", "http://backend:8080")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://backend:8080", cfg.Server.BaseURL)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultAppConfig()
	cfg.Server.BaseURL = "http://saved:9000"

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://saved:9000", loaded.Server.BaseURL)
}
