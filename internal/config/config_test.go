package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FirstRunWritesTemplate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, cfg.Server.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
	assert.Equal(t, "file", cfg.Store.Driver)
	assert.Equal(t, "prefs", cfg.Auth.Backend)
	assert.Equal(t, DefaultDevPort, cfg.DevServer.Port)
	assert.NotEmpty(t, cfg.Store.Path)
	assert.Equal(t, path, cfg.Path)
}

func TestLoad_FileValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `server:
  baseURL: "https://sync.example.com"
  timeout: 5s
store:
  driver: sqlite
logger:
  level: debug
locale:
  timezone: "Europe/Berlin"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://sync.example.com", cfg.Server.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Server.Timeout)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "prefs.db", filepath.Base(cfg.Store.Path))
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "Europe/Berlin", cfg.Location().String())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DAYBOOK_LOG_LEVEL", "warn")
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logger.Level)
}

func TestLoad_InvalidDriver(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: redis\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	assert.NoError(t, Default().Validate())

	c := Default()
	c.Logger.Level = "verbose"
	assert.Error(t, c.Validate())

	c = Default()
	c.Auth.Backend = "vault"
	assert.Error(t, c.Validate())

	c = Default()
	c.DevServer.Port = 0
	assert.Error(t, c.Validate())

	c = Default()
	c.Locale.Timezone = "Mars/Olympus"
	assert.Error(t, c.Validate())
}
