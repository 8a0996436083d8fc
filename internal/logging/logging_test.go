package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/daybook/internal/config"
)

func TestNew_CreatesLogFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(config.LoggerConfig{Level: "info", Dir: dir})
	require.NoError(t, err)

	logger.Infof(TypeApp, "hello %s", "world")
	logger.Debugf(TypeApp, "not written")
	logger.Close()

	data, err := os.ReadFile(filepath.Join(dir, "daybook.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello world"`)
	assert.Contains(t, string(data), `"type":"app"`)
	assert.NotContains(t, string(data), "not written")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(config.LoggerConfig{Level: "verbose"})
	assert.Error(t, err)
}

func TestNew_InvalidDir(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	_, err := New(config.LoggerConfig{Level: "info", Dir: filepath.Join(blocker, "logs")})
	assert.Error(t, err)
}

func TestNewWriter_TagsType(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, zerolog.DebugLevel)

	logger.Warnf(TypeSync, "push %s failed", "memo")

	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"type":"sync"`)
	assert.Contains(t, buf.String(), "push memo failed")
}
