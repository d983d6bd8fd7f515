package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wms.log")

	l, err := New(Config{Level: "debug", Format: "json", Output: path, Service: "stockpost"})
	require.NoError(t, err)
	l.Info("balance locked")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"balance locked"`)
	assert.Contains(t, string(data), `"service":"stockpost"`)
	assert.Contains(t, string(data), `"level":"info"`)
}

func TestNew_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wms.log")

	l, err := New(Config{Level: "warn", Format: "json", Output: path})
	require.NoError(t, err)
	l.Info("hidden")
	l.Warn("shown")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestNew_UnwritableFile(t *testing.T) {
	_, err := New(Config{Output: filepath.Join(t.TempDir(), "missing", "dir", "wms.log")})
	require.Error(t, err)
}

func TestNew_ConsoleEncoder(t *testing.T) {
	l, err := New(Config{Format: "console", Output: "stdout"})
	require.NoError(t, err)
	assert.NotNil(t, l)
}
