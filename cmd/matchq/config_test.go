package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, 4, cfg.Workers)
		assert.Equal(t, "INFO", cfg.Log.Level)
		assert.Equal(t, "text", cfg.Log.Format)
	})

	t.Run("file", func(t *testing.T) {
		path := writeFile(t, "matchq.yaml", "workers: 2\nlog:\n  level: WARN\n  format: json\n")
		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 2, cfg.Workers)
		assert.Equal(t, LogConfig{Level: "WARN", Format: "json"}, cfg.Log)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := writeFile(t, "matchq.yaml", "workers: 2\n")
		t.Setenv("MATCHQ_WORKERS", "8")
		t.Setenv("MATCHQ_LOG_ADD_SOURCE", "true")
		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 8, cfg.Workers)
		assert.True(t, cfg.Log.AddSource)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig("/nonexistent/matchq.yaml")
		assert.Error(t, err)
	})

	t.Run("workers must be positive", func(t *testing.T) {
		t.Setenv("MATCHQ_WORKERS", "0")
		_, err := LoadConfig("")
		assert.Error(t, err)
	})
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "workers", envKey("workers"))
	assert.Equal(t, "log.level", envKey("log_level"))
	assert.Equal(t, "log.add_source", envKey("log_add_source"))
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger(buf, LogConfig{Level: "warn", Format: "json"})

	logger.Info("hidden")
	logger.Warn("shown", "run_id", "abc")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "abc", entry["run_id"])
}
