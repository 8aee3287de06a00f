package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileIsZeroConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("PRDIFF_LOG", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Config{}, cfg)
}

func TestLoad_ParsesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("PRDIFF_LOG", "")

	content := `
editor = "code -g {file}:{line}"
theme = "light"

[poll]
interval = "250ms"
failure_threshold = 10
heartbeat = "10s"

[log]
file = "/tmp/prdiff.log"
`
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "prdiff"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prdiff", "config.toml"), []byte(content), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "code -g {file}:{line}", cfg.Editor)
	require.Equal(t, "light", cfg.Theme)
	require.Equal(t, 250*time.Millisecond, cfg.Poll.Interval.Duration)
	require.Equal(t, 10, cfg.Poll.FailureThreshold)
	require.NotNil(t, cfg.Poll.Heartbeat)
	require.Equal(t, 10*time.Second, cfg.Poll.Heartbeat.Duration)
	require.Equal(t, "/tmp/prdiff.log", cfg.Log.File)
}

func TestLoad_ExplicitZeroHeartbeatIsNotUnset(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("PRDIFF_LOG", "")

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "prdiff"), 0o755))
	content := "[poll]\nheartbeat = \"0s\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prdiff", "config.toml"), []byte(content), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg.Poll.Heartbeat, "explicit 0s must be distinguishable from absent")
	require.Zero(t, cfg.Poll.Heartbeat.Duration)
}

func TestLoad_EnvOverridesLogFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("PRDIFF_LOG", "/tmp/override.log")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/tmp/override.log", cfg.Log.File)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "prdiff"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prdiff", "config.toml"), []byte("editor = [nope"), 0o644))

	_, err := Load()
	require.Error(t, err)
}
