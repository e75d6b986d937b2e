package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "tareas", cfg.Store.Key)
	assert.Equal(t, "file", cfg.Store.Backend)
	assert.Equal(t, "week", cfg.Timeline.Mode)
	assert.Equal(t, "es", cfg.Timeline.Locale)
	assert.Equal(t, "Tasks", cfg.Calendar.Name)
	assert.False(t, cfg.Calendar.Enabled)
}

func TestLoadMissingDefaultFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: sqlite
  sqlite_path: /tmp/tasks.db
timeline:
  mode: month
  locale: en
calendar:
  enabled: true
  name: Work
strict: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "/tmp/tasks.db", cfg.Store.SQLitePath)
	assert.Equal(t, "tareas", cfg.Store.Key, "unset keys keep their default")
	assert.Equal(t, "month", cfg.Timeline.Mode)
	assert.Equal(t, "en", cfg.Timeline.Locale)
	assert.True(t, cfg.Calendar.Enabled)
	assert.Equal(t, "Work", cfg.Calendar.Name)
	assert.Equal(t, "@every 15m", cfg.Calendar.SyncSchedule)
	assert.True(t, cfg.Strict)

	opts := cfg.KVOptions()
	assert.Equal(t, "sqlite", opts.Backend)
	assert.Equal(t, "/tmp/tasks.db", opts.SQLitePath)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "store:\n  backend: sqlite\n")
	t.Setenv("GANTTA_STORE_BACKEND", "memory")
	t.Setenv("GANTTA_HTTP_ADDR", "127.0.0.1:9999")
	t.Setenv("GANTTA_STORE_QUOTA_BYTES", "5000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "127.0.0.1:9999", cfg.HTTP.Addr)
	assert.Equal(t, 5000, cfg.Store.QuotaBytes)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedFile(t *testing.T) {
	_, err := Load(writeConfig(t, "store: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"backend", func(c *Config) { c.Store.Backend = "localstorage" }, "store.backend"},
		{"key", func(c *Config) { c.Store.Key = " " }, "store.key"},
		{"quota", func(c *Config) { c.Store.QuotaBytes = -1 }, "store.quota_bytes"},
		{"mode", func(c *Config) { c.Timeline.Mode = "year" }, "timeline.mode"},
		{"locale", func(c *Config) { c.Timeline.Locale = "fr" }, "timeline.locale"},
		{"schedule", func(c *Config) { c.Calendar.SyncSchedule = "every day" }, "calendar.sync_schedule"},
		{"log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	cfg := Default()
	cfg.Calendar.SyncSchedule = ""
	assert.NoError(t, cfg.Validate(), "an empty schedule disables the job")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Calendar.Name = "Personal"
	cfg.Store.Backend = "redis"
	require.NoError(t, Save(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
