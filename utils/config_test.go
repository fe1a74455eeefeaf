package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigManagerDefaults(t *testing.T) {
	cm := NewConfigManager()
	config := cm.GetConfig()

	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "./data/aether.db", config.Storage.DatabasePath)
	assert.Equal(t, 0.2, config.Training.TestFraction)
	assert.Contains(t, config.Training.DefaultModels, "random_forest")
}

func TestLoadFromFileMergesDefaults(t *testing.T) {
	configYAML := `
server:
  port: 9090
logging:
  level: debug
training:
  test_fraction: 0.3
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0644))

	cm := NewConfigManager()
	require.NoError(t, cm.LoadFromFile(path))

	config := cm.GetConfig()
	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, 0.3, config.Training.TestFraction)
	// Unset fields keep their defaults.
	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, int64(42), config.Training.RandomSeed)
	assert.Equal(t, path, cm.GetConfigPath())
}

func TestLoadFromFileRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"bad port":     "server:\n  port: 70000",
		"bad level":    "logging:\n  level: verbose",
		"bad fraction": "training:\n  test_fraction: 1.5",
	}
	for name, configYAML := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(configYAML), 0644))

			cm := NewConfigManager()
			assert.Error(t, cm.LoadFromFile(path))
		})
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cm := NewConfigManager()
	assert.Error(t, cm.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")))
}

func TestLoadFromEnvironmentOverrides(t *testing.T) {
	t.Setenv("AETHER_HOST", "127.0.0.1")
	t.Setenv("AETHER_PORT", "7070")
	t.Setenv("AETHER_LOG_LEVEL", "warn")
	t.Setenv("AETHER_DB_PATH", "/tmp/test.db")

	cm := NewConfigManager()
	require.NoError(t, cm.LoadFromEnvironment())

	config := cm.GetConfig()
	assert.Equal(t, "127.0.0.1", config.Server.Host)
	assert.Equal(t, 7070, config.Server.Port)
	assert.Equal(t, "warn", config.Logging.Level)
	assert.Equal(t, "/tmp/test.db", config.Storage.DatabasePath)
}

func TestGetConfigReturnsCopy(t *testing.T) {
	cm := NewConfigManager()
	config := cm.GetConfig()
	config.Server.Port = 1

	assert.Equal(t, 8080, cm.GetConfig().Server.Port)
}
