package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guacadm/guacadm/pkg/observability"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "guacadm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfigFile(t, `
database:
  url: postgres://adm:pw@db:5432/guacamole
  max_conns: 8
observability:
  log_level: debug
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://adm:pw@db:5432/guacamole", cfg.Database.URL)
	assert.Equal(t, 8, cfg.Database.MaxConns)
	assert.Equal(t, 1, cfg.Database.MinConns)
	assert.Equal(t, 10*time.Second, cfg.Database.ConnTimeout)
	assert.Equal(t, observability.DebugLevel, cfg.ParsedLogLevel())
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
database:
  url: postgres://adm:pw@file-host:5432/guacamole
`)

	t.Setenv("GUACADM_DB_URL", "postgres://adm:pw@env-host:5432/guacamole")
	t.Setenv("GUACADM_LOG_LEVEL", "warn")
	t.Setenv("GUACADM_DB_TIMEOUT", "30s")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://adm:pw@env-host:5432/guacamole", cfg.Database.URL)
	assert.Equal(t, observability.WarnLevel, cfg.ParsedLogLevel())
	assert.Equal(t, 30*time.Second, cfg.Database.ConnTimeout)
}

func TestMissingFileFallsBackToEnv(t *testing.T) {
	t.Setenv("GUACADM_DB_URL", "postgres://adm:pw@db:5432/guacamole")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "postgres://adm:pw@db:5432/guacamole", cfg.Database.URL)
}

func TestValidation(t *testing.T) {
	t.Run("missing database URL", func(t *testing.T) {
		t.Setenv("GUACADM_DB_URL", "")
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database URL is required")
	})

	t.Run("bad log level", func(t *testing.T) {
		t.Setenv("GUACADM_DB_URL", "postgres://adm:pw@db:5432/guacamole")
		t.Setenv("GUACADM_LOG_LEVEL", "loud")

		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeConfigFile(t, "database: [not a map")
		_, err := LoadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})
}
