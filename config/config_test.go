package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Addr)
	assert.Equal(t, "http://localhost:8080", cfg.Url())
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "qsurvey.sqlite", cfg.Database.URL)
	assert.True(t, cfg.Database.Migrate)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.False(t, cfg.Debug)
}

func TestLoadFlags(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load([]string{
		"--host", "127.0.0.1",
		"--port", "9000",
		"--db-driver", "sqlserver",
		"--db-url", "sqlserver://sa:pw@localhost:1433?database=Surveys",
		"--db-migrate=false",
		"--debug",
	})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, DriverSQLServer, cfg.Database.Driver)
	assert.Equal(t, "sqlserver://sa:pw@localhost:1433?database=Surveys", cfg.Database.URL)
	assert.False(t, cfg.Database.Migrate)
	assert.True(t, cfg.Debug)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	yaml := "database:\n  max_open_conns: 3\nmetrics:\n  enabled: false\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Database.MaxOpenConns)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("QSURVEY_DATABASE_URL", "other.sqlite")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "other.sqlite", cfg.Database.URL)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load([]string{"--db-driver", "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}
