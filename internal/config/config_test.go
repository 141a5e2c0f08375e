package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into an empty directory so no stray .env or config file is read.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "./data/sharelyst.db", cfg.Database.Path)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TokenDuration)
	assert.Equal(t, "@every 1h", cfg.Janitor.Schedule)
	assert.True(t, cfg.Janitor.Enabled)
	assert.False(t, cfg.Production())
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t)
	t.Setenv("SHARELYST_DATABASE_PATH", "/tmp/other.db")
	t.Setenv("SHARELYST_JWT_TOKEN_DURATION", "90m")
	t.Setenv("SHARELYST_JANITOR_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/other.db", cfg.Database.Path)
	assert.Equal(t, 90*time.Minute, cfg.JWT.TokenDuration)
	assert.False(t, cfg.Janitor.Enabled)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9090\"\nlog:\n  level: debug\n"), 0o600))
	t.Setenv("SHARELYST_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SHARELYST_SERVER_CORS_ORIGIN=https://app.example.com\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("SHARELYST_SERVER_CORS_ORIGIN") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://app.example.com", cfg.Server.CORSOrigin)
}

func TestLoad_ProductionNeedsSecret(t *testing.T) {
	chdir(t)
	t.Setenv("SHARELYST_ENV", "production")

	_, err := Load()
	require.ErrorIs(t, err, ErrInsecureSecret)

	t.Setenv("SHARELYST_JWT_SECRET", "a-real-secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Production())
}
