package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dataDir := t.TempDir()

	cfg, err := Load("", dataDir)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30, cfg.Scheduler.CheckIntervalSeconds)
	assert.Equal(t, 10, cfg.Scheduler.DefaultSnoozeMinutes)
	assert.Equal(t, 15000, cfg.Places.DefaultRadius)
	assert.Equal(t, 20, cfg.Places.MaxResults)
	assert.Equal(t, dataDir, cfg.Storage.DataDir)
	assert.NotEmpty(t, cfg.Security.JWTSecret, "JWT secret should be generated")
}

func TestLoadConfigFile(t *testing.T) {
	dataDir := t.TempDir()
	configPath := filepath.Join(dataDir, "healthtrack.yaml")

	content := []byte(`
server:
  port: 9090
scheduler:
  check_interval_seconds: 15
places:
  default_radius: 5000
`)
	require.NoError(t, os.WriteFile(configPath, content, 0600))

	cfg, err := Load(configPath, dataDir)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 15, cfg.Scheduler.CheckIntervalSeconds)
	assert.Equal(t, 5000, cfg.Places.DefaultRadius)
}

func TestEnvAlias(t *testing.T) {
	t.Setenv("GOOGLE_MAPS_API_KEY", "test-key-from-alias")

	cfg, err := Load("", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "test-key-from-alias", cfg.Places.APIKey)
}

func TestEnvCanonicalWinsOverAlias(t *testing.T) {
	t.Setenv("GOOGLE_MAPS_API_KEY", "alias-key")
	t.Setenv("HEALTHTRACK_PLACES_API_KEY", "canonical-key")

	cfg, err := Load("", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "canonical-key", cfg.Places.APIKey)
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "healthtrack.yaml")

	require.NoError(t, WriteDefault(path))

	// Second write must refuse to clobber
	assert.Error(t, WriteDefault(path))

	cfg, err := Load(path, filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "@daily", cfg.Scheduler.ReconcileSpec)
}

func TestGetEnvDefault(t *testing.T) {
	t.Setenv("HEALTHTRACK_CONFIG", "/etc/healthtrack.yaml")
	assert.Equal(t, "/etc/healthtrack.yaml", GetEnvDefault("HEALTHTRACK_CONFIG", "fallback"))
	assert.Equal(t, "fallback", GetEnvDefault("HEALTHTRACK_UNSET_KEY", "fallback"))
}

func TestGeneratedJWTSecretIsUnpredictable(t *testing.T) {
	a, err := generateRandomString(32)
	require.NoError(t, err)
	b, err := generateRandomString(32)
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b, "fallback secrets must differ between runs")
}

func TestValidateRejectsBadInterval(t *testing.T) {
	dataDir := t.TempDir()
	configPath := filepath.Join(dataDir, "healthtrack.yaml")

	content := []byte("scheduler:\n  check_interval_seconds: -1\n")
	require.NoError(t, os.WriteFile(configPath, content, 0600))

	_, err := Load(configPath, dataDir)
	assert.Error(t, err)
}
