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
	chdirTemp(t)
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Monitor.HealthInterval)
	assert.Equal(t, 5*time.Second, cfg.Monitor.PerfInterval)
	assert.InDelta(t, 150.0, cfg.Thresholds.MemoryWarnMB, 0.001)
	assert.InDelta(t, 200.0, cfg.Thresholds.MemoryCriticalMB, 0.001)
	assert.Equal(t, 100, cfg.History.Snapshots)
	assert.Equal(t, 50, cfg.History.FaultRecords)
	assert.Equal(t, 5*time.Minute, cfg.Recovery.CrashRecencyWindow)
	assert.Equal(t, 3, cfg.Recovery.FailureLimit)
	assert.False(t, cfg.API.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
monitor:
  health_interval: 10s
thresholds:
  memory_warn_mb: 100
  memory_critical_mb: 250
api:
  enabled: true
  addr: "127.0.0.1:9999"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := NewLoader().WithConfigFile(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.Monitor.HealthInterval)
	assert.InDelta(t, 100.0, cfg.Thresholds.MemoryWarnMB, 0.001)
	assert.InDelta(t, 250.0, cfg.Thresholds.MemoryCriticalMB, 0.001)
	assert.True(t, cfg.API.Enabled)
	assert.Equal(t, "127.0.0.1:9999", cfg.API.Addr)

	// Unspecified values keep defaults.
	assert.Equal(t, 5*time.Second, cfg.Monitor.PerfInterval)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SENTINEL_LOG_LEVEL", "debug")

	chdirTemp(t)
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestDefaultsValidate(t *testing.T) {
	chdirTemp(t)
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NoError(t, ValidateConfig(cfg))
}

// chdirTemp moves the test into an empty directory so no stray
// .sentinel.yaml from the environment is picked up.
func chdirTemp(t *testing.T) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(orig) })
}
