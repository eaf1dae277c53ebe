package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "crashes.db", cfg.Store.DatabaseURL)
	assert.InDelta(t, 0.01, cfg.Detect.Eps, 0.0001)
	assert.Equal(t, 5, cfg.Detect.MinSamples)
	assert.Equal(t, 10, cfg.Detect.TopN)
	assert.Equal(t, "fatalities", cfg.Detect.RankBy)
	assert.Equal(t, 60, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 128, cfg.Server.CacheSize)
	assert.Equal(t, 300, cfg.Server.CacheTTLSecs)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chTempDir(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/crashes
detect:
  eps: 0.25
  min_samples: 8
  rank_by: crashes
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/crashes", cfg.Store.DatabaseURL)
	assert.InDelta(t, 0.25, cfg.Detect.Eps, 0.0001)
	assert.Equal(t, 8, cfg.Detect.MinSamples)
	assert.Equal(t, "crashes", cfg.Detect.RankBy)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Unset fields keep defaults.
	assert.Equal(t, 10, cfg.Detect.TopN)
}

func TestLoadFromEnv(t *testing.T) {
	chTempDir(t)
	t.Setenv("HOTSPOT_DETECT_MIN_SAMPLES", "3")
	t.Setenv("HOTSPOT_LOG_FORMAT", "console")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Detect.MinSamples)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	require.Error(t, InitLogger(LogConfig{Level: "shout", Format: "json"}))
}

func TestLoadPresets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "presets.yaml")
	content := `
urban-core:
  description: Dense city center blocks
  eps: 0.005
  min_samples: 10
  top_n: 3
rural-county:
  eps: 0.05
  rank_by: crashes
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	presets, err := LoadPresets(path)
	require.NoError(t, err)
	require.Len(t, presets, 2)

	urban := presets["urban-core"]
	assert.Equal(t, "Dense city center blocks", urban.Description)
	assert.InDelta(t, 0.005, urban.Eps, 0.0001)

	base := DetectConfig{Eps: 0.01, MinSamples: 5, TopN: 10, RankBy: "fatalities"}
	applied := presets["rural-county"].Apply(base)
	assert.InDelta(t, 0.05, applied.Eps, 0.0001)
	assert.Equal(t, 5, applied.MinSamples)
	assert.Equal(t, "crashes", applied.RankBy)
	assert.Equal(t, 10, applied.TopN)
}

func TestLoadPresetsMissingFile(t *testing.T) {
	_, err := LoadPresets(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
