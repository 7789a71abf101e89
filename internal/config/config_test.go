package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.API.TimeoutSecs)
	assert.InDelta(t, 5, cfg.API.RateLimitPerSec, 0.001)
	assert.Equal(t, 1000, cfg.Editor.FeatureLimit)
	assert.Equal(t, 5, cfg.Editor.TooltipSecs)
	assert.Equal(t, 200, cfg.Editor.ClickDelayMs)
	assert.Equal(t, "sqlite", cfg.Journal.Driver)
	assert.Equal(t, "districting.db", cfg.Journal.DatabaseURL)
	assert.Equal(t, "/tmp/districting", cfg.Geounits.TempDir)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
api:
  base_url: https://mapping.example.gov
  plan: plan-42
editor:
  feature_limit: 500
journal:
  driver: postgres
  database_url: postgres://localhost/districting
geounits:
  shapefiles:
    - path: /data/tl_2024_06_tract.shp
      geolevel: 2
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://mapping.example.gov", cfg.API.BaseURL)
	assert.Equal(t, "plan-42", cfg.API.Plan)
	assert.Equal(t, 500, cfg.Editor.FeatureLimit)
	assert.Equal(t, "postgres", cfg.Journal.Driver)
	require.Len(t, cfg.Geounits.Shapefiles, 1)
	assert.Equal(t, 2, cfg.Geounits.Shapefiles[0].Geolevel)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults still apply for unset values
	assert.Equal(t, 200, cfg.Editor.ClickDelayMs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
journal:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("DISTRICTING_JOURNAL_DRIVER", "postgres")
	t.Setenv("DISTRICTING_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Journal.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("DISTRICTING_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		API:     APIConfig{BaseURL: "https://mapping.example.gov", Plan: "plan-42"},
		Journal: JournalConfig{Driver: "sqlite"},
	}
	assert.NoError(t, cfg.Validate())
}

func TestValidateMissingBaseURL(t *testing.T) {
	cfg := &Config{API: APIConfig{Plan: "plan-42"}, Journal: JournalConfig{Driver: "sqlite"}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.base_url is required")
}

func TestValidateMissingPlan(t *testing.T) {
	cfg := &Config{API: APIConfig{BaseURL: "https://mapping.example.gov"}, Journal: JournalConfig{Driver: "none"}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.plan is required")
}

func TestValidateUnknownJournalDriver(t *testing.T) {
	cfg := &Config{
		API:     APIConfig{BaseURL: "https://mapping.example.gov", Plan: "plan-42"},
		Journal: JournalConfig{Driver: "mysql"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown journal driver")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
