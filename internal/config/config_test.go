package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.census.gov/data", cfg.Census.BaseURL)
	assert.Equal(t, 2010, cfg.Census.StartYear)
	assert.Equal(t, 2023, cfg.Census.EndYear)
	assert.Equal(t, "https://api.stlouisfed.org", cfg.FRED.BaseURL)
	assert.Equal(t, "data", cfg.Fetch.DataDir)
	assert.Equal(t, "docs", cfg.Chart.OutDir)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
census:
  key: secret
  start_year: 2015
store:
  driver: postgres
  database_url: postgres://localhost/diaspora
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Chdir(dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Census.Key)
	assert.Equal(t, 2015, cfg.Census.StartYear)
	assert.Equal(t, 2023, cfg.Census.EndYear, "unset keys keep defaults")
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DIASPORA_FRED_KEY", "abc123")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "abc123", cfg.FRED.Key)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "loud", Format: "json"}))
}
