package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krakend/dex-mcp-server/internal/config"
	"github.com/krakend/dex-mcp-server/internal/dataset"
	"github.com/krakend/dex-mcp-server/internal/rangeindex"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dex.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, dataset.Attributes, cfg.Attributes)
	assert.Equal(t, rangeindex.DefaultBounds, cfg.RangeBounds())
	assert.Equal(t, 25.0, cfg.Buckets.LowPercentile)
	assert.Equal(t, 75.0, cfg.Buckets.HighPercentile)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
dataset:
  path: /srv/dex/pokemon.csv
attributes: [attack, speed]
buckets:
  low_percentile: 10
  high_percentile: 90
bounds:
  min: 0
  max: 1000
catalog:
  batch_size: 50
log:
  level: debug
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/dex/pokemon.csv", cfg.Dataset.Path)
	assert.Equal(t, []string{"attack", "speed"}, cfg.Attributes)
	assert.Equal(t, config.BucketsConfig{LowPercentile: 10, HighPercentile: 90}, cfg.Buckets)
	assert.Equal(t, rangeindex.Bounds{Min: 0, Max: 1000}, cfg.RangeBounds())
	assert.Equal(t, 50, cfg.Catalog.BatchSize)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "log:\n  level: debug\n")
	t.Setenv("DEX_LOG_LEVEL", "warn")
	t.Setenv("DEX_BOUNDS_MAX", "750")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 750.0, cfg.Bounds.Max)
}

func TestLoad_MissingDefaultFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{"percentile above 100", func(c *config.Config) { c.Buckets.HighPercentile = 120 }},
		{"inverted percentiles", func(c *config.Config) { c.Buckets.LowPercentile, c.Buckets.HighPercentile = 80, 20 }},
		{"inverted bounds", func(c *config.Config) { c.Bounds.Min, c.Bounds.Max = 10, 10 }},
		{"no attributes", func(c *config.Config) { c.Attributes = []string{} }},
		{"bad attribute name", func(c *config.Config) { c.Attributes = []string{"Sp Attack"} }},
		{"duplicate attribute", func(c *config.Config) { c.Attributes = []string{"hp", "hp"} }},
		{"unknown log level", func(c *config.Config) { c.Log.Level = "chatty" }},
		{"zero batch size", func(c *config.Config) { c.Catalog.BatchSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, config.ErrInvalid)
		})
	}
}
