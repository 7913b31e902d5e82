package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1400, cfg.Analytics.Window)
	assert.Equal(t, 1, cfg.Analytics.ShortLag)
	assert.Equal(t, 1400, cfg.Analytics.LongLag)
	assert.Equal(t, []float64{-15, -12, -9, -6, -3, 0, 3, 6, 9, 12, 15}, cfg.Analytics.HistogramEdges)
	assert.Equal(t, "exact", cfg.Analytics.YearlyPolicy)
	assert.Equal(t, "auto", cfg.Input.Delimiter)
	assert.Equal(t, "price_analytics.csv", cfg.Output.AnalyticsCSV)
	assert.False(t, cfg.Scheduled())
	assert.False(t, cfg.NotifyEnabled())
}

func TestLoad_YAMLAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
input:
  path: data/prices.csv
  delimiter: pipe
analytics:
  window: 200
  yearly_policy: first_last
schedule:
  cron: "0 30 6 * * *"
`)
	t.Setenv("BTRACKER_WINDOW", "300")
	t.Setenv("BTRACKER_OUTPUT_DIR", "/tmp/site")
	t.Setenv("BTRACKER_RUN_ON_START", "true")
	t.Setenv("BTRACKER_CSV_BOM", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "data/prices.csv", cfg.Input.Path)
	assert.Equal(t, "pipe", cfg.Input.Delimiter)
	assert.Equal(t, 300, cfg.Analytics.Window)
	assert.Equal(t, "first_last", cfg.Analytics.YearlyPolicy)
	assert.Equal(t, "/tmp/site", cfg.Output.Dir)
	assert.True(t, cfg.Schedule.RunOnStart)
	assert.True(t, cfg.Output.CSVBOM)
	assert.True(t, cfg.Scheduled())
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "analytics: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"delimiter", func(c *Config) { c.Input.Delimiter = "comma" }},
		{"window", func(c *Config) { c.Analytics.Window = -1 }},
		{"lag", func(c *Config) { c.Analytics.LongLag = -5 }},
		{"edge count", func(c *Config) { c.Analytics.HistogramEdges = []float64{0} }},
		{"edge order", func(c *Config) {
			c.Analytics.HistogramEdges = []float64{-15, -12, -9, -6, -3, 0, 3, 6, 9, 15, 12}
		}},
		{"policy", func(c *Config) { c.Analytics.YearlyPolicy = "nearest" }},
		{"telegram pair", func(c *Config) { c.Telegram.BotToken = "token" }},
		{"cron", func(c *Config) { c.Schedule.Cron = "every day" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
