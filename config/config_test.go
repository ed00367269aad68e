package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {

	body := `
input: field.csv
weighted: false
search:
  folds: 5
  repeats: 2
  seed: 7
workers: 2
`
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "field.csv", cfg.Input)
	assert.False(t, cfg.Weighted)
	assert.Equal(t, 5, cfg.Search.Folds)
	assert.Equal(t, 2, cfg.Search.Repeats)
	assert.Equal(t, int64(7), cfg.Search.Seed)
	assert.Equal(t, 2, cfg.Workers)

	// Untouched fields keep their defaults.
	assert.Equal(t, 0.25, cfg.Search.TestFraction)
	assert.Equal(t, 25, cfg.Search.Candidates)
	assert.Len(t, cfg.Counties, 8)
}

func TestLoadEmptyPath(t *testing.T) {

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Search, cfg.Search)
}

func TestEnvWorkersOverride(t *testing.T) {

	t.Setenv(EnvWorkers, "9")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Workers)

	t.Setenv(EnvWorkers, "many")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidateNamesField(t *testing.T) {

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing reference", func(c *Config) { delete(c.ReferenceLevels, "gender") }, "reference_levels"},
		{"missing as reference", func(c *Config) { c.ReferenceLevels["race"] = "Missing" }, "reference_levels.race"},
		{"county reference outside list", func(c *Config) { c.ReferenceLevels["county"] = "Yolo" }, "counties"},
		{"bad test fraction", func(c *Config) { c.Search.TestFraction = 1.5 }, "test_fraction"},
		{"one fold", func(c *Config) { c.Search.Folds = 1 }, "folds"},
		{"no penalties", func(c *Config) { c.StackPenalties = nil }, "stack_penalties"},
		{"negative penalty", func(c *Config) { c.StackPenalties = []float64{0.1, -1} }, "stack_penalties"},
		{"zero workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"no outdir", func(c *Config) { c.OutDir = "" }, "outdir"},
		{"no counties", func(c *Config) { c.Counties = nil }, "counties"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
