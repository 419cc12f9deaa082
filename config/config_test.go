package config

import (
	"covidtree/model"
	"covidtree/psa"
	"covidtree/tree"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate(), "Reference scenario should be valid")
	require.Equal(t, 10000, cfg.Trials)
	require.Equal(t, model.ReferenceStrategySpecs(), cfg.Strategies)
	require.Equal(t, psa.ReferenceDraws(), cfg.Sampling)
}

func TestLoad(t *testing.T) {
	t.Run("without file", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		require.Equal(t, Default(), cfg)
	})

	t.Run("overlaying file on defaults", func(t *testing.T) {
		path := writeFile(t, `
name: cheap-drug
trials: 500
paired: true
parameters:
  drugCost: 100
strategies:
  - name: None
    color: green
    drug: peg-lambda
    rule: ""
  - name: Unvaccinated
    color: red
    drug: peg-lambda
    rule: "!vaccinated"
report:
  interval: percentile
  alpha: 0.1
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		require.NoError(t, cfg.Validate())

		require.Equal(t, "cheap-drug", cfg.Name)
		require.Equal(t, 500, cfg.Trials)
		require.True(t, cfg.Paired)
		require.Equal(t, 100.0, cfg.Parameters.DrugCost)
		require.Equal(t, model.DefaultParameters().HospCost, cfg.Parameters.HospCost, "Unset parameters should keep defaults")
		require.Len(t, cfg.Strategies, 2)
		require.Equal(t, "percentile", cfg.Report.Interval)
		require.Equal(t, 2, cfg.Report.CostDigits, "Unset report fields should keep defaults")
		require.Equal(t, psa.ReferenceDraws(), cfg.Sampling)
	})

	t.Run("consistent vaccination scenario", func(t *testing.T) {
		cfg, err := Load(filepath.Join("..", "scenarios", "consistent-vaccination.yaml"))
		require.NoError(t, err)
		require.NoError(t, cfg.Validate())
		require.Equal(t, model.ConsistentStrategySpecs(), cfg.Strategies)
	})

	t.Run("reading multiplier rules", func(t *testing.T) {
		cfg, err := Load(writeFile(t, `
strategies:
  - name: Only
    drug: peg-lambda
    rule: highRisk
    vaxMultRule: vaccinated && over65
`))
		require.NoError(t, err)
		require.Equal(t, "vaccinated && over65", cfg.Strategies[0].VaxMultRule)
	})

	t.Run("rejecting unknown keys", func(t *testing.T) {
		_, err := Load(writeFile(t, "trails: 5\n"))
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
	})
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("PSA_TRIALS", "42")
	t.Setenv("PSA_SEED", "7")
	t.Setenv("PSA_PAIRED", "true")
	t.Setenv("PSA_STORE", "runs.db")

	cfg, err := Load(writeFile(t, "trials: 500\ngoroutines: 2\n"))
	require.NoError(t, err)

	require.Equal(t, 42, cfg.Trials, "Environment should override the file")
	require.Equal(t, 2, cfg.Goroutines, "Unset variables should keep file values")
	require.Equal(t, uint64(7), cfg.Seed)
	require.True(t, cfg.Paired)
	require.Equal(t, "runs.db", cfg.Store)

	t.Run("rejecting malformed values", func(t *testing.T) {
		t.Setenv("PSA_TRIALS", "many")
		_, err := Load("")
		require.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty name", func(c *Config) { c.Name = "" }},
		{"no trials", func(c *Config) { c.Trials = 0 }},
		{"no goroutines", func(c *Config) { c.Goroutines = -1 }},
		{"fraction above one", func(c *Config) { c.MaxInvalidFraction = 2 }},
		{"invalid parameter", func(c *Config) { c.Parameters.HighRisk = 1.5 }},
		{"no strategies", func(c *Config) { c.Strategies = nil }},
		{"bad rule", func(c *Config) { c.Strategies[0].Rule = "age > 3" }},
		{"unknown sampled parameter", func(c *Config) { c.Sampling[0].Parameter = "nope" }},
		{"unknown interval", func(c *Config) { c.Report.Interval = "bayesian" }},
		{"bad alpha", func(c *Config) { c.Report.Alpha = 0 }},
		{"negative digits", func(c *Config) { c.Report.ICERDigits = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			var invalid *ValidationError
			require.ErrorAs(t, err, &invalid, "Validation failures should be config errors")
		})
	}

	t.Run("keeping parameter details", func(t *testing.T) {
		cfg := Default()
		cfg.Parameters.HospCost = -1
		err := cfg.Validate()

		var invalid *ValidationError
		require.ErrorAs(t, err, &invalid)
		var param *tree.InvalidParameterError
		require.ErrorAs(t, err, &param, "The cause should stay inspectable")
		require.Equal(t, "hospCost", param.Name)
	})
}
