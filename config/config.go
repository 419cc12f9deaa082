// Package config loads PSA scenarios from YAML files and the environment.
package config

import (
	"bytes"
	"covidtree/cea"
	"covidtree/meta"
	"covidtree/model"
	"covidtree/psa"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Report struct {
	Dir          string  `yaml:"dir"`
	Alpha        float64 `yaml:"alpha"`
	Interval     string  `yaml:"interval"` // "confidence" or "percentile"
	CostDigits   int     `yaml:"costDigits"`
	EffectDigits int     `yaml:"effectDigits"`
	ICERDigits   int     `yaml:"icerDigits"`
}

// Config is one analysis scenario.
type Config struct {
	Name               string               `yaml:"name"`
	Trials             int                  `yaml:"trials"`
	Goroutines         int                  `yaml:"goroutines"`
	Seed               uint64               `yaml:"seed"`
	MaxInvalidFraction float64              `yaml:"maxInvalidFraction"`
	Paired             bool                 `yaml:"paired"`
	Parameters         model.Parameters     `yaml:"parameters"`
	Strategies         []model.StrategySpec `yaml:"strategies"`
	Sampling           []psa.DrawSpec       `yaml:"sampling"`
	Report             Report               `yaml:"report"`
	Store              string               `yaml:"store"` // SQLite path, empty disables
}

// overrides holds the environment variables that may replace file values.
type overrides struct {
	Name               *string  `env:"PSA_NAME"`
	Trials             *int     `env:"PSA_TRIALS"`
	Goroutines         *int     `env:"PSA_GOROUTINES"`
	Seed               *uint64  `env:"PSA_SEED"`
	MaxInvalidFraction *float64 `env:"PSA_MAX_INVALID_FRACTION"`
	Paired             *bool    `env:"PSA_PAIRED"`
	ReportDir          *string  `env:"PSA_REPORT_DIR"`
	Store              *string  `env:"PSA_STORE"`
}

// Default returns the reference scenario.
func Default() Config {
	return Config{
		Name:               "reference",
		Trials:             meta.TRIALS,
		Goroutines:         meta.GOROUTINES,
		Seed:               meta.SEED,
		MaxInvalidFraction: meta.MAX_INVALID_FRACTION,
		Paired:             false,
		Parameters:         model.DefaultParameters(),
		Strategies:         model.ReferenceStrategySpecs(),
		Sampling:           psa.ReferenceDraws(),
		Report: Report{
			Dir:          "reports",
			Alpha:        0.05,
			Interval:     string(cea.ConfidenceInterval),
			CostDigits:   2,
			EffectDigits: 3,
			ICERDigits:   3,
		},
	}
}

// Load overlays the YAML file at path (if any) and then the environment on
// Default. Unknown YAML keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var o overrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if o.Name != nil {
		c.Name = *o.Name
	}
	if o.Trials != nil {
		c.Trials = *o.Trials
	}
	if o.Goroutines != nil {
		c.Goroutines = *o.Goroutines
	}
	if o.Seed != nil {
		c.Seed = *o.Seed
	}
	if o.MaxInvalidFraction != nil {
		c.MaxInvalidFraction = *o.MaxInvalidFraction
	}
	if o.Paired != nil {
		c.Paired = *o.Paired
	}
	if o.ReportDir != nil {
		c.Report.Dir = *o.ReportDir
	}
	if o.Store != nil {
		c.Store = *o.Store
	}
	return nil
}

// ValidationError reports a scenario that cannot be run as configured.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return "invalid config: " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks the scenario before any analysis starts. Failures are
// reported as *ValidationError.
func (c Config) Validate() error {
	if err := c.validate(); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

func (c Config) validate() error {
	if c.Name == "" {
		return errors.New("name is required")
	}
	if c.Trials <= 0 {
		return fmt.Errorf("trials must be positive, got %d", c.Trials)
	}
	if c.Goroutines <= 0 {
		return fmt.Errorf("goroutines must be positive, got %d", c.Goroutines)
	}
	if c.MaxInvalidFraction < 0 || c.MaxInvalidFraction > 1 {
		return fmt.Errorf("maxInvalidFraction must be in [0, 1], got %v", c.MaxInvalidFraction)
	}
	if err := c.Parameters.Validate(); err != nil {
		return err
	}
	if len(c.Strategies) == 0 {
		return errors.New("at least one strategy is required")
	}
	if _, err := c.BuildStrategies(); err != nil {
		return err
	}
	if _, err := c.Sampler(); err != nil {
		return err
	}
	if _, err := cea.ParseIntervalKind(c.Report.Interval); err != nil {
		return err
	}
	if !(c.Report.Alpha > 0 && c.Report.Alpha < 1) {
		return fmt.Errorf("report alpha must be in (0, 1), got %v", c.Report.Alpha)
	}
	if c.Report.CostDigits < 0 || c.Report.EffectDigits < 0 || c.Report.ICERDigits < 0 {
		return errors.New("report digits must not be negative")
	}
	return nil
}

func (c Config) BuildStrategies() ([]model.Strategy, error) {
	return model.NewStrategies(c.Strategies)
}

func (c Config) Sampler() (*psa.ParameterSampler, error) {
	return psa.NewParameterSampler(c.Sampling)
}
