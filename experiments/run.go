package experiments

import (
	"context"
	"covidtree/cea"
	"covidtree/config"
	"covidtree/experiments/metrics"
	"covidtree/model"
	"covidtree/psa"
	"covidtree/store"
	"covidtree/tree"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Result is the outcome of one analysis.
type Result struct {
	RunID        int64 // zero when no store is configured
	Metric       metrics.RunMetric
	Observations *psa.Observations
	Rows         []cea.Row
	Dir          string
}

// BaseCase evaluates the scenario once at its configured parameters.
func BaseCase(cfg config.Config) (tree.Outcomes[tree.Expectation], error) {
	strategies, err := cfg.BuildStrategies()
	if err != nil {
		return tree.Outcomes[tree.Expectation]{}, err
	}
	root, err := model.Build(cfg.Parameters, strategies)
	if err != nil {
		return tree.Outcomes[tree.Expectation]{}, err
	}
	return tree.Evaluate(root)
}

func newPSA(cfg config.Config, goroutines int) (*psa.PSA, error) {
	strategies, err := cfg.BuildStrategies()
	if err != nil {
		return nil, err
	}
	sampler, err := cfg.Sampler()
	if err != nil {
		return nil, err
	}
	return psa.NewPSA(goroutines, strategies,
		psa.WithTrials(cfg.Trials),
		psa.WithSeed(cfg.Seed),
		psa.WithParameters(cfg.Parameters),
		psa.WithSampler(sampler),
		psa.WithMaxInvalidFraction(cfg.MaxInvalidFraction),
		psa.WithMetrics(),
	), nil
}

// Run executes the PSA for cfg, writes the CSV reports and, when a store is
// configured, persists the observations.
func Run(ctx context.Context, cfg config.Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	p, err := newPSA(cfg, cfg.Goroutines)
	if err != nil {
		return Result{}, err
	}

	log.Info().Msgf("starting scenario %s...", cfg.Name)
	obs, metric, err := p.Run(ctx)
	if err != nil {
		return Result{Metric: metric, Observations: obs}, fmt.Errorf("psa: %w", err)
	}
	log.Info().Msgf("completed %d trials in %s (%d skipped)", metric.Committed, metric.Duration, metric.Skipped)

	strategies := strategiesFrom(cfg.Strategies, obs)
	rows, err := table(cfg, strategies)
	if err != nil {
		return Result{Metric: metric, Observations: obs}, err
	}
	result := Result{Metric: metric, Observations: obs, Rows: rows}

	writer, err := metrics.NewWriter(cfg.Report.Dir, cfg.Name)
	if err != nil {
		return result, err
	}
	result.Dir = writer.Dir()
	if err := writer.WriteRunMetric(metric); err != nil {
		return result, err
	}
	if err := writer.WriteObservations(strategies, obs.Trials); err != nil {
		return result, err
	}
	if err := writer.WriteCETable(rows, digits(cfg)); err != nil {
		return result, err
	}

	if cfg.Store != "" {
		db, err := store.Open(cfg.Store)
		if err != nil {
			return result, err
		}
		defer db.Close()
		run := store.Run{Name: cfg.Name, Seed: cfg.Seed, Paired: cfg.Paired, Metric: metric}
		result.RunID, err = db.SaveRun(ctx, run, strategies, obs.Trials)
		if err != nil {
			return result, err
		}
		log.Info().Msgf("stored run %d in %s", result.RunID, cfg.Store)
	}

	log.Info().Msgf("wrote reports to %s", result.Dir)
	return result, nil
}

// Report rebuilds the CE table of a stored run. A zero runID selects the
// latest run.
func Report(ctx context.Context, cfg config.Config, runID int64) (Result, error) {
	if cfg.Store == "" {
		return Result{}, errors.New("no store configured")
	}
	db, err := store.Open(cfg.Store)
	if err != nil {
		return Result{}, err
	}
	defer db.Close()

	if runID == 0 {
		runID, err = db.LatestRun(ctx)
		if err != nil {
			return Result{}, err
		}
	}
	rec, err := db.LoadRun(ctx, runID)
	if err != nil {
		return Result{}, err
	}

	cfg.Paired = rec.Paired
	rows, err := table(cfg, rec.Strategies)
	if err != nil {
		return Result{}, err
	}
	writer, err := metrics.NewWriter(cfg.Report.Dir, rec.Name)
	if err != nil {
		return Result{}, err
	}
	if err := writer.WriteCETable(rows, digits(cfg)); err != nil {
		return Result{}, err
	}
	log.Info().Msgf("wrote CE table of run %d to %s", runID, writer.Dir())
	return Result{RunID: runID, Metric: rec.Metric, Rows: rows, Dir: writer.Dir()}, nil
}

func strategiesFrom(specs []model.StrategySpec, obs *psa.Observations) []cea.Strategy {
	out := make([]cea.Strategy, 0, len(specs))
	for _, spec := range specs {
		costs, effects, _ := obs.Strategy(spec.Name)
		out = append(out, cea.Strategy{Name: spec.Name, Color: spec.Color, Costs: costs, Effects: effects})
	}
	return out
}

func table(cfg config.Config, strategies []cea.Strategy) ([]cea.Row, error) {
	analysis, err := cea.NewCEA(strategies, cfg.Paired)
	if err != nil {
		return nil, fmt.Errorf("cea: %w", err)
	}
	kind, err := cea.ParseIntervalKind(cfg.Report.Interval)
	if err != nil {
		return nil, err
	}
	rows, err := analysis.Table(kind, cfg.Report.Alpha)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		if r.ICERErr != nil {
			log.Warn().Msgf("%v", r.ICERErr)
		}
	}
	return rows, nil
}

func digits(cfg config.Config) metrics.Digits {
	return metrics.Digits{Cost: cfg.Report.CostDigits, Effect: cfg.Report.EffectDigits, ICER: cfg.Report.ICERDigits}
}
