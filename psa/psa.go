package psa

import (
	"context"
	"covidtree/experiments/metrics"
	"covidtree/meta"
	"covidtree/model"
	"covidtree/tree"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

type Option func(p *PSA)

// PSA repeats the base-case evaluation over resampled parameters.
type PSA struct {
	goroutines int
	trials     int
	seed       uint64
	params     model.Parameters
	sampler    Sampler
	strategies []model.Strategy
	maxInvalid float64
	metrics    metrics.Collector
}

func WithTrials(trials int) Option {
	return func(p *PSA) {
		if trials > 0 {
			p.trials = trials
		}
	}
}

func WithSeed(seed uint64) Option {
	return func(p *PSA) {
		p.seed = seed
	}
}

func WithParameters(params model.Parameters) Option {
	return func(p *PSA) {
		p.params = params
	}
}

func WithSampler(sampler Sampler) Option {
	return func(p *PSA) {
		if sampler != nil {
			p.sampler = sampler
		}
	}
}

// WithMaxInvalidFraction sets the share of trials that may be skipped for
// invalid parameters before the run fails.
func WithMaxInvalidFraction(fraction float64) Option {
	return func(p *PSA) {
		if fraction >= 0 && fraction <= 1 {
			p.maxInvalid = fraction
		}
	}
}

func WithMetrics() Option {
	return func(p *PSA) {
		p.metrics = metrics.NewCollector()
	}
}

func NewPSA(goroutines int, strategies []model.Strategy, options ...Option) *PSA {
	p := &PSA{ // Default values
		goroutines: goroutines,
		trials:     meta.TRIALS,
		seed:       meta.SEED,
		params:     model.DefaultParameters(),
		sampler:    ReferenceSampler(),
		strategies: strategies,
		maxInvalid: meta.MAX_INVALID_FRACTION,
		metrics:    metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(p)
	}
	if p.goroutines <= 0 {
		panic("Must specify at least one goroutine")
	}
	return p
}

func (p *PSA) Trials() int {
	return p.trials
}

// Trial evaluates trial i in isolation. It draws from its own source seeded
// with seed+i, so the result does not depend on scheduling.
func (p *PSA) Trial(i int) (tree.Outcomes[tree.Expectation], error) {
	src := rand.NewSource(p.seed + uint64(i))
	params, err := p.sampler.Sample(p.params, src)
	if err != nil {
		return tree.Outcomes[tree.Expectation]{}, fmt.Errorf("sample parameters: %w", err)
	}
	root, err := model.Build(params, p.strategies)
	if err != nil {
		return tree.Outcomes[tree.Expectation]{}, err
	}
	return tree.Evaluate(root)
}

// Run evaluates all trials on the worker pool. Trials with invalid sampled
// parameters are skipped and counted; any other error aborts the run. The
// observations collected so far are returned alongside an error.
func (p *PSA) Run(ctx context.Context) (*Observations, metrics.RunMetric, error) {
	res := newResults(model.Names(p.strategies), p.trials)
	p.metrics.Start(p.goroutines, p.trials)
	log.Info().Msgf("Starting PSA with %d trials on %d goroutines", p.trials, p.goroutines)

	tasks := make(chan int, p.trials)
	for i := 0; i < p.trials; i++ {
		tasks <- i
	}
	close(tasks)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < p.goroutines; w++ {
		g.Go(func() error {
			for i := range tasks {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := p.runTrial(i, res); err != nil {
					return err
				}
			}
			return nil
		})
	}
	err := g.Wait()
	metric := p.metrics.Complete()
	obs := res.observations()
	if err != nil {
		log.Error().Err(err).Msg("PSA aborted")
		return obs, metric, err
	}

	skipped := res.skippedCount()
	if skipped > 0 {
		log.Warn().Ints("trials", obs.Skipped).Msgf("Skipped %d of %d trials with invalid parameters", skipped, p.trials)
	}
	if float64(skipped) > p.maxInvalid*float64(p.trials) {
		return obs, metric, &TooManyInvalidTrialsError{Skipped: skipped, Trials: p.trials, MaxFraction: p.maxInvalid}
	}
	log.Info().Msgf("Completed PSA with %d trials", obs.Len())
	return obs, metric, nil
}

func (p *PSA) runTrial(i int, res *results) error {
	out, err := p.Trial(i)
	var invalid *tree.InvalidParameterError
	switch {
	case errors.As(err, &invalid):
		res.skip(i)
		p.metrics.AddSkipped()
		log.Debug().Err(err).Msgf("Skipping trial %d", i)
		return nil
	case err != nil:
		return fmt.Errorf("trial %d: %w", i, err)
	}
	if err := res.commit(i, out); err != nil {
		return err
	}
	p.metrics.AddTrial()
	return nil
}

// TooManyInvalidTrialsError reports a run whose skipped share exceeded the
// configured limit.
type TooManyInvalidTrialsError struct {
	Skipped     int
	Trials      int
	MaxFraction float64
}

func (e *TooManyInvalidTrialsError) Error() string {
	return fmt.Sprintf("%d of %d trials had invalid parameters, more than the allowed fraction %v", e.Skipped, e.Trials, e.MaxFraction)
}
