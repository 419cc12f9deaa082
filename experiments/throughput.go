package experiments

import (
	"context"
	"covidtree/config"
	"covidtree/experiments/metrics"
	"fmt"

	"github.com/rs/zerolog/log"
)

// RunThroughput runs the scenario once per goroutine count and records how
// long each run took. Observations are discarded.
func RunThroughput(ctx context.Context, cfg config.Config, goroutines []int) ([]metrics.RunMetric, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(goroutines) == 0 {
		return nil, fmt.Errorf("no goroutine counts given")
	}

	writer, err := metrics.NewWriter(cfg.Report.Dir, cfg.Name+"-throughput")
	if err != nil {
		return nil, err
	}

	log.Info().Msg("starting throughput experiment...")
	runs := make([]metrics.RunMetric, 0, len(goroutines))
	for _, n := range goroutines {
		if n <= 0 {
			return runs, fmt.Errorf("goroutine count must be positive, got %d", n)
		}
		p, err := newPSA(cfg, n)
		if err != nil {
			return runs, err
		}
		log.Info().Msgf("starting run with %d goroutines...", n)
		_, metric, err := p.Run(ctx)
		if err != nil {
			return runs, fmt.Errorf("psa with %d goroutines: %w", n, err)
		}
		runs = append(runs, metric)
		log.Info().Msgf("completed run with %d goroutines in %s", n, metric.Duration)
	}

	if err := writer.WriteRunMetrics("throughput.csv", runs); err != nil {
		return runs, err
	}
	return runs, nil
}
