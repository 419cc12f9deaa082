package main

import (
	"context"
	"covidtree/config"
	"covidtree/experiments"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "covidtree",
		Short: "Cost-effectiveness of COVID-19 treatment allocation strategies",
		Long: `covidtree evaluates a decision tree of treatment allocation strategies,
runs a probabilistic sensitivity analysis over uncertain parameters and
reports incremental cost-effectiveness ratios against the baseline strategy.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	configPath := cmd.PersistentFlags().StringP("config", "c", "", "Scenario YAML file")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		if *debugLogging {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
	}

	cmd.AddCommand(newRunCommand(configPath))
	cmd.AddCommand(newBaseCommand(configPath))
	cmd.AddCommand(newReportCommand(configPath))
	cmd.AddCommand(newThroughputCommand(configPath))

	return cmd
}

func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newRunCommand(configPath *string) *cobra.Command {
	var (
		trials     int
		goroutines int
		seed       uint64
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the probabilistic sensitivity analysis and write reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("trials") {
				cfg.Trials = trials
			}
			if cmd.Flags().Changed("goroutines") {
				cfg.Goroutines = goroutines
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			}

			result, err := experiments.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			printRows(cmd, result)
			return nil
		},
	}
	cmd.Flags().IntVarP(&trials, "trials", "n", 0, "Number of trials")
	cmd.Flags().IntVarP(&goroutines, "goroutines", "g", 0, "Number of workers")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Base seed; trial i uses seed+i")
	return cmd
}

func newBaseCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "base",
		Short: "Evaluate every strategy once at the configured parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			out, err := experiments.BaseCase(cfg)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-30s %12s %14s\n", "strategy", "cost", "hospitalized")
			for i := 0; i < out.Len(); i++ {
				name, e := out.At(i)
				fmt.Fprintf(w, "%-30s %12.2f %14.6f\n", name, e.Cost, e.Utility)
			}
			return nil
		},
	}
}

func newReportCommand(configPath *string) *cobra.Command {
	var runID int64
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Rebuild the CE table of a stored run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			result, err := experiments.Report(cmd.Context(), cfg, runID)
			if err != nil {
				return err
			}
			printRows(cmd, result)
			return nil
		},
	}
	cmd.Flags().Int64Var(&runID, "run", 0, "Stored run id (default latest)")
	return cmd
}

func newThroughputCommand(configPath *string) *cobra.Command {
	var goroutines []int
	cmd := &cobra.Command{
		Use:   "throughput",
		Short: "Time the analysis for several worker counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			runs, err := experiments.RunThroughput(cmd.Context(), cfg, goroutines)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, run := range runs {
				fmt.Fprintf(w, "goroutines=%d trials=%d duration=%s\n", run.Goroutines, run.Committed, run.Duration)
			}
			return nil
		},
	}
	cmd.Flags().IntSliceVar(&goroutines, "goroutines", []int{1, 2, 4, 8, 16}, "Worker counts to compare")
	return cmd
}

func printRows(cmd *cobra.Command, result experiments.Result) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-30s %12s %12s %14s\n", "strategy", "cost", "effect", "ICER")
	for _, r := range result.Rows {
		icer := "-"
		switch {
		case r.Baseline:
		case r.ICERErr != nil:
			icer = "undefined"
		default:
			icer = fmt.Sprintf("%.3f", r.ICER)
		}
		fmt.Fprintf(w, "%-30s %12.2f %12.6f %14s\n", r.Strategy, r.Cost, r.Effect, icer)
	}
	if result.Dir != "" {
		fmt.Fprintf(w, "reports: %s\n", result.Dir)
	}
}

func execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return newRootCommand().ExecuteContext(ctx)
}
