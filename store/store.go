// Package store persists PSA runs and their observations in SQLite.
package store

import (
	"context"
	"covidtree/cea"
	"covidtree/experiments/metrics"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

var ErrNotFound = errors.New("run not found")

// Run describes one stored PSA run.
type Run struct {
	ID     int64
	Name   string
	Seed   uint64
	Paired bool
	Metric metrics.RunMetric
}

// Record is a run together with its observations. Trials[k] is the trial
// index of the k-th observation of every strategy.
type Record struct {
	Run
	Strategies []cea.Strategy
	Trials     []int
}

type Store struct {
	sqlDB *sql.DB
}

func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveRun stores a run and all its observations in one transaction and
// returns the new run id.
func (s *Store) SaveRun(ctx context.Context, run Run, strategies []cea.Strategy, trials []int) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (name, seed, paired, goroutines, trials, committed, skipped, started_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Name,
		int64(run.Seed),
		run.Paired,
		run.Metric.Goroutines,
		run.Metric.Trials,
		run.Metric.Committed,
		run.Metric.Skipped,
		run.Metric.StartTime.UTC().UnixMilli(),
		run.Metric.Duration.Milliseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	insert, err := tx.PrepareContext(ctx,
		`INSERT INTO observations (run_id, position, seq, trial, cost, effect) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare observations: %w", err)
	}
	defer insert.Close()

	for pos, strategy := range strategies {
		if len(strategy.Costs) != len(strategy.Effects) {
			return 0, fmt.Errorf("strategy %q has %d costs and %d effects", strategy.Name, len(strategy.Costs), len(strategy.Effects))
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO strategies (run_id, position, name, color) VALUES (?, ?, ?, ?)`,
			id, pos, strategy.Name, strategy.Color,
		); err != nil {
			return 0, fmt.Errorf("insert strategy %q: %w", strategy.Name, err)
		}
		for k := range strategy.Costs {
			trial := k
			if k < len(trials) {
				trial = trials[k]
			}
			if _, err := insert.ExecContext(ctx, id, pos, k, trial, strategy.Costs[k], strategy.Effects[k]); err != nil {
				return 0, fmt.Errorf("insert observation: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit run: %w", err)
	}
	return id, nil
}

func (s *Store) LoadRun(ctx context.Context, id int64) (Record, error) {
	var (
		rec        Record
		seed       int64
		startedAt  int64
		durationMs int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, name, seed, paired, goroutines, trials, committed, skipped, started_at, duration_ms
		 FROM runs WHERE id = ?`, id,
	).Scan(
		&rec.ID, &rec.Name, &seed, &rec.Paired,
		&rec.Metric.Goroutines, &rec.Metric.Trials, &rec.Metric.Committed, &rec.Metric.Skipped,
		&startedAt, &durationMs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("load run %d: %w", id, err)
	}
	rec.Seed = uint64(seed)
	rec.Metric.StartTime = time.UnixMilli(startedAt).UTC()
	rec.Metric.Duration = time.Duration(durationMs) * time.Millisecond

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT name, color FROM strategies WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return Record{}, fmt.Errorf("load strategies: %w", err)
	}
	for rows.Next() {
		var strategy cea.Strategy
		if err := rows.Scan(&strategy.Name, &strategy.Color); err != nil {
			rows.Close()
			return Record{}, fmt.Errorf("scan strategy: %w", err)
		}
		rec.Strategies = append(rec.Strategies, strategy)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Record{}, fmt.Errorf("load strategies: %w", err)
	}

	rows, err = s.sqlDB.QueryContext(ctx,
		`SELECT position, trial, cost, effect FROM observations WHERE run_id = ? ORDER BY position, seq`, id)
	if err != nil {
		return Record{}, fmt.Errorf("load observations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			pos, trial   int
			cost, effect float64
		)
		if err := rows.Scan(&pos, &trial, &cost, &effect); err != nil {
			return Record{}, fmt.Errorf("scan observation: %w", err)
		}
		if pos >= len(rec.Strategies) {
			return Record{}, fmt.Errorf("observation for unknown strategy position %d", pos)
		}
		rec.Strategies[pos].Costs = append(rec.Strategies[pos].Costs, cost)
		rec.Strategies[pos].Effects = append(rec.Strategies[pos].Effects, effect)
		if pos == 0 {
			rec.Trials = append(rec.Trials, trial)
		}
	}
	if err := rows.Err(); err != nil {
		return Record{}, fmt.Errorf("load observations: %w", err)
	}
	return rec, nil
}

// LatestRun returns the id of the most recently stored run.
func (s *Store) LatestRun(ctx context.Context) (int64, error) {
	var id int64
	err := s.sqlDB.QueryRowContext(ctx, `SELECT id FROM runs ORDER BY id DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("latest run: %w", err)
	}
	return id, nil
}
