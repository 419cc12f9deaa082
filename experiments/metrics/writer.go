package metrics

import (
	"covidtree/cea"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Digits sets the decimal places per CE table column.
type Digits struct {
	Cost   int
	Effect int
	ICER   int
}

func DefaultDigits() Digits {
	return Digits{Cost: 2, Effect: 3, ICER: 3}
}

type Writer struct {
	baseDir string
}

// dirStamp names report folders; it sorts by time and avoids ':' for
// portable paths.
const dirStamp = "20060102T150405.000000000Z"

var now = time.Now

// NewWriter creates a fresh report folder under dir/name. Writers created
// within the same instant get numbered suffixes so reports never overwrite
// each other.
func NewWriter(dir, name string) (*Writer, error) {
	parent := filepath.Join(dir, name)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// Create a subfolder named by current timestamp
	timestamp := now().UTC().Format(dirStamp)
	baseDir := filepath.Join(parent, timestamp)
	for i := 1; ; i++ {
		err := os.Mkdir(baseDir, 0755)
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		baseDir = filepath.Join(parent, fmt.Sprintf("%s-%d", timestamp, i))
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) write(file string, header []string, rows [][]string) error {
	path := filepath.Join(w.baseDir, file)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", file, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write %s header: %w", file, err)
	}
	err = writer.WriteAll(rows)
	if err != nil {
		return fmt.Errorf("failed to write %s rows: %w", file, err)
	}
	return nil
}

func (w *Writer) WriteRunMetric(metric RunMetric) error {
	return w.WriteRunMetrics("run_metric.csv", []RunMetric{metric})
}

func (w *Writer) WriteRunMetrics(file string, runs []RunMetric) error {
	header := []string{"goroutines", "trials", "committed", "skipped", "start_time", "duration"}
	rows := make([][]string, 0, len(runs))
	for _, metric := range runs {
		rows = append(rows, []string{
			strconv.Itoa(metric.Goroutines),
			strconv.Itoa(metric.Trials),
			strconv.Itoa(metric.Committed),
			strconv.Itoa(metric.Skipped),
			metric.StartTime.Format(time.RFC3339),
			metric.Duration.String(),
		})
	}
	return w.write(file, header, rows)
}

// WriteObservations writes one row per strategy and committed trial.
// trials maps observation positions to trial indices; nil numbers them in order.
func (w *Writer) WriteObservations(strategies []cea.Strategy, trials []int) error {
	header := []string{"trial", "strategy", "cost", "effect"}
	var rows [][]string
	for _, s := range strategies {
		for k := range s.Costs {
			trial := k
			if k < len(trials) {
				trial = trials[k]
			}
			rows = append(rows, []string{
				strconv.Itoa(trial),
				s.Name,
				strconv.FormatFloat(s.Costs[k], 'g', -1, 64),
				strconv.FormatFloat(s.Effects[k], 'g', -1, 64),
			})
		}
	}
	return w.write("observations.csv", header, rows)
}

func (w *Writer) WriteCETable(rows []cea.Row, digits Digits) error {
	header := []string{
		"strategy", "color", "baseline",
		"cost", "cost_lower", "cost_upper",
		"effect", "effect_lower", "effect_upper",
		"incremental_cost", "incremental_effect", "icer",
	}
	cost := func(v float64) string { return strconv.FormatFloat(v, 'f', digits.Cost, 64) }
	effect := func(v float64) string { return strconv.FormatFloat(v, 'f', digits.Effect, 64) }

	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		icer := ""
		var domain *cea.DomainError
		switch {
		case r.Baseline:
		case errors.As(r.ICERErr, &domain):
			icer = "undefined"
		case r.ICERErr != nil:
			return fmt.Errorf("icer of %s: %w", r.Strategy, r.ICERErr)
		default:
			icer = strconv.FormatFloat(r.ICER, 'f', digits.ICER, 64)
		}
		out = append(out, []string{
			r.Strategy, r.Color, strconv.FormatBool(r.Baseline),
			cost(r.Cost), cost(r.CostInterval.Lower), cost(r.CostInterval.Upper),
			effect(r.Effect), effect(r.EffectInterval.Lower), effect(r.EffectInterval.Upper),
			cost(r.IncrementalCost), effect(r.IncrementalEffect), icer,
		})
	}
	return w.write("ce_table.csv", header, out)
}
