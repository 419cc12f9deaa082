package cea

import (
	"covidtree/utils"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

type IntervalKind string

const (
	// PercentileInterval spans the alpha/2 and 1-alpha/2 empirical quantiles.
	PercentileInterval IntervalKind = "percentile"
	// ConfidenceInterval is the normal interval around the mean.
	ConfidenceInterval IntervalKind = "confidence"
)

func ParseIntervalKind(s string) (IntervalKind, error) {
	switch s {
	case "p", string(PercentileInterval):
		return PercentileInterval, nil
	case "c", string(ConfidenceInterval):
		return ConfidenceInterval, nil
	}
	return "", fmt.Errorf("unknown interval kind %q", s)
}

type Interval struct {
	Lower float64
	Upper float64
}

func Percentile(values []float64, alpha float64) Interval {
	sorted := utils.SortedCopy(values)
	return Interval{
		Lower: stat.Quantile(alpha/2, stat.Empirical, sorted, nil),
		Upper: stat.Quantile(1-alpha/2, stat.Empirical, sorted, nil),
	}
}

func Confidence(values []float64, alpha float64) Interval {
	if len(values) < 2 {
		m := stat.Mean(values, nil)
		return Interval{Lower: m, Upper: m}
	}
	mean, sd := stat.MeanStdDev(values, nil)
	half := distuv.UnitNormal.Quantile(1-alpha/2) * sd / math.Sqrt(float64(len(values)))
	return Interval{Lower: mean - half, Upper: mean + half}
}

func (k IntervalKind) interval(values []float64, alpha float64) Interval {
	if k == PercentileInterval {
		return Percentile(values, alpha)
	}
	return Confidence(values, alpha)
}

// Row is one line of the cost-effectiveness table.
type Row struct {
	Strategy          string
	Color             string
	Baseline          bool
	Cost              float64
	Effect            float64
	CostInterval      Interval
	EffectInterval    Interval
	IncrementalCost   float64
	IncrementalEffect float64
	ICER              float64
	ICERErr           error // nil for the baseline row
}

// Table summarizes every strategy in input order with intervals at level alpha.
func (c *CEA) Table(kind IntervalKind, alpha float64) ([]Row, error) {
	if kind != PercentileInterval && kind != ConfidenceInterval {
		return nil, fmt.Errorf("unknown interval kind %q", kind)
	}
	if !(alpha > 0 && alpha < 1) {
		return nil, fmt.Errorf("significance level %v outside (0, 1)", alpha)
	}

	base := c.summaries[0]
	rows := make([]Row, len(c.strategies))
	for i, s := range c.strategies {
		sum := c.summaries[i]
		row := Row{
			Strategy:          s.Name,
			Color:             s.Color,
			Baseline:          i == 0,
			Cost:              sum.Cost,
			Effect:            sum.Effect,
			CostInterval:      kind.interval(s.Costs, alpha),
			EffectInterval:    kind.interval(s.Effects, alpha),
			IncrementalCost:   sum.Cost - base.Cost,
			IncrementalEffect: sum.Effect - base.Effect,
		}
		if i > 0 {
			row.ICER, row.ICERErr = c.ICER(s.Name)
		}
		rows[i] = row
	}
	return rows, nil
}
