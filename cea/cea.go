// Package cea compares strategies from their per-trial cost and effect
// observations. The first strategy is the baseline every ICER is taken against.
package cea

import (
	"covidtree/utils"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

var (
	ErrUnknownStrategy = errors.New("unknown strategy")
	ErrUnpaired        = errors.New("analysis is not paired")
)

// DomainError reports an ICER that is undefined for a strategy pair.
type DomainError struct {
	Strategy string
	Baseline string
	Reason   string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("ICER of %q against %q: %s", e.Strategy, e.Baseline, e.Reason)
}

type Strategy struct {
	Name    string
	Color   string
	Costs   []float64
	Effects []float64
}

// Summary holds the mean cost and effect of one strategy.
type Summary struct {
	Name   string
	Cost   float64
	Effect float64
}

type CEA struct {
	strategies []Strategy
	summaries  []Summary
	paired     bool
}

// NewCEA checks the observations and computes the per-strategy means.
// Paired analyses require every strategy to be observed on the same trials.
func NewCEA(strategies []Strategy, paired bool) (*CEA, error) {
	if len(strategies) == 0 {
		return nil, errors.New("no strategies to compare")
	}
	names := make([]string, 0, len(strategies))
	summaries := make([]Summary, len(strategies))
	for i, s := range strategies {
		if utils.FindIndex(names, s.Name) >= 0 {
			return nil, fmt.Errorf("duplicate strategy %q", s.Name)
		}
		names = append(names, s.Name)
		if len(s.Costs) == 0 || len(s.Costs) != len(s.Effects) {
			return nil, fmt.Errorf("strategy %q has %d costs and %d effects", s.Name, len(s.Costs), len(s.Effects))
		}
		if paired && len(s.Costs) != len(strategies[0].Costs) {
			return nil, fmt.Errorf("paired strategy %q has %d observations, baseline has %d", s.Name, len(s.Costs), len(strategies[0].Costs))
		}
		summaries[i] = Summary{
			Name:   s.Name,
			Cost:   stat.Mean(s.Costs, nil),
			Effect: stat.Mean(s.Effects, nil),
		}
	}
	return &CEA{strategies: strategies, summaries: summaries, paired: paired}, nil
}

func (c *CEA) Paired() bool {
	return c.paired
}

func (c *CEA) Baseline() Strategy {
	return c.strategies[0]
}

func (c *CEA) Strategies() []Strategy {
	return append([]Strategy(nil), c.strategies...)
}

func (c *CEA) Summaries() []Summary {
	return append([]Summary(nil), c.summaries...)
}

func (c *CEA) index(name string) (int, error) {
	for i, s := range c.strategies {
		if s.Name == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// ICER returns (mean cost - baseline mean cost) / (mean effect - baseline mean effect).
func (c *CEA) ICER(name string) (float64, error) {
	i, err := c.index(name)
	if err != nil {
		return 0, err
	}
	base, s := c.summaries[0], c.summaries[i]
	dCost, dEffect := s.Cost-base.Cost, s.Effect-base.Effect
	if dEffect == 0 {
		return 0, &DomainError{Strategy: s.Name, Baseline: base.Name, Reason: "no difference in mean effect"}
	}
	icer := dCost / dEffect
	if math.IsInf(icer, 0) || math.IsNaN(icer) {
		return 0, &DomainError{Strategy: s.Name, Baseline: base.Name, Reason: fmt.Sprintf("ratio %v/%v is not finite", dCost, dEffect)}
	}
	return icer, nil
}

type ICER struct {
	Strategy string
	Value    float64
	Err      error
}

// ICERs evaluates every non-baseline strategy. An undefined ratio is kept on
// its own entry and does not stop the others.
func (c *CEA) ICERs() []ICER {
	out := make([]ICER, 0, len(c.strategies)-1)
	for _, s := range c.strategies[1:] {
		v, err := c.ICER(s.Name)
		out = append(out, ICER{Strategy: s.Name, Value: v, Err: err})
	}
	return out
}

// Incremental returns the per-trial cost and effect differences against the
// baseline.
func (c *CEA) Incremental(name string) (costs, effects []float64, err error) {
	if !c.paired {
		return nil, nil, ErrUnpaired
	}
	i, err := c.index(name)
	if err != nil {
		return nil, nil, err
	}
	base, s := c.strategies[0], c.strategies[i]
	costs = make([]float64, len(s.Costs))
	effects = make([]float64, len(s.Effects))
	for k := range s.Costs {
		costs[k] = s.Costs[k] - base.Costs[k]
		effects[k] = s.Effects[k] - base.Effects[k]
	}
	return costs, effects, nil
}
