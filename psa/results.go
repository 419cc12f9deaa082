package psa

import (
	"covidtree/tree"
	"covidtree/utils"
	"fmt"
	"sync"
)

// Observations are the per-strategy cost and effect sequences of a run,
// aligned by trial: Costs[s][k] and Effects[s][k] both come from trial Trials[k].
// Skipped lists, in order, the trials dropped for invalid sampled parameters.
type Observations struct {
	Strategies []string
	Trials     []int
	Skipped    []int
	Costs      [][]float64
	Effects    [][]float64
}

// Len is the number of committed trials.
func (o *Observations) Len() int {
	return len(o.Trials)
}

func (o *Observations) Strategy(name string) (costs, effects []float64, ok bool) {
	i := utils.FindIndex(o.Strategies, name)
	if i < 0 {
		return nil, nil, false
	}
	return o.Costs[i], o.Effects[i], true
}

// results holds one slot per trial. A trial's strategy results are written
// together under the lock, so a slot is either complete or empty. A skipped
// trial leaves its slot empty and is flagged instead.
type results struct {
	mu         sync.Mutex
	strategies []string
	slots      [][]tree.Expectation
	skipped    []bool
	nSkipped   int
}

func newResults(strategies []string, trials int) *results {
	return &results{
		strategies: strategies,
		slots:      make([][]tree.Expectation, trials),
		skipped:    make([]bool, trials),
	}
}

func (r *results) commit(trial int, out tree.Outcomes[tree.Expectation]) error {
	if out.Len() != len(r.strategies) {
		return fmt.Errorf("trial %d produced %d strategies, expected %d", trial, out.Len(), len(r.strategies))
	}
	row := make([]tree.Expectation, out.Len())
	for i := range row {
		name, e := out.At(i)
		if name != r.strategies[i] {
			return fmt.Errorf("trial %d produced strategy %q at position %d, expected %q", trial, name, i, r.strategies[i])
		}
		row[i] = e
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[trial] = row
	return nil
}

func (r *results) skip(trial int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.skipped[trial] {
		r.skipped[trial] = true
		r.nSkipped++
	}
}

func (r *results) skippedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nSkipped
}

func (r *results) observations() *Observations {
	r.mu.Lock()
	defer r.mu.Unlock()

	obs := &Observations{
		Strategies: append([]string(nil), r.strategies...),
		Costs:      make([][]float64, len(r.strategies)),
		Effects:    make([][]float64, len(r.strategies)),
	}
	for trial, row := range r.slots {
		if r.skipped[trial] {
			obs.Skipped = append(obs.Skipped, trial)
			continue
		}
		if row == nil {
			continue
		}
		obs.Trials = append(obs.Trials, trial)
		for s, e := range row {
			obs.Costs[s] = append(obs.Costs[s], e.Cost)
			obs.Effects[s] = append(obs.Effects[s], e.Utility)
		}
	}
	return obs
}
