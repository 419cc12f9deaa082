// Package model builds the treatment allocation decision tree: one chance
// subtree per strategy, stratifying the population by risk, age, comorbidity
// and vaccination down to a hospitalization outcome.
package model

import (
	"covidtree/tree"
	"fmt"
	"math"
)

const (
	DecisionName     = "allocation"
	HospitalizedName = "hospitalized"
	NoEventName      = "not hospitalized"
)

// outcomes are the two terminals every strategy converges to.
type outcomes struct {
	hospitalized *tree.Terminal
	none         *tree.Terminal
}

// Build assembles the allocation decision for params. Its alternatives are
// one subtree per strategy, in the given order and named after the strategy.
func Build(params Parameters, strategies []Strategy) (*tree.Decision, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	hospitalized, err := tree.NewTerminal(HospitalizedName, params.HospCost, 1)
	if err != nil {
		return nil, err
	}
	none, err := tree.NewTerminal(NoEventName, 0, 0)
	if err != nil {
		return nil, err
	}
	out := outcomes{hospitalized: hospitalized, none: none}

	children := make([]tree.Node, 0, len(strategies))
	for _, s := range strategies {
		b, err := newSubtree(s, params, out)
		if err != nil {
			return nil, err
		}
		child, err := b.build()
		if err != nil {
			return nil, fmt.Errorf("strategy %q: %w", s.Name, err)
		}
		children = append(children, child)
	}

	return tree.NewDecision(DecisionName, 0, 0, children)
}

type subtree struct {
	strategy Strategy
	params   Parameters
	drug     Drug
	outcomes outcomes
}

func newSubtree(s Strategy, params Parameters, out outcomes) (*subtree, error) {
	drug, err := params.Drug(s.Drug)
	if err != nil {
		return nil, &tree.ConstructionError{Node: s.Name, Reason: err.Error()}
	}
	return &subtree{strategy: s, params: params, drug: drug, outcomes: out}, nil
}

func (b *subtree) build() (tree.Node, error) {
	p := b.params

	comorbid, err := b.vaccination(Stratum{HighRisk: true, Over65: true, Comorbid: true}, p.VaxOver65)
	if err != nil {
		return nil, err
	}
	healthy, err := b.vaccination(Stratum{HighRisk: true, Over65: true}, p.VaxOver65)
	if err != nil {
		return nil, err
	}
	over65, err := b.split("HR/65+", p.Over65Comorbid, comorbid, healthy)
	if err != nil {
		return nil, err
	}
	under65, err := b.vaccination(Stratum{HighRisk: true, Comorbid: true}, p.VaxUnder65)
	if err != nil {
		return nil, err
	}
	highRisk, err := b.split("HR", p.HighRiskOver65, over65, under65)
	if err != nil {
		return nil, err
	}
	lowRisk, err := b.vaccination(Stratum{}, p.VaxUnder65)
	if err != nil {
		return nil, err
	}

	return tree.NewChance(b.strategy.Name, 0, 0, []tree.Node{highRisk, lowRisk}, []float64{p.HighRisk, 1 - p.HighRisk})
}

// vaccination splits stratum s into its vaccinated and unvaccinated leaves.
func (b *subtree) vaccination(s Stratum, coverage float64) (tree.Node, error) {
	s.Vaccinated = true
	vax, err := b.leaf(s)
	if err != nil {
		return nil, err
	}
	s.Vaccinated = false
	unvax, err := b.leaf(s)
	if err != nil {
		return nil, err
	}

	return b.split(s.Group(), coverage, vax, unvax)
}

// leaf is the hospitalization event of stratum s, treated if the strategy
// selects it and scaled by vaxHospMult where its vaccination rule applies.
func (b *subtree) leaf(s Stratum) (tree.Node, error) {
	prob := s.hospitalization(b.params)
	if b.strategy.ScalesVaccinated(s) {
		prob *= b.params.VaxHospMult
	}
	cost := 0.0
	if b.strategy.Treats(s) {
		prob *= b.drug.relativeRisk(s)
		cost = b.drug.Cost
	}

	name := b.name(s.Key())
	if math.IsNaN(prob) || prob < 0 || prob > 1 {
		return nil, &tree.InvalidParameterError{
			Name:   name + " hospitalization",
			Value:  prob,
			Reason: "probability outside [0,1]",
		}
	}

	return tree.NewChance(name, cost, 0,
		[]tree.Node{b.outcomes.hospitalized, b.outcomes.none},
		[]float64{prob, 1 - prob})
}

func (b *subtree) split(label string, prob float64, first, second tree.Node) (tree.Node, error) {
	return tree.NewChance(b.name(label), 0, 0, []tree.Node{first, second}, []float64{prob, 1 - prob})
}

func (b *subtree) name(label string) string {
	return b.strategy.Name + ":" + label
}
