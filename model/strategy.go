package model

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
)

// DefaultVaxMultRule applies the vaccinated hospitalization multiplier to
// every vaccinated stratum.
const DefaultVaxMultRule = "vaccinated"

// StrategySpec describes a treatment allocation strategy. Rule is a boolean
// expression over highRisk, over65, comorbid and vaccinated selecting the
// strata that receive Drug; an empty rule treats nobody. VaxMultRule selects
// the strata whose hospitalization rate is scaled by vaxHospMult and defaults
// to DefaultVaxMultRule.
type StrategySpec struct {
	Name        string `yaml:"name"`
	Color       string `yaml:"color"`
	Drug        string `yaml:"drug"`
	Rule        string `yaml:"rule"`
	VaxMultRule string `yaml:"vaxMultRule,omitempty"`
}

// Strategy is a compiled StrategySpec.
type Strategy struct {
	StrategySpec
	eligible map[Stratum]bool
	vaxMult  map[Stratum]bool
}

// ReferenceStrategySpecs returns the five reference strategies in the order
// consumers index them. The first is the standard-of-care baseline.
//
// The reference "High Risk and Unvax" tree leaves the vaccinated high risk
// under 65 stratum at its unvaccinated rate. ConsistentStrategySpecs drops
// that exception.
func ReferenceStrategySpecs() []StrategySpec {
	return []StrategySpec{
		{Name: "Baseline", Color: "green", Drug: Paxlovid, Rule: "highRisk"},
		{
			Name:        "High Risk and Unvax",
			Color:       "blue",
			Drug:        PegLambda,
			Rule:        "highRisk && !vaccinated",
			VaxMultRule: "vaccinated && (over65 || !highRisk)",
		},
		{Name: "High Risk", Color: "orange", Drug: PegLambda, Rule: "highRisk"},
		{Name: "High Risk and Low Risk Unvax", Color: "red", Drug: PegLambda, Rule: "highRisk || !vaccinated"},
		{Name: "Everyone", Color: "yellow", Drug: PegLambda, Rule: "true"},
	}
}

// ConsistentStrategySpecs is ReferenceStrategySpecs with the vaccinated
// multiplier applied to every vaccinated stratum of every strategy.
func ConsistentStrategySpecs() []StrategySpec {
	specs := ReferenceStrategySpecs()
	for i := range specs {
		specs[i].VaxMultRule = ""
	}
	return specs
}

// NewStrategy compiles the rules of spec and resolves them against every
// stratum.
func NewStrategy(spec StrategySpec) (Strategy, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return Strategy{}, fmt.Errorf("strategy name is required")
	}

	eligible, err := tabulate(spec.Rule)
	if err != nil {
		return Strategy{}, fmt.Errorf("strategy %q: rule: %w", spec.Name, err)
	}
	vaxRule := spec.VaxMultRule
	if strings.TrimSpace(vaxRule) == "" {
		vaxRule = DefaultVaxMultRule
	}
	vaxMult, err := tabulate(vaxRule)
	if err != nil {
		return Strategy{}, fmt.Errorf("strategy %q: vaxMultRule: %w", spec.Name, err)
	}

	return Strategy{StrategySpec: spec, eligible: eligible, vaxMult: vaxMult}, nil
}

// tabulate evaluates a boolean rule for every stratum. An empty rule selects
// nothing.
func tabulate(rule string) (map[Stratum]bool, error) {
	selected := make(map[Stratum]bool)
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return selected, nil
	}

	program, err := expr.Compile(rule, expr.Env(Stratum{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	for _, s := range Strata() {
		out, err := expr.Run(program, s)
		if err != nil {
			return nil, fmt.Errorf("evaluate for %s: %w", s, err)
		}
		selected[s] = out.(bool)
	}
	return selected, nil
}

// NewStrategies compiles specs in order.
func NewStrategies(specs []StrategySpec) ([]Strategy, error) {
	strategies := make([]Strategy, 0, len(specs))
	for _, spec := range specs {
		s, err := NewStrategy(spec)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, s)
	}
	return strategies, nil
}

// ReferenceStrategies compiles ReferenceStrategySpecs.
func ReferenceStrategies() []Strategy {
	strategies, err := NewStrategies(ReferenceStrategySpecs())
	if err != nil {
		panic(fmt.Sprintf("reference strategies: %v", err))
	}
	return strategies
}

// Treats reports whether the strategy treats stratum s.
func (s Strategy) Treats(stratum Stratum) bool {
	return s.eligible[stratum]
}

// ScalesVaccinated reports whether stratum s has its hospitalization rate
// scaled by the vaccinated multiplier.
func (s Strategy) ScalesVaccinated(stratum Stratum) bool {
	return s.vaxMult[stratum]
}

// Names returns the strategy names in order.
func Names(strategies []Strategy) []string {
	names := make([]string, len(strategies))
	for i, s := range strategies {
		names[i] = s.Name
	}
	return names
}
