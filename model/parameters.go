package model

import (
	"covidtree/tree"
	"fmt"
	"math"
)

// Parameters is the input bundle of the treatment allocation model.
type Parameters struct {
	HighRisk       float64 `yaml:"highRisk"`       // Proportion high risk for severe disease
	HighRiskOver65 float64 `yaml:"highRiskOver65"` // Proportion of high risk who are over 65
	Over65Comorbid float64 `yaml:"over65Comorbid"` // Proportion of high risk over 65 with a comorbidity

	HospComorbidOver65    float64 `yaml:"hospComorbidOver65"`
	HospComorbidUnder65   float64 `yaml:"hospComorbidUnder65"`
	HospNoComorbidOver65  float64 `yaml:"hospNoComorbidOver65"`
	HospNoComorbidUnder65 float64 `yaml:"hospNoComorbidUnder65"`

	VaxUnder65  float64 `yaml:"vaxUnder65"`
	VaxOver65   float64 `yaml:"vaxOver65"`
	VaxHospMult float64 `yaml:"vaxHospMult"` // Hospitalization multiplier for the vaccinated

	DrugCost        float64 `yaml:"drugCost"`
	DrugRRVax       float64 `yaml:"drugRRVax"`   // Vaccinated or low risk
	DrugRRUnvax     float64 `yaml:"drugRRUnvax"` // Unvaccinated high risk
	PaxlovidCost    float64 `yaml:"paxlovidCost"`
	PaxlovidRRVax   float64 `yaml:"paxlovidRRVax"`
	PaxlovidRRUnvax float64 `yaml:"paxlovidRRUnvax"`

	HospCost float64 `yaml:"hospCost"`
}

// DefaultParameters returns the reference US scenario.
func DefaultParameters() Parameters {
	return Parameters{
		HighRisk:       0.37,
		HighRiskOver65: 0.55,
		Over65Comorbid: 0.76,

		HospComorbidOver65:    0.110,
		HospComorbidUnder65:   0.016,
		HospNoComorbidOver65:  0.042,
		HospNoComorbidUnder65: 0.008,

		VaxUnder65:  0.7,
		VaxOver65:   0.9,
		VaxHospMult: 0.25,

		DrugCost:        530,
		DrugRRVax:       0.49,
		DrugRRUnvax:     0.11,
		PaxlovidCost:    530,
		PaxlovidRRVax:   0.30,
		PaxlovidRRUnvax: 0.11,

		HospCost: 20000,
	}
}

type kind int

const (
	proportion kind = iota // in [0,1]
	amount                 // >= 0
)

type field struct {
	name string
	kind kind
	ptr  func(p *Parameters) *float64
}

var fields = []field{
	{"highRisk", proportion, func(p *Parameters) *float64 { return &p.HighRisk }},
	{"highRiskOver65", proportion, func(p *Parameters) *float64 { return &p.HighRiskOver65 }},
	{"over65Comorbid", proportion, func(p *Parameters) *float64 { return &p.Over65Comorbid }},
	{"hospComorbidOver65", proportion, func(p *Parameters) *float64 { return &p.HospComorbidOver65 }},
	{"hospComorbidUnder65", proportion, func(p *Parameters) *float64 { return &p.HospComorbidUnder65 }},
	{"hospNoComorbidOver65", proportion, func(p *Parameters) *float64 { return &p.HospNoComorbidOver65 }},
	{"hospNoComorbidUnder65", proportion, func(p *Parameters) *float64 { return &p.HospNoComorbidUnder65 }},
	{"vaxUnder65", proportion, func(p *Parameters) *float64 { return &p.VaxUnder65 }},
	{"vaxOver65", proportion, func(p *Parameters) *float64 { return &p.VaxOver65 }},
	{"vaxHospMult", amount, func(p *Parameters) *float64 { return &p.VaxHospMult }},
	{"drugCost", amount, func(p *Parameters) *float64 { return &p.DrugCost }},
	{"drugRRVax", amount, func(p *Parameters) *float64 { return &p.DrugRRVax }},
	{"drugRRUnvax", amount, func(p *Parameters) *float64 { return &p.DrugRRUnvax }},
	{"paxlovidCost", amount, func(p *Parameters) *float64 { return &p.PaxlovidCost }},
	{"paxlovidRRVax", amount, func(p *Parameters) *float64 { return &p.PaxlovidRRVax }},
	{"paxlovidRRUnvax", amount, func(p *Parameters) *float64 { return &p.PaxlovidRRUnvax }},
	{"hospCost", amount, func(p *Parameters) *float64 { return &p.HospCost }},
}

func lookup(name string) (field, bool) {
	for _, f := range fields {
		if f.name == name {
			return f, true
		}
	}
	return field{}, false
}

// ParameterNames lists the names accepted by Get and Set.
func ParameterNames() []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.name
	}
	return names
}

func (p Parameters) Get(name string) (float64, error) {
	f, ok := lookup(name)
	if !ok {
		return 0, fmt.Errorf("unknown parameter %q", name)
	}
	return *f.ptr(&p), nil
}

// Set returns a copy of p with the named parameter replaced.
func (p Parameters) Set(name string, value float64) (Parameters, error) {
	f, ok := lookup(name)
	if !ok {
		return p, fmt.Errorf("unknown parameter %q", name)
	}
	*f.ptr(&p) = value
	return p, nil
}

// Validate reports the first parameter outside its physically valid range.
func (p Parameters) Validate() error {
	for _, f := range fields {
		v := *f.ptr(&p)
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			return &tree.InvalidParameterError{Name: f.name, Value: v, Reason: "must be finite"}
		case v < 0:
			return &tree.InvalidParameterError{Name: f.name, Value: v, Reason: "cannot be negative"}
		case f.kind == proportion && v > 1:
			return &tree.InvalidParameterError{Name: f.name, Value: v, Reason: "proportion exceeds 1"}
		}
	}
	return nil
}
