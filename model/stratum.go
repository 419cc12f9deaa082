package model

import (
	"fmt"
	"strings"
)

// Stratum is one population cell at the bottom of a strategy subtree.
// Field tags name the variables visible to strategy rules.
type Stratum struct {
	HighRisk   bool `expr:"highRisk"`
	Over65     bool `expr:"over65"`
	Comorbid   bool `expr:"comorbid"`
	Vaccinated bool `expr:"vaccinated"`
}

// Strata returns every leaf stratum in tree order. High risk patients under 65
// are counted as comorbid and low risk patients as under 65 without comorbidity.
func Strata() []Stratum {
	return []Stratum{
		{HighRisk: true, Over65: true, Comorbid: true, Vaccinated: true},
		{HighRisk: true, Over65: true, Comorbid: true, Vaccinated: false},
		{HighRisk: true, Over65: true, Comorbid: false, Vaccinated: true},
		{HighRisk: true, Over65: true, Comorbid: false, Vaccinated: false},
		{HighRisk: true, Over65: false, Comorbid: true, Vaccinated: true},
		{HighRisk: true, Over65: false, Comorbid: true, Vaccinated: false},
		{HighRisk: false, Over65: false, Comorbid: false, Vaccinated: true},
		{HighRisk: false, Over65: false, Comorbid: false, Vaccinated: false},
	}
}

// Group labels the stratum without its vaccination status, e.g. "HR/65+/COMORB".
func (s Stratum) Group() string {
	parts := make([]string, 0, 3)
	if s.HighRisk {
		parts = append(parts, "HR")
	} else {
		parts = append(parts, "LR")
	}
	if s.Over65 {
		parts = append(parts, "65+")
	} else {
		parts = append(parts, "<65")
	}
	if s.Comorbid {
		parts = append(parts, "COMORB")
	} else {
		parts = append(parts, "NOCOMORB")
	}
	return strings.Join(parts, "/")
}

// Key labels the stratum, e.g. "HR/65+/COMORB/VAX".
func (s Stratum) Key() string {
	if s.Vaccinated {
		return s.Group() + "/VAX"
	}
	return s.Group() + "/UNVAX"
}

func (s Stratum) String() string {
	return s.Key()
}

// hospitalization returns the untreated, unvaccinated hospitalization rate.
func (s Stratum) hospitalization(p Parameters) float64 {
	switch {
	case s.HighRisk && s.Over65 && s.Comorbid:
		return p.HospComorbidOver65
	case s.HighRisk && s.Over65:
		return p.HospNoComorbidOver65
	case s.HighRisk:
		return p.HospComorbidUnder65
	default:
		return p.HospNoComorbidUnder65
	}
}

const (
	Paxlovid  = "paxlovid"
	PegLambda = "peg-lambda"
)

// Drug is a treatment with its per-course cost and relative risks of
// hospitalization.
type Drug struct {
	Name    string
	Cost    float64
	RRVax   float64 // vaccinated or low risk
	RRUnvax float64 // unvaccinated
}

// Drug returns the named treatment priced and parameterized by p.
func (p Parameters) Drug(name string) (Drug, error) {
	switch name {
	case Paxlovid:
		return Drug{Name: name, Cost: p.PaxlovidCost, RRVax: p.PaxlovidRRVax, RRUnvax: p.PaxlovidRRUnvax}, nil
	case PegLambda:
		return Drug{Name: name, Cost: p.DrugCost, RRVax: p.DrugRRVax, RRUnvax: p.DrugRRUnvax}, nil
	default:
		return Drug{}, fmt.Errorf("unknown drug %q", name)
	}
}

func (d Drug) relativeRisk(s Stratum) float64 {
	if s.Vaccinated {
		return d.RRVax
	}
	return d.RRUnvax
}
