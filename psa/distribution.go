package psa

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution draws one value from src.
type Distribution interface {
	Sample(src rand.Source) float64
}

// Gamma is parameterized by shape and scale (mean = Shape*Scale).
type Gamma struct {
	Shape float64
	Scale float64
}

func (g Gamma) Sample(src rand.Source) float64 {
	return distuv.Gamma{Alpha: g.Shape, Beta: 1 / g.Scale, Src: src}.Rand()
}

type Uniform struct {
	Min float64
	Max float64
}

func (u Uniform) Sample(src rand.Source) float64 {
	return distuv.Uniform{Min: u.Min, Max: u.Max, Src: src}.Rand()
}

// Exp exponentiates draws of Dist.
type Exp struct {
	Dist Distribution
}

func (e Exp) Sample(src rand.Source) float64 {
	return math.Exp(e.Dist.Sample(src))
}

const (
	GammaDistribution   = "gamma"
	UniformDistribution = "uniform"
)

// DrawSpec configures how one parameter is resampled per trial.
type DrawSpec struct {
	Parameter    string  `yaml:"parameter"`
	Distribution string  `yaml:"distribution"`
	Shape        float64 `yaml:"shape,omitempty"`
	Scale        float64 `yaml:"scale,omitempty"`
	Min          float64 `yaml:"min,omitempty"`
	Max          float64 `yaml:"max,omitempty"`
	Exponentiate bool    `yaml:"exponentiate,omitempty"`
}

func (s DrawSpec) build() (Distribution, error) {
	var dist Distribution
	switch s.Distribution {
	case GammaDistribution:
		if !(s.Shape > 0) || !(s.Scale > 0) || math.IsInf(s.Shape, 0) || math.IsInf(s.Scale, 0) {
			return nil, fmt.Errorf("gamma for %s needs positive finite shape and scale, got %v and %v", s.Parameter, s.Shape, s.Scale)
		}
		dist = Gamma{Shape: s.Shape, Scale: s.Scale}
	case UniformDistribution:
		if math.IsNaN(s.Min) || math.IsNaN(s.Max) || math.IsInf(s.Min, 0) || math.IsInf(s.Max, 0) || s.Min > s.Max {
			return nil, fmt.Errorf("uniform for %s needs finite min <= max, got [%v, %v]", s.Parameter, s.Min, s.Max)
		}
		dist = Uniform{Min: s.Min, Max: s.Max}
	default:
		return nil, fmt.Errorf("unknown distribution %q for %s", s.Distribution, s.Parameter)
	}
	if s.Exponentiate {
		dist = Exp{Dist: dist}
	}
	return dist, nil
}

// ReferenceDraws returns the reference resampling scheme, in draw order.
//
// Hospitalization cost is gamma distributed with shape and scale derived from
// the reported cost interval. Relative risks are drawn uniformly and then
// exponentiated, as in the reference analysis; whether the draws were meant to
// be on the log scale is unconfirmed.
func ReferenceDraws() []DrawSpec {
	spread := 25858 - 23795.0/2*1.96
	return []DrawSpec{
		{
			Parameter:    "hospCost",
			Distribution: GammaDistribution,
			Shape:        math.Pow(24826, 2) / math.Pow(spread, 2),
			Scale:        math.Pow(spread, 2) / 24826,
		},
		{Parameter: "drugRRVax", Distribution: UniformDistribution, Min: 0.245, Max: 0.735, Exponentiate: true},
		{Parameter: "paxlovidRRVax", Distribution: UniformDistribution, Min: 0.085, Max: 0.255, Exponentiate: true},
		{Parameter: "paxlovidRRUnvax", Distribution: UniformDistribution, Min: 0.30, Max: 0.90, Exponentiate: true},
		{Parameter: "drugRRUnvax", Distribution: UniformDistribution, Min: 0.055, Max: 0.165, Exponentiate: true},
	}
}
