package psa

import (
	"covidtree/model"
	"fmt"

	"golang.org/x/exp/rand"
)

// Sampler derives one trial's parameters from base using src.
type Sampler interface {
	Sample(base model.Parameters, src rand.Source) (model.Parameters, error)
}

type draw struct {
	parameter string
	dist      Distribution
}

// ParameterSampler overrides a fixed list of parameters, drawing them in list
// order from the trial's source.
type ParameterSampler struct {
	draws []draw
}

func NewParameterSampler(specs []DrawSpec) (*ParameterSampler, error) {
	base := model.DefaultParameters()
	draws := make([]draw, 0, len(specs))
	for _, spec := range specs {
		if _, err := base.Get(spec.Parameter); err != nil {
			return nil, err
		}
		dist, err := spec.build()
		if err != nil {
			return nil, err
		}
		draws = append(draws, draw{parameter: spec.Parameter, dist: dist})
	}
	return &ParameterSampler{draws: draws}, nil
}

// ReferenceSampler samples ReferenceDraws.
func ReferenceSampler() *ParameterSampler {
	s, err := NewParameterSampler(ReferenceDraws())
	if err != nil {
		panic(fmt.Sprintf("reference draws: %v", err))
	}
	return s
}

func (s *ParameterSampler) Sample(base model.Parameters, src rand.Source) (model.Parameters, error) {
	params := base
	for _, d := range s.draws {
		var err error
		params, err = params.Set(d.parameter, d.dist.Sample(src))
		if err != nil {
			return base, err
		}
	}
	return params, nil
}

// FixedSampler leaves parameters untouched, turning a PSA into repeated
// deterministic evaluations.
type FixedSampler struct{}

func (FixedSampler) Sample(base model.Parameters, _ rand.Source) (model.Parameters, error) {
	return base, nil
}
