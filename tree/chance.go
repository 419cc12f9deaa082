package tree

import (
	"fmt"
	"math"
)

// Chance branches into mutually exclusive outcomes with fixed probabilities.
// Its own cost and utility are incurred once, before any branch is realized.
type Chance struct {
	node
	children []Node
	probs    []float64
}

func NewChance(name string, cost, utility float64, children []Node, probs []float64) (*Chance, error) {
	n, err := newNode(name, cost, utility)
	if err != nil {
		return nil, err
	}
	if len(children) != len(probs) {
		return nil, &ConstructionError{
			Node:   name,
			Reason: fmt.Sprintf("%d children but %d probabilities", len(children), len(probs)),
		}
	}

	sum := 0.0
	for i, p := range probs {
		if children[i] == nil {
			return nil, &ConstructionError{Node: name, Reason: fmt.Sprintf("child %d is nil", i)}
		}
		if err := finite(fmt.Sprintf("%s.probs[%d]", name, i), p); err != nil {
			return nil, err
		}
		if p < 0 || p > 1 {
			return nil, &ConstructionError{Node: name, Reason: fmt.Sprintf("probability %d is %v, outside [0,1]", i, p)}
		}
		sum += p
	}
	if math.Abs(sum-1) > ProbabilityTolerance {
		return nil, &ConstructionError{Node: name, Reason: fmt.Sprintf("probabilities sum to %v, not 1", sum)}
	}

	return &Chance{
		node:     n,
		children: append([]Node(nil), children...),
		probs:    append([]float64(nil), probs...),
	}, nil
}

// Children returns the outcomes in branch order.
func (c *Chance) Children() []Node {
	return append([]Node(nil), c.children...)
}

// Probabilities returns the branch probabilities, parallel to Children.
func (c *Chance) Probabilities() []float64 {
	return append([]float64(nil), c.probs...)
}

func (c *Chance) successors() []Node { return c.children }
