// Package tree models decision trees of terminal, chance and decision nodes
// and computes expected cost and utility over them.
//
// Evaluation recurses once per level, so stack depth equals tree depth. The
// clinical trees built by this module are six levels deep; a tree thousands of
// levels deep would need an explicit stack instead.
package tree

import (
	"fmt"
	"math"
)

// ProbabilityTolerance bounds how far a chance node's branch probabilities
// may sum away from 1.
const ProbabilityTolerance = 1e-6

// Node is a vertex of a decision tree. Nodes are immutable once constructed,
// so one node may be shared by any number of parents.
type Node interface {
	Name() string
	Cost() float64
	Utility() float64
	successors() []Node
}

type node struct {
	name    string
	cost    float64
	utility float64
}

func newNode(name string, cost, utility float64) (node, error) {
	if name == "" {
		return node{}, &ConstructionError{Node: name, Reason: "name is required"}
	}
	if err := finite(name+".cost", cost); err != nil {
		return node{}, err
	}
	if cost < 0 {
		return node{}, &InvalidParameterError{Name: name + ".cost", Value: cost, Reason: "cost cannot be negative"}
	}
	if err := finite(name+".utility", utility); err != nil {
		return node{}, err
	}
	return node{name: name, cost: cost, utility: utility}, nil
}

func (n *node) Name() string     { return n.name }
func (n *node) Cost() float64    { return n.cost }
func (n *node) Utility() float64 { return n.utility }

func finite(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return &InvalidParameterError{Name: name, Value: value, Reason: "must be finite"}
	}
	return nil
}

// Terminal is a leaf outcome with a fixed cost and utility.
type Terminal struct {
	node
}

func NewTerminal(name string, cost, utility float64) (*Terminal, error) {
	n, err := newNode(name, cost, utility)
	if err != nil {
		return nil, err
	}
	return &Terminal{node: n}, nil
}

func (t *Terminal) successors() []Node { return nil }

func (t *Terminal) String() string {
	return fmt.Sprintf("terminal(%s cost=%g utility=%g)", t.name, t.cost, t.utility)
}
