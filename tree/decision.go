package tree

import (
	"covidtree/utils"
	"fmt"
)

// Decision holds mutually exclusive alternatives. It is never resolved to a
// single child: evaluating it yields one result per alternative, keyed by the
// alternative's name.
type Decision struct {
	node
	children []Node
}

func NewDecision(name string, cost, utility float64, children []Node) (*Decision, error) {
	n, err := newNode(name, cost, utility)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, &ConstructionError{Node: name, Reason: "decision needs at least one alternative"}
	}

	names := make([]string, 0, len(children))
	for i, child := range children {
		if child == nil {
			return nil, &ConstructionError{Node: name, Reason: fmt.Sprintf("alternative %d is nil", i)}
		}
		if utils.FindIndex(names, child.Name()) >= 0 {
			return nil, &ConstructionError{Node: name, Reason: fmt.Sprintf("duplicate alternative %q", child.Name())}
		}
		names = append(names, child.Name())
	}

	return &Decision{
		node:     n,
		children: append([]Node(nil), children...),
	}, nil
}

// Alternatives returns the children in their original order.
func (d *Decision) Alternatives() []Node {
	return append([]Node(nil), d.children...)
}

func (d *Decision) successors() []Node { return d.children }
