package tree

import "fmt"

// ExpectedCost returns the expected cost of a terminal or chance node:
// its own cost plus the probability-weighted expected cost of its children.
func ExpectedCost(n Node) (float64, error) {
	return newEvaluation(Node.Cost).expect(n)
}

// ExpectedUtility is ExpectedCost applied to utilities.
func ExpectedUtility(n Node) (float64, error) {
	return newEvaluation(Node.Utility).expect(n)
}

// ExpectedCosts evaluates every alternative of d. Each entry is the decision's
// own cost plus the alternative's expected cost; no alternative is preferred.
func ExpectedCosts(d *Decision) (Outcomes[float64], error) {
	return newEvaluation(Node.Cost).alternatives(d)
}

// ExpectedUtilities is ExpectedCosts applied to utilities.
func ExpectedUtilities(d *Decision) (Outcomes[float64], error) {
	return newEvaluation(Node.Utility).alternatives(d)
}

// Evaluate returns the expected cost and utility of every alternative of d.
func Evaluate(d *Decision) (Outcomes[Expectation], error) {
	costs, err := ExpectedCosts(d)
	if err != nil {
		return Outcomes[Expectation]{}, err
	}
	utilities, err := ExpectedUtilities(d)
	if err != nil {
		return Outcomes[Expectation]{}, err
	}

	var out Outcomes[Expectation]
	for i := 0; i < costs.Len(); i++ {
		name, cost := costs.At(i)
		_, utility := utilities.At(i)
		out.add(name, Expectation{Cost: cost, Utility: utility})
	}
	return out, nil
}

// evaluation accumulates one quantity over a tree. path holds the nodes
// between the root and the node being evaluated.
type evaluation struct {
	field func(Node) float64
	path  map[Node]struct{}
}

func newEvaluation(field func(Node) float64) *evaluation {
	return &evaluation{field: field, path: make(map[Node]struct{})}
}

func (e *evaluation) enter(n Node) error {
	if _, ok := e.path[n]; ok {
		return &CycleDetectedError{Node: n.Name()}
	}
	e.path[n] = struct{}{}
	return nil
}

func (e *evaluation) leave(n Node) {
	delete(e.path, n)
}

func (e *evaluation) alternatives(d *Decision) (Outcomes[float64], error) {
	if d == nil {
		return Outcomes[float64]{}, fmt.Errorf("decision is nil")
	}
	if err := e.enter(d); err != nil {
		return Outcomes[float64]{}, err
	}
	defer e.leave(d)

	own := e.field(d)
	var out Outcomes[float64]
	for _, child := range d.children {
		v, err := e.expect(child)
		if err != nil {
			return Outcomes[float64]{}, fmt.Errorf("alternative %q: %w", child.Name(), err)
		}
		out.add(child.Name(), own+v)
	}
	return out, nil
}

func (e *evaluation) expect(n Node) (float64, error) {
	if n == nil {
		return 0, fmt.Errorf("node is nil")
	}
	if err := e.enter(n); err != nil {
		return 0, err
	}
	defer e.leave(n)

	switch n := n.(type) {
	case *Terminal:
		return e.field(n), nil
	case *Chance:
		total := e.field(n)
		// Sequence order keeps rounding reproducible.
		for i, child := range n.children {
			v, err := e.expect(child)
			if err != nil {
				return 0, err
			}
			total += n.probs[i] * v
		}
		return total, nil
	case *Decision:
		return 0, fmt.Errorf("node %q: %w", n.Name(), ErrNotScalar)
	default:
		panic(fmt.Sprintf("unexpected node type %T", n))
	}
}
