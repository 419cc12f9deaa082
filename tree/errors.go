package tree

import (
	"errors"
	"fmt"
)

// ErrNotScalar is returned when a decision node is reached through a scalar
// expectation. Decision nodes only evaluate to one value per alternative.
var ErrNotScalar = errors.New("decision node has no scalar expectation")

// ConstructionError reports a structurally malformed node.
type ConstructionError struct {
	Node   string
	Reason string
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("malformed node %q: %s", e.Node, e.Reason)
}

// InvalidParameterError reports a numeric input outside its valid range.
type InvalidParameterError struct {
	Name   string
	Value  float64
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%v: %s", e.Name, e.Value, e.Reason)
}

// CycleDetectedError reports a node revisited on its own evaluation path.
type CycleDetectedError struct {
	Node string
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("cycle detected at node %q", e.Node)
}
