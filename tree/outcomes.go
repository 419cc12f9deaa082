package tree

import "covidtree/utils"

// Expectation is the expected cost and utility of one alternative.
type Expectation struct {
	Cost    float64
	Utility float64
}

// Outcomes maps alternative names to values while keeping the decision's
// child order, so results can be read by name or by position.
type Outcomes[V any] struct {
	names  []string
	values []V
}

func (o Outcomes[V]) Len() int {
	return len(o.names)
}

// Names returns the alternative names in child order.
func (o Outcomes[V]) Names() []string {
	return append([]string(nil), o.names...)
}

// At returns the i-th alternative. It panics if i is out of range.
func (o Outcomes[V]) At(i int) (string, V) {
	return o.names[i], o.values[i]
}

func (o Outcomes[V]) Get(name string) (V, bool) {
	i := utils.FindIndex(o.names, name)
	if i < 0 {
		var zero V
		return zero, false
	}
	return o.values[i], true
}

func (o Outcomes[V]) Map() map[string]V {
	m := make(map[string]V, len(o.names))
	for i, name := range o.names {
		m[name] = o.values[i]
	}
	return m
}

func (o *Outcomes[V]) add(name string, value V) {
	o.names = append(o.names, name)
	o.values = append(o.values, value)
}
