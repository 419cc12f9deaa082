package model

import (
	"covidtree/tree"
	"testing"

	"github.com/stretchr/testify/require"
)

const delta = 1e-9

func TestBuildReferenceTree(t *testing.T) {
	root, err := Build(DefaultParameters(), ReferenceStrategies())
	require.NoError(t, err)

	out, err := tree.Evaluate(root)
	require.NoError(t, err)

	t.Run("ordering alternatives as strategies", func(t *testing.T) {
		require.Equal(t, Names(ReferenceStrategies()), out.Names(), "Alternatives should follow strategy order")
	})

	t.Run("matching pinned base case", func(t *testing.T) {
		// Values pinned from a reference run with default parameters.
		want := []tree.Expectation{
			{Cost: 278.4657316, Utility: 0.00411828658},
			{Cost: 214.1747536, Utility: 0.00884578768},
			{Cost: 296.536909, Utility: 0.00502184545},
			{Cost: 369.793309, Utility: 0.00367616545},
			{Cost: 594.526909, Utility: 0.00322634545},
		}
		for i, w := range want {
			name, got := out.At(i)
			require.InDelta(t, w.Cost, got.Cost, delta, "Expected cost of %s", name)
			require.InDelta(t, w.Utility, got.Utility, delta, "Expected hospitalizations of %s", name)
		}
	})

	t.Run("growing cost with coverage", func(t *testing.T) {
		// The new-drug strategies widen coverage from index 1 to 4.
		previous := 0.0
		for i := 1; i < out.Len(); i++ {
			name, got := out.At(i)
			require.GreaterOrEqual(t, got.Cost, previous, "Cost of %s should not drop as coverage grows", name)
			previous = got.Cost
		}
	})
}

func TestBuildVaccinationRule(t *testing.T) {
	p := DefaultParameters()

	t.Run("leaving reference exception unscaled", func(t *testing.T) {
		root, err := Build(p, ReferenceStrategies())
		require.NoError(t, err)

		leaf := findChance(root, "High Risk and Unvax:HR/<65/COMORB/VAX")
		require.NotNil(t, leaf)
		require.InDelta(t, p.HospComorbidUnder65, leaf.Probabilities()[0], delta, "Reference tree keeps this stratum at the unvaccinated rate")
		require.Zero(t, leaf.Cost(), "Vaccinated stratum is not treated by this strategy")

		leaf = findChance(root, "High Risk and Unvax:HR/65+/COMORB/VAX")
		require.NotNil(t, leaf)
		require.InDelta(t, p.HospComorbidOver65*p.VaxHospMult, leaf.Probabilities()[0], delta)
	})

	t.Run("scaling every vaccinated stratum", func(t *testing.T) {
		strategies, err := NewStrategies(ConsistentStrategySpecs())
		require.NoError(t, err)
		root, err := Build(p, strategies)
		require.NoError(t, err)

		leaf := findChance(root, "High Risk and Unvax:HR/<65/COMORB/VAX")
		require.NotNil(t, leaf)
		require.InDelta(t, p.HospComorbidUnder65*p.VaxHospMult, leaf.Probabilities()[0], delta)

		out, err := tree.Evaluate(root)
		require.NoError(t, err)
		got, ok := out.Get("High Risk and Unvax")
		require.True(t, ok)
		require.InDelta(t, 186.2027536, got.Cost, delta, "Consistent multiplier lowers hospitalizations")
		require.InDelta(t, 0.00744718768, got.Utility, delta)

		reference, err := Build(p, ReferenceStrategies())
		require.NoError(t, err)
		ref, err := tree.Evaluate(reference)
		require.NoError(t, err)
		for _, name := range []string{"Baseline", "High Risk", "High Risk and Low Risk Unvax", "Everyone"} {
			a, _ := out.Get(name)
			b, _ := ref.Get(name)
			require.Equal(t, b, a, "Only the exception strategy should differ for %s", name)
		}
	})
}

func findChance(n tree.Node, name string) *tree.Chance {
	switch n := n.(type) {
	case *tree.Chance:
		if n.Name() == name {
			return n
		}
		for _, child := range n.Children() {
			if found := findChance(child, name); found != nil {
				return found
			}
		}
	case *tree.Decision:
		for _, child := range n.Alternatives() {
			if found := findChance(child, name); found != nil {
				return found
			}
		}
	}
	return nil
}

func TestBuildIsPure(t *testing.T) {
	first, err := Build(DefaultParameters(), ReferenceStrategies())
	require.NoError(t, err)
	second, err := Build(DefaultParameters(), ReferenceStrategies())
	require.NoError(t, err)

	a, err := tree.Evaluate(first)
	require.NoError(t, err)
	b, err := tree.Evaluate(second)
	require.NoError(t, err)

	require.Equal(t, a.Map(), b.Map(), "Identical parameters should evaluate identically")
}

func TestBuildSharesOutcomes(t *testing.T) {
	root, err := Build(DefaultParameters(), ReferenceStrategies())
	require.NoError(t, err)

	terminals := map[tree.Node]struct{}{}
	names := map[string]int{}
	var walk func(n tree.Node)
	walk = func(n tree.Node) {
		names[n.Name()]++
		switch n := n.(type) {
		case *tree.Terminal:
			terminals[n] = struct{}{}
		case *tree.Chance:
			for _, child := range n.Children() {
				walk(child)
			}
		case *tree.Decision:
			for _, child := range n.Alternatives() {
				walk(child)
			}
		}
	}
	walk(root)

	require.Len(t, terminals, 2, "Every strategy should converge to the same two terminals")
	for name, count := range names {
		if name == HospitalizedName || name == NoEventName {
			continue
		}
		require.Equal(t, 1, count, "Node name %q should be unique", name)
	}
}

func TestBuildLeafProbabilities(t *testing.T) {
	p := DefaultParameters()
	s, err := NewStrategy(StrategySpec{Name: "hr", Drug: PegLambda, Rule: "highRisk"})
	require.NoError(t, err)
	root, err := Build(p, []Strategy{s})
	require.NoError(t, err)

	leaves := map[string]*tree.Chance{}
	var walk func(n tree.Node)
	walk = func(n tree.Node) {
		c, ok := n.(*tree.Chance)
		if !ok {
			return
		}
		children := c.Children()
		if _, ok := children[0].(*tree.Terminal); ok {
			leaves[c.Name()] = c
			return
		}
		for _, child := range children {
			walk(child)
		}
	}
	for _, alt := range root.Alternatives() {
		walk(alt)
	}
	require.Len(t, leaves, len(Strata()), "Each stratum should end in one outcome event")

	t.Run("treated vaccinated high risk", func(t *testing.T) {
		leaf := leaves["hr:HR/65+/COMORB/VAX"]
		require.NotNil(t, leaf)
		require.InDelta(t, p.HospComorbidOver65*p.VaxHospMult*p.DrugRRVax, leaf.Probabilities()[0], delta)
		require.Equal(t, p.DrugCost, leaf.Cost(), "Treated stratum should pay for the drug")
	})

	t.Run("treated unvaccinated high risk", func(t *testing.T) {
		leaf := leaves["hr:HR/<65/COMORB/UNVAX"]
		require.NotNil(t, leaf)
		require.InDelta(t, p.HospComorbidUnder65*p.DrugRRUnvax, leaf.Probabilities()[0], delta)
	})

	t.Run("untreated vaccinated low risk", func(t *testing.T) {
		leaf := leaves["hr:LR/<65/NOCOMORB/VAX"]
		require.NotNil(t, leaf)
		require.InDelta(t, p.HospNoComorbidUnder65*p.VaxHospMult, leaf.Probabilities()[0], delta)
		require.Zero(t, leaf.Cost(), "Untreated stratum should cost nothing")
	})
}

func TestBuildErrors(t *testing.T) {
	t.Run("rejecting invalid parameters", func(t *testing.T) {
		p, err := DefaultParameters().Set("hospCost", -5)
		require.NoError(t, err)

		_, err = Build(p, ReferenceStrategies())

		var invalid *tree.InvalidParameterError
		require.ErrorAs(t, err, &invalid, "Negative cost should be an invalid parameter")
	})

	t.Run("rejecting hospitalization probability above 1", func(t *testing.T) {
		p, err := DefaultParameters().Set("drugRRUnvax", 20)
		require.NoError(t, err)

		_, err = Build(p, ReferenceStrategies())

		var invalid *tree.InvalidParameterError
		require.ErrorAs(t, err, &invalid, "Derived probability above 1 should be an invalid parameter")
	})

	t.Run("rejecting unknown drug", func(t *testing.T) {
		s, err := NewStrategy(StrategySpec{Name: "s", Drug: "aspirin", Rule: "true"})
		require.NoError(t, err)

		_, err = Build(DefaultParameters(), []Strategy{s})

		var malformed *tree.ConstructionError
		require.ErrorAs(t, err, &malformed, "Unknown drug should be a construction error")
	})

	t.Run("rejecting duplicate strategy names", func(t *testing.T) {
		s := ReferenceStrategies()[0]

		_, err := Build(DefaultParameters(), []Strategy{s, s})

		var malformed *tree.ConstructionError
		require.ErrorAs(t, err, &malformed, "Duplicate strategies should be a construction error")
	})

	t.Run("rejecting no strategies", func(t *testing.T) {
		_, err := Build(DefaultParameters(), nil)

		var malformed *tree.ConstructionError
		require.ErrorAs(t, err, &malformed, "A decision needs alternatives")
	})
}
