package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewStrategy(t *testing.T) {
	t.Run("resolving rule against strata", func(t *testing.T) {
		s, err := NewStrategy(StrategySpec{Name: "s", Drug: PegLambda, Rule: "highRisk && !vaccinated"})
		require.NoError(t, err)

		for _, stratum := range Strata() {
			want := stratum.HighRisk && !stratum.Vaccinated
			require.Equal(t, want, s.Treats(stratum), "Eligibility of %s", stratum)
		}
	})

	t.Run("treating nobody with an empty rule", func(t *testing.T) {
		s, err := NewStrategy(StrategySpec{Name: "none", Drug: PegLambda})
		require.NoError(t, err)

		for _, stratum := range Strata() {
			require.False(t, s.Treats(stratum), "Empty rule should treat nobody")
		}
	})

	t.Run("using every variable", func(t *testing.T) {
		s, err := NewStrategy(StrategySpec{Name: "s", Drug: Paxlovid, Rule: "over65 and comorbid"})
		require.NoError(t, err)

		require.True(t, s.Treats(Stratum{HighRisk: true, Over65: true, Comorbid: true, Vaccinated: true}))
		require.False(t, s.Treats(Stratum{HighRisk: true, Comorbid: true}))
	})

	t.Run("rejecting unknown variables", func(t *testing.T) {
		_, err := NewStrategy(StrategySpec{Name: "s", Drug: PegLambda, Rule: "pregnant"})
		require.Error(t, err, "Rules may only reference stratum variables")
	})

	t.Run("rejecting non-boolean rules", func(t *testing.T) {
		_, err := NewStrategy(StrategySpec{Name: "s", Drug: PegLambda, Rule: "1 + 2"})
		require.Error(t, err, "Rules must evaluate to bool")
	})

	t.Run("scaling vaccinated strata by default", func(t *testing.T) {
		s, err := NewStrategy(StrategySpec{Name: "s", Drug: PegLambda, Rule: "true"})
		require.NoError(t, err)

		for _, stratum := range Strata() {
			require.Equal(t, stratum.Vaccinated, s.ScalesVaccinated(stratum), "Default multiplier rule for %s", stratum)
		}
	})

	t.Run("using a custom multiplier rule", func(t *testing.T) {
		s, err := NewStrategy(StrategySpec{Name: "s", Drug: PegLambda, VaxMultRule: "vaccinated && over65"})
		require.NoError(t, err)

		require.True(t, s.ScalesVaccinated(Stratum{HighRisk: true, Over65: true, Comorbid: true, Vaccinated: true}))
		require.False(t, s.ScalesVaccinated(Stratum{Vaccinated: true}))
	})

	t.Run("rejecting bad multiplier rules", func(t *testing.T) {
		_, err := NewStrategy(StrategySpec{Name: "s", Drug: PegLambda, VaxMultRule: "age > 65"})
		require.Error(t, err)
	})

	t.Run("rejecting empty name", func(t *testing.T) {
		_, err := NewStrategy(StrategySpec{Drug: PegLambda, Rule: "true"})
		require.Error(t, err, "Strategies must be named")
	})
}

func TestReferenceStrategies(t *testing.T) {
	strategies := ReferenceStrategies()

	require.Equal(t, []string{
		"Baseline",
		"High Risk and Unvax",
		"High Risk",
		"High Risk and Low Risk Unvax",
		"Everyone",
	}, Names(strategies), "Reference strategies should keep their documented order")

	treated := make([]int, len(strategies))
	for i, s := range strategies {
		for _, stratum := range Strata() {
			if s.Treats(stratum) {
				treated[i]++
			}
		}
	}
	require.Equal(t, []int{6, 3, 6, 7, 8}, treated, "Each strategy should cover its documented strata")

	t.Run("scaling all but one vaccinated stratum", func(t *testing.T) {
		scaled := 0
		for _, stratum := range Strata() {
			if strategies[1].ScalesVaccinated(stratum) {
				scaled++
			}
		}
		require.Equal(t, 3, scaled, "High Risk and Unvax skips the vaccinated high risk under 65 stratum")
		require.False(t, strategies[1].ScalesVaccinated(Stratum{HighRisk: true, Comorbid: true, Vaccinated: true}))
	})
}

func TestConsistentStrategySpecs(t *testing.T) {
	specs := ConsistentStrategySpecs()
	require.Len(t, specs, len(ReferenceStrategySpecs()))
	for _, spec := range specs {
		require.Empty(t, spec.VaxMultRule, "%s should use the default multiplier rule", spec.Name)
	}
	require.NotEmpty(t, ReferenceStrategySpecs()[1].VaxMultRule, "Reference specs should keep their exception")
}
