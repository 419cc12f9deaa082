package cea

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fixture() []Strategy {
	return []Strategy{
		{Name: "base", Color: "green", Costs: []float64{90, 110}, Effects: []float64{0.04, 0.06}},
		{Name: "a", Color: "blue", Costs: []float64{150, 250}, Effects: []float64{0.1, 0.1}},
		{Name: "b", Color: "red", Costs: []float64{400, 600}, Effects: []float64{0.15, 0.25}},
	}
}

func TestICER(t *testing.T) {
	c, err := NewCEA(fixture(), false)
	require.NoError(t, err)

	t.Run("computing means", func(t *testing.T) {
		s := c.Summaries()
		require.InDelta(t, 100, s[0].Cost, 1e-9)
		require.InDelta(t, 0.05, s[0].Effect, 1e-9)
		require.InDelta(t, 500, s[2].Cost, 1e-9)
		require.InDelta(t, 0.2, s[2].Effect, 1e-9)
	})

	t.Run("against baseline", func(t *testing.T) {
		icer, err := c.ICER("b")
		require.NoError(t, err)
		require.InDelta(t, 2666.67, icer, 0.01, "(500-100)/(0.2-0.05)")

		icer, err = c.ICER("a")
		require.NoError(t, err)
		require.InDelta(t, 2000, icer, 1e-6, "(200-100)/(0.1-0.05)")
	})

	t.Run("listing every pair", func(t *testing.T) {
		icers := c.ICERs()
		require.Len(t, icers, 2)
		require.Equal(t, "a", icers[0].Strategy)
		require.Equal(t, "b", icers[1].Strategy)
		require.NoError(t, icers[0].Err)
		require.NoError(t, icers[1].Err)
	})

	t.Run("rejecting unknown strategies", func(t *testing.T) {
		_, err := c.ICER("nope")
		require.ErrorIs(t, err, ErrUnknownStrategy)
	})
}

func TestICERDomainError(t *testing.T) {
	strategies := fixture()
	strategies[1].Effects = []float64{0.05, 0.05}
	c, err := NewCEA(strategies, false)
	require.NoError(t, err)

	t.Run("equal effects", func(t *testing.T) {
		_, err := c.ICER("a")
		var domain *DomainError
		require.ErrorAs(t, err, &domain, "Equal mean effects should not produce inf or NaN")
		require.Equal(t, "a", domain.Strategy)
		require.Equal(t, "base", domain.Baseline)
	})

	t.Run("baseline against itself", func(t *testing.T) {
		_, err := c.ICER("base")
		var domain *DomainError
		require.ErrorAs(t, err, &domain)
	})

	t.Run("keeping other pairs", func(t *testing.T) {
		icers := c.ICERs()
		require.Error(t, icers[0].Err)
		require.NoError(t, icers[1].Err, "One undefined ICER should not affect the others")
	})
}

func TestIncremental(t *testing.T) {
	t.Run("paired", func(t *testing.T) {
		c, err := NewCEA(fixture(), true)
		require.NoError(t, err)

		costs, effects, err := c.Incremental("b")
		require.NoError(t, err)
		require.InDeltaSlice(t, []float64{310, 490}, costs, 1e-9)
		require.InDeltaSlice(t, []float64{0.11, 0.19}, effects, 1e-9)
	})

	t.Run("unpaired", func(t *testing.T) {
		c, err := NewCEA(fixture(), false)
		require.NoError(t, err)

		_, _, err = c.Incremental("b")
		require.ErrorIs(t, err, ErrUnpaired)
	})
}

func TestNewCEAErrors(t *testing.T) {
	t.Run("no strategies", func(t *testing.T) {
		_, err := NewCEA(nil, false)
		require.Error(t, err)
	})

	t.Run("mismatched observations", func(t *testing.T) {
		strategies := fixture()
		strategies[1].Effects = strategies[1].Effects[:1]
		_, err := NewCEA(strategies, false)
		require.Error(t, err)
	})

	t.Run("unequal paired lengths", func(t *testing.T) {
		strategies := fixture()
		strategies[2].Costs = append(strategies[2].Costs, 1)
		strategies[2].Effects = append(strategies[2].Effects, 1)
		_, err := NewCEA(strategies, true)
		require.Error(t, err)

		_, err = NewCEA(strategies, false)
		require.NoError(t, err, "Unpaired strategies may have different sample sizes")
	})

	t.Run("duplicate names", func(t *testing.T) {
		strategies := fixture()
		strategies[2].Name = "a"
		_, err := NewCEA(strategies, false)
		require.Error(t, err)
	})
}
