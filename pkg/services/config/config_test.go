package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/de-tools/market-atlas/pkg/models/domain"
	"github.com/de-tools/market-atlas/pkg/services/estimator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAssumptions_Defaults(t *testing.T) {
	// When
	s, err := LoadAssumptions(LoadOptions{})

	// Then
	require.NoError(t, err)
	a := s.Assumptions
	assert.Equal(t, 2010, a.StartYear)
	assert.Equal(t, 2023, a.EndYear)
	assert.Equal(t, "0.8", a.InitialRevenue.String())
	assert.Equal(t, int64(15000), a.InitialPlayers)
	assert.Equal(t, "12.5", a.InitialWagered.String())
	assert.Equal(t, "0.18", a.ProfitMargin.String())
	assert.True(t, a.GrowthRate.IsZero())
	assert.Nil(t, a.PlayerGrowthRate)
	assert.Nil(t, a.WagerGrowthRate)
	assert.Empty(t, a.MarketTotals)
	assert.Empty(t, s.Scenarios)
	assert.Equal(t, "1", s.MarketTotalScale.String())
	assert.NotEmpty(t, s.Title)
}

func TestLoadAssumptions_ValidYAML_PopulatesAllFields(t *testing.T) {
	// Given
	// No indentation at the top level to keep the YAML flat
	content := `title: "Skyrock"
start_year: 2010
end_year: 2012
initial_revenue: 100
initial_players: 1000
initial_wagered: 250.5
growth_rate: 0.1
player_growth_rate: 0.05
profit_margin: 0.2
market_total_scale: 1000
external_market_totals:
  2010: 0.8
  2011: 1.2
  2012: 1.6
phases:
  2010: Launch
  2011: Growth
regulatory_events:
  2012: "AML controls"
  2010: "ARJEL licence"
scenarios:
  - name: Invest
    multiplier: 1.5
    year_multipliers:
      "2011": 1.3
  - name: Flat
    growth_rate: 0
scenario_multipliers:
  pessimistic: 0.7
`
	path := writeFile(t, "atlas.yaml", content)

	// When
	s, err := LoadAssumptions(LoadOptions{ConfigFile: path})

	// Then
	require.NoError(t, err)
	a := s.Assumptions
	assert.Equal(t, "Skyrock", s.Title)
	assert.Equal(t, 2012, a.EndYear)
	assert.Equal(t, "100", a.InitialRevenue.String())
	assert.Equal(t, int64(1000), a.InitialPlayers)
	assert.Equal(t, "250.5", a.InitialWagered.String())
	assert.Equal(t, "0.1", a.GrowthRate.String())
	require.NotNil(t, a.PlayerGrowthRate)
	assert.Equal(t, "0.05", a.PlayerGrowthRate.String())
	assert.Nil(t, a.WagerGrowthRate)
	assert.Equal(t, "0.2", a.ProfitMargin.String())

	require.Len(t, a.MarketTotals, 3)
	assert.Equal(t, "800", a.MarketTotals[2010].String())
	assert.Equal(t, "1600", a.MarketTotals[2012].String())
	assert.Equal(t, "Launch", a.Phases[2010])

	require.Len(t, s.RegulatoryEvents, 2)
	assert.Equal(t, 2010, s.RegulatoryEvents[0].Year)
	assert.Equal(t, "ARJEL licence", s.RegulatoryEvents[0].Description)

	require.Len(t, s.Scenarios, 3)
	assert.Equal(t, "Invest", s.Scenarios[0].Name)
	assert.Equal(t, "1.5", s.Scenarios[0].Multiplier.String())
	assert.Equal(t, "1.3", s.Scenarios[0].YearMultipliers[2011].String())
	assert.Equal(t, "Flat", s.Scenarios[1].Name)
	require.NotNil(t, s.Scenarios[1].GrowthRate)
	assert.True(t, s.Scenarios[1].GrowthRate.IsZero())
	assert.Equal(t, "pessimistic", s.Scenarios[2].Name)
	assert.Equal(t, "0.7", s.Scenarios[2].Multiplier.String())
}

func TestLoadAssumptions_ScenarioMultiplierNames(t *testing.T) {
	t.Run("yaml keys keep their case", func(t *testing.T) {
		// Given
		path := writeFile(t, "atlas.yaml", "scenario_multipliers:\n  Optimistic: 1.2\n  Low_Case: 0.5\n")

		// When
		s, err := LoadAssumptions(LoadOptions{ConfigFile: path})

		// Then
		require.NoError(t, err)
		require.Len(t, s.Scenarios, 2)
		assert.Equal(t, "Low_Case", s.Scenarios[0].Name)
		assert.Equal(t, "Optimistic", s.Scenarios[1].Name)
		assert.Equal(t, "1.2", s.Scenarios[1].Multiplier.String())
	})

	t.Run("json keys keep their case", func(t *testing.T) {
		path := writeFile(t, "atlas.json", `{"title": "x", "scenario_multipliers": {"Title": 0.9}}`)

		s, err := LoadAssumptions(LoadOptions{ConfigFile: path})

		require.NoError(t, err)
		require.Len(t, s.Scenarios, 1)
		assert.Equal(t, "Title", s.Scenarios[0].Name)
	})
}

func TestLoadAssumptions_Precedence(t *testing.T) {
	path := writeFile(t, "atlas.yaml", "growth_rate: 0.1\nend_year: 2015\nprofit_margin: 0.3\n")

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("MARKET_ATLAS_GROWTH_RATE", "0.25")

		s, err := LoadAssumptions(LoadOptions{ConfigFile: path})

		require.NoError(t, err)
		assert.Equal(t, "0.25", s.Assumptions.GrowthRate.String())
		assert.Equal(t, 2015, s.Assumptions.EndYear)
	})

	t.Run("flags override env and file", func(t *testing.T) {
		t.Setenv("MARKET_ATLAS_GROWTH_RATE", "0.25")

		s, err := LoadAssumptions(LoadOptions{
			ConfigFile: path,
			Overrides: map[string]interface{}{
				"growth_rate":   "0.5",
				"end_year":      2011,
				"profit_margin": "0.1",
			},
		})

		require.NoError(t, err)
		assert.Equal(t, "0.5", s.Assumptions.GrowthRate.String())
		assert.Equal(t, 2011, s.Assumptions.EndYear)
		assert.Equal(t, "0.1", s.Assumptions.ProfitMargin.String())
	})
}

func TestLoadAssumptions_EnvFile(t *testing.T) {
	// Given
	path := writeFile(t, "test.env", "MARKET_ATLAS_INITIAL_REVENUE=42\n")
	t.Cleanup(func() { _ = os.Unsetenv("MARKET_ATLAS_INITIAL_REVENUE") })

	// When
	s, err := LoadAssumptions(LoadOptions{EnvFile: path})

	// Then
	require.NoError(t, err)
	assert.Equal(t, "42", s.Assumptions.InitialRevenue.String())
}

func TestLoadAssumptions_Flags(t *testing.T) {
	t.Run("scenario and market total flags", func(t *testing.T) {
		s, err := LoadAssumptions(LoadOptions{
			Overrides:        map[string]interface{}{"market_total_scale": "10"},
			ScenarioFlags:    []string{"optimistic=1.2", "pessimistic=0.8"},
			MarketTotalFlags: []string{"2010=5", "2011 = 6"},
		})

		require.NoError(t, err)
		require.Len(t, s.Scenarios, 2)
		assert.Equal(t, "optimistic", s.Scenarios[0].Name)
		assert.Equal(t, "0.8", s.Scenarios[1].Multiplier.String())
		assert.Equal(t, "50", s.Assumptions.MarketTotals[2010].String())
		assert.Equal(t, "60", s.Assumptions.MarketTotals[2011].String())
	})

	t.Run("zero multiplier flag is kept", func(t *testing.T) {
		// Given
		opts := LoadOptions{ScenarioFlags: []string{"Collapse=0"}}

		// When
		s, err := LoadAssumptions(opts)

		// Then
		require.NoError(t, err)
		require.Len(t, s.Scenarios, 1)
		require.NotNil(t, s.Scenarios[0].Multiplier)
		assert.True(t, s.Scenarios[0].Multiplier.IsZero())

		baseline, err := estimator.ComputeBaseline(s.Assumptions)
		require.NoError(t, err)
		set, err := estimator.ComputeScenarios(baseline, s.Scenarios)
		require.NoError(t, err)
		records, ok := set.Get("Collapse")
		require.True(t, ok)
		require.NotEmpty(t, records)
		for _, rec := range records {
			assert.True(t, rec.Revenue.IsZero(), rec.Year)
		}
	})

	t.Run("malformed scenario flag", func(t *testing.T) {
		_, err := LoadAssumptions(LoadOptions{ScenarioFlags: []string{"optimistic"}})

		var assumptionErr *domain.InvalidAssumptionError
		assert.True(t, errors.As(err, &assumptionErr))
	})

	t.Run("malformed market year", func(t *testing.T) {
		_, err := LoadAssumptions(LoadOptions{MarketTotalFlags: []string{"twenty=5"}})

		var assumptionErr *domain.InvalidAssumptionError
		require.True(t, errors.As(err, &assumptionErr))
		assert.Equal(t, "twenty", assumptionErr.Value)
	})
}

func TestLoadAssumptions_Errors(t *testing.T) {
	t.Run("not a number", func(t *testing.T) {
		path := writeFile(t, "bad.yaml", "growth_rate: fast\n")

		_, err := LoadAssumptions(LoadOptions{ConfigFile: path})

		var assumptionErr *domain.InvalidAssumptionError
		require.True(t, errors.As(err, &assumptionErr))
		assert.Equal(t, "growth_rate", assumptionErr.Field)
		assert.Contains(t, err.Error(), "fast")
	})

	t.Run("zero scale", func(t *testing.T) {
		_, err := LoadAssumptions(LoadOptions{Overrides: map[string]interface{}{"market_total_scale": "0"}})

		var assumptionErr *domain.InvalidAssumptionError
		require.True(t, errors.As(err, &assumptionErr))
		assert.Equal(t, "market_total_scale", assumptionErr.Field)
	})

	t.Run("missing config file", func(t *testing.T) {
		_, err := LoadAssumptions(LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml")})

		assert.Error(t, err)
	})

	t.Run("missing env file", func(t *testing.T) {
		_, err := LoadAssumptions(LoadOptions{EnvFile: filepath.Join(t.TempDir(), "nope.env")})

		assert.Error(t, err)
	})
}

func TestLoadScenarioProfiles(t *testing.T) {
	t.Run("success - sections become scenarios", func(t *testing.T) {
		path := writeFile(t, "scenarios.ini", `[Invest]
multiplier = 1.1
growth_rate = 0.05
year.2014 = 1.5
year.2015 = 1.5

[Decline]
multiplier = 0.6
`)

		defs, err := LoadScenarioProfiles(path)

		require.NoError(t, err)
		require.Len(t, defs, 2)
		assert.Equal(t, "Invest", defs[0].Name)
		assert.Equal(t, "1.1", defs[0].Multiplier.String())
		require.NotNil(t, defs[0].GrowthRate)
		assert.Equal(t, "0.05", defs[0].GrowthRate.String())
		assert.Len(t, defs[0].YearMultipliers, 2)
		assert.Equal(t, "1.5", defs[0].YearMultipliers[2014].String())
		assert.Equal(t, "Decline", defs[1].Name)
		assert.Nil(t, defs[1].GrowthRate)
	})

	t.Run("success - repeated sections surface as duplicates", func(t *testing.T) {
		path := writeFile(t, "dup.ini", "[optimistic]\nmultiplier = 1.2\n\n[optimistic]\nmultiplier = 1.4\n")

		defs, err := LoadScenarioProfiles(path)
		require.NoError(t, err)
		require.Len(t, defs, 2)

		baseline, err := estimator.ComputeBaseline(domain.Assumptions{StartYear: 2010, EndYear: 2011})
		require.NoError(t, err)
		_, err = estimator.ComputeScenarios(baseline, defs)

		var dupErr *domain.DuplicateScenarioNameError
		require.True(t, errors.As(err, &dupErr))
		assert.Equal(t, "optimistic", dupErr.Name)
	})

	t.Run("error - unknown key", func(t *testing.T) {
		path := writeFile(t, "unknown.ini", "[invest]\nboost = 2\n")

		_, err := LoadScenarioProfiles(path)

		var assumptionErr *domain.InvalidAssumptionError
		require.True(t, errors.As(err, &assumptionErr))
		assert.Equal(t, "boost", assumptionErr.Value)
	})

	t.Run("error - bad year", func(t *testing.T) {
		path := writeFile(t, "year.ini", "[invest]\nyear.later = 2\n")

		_, err := LoadScenarioProfiles(path)

		assert.Error(t, err)
	})

	t.Run("error - missing file", func(t *testing.T) {
		_, err := LoadScenarioProfiles(filepath.Join(t.TempDir(), "none.ini"))

		assert.Error(t, err)
	})

	t.Run("profiles are appended after config scenarios", func(t *testing.T) {
		profiles := writeFile(t, "p.ini", "[from-ini]\nmultiplier = 2\n")

		s, err := LoadAssumptions(LoadOptions{
			ScenarioFlags:    []string{"from-flag=1.5"},
			ScenarioProfiles: profiles,
		})

		require.NoError(t, err)
		require.Len(t, s.Scenarios, 2)
		assert.Equal(t, "from-flag", s.Scenarios[0].Name)
		assert.Equal(t, "from-ini", s.Scenarios[1].Name)
	})
}

func TestParseKeyValues(t *testing.T) {
	pairs, err := ParseKeyValues([]string{"a=1", " b = 2 ", "a=3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "3", "b": "2"}, pairs)

	_, err = ParseKeyValues([]string{"=1"})
	assert.Error(t, err)
}
