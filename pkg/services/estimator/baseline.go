package estimator

import (
	"maps"
	"slices"

	"github.com/de-tools/market-atlas/pkg/models/domain"
	"github.com/shopspring/decimal"
)

// sharePlaces bounds the precision of every division; multiplications stay exact.
const sharePlaces = 8

// MaxYears caps the length of a projection range.
const MaxYears = 500

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// ComputeBaseline derives one record per year of the range. Every year after the first
// compounds the previous one by its growth rate.
func ComputeBaseline(a domain.Assumptions) ([]domain.YearlyRecord, error) {
	if a.StartYear > a.EndYear {
		return nil, &domain.InvalidRangeError{StartYear: a.StartYear, EndYear: a.EndYear}
	}
	// the subtraction may wrap for extreme years; as uint it is still the true span
	if uint(a.EndYear-a.StartYear) >= MaxYears {
		return nil, &domain.InvalidRangeError{StartYear: a.StartYear, EndYear: a.EndYear, MaxYears: MaxYears}
	}
	if err := validateAssumptions(a); err != nil {
		return nil, err
	}

	playerRate := a.GrowthRate
	if a.PlayerGrowthRate != nil {
		playerRate = *a.PlayerGrowthRate
	}
	wagerRate := a.GrowthRate
	if a.WagerGrowthRate != nil {
		wagerRate = *a.WagerGrowthRate
	}

	revenue := a.InitialRevenue
	players := decimal.NewFromInt(a.InitialPlayers)
	wagered := a.InitialWagered

	records := make([]domain.YearlyRecord, 0, a.EndYear-a.StartYear+1)
	for year := a.StartYear; year <= a.EndYear; year++ {
		if year > a.StartYear {
			revenue = revenue.Mul(one.Add(a.GrowthRate))
			players = players.Mul(one.Add(playerRate))
			wagered = wagered.Mul(one.Add(wagerRate))
		}

		share := decimal.Zero
		if total, ok := a.MarketTotals[year]; ok {
			share = revenue.Mul(hundred).DivRound(total, sharePlaces)
			if share.GreaterThan(hundred) {
				return nil, &domain.InvalidAssumptionError{
					Field:  "external_market_totals",
					Year:   year,
					Value:  total.String(),
					Reason: "market total is smaller than the estimated revenue",
				}
			}
		}

		records = append(records, domain.YearlyRecord{
			Year:            year,
			Phase:           a.Phases[year],
			Revenue:         revenue,
			PlayerCount:     players.Round(0).IntPart(),
			TotalWagered:    wagered,
			MarketSharePct:  share,
			EstimatedProfit: revenue.Mul(a.ProfitMargin),
		})
	}
	return records, nil
}

type checkedValue struct {
	field string
	value decimal.Decimal
}

func validateAssumptions(a domain.Assumptions) error {
	checks := []checkedValue{
		{"initial_revenue", a.InitialRevenue},
		{"initial_players", decimal.NewFromInt(a.InitialPlayers)},
		{"initial_wagered", a.InitialWagered},
		{"growth_rate", a.GrowthRate},
		{"profit_margin", a.ProfitMargin},
	}
	if a.PlayerGrowthRate != nil {
		checks = append(checks, checkedValue{"player_growth_rate", *a.PlayerGrowthRate})
	}
	if a.WagerGrowthRate != nil {
		checks = append(checks, checkedValue{"wager_growth_rate", *a.WagerGrowthRate})
	}

	for _, c := range checks {
		if c.value.IsNegative() {
			return &domain.InvalidAssumptionError{Field: c.field, Value: c.value.String(), Reason: "must not be negative"}
		}
	}

	// profit is a share of revenue and can never exceed it
	if a.ProfitMargin.GreaterThan(one) {
		return &domain.InvalidAssumptionError{
			Field:  "profit_margin",
			Value:  a.ProfitMargin.String(),
			Reason: "must not exceed 1",
		}
	}

	for _, year := range slices.Sorted(maps.Keys(a.MarketTotals)) {
		total := a.MarketTotals[year]
		if !total.IsPositive() {
			return &domain.InvalidAssumptionError{
				Field:  "external_market_totals",
				Year:   year,
				Value:  total.String(),
				Reason: "must be positive",
			}
		}
	}
	return nil
}
