package estimator

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/de-tools/market-atlas/pkg/models/domain"
	"github.com/shopspring/decimal"
)

// ComputeScenarios applies every definition to the baseline, keeping definition order.
func ComputeScenarios(baseline []domain.YearlyRecord, defs []domain.ScenarioDef) (domain.ScenarioSet, error) {
	set := make(domain.ScenarioSet, 0, len(defs))
	seen := make(map[string]struct{}, len(defs))

	for _, def := range defs {
		name := strings.TrimSpace(def.Name)
		if name == "" {
			return nil, &domain.InvalidAssumptionError{
				Field:  "scenario.name",
				Value:  fmt.Sprintf("%q", def.Name),
				Reason: "must not be empty",
			}
		}
		if _, exists := seen[name]; exists {
			return nil, &domain.DuplicateScenarioNameError{Name: name}
		}
		seen[name] = struct{}{}

		if err := validateScenario(name, def); err != nil {
			return nil, err
		}

		records, err := applyScenario(name, baseline, def)
		if err != nil {
			return nil, err
		}
		set = append(set, domain.Scenario{Name: name, Definition: def, Records: records})
	}
	return set, nil
}

func validateScenario(name string, def domain.ScenarioDef) error {
	if def.Multiplier != nil && def.Multiplier.IsNegative() {
		return &domain.InvalidAssumptionError{
			Field:  fmt.Sprintf("scenario %q multiplier", name),
			Value:  def.Multiplier.String(),
			Reason: "must not be negative",
		}
	}
	if def.GrowthRate != nil && def.GrowthRate.IsNegative() {
		return &domain.InvalidAssumptionError{
			Field:  fmt.Sprintf("scenario %q growth_rate", name),
			Value:  def.GrowthRate.String(),
			Reason: "must not be negative",
		}
	}
	for _, year := range slices.Sorted(maps.Keys(def.YearMultipliers)) {
		if m := def.YearMultipliers[year]; m.IsNegative() {
			return &domain.InvalidAssumptionError{
				Field:  fmt.Sprintf("scenario %q year multiplier", name),
				Year:   year,
				Value:  m.String(),
				Reason: "must not be negative",
			}
		}
	}
	return nil
}

func applyScenario(name string, baseline []domain.YearlyRecord, def domain.ScenarioDef) ([]domain.ScenarioRecord, error) {
	flat := one
	if def.Multiplier != nil {
		flat = *def.Multiplier
	}
	multiplierFor := func(year int) decimal.Decimal {
		if m, ok := def.YearMultipliers[year]; ok {
			return m
		}
		return flat
	}

	records := make([]domain.ScenarioRecord, 0, len(baseline))
	var path domain.YearlyRecord
	var pathPlayers decimal.Decimal

	for i, b := range baseline {
		source := b
		players := decimal.NewFromInt(b.PlayerCount)

		if def.GrowthRate != nil {
			// the scenario follows its own growth curve from the first baseline year
			if i == 0 {
				path = b
				pathPlayers = players
			} else {
				factor := one.Add(*def.GrowthRate)
				path.Revenue = path.Revenue.Mul(factor)
				path.TotalWagered = path.TotalWagered.Mul(factor)
				path.EstimatedProfit = path.EstimatedProfit.Mul(factor)
				pathPlayers = pathPlayers.Mul(factor)
			}
			source.Revenue = path.Revenue
			source.TotalWagered = path.TotalWagered
			source.EstimatedProfit = path.EstimatedProfit
			source.MarketSharePct = rescaleShare(b, path.Revenue)
			players = pathPlayers
		}

		m := multiplierFor(b.Year)
		rec := domain.YearlyRecord{
			Year:            b.Year,
			Phase:           b.Phase,
			Revenue:         source.Revenue.Mul(m),
			PlayerCount:     players.Mul(m).Round(0).IntPart(),
			TotalWagered:    source.TotalWagered.Mul(m),
			MarketSharePct:  source.MarketSharePct.Mul(m),
			EstimatedProfit: source.EstimatedProfit.Mul(m),
		}
		if rec.MarketSharePct.GreaterThan(hundred) {
			return nil, &domain.InvalidAssumptionError{
				Field:  fmt.Sprintf("scenario %q multiplier", name),
				Year:   b.Year,
				Value:  m.String(),
				Reason: "market share would exceed 100%",
			}
		}
		records = append(records, domain.ScenarioRecord{Scenario: name, YearlyRecord: rec})
	}
	return records, nil
}

// rescaleShare keeps the implied market total of a baseline year for a different revenue
func rescaleShare(b domain.YearlyRecord, revenue decimal.Decimal) decimal.Decimal {
	if b.Revenue.IsZero() || b.MarketSharePct.IsZero() {
		return decimal.Zero
	}
	return b.MarketSharePct.Mul(revenue).DivRound(b.Revenue, sharePlaces)
}
