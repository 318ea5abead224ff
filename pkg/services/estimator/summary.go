package estimator

import (
	"fmt"

	"github.com/de-tools/market-atlas/pkg/models/domain"
	"github.com/shopspring/decimal"
)

// Summarize builds the cumulative analysis of a run. Market share figures come from the
// comparison when one was computed, from the baseline otherwise.
func Summarize(
	baseline []domain.YearlyRecord,
	scenarios domain.ScenarioSet,
	comparison []domain.ComparisonRow,
) domain.Summary {
	var s domain.Summary
	if len(baseline) == 0 {
		return s
	}

	first, last := baseline[0], baseline[len(baseline)-1]
	s.Period = fmt.Sprintf("%d-%d", first.Year, last.Year)
	s.Years = len(baseline)
	s.BestYear = domain.YearValue{Year: first.Year, Value: first.Revenue}
	s.BestYearPhase = first.Phase
	s.WorstYear = s.BestYear
	s.WorstYearPhase = first.Phase
	s.PeakPlayers = first.PlayerCount
	s.PeakPlayersYear = first.Year

	for _, b := range baseline {
		s.TotalRevenue = s.TotalRevenue.Add(b.Revenue)
		s.TotalProfit = s.TotalProfit.Add(b.EstimatedProfit)
		s.TotalWagered = s.TotalWagered.Add(b.TotalWagered)

		// strict comparisons keep the earliest year on ties
		if b.PlayerCount > s.PeakPlayers {
			s.PeakPlayers = b.PlayerCount
			s.PeakPlayersYear = b.Year
		}
		if b.Revenue.GreaterThan(s.BestYear.Value) {
			s.BestYear = domain.YearValue{Year: b.Year, Value: b.Revenue}
			s.BestYearPhase = b.Phase
		}
		if b.Revenue.LessThan(s.WorstYear.Value) {
			s.WorstYear = domain.YearValue{Year: b.Year, Value: b.Revenue}
			s.WorstYearPhase = b.Phase
		}
	}

	s.AverageRevenue = s.TotalRevenue.DivRound(decimal.NewFromInt(int64(s.Years)), sharePlaces)
	if !first.Revenue.IsZero() {
		s.TrendPct = last.Revenue.Sub(first.Revenue).Mul(hundred).DivRound(first.Revenue, sharePlaces)
	}

	shares := make([]domain.YearValue, 0, len(baseline))
	if len(comparison) > 0 {
		for _, c := range comparison {
			shares = append(shares, domain.YearValue{Year: c.Year, Value: c.SharePct})
		}
	} else {
		for _, b := range baseline {
			shares = append(shares, domain.YearValue{Year: b.Year, Value: b.MarketSharePct})
		}
	}
	s.AverageMarketShare, s.PeakMarketShare = shareStats(shares)

	for _, sc := range scenarios {
		total := decimal.Zero
		for _, r := range sc.Records {
			total = total.Add(r.Revenue)
		}
		delta := total.Sub(s.TotalRevenue)
		deltaPct := decimal.Zero
		if !s.TotalRevenue.IsZero() {
			deltaPct = delta.Mul(hundred).DivRound(s.TotalRevenue, sharePlaces)
		}
		s.Scenarios = append(s.Scenarios, domain.ScenarioDelta{
			Name:         sc.Name,
			TotalRevenue: total,
			Delta:        delta,
			DeltaPct:     deltaPct,
		})
	}
	return s
}

func shareStats(shares []domain.YearValue) (decimal.Decimal, domain.YearValue) {
	if len(shares) == 0 {
		return decimal.Zero, domain.YearValue{}
	}
	sum := decimal.Zero
	peak := shares[0]
	for _, v := range shares {
		sum = sum.Add(v.Value)
		if v.Value.GreaterThan(peak.Value) {
			peak = v
		}
	}
	return sum.DivRound(decimal.NewFromInt(int64(len(shares))), sharePlaces), peak
}
