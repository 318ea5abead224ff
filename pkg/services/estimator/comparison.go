package estimator

import (
	"github.com/de-tools/market-atlas/pkg/models/domain"
	"github.com/shopspring/decimal"
)

// ComputeMarketComparison sets every baseline year against the external market total of that year.
func ComputeMarketComparison(baseline []domain.YearlyRecord, totals map[int]decimal.Decimal) ([]domain.ComparisonRow, error) {
	rows := make([]domain.ComparisonRow, 0, len(baseline))
	prevShare := decimal.Zero

	for i, b := range baseline {
		total, ok := totals[b.Year]
		if !ok {
			return nil, &domain.MissingYearError{Year: b.Year}
		}
		if !total.IsPositive() {
			return nil, &domain.InvalidAssumptionError{
				Field:  "external_market_totals",
				Year:   b.Year,
				Value:  total.String(),
				Reason: "must be positive",
			}
		}

		share := b.Revenue.Mul(hundred).DivRound(total, sharePlaces)
		change := decimal.Zero
		if i > 0 {
			change = share.Sub(prevShare)
		}
		prevShare = share

		rows = append(rows, domain.ComparisonRow{
			Year:            b.Year,
			BaselineRevenue: b.Revenue,
			MarketTotal:     total,
			SharePct:        share,
			Gap:             total.Sub(b.Revenue),
			ShareChangePts:  change,
		})
	}
	return rows, nil
}
