package adapters

import (
	"maps"
	"slices"

	"github.com/de-tools/market-atlas/pkg/models/domain"
	"github.com/de-tools/market-atlas/pkg/models/store"
	"github.com/shopspring/decimal"
)

func MapStoreMarketTotals(rows []store.MarketTotal, scale decimal.Decimal) (map[int]decimal.Decimal, error) {
	totals := make(map[int]decimal.Decimal, len(rows))
	for _, row := range rows {
		if _, exists := totals[row.Year]; exists {
			return nil, &domain.InvalidAssumptionError{
				Field:  "market source",
				Year:   row.Year,
				Value:  row.Total,
				Reason: "year listed more than once",
			}
		}
		total, err := decimal.NewFromString(row.Total)
		if err != nil {
			return nil, &domain.InvalidAssumptionError{
				Field:  "market source",
				Year:   row.Year,
				Value:  row.Total,
				Reason: "not a number",
			}
		}
		if total.IsNegative() {
			return nil, &domain.InvalidAssumptionError{
				Field:  "market source",
				Year:   row.Year,
				Value:  row.Total,
				Reason: "must not be negative",
			}
		}
		totals[row.Year] = total.Mul(scale)
	}
	return totals, nil
}

// MergeMarketTotals lets source totals win over configured ones. It returns the merged
// totals and the years the source replaced, ascending.
func MergeMarketTotals(configured, source map[int]decimal.Decimal) (map[int]decimal.Decimal, []int) {
	merged := make(map[int]decimal.Decimal, len(configured)+len(source))
	maps.Copy(merged, configured)

	var replaced []int
	for _, year := range slices.Sorted(maps.Keys(source)) {
		if _, exists := configured[year]; exists {
			replaced = append(replaced, year)
		}
		merged[year] = source[year]
	}
	return merged, replaced
}
