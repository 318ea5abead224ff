package report

import (
	"fmt"
	"strings"

	"github.com/de-tools/market-atlas/pkg/models/domain"
	"github.com/de-tools/market-atlas/pkg/services/estimator"
	"github.com/shopspring/decimal"
)

const (
	SheetYearlyData       = "Yearly Data"
	SheetScenarios        = "Scenarios"
	SheetMarketComparison = "Market Comparison"
	SheetSummary          = "Summary"
	SheetRegulatoryEvents = "Regulatory Events"
)

const (
	ColYear         = "Year"
	ColPhase        = "Phase"
	ColRevenue      = "Revenue"
	ColPlayers      = "Players"
	ColTotalWagered = "Total Wagered"
	ColMarketShare  = "Market Share (%)"
	ColProfit       = "Estimated Profit"
	ColMargin       = "Profit Margin (%)"
	ColCumRevenue   = "Cumulative Revenue"
	ColCumProfit    = "Cumulative Profit"
	ColScenario     = "Scenario"
	ColBaseline     = "Baseline Revenue"
	ColMarketTotal  = "Market Total"
	ColShare        = "Share (%)"
	ColGap          = "Gap"
	ColShareChange  = "Share Change (pts)"
	ColIndicator    = "Indicator"
	ColValue        = "Value"
	ColEvent        = "Event"
)

const (
	defaultTitle     = "Online gambling market estimates"
	percentPrecision = 4
)

var (
	yearlyHeaders = []string{
		ColYear, ColPhase, ColRevenue, ColPlayers, ColTotalWagered, ColMarketShare, ColProfit, ColMargin,
		ColCumRevenue, ColCumProfit,
	}
	scenarioHeaders = []string{
		ColScenario, ColYear, ColRevenue, ColPlayers, ColTotalWagered, ColMarketShare, ColProfit,
	}
	comparisonHeaders = []string{
		ColYear, ColBaseline, ColMarketTotal, ColShare, ColGap, ColShareChange,
	}
	hundred = decimal.NewFromInt(100)
)

type Options struct {
	Title  string
	RunID  string
	Events []domain.RegulatoryEvent
}

// BuildDocument lays the estimates out as sheets. Rows keep the order they were computed in.
func BuildDocument(
	baseline []domain.YearlyRecord,
	scenarios domain.ScenarioSet,
	comparison []domain.ComparisonRow,
	opts Options,
) domain.ReportDocument {
	title := opts.Title
	if title == "" {
		title = defaultTitle
	}

	doc := domain.ReportDocument{
		Title: title,
		RunID: opts.RunID,
		Sheets: []domain.Sheet{
			yearlySheet(baseline),
			scenarioSheet(scenarios),
			comparisonSheet(comparison),
			summarySheet(estimator.Summarize(baseline, scenarios, comparison), len(comparison) > 0),
		},
	}
	if len(opts.Events) > 0 {
		doc.Sheets = append(doc.Sheets, eventsSheet(opts.Events))
	}
	return doc
}

func yearlySheet(baseline []domain.YearlyRecord) domain.Sheet {
	rows := make([][]interface{}, 0, len(baseline))
	cumRevenue, cumProfit := decimal.Zero, decimal.Zero
	for _, r := range baseline {
		margin := decimal.Zero
		if !r.Revenue.IsZero() {
			margin = r.EstimatedProfit.Mul(hundred).DivRound(r.Revenue, percentPrecision)
		}
		cumRevenue = cumRevenue.Add(r.Revenue)
		cumProfit = cumProfit.Add(r.EstimatedProfit)
		rows = append(rows, []interface{}{
			r.Year, r.Phase, r.Revenue, r.PlayerCount, r.TotalWagered, r.MarketSharePct, r.EstimatedProfit, margin,
			cumRevenue, cumProfit,
		})
	}

	sheet := domain.Sheet{Name: SheetYearlyData, Headers: yearlyHeaders, Rows: rows}
	if len(rows) > 0 {
		sheet.Charts = []domain.ChartSpec{
			NewChart(domain.ChartTypeLine, ColYear, ColRevenue, ColProfit),
			NewChart(domain.ChartTypeColumn, ColYear, ColPlayers),
			NewChart(domain.ChartTypeLine, ColYear, ColTotalWagered),
			NewChart(domain.ChartTypeLine, ColYear, ColMarketShare),
			NewChart(domain.ChartTypeLine, ColYear, ColCumRevenue, ColCumProfit),
		}
	}
	return sheet
}

func scenarioSheet(scenarios domain.ScenarioSet) domain.Sheet {
	var rows [][]interface{}
	var series []domain.SeriesRange

	for _, sc := range scenarios {
		first := len(rows) + 1
		for _, r := range sc.Records {
			rows = append(rows, []interface{}{
				r.Scenario, r.Year, r.Revenue, r.PlayerCount, r.TotalWagered, r.MarketSharePct, r.EstimatedProfit,
			})
		}
		if len(sc.Records) > 0 {
			series = append(series, domain.SeriesRange{
				Name:     sc.Name,
				Column:   ColRevenue,
				FirstRow: first,
				LastRow:  len(rows),
			})
		}
	}

	sheet := domain.Sheet{Name: SheetScenarios, Headers: scenarioHeaders, Rows: rows}
	if len(series) > 0 {
		chart := NewChart(domain.ChartTypeLine, ColYear, ColRevenue)
		chart.Title = fmt.Sprintf("%s per %s", chart.Title, ColScenario)
		chart.Name = domain.Slug(chart.Title)
		chart.Series = series
		sheet.Charts = []domain.ChartSpec{chart}
	}
	return sheet
}

func comparisonSheet(comparison []domain.ComparisonRow) domain.Sheet {
	rows := make([][]interface{}, 0, len(comparison))
	for _, c := range comparison {
		rows = append(rows, []interface{}{
			c.Year, c.BaselineRevenue, c.MarketTotal, c.SharePct, c.Gap, c.ShareChangePts,
		})
	}

	sheet := domain.Sheet{Name: SheetMarketComparison, Headers: comparisonHeaders, Rows: rows}
	if len(rows) > 0 {
		sheet.Charts = []domain.ChartSpec{NewChart(domain.ChartTypeColumn, ColYear, ColShare)}
	}
	return sheet
}

// summarySheet leaves the share rows out unless there is a comparison to take them from
func summarySheet(s domain.Summary, hasComparison bool) domain.Sheet {
	var rows [][]interface{}
	add := func(indicator string, value interface{}) {
		rows = append(rows, []interface{}{indicator, value})
	}

	if s.Years > 0 {
		add("Period", s.Period)
		add("Years", s.Years)
		add("Total Revenue", s.TotalRevenue)
		add("Total Estimated Profit", s.TotalProfit)
		add("Total Wagered", s.TotalWagered)
		add("Average Revenue per Year", s.AverageRevenue)
		add("Peak Players", s.PeakPlayers)
		add("Peak Players Year", s.PeakPlayersYear)
		add("Best Year", s.BestYear.Year)
		add("Best Year Revenue", s.BestYear.Value)
		if s.BestYearPhase != "" {
			add("Best Year Phase", s.BestYearPhase)
		}
		add("Worst Year", s.WorstYear.Year)
		add("Worst Year Revenue", s.WorstYear.Value)
		if s.WorstYearPhase != "" {
			add("Worst Year Phase", s.WorstYearPhase)
		}
		add("Trend (%)", s.TrendPct)
		if hasComparison {
			add("Average Market Share (%)", s.AverageMarketShare)
			add("Peak Market Share (%)", s.PeakMarketShare.Value)
			add("Peak Market Share Year", s.PeakMarketShare.Year)
		}
	}

	for _, sc := range s.Scenarios {
		add(fmt.Sprintf("Scenario %s Revenue", sc.Name), sc.TotalRevenue)
		add(fmt.Sprintf("Scenario %s Delta", sc.Name), sc.Delta)
		add(fmt.Sprintf("Scenario %s Delta (%%)", sc.Name), sc.DeltaPct)
	}

	return domain.Sheet{Name: SheetSummary, Headers: []string{ColIndicator, ColValue}, Rows: rows}
}

func eventsSheet(events []domain.RegulatoryEvent) domain.Sheet {
	rows := make([][]interface{}, 0, len(events))
	for _, e := range events {
		rows = append(rows, []interface{}{e.Year, e.Description})
	}
	return domain.Sheet{Name: SheetRegulatoryEvents, Headers: []string{ColYear, ColEvent}, Rows: rows}
}

// NewChart derives titles and axis labels from the column names only
func NewChart(chartType domain.ChartType, x string, ys ...string) domain.ChartSpec {
	title := fmt.Sprintf("%s by %s", strings.Join(ys, " & "), x)
	return domain.ChartSpec{
		Name:       domain.Slug(title),
		Type:       chartType,
		Title:      title,
		XColumn:    x,
		YColumns:   ys,
		XAxisTitle: x,
		YAxisTitle: strings.Join(ys, " / "),
	}
}
