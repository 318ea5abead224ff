package domain

import "github.com/shopspring/decimal"

// Assumptions drive the baseline estimate
type Assumptions struct {
	StartYear        int
	EndYear          int
	InitialRevenue   decimal.Decimal
	InitialPlayers   int64
	InitialWagered   decimal.Decimal
	GrowthRate       decimal.Decimal
	PlayerGrowthRate *decimal.Decimal // nil -> GrowthRate
	WagerGrowthRate  *decimal.Decimal // nil -> GrowthRate
	ProfitMargin     decimal.Decimal  // fraction of revenue, 0.18
	MarketTotals     map[int]decimal.Decimal
	Phases           map[int]string
}

// YearlyRecord represents the estimated metrics of a single year
type YearlyRecord struct {
	Year            int
	Phase           string // Launch, Growth, Peak...
	Revenue         decimal.Decimal
	PlayerCount     int64
	TotalWagered    decimal.Decimal
	MarketSharePct  decimal.Decimal // 0..100
	EstimatedProfit decimal.Decimal
}

// ScenarioDef describes how a scenario deviates from the baseline
type ScenarioDef struct {
	Name            string
	Multiplier      *decimal.Decimal // nil -> 1
	GrowthRate      *decimal.Decimal
	YearMultipliers map[int]decimal.Decimal
}

// ScenarioRecord is a YearlyRecord produced for a named scenario
type ScenarioRecord struct {
	Scenario string
	YearlyRecord
}

type Scenario struct {
	Name       string
	Definition ScenarioDef
	Records    []ScenarioRecord
}

// ScenarioSet keeps scenarios in definition order
type ScenarioSet []Scenario

func (s ScenarioSet) Get(name string) ([]ScenarioRecord, bool) {
	for _, sc := range s {
		if sc.Name == name {
			return sc.Records, true
		}
	}
	return nil, false
}

func (s ScenarioSet) Names() []string {
	names := make([]string, 0, len(s))
	for _, sc := range s {
		names = append(names, sc.Name)
	}
	return names
}

// ComparisonRow compares the baseline revenue with the external market total of a year
type ComparisonRow struct {
	Year            int
	BaselineRevenue decimal.Decimal
	MarketTotal     decimal.Decimal
	SharePct        decimal.Decimal
	Gap             decimal.Decimal // MarketTotal - BaselineRevenue
	ShareChangePts  decimal.Decimal // year over year, percentage points
}

type RegulatoryEvent struct {
	Year        int
	Description string
}

// YearValue pins a metric to the year it was observed in
type YearValue struct {
	Year  int
	Value decimal.Decimal
}

type ScenarioDelta struct {
	Name         string
	TotalRevenue decimal.Decimal
	Delta        decimal.Decimal
	DeltaPct     decimal.Decimal
}

// Summary is the cumulative analysis of a run
type Summary struct {
	Period             string
	Years              int
	TotalRevenue       decimal.Decimal
	TotalProfit        decimal.Decimal
	TotalWagered       decimal.Decimal
	PeakPlayers        int64
	PeakPlayersYear    int
	AverageRevenue     decimal.Decimal
	BestYear           YearValue
	BestYearPhase      string
	WorstYear          YearValue
	WorstYearPhase     string
	TrendPct           decimal.Decimal
	AverageMarketShare decimal.Decimal
	PeakMarketShare    YearValue
	Scenarios          []ScenarioDelta
}
