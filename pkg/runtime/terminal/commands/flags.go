package commands

import (
	"github.com/de-tools/market-atlas/pkg/services/config"
	"github.com/spf13/cobra"
)

// GlobalOptions are bound to the root command and shared by every subcommand
type GlobalOptions struct {
	ConfigFile string
	EnvFile    string
	LogLevel   string
}

// assumptionFlags override config keys only when set on the command line
type assumptionFlags struct {
	title            string
	startYear        int
	endYear          int
	initialRevenue   string
	initialPlayers   int64
	initialWagered   string
	growthRate       string
	profitMargin     string
	marketSource     string
	marketTotalScale string
	scenarioProfiles string
	scenarios        []string
	marketTotals     []string
}

func (f *assumptionFlags) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.title, "title", "", "Workbook title")
	flags.IntVar(&f.startYear, "start-year", 0, "First estimated year")
	flags.IntVar(&f.endYear, "end-year", 0, "Last estimated year")
	flags.StringVar(&f.initialRevenue, "initial-revenue", "", "Revenue of the first year")
	flags.Int64Var(&f.initialPlayers, "initial-players", 0, "Active players in the first year")
	flags.StringVar(&f.initialWagered, "initial-wagered", "", "Amount wagered in the first year")
	flags.StringVar(&f.growthRate, "growth-rate", "", "Yearly revenue growth rate (0.07 for 7%)")
	flags.StringVar(&f.profitMargin, "profit-margin", "", "Profit as a fraction of revenue")
	flags.StringVar(&f.marketSource, "market-source", "", "CSV, Parquet or DuckDB file with yearly market totals")
	flags.StringVar(&f.marketTotalScale, "market-total-scale", "", "Factor applied to every market total")
	flags.StringVar(&f.scenarioProfiles, "scenario-profiles", "", "INI file with one scenario per section")
	flags.StringArrayVar(&f.scenarios, "scenario", nil, "Scenario as name=multiplier (repeatable)")
	flags.StringArrayVar(&f.marketTotals, "market-total", nil, "Market total as year=amount (repeatable)")
}

func (f *assumptionFlags) loadOptions(cmd *cobra.Command, global *GlobalOptions) config.LoadOptions {
	overrides := make(map[string]interface{})
	set := func(flag, key string, value interface{}) {
		if cmd.Flags().Changed(flag) {
			overrides[key] = value
		}
	}
	set("title", "title", f.title)
	set("start-year", "start_year", f.startYear)
	set("end-year", "end_year", f.endYear)
	set("initial-revenue", "initial_revenue", f.initialRevenue)
	set("initial-players", "initial_players", f.initialPlayers)
	set("initial-wagered", "initial_wagered", f.initialWagered)
	set("growth-rate", "growth_rate", f.growthRate)
	set("profit-margin", "profit_margin", f.profitMargin)
	set("market-source", "market_source", f.marketSource)
	set("market-total-scale", "market_total_scale", f.marketTotalScale)

	return config.LoadOptions{
		ConfigFile:       global.ConfigFile,
		EnvFile:          global.EnvFile,
		ScenarioProfiles: f.scenarioProfiles,
		Overrides:        overrides,
		ScenarioFlags:    f.scenarios,
		MarketTotalFlags: f.marketTotals,
	}
}
