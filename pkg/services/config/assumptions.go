package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/de-tools/market-atlas/pkg/models/domain"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const EnvPrefix = "MARKET_ATLAS"

// Settings holds everything a run needs besides the external market source
type Settings struct {
	Title            string
	Assumptions      domain.Assumptions
	Scenarios        []domain.ScenarioDef
	MarketTotalScale decimal.Decimal
	MarketSource     string
	RegulatoryEvents []domain.RegulatoryEvent
}

type LoadOptions struct {
	ConfigFile       string
	EnvFile          string // empty -> ./.env when present
	ScenarioProfiles string
	// Overrides are applied last, keyed like the config file
	Overrides        map[string]interface{}
	ScenarioFlags    []string // name=multiplier
	MarketTotalFlags []string // year=total
}

type scenarioConfig struct {
	Name            string            `mapstructure:"name"`
	Multiplier      string            `mapstructure:"multiplier"`
	GrowthRate      string            `mapstructure:"growth_rate"`
	YearMultipliers map[string]string `mapstructure:"year_multipliers"`
}

type fileConfig struct {
	Title                string            `mapstructure:"title"`
	StartYear            int               `mapstructure:"start_year"`
	EndYear              int               `mapstructure:"end_year"`
	InitialRevenue       string            `mapstructure:"initial_revenue"`
	InitialPlayers       int64             `mapstructure:"initial_players"`
	InitialWagered       string            `mapstructure:"initial_wagered"`
	GrowthRate           string            `mapstructure:"growth_rate"`
	PlayerGrowthRate     string            `mapstructure:"player_growth_rate"`
	WagerGrowthRate      string            `mapstructure:"wager_growth_rate"`
	ProfitMargin         string            `mapstructure:"profit_margin"`
	MarketTotalScale     string            `mapstructure:"market_total_scale"`
	MarketSource         string            `mapstructure:"market_source"`
	ScenarioMultipliers  map[string]string `mapstructure:"scenario_multipliers"`
	Scenarios            []scenarioConfig  `mapstructure:"scenarios"`
	ExternalMarketTotals map[string]string `mapstructure:"external_market_totals"`
	Phases               map[string]string `mapstructure:"phases"`
	RegulatoryEvents     map[string]string `mapstructure:"regulatory_events"`
}

// defaults mirror the first year of the ARJEL based dataset, in millions of euros
var defaults = map[string]interface{}{
	"title":              "Online gambling market estimates",
	"start_year":         2010,
	"end_year":           2023,
	"initial_revenue":    "0.8",
	"initial_players":    15000,
	"initial_wagered":    "12.5",
	"growth_rate":        "0",
	"player_growth_rate": "",
	"wager_growth_rate":  "",
	"profit_margin":      "0.18",
	"market_total_scale": "1",
	"market_source":      "",
}

func LoadAssumptions(opts LoadOptions) (*Settings, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	var cfg fileConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if opts.ConfigFile != "" && len(cfg.ScenarioMultipliers) > 0 {
		names, err := restoreScenarioNames(opts.ConfigFile, cfg.ScenarioMultipliers)
		if err != nil {
			return nil, err
		}
		cfg.ScenarioMultipliers = names
	}

	settings, err := cfg.toSettings()
	if err != nil {
		return nil, err
	}

	if err := applyMarketTotalFlags(settings, opts.MarketTotalFlags); err != nil {
		return nil, err
	}

	flagScenarios, err := parseScenarioFlags(opts.ScenarioFlags)
	if err != nil {
		return nil, err
	}
	settings.Scenarios = append(settings.Scenarios, flagScenarios...)

	if opts.ScenarioProfiles != "" {
		profiles, err := LoadScenarioProfiles(opts.ScenarioProfiles)
		if err != nil {
			return nil, err
		}
		settings.Scenarios = append(settings.Scenarios, profiles...)
	}
	return settings, nil
}

var scenarioSection = regexp.MustCompile(`(?i)scenario_multipliers`)

// restoreScenarioNames takes the scenario_multipliers keys back to the case they have in the
// file, since viper lowercases every map key. Keys not found in the file stay as they are.
func restoreScenarioNames(path string, multipliers map[string]string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if loc := scenarioSection.FindIndex(raw); loc != nil {
		raw = raw[loc[1]:]
	}

	out := make(map[string]string, len(multipliers))
	for key, value := range multipliers {
		name := key
		re := regexp.MustCompile(`(?i)(?:^|[\s{,])["']?(` + regexp.QuoteMeta(key) + `)["']?\s*[:=]`)
		if m := re.FindSubmatch(raw); m != nil {
			name = string(m[1])
		}
		out[name] = value
	}
	return out, nil
}

func loadEnvFile(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
		return nil
	}
	// the default .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}
	return nil
}

func (c fileConfig) toSettings() (*Settings, error) {
	var err error
	s := &Settings{Title: c.Title, MarketSource: c.MarketSource}
	a := domain.Assumptions{
		StartYear:      c.StartYear,
		EndYear:        c.EndYear,
		InitialPlayers: c.InitialPlayers,
	}

	if a.InitialRevenue, err = parseDecimal("initial_revenue", c.InitialRevenue); err != nil {
		return nil, err
	}
	if a.InitialWagered, err = parseDecimal("initial_wagered", c.InitialWagered); err != nil {
		return nil, err
	}
	if a.GrowthRate, err = parseDecimal("growth_rate", c.GrowthRate); err != nil {
		return nil, err
	}
	if a.PlayerGrowthRate, err = parseOptionalDecimal("player_growth_rate", c.PlayerGrowthRate); err != nil {
		return nil, err
	}
	if a.WagerGrowthRate, err = parseOptionalDecimal("wager_growth_rate", c.WagerGrowthRate); err != nil {
		return nil, err
	}
	if a.ProfitMargin, err = parseDecimal("profit_margin", c.ProfitMargin); err != nil {
		return nil, err
	}
	if s.MarketTotalScale, err = parseDecimal("market_total_scale", c.MarketTotalScale); err != nil {
		return nil, err
	}
	if !s.MarketTotalScale.IsPositive() {
		return nil, &domain.InvalidAssumptionError{
			Field:  "market_total_scale",
			Value:  s.MarketTotalScale.String(),
			Reason: "must be positive",
		}
	}

	totals, err := parseYearDecimals("external_market_totals", c.ExternalMarketTotals)
	if err != nil {
		return nil, err
	}
	for year, total := range totals {
		totals[year] = total.Mul(s.MarketTotalScale)
	}
	a.MarketTotals = totals

	if a.Phases, err = parseYearStrings("phases", c.Phases); err != nil {
		return nil, err
	}

	events, err := parseYearStrings("regulatory_events", c.RegulatoryEvents)
	if err != nil {
		return nil, err
	}
	for _, year := range slices.Sorted(maps.Keys(events)) {
		s.RegulatoryEvents = append(s.RegulatoryEvents, domain.RegulatoryEvent{Year: year, Description: events[year]})
	}

	for _, sc := range c.Scenarios {
		def, err := sc.toDef()
		if err != nil {
			return nil, err
		}
		s.Scenarios = append(s.Scenarios, def)
	}
	// map entries carry no order of their own
	for _, name := range slices.Sorted(maps.Keys(c.ScenarioMultipliers)) {
		m, err := parseDecimal(fmt.Sprintf("scenario_multipliers.%s", name), c.ScenarioMultipliers[name])
		if err != nil {
			return nil, err
		}
		s.Scenarios = append(s.Scenarios, domain.ScenarioDef{Name: name, Multiplier: &m})
	}

	s.Assumptions = a
	return s, nil
}

func (sc scenarioConfig) toDef() (domain.ScenarioDef, error) {
	field := fmt.Sprintf("scenarios.%s", sc.Name)
	def := domain.ScenarioDef{Name: sc.Name}

	var err error
	if def.Multiplier, err = parseOptionalDecimal(field+".multiplier", sc.Multiplier); err != nil {
		return def, err
	}
	if def.GrowthRate, err = parseOptionalDecimal(field+".growth_rate", sc.GrowthRate); err != nil {
		return def, err
	}
	if len(sc.YearMultipliers) > 0 {
		if def.YearMultipliers, err = parseYearDecimals(field+".year_multipliers", sc.YearMultipliers); err != nil {
			return def, err
		}
	}
	return def, nil
}

func applyMarketTotalFlags(s *Settings, flags []string) error {
	pairs, err := ParseKeyValues(flags)
	if err != nil {
		return err
	}
	totals, err := parseYearDecimals("market-total", pairs)
	if err != nil {
		return err
	}
	if len(totals) > 0 && s.Assumptions.MarketTotals == nil {
		s.Assumptions.MarketTotals = make(map[int]decimal.Decimal, len(totals))
	}
	for year, total := range totals {
		s.Assumptions.MarketTotals[year] = total.Mul(s.MarketTotalScale)
	}
	return nil
}

func parseScenarioFlags(flags []string) ([]domain.ScenarioDef, error) {
	defs := make([]domain.ScenarioDef, 0, len(flags))
	for _, flag := range flags {
		name, value, ok := strings.Cut(flag, "=")
		if !ok {
			return nil, &domain.InvalidAssumptionError{Field: "scenario", Value: flag, Reason: "expected name=multiplier"}
		}
		m, err := parseDecimal("scenario "+name, value)
		if err != nil {
			return nil, err
		}
		defs = append(defs, domain.ScenarioDef{Name: name, Multiplier: &m})
	}
	return defs, nil
}

// ParseKeyValues splits repeated key=value flags; a later key wins
func ParseKeyValues(items []string) (map[string]string, error) {
	out := make(map[string]string, len(items))
	for _, item := range items {
		key, value, ok := strings.Cut(item, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, &domain.InvalidAssumptionError{Field: "flag", Value: item, Reason: "expected key=value"}
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return out, nil
}

func parseDecimal(field, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, &domain.InvalidAssumptionError{Field: field, Value: raw, Reason: "not a number"}
	}
	return d, nil
}

func parseOptionalDecimal(field, raw string) (*decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	d, err := parseDecimal(field, raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseYear(field, raw string) (int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &domain.InvalidAssumptionError{Field: field, Value: raw, Reason: "not a year"}
	}
	return year, nil
}

func parseYearDecimals(field string, raw map[string]string) (map[int]decimal.Decimal, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[int]decimal.Decimal, len(raw))
	for _, key := range slices.Sorted(maps.Keys(raw)) {
		year, err := parseYear(field, key)
		if err != nil {
			return nil, err
		}
		d, err := parseDecimal(fmt.Sprintf("%s.%d", field, year), raw[key])
		if err != nil {
			return nil, err
		}
		out[year] = d
	}
	return out, nil
}

func parseYearStrings(field string, raw map[string]string) (map[int]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[int]string, len(raw))
	for _, key := range slices.Sorted(maps.Keys(raw)) {
		year, err := parseYear(field, key)
		if err != nil {
			return nil, err
		}
		out[year] = raw[key]
	}
	return out, nil
}
