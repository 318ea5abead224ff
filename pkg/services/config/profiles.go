package config

import (
	"fmt"
	"strings"

	"github.com/de-tools/market-atlas/pkg/models/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/ini.v1"
)

const yearKeyPrefix = "year."

// LoadScenarioProfiles reads one scenario per INI section:
//
//	[invest]
//	multiplier = 1.1
//	growth_rate = 0.05
//	year.2014 = 1.5
//
// Repeated sections are kept so that the estimator reports them as duplicates.
func LoadScenarioProfiles(path string) ([]domain.ScenarioDef, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{AllowNonUniqueSections: true}, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario profiles: %w", err)
	}

	var defs []domain.ScenarioDef
	for _, section := range cfg.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}
		def, err := sectionToDef(section)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func sectionToDef(section *ini.Section) (domain.ScenarioDef, error) {
	name := section.Name()
	def := domain.ScenarioDef{Name: name}
	field := fmt.Sprintf("profile %s", name)

	for _, key := range section.Keys() {
		var err error
		switch k := key.Name(); {
		case k == "multiplier":
			def.Multiplier, err = parseOptionalDecimal(field+" multiplier", key.String())
		case k == "growth_rate":
			def.GrowthRate, err = parseOptionalDecimal(field+" growth_rate", key.String())
		case strings.HasPrefix(k, yearKeyPrefix):
			var year int
			var m decimal.Decimal
			if year, err = parseYear(field+" "+k, strings.TrimPrefix(k, yearKeyPrefix)); err != nil {
				break
			}
			if m, err = parseDecimal(fmt.Sprintf("%s year.%d", field, year), key.String()); err != nil {
				break
			}
			if def.YearMultipliers == nil {
				def.YearMultipliers = make(map[int]decimal.Decimal)
			}
			def.YearMultipliers[year] = m
		default:
			err = &domain.InvalidAssumptionError{Field: field, Value: k, Reason: "unknown key"}
		}
		if err != nil {
			return def, err
		}
	}
	return def, nil
}
