package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/de-tools/market-atlas/pkg/adapters"
	"github.com/de-tools/market-atlas/pkg/models/domain"
	"github.com/de-tools/market-atlas/pkg/models/store"
	"github.com/de-tools/market-atlas/pkg/services/config"
	"github.com/de-tools/market-atlas/pkg/services/estimator"
	"github.com/de-tools/market-atlas/pkg/services/report"
	"github.com/de-tools/market-atlas/pkg/store/charts"
	"github.com/de-tools/market-atlas/pkg/store/duckdb/market"
	"github.com/de-tools/market-atlas/pkg/store/xlsx"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MarketLoader reads yearly market totals from an external file
type MarketLoader interface {
	LoadTotals(ctx context.Context, path string) ([]store.MarketTotal, error)
}

type Runner struct {
	loader MarketLoader
	newID  func() string
}

func NewRunner(loader MarketLoader) *Runner {
	if loader == nil {
		loader = market.FileLoader{}
	}
	return &Runner{
		loader: loader,
		newID:  uuid.NewString,
	}
}

// Estimates is everything computed for one run, before anything is written
type Estimates struct {
	RunID          string
	Baseline       []domain.YearlyRecord
	Scenarios      domain.ScenarioSet
	Comparison     []domain.ComparisonRow
	Document       domain.ReportDocument
	ReplacedTotals []int
}

type ExportRequest struct {
	OutputPath string
	ChartsDir  string // empty -> next to the workbook
	Charts     bool
}

type ExportResult struct {
	*Estimates
	OutputPath string
	ChartPaths []string
}

func (r *Runner) Estimate(ctx context.Context, settings *config.Settings) (*Estimates, error) {
	runID := r.newID()
	logger := zerolog.Ctx(ctx).With().Str("run_id", runID).Logger()
	ctx = logger.WithContext(ctx)

	assumptions := settings.Assumptions
	replaced, err := r.applyMarketSource(ctx, settings, &assumptions)
	if err != nil {
		return nil, err
	}

	baseline, err := estimator.ComputeBaseline(assumptions)
	if err != nil {
		return nil, err
	}
	logger.Debug().
		Int("start_year", assumptions.StartYear).
		Int("end_year", assumptions.EndYear).
		Msg("Baseline computed")

	scenarios, err := estimator.ComputeScenarios(baseline, settings.Scenarios)
	if err != nil {
		return nil, err
	}

	var comparison []domain.ComparisonRow
	if len(assumptions.MarketTotals) > 0 {
		if comparison, err = estimator.ComputeMarketComparison(baseline, assumptions.MarketTotals); err != nil {
			return nil, err
		}
	} else {
		logger.Info().Msg("No market totals, comparison left empty")
	}

	doc := report.BuildDocument(baseline, scenarios, comparison, report.Options{
		Title:  settings.Title,
		RunID:  runID,
		Events: settings.RegulatoryEvents,
	})

	return &Estimates{
		RunID:          runID,
		Baseline:       baseline,
		Scenarios:      scenarios,
		Comparison:     comparison,
		Document:       doc,
		ReplacedTotals: replaced,
	}, nil
}

func (r *Runner) Export(ctx context.Context, settings *config.Settings, req ExportRequest) (*ExportResult, error) {
	if strings.TrimSpace(req.OutputPath) == "" {
		return nil, fmt.Errorf("output path is required")
	}

	est, err := r.Estimate(ctx, settings)
	if err != nil {
		return nil, err
	}
	logger := zerolog.Ctx(ctx).With().Str("run_id", est.RunID).Logger()
	ctx = logger.WithContext(ctx)

	// images go to disk before the workbook is renamed into place, so either step failing
	// can still undo the other
	var artifacts []charts.ChartArtifact
	if req.Charts {
		if artifacts, err = charts.RenderCharts(est.Document); err != nil {
			return nil, err
		}
	}

	result := &ExportResult{Estimates: est, OutputPath: req.OutputPath}
	var chartDir string
	var createdDir bool
	if len(artifacts) > 0 {
		chartDir = req.ChartsDir
		if chartDir == "" {
			chartDir = filepath.Dir(req.OutputPath)
		} else if createdDir, err = charts.EnsureDir(chartDir); err != nil {
			return nil, err
		}
		if result.ChartPaths, err = charts.SaveArtifacts(ctx, chartDir, artifacts); err != nil {
			removeCreatedDir(ctx, chartDir, createdDir)
			return nil, err
		}
	}

	if err := xlsx.WriteSpreadsheet(ctx, est.Document, req.OutputPath); err != nil {
		charts.RemoveArtifacts(ctx, result.ChartPaths)
		removeCreatedDir(ctx, chartDir, createdDir)
		return nil, err
	}

	if len(result.ChartPaths) > 0 {
		logger.Info().Int("charts", len(result.ChartPaths)).Str("dir", chartDir).Msg("Charts written")
	}
	return result, nil
}

func removeCreatedDir(ctx context.Context, dir string, created bool) {
	if !created {
		return
	}
	if err := os.Remove(dir); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("dir", dir).Msg("Failed to remove chart directory")
	}
}

func (r *Runner) applyMarketSource(ctx context.Context, settings *config.Settings, a *domain.Assumptions) ([]int, error) {
	if settings.MarketSource == "" {
		return nil, nil
	}
	logger := zerolog.Ctx(ctx)

	rows, err := r.loader.LoadTotals(ctx, settings.MarketSource)
	if err != nil {
		return nil, err
	}
	totals, err := adapters.MapStoreMarketTotals(rows, settings.MarketTotalScale)
	if err != nil {
		return nil, err
	}

	merged, replaced := adapters.MergeMarketTotals(a.MarketTotals, totals)
	a.MarketTotals = merged
	if len(replaced) > 0 {
		logger.Warn().Ints("years", replaced).Msg("Market source overrides configured totals")
	}
	logger.Info().
		Str("source", settings.MarketSource).
		Int("years", len(totals)).
		Msg("Market totals loaded")
	return replaced, nil
}
