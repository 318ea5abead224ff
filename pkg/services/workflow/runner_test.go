package workflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/de-tools/market-atlas/pkg/models/domain"
	"github.com/de-tools/market-atlas/pkg/models/store"
	"github.com/de-tools/market-atlas/pkg/services/config"
	"github.com/de-tools/market-atlas/pkg/services/report"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type mockLoader struct {
	mock.Mock
}

func (m *mockLoader) LoadTotals(ctx context.Context, path string) ([]store.MarketTotal, error) {
	args := m.Called(ctx, path)
	if rows := args.Get(0); rows != nil {
		return rows.([]store.MarketTotal), args.Error(1)
	}
	return nil, args.Error(1)
}

func multiplier(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func newSettings() *config.Settings {
	return &config.Settings{
		Title: "Test run",
		Assumptions: domain.Assumptions{
			StartYear:      2010,
			EndYear:        2012,
			InitialRevenue: decimal.NewFromInt(100),
			InitialPlayers: 1000,
			InitialWagered: decimal.NewFromInt(500),
			GrowthRate:     decimal.RequireFromString("0.1"),
			ProfitMargin:   decimal.RequireFromString("0.18"),
		},
		Scenarios: []domain.ScenarioDef{
			{Name: "optimistic", Multiplier: multiplier("1.2")},
		},
		MarketTotalScale: decimal.NewFromInt(1),
	}
}

func newTestRunner(loader MarketLoader) *Runner {
	r := NewRunner(loader)
	r.newID = func() string { return "run-1" }
	return r
}

func TestRunner_Estimate(t *testing.T) {
	ctx := context.Background()

	t.Run("without market totals", func(t *testing.T) {
		// Given
		loader := &mockLoader{}
		runner := newTestRunner(loader)

		// When
		est, err := runner.Estimate(ctx, newSettings())

		// Then
		require.NoError(t, err)
		assert.Equal(t, "run-1", est.RunID)
		assert.Len(t, est.Baseline, 3)
		assert.Equal(t, []string{"optimistic"}, est.Scenarios.Names())
		assert.Empty(t, est.Comparison)
		assert.Equal(t, "run-1", est.Document.RunID)
		loader.AssertNotCalled(t, "LoadTotals", mock.Anything, mock.Anything)
	})

	t.Run("source totals override configured ones", func(t *testing.T) {
		// Given
		settings := newSettings()
		settings.MarketSource = "totals.csv"
		settings.MarketTotalScale = decimal.NewFromInt(10)
		settings.Assumptions.MarketTotals = map[int]decimal.Decimal{
			2010: decimal.NewFromInt(5000),
			2011: decimal.NewFromInt(5000),
			2012: decimal.NewFromInt(5000),
		}
		loader := &mockLoader{}
		loader.On("LoadTotals", mock.Anything, "totals.csv").Return([]store.MarketTotal{
			{Year: 2010, Total: "100"},
			{Year: 2011, Total: "110"},
		}, nil)
		runner := newTestRunner(loader)

		// When
		est, err := runner.Estimate(ctx, settings)

		// Then
		require.NoError(t, err)
		assert.Equal(t, []int{2010, 2011}, est.ReplacedTotals)
		require.Len(t, est.Comparison, 3)
		assert.Equal(t, "1000", est.Comparison[0].MarketTotal.String())
		assert.Equal(t, "10", est.Comparison[0].SharePct.String())
		assert.Equal(t, "5000", est.Comparison[2].MarketTotal.String())
		assert.Len(t, settings.Assumptions.MarketTotals, 3)
		assert.Equal(t, "5000", settings.Assumptions.MarketTotals[2010].String())
		loader.AssertExpectations(t)
	})

	t.Run("incomplete source totals", func(t *testing.T) {
		// Given
		settings := newSettings()
		settings.MarketSource = "totals.parquet"
		loader := &mockLoader{}
		loader.On("LoadTotals", mock.Anything, "totals.parquet").Return([]store.MarketTotal{
			{Year: 2010, Total: "1000"},
		}, nil)

		// When
		_, err := newTestRunner(loader).Estimate(ctx, settings)

		// Then
		var missing *domain.MissingYearError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, 2011, missing.Year)
	})

	t.Run("loader failure", func(t *testing.T) {
		// Given
		settings := newSettings()
		settings.MarketSource = "totals.csv"
		loader := &mockLoader{}
		loader.On("LoadTotals", mock.Anything, "totals.csv").Return(nil, errors.New("boom"))

		// When
		_, err := newTestRunner(loader).Estimate(ctx, settings)

		// Then
		assert.EqualError(t, err, "boom")
	})

	t.Run("invalid range", func(t *testing.T) {
		// Given
		settings := newSettings()
		settings.Assumptions.StartYear = 2013

		// When
		_, err := newTestRunner(&mockLoader{}).Estimate(ctx, settings)

		// Then
		var rangeErr *domain.InvalidRangeError
		assert.ErrorAs(t, err, &rangeErr)
	})
}

func TestRunner_Export(t *testing.T) {
	ctx := context.Background()

	t.Run("workbook and charts", func(t *testing.T) {
		// Given
		dir := t.TempDir()
		chartsDir := filepath.Join(dir, "charts")
		output := filepath.Join(dir, "market.xlsx")

		// When
		result, err := newTestRunner(&mockLoader{}).Export(ctx, newSettings(), ExportRequest{
			OutputPath: output,
			ChartsDir:  chartsDir,
			Charts:     true,
		})

		// Then
		require.NoError(t, err)
		assert.Equal(t, output, result.OutputPath)
		assert.NotEmpty(t, result.ChartPaths)
		for _, p := range result.ChartPaths {
			assert.Equal(t, chartsDir, filepath.Dir(p))
			assert.FileExists(t, p)
		}

		f, err := excelize.OpenFile(output)
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows(report.SheetYearlyData)
		require.NoError(t, err)
		assert.Len(t, rows, 4)
	})

	t.Run("workbook only", func(t *testing.T) {
		// Given
		dir := t.TempDir()
		output := filepath.Join(dir, "market.xlsx")

		// When
		result, err := newTestRunner(&mockLoader{}).Export(ctx, newSettings(), ExportRequest{OutputPath: output})

		// Then
		require.NoError(t, err)
		assert.Empty(t, result.ChartPaths)
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("estimation failure writes nothing", func(t *testing.T) {
		// Given
		dir := t.TempDir()
		settings := newSettings()
		settings.Scenarios = append(settings.Scenarios, settings.Scenarios[0])

		// When
		_, err := newTestRunner(&mockLoader{}).Export(ctx, settings, ExportRequest{
			OutputPath: filepath.Join(dir, "market.xlsx"),
			Charts:     true,
		})

		// Then
		var dup *domain.DuplicateScenarioNameError
		require.ErrorAs(t, err, &dup)
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("charts dir blocked by a file leaves no workbook", func(t *testing.T) {
		// Given
		dir := t.TempDir()
		chartsDir := filepath.Join(dir, "charts")
		require.NoError(t, os.WriteFile(chartsDir, []byte("not a dir"), 0o644))
		output := filepath.Join(dir, "market.xlsx")

		// When
		_, err := newTestRunner(&mockLoader{}).Export(ctx, newSettings(), ExportRequest{
			OutputPath: output,
			ChartsDir:  chartsDir,
			Charts:     true,
		})

		// Then
		var writeErr *domain.WriteError
		require.ErrorAs(t, err, &writeErr)
		assert.NoFileExists(t, output)
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("workbook failure removes saved charts", func(t *testing.T) {
		// Given
		dir := t.TempDir()
		chartsDir := filepath.Join(dir, "charts")
		output := filepath.Join(dir, "missing", "market.xlsx")

		// When
		_, err := newTestRunner(&mockLoader{}).Export(ctx, newSettings(), ExportRequest{
			OutputPath: output,
			ChartsDir:  chartsDir,
			Charts:     true,
		})

		// Then
		var writeErr *domain.WriteError
		require.ErrorAs(t, err, &writeErr)
		assert.Equal(t, output, writeErr.Path)
		assert.NoDirExists(t, chartsDir)
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("missing output path", func(t *testing.T) {
		_, err := newTestRunner(&mockLoader{}).Export(ctx, newSettings(), ExportRequest{})

		assert.Error(t, err)
	})
}
