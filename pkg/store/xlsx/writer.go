package xlsx

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/de-tools/market-atlas/pkg/models/domain"
	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	defaultSheet = "Sheet1"
	minColWidth  = 10
	maxColWidth  = 40
	chartGap     = 2  // empty columns between a table and its charts
	chartRows    = 18 // vertical space taken by one chart
	chartWidth   = 640
	chartHeight  = 320
)

var chartTypes = map[domain.ChartType]excelize.ChartType{
	domain.ChartTypeLine:   excelize.Line,
	domain.ChartTypeBar:    excelize.Bar,
	domain.ChartTypeColumn: excelize.Col,
}

// WriteSpreadsheet renders doc as a workbook at outputPath. The file is written next to
// its target and renamed into place, so a failed run leaves nothing behind.
func WriteSpreadsheet(ctx context.Context, doc domain.ReportDocument, outputPath string) error {
	logger := zerolog.Ctx(ctx)

	f, err := Build(doc)
	if err != nil {
		return &domain.WriteError{Path: outputPath, Err: err}
	}
	defer f.Close()

	pending, err := renameio.NewPendingFile(outputPath,
		renameio.WithTempDir(filepath.Dir(outputPath)),
		renameio.WithPermissions(0o644),
	)
	if err != nil {
		return &domain.WriteError{Path: outputPath, Err: err}
	}
	defer pending.Cleanup()

	if _, err := f.WriteTo(pending); err != nil {
		return &domain.WriteError{Path: outputPath, Err: err}
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return &domain.WriteError{Path: outputPath, Err: err}
	}

	logger.Info().
		Str("path", outputPath).
		Str("run_id", doc.RunID).
		Int("sheets", len(doc.Sheets)).
		Msg("Workbook written")
	return nil
}

// Build lays out the workbook in memory
func Build(doc domain.ReportDocument) (*excelize.File, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, sheet := range doc.Sheets {
		if i == 0 {
			err = f.SetSheetName(defaultSheet, sheet.Name)
		} else {
			_, err = f.NewSheet(sheet.Name)
		}
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", sheet.Name, err)
		}
		if err := writeSheet(f, sheet, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to fill sheet %s: %w", sheet.Name, err)
		}
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:      doc.Title,
		Identifier: doc.RunID,
		Creator:    "market-atlas",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set workbook properties: %w", err)
	}
	return f, nil
}

func writeSheet(f *excelize.File, sheet domain.Sheet, headerStyle int) error {
	if len(sheet.Headers) == 0 {
		return nil
	}

	header := make([]interface{}, len(sheet.Headers))
	for i, h := range sheet.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet.Name, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(sheet.Headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet.Name, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, row := range sheet.Rows {
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = cellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet.Name, cell, &values); err != nil {
			return err
		}
	}

	for col, width := range columnWidths(sheet) {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet.Name, name, name, width); err != nil {
			return err
		}
	}

	for i, spec := range sheet.Charts {
		chart, err := nativeChart(sheet, spec)
		if err != nil {
			return err
		}
		anchor, err := excelize.CoordinatesToCellName(len(sheet.Headers)+chartGap+1, 1+i*chartRows)
		if err != nil {
			return err
		}
		if err := f.AddChart(sheet.Name, anchor, chart); err != nil {
			return fmt.Errorf("chart %s: %w", spec.Name, err)
		}
	}
	return nil
}

// cellValue keeps numbers numeric; decimals are stored as doubles like any spreadsheet number
func cellValue(v interface{}) interface{} {
	switch value := v.(type) {
	case decimal.Decimal:
		return value.InexactFloat64()
	case *decimal.Decimal:
		if value == nil {
			return nil
		}
		return value.InexactFloat64()
	default:
		return v
	}
}

func columnWidths(sheet domain.Sheet) []float64 {
	widths := make([]float64, len(sheet.Headers))
	for i, h := range sheet.Headers {
		widths[i] = float64(len(h) + 2)
	}
	for _, row := range sheet.Rows {
		for i, v := range row {
			if i >= len(widths) {
				break
			}
			if w := float64(len(fmt.Sprint(v)) + 2); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for i, w := range widths {
		widths[i] = min(max(w, minColWidth), maxColWidth)
	}
	return widths
}

func nativeChart(sheet domain.Sheet, spec domain.ChartSpec) (*excelize.Chart, error) {
	chartType, ok := chartTypes[spec.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported chart type %q", spec.Type)
	}
	xCol := sheet.ColumnIndex(spec.XColumn)
	if xCol < 0 {
		return nil, fmt.Errorf("chart %s: unknown column %q", spec.Name, spec.XColumn)
	}

	chart := &excelize.Chart{
		Type:      chartType,
		Title:     []excelize.RichTextRun{{Text: spec.Title}},
		Legend:    excelize.ChartLegend{Position: "bottom"},
		Dimension: excelize.ChartDimension{Width: chartWidth, Height: chartHeight},
		XAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: spec.XAxisTitle}}},
		YAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: spec.YAxisTitle}}},
	}

	for _, s := range sheet.ResolveSeries(spec) {
		yCol := sheet.ColumnIndex(s.Column)
		if yCol < 0 {
			return nil, fmt.Errorf("chart %s: unknown column %q", spec.Name, s.Column)
		}
		if s.FirstRow < 1 || s.LastRow < s.FirstRow || s.LastRow > len(sheet.Rows) {
			return nil, fmt.Errorf("chart %s: rows %d-%d out of range", spec.Name, s.FirstRow, s.LastRow)
		}
		categories, err := columnRange(sheet.Name, xCol, s.FirstRow, s.LastRow)
		if err != nil {
			return nil, err
		}
		values, err := columnRange(sheet.Name, yCol, s.FirstRow, s.LastRow)
		if err != nil {
			return nil, err
		}
		name, err := seriesNameCell(sheet, s, yCol)
		if err != nil {
			return nil, err
		}
		chart.Series = append(chart.Series, excelize.ChartSeries{
			Name:       name,
			Categories: categories,
			Values:     values,
		})
	}
	return chart, nil
}

// seriesNameCell points the series name at the header, or at the label of the first row
// of the block when the block is one of several in the same column
func seriesNameCell(sheet domain.Sheet, s domain.SeriesRange, col int) (string, error) {
	if s.Name != s.Column && len(sheet.Rows[s.FirstRow-1]) > 0 && fmt.Sprint(sheet.Rows[s.FirstRow-1][0]) == s.Name {
		return absCell(sheet.Name, 0, s.FirstRow+1)
	}
	return absCell(sheet.Name, col, 1)
}

func columnRange(sheetName string, col, firstRow, lastRow int) (string, error) {
	from, err := excelize.CoordinatesToCellName(col+1, firstRow+1, true)
	if err != nil {
		return "", err
	}
	to, err := excelize.CoordinatesToCellName(col+1, lastRow+1, true)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s!%s:%s", quoteSheet(sheetName), from, to), nil
}

func absCell(sheetName string, col, row int) (string, error) {
	cell, err := excelize.CoordinatesToCellName(col+1, row, true)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s!%s", quoteSheet(sheetName), cell), nil
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
