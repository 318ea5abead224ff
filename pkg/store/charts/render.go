package charts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/de-tools/market-atlas/pkg/models/domain"
	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const (
	width    = 10 * vg.Inch
	height   = 5 * vg.Inch
	barWidth = vg.Length(14) // points
)

// ChartArtifact is a rendered chart ready to be saved
type ChartArtifact struct {
	Name  string
	Title string
	PNG   []byte
}

// RenderCharts draws every chart of the document, sheet by sheet
func RenderCharts(doc domain.ReportDocument) ([]ChartArtifact, error) {
	var artifacts []ChartArtifact
	for _, sheet := range doc.Sheets {
		for _, spec := range sheet.Charts {
			png, err := render(sheet, spec)
			if err != nil {
				return nil, fmt.Errorf("failed to render chart %s of %s: %w", spec.Name, sheet.Name, err)
			}
			artifacts = append(artifacts, ChartArtifact{
				Name:  fmt.Sprintf("%s-%s.png", domain.Slug(sheet.Name), spec.Name),
				Title: spec.Title,
				PNG:   png,
			})
		}
	}
	return artifacts, nil
}

// SaveArtifacts writes the images into dir and returns their paths. On failure the images
// already written are removed again.
func SaveArtifacts(ctx context.Context, dir string, artifacts []ChartArtifact) ([]string, error) {
	logger := zerolog.Ctx(ctx)

	paths := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		path := filepath.Join(dir, a.Name)
		if err := renameio.WriteFile(path, a.PNG, 0o644, renameio.WithTempDir(dir)); err != nil {
			RemoveArtifacts(ctx, paths)
			return nil, &domain.WriteError{Path: path, Err: err}
		}
		logger.Debug().Str("path", path).Msg("Chart written")
		paths = append(paths, path)
	}
	return paths, nil
}

// RemoveArtifacts deletes written images, logging what could not be removed
func RemoveArtifacts(ctx context.Context, paths []string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			zerolog.Ctx(ctx).Warn().Err(err).Str("path", path).Msg("Failed to remove chart")
		}
	}
}

func render(sheet domain.Sheet, spec domain.ChartSpec) ([]byte, error) {
	xCol := sheet.ColumnIndex(spec.XColumn)
	if xCol < 0 {
		return nil, fmt.Errorf("unknown column %q", spec.XColumn)
	}

	p := plot.New()
	p.Title.Text = spec.Title
	p.X.Label.Text = spec.XAxisTitle
	p.Y.Label.Text = spec.YAxisTitle
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	series := sheet.ResolveSeries(spec)
	var categories []string
	for i, s := range series {
		col := sheet.ColumnIndex(s.Column)
		if col < 0 {
			return nil, fmt.Errorf("unknown column %q", s.Column)
		}
		if s.FirstRow < 1 || s.LastRow < s.FirstRow || s.LastRow > len(sheet.Rows) {
			return nil, fmt.Errorf("rows %d-%d out of range", s.FirstRow, s.LastRow)
		}

		rows := sheet.Rows[s.FirstRow-1 : s.LastRow]
		values := make(plotter.Values, len(rows))
		labels := make([]string, len(rows))
		for j, row := range rows {
			v, err := toFloat(row[col])
			if err != nil {
				return nil, fmt.Errorf("%s row %d: %w", s.Column, s.FirstRow+j, err)
			}
			values[j] = v
			labels[j] = fmt.Sprint(row[xCol])
		}
		if len(labels) > len(categories) {
			categories = labels
		}

		if err := addSeries(p, spec.Type, s.Name, values, i, len(series)); err != nil {
			return nil, err
		}
	}

	if spec.Type == domain.ChartTypeBar {
		p.NominalY(categories...)
	} else {
		p.NominalX(categories...)
	}

	w, err := p.WriterTo(width, height, "png")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addSeries(p *plot.Plot, chartType domain.ChartType, name string, values plotter.Values, i, n int) error {
	switch chartType {
	case domain.ChartTypeLine:
		xys := make(plotter.XYs, len(values))
		for j, v := range values {
			xys[j].X = float64(j)
			xys[j].Y = v
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return err
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(2)
		p.Add(line)
		p.Legend.Add(name, line)
	case domain.ChartTypeColumn, domain.ChartTypeBar:
		bars, err := plotter.NewBarChart(values, barWidth)
		if err != nil {
			return err
		}
		bars.Color = plotutil.Color(i)
		bars.LineStyle.Width = 0
		bars.Horizontal = chartType == domain.ChartTypeBar
		// side by side around each category
		bars.Offset = barWidth * vg.Length(2*i-n+1) / 2
		p.Add(bars)
		p.Legend.Add(name, bars)
	default:
		return fmt.Errorf("unsupported chart type %q", chartType)
	}
	return nil
}

func toFloat(v interface{}) (float64, error) {
	switch value := v.(type) {
	case decimal.Decimal:
		return value.InexactFloat64(), nil
	case float64:
		return value, nil
	case int:
		return float64(value), nil
	case int64:
		return float64(value), nil
	default:
		return 0, fmt.Errorf("value %v is not a number", v)
	}
}

// EnsureDir creates the chart directory when it was given explicitly. It reports whether
// the directory had to be created.
func EnsureDir(dir string) (bool, error) {
	info, err := os.Stat(dir)
	switch {
	case err == nil && info.IsDir():
		return false, nil
	case err == nil:
		return false, &domain.WriteError{Path: dir, Err: fmt.Errorf("not a directory")}
	case !errors.Is(err, fs.ErrNotExist):
		return false, &domain.WriteError{Path: dir, Err: err}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, &domain.WriteError{Path: dir, Err: err}
	}
	return true, nil
}
