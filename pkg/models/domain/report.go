package domain

import (
	"regexp"
	"strings"
)

type ChartType string

const (
	ChartTypeLine   ChartType = "line"
	ChartTypeBar    ChartType = "bar"
	ChartTypeColumn ChartType = "column"
)

// ReportDocument represents the complete workbook produced by a run
type ReportDocument struct {
	Title  string
	RunID  string
	Sheets []Sheet
}

// Sheet represents one rectangular table of the report
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
	Charts  []ChartSpec
}

// SeriesRange selects a block of data rows (1-based, header excluded) of a column
type SeriesRange struct {
	Name     string
	Column   string
	FirstRow int
	LastRow  int
}

// ChartSpec describes a chart over the columns of its sheet
type ChartSpec struct {
	Name       string
	Type       ChartType
	Title      string
	XColumn    string
	YColumns   []string
	XAxisTitle string
	YAxisTitle string
	Series     []SeriesRange // empty -> one series per YColumn over all rows
}

func (d ReportDocument) Sheet(name string) (Sheet, bool) {
	for _, s := range d.Sheets {
		if s.Name == name {
			return s, true
		}
	}
	return Sheet{}, false
}

// ColumnIndex returns the 0-based position of a header, -1 if absent
func (s Sheet) ColumnIndex(header string) int {
	for i, h := range s.Headers {
		if h == header {
			return i
		}
	}
	return -1
}

// ResolveSeries expands a chart into concrete series ranges
func (s Sheet) ResolveSeries(c ChartSpec) []SeriesRange {
	if len(c.Series) > 0 {
		return c.Series
	}
	series := make([]SeriesRange, 0, len(c.YColumns))
	for _, col := range c.YColumns {
		series = append(series, SeriesRange{
			Name:     col,
			Column:   col,
			FirstRow: 1,
			LastRow:  len(s.Rows),
		})
	}
	return series
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns a title into a lowercase file and chart identifier
func Slug(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}
