package export

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/de-tools/market-atlas/pkg/models/domain"
	"github.com/shopspring/decimal"
)

// Preview prints report sheets as terminal tables
type Preview struct {
	writer      io.Writer
	titleStyle  lipgloss.Style
	headerStyle lipgloss.Style
}

func NewPreview(writer io.Writer) *Preview {
	if writer == nil {
		writer = os.Stdout
	}
	return &Preview{
		writer:      writer,
		titleStyle:  lipgloss.NewStyle().Bold(true).MarginTop(1),
		headerStyle: lipgloss.NewStyle().Bold(true).Padding(0, 1),
	}
}

// Handle renders the named sheets, or all of them when names is empty
func (p *Preview) Handle(doc domain.ReportDocument, names []string) error {
	sheets := doc.Sheets
	if len(names) > 0 {
		sheets = make([]domain.Sheet, 0, len(names))
		for _, name := range names {
			sheet, ok := doc.Sheet(name)
			if !ok {
				return fmt.Errorf("unknown sheet %q", name)
			}
			sheets = append(sheets, sheet)
		}
	}

	for _, sheet := range sheets {
		if _, err := fmt.Fprintln(p.writer, p.titleStyle.Render(sheet.Name)); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(p.writer, p.render(sheet)); err != nil {
			return err
		}
	}
	return nil
}

func (p *Preview) render(sheet domain.Sheet) string {
	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatCell(v)
		}
		rows = append(rows, cells)
	}

	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.headerStyle
			}
			return cellStyle
		}).
		Headers(sheet.Headers...).
		Rows(rows...).
		Render()
}

func formatCell(v interface{}) string {
	switch value := v.(type) {
	case decimal.Decimal:
		return value.Round(moneyPlaces).String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
