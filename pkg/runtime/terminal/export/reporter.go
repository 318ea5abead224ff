package export

import (
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/de-tools/market-atlas/pkg/models/domain"
	"github.com/de-tools/market-atlas/pkg/services/estimator"
	"github.com/de-tools/market-atlas/pkg/services/workflow"
	"github.com/shopspring/decimal"
)

const moneyPlaces = 2

type runView struct {
	Title          string
	RunID          string
	Summary        domain.Summary
	HasComparison  bool
	ReplacedTotals []int
	OutputPath     string
	ChartPaths     []string
}

const runTemplate = `
{{.Title}}
Run: {{.RunID}}
Period: {{.Summary.Period}} ({{.Summary.Years}} years)

Total Revenue: {{money .Summary.TotalRevenue}}
Total Estimated Profit: {{money .Summary.TotalProfit}}
Total Wagered: {{money .Summary.TotalWagered}}
Peak Players: {{.Summary.PeakPlayers}} ({{.Summary.PeakPlayersYear}})
Best Year: {{.Summary.BestYear.Year}} ({{money .Summary.BestYear.Value}}){{if .Summary.BestYearPhase}} {{.Summary.BestYearPhase}}{{end}}
Worst Year: {{.Summary.WorstYear.Year}} ({{money .Summary.WorstYear.Value}}){{if .Summary.WorstYearPhase}} {{.Summary.WorstYearPhase}}{{end}}
Trend: {{pct .Summary.TrendPct}}
{{if .HasComparison}}Average Market Share: {{pct .Summary.AverageMarketShare}}
{{end}}{{if .ReplacedTotals}}Market totals taken from source for: {{.ReplacedTotals}}
{{end}}{{if .Summary.Scenarios}}
=== Scenarios ===
{{range .Summary.Scenarios}}- {{.Name}}: {{money .TotalRevenue}} ({{pct .DeltaPct}} vs baseline)
{{end}}{{end}}
Workbook: {{.OutputPath}}
{{range .ChartPaths}}Chart: {{.}}
{{end}}`

// Reporter prints the outcome of an export run
type Reporter struct {
	writer io.Writer
	tmpl   *template.Template
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	funcMap := template.FuncMap{
		"money": func(d decimal.Decimal) string {
			return d.StringFixed(moneyPlaces)
		},
		"pct": func(d decimal.Decimal) string {
			return d.StringFixed(moneyPlaces) + "%"
		},
	}
	return &Reporter{
		writer: writer,
		tmpl:   template.Must(template.New("run").Funcs(funcMap).Parse(runTemplate)),
	}
}

func (c *Reporter) Handle(result *workflow.ExportResult) error {
	view := runView{
		Title:          result.Document.Title,
		RunID:          result.RunID,
		Summary:        estimator.Summarize(result.Baseline, result.Scenarios, result.Comparison),
		HasComparison:  len(result.Comparison) > 0,
		ReplacedTotals: result.ReplacedTotals,
		OutputPath:     result.OutputPath,
		ChartPaths:     result.ChartPaths,
	}
	if err := c.tmpl.Execute(c.writer, view); err != nil {
		return fmt.Errorf("failed to render run summary: %w", err)
	}
	return nil
}
