package commands

import (
	"github.com/de-tools/market-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/market-atlas/pkg/services/config"
	"github.com/de-tools/market-atlas/pkg/services/workflow"
	"github.com/spf13/cobra"
)

const defaultOutput = "online_gambling_market.xlsx"

type ExportCmd struct {
	global      *GlobalOptions
	assumptions assumptionFlags
	output      string
	chartsDir   string
	noCharts    bool
	runner      *workflow.Runner
	reporter    *export.Reporter
}

func NewExportCmd(global *GlobalOptions, runner *workflow.Runner, reporter *export.Reporter) *cobra.Command {
	ec := &ExportCmd{global: global, runner: runner, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Estimate the market and write the workbook",
		Args:  cobra.NoArgs,
		RunE:  ec.run,
	}

	cmd.Flags().StringVarP(&ec.output, "output", "o", defaultOutput, "Path of the workbook to write")
	cmd.Flags().StringVar(&ec.chartsDir, "charts-dir", "", "Directory for chart images (default is next to the workbook)")
	cmd.Flags().BoolVar(&ec.noCharts, "no-charts", false, "Skip chart images")
	ec.assumptions.bind(cmd)

	return cmd
}

func (ec *ExportCmd) run(cmd *cobra.Command, _ []string) error {
	settings, err := config.LoadAssumptions(ec.assumptions.loadOptions(cmd, ec.global))
	if err != nil {
		return err
	}

	result, err := ec.runner.Export(cmd.Context(), settings, workflow.ExportRequest{
		OutputPath: ec.output,
		ChartsDir:  ec.chartsDir,
		Charts:     !ec.noCharts,
	})
	if err != nil {
		return err
	}

	return ec.reporter.Handle(result)
}
