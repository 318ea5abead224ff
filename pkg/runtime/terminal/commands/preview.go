package commands

import (
	"github.com/de-tools/market-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/market-atlas/pkg/services/config"
	"github.com/de-tools/market-atlas/pkg/services/workflow"
	"github.com/spf13/cobra"
)

type PreviewCmd struct {
	global      *GlobalOptions
	assumptions assumptionFlags
	sheets      []string
	runner      *workflow.Runner
	preview     *export.Preview
}

func NewPreviewCmd(global *GlobalOptions, runner *workflow.Runner, preview *export.Preview) *cobra.Command {
	pc := &PreviewCmd{global: global, runner: runner, preview: preview}
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the estimates as tables without writing anything",
		Args:  cobra.NoArgs,
		RunE:  pc.run,
	}

	cmd.Flags().StringSliceVar(&pc.sheets, "sheet", nil, "Sheets to print (default is all)")
	pc.assumptions.bind(cmd)

	return cmd
}

func (pc *PreviewCmd) run(cmd *cobra.Command, _ []string) error {
	settings, err := config.LoadAssumptions(pc.assumptions.loadOptions(cmd, pc.global))
	if err != nil {
		return err
	}

	est, err := pc.runner.Estimate(cmd.Context(), settings)
	if err != nil {
		return err
	}

	return pc.preview.Handle(est.Document, pc.sheets)
}
