package terminal

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/de-tools/market-atlas/pkg/runtime/terminal/commands"
	"github.com/de-tools/market-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/market-atlas/pkg/services/workflow"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// CLI represents the command-line interface
type CLI struct {
	runner    *workflow.Runner
	reporter  *export.Reporter
	preview   *export.Preview
	global    commands.GlobalOptions
	errOutput io.Writer
	rootCmd   *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Loader    workflow.MarketLoader // nil -> DuckDB file loader
	Output    io.Writer
	ErrOutput io.Writer // logs
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.ErrOutput == nil {
		opts.ErrOutput = os.Stderr
	}

	cli := &CLI{
		runner:    workflow.NewRunner(opts.Loader),
		reporter:  export.NewReporter(opts.Output),
		preview:   export.NewPreview(opts.Output),
		errOutput: opts.ErrOutput,
	}

	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute() error {
	return cli.ExecuteContext(context.Background())
}

func (cli *CLI) ExecuteContext(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}

// SetArgs replaces os.Args, mostly for tests
func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "market-atlas",
		Short:             "French online gambling market estimates",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: cli.setupLogger,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&cli.global.ConfigFile, "config", "c", "", "Assumptions file (yaml, json or toml)")
	flags.StringVar(&cli.global.EnvFile, "env-file", "", "Env file to load (default is ./.env when present)")
	flags.StringVar(&cli.global.LogLevel, "log-level", zerolog.InfoLevel.String(), "Log level (debug, info, warn, error)")

	cmd.AddCommand(commands.NewExportCmd(&cli.global, cli.runner, cli.reporter))
	cmd.AddCommand(commands.NewPreviewCmd(&cli.global, cli.runner, cli.preview))

	return cmd
}

func (cli *CLI) setupLogger(cmd *cobra.Command, _ []string) error {
	level, err := zerolog.ParseLevel(cli.global.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q", cli.global.LogLevel)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: cli.errOutput, NoColor: true}).
		Level(level).
		With().
		Timestamp().
		Logger()
	cmd.SetContext(logger.WithContext(cmd.Context()))
	return nil
}
