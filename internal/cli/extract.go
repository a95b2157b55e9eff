package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/basket/internal/config"
	"github.com/roach88/basket/internal/pipeline"
	"github.com/roach88/basket/internal/preprocess"
)

// ExtractOptions holds flags for the extract command.
type ExtractOptions struct {
	*RootOptions
	configFlags
	Output string
}

// ExtractResult is the JSON payload of the extract command.
type ExtractResult struct {
	Records int    `json:"records"`
	Missing int    `json:"missing"`
	File    string `json:"file"`
}

// NewExtractCommand creates the extract command.
func NewExtractCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExtractOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract transaction lines from a SQLite database",
		Long: `Extract transaction lines from a SQLite database into a raw CSV file.

The database is opened read-only. Rows with a NULL field are kept and
written with blank cells so that prepare can report them.

Example:
  basket extract --db retail.db -o transaction_data.csv
  basket extract --db retail.db --since 2024-01-01 --until 2024-01-31`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(opts, cmd)
		},
	}

	opts.addSourceFlags(cmd)
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", config.DefaultRawData, "raw CSV to write")

	return cmd
}

func runExtract(opts *ExtractOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := opts.resolve(cmd, "")
	if err != nil {
		return formatter.Fail(ExitCommandError, "invalid options", err)
	}

	p := pipeline.New(pipeline.WithLogger(opts.Logger(cmd.ErrOrStderr())))
	records, err := p.Extract(cmd.Context(), cfg)
	if err != nil {
		return formatter.Fail(ExitCommandError, "extract failed", err)
	}
	if err := writeOutput(opts.Output, func(w io.Writer) error {
		return preprocess.WriteRecordsCSV(w, records)
	}); err != nil {
		return formatter.Fail(ExitCommandError, "extract failed", err)
	}

	result := ExtractResult{Records: len(records), File: opts.Output}
	for _, rec := range records {
		if rec.Missing {
			result.Missing++
		}
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Extracted %d record(s) to %s\n", result.Records, result.File)
	if result.Missing > 0 {
		fmt.Fprintf(formatter.Writer, "  %d record(s) have missing fields\n", result.Missing)
	}
	return nil
}
