package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/basket/internal/config"
	"github.com/roach88/basket/internal/pipeline"
	"github.com/roach88/basket/internal/preprocess"
)

// PrepareOptions holds flags for the prepare command.
type PrepareOptions struct {
	*RootOptions
	Output string
}

// PrepareResult is the JSON payload of the prepare command.
type PrepareResult struct {
	Clean        preprocess.CleanReport `json:"clean"`
	Transactions int                    `json:"transactions"`
	Items        int                    `json:"items"`
	Density      float64                `json:"density"`
	File         string                 `json:"file"`
}

// NewPrepareCommand creates the prepare command.
func NewPrepareCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PrepareOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "prepare <raw.csv>",
		Short: "Clean raw transactions and build the transaction-item matrix",
		Long: `Clean raw transaction lines and pivot them into a transaction-item matrix.

Exact duplicate lines are dropped first, then lines with a missing field.
Quantities are summed per (transaction, item) and a cell is 1 when the sum
is positive.

Example:
  basket prepare transaction_data.csv -o transaction_item_matrix.csv`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrepare(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", config.DefaultMatrix, "matrix CSV to write")

	return cmd
}

func runPrepare(opts *PrepareOptions, rawPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	records, err := loadRecords(rawPath)
	if err != nil {
		return formatter.Fail(exitCodeFor(err), "failed to read raw data", err)
	}
	formatter.VerboseLog("Read %d record(s) from %s", len(records), rawPath)

	p := pipeline.New(pipeline.WithLogger(opts.Logger(cmd.ErrOrStderr())))
	m, clean, err := p.Prepare(records)
	if err != nil {
		return formatter.Fail(ExitFailure, "prepare failed", err)
	}
	if err := writeOutput(opts.Output, func(w io.Writer) error {
		return preprocess.WriteMatrixCSV(w, m)
	}); err != nil {
		return formatter.Fail(ExitCommandError, "prepare failed", err)
	}

	result := PrepareResult{
		Clean:        clean,
		Transactions: m.Transactions(),
		Items:        m.NumItems(),
		Density:      m.Density(),
		File:         opts.Output,
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	w := formatter.Writer
	fmt.Fprintf(w, "Cleaning: %d record(s) in, %d duplicate(s), %d with missing fields, %d kept\n",
		clean.Input, clean.Duplicates, clean.Missing, clean.Output)
	fmt.Fprintf(w, "✓ Wrote %d transaction(s) x %d item(s) to %s\n", result.Transactions, result.Items, result.File)
	return nil
}
