package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/basket/internal/engine"
	"github.com/roach88/basket/internal/export"
)

// MineOptions holds flags for the mine command.
type MineOptions struct {
	*RootOptions
	configFlags
	Output string // itemsets CSV, optional
	Limit  int    // table rows
}

// MineResult is the JSON payload of the mine command.
type MineResult struct {
	Transactions int                 `json:"transactions"`
	Items        int                 `json:"items"`
	MinCount     int                 `json:"min_count"`
	Levels       []engine.LevelStats `json:"levels"`
	Itemsets     []ItemsetView       `json:"itemsets"`
	File         string              `json:"file,omitempty"`
}

// NewMineCommand creates the mine command.
func NewMineCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MineOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "mine <matrix.csv>",
		Short: "Mine frequent itemsets from a transaction-item matrix",
		Long: `Mine every itemset whose support reaches --min-support.

Itemsets are listed by size, then by item. With --output they are also
written as CSV with the columns support and itemsets.

Example:
  basket mine transaction_item_matrix.csv --min-support 0.01
  basket mine matrix.csv --min-support 0.05 --max-length 2 -o frequent_itemsets.csv`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMine(opts, args[0], cmd)
		},
	}

	opts.addThresholdFlags(cmd, false)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "itemsets CSV to write")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "rows to show in the table (0 for all)")

	return cmd
}

func runMine(opts *MineOptions, matrixPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := opts.resolve(cmd, "")
	if err != nil {
		return formatter.Fail(ExitCommandError, "invalid options", err)
	}
	m, err := loadMatrix(matrixPath)
	if err != nil {
		return formatter.Fail(exitCodeFor(err), "failed to read matrix", err)
	}

	th := cfg.Thresholds
	res, err := engine.MineWithStats(cmd.Context(), m, th.MinSupport,
		engine.WithMaxLength(th.MaxLength),
		engine.WithWorkers(cfg.Workers),
		engine.WithLogger(opts.Logger(cmd.ErrOrStderr())),
	)
	if err != nil {
		return formatter.Fail(ExitFailure, "mining failed", err)
	}

	if opts.Output != "" {
		if err := writeOutput(opts.Output, func(w io.Writer) error {
			return export.WriteItemsetsCSV(w, res.Itemsets)
		}); err != nil {
			return formatter.Fail(ExitCommandError, "mining failed", err)
		}
	}

	if formatter.IsJSON() {
		return formatter.Success(MineResult{
			Transactions: m.Transactions(),
			Items:        m.NumItems(),
			MinCount:     res.MinCount,
			Levels:       res.Levels,
			Itemsets:     itemsetViews(res.Itemsets.Itemsets()),
			File:         opts.Output,
		})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "%d transaction(s), %d item(s), min count %d\n", m.Transactions(), m.NumItems(), res.MinCount)
	for _, lvl := range res.Levels {
		formatter.VerboseLog("level %d: %d joined, %d pruned, %d counted, %d frequent",
			lvl.Level, lvl.Joined, lvl.Pruned, lvl.Candidates, lvl.Frequent)
	}
	export.ItemsetTable(w, res.Itemsets.Itemsets(), opts.Limit)
	if opts.Output != "" {
		fmt.Fprintf(w, "✓ Wrote %d itemset(s) to %s\n", res.Itemsets.Len(), opts.Output)
	}
	return nil
}
