package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/basket/internal/export"
	"github.com/roach88/basket/internal/ir"
	"github.com/roach88/basket/internal/pipeline"
)

// RulesOptions holds flags for the rules command.
type RulesOptions struct {
	*RootOptions
	configFlags
	Output   string // rules CSV, optional
	Itemsets string // itemsets CSV, optional
	Limit    int
}

// RulesResult is the JSON payload of the rules command.
type RulesResult struct {
	Thresholds ir.Thresholds `json:"thresholds"`
	Itemsets   int           `json:"itemsets"`
	Rules      []RuleView    `json:"rules"`
	Files      []string      `json:"files"`
}

// NewRulesCommand creates the rules command.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RulesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rules <matrix.csv>",
		Short: "Mine a matrix and derive association rules",
		Long: `Mine frequent itemsets and derive the association rules that reach
--min-confidence and --min-lift.

Rules are ordered by lift, then confidence, then support, descending.

Example:
  basket rules transaction_item_matrix.csv
  basket rules matrix.csv --min-support 0.02 --min-confidence 0.3 --min-lift 1.2 -o association_rules.csv`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRules(opts, args[0], cmd)
		},
	}

	opts.addThresholdFlags(cmd, true)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "rules CSV to write")
	cmd.Flags().StringVar(&opts.Itemsets, "itemsets", "", "itemsets CSV to write")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "rows to show in the table (0 for all)")

	return cmd
}

func runRules(opts *RulesOptions, matrixPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := opts.resolve(cmd, "")
	if err != nil {
		return formatter.Fail(ExitCommandError, "invalid options", err)
	}
	m, err := loadMatrix(matrixPath)
	if err != nil {
		return formatter.Fail(exitCodeFor(err), "failed to read matrix", err)
	}

	p := pipeline.New(pipeline.WithLogger(opts.Logger(cmd.ErrOrStderr())))
	mined, err := p.Mine(cmd.Context(), cfg.Thresholds, cfg.Workers, m)
	if err != nil {
		return formatter.Fail(ExitFailure, "rule generation failed", err)
	}

	files := []string{}
	if opts.Itemsets != "" {
		if err := writeOutput(opts.Itemsets, func(w io.Writer) error {
			return export.WriteItemsetsCSV(w, mined.Itemsets)
		}); err != nil {
			return formatter.Fail(ExitCommandError, "rule generation failed", err)
		}
		files = append(files, opts.Itemsets)
	}
	if opts.Output != "" {
		if err := writeOutput(opts.Output, func(w io.Writer) error {
			return export.WriteRulesCSV(w, mined.Rules)
		}); err != nil {
			return formatter.Fail(ExitCommandError, "rule generation failed", err)
		}
		files = append(files, opts.Output)
	}

	if formatter.IsJSON() {
		return formatter.Success(RulesResult{
			Thresholds: cfg.Thresholds,
			Itemsets:   mined.Itemsets.Len(),
			Rules:      ruleViews(mined.Rules),
			Files:      files,
		})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "%d frequent itemset(s), %d rule(s)\n", mined.Itemsets.Len(), len(mined.Rules))
	export.RuleTable(w, mined.Rules, opts.Limit)
	for _, f := range files {
		fmt.Fprintf(w, "✓ Wrote %s\n", f)
	}
	return nil
}
