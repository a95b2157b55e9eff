package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/basket/internal/export"
	"github.com/roach88/basket/internal/store"
)

// RunsOptions holds flags for the runs command and its subcommands.
type RunsOptions struct {
	*RootOptions
	Store string
	Limit int
}

// RunsResult is the JSON payload of the runs command.
type RunsResult struct {
	Runs  []store.Run `json:"runs"`
	Total int         `json:"total"`
}

// RunDetail is the JSON payload of runs show.
type RunDetail struct {
	Run      store.Run     `json:"run"`
	Itemsets []ItemsetView `json:"itemsets"`
	Rules    []RuleView    `json:"rules"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List runs recorded in a results store",
		Long: `List the runs recorded in a results store, newest first.

Example:
  basket runs --store runs.db
  basket runs show 01890a5d-ac96-774b-bcce-b302099a8057 --store runs.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListRuns(opts, cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Store, "store", "", "path to the results database (required)")
	_ = cmd.MarkPersistentFlagRequired("store")

	cmd.AddCommand(newRunsShowCommand(opts))

	return cmd
}

func newRunsShowCommand(opts *RunsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "show <run-id>",
		Short:         "Show the itemsets and rules of a stored run",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShowRun(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "rows to show per table (0 for all)")

	return cmd
}

// openStore opens an existing results store. Unlike store.Open it refuses
// to create a new database.
func openStore(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("results store: %w", err)
	}
	return store.Open(path)
}

func runListRuns(opts *RunsOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openStore(opts.Store)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to open store", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(cmd.Context())
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to list runs", err)
	}

	if formatter.IsJSON() {
		return formatter.Success(RunsResult{Runs: runs, Total: len(runs)})
	}
	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs found in store.")
		return nil
	}
	export.RunTable(formatter.Writer, runs)
	return nil
}

func runShowRun(opts *RunsOptions, runID string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	st, err := openStore(opts.Store)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to open store", err)
	}
	defer st.Close()

	run, err := st.ReadRun(ctx, runID)
	if err != nil {
		exit := ExitFailure
		if errors.Is(err, store.ErrRunNotFound) {
			exit = ExitCommandError
		}
		return formatter.Fail(exit, "failed to read run", err)
	}
	itemsets, err := st.ReadItemsets(ctx, runID)
	if err != nil {
		return formatter.Fail(ExitFailure, "failed to read itemsets", err)
	}
	rules, err := st.ReadRules(ctx, runID)
	if err != nil {
		return formatter.Fail(ExitFailure, "failed to read rules", err)
	}

	if formatter.IsJSON() {
		return formatter.SuccessWithRun(RunDetail{
			Run:      run,
			Itemsets: itemsetViews(itemsets.Itemsets()),
			Rules:    ruleViews(rules),
		}, run.ID)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Run %s\n", run.ID)
	fmt.Fprintf(w, "  Created: %s\n", run.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "  Thresholds: min_support=%g min_confidence=%g min_lift=%g max_length=%d\n",
		run.Thresholds.MinSupport, run.Thresholds.MinConfidence, run.Thresholds.MinLift, run.Thresholds.MaxLength)
	fmt.Fprintf(w, "  Matrix: %d transaction(s) x %d item(s)\n", run.Transactions, run.Items)
	fmt.Fprintf(w, "  Digest: %s\n", run.Digest)
	export.ItemsetTable(w, itemsets.Itemsets(), opts.Limit)
	export.RuleTable(w, rules, opts.Limit)
	return nil
}
