package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/basket/internal/engine"
	"github.com/roach88/basket/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Store   string
	RunID   string // optional - specific run only
	Workers int
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs     []store.ReplayResult `json:"runs"`
	Total    int                  `json:"total"`
	AllMatch bool                 `json:"all_match"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-mine stored runs and verify their digests",
		Long: `Re-mine the baskets recorded with each run using the run's own
thresholds, and compare the digest of the fresh result with the stored one.

Exit codes:
  0 - Every replayed run reproduced its digest
  1 - At least one digest differs
  2 - Command error (store not found, unknown run, etc.)

Examples:
  basket replay --store runs.db
  basket replay --store runs.db --run 01890a5d-ac96-774b-bcce-b302099a8057
  basket replay --store runs.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Store, "store", "", "path to the results database (required)")
	_ = cmd.MarkFlagRequired("store")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "support-counting workers (0 for one per CPU)")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	st, err := openStore(opts.Store)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to open store", err)
	}
	defer st.Close()

	// Get run IDs to process
	var runIDs []string
	if opts.RunID != "" {
		runIDs = []string{opts.RunID}
	} else {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return formatter.Fail(ExitCommandError, "failed to list runs", err)
		}
		for _, r := range runs {
			runIDs = append(runIDs, r.ID)
		}
	}

	result := ReplayResult{
		Runs:     make([]store.ReplayResult, 0, len(runIDs)),
		Total:    len(runIDs),
		AllMatch: true,
	}
	mineOpts := []engine.Option{
		engine.WithWorkers(opts.Workers),
		engine.WithLogger(opts.Logger(cmd.ErrOrStderr())),
	}
	for _, id := range runIDs {
		formatter.VerboseLog("Replaying run %s", id)
		replayed, err := st.Replay(ctx, id, mineOpts...)
		if err != nil {
			exit := ExitFailure
			if errors.Is(err, store.ErrRunNotFound) {
				exit = ExitCommandError
			}
			return formatter.Fail(exit, fmt.Sprintf("failed to replay run %s", id), err)
		}
		result.Runs = append(result.Runs, *replayed)
		if !replayed.Match {
			result.AllMatch = false
		}
	}

	// Output results
	if formatter.IsJSON() {
		if !result.AllMatch {
			return formatter.Failure(result, "E_DIGEST_MISMATCH", "digest verification failed")
		}
		return formatter.Success(result)
	}

	return outputReplayText(formatter, result)
}

// outputReplayText outputs the replay result as text.
func outputReplayText(formatter *OutputFormatter, result ReplayResult) error {
	w := formatter.Writer

	if result.Total == 0 {
		fmt.Fprintln(w, "No runs found in store.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n", result.Total)
	fmt.Fprintln(w)

	for _, run := range result.Runs {
		status := "✓"
		if !run.Match {
			status = "✗"
		}

		fmt.Fprintf(w, "%s Run: %s\n", status, run.RunID)
		fmt.Fprintf(w, "  Results: %d itemset(s), %d rule(s)\n", run.Itemsets, run.Rules)
		if formatter.Verbose || !run.Match {
			fmt.Fprintf(w, "  Expected: %s\n", run.Expected)
			fmt.Fprintf(w, "  Actual:   %s\n", run.Actual)
		}
		if !run.Match {
			fmt.Fprintln(w, "  Warning: Replayed digest differs from the stored digest!")
		}
		fmt.Fprintln(w)
	}

	if result.AllMatch {
		fmt.Fprintln(w, "✓ All runs reproduced their digests")
		return nil
	}

	fmt.Fprintln(w, "✗ Digest verification failed")
	// Digest mismatch = exit code 1
	return NewExitError(ExitFailure, "digest verification failed")
}
