package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/basket/internal/config"
	"github.com/roach88/basket/internal/export"
	"github.com/roach88/basket/internal/pipeline"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	configFlags
	ConfigPath string
	OutDir     string
	Limit      int

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs pipeline.RunIDGenerator

	// Clock allows overriding the wall clock (for testing).
	Clock pipeline.Clock
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

// newRunCommand builds the run command around prepared options, so tests
// can inject the run ID generator and clock.
func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline",
		Long: `Run every step of the pipeline: extract, clean, pivot, mine, derive
rules, write the result files and, with a store, record the run.

Settings come from --config (YAML or CUE) or the defaults; flags given on
the command line override both. The run ID and the digest of the result are
printed so the run can be replayed later.

Example:
  basket run --config basket.yaml
  basket run --db retail.db --min-support 0.02 --store runs.db
  basket run --config basket.cue --out-dir results --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "configuration file (.yaml, .yml or .cue)")
	cmd.Flags().StringVar(&opts.OutDir, "out-dir", "", "directory for relative output paths")
	cmd.Flags().IntVar(&opts.Limit, "limit", 10, "rules to show in the table (0 for all)")
	opts.addSourceFlags(cmd)
	opts.addThresholdFlags(cmd, true)
	opts.addStoreFlag(cmd)

	return cmd
}

func runPipeline(opts *RunOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.Logger(cmd.ErrOrStderr())

	cfg, err := opts.resolve(cmd, opts.ConfigPath)
	if err != nil {
		return formatter.Fail(ExitCommandError, "invalid configuration", err)
	}
	if cfg.Source.Database == "" {
		return formatter.Fail(ExitCommandError, "invalid configuration",
			errors.New("no source database: set source.database or pass --db"))
	}
	if opts.OutDir != "" {
		cfg.Output = inDir(opts.OutDir, cfg.Output)
	}
	logger.Debug("configuration resolved", "config", cfg.String(), "store", cfg.Store)

	pipeOpts := []pipeline.Option{pipeline.WithLogger(logger)}
	if opts.RunIDs != nil {
		pipeOpts = append(pipeOpts, pipeline.WithRunIDGenerator(opts.RunIDs))
	}
	if opts.Clock != nil {
		pipeOpts = append(pipeOpts, pipeline.WithClock(opts.Clock))
	}
	p := pipeline.New(pipeOpts...)

	// Cancel mining on Ctrl-C; the command's context comes first so tests
	// can cancel too.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := p.Run(ctx, cfg)
	if err != nil {
		return formatter.Fail(exitCodeFor(err), "run failed", err)
	}

	if formatter.IsJSON() {
		return formatter.SuccessWithRun(report, report.RunID)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Run %s\n", report.RunID)
	fmt.Fprintf(w, "  Cleaning: %d record(s) in, %d duplicate(s), %d with missing fields\n",
		report.Clean.Input, report.Clean.Duplicates, report.Clean.Missing)
	fmt.Fprintf(w, "  Matrix: %d transaction(s) x %d item(s)\n", report.Transactions, report.Items)
	fmt.Fprintf(w, "  Mined: %d itemset(s) up to size %d, %d rule(s)\n", report.Itemsets, report.MaxLevel, report.Rules)
	fmt.Fprintf(w, "  Digest: %s\n", report.Digest)
	for _, f := range report.Files {
		fmt.Fprintf(w, "  Wrote %s\n", f)
	}
	if report.Stored {
		fmt.Fprintf(w, "  Stored in %s\n", cfg.Store)
	}
	if report.Rules > 0 {
		export.RuleTable(w, report.Mined.Rules, opts.Limit)
	}
	fmt.Fprintln(w, "✓ Run complete")
	return nil
}

// inDir places every relative output path under dir.
func inDir(dir string, out config.Output) config.Output {
	join := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	return config.Output{
		RawData:  join(out.RawData),
		Matrix:   join(out.Matrix),
		Itemsets: join(out.Itemsets),
		Rules:    join(out.Rules),
		Snapshot: join(out.Snapshot),
	}
}
