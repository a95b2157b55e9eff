package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/basket/internal/export"
	"github.com/roach88/basket/internal/preprocess"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	*RootOptions
	Top int
}

// StatsResult is the JSON payload of the stats command.
type StatsResult struct {
	Records    int                     `json:"records"`
	Popularity []preprocess.ItemCount  `json:"popularity"`
	Daily      []preprocess.DailyTotal `json:"daily"`
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats <raw.csv>",
		Short: "Summarise item popularity and daily quantities",
		Long: `Summarise a raw transaction CSV before mining: the most frequent items
and the total quantity sold per day.

Example:
  basket stats transaction_data.csv --top 10`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Top, "top", 10, "items to rank (0 for all)")

	return cmd
}

func runStats(opts *StatsOptions, rawPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	records, err := loadRecords(rawPath)
	if err != nil {
		return formatter.Fail(exitCodeFor(err), "failed to read raw data", err)
	}
	daily, err := preprocess.DailyQuantity(records)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to total daily quantities", err)
	}
	result := StatsResult{
		Records:    len(records),
		Popularity: preprocess.ItemPopularity(records, opts.Top),
		Daily:      daily,
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	export.PopularityTable(formatter.Writer, result.Popularity)
	export.DailyTable(formatter.Writer, result.Daily)
	return nil
}
