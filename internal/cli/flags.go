package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/basket/internal/config"
)

// configFlags are the command-line overrides shared by the commands that
// build a config.Config. A flag replaces the configured value only when it
// was set explicitly.
type configFlags struct {
	Database   string
	Table      string
	DateColumn string
	Since      string
	Until      string

	MinSupport    float64
	MinConfidence float64
	MinLift       float64
	MaxLength     int
	Workers       int

	Store string
}

func (f *configFlags) addSourceFlags(cmd *cobra.Command) {
	def := config.Default().Source
	cmd.Flags().StringVar(&f.Database, "db", "", "path to the SQLite transactions database")
	cmd.Flags().StringVar(&f.Table, "table", def.Table, "table holding transaction lines")
	cmd.Flags().StringVar(&f.DateColumn, "date-column", def.DateColumn, "date column used by --since/--until")
	cmd.Flags().StringVar(&f.Since, "since", "", "first day to extract (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.Until, "until", "", "last day to extract (YYYY-MM-DD)")
}

// addThresholdFlags registers the mining thresholds; withRules adds the
// confidence and lift thresholds used by rule generation.
func (f *configFlags) addThresholdFlags(cmd *cobra.Command, withRules bool) {
	def := config.Default().Thresholds
	cmd.Flags().Float64Var(&f.MinSupport, "min-support", def.MinSupport, "minimum itemset support in (0, 1]")
	cmd.Flags().IntVar(&f.MaxLength, "max-length", 0, "largest itemset size to mine (0 for no limit)")
	cmd.Flags().IntVar(&f.Workers, "workers", 0, "support-counting workers (0 for one per CPU)")
	if withRules {
		cmd.Flags().Float64Var(&f.MinConfidence, "min-confidence", def.MinConfidence, "minimum rule confidence in [0, 1]")
		cmd.Flags().Float64Var(&f.MinLift, "min-lift", def.MinLift, "minimum rule lift")
	}
}

func (f *configFlags) addStoreFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Store, "store", "", "results database to record the run in")
}

// apply copies every explicitly set flag onto cfg.
func (f *configFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	set := cmd.Flags().Changed

	if set("db") {
		cfg.Source.Database = f.Database
	}
	if set("table") {
		cfg.Source.Table = f.Table
	}
	if set("date-column") {
		cfg.Source.DateColumn = f.DateColumn
	}
	if set("since") {
		cfg.Source.Since = f.Since
	}
	if set("until") {
		cfg.Source.Until = f.Until
	}
	if set("min-support") {
		cfg.Thresholds.MinSupport = f.MinSupport
	}
	if set("min-confidence") {
		cfg.Thresholds.MinConfidence = f.MinConfidence
	}
	if set("min-lift") {
		cfg.Thresholds.MinLift = f.MinLift
	}
	if set("max-length") {
		cfg.Thresholds.MaxLength = f.MaxLength
	}
	if set("workers") {
		cfg.Workers = f.Workers
	}
	if set("store") {
		cfg.Store = f.Store
	}
}

// resolve builds the effective configuration: the file at path (or the
// defaults when path is empty) with the explicit flags applied on top.
func (f *configFlags) resolve(cmd *cobra.Command, path string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
	}
	f.apply(cmd, &cfg)
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
