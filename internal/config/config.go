// Package config loads and validates pipeline configuration.
//
// A configuration file is YAML (.yaml, .yml) or CUE (.cue). Either way the
// result is checked against the embedded CUE schema in schema.cue, so both
// formats accept exactly the same fields and ranges. Fields a file leaves out
// keep the values from Default.
package config

import (
	"fmt"

	"github.com/roach88/basket/internal/ir"
	"github.com/roach88/basket/internal/queryir"
)

// Default thresholds and output file names.
const (
	DefaultMinSupport    = 0.01
	DefaultMinConfidence = 0.2
	DefaultMinLift       = 1.5

	DefaultRawData  = "transaction_data.csv"
	DefaultMatrix   = "transaction_item_matrix.csv"
	DefaultItemsets = "frequent_itemsets.csv"
	DefaultRules    = "association_rules.csv"
)

// Source describes where transactions are extracted from.
type Source struct {
	Database          string `json:"database" yaml:"database"`
	Table             string `json:"table" yaml:"table"`
	TransactionColumn string `json:"transaction_column" yaml:"transaction_column"`
	ItemColumn        string `json:"item_column" yaml:"item_column"`
	QuantityColumn    string `json:"quantity_column" yaml:"quantity_column"`
	DateColumn        string `json:"date_column" yaml:"date_column"`
	Since             string `json:"since" yaml:"since"`
	Until             string `json:"until" yaml:"until"`
}

// Output names the files each pipeline step writes. An empty path skips
// that file.
type Output struct {
	RawData  string `json:"raw_data" yaml:"raw_data"`
	Matrix   string `json:"matrix" yaml:"matrix"`
	Itemsets string `json:"itemsets" yaml:"itemsets"`
	Rules    string `json:"rules" yaml:"rules"`
	Snapshot string `json:"snapshot" yaml:"snapshot"`
}

// Config is the complete configuration of a pipeline run.
type Config struct {
	Source     Source        `json:"source" yaml:"source"`
	Output     Output        `json:"output" yaml:"output"`
	Thresholds ir.Thresholds `json:"thresholds" yaml:"thresholds"`

	// Workers bounds support-counting parallelism; 0 means one per CPU.
	Workers int `json:"workers" yaml:"workers"`

	// Store is the results database path. Empty disables persistence.
	Store string `json:"store" yaml:"store"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Source: Source{
			Table:             queryir.DefaultTable,
			TransactionColumn: queryir.DefaultColumns.TransactionID,
			ItemColumn:        queryir.DefaultColumns.Item,
			QuantityColumn:    queryir.DefaultColumns.Quantity,
			DateColumn:        queryir.DefaultColumns.Date,
		},
		Output: Output{
			RawData:  DefaultRawData,
			Matrix:   DefaultMatrix,
			Itemsets: DefaultItemsets,
			Rules:    DefaultRules,
		},
		Thresholds: ir.Thresholds{
			MinSupport:    DefaultMinSupport,
			MinConfidence: DefaultMinConfidence,
			MinLift:       DefaultMinLift,
		},
	}
}

// Selection builds the extraction query for the configured source.
func (c Config) Selection() queryir.Select {
	cols := queryir.Columns{
		TransactionID: c.Source.TransactionColumn,
		Item:          c.Source.ItemColumn,
		Quantity:      c.Source.QuantityColumn,
		Date:          c.Source.DateColumn,
	}
	var window queryir.Predicate
	if c.Source.DateColumn != "" {
		window = queryir.DateWindow(c.Source.DateColumn, c.Source.Since, c.Source.Until)
	}
	return queryir.NewSelect(c.Source.Table, cols, window)
}

// String summarises the thresholds for log lines.
func (c Config) String() string {
	return fmt.Sprintf("min_support=%g min_confidence=%g min_lift=%g max_length=%d",
		c.Thresholds.MinSupport, c.Thresholds.MinConfidence, c.Thresholds.MinLift, c.Thresholds.MaxLength)
}
