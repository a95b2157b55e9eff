// Package export writes mining results for people and downstream tools:
// CSV files in the layout dashboards already read, a canonical JSON
// snapshot, and terminal tables.
package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/roach88/basket/internal/ir"
)

// ItemsetsHeader is the header row of WriteItemsetsCSV.
var ItemsetsHeader = []string{"support", "itemsets"}

// RulesHeader is the header row of WriteRulesCSV.
var RulesHeader = []string{
	"antecedents",
	"consequents",
	"antecedent support",
	"consequent support",
	"support",
	"confidence",
	"lift",
	"leverage",
	"conviction",
}

// WriteItemsetsCSV writes one row per itemset in collection order
// (by size, then canonical item order).
func WriteItemsetsCSV(w io.Writer, c *ir.Collection) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ItemsetsHeader); err != nil {
		return fmt.Errorf("write itemsets header: %w", err)
	}
	for fi := range c.All {
		if err := cw.Write([]string{FormatMetric(fi.Support), fi.Items.String()}); err != nil {
			return fmt.Errorf("write itemset %s: %w", fi.Items, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRulesCSV writes rules in the order given.
func WriteRulesCSV(w io.Writer, rules []ir.Rule) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RulesHeader); err != nil {
		return fmt.Errorf("write rules header: %w", err)
	}
	for _, r := range rules {
		row := []string{
			r.Antecedent.String(),
			r.Consequent.String(),
			FormatMetric(r.AntecedentSupport),
			FormatMetric(r.ConsequentSupport),
			FormatMetric(r.Support),
			FormatMetric(r.Confidence),
			FormatMetric(r.Lift),
			FormatMetric(r.Leverage),
			FormatMetric(r.Conviction),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write rule %s: %w", r, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatMetric renders a score for CSV output. Infinite conviction is
// written as "inf".
func FormatMetric(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return ir.FormatRatio(v)
}

// ToFile creates path (and its parent directories) and hands a buffered
// writer to write. The file is closed even when write fails.
func ToFile(path string, write func(io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory for %s: %w", path, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
