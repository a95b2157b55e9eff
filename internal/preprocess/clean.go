package preprocess

import (
	"cmp"
	"slices"

	"github.com/roach88/basket/internal/ir"
	"github.com/roach88/basket/internal/matrix"
)

// CleanReport counts what Clean removed.
type CleanReport struct {
	Input      int `json:"input"`
	Duplicates int `json:"duplicates"`
	Missing    int `json:"missing"`
	Output     int `json:"output"`
}

// Clean drops exact duplicate records (keeping the first), then drops
// records with a missing field. The survivors keep their input order.
func Clean(records []Record) ([]Record, CleanReport) {
	report := CleanReport{Input: len(records)}

	seen := make(map[string]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		k := rec.key()
		if _, dup := seen[k]; dup {
			report.Duplicates++
			continue
		}
		seen[k] = struct{}{}
		if rec.Missing {
			report.Missing++
			continue
		}
		out = append(out, rec)
	}

	report.Output = len(out)
	return out, report
}

// Pivot builds the transaction-item matrix from cleaned records.
//
// Quantities are summed per (transaction, item) and a cell is present iff
// the sum is positive. Every transaction and item seen in records gets a
// row or column, even when all its sums are zero or negative. Rows are
// ordered by transaction ID.
func Pivot(records []Record) (*matrix.Matrix, error) {
	if len(records) == 0 {
		return nil, ir.NewInvalidInput("records", "no records to pivot")
	}

	type cell struct{ tid, item string }
	sums := make(map[cell]float64)
	tidSet := make(map[string]struct{})
	itemSet := make(map[string]struct{})
	for i, rec := range records {
		if rec.Missing {
			return nil, ir.NewInvalidInput("records", "record %d (%s/%s) has a missing field; clean first", i, rec.TransactionID, rec.Item)
		}
		sums[cell{rec.TransactionID, rec.Item}] += rec.Quantity
		tidSet[rec.TransactionID] = struct{}{}
		itemSet[rec.Item] = struct{}{}
	}

	tids := sortedKeys(tidSet)
	items := sortedKeys(itemSet)
	row := indexOf(tids)
	col := indexOf(items)

	// Only positive sums become cells; the matrix never sees the zeros.
	pairs := make([][2]int, 0, len(sums))
	for k, sum := range sums {
		if sum > 0 {
			pairs = append(pairs, [2]int{row[k.tid], col[k.item]})
		}
	}
	return matrix.FromPairs(tids, items, pairs)
}

func indexOf(keys []string) map[string]int {
	idx := make(map[string]int, len(keys))
	for i, k := range keys {
		idx[k] = i
	}
	return idx
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, cmp.Compare[string])
	return keys
}
