package export

import (
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/roach88/basket/internal/ir"
	"github.com/roach88/basket/internal/preprocess"
	"github.com/roach88/basket/internal/store"
)

// newTable returns a writer mirrored to w with numeric columns right aligned.
func newTable(w io.Writer, title string, numeric ...int) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.SetStyle(table.StyleLight)
	configs := make([]table.ColumnConfig, 0, len(numeric))
	for _, n := range numeric {
		configs = append(configs, table.ColumnConfig{Number: n, Align: text.AlignRight, AlignHeader: text.AlignRight})
	}
	t.SetColumnConfigs(configs)
	return t
}

// ItemsetTable renders itemsets. limit <= 0 renders all of them.
func ItemsetTable(w io.Writer, itemsets []ir.FrequentItemset, limit int) {
	t := newTable(w, "FREQUENT ITEMSETS", 2, 3, 4)
	t.AppendHeader(table.Row{"Itemset", "Size", "Count", "Support"})
	for i, fi := range itemsets {
		if limit > 0 && i == limit {
			break
		}
		t.AppendRow(table.Row{fi.Items.String(), fi.Items.Len(), fi.Count, formatFixed(fi.Support)})
	}
	t.AppendFooter(table.Row{"", "", "Total", len(itemsets)})
	t.Render()
}

// RuleTable renders rules in the order given. limit <= 0 renders all.
func RuleTable(w io.Writer, rules []ir.Rule, limit int) {
	t := newTable(w, "ASSOCIATION RULES", 3, 4, 5, 6)
	t.AppendHeader(table.Row{"Antecedent", "", "Consequent", "Support", "Confidence", "Lift", "Conviction"})
	for i, r := range rules {
		if limit > 0 && i == limit {
			break
		}
		t.AppendRow(table.Row{
			r.Antecedent.String(),
			"=>",
			r.Consequent.String(),
			formatFixed(r.Support),
			formatFixed(r.Confidence),
			formatFixed(r.Lift),
			FormatMetric(r.Conviction),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "Total", len(rules)})
	t.Render()
}

// PopularityTable renders the item popularity ranking.
func PopularityTable(w io.Writer, counts []preprocess.ItemCount) {
	t := newTable(w, "TOP ITEMS", 1, 3)
	t.AppendHeader(table.Row{"Rank", "Item", "Count"})
	for i, c := range counts {
		t.AppendRow(table.Row{i + 1, c.Item, c.Count})
	}
	t.Render()
}

// DailyTable renders per-day quantity totals.
func DailyTable(w io.Writer, totals []preprocess.DailyTotal) {
	t := newTable(w, "DAILY QUANTITY", 2)
	t.AppendHeader(table.Row{"Date", "Quantity"})
	var sum float64
	for _, d := range totals {
		t.AppendRow(table.Row{d.Date, strconv.FormatFloat(d.Quantity, 'f', -1, 64)})
		sum += d.Quantity
	}
	t.AppendFooter(table.Row{"Total", strconv.FormatFloat(sum, 'f', -1, 64)})
	t.Render()
}

// RunTable renders stored runs with a shortened digest.
func RunTable(w io.Writer, runs []store.Run) {
	t := newTable(w, "RUNS", 4, 5, 6, 7)
	t.AppendHeader(table.Row{"Run", "Created", "Min Support", "Transactions", "Items", "Itemsets", "Rules", "Digest"})
	for _, r := range runs {
		digest := r.Digest
		if len(digest) > 12 {
			digest = digest[:12]
		}
		t.AppendRow(table.Row{
			r.ID,
			r.CreatedAt.UTC().Format(time.RFC3339),
			ir.FormatRatio(r.Thresholds.MinSupport),
			r.Transactions,
			r.Items,
			r.Itemsets,
			r.Rules,
			digest,
		})
	}
	t.Render()
}

func formatFixed(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
