package cli

import (
	"github.com/roach88/basket/internal/export"
	"github.com/roach88/basket/internal/ir"
)

// ItemsetView is the JSON form of a frequent itemset.
type ItemsetView struct {
	Items   []string `json:"items"`
	Count   int      `json:"count"`
	Support float64  `json:"support"`
}

// RuleView is the JSON form of a rule. Conviction is a string because it
// is "inf" for rules that always hold.
type RuleView struct {
	Antecedent []string `json:"antecedent"`
	Consequent []string `json:"consequent"`
	Support    float64  `json:"support"`
	Confidence float64  `json:"confidence"`
	Lift       float64  `json:"lift"`
	Leverage   float64  `json:"leverage"`
	Conviction string   `json:"conviction"`
}

func itemsetViews(itemsets []ir.FrequentItemset) []ItemsetView {
	out := make([]ItemsetView, len(itemsets))
	for i, fi := range itemsets {
		out[i] = ItemsetView{Items: fi.Items.Strings(), Count: fi.Count, Support: fi.Support}
	}
	return out
}

func ruleViews(rules []ir.Rule) []RuleView {
	out := make([]RuleView, len(rules))
	for i, r := range rules {
		out[i] = RuleView{
			Antecedent: r.Antecedent.Strings(),
			Consequent: r.Consequent.Strings(),
			Support:    r.Support,
			Confidence: r.Confidence,
			Lift:       r.Lift,
			Leverage:   r.Leverage,
			Conviction: export.FormatMetric(r.Conviction),
		}
	}
	return out
}
