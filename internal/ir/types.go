package ir

import (
	"fmt"
	"math"
)

// FrequentItemset pairs an itemset with its support.
//
// Count is the absolute number of supporting transactions. It is zero when
// the itemset was loaded from a source that only carries relative support
// (for example an exported itemsets CSV).
type FrequentItemset struct {
	Items   Itemset `json:"items"`
	Count   int     `json:"count"`
	Support float64 `json:"support"`
}

// Rule is a directional association rule Antecedent => Consequent.
//
// Antecedent and Consequent are disjoint and their union is the frequent
// itemset the rule was derived from; Support is the support of that union.
type Rule struct {
	Antecedent        Itemset `json:"antecedent"`
	Consequent        Itemset `json:"consequent"`
	AntecedentSupport float64 `json:"antecedent_support"`
	ConsequentSupport float64 `json:"consequent_support"`
	Support           float64 `json:"support"`
	Confidence        float64 `json:"confidence"`
	Lift              float64 `json:"lift"`
	Leverage          float64 `json:"leverage"`
	Conviction        float64 `json:"conviction"`
}

// Union returns the itemset the rule was derived from.
func (r Rule) Union() Itemset {
	items := append(r.Antecedent.Items(), r.Consequent.items...)
	s, err := NewItemset(items...)
	if err != nil {
		return Itemset{}
	}
	return s
}

// Key identifies the rule by its antecedent and consequent keys.
func (r Rule) Key() string {
	return r.Antecedent.Key() + "\x01" + r.Consequent.Key()
}

// String renders the rule as "{A} => {B}".
func (r Rule) String() string {
	return fmt.Sprintf("%s => %s", r.Antecedent, r.Consequent)
}

// ScoreRule computes every rule metric from the three supports.
//
// Conviction is +Inf when confidence is 1 (the consequent never fails to
// follow the antecedent).
func ScoreRule(antecedent, consequent Itemset, unionSupport, antecedentSupport, consequentSupport float64) Rule {
	confidence := unionSupport / antecedentSupport
	lift := confidence / consequentSupport

	conviction := math.Inf(1)
	if confidence < 1 {
		conviction = (1 - consequentSupport) / (1 - confidence)
	}

	return Rule{
		Antecedent:        antecedent,
		Consequent:        consequent,
		AntecedentSupport: antecedentSupport,
		ConsequentSupport: consequentSupport,
		Support:           unionSupport,
		Confidence:        confidence,
		Lift:              lift,
		Leverage:          unionSupport - antecedentSupport*consequentSupport,
		Conviction:        conviction,
	}
}
