package engine

import (
	"cmp"
	"math"
	"slices"

	"github.com/roach88/basket/internal/ir"
)

// scoreTolerance is the relative slack allowed when comparing a computed
// confidence or lift against its threshold. It covers the few ulps lost
// dividing supports, so (0.5/0.75)/0.75 passes min_lift 8.0/9.0, and no more.
const scoreTolerance = 1e-12

// maxRuleItemset is the largest itemset whose subsets fit a uint64 mask.
const maxRuleItemset = 63

// GenerateRules derives every rule from c whose confidence is at least
// minConfidence and whose lift is at least minLift.
//
// c may come from any source as long as every subset of a stored itemset is
// stored too. A missing subset yields a MissingSupportError. Rules are
// ordered by lift and confidence (both descending), then by antecedent and
// consequent in canonical order.
func GenerateRules(c *ir.Collection, minConfidence, minLift float64) ([]ir.Rule, error) {
	if c == nil {
		return nil, ir.NewInvalidInput("itemsets", "collection is nil")
	}
	if math.IsNaN(minConfidence) || minConfidence < 0 || minConfidence > 1 {
		return nil, ir.NewInvalidInput("min_confidence", "must be in [0, 1], got %v", minConfidence)
	}
	if math.IsNaN(minLift) || minLift < 0 || math.IsInf(minLift, 1) {
		return nil, ir.NewInvalidInput("min_lift", "must be >= 0, got %v", minLift)
	}

	rules := []ir.Rule{}
	for size := 2; size <= c.MaxLevel(); size++ {
		for _, fi := range c.Level(size) {
			derived, err := rulesFrom(c, fi, minConfidence, minLift)
			if err != nil {
				return nil, err
			}
			rules = append(rules, derived...)
		}
	}

	SortRules(rules)
	return rules, nil
}

// rulesFrom splits one frequent itemset into every antecedent/consequent
// pair and keeps the pairs that pass both thresholds.
func rulesFrom(c *ir.Collection, fi ir.FrequentItemset, minConfidence, minLift float64) ([]ir.Rule, error) {
	n := fi.Items.Len()
	if n > maxRuleItemset {
		return nil, ir.NewInvalidInput("itemsets", "itemset %s has %d items, at most %d supported", fi.Items, n, maxRuleItemset)
	}

	full := uint64(1)<<uint(n) - 1
	var out []ir.Rule
	for mask := uint64(1); mask < full; mask++ {
		antecedent, _ := fi.Items.SubsetByMask(mask)
		consequent, _ := fi.Items.SubsetByMask(full &^ mask)

		anteSupport, err := subsetSupport(c, antecedent, fi.Items)
		if err != nil {
			return nil, err
		}
		consSupport, err := subsetSupport(c, consequent, fi.Items)
		if err != nil {
			return nil, err
		}

		r := ir.ScoreRule(antecedent, consequent, fi.Support, anteSupport, consSupport)
		if !meets(r.Confidence, minConfidence) || !meets(r.Lift, minLift) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// meets reports whether score reaches threshold, allowing for rounding.
func meets(score, threshold float64) bool {
	return score >= threshold || threshold-score <= scoreTolerance*threshold
}

func subsetSupport(c *ir.Collection, subset, parent ir.Itemset) (float64, error) {
	s, ok := c.Support(subset)
	if !ok {
		return 0, &ir.MissingSupportError{Missing: subset, Parent: parent}
	}
	if s <= 0 {
		return 0, ir.NewInvalidInput("itemsets", "itemset %s has support %v, subsets of frequent itemsets must be positive", subset, s)
	}
	return s, nil
}

// SortRules puts rules in their canonical output order: lift descending,
// confidence descending, then antecedent and consequent in canonical order.
func SortRules(rules []ir.Rule) {
	slices.SortFunc(rules, CompareRules)
}

// CompareRules is the ordering used by SortRules.
func CompareRules(a, b ir.Rule) int {
	if c := cmp.Compare(b.Lift, a.Lift); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Confidence, a.Confidence); c != 0 {
		return c
	}
	if c := a.Antecedent.Compare(b.Antecedent); c != 0 {
		return c
	}
	return a.Consequent.Compare(b.Consequent)
}
