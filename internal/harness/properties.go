package harness

import (
	"context"
	"fmt"

	"github.com/roach88/basket/internal/engine"
	"github.com/roach88/basket/internal/ir"
	"github.com/roach88/basket/internal/matrix"
	"github.com/roach88/basket/internal/testutil"
)

// scoreTolerance is the relative float slack allowed in score comparisons.
const scoreTolerance = 1e-12

// checkProperties verifies the mined collection against m.
func (h *Harness) checkProperties(ctx context.Context, m *matrix.Matrix, c *ir.Collection, th ir.Thresholds) ([]string, error) {
	var errs []string
	n := m.Transactions()

	for fi := range c.All {
		// Support correctness.
		count := m.Count(fi.Items)
		if fi.Count != count || fi.Support != float64(count)/float64(n) {
			errs = append(errs, fmt.Sprintf("property support: %s has count %d support %s, matrix says %d",
				fi.Items, fi.Count, ir.FormatRatio(fi.Support), count))
		}

		// Anti-monotonicity: every immediate subset is frequent and at least
		// as supported.
		if fi.Items.Len() < 2 {
			continue
		}
		full := uint64(1)<<uint(fi.Items.Len()) - 1
		for i := 0; i < fi.Items.Len(); i++ {
			sub, _ := fi.Items.SubsetByMask(full &^ (1 << uint(i)))
			parent, ok := c.Get(sub)
			if !ok {
				errs = append(errs, fmt.Sprintf("property anti-monotonicity: %s is frequent but its subset %s is not", fi.Items, sub))
				continue
			}
			if parent.Support < fi.Support {
				errs = append(errs, fmt.Sprintf("property anti-monotonicity: %s support %s exceeds subset %s support %s",
					fi.Items, ir.FormatRatio(fi.Support), sub, ir.FormatRatio(parent.Support)))
			}
		}
	}

	// Completeness against exhaustive enumeration. Baskets too large to
	// enumerate skip the check.
	oracle, err := testutil.BruteForceCounts(m, testutil.OracleMinCount(th.MinSupport, n), th.MaxLength)
	if err != nil {
		h.logger.Debug("skipping completeness check", "error", err)
	} else {
		for _, key := range testutil.SortedKeys(oracle) {
			set, err := ir.ParseKey(key)
			if err != nil {
				return nil, fmt.Errorf("oracle key: %w", err)
			}
			if _, ok := c.Get(set); !ok {
				errs = append(errs, fmt.Sprintf("property completeness: %s (count %d) is missing", set, oracle[key]))
			}
		}
		if len(oracle) != c.Len() {
			errs = append(errs, fmt.Sprintf("property completeness: mined %d itemsets, enumeration found %d", c.Len(), len(oracle)))
		}
	}

	// Output does not depend on counting parallelism.
	serial, err := engine.Mine(ctx, m, th.MinSupport,
		engine.WithMaxLength(th.MaxLength),
		engine.WithWorkers(1),
		engine.WithLogger(h.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("serial re-mine: %w", err)
	}
	if !sameItemsets(serial.Itemsets(), c.Itemsets()) {
		errs = append(errs, "property worker invariance: a single worker mined a different collection")
	}

	return errs, nil
}

// checkScores verifies every rule's scores against their bounds and the
// thresholds that admitted it.
func checkScores(rules []ir.Rule, th ir.Thresholds) []string {
	var errs []string
	for _, r := range rules {
		if r.Confidence < 0 || r.Confidence > 1+scoreTolerance {
			errs = append(errs, fmt.Sprintf("property score bounds: %s confidence %s outside [0, 1]", r, ir.FormatRatio(r.Confidence)))
		}
		if r.Lift < 0 {
			errs = append(errs, fmt.Sprintf("property score bounds: %s lift %s is negative", r, ir.FormatRatio(r.Lift)))
		}
		if below(r.Confidence, th.MinConfidence) || below(r.Lift, th.MinLift) {
			errs = append(errs, fmt.Sprintf("property thresholds: %s qualified below threshold", r))
		}
		if r.Support == r.AntecedentSupport && r.Confidence != 1 {
			errs = append(errs, fmt.Sprintf("property score bounds: %s always co-occurs but confidence is %s", r, ir.FormatRatio(r.Confidence)))
		}
	}
	return errs
}

func below(score, threshold float64) bool {
	return score < threshold-scoreTolerance*threshold
}

func sameItemsets(a, b []ir.FrequentItemset) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Items.Equal(b[i].Items) || a[i].Count != b[i].Count || a[i].Support != b[i].Support {
			return false
		}
	}
	return true
}
