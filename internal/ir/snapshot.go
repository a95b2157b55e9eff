package ir

import "strconv"

// Thresholds are the caller-supplied mining parameters of a run.
type Thresholds struct {
	MinSupport    float64 `json:"min_support" yaml:"min_support"`
	MinConfidence float64 `json:"min_confidence" yaml:"min_confidence"`
	MinLift       float64 `json:"min_lift" yaml:"min_lift"`
	MaxLength     int     `json:"max_length,omitempty" yaml:"max_length,omitempty"`
}

// Snapshot is the complete, order-preserving result of one mining run.
type Snapshot struct {
	Transactions int
	Items        int
	Thresholds   Thresholds
	Itemsets     []FrequentItemset
	Rules        []Rule
}

// NewSnapshot captures a collection and its rules.
func NewSnapshot(items int, th Thresholds, c *Collection, rules []Rule) Snapshot {
	return Snapshot{
		Transactions: c.Transactions(),
		Items:        items,
		Thresholds:   th,
		Itemsets:     c.Itemsets(),
		Rules:        rules,
	}
}

// Object converts the snapshot to a canonical Object.
//
// Ratios are rendered with strconv's shortest round-trip formatting, which
// is platform independent, so the encoding stays byte-stable without
// admitting JSON floats.
func (s Snapshot) Object() Object {
	itemsets := make(Array, len(s.Itemsets))
	for i, fi := range s.Itemsets {
		itemsets[i] = Object{
			"items":   StringArray(fi.Items.Strings()),
			"count":   Int(fi.Count),
			"support": String(FormatRatio(fi.Support)),
		}
	}

	rules := make(Array, len(s.Rules))
	for i, r := range s.Rules {
		rules[i] = Object{
			"antecedent": StringArray(r.Antecedent.Strings()),
			"consequent": StringArray(r.Consequent.Strings()),
			"support":    String(FormatRatio(r.Support)),
			"confidence": String(FormatRatio(r.Confidence)),
			"lift":       String(FormatRatio(r.Lift)),
		}
	}

	th := Object{
		"min_support":    String(FormatRatio(s.Thresholds.MinSupport)),
		"min_confidence": String(FormatRatio(s.Thresholds.MinConfidence)),
		"min_lift":       String(FormatRatio(s.Thresholds.MinLift)),
	}
	if s.Thresholds.MaxLength > 0 {
		th["max_length"] = Int(s.Thresholds.MaxLength)
	}

	return Object{
		"version":      String(SnapshotVersion),
		"transactions": Int(s.Transactions),
		"items":        Int(s.Items),
		"thresholds":   th,
		"itemsets":     itemsets,
		"rules":        rules,
	}
}

// FormatRatio renders a float with the shortest exact representation.
func FormatRatio(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
