// Package harness runs conformance scenarios against the mining engine.
//
// A scenario describes a small input, the thresholds to mine it with, and
// what must come out. The harness mines the input, derives rules, checks the
// expectations and assertions, and then checks the engine's properties
// against an exhaustive oracle. A scenario can pass its own expectations and
// still fail on a property.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: four_baskets
//	description: "Pairs are frequent, the triple is not"
//	transactions:
//	  - [A, B]
//	  - [A, B, C]
//	  - [A, C]
//	  - [B, C]
//	thresholds:
//	  min_support: 0.5
//	  min_confidence: 0.6
//	  min_lift: 0.8
//	expect:
//	  itemset_count: 6
//	  itemsets:
//	    - { items: [A, B], support: 0.5 }
//	  rules:
//	    - { antecedent: [A], consequent: [B], confidence: 0.667, lift: 0.889 }
//	assertions:
//	  - type: itemset_absent
//	    items: [A, B, C]
//	  - type: max_level
//	    level: 2
//
// Instead of transactions a scenario may name a matrix CSV (relative to the
// scenario file), or give a collection of itemsets with supports directly,
// in which case only rule generation runs. A scenario that omits all three
// mines a matrix with no transactions.
//
// expect.error names the error code the run must fail with
// (INVALID_INPUT or MISSING_SUPPORT). Expected numbers are compared to three
// decimal places, matching how they are usually written down.
//
// # Assertion Types
//
//   - itemset_present: the itemset is frequent
//   - itemset_absent: the itemset is not frequent
//   - rule_present: the rule qualified
//   - rule_absent: the rule did not qualify
//   - max_level: the largest frequent itemset has exactly this many items
//
// # Properties
//
// Every successful mining run is also checked for anti-monotonicity, exact
// supports, completeness against brute-force enumeration, rule score
// bounds, and identical output with a single counting worker.
//
// # Golden Files
//
// RunWithGolden compares a scenario's canonical snapshot with
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
