// Package engine implements the basket mining core: the level-wise frequent
// itemset miner and the association rule generator.
//
// ARCHITECTURE:
//
// Itemset Miner (Mine):
//  1. Level 1 counts every item column and keeps those meeting min_support.
//  2. Level k joins frequent (k-1)-itemsets that share their first k-2 items.
//  3. A candidate with any (k-1)-subset missing from level k-1 is pruned and
//     never counted (anti-monotonicity of support).
//  4. Survivors are counted against the matrix by bitset intersection.
//  5. Mining stops at the first level with no candidates or no survivors.
//
// Rule Generator (GenerateRules):
// Every frequent itemset of size >= 2 is split into each non-empty proper
// antecedent and its complement. Confidence and lift come from supports in
// the collection; a missing subset is a MissingSupportError, never a skip.
//
// Both entry points are pure functions of their inputs. Neither keeps state
// between calls.
//
// CRITICAL PATTERNS:
//
// Exact thresholds:
// min_support is converted once to an integer count threshold, so the
// comparison at every level is done on integers, never on rounded ratios.
//
// Deterministic output:
// Support counting is sharded across workers, but each shard writes only its
// own slice range, so results do not depend on worker count. Rules are
// sorted by lift, confidence, then canonical antecedent and consequent keys.
package engine
