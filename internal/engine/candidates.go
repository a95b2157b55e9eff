package engine

import (
	"encoding/binary"
	"slices"
)

// candidate is an itemset as ascending matrix column indices. Matrix columns
// are in canonical item order, so column order is canonical order too.
type candidate []int

// key encodes the columns for map lookups.
func (c candidate) key() string {
	buf := make([]byte, 0, len(c)*2)
	for _, col := range c {
		buf = binary.AppendUvarint(buf, uint64(col))
	}
	return string(buf)
}

// joinStats records what candidate generation did at one level.
type joinStats struct {
	joined int // size-k unions produced by the prefix join
	pruned int // unions discarded because a (k-1)-subset is infrequent
}

// generateCandidates builds the level-k candidates from the frequent
// (k-1)-itemsets in prev, which must be in ascending lexicographic order.
//
// Two itemsets are joined only when they share their first k-2 columns; the
// union is then pruned unless every (k-1)-subset is in prev. The output is
// in ascending lexicographic order.
func generateCandidates(prev []candidate) ([]candidate, joinStats) {
	var stats joinStats
	if len(prev) < 2 {
		return nil, stats
	}

	frequent := make(map[string]struct{}, len(prev))
	for _, p := range prev {
		frequent[p.key()] = struct{}{}
	}

	k := len(prev[0]) + 1
	var out []candidate
	for i := 0; i < len(prev); i++ {
		for j := i + 1; j < len(prev); j++ {
			if !slices.Equal(prev[i][:k-2], prev[j][:k-2]) {
				// prev is sorted, so no later j shares the prefix either.
				break
			}
			cand := make(candidate, k)
			copy(cand, prev[i])
			cand[k-1] = prev[j][k-2]
			stats.joined++

			if !allSubsetsFrequent(cand, frequent) {
				stats.pruned++
				continue
			}
			out = append(out, cand)
		}
	}
	return out, stats
}

// allSubsetsFrequent checks the (k-1)-subsets of cand that drop one of its
// first k-2 columns. The two subsets dropping the last or second to last
// column are the join parents and are frequent by construction.
func allSubsetsFrequent(cand candidate, frequent map[string]struct{}) bool {
	sub := make(candidate, len(cand)-1)
	for drop := 0; drop < len(cand)-2; drop++ {
		copy(sub, cand[:drop])
		copy(sub[drop:], cand[drop+1:])
		if _, ok := frequent[sub.key()]; !ok {
			return false
		}
	}
	return true
}
