package testutil

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/roach88/basket/internal/ir"
	"github.com/roach88/basket/internal/matrix"
)

// MaxOracleBasket is the largest basket BruteForceCounts will expand.
const MaxOracleBasket = 20

// RandomBaskets generates rows transactions over an alphabet of items
// ("I00", "I01", ...). Each item lands in each basket with probability
// density. The same seed always yields the same baskets.
func RandomBaskets(seed uint64, rows, items int, density float64) map[string][]string {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	baskets := make(map[string][]string, rows)
	for r := 0; r < rows; r++ {
		basket := []string{}
		for i := 0; i < items; i++ {
			if rng.Float64() < density {
				basket = append(basket, fmt.Sprintf("I%02d", i))
			}
		}
		baskets[fmt.Sprintf("T%04d", r)] = basket
	}
	return baskets
}

// RandomMatrix is RandomBaskets loaded into a Matrix.
func RandomMatrix(seed uint64, rows, items int, density float64) (*matrix.Matrix, error) {
	return matrix.FromBaskets(RandomBaskets(seed, rows, items, density))
}

// OracleMinCount returns the smallest count c >= 1 whose support c/n is at
// least minSupport, up to 1e-12. It compares ratios directly and does not
// share the miner's threshold arithmetic. Returns n+1 when no count qualifies.
func OracleMinCount(minSupport float64, n int) int {
	for c := 1; c <= n; c++ {
		if float64(c)/float64(n) >= minSupport-1e-12 {
			return c
		}
	}
	return n + 1
}

// BruteForceCounts counts every itemset that occurs in m at least minCount
// times by expanding each basket into all of its subsets, up to maxLength
// items (0 for no limit). The result is keyed by ir.Itemset.Key.
//
// It shares no code with the level-wise miner and serves as its oracle.
func BruteForceCounts(m *matrix.Matrix, minCount, maxLength int) (map[string]int, error) {
	counts := make(map[string]int)
	for r := 0; r < m.Transactions(); r++ {
		basket := m.Basket(r)
		if len(basket) > MaxOracleBasket {
			return nil, fmt.Errorf("basket %d has %d items, oracle limit is %d", r, len(basket), MaxOracleBasket)
		}
		full, err := ir.NewItemset(basket...)
		if err != nil {
			continue
		}
		for mask := uint64(1); mask < uint64(1)<<uint(len(basket)); mask++ {
			sub, _ := full.SubsetByMask(mask)
			if maxLength > 0 && sub.Len() > maxLength {
				continue
			}
			counts[sub.Key()]++
		}
	}
	for key, c := range counts {
		if c < minCount {
			delete(counts, key)
		}
	}
	return counts, nil
}

// SortedKeys returns the keys of counts in ascending order.
func SortedKeys(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
