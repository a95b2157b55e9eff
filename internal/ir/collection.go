package ir

import (
	"fmt"
	"slices"
)

// Collection is a frequent-itemset collection: itemset -> support, grouped
// by level (itemset size).
//
// A Collection is built once (by the miner or a loader) and then only read.
// It is not safe for concurrent mutation.
type Collection struct {
	transactions int
	byKey        map[string]FrequentItemset
	levels       map[int][]string
	sorted       bool
}

// NewCollection creates an empty collection for a matrix of n transactions.
// n may be zero when the collection is loaded from relative supports only.
func NewCollection(transactions int) *Collection {
	return &Collection{
		transactions: transactions,
		byKey:        make(map[string]FrequentItemset),
		levels:       make(map[int][]string),
	}
}

// Put adds an itemset. Adding the same itemset twice is an error.
func (c *Collection) Put(fi FrequentItemset) error {
	if fi.Items.IsEmpty() {
		return fmt.Errorf("cannot add empty itemset")
	}
	if fi.Support < 0 || fi.Support > 1 {
		return fmt.Errorf("itemset %s: support %v outside [0, 1]", fi.Items, fi.Support)
	}
	key := fi.Items.Key()
	if _, exists := c.byKey[key]; exists {
		return fmt.Errorf("itemset %s already present", fi.Items)
	}
	c.byKey[key] = fi
	size := fi.Items.Len()
	c.levels[size] = append(c.levels[size], key)
	c.sorted = false
	return nil
}

// PutCount adds an itemset with an absolute count; support is derived from
// the collection's transaction total.
func (c *Collection) PutCount(items Itemset, count int) error {
	if c.transactions <= 0 {
		return fmt.Errorf("collection has no transaction total; use Put with a support")
	}
	return c.Put(FrequentItemset{
		Items:   items,
		Count:   count,
		Support: float64(count) / float64(c.transactions),
	})
}

// Transactions returns N, the number of transactions mined (0 if unknown).
func (c *Collection) Transactions() int { return c.transactions }

// Len returns the number of itemsets.
func (c *Collection) Len() int { return len(c.byKey) }

// Get returns the entry for items.
func (c *Collection) Get(items Itemset) (FrequentItemset, bool) {
	fi, ok := c.byKey[items.Key()]
	return fi, ok
}

// Support returns the support of items.
func (c *Collection) Support(items Itemset) (float64, bool) {
	fi, ok := c.byKey[items.Key()]
	return fi.Support, ok
}

// MaxLevel returns the size of the largest itemset (0 when empty).
func (c *Collection) MaxLevel() int {
	maxLevel := 0
	for size := range c.levels {
		if size > maxLevel {
			maxLevel = size
		}
	}
	return maxLevel
}

// Level returns the itemsets of the given size in canonical order.
func (c *Collection) Level(size int) []FrequentItemset {
	c.sortLevels()
	keys := c.levels[size]
	out := make([]FrequentItemset, len(keys))
	for i, k := range keys {
		out[i] = c.byKey[k]
	}
	return out
}

// Itemsets returns every itemset ordered by level, then canonical order.
func (c *Collection) Itemsets() []FrequentItemset {
	out := make([]FrequentItemset, 0, len(c.byKey))
	for size := 1; size <= c.MaxLevel(); size++ {
		out = append(out, c.Level(size)...)
	}
	return out
}

// All iterates over Itemsets in the same order.
func (c *Collection) All(yield func(FrequentItemset) bool) {
	for _, fi := range c.Itemsets() {
		if !yield(fi) {
			return
		}
	}
}

func (c *Collection) sortLevels() {
	if c.sorted {
		return
	}
	for size, keys := range c.levels {
		slices.SortFunc(keys, func(a, b string) int {
			return c.byKey[a].Items.Compare(c.byKey[b].Items)
		})
		c.levels[size] = keys
	}
	c.sorted = true
}
