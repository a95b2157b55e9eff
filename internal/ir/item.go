package ir

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// keySeparator joins item IDs inside a canonical itemset key.
// NUL cannot appear in an item ID (NewItem rejects it), so keys are unambiguous.
const keySeparator = "\x00"

// Item is a single item identifier (a matrix column).
type Item string

// NewItem validates and NFC-normalises an item identifier.
func NewItem(id string) (Item, error) {
	if id == "" {
		return "", fmt.Errorf("item id must not be empty")
	}
	if strings.Contains(id, keySeparator) {
		return "", fmt.Errorf("item id %q contains a NUL byte", id)
	}
	return Item(norm.NFC.String(id)), nil
}

// Itemset is an immutable, non-empty set of items in canonical order.
//
// The zero value is the empty set and is only useful as a "not found" result;
// every constructor rejects empty input.
type Itemset struct {
	items []Item
}

// NewItemset builds an itemset from items, removing duplicates and sorting.
func NewItemset(items ...Item) (Itemset, error) {
	if len(items) == 0 {
		return Itemset{}, fmt.Errorf("itemset must not be empty")
	}
	sorted := make([]Item, 0, len(items))
	for _, it := range items {
		normalised, err := NewItem(string(it))
		if err != nil {
			return Itemset{}, err
		}
		sorted = append(sorted, normalised)
	}
	slices.Sort(sorted)
	return Itemset{items: slices.Compact(sorted)}, nil
}

// MustItemset is like NewItemset but takes strings and panics on error.
// Use only in tests or with literal input.
func MustItemset(ids ...string) Itemset {
	items := make([]Item, len(ids))
	for i, id := range ids {
		items[i] = Item(id)
	}
	s, err := NewItemset(items...)
	if err != nil {
		panic(err)
	}
	return s
}

// itemsetFromSorted wraps an already canonical slice without copying.
// Callers must not retain or mutate items afterwards.
func itemsetFromSorted(items []Item) Itemset {
	return Itemset{items: items}
}

// ParseKey rebuilds an itemset from its canonical key.
func ParseKey(key string) (Itemset, error) {
	if key == "" {
		return Itemset{}, fmt.Errorf("empty itemset key")
	}
	parts := strings.Split(key, keySeparator)
	items := make([]Item, len(parts))
	for i, p := range parts {
		items[i] = Item(p)
	}
	return NewItemset(items...)
}

// Len returns the number of items.
func (s Itemset) Len() int { return len(s.items) }

// IsEmpty reports whether s is the zero itemset.
func (s Itemset) IsEmpty() bool { return len(s.items) == 0 }

// At returns the i-th item in canonical order.
func (s Itemset) At(i int) Item { return s.items[i] }

// Items returns a copy of the items in canonical order.
func (s Itemset) Items() []Item {
	return slices.Clone(s.items)
}

// Strings returns the item IDs as plain strings, in canonical order.
func (s Itemset) Strings() []string {
	out := make([]string, len(s.items))
	for i, it := range s.items {
		out[i] = string(it)
	}
	return out
}

// Key returns the canonical map key for s.
func (s Itemset) Key() string {
	return strings.Join(s.Strings(), keySeparator)
}

// Contains reports whether item is a member of s.
func (s Itemset) Contains(item Item) bool {
	_, found := slices.BinarySearch(s.items, item)
	return found
}

// Equal reports whether s and other hold the same items.
func (s Itemset) Equal(other Itemset) bool {
	return slices.Equal(s.items, other.items)
}

// Compare orders itemsets by size, then lexicographically by item.
func (s Itemset) Compare(other Itemset) int {
	if len(s.items) != len(other.items) {
		return len(s.items) - len(other.items)
	}
	return slices.Compare(s.items, other.items)
}

// SubsetByMask returns the items of s selected by the bits of mask
// (bit i selects s.At(i)). The boolean is false when the mask selects nothing.
func (s Itemset) SubsetByMask(mask uint64) (Itemset, bool) {
	var items []Item
	for i, it := range s.items {
		if mask&(1<<uint(i)) != 0 {
			items = append(items, it)
		}
	}
	if len(items) == 0 {
		return Itemset{}, false
	}
	return itemsetFromSorted(items), true
}

// String renders s as "{A, B, C}".
func (s Itemset) String() string {
	return "{" + strings.Join(s.Strings(), ", ") + "}"
}
