// Package matrix holds the binary transaction-item matrix mined by the engine.
//
// Rows are transactions, columns are items. Each column is stored as a bitset
// of the row indices whose cell is true, so the support count of an itemset is
// the popcount of the intersection of its columns.
//
// A Matrix is immutable after construction and safe for concurrent reads.
package matrix

import (
	"slices"
	"sort"

	"github.com/yourbasic/bit"

	"github.com/roach88/basket/internal/ir"
)

// Matrix is a validated binary transaction-item matrix.
//
// Invariants:
//   - at least one transaction
//   - transaction IDs unique; item IDs unique and in ascending order
//   - column i is the set of rows containing items[i]
type Matrix struct {
	transactions []string
	items        []ir.Item
	columns      []*bit.Set
	index        map[ir.Item]int
}

// New builds a matrix from row-major cells.
// cells[r][c] reports whether items[c] is present in transactions[r].
// Columns are reordered so items end up ascending.
func New(transactions []string, items []string, cells [][]bool) (*Matrix, error) {
	if len(transactions) == 0 {
		return nil, ir.NewInvalidInput("matrix", "zero transactions")
	}
	if len(cells) != len(transactions) {
		return nil, ir.NewInvalidInput("matrix", "%d rows of cells for %d transactions", len(cells), len(transactions))
	}
	for r, row := range cells {
		if len(row) != len(items) {
			return nil, ir.NewInvalidInput("matrix", "row %q has %d cells, want %d", transactions[r], len(row), len(items))
		}
	}

	b := newBuilder(transactions)
	if err := b.checkTransactions(); err != nil {
		return nil, err
	}
	for c, id := range items {
		col := bit.New()
		for r := range cells {
			if cells[r][c] {
				col.Add(r)
			}
		}
		if err := b.addColumn(id, col); err != nil {
			return nil, err
		}
	}
	return b.build(), nil
}

// FromBaskets builds a matrix from transaction -> items lists.
// Transactions are ordered by ID; repeated items in one basket count once.
// A transaction with an empty basket is kept as an all-false row.
func FromBaskets(baskets map[string][]string) (*Matrix, error) {
	if len(baskets) == 0 {
		return nil, ir.NewInvalidInput("matrix", "zero transactions")
	}
	transactions := make([]string, 0, len(baskets))
	for tid := range baskets {
		transactions = append(transactions, tid)
	}
	sort.Strings(transactions)
	return FromBasketList(transactions, func(r int) []string { return baskets[transactions[r]] })
}

// FromBasketList builds a matrix from an ordered list of transactions;
// basketOf returns the items of row r.
func FromBasketList(transactions []string, basketOf func(r int) []string) (*Matrix, error) {
	if len(transactions) == 0 {
		return nil, ir.NewInvalidInput("matrix", "zero transactions")
	}
	b := newBuilder(transactions)
	if err := b.checkTransactions(); err != nil {
		return nil, err
	}

	cols := make(map[ir.Item]*bit.Set)
	for r := range transactions {
		for _, raw := range basketOf(r) {
			item, err := ir.NewItem(raw)
			if err != nil {
				return nil, ir.NewInvalidInput("matrix", "transaction %q: %v", transactions[r], err)
			}
			col, ok := cols[item]
			if !ok {
				col = bit.New()
				cols[item] = col
			}
			col.Add(r)
		}
	}
	for item, col := range cols {
		if err := b.addColumn(string(item), col); err != nil {
			return nil, err
		}
	}
	return b.build(), nil
}

// FromPairs builds a matrix with the given rows and columns, where each
// pair is a (row, column) index of a true cell. Columns that no pair
// mentions stay all-false. Repeated pairs count once.
func FromPairs(transactions, items []string, pairs [][2]int) (*Matrix, error) {
	if len(transactions) == 0 {
		return nil, ir.NewInvalidInput("matrix", "zero transactions")
	}
	b := newBuilder(transactions)
	if err := b.checkTransactions(); err != nil {
		return nil, err
	}

	cols := make([]*bit.Set, len(items))
	for i := range cols {
		cols[i] = bit.New()
	}
	for _, p := range pairs {
		r, c := p[0], p[1]
		if r < 0 || r >= len(transactions) || c < 0 || c >= len(items) {
			return nil, ir.NewInvalidInput("matrix", "cell (%d, %d) outside %dx%d", r, c, len(transactions), len(items))
		}
		cols[c].Add(r)
	}
	for c, id := range items {
		if err := b.addColumn(id, cols[c]); err != nil {
			return nil, err
		}
	}
	return b.build(), nil
}

// Transactions returns N, the number of rows.
func (m *Matrix) Transactions() int { return len(m.transactions) }

// TransactionIDs returns a copy of the row keys in row order.
func (m *Matrix) TransactionIDs() []string { return slices.Clone(m.transactions) }

// NumItems returns the number of columns.
func (m *Matrix) NumItems() int { return len(m.items) }

// Items returns a copy of the column keys in ascending order.
func (m *Matrix) Items() []ir.Item { return slices.Clone(m.items) }

// Item returns the item of column c.
func (m *Matrix) Item(c int) ir.Item { return m.items[c] }

// Column returns the index of item, or -1.
func (m *Matrix) Column(item ir.Item) int {
	c, ok := m.index[item]
	if !ok {
		return -1
	}
	return c
}

// Cell reports whether transaction row r contains item column c.
func (m *Matrix) Cell(r, c int) bool { return m.columns[c].Contains(r) }

// ColumnCount returns the number of transactions containing column c.
func (m *Matrix) ColumnCount(c int) int { return m.columns[c].Size() }

// CountColumns returns the number of transactions that contain every
// column in cols. cols must be non-empty.
func (m *Matrix) CountColumns(cols []int) int {
	if len(cols) == 1 {
		return m.columns[cols[0]].Size()
	}
	acc := new(bit.Set).Set(m.columns[cols[0]])
	for _, c := range cols[1:] {
		acc.SetAnd(acc, m.columns[c])
		if acc.Empty() {
			return 0
		}
	}
	return acc.Size()
}

// Count returns the number of transactions containing every item of s.
// Items absent from the matrix make the count zero.
func (m *Matrix) Count(s ir.Itemset) int {
	cols := make([]int, s.Len())
	for i := range cols {
		c := m.Column(s.At(i))
		if c < 0 {
			return 0
		}
		cols[i] = c
	}
	return m.CountColumns(cols)
}

// Support returns Count(s) / N.
func (m *Matrix) Support(s ir.Itemset) float64 {
	return float64(m.Count(s)) / float64(len(m.transactions))
}

// Basket returns the items of transaction row r in ascending order.
func (m *Matrix) Basket(r int) []ir.Item {
	var out []ir.Item
	for c, col := range m.columns {
		if col.Contains(r) {
			out = append(out, m.items[c])
		}
	}
	return out
}

// Density returns the fraction of true cells.
func (m *Matrix) Density() float64 {
	if len(m.items) == 0 {
		return 0
	}
	total := 0
	for _, col := range m.columns {
		total += col.Size()
	}
	return float64(total) / float64(len(m.items)*len(m.transactions))
}

type builder struct {
	transactions []string
	items        []ir.Item
	columns      []*bit.Set
	seen         map[ir.Item]bool
}

func newBuilder(transactions []string) *builder {
	return &builder{
		transactions: slices.Clone(transactions),
		seen:         make(map[ir.Item]bool),
	}
}

func (b *builder) checkTransactions() error {
	seen := make(map[string]bool, len(b.transactions))
	for _, tid := range b.transactions {
		if tid == "" {
			return ir.NewInvalidInput("matrix", "empty transaction id")
		}
		if seen[tid] {
			return ir.NewInvalidInput("matrix", "duplicate transaction id %q", tid)
		}
		seen[tid] = true
	}
	return nil
}

func (b *builder) addColumn(id string, col *bit.Set) error {
	item, err := ir.NewItem(id)
	if err != nil {
		return ir.NewInvalidInput("matrix", "column %d: %v", len(b.items), err)
	}
	if b.seen[item] {
		return ir.NewInvalidInput("matrix", "duplicate item id %q", item)
	}
	b.seen[item] = true
	b.items = append(b.items, item)
	b.columns = append(b.columns, col)
	return nil
}

func (b *builder) build() *Matrix {
	order := make([]int, len(b.items))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return b.items[order[i]] < b.items[order[j]] })

	m := &Matrix{
		transactions: b.transactions,
		items:        make([]ir.Item, len(order)),
		columns:      make([]*bit.Set, len(order)),
		index:        make(map[ir.Item]int, len(order)),
	}
	for c, src := range order {
		m.items[c] = b.items[src]
		m.columns[c] = b.columns[src]
		m.index[m.items[c]] = c
	}
	return m
}
