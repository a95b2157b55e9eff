package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/basket/internal/ir"
)

// fourBaskets is {A,B}, {A,B,C}, {A,C}, {B,C}.
func fourBaskets(t *testing.T) *Matrix {
	t.Helper()
	m, err := FromBaskets(map[string][]string{
		"t1": {"A", "B"},
		"t2": {"A", "B", "C"},
		"t3": {"A", "C"},
		"t4": {"B", "C"},
	})
	require.NoError(t, err)
	return m
}

func TestFromBaskets(t *testing.T) {
	m := fourBaskets(t)

	assert.Equal(t, 4, m.Transactions())
	assert.Equal(t, 3, m.NumItems())
	assert.Equal(t, []ir.Item{"A", "B", "C"}, m.Items())
	assert.Equal(t, []string{"t1", "t2", "t3", "t4"}, m.TransactionIDs())
	assert.Equal(t, []ir.Item{"A", "B", "C"}, m.Basket(1))
}

func TestCount(t *testing.T) {
	m := fourBaskets(t)

	tests := []struct {
		set  ir.Itemset
		want int
	}{
		{ir.MustItemset("A"), 3},
		{ir.MustItemset("A", "B"), 2},
		{ir.MustItemset("B", "C"), 2},
		{ir.MustItemset("A", "B", "C"), 1},
		{ir.MustItemset("A", "Z"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.set.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, m.Count(tt.set))
		})
	}
	assert.Equal(t, 0.25, m.Support(ir.MustItemset("A", "B", "C")))
}

func TestCountColumns_DoesNotMutateColumns(t *testing.T) {
	m := fourBaskets(t)
	a, b := m.Column("A"), m.Column("B")

	assert.Equal(t, 2, m.CountColumns([]int{a, b}))
	assert.Equal(t, 3, m.ColumnCount(a), "intersection must not write through")
	assert.Equal(t, 3, m.ColumnCount(b))
}

func TestCountColumns_ThreeWayIntersection(t *testing.T) {
	m := fourBaskets(t)
	a, b, c := m.Column("A"), m.Column("B"), m.Column("C")

	assert.Equal(t, 1, m.CountColumns([]int{a, b, c}))
	assert.Equal(t, 2, m.CountColumns([]int{b, c}))
	for col, want := range map[int]int{a: 3, b: 3, c: 3} {
		assert.Equal(t, want, m.ColumnCount(col))
	}
}

func TestCountColumns_EmptyIntersection(t *testing.T) {
	m, err := FromBaskets(map[string][]string{"t1": {"A"}, "t2": {"B"}, "t3": {"A", "C"}})
	require.NoError(t, err)

	assert.Equal(t, 0, m.Count(ir.MustItemset("A", "B", "C")))
	assert.Equal(t, 2, m.ColumnCount(m.Column("A")))
}

func TestFromPairs(t *testing.T) {
	m, err := FromPairs(
		[]string{"t1", "t2"},
		[]string{"milk", "bread", "eggs"},
		[][2]int{{0, 1}, {1, 1}, {1, 0}, {1, 0}},
	)
	require.NoError(t, err)

	assert.Equal(t, []ir.Item{"bread", "eggs", "milk"}, m.Items())
	assert.Equal(t, 2, m.Count(ir.MustItemset("bread")))
	assert.Equal(t, 1, m.Count(ir.MustItemset("bread", "milk")))
	assert.Equal(t, 0, m.ColumnCount(m.Column("eggs")), "unmentioned column stays empty")
	assert.Equal(t, []ir.Item{"bread", "milk"}, m.Basket(1))
}

func TestFromPairs_InvalidInput(t *testing.T) {
	_, err := FromPairs(nil, []string{"A"}, nil)
	assert.True(t, ir.IsInvalidInput(err))

	_, err = FromPairs([]string{"t1"}, []string{"A"}, [][2]int{{0, 1}})
	assert.True(t, ir.IsInvalidInput(err))

	_, err = FromPairs([]string{"t1"}, []string{"A", "A"}, nil)
	assert.True(t, ir.IsInvalidInput(err))
}

func TestNew_ReordersColumns(t *testing.T) {
	m, err := New(
		[]string{"r1", "r2"},
		[]string{"milk", "bread"},
		[][]bool{{true, false}, {true, true}},
	)
	require.NoError(t, err)

	assert.Equal(t, []ir.Item{"bread", "milk"}, m.Items())
	assert.Equal(t, 0, m.Column("bread"))
	assert.Equal(t, -1, m.Column("eggs"))
	assert.False(t, m.Cell(0, m.Column("bread")))
	assert.True(t, m.Cell(1, m.Column("bread")))
	assert.Equal(t, 2, m.ColumnCount(m.Column("milk")))
	assert.Equal(t, 0.75, m.Density())
}

func TestNew_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		tids  []string
		items []string
		cells [][]bool
	}{
		{"zero transactions", nil, []string{"A"}, nil},
		{"row count mismatch", []string{"t1", "t2"}, []string{"A"}, [][]bool{{true}}},
		{"ragged row", []string{"t1"}, []string{"A", "B"}, [][]bool{{true}}},
		{"duplicate transaction", []string{"t1", "t1"}, []string{"A"}, [][]bool{{true}, {false}}},
		{"empty transaction id", []string{""}, []string{"A"}, [][]bool{{true}}},
		{"duplicate item", []string{"t1"}, []string{"A", "A"}, [][]bool{{true, false}}},
		{"empty item", []string{"t1"}, []string{""}, [][]bool{{true}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.tids, tt.items, tt.cells)
			require.Error(t, err)
			assert.True(t, ir.IsInvalidInput(err), "got %v", err)
		})
	}
}

func TestFromBaskets_Empty(t *testing.T) {
	_, err := FromBaskets(nil)
	require.Error(t, err)
	assert.True(t, ir.IsInvalidInput(err))
}

func TestFromBaskets_RepeatedItemCountsOnce(t *testing.T) {
	m, err := FromBaskets(map[string][]string{"t1": {"A", "A"}, "t2": {}})
	require.NoError(t, err)

	assert.Equal(t, 2, m.Transactions())
	assert.Equal(t, 1, m.Count(ir.MustItemset("A")))
	assert.Empty(t, m.Basket(1))
}
