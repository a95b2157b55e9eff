package engine

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/basket/internal/ir"
	"github.com/roach88/basket/internal/matrix"
	"github.com/roach88/basket/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fourBaskets is {A,B}, {A,B,C}, {A,C}, {B,C}.
func fourBaskets(t *testing.T) *matrix.Matrix {
	t.Helper()
	m, err := matrix.FromBaskets(map[string][]string{
		"t1": {"A", "B"},
		"t2": {"A", "B", "C"},
		"t3": {"A", "C"},
		"t4": {"B", "C"},
	})
	require.NoError(t, err)
	return m
}

func mine(t *testing.T, m *matrix.Matrix, minSupport float64, opts ...Option) *ir.Collection {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	c, err := Mine(context.Background(), m, minSupport, opts...)
	require.NoError(t, err)
	return c
}

func TestMine_FourBaskets(t *testing.T) {
	c := mine(t, fourBaskets(t), 0.5)

	require.Equal(t, 6, c.Len())
	assert.Equal(t, 2, c.MaxLevel())
	assert.Empty(t, c.Level(3))

	for _, id := range []string{"A", "B", "C"} {
		fi, ok := c.Get(ir.MustItemset(id))
		require.True(t, ok, id)
		assert.Equal(t, 3, fi.Count)
		assert.InDelta(t, 0.75, fi.Support, 1e-12)
	}
	for _, pair := range [][]string{{"A", "B"}, {"A", "C"}, {"B", "C"}} {
		fi, ok := c.Get(ir.MustItemset(pair...))
		require.True(t, ok, pair)
		assert.Equal(t, 2, fi.Count)
		assert.InDelta(t, 0.5, fi.Support, 1e-12)
	}
	_, ok := c.Get(ir.MustItemset("A", "B", "C"))
	assert.False(t, ok, "{A,B,C} has support 0.25")
}

func TestMine_LowSupportReachesLevel3(t *testing.T) {
	c := mine(t, fourBaskets(t), 0.25)

	assert.Equal(t, 7, c.Len())
	fi, ok := c.Get(ir.MustItemset("A", "B", "C"))
	require.True(t, ok)
	assert.Equal(t, 1, fi.Count)
}

func TestMine_FullSupportKeepsNothing(t *testing.T) {
	c := mine(t, fourBaskets(t), 1.0)

	require.NotNil(t, c)
	assert.Zero(t, c.Len())
	assert.Equal(t, 4, c.Transactions())
}

func TestMine_InvalidInput(t *testing.T) {
	m := fourBaskets(t)

	tests := []struct {
		name       string
		m          *matrix.Matrix
		minSupport float64
		opts       []Option
		field      string
	}{
		{"nil matrix", nil, 0.5, nil, "matrix"},
		{"zero transactions", &matrix.Matrix{}, 0.5, nil, "matrix"},
		{"zero support", m, 0, nil, "min_support"},
		{"negative support", m, -0.1, nil, "min_support"},
		{"support above one", m, 1.01, nil, "min_support"},
		{"NaN support", m, math.NaN(), nil, "min_support"},
		{"negative max length", m, 0.5, []Option{WithMaxLength(-1)}, "max_length"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Mine(context.Background(), tt.m, tt.minSupport, tt.opts...)
			require.Error(t, err)
			assert.Nil(t, c)
			assert.True(t, ir.IsInvalidInput(err))

			var ie *ir.InvalidInputError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tt.field, ie.Field)
		})
	}
}

func TestMine_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, err := Mine(ctx, fourBaskets(t), 0.25, WithLogger(quietLogger()))
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, c)
}

func TestMine_MaxLength(t *testing.T) {
	m := fourBaskets(t)

	c := mine(t, m, 0.25, WithMaxLength(1))
	assert.Equal(t, 1, c.MaxLevel())
	assert.Equal(t, 3, c.Len())

	c = mine(t, m, 0.25, WithMaxLength(2))
	assert.Equal(t, 2, c.MaxLevel())
	assert.Equal(t, 6, c.Len())

	c = mine(t, m, 0.25, WithMaxLength(0))
	assert.Equal(t, 3, c.MaxLevel())
}

func TestMineWithStats_Levels(t *testing.T) {
	res, err := MineWithStats(context.Background(), fourBaskets(t), 0.5, WithLogger(quietLogger()))
	require.NoError(t, err)

	assert.Equal(t, 2, res.MinCount)
	require.Len(t, res.Levels, 3)

	assert.Equal(t, 1, res.Levels[0].Level)
	assert.Equal(t, 3, res.Levels[0].Frequent)

	assert.Equal(t, 3, res.Levels[1].Joined)
	assert.Equal(t, 3, res.Levels[1].Candidates)
	assert.Equal(t, 3, res.Levels[1].Frequent)

	assert.Equal(t, 1, res.Levels[2].Joined)
	assert.Equal(t, 0, res.Levels[2].Pruned)
	assert.Equal(t, 1, res.Levels[2].Candidates)
	assert.Equal(t, 0, res.Levels[2].Frequent)
}

func TestMinCount(t *testing.T) {
	tests := []struct {
		minSupport float64
		n          int
		want       int
	}{
		{0.5, 4, 2},
		{0.1, 30, 3},
		{0.3, 10, 3},
		{0.34, 3, 2},
		{1.0, 7, 7},
		{0.01, 10, 1},
		{1e-9, 1, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MinCount(tt.minSupport, tt.n), "min_support=%v n=%d", tt.minSupport, tt.n)
	}
}

// TestMine_MatchesBruteForce checks completeness and exact supports against
// an oracle that expands every basket into all its subsets.
func TestMine_MatchesBruteForce(t *testing.T) {
	for seed := uint64(1); seed <= 6; seed++ {
		m, err := testutil.RandomMatrix(seed, 40, 9, 0.45)
		require.NoError(t, err)

		for _, minSupport := range []float64{0.05, 0.1, 0.25, 0.5} {
			c := mine(t, m, minSupport, WithWorkers(3))

			want, err := testutil.BruteForceCounts(m, testutil.OracleMinCount(minSupport, m.Transactions()), 0)
			require.NoError(t, err)

			got := make(map[string]int, c.Len())
			for fi := range c.All {
				got[fi.Items.Key()] = fi.Count
				assert.InDelta(t, float64(fi.Count)/40, fi.Support, 1e-12)
			}
			assert.Equal(t, want, got, "seed=%d min_support=%v", seed, minSupport)
		}
	}
}

func TestMine_AntiMonotone(t *testing.T) {
	m, err := testutil.RandomMatrix(42, 60, 10, 0.5)
	require.NoError(t, err)
	c := mine(t, m, 0.1)

	for fi := range c.All {
		if fi.Items.Len() < 2 {
			continue
		}
		full := uint64(1)<<uint(fi.Items.Len()) - 1
		for drop := 0; drop < fi.Items.Len(); drop++ {
			sub, _ := fi.Items.SubsetByMask(full &^ (1 << uint(drop)))
			parent, ok := c.Get(sub)
			require.True(t, ok, "subset %s of %s missing", sub, fi.Items)
			assert.GreaterOrEqual(t, parent.Count, fi.Count)
		}
	}
}

func TestMine_WorkerCountInvariant(t *testing.T) {
	m, err := testutil.RandomMatrix(5, 150, 28, 0.3)
	require.NoError(t, err)

	base := mine(t, m, 0.03, WithWorkers(1))
	for _, workers := range []int{2, 4, 16} {
		c := mine(t, m, 0.03, WithWorkers(workers))
		assert.Equal(t, base.Itemsets(), c.Itemsets(), "workers=%d", workers)
	}
}

func TestMine_Idempotent(t *testing.T) {
	m, err := testutil.RandomMatrix(9, 50, 8, 0.4)
	require.NoError(t, err)

	first := mine(t, m, 0.1)
	second := mine(t, m, 0.1)
	assert.Equal(t, first.Itemsets(), second.Itemsets())
}

func TestMine_MonotonicInSupport(t *testing.T) {
	m, err := testutil.RandomMatrix(21, 80, 12, 0.35)
	require.NoError(t, err)

	prev := math.MaxInt
	for _, minSupport := range []float64{0.02, 0.05, 0.1, 0.2, 0.4, 0.8, 1.0} {
		n := mine(t, m, minSupport).Len()
		assert.LessOrEqual(t, n, prev, "min_support=%v", minSupport)
		prev = n
	}
}
