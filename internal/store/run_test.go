package store

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/basket/internal/engine"
	"github.com/roach88/basket/internal/ir"
)

var t0 = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func TestWriteRun_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	res := createTestRun(t, "run-1", t0)

	inserted, err := s.WriteRun(ctx, res)
	require.NoError(t, err)
	assert.True(t, inserted)

	run, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, t0, run.CreatedAt)
	assert.Equal(t, testThresholds, run.Thresholds)
	assert.Equal(t, 5, run.Transactions)
	assert.Equal(t, 3, run.Items)
	assert.Equal(t, 6, run.Itemsets)
	assert.Equal(t, 6, run.Rules)
	assert.Equal(t, res.Run.Digest, run.Digest)
	assert.Equal(t, ir.EngineVersion, run.EngineVersion)

	c, err := s.ReadItemsets(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, res.Itemsets.Itemsets(), c.Itemsets())
	assert.Equal(t, 5, c.Transactions())

	rules, err := s.ReadRules(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, res.Rules, rules)
}

func TestWriteRun_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	res := createTestRun(t, "run-1", t0)

	inserted, err := s.WriteRun(ctx, res)
	require.NoError(t, err)
	require.True(t, inserted)

	changed := res
	changed.Run.Digest = "different"
	inserted, err = s.WriteRun(ctx, changed)
	require.NoError(t, err)
	assert.False(t, inserted)

	run, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, res.Run.Digest, run.Digest, "second write must not overwrite")
	assert.Equal(t, 6, run.Itemsets)
}

func TestWriteRun_Validation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.WriteRun(ctx, RunResult{})
	assert.Error(t, err)

	res := createTestRun(t, "run-1", t0)
	res.Matrix = nil
	_, err = s.WriteRun(ctx, res)
	assert.Error(t, err)
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.ReadRun(ctx, "missing")
	require.ErrorIs(t, err, ErrRunNotFound)

	_, err = s.ReadRules(ctx, "missing")
	require.ErrorIs(t, err, ErrRunNotFound)

	_, err = s.ReadItemsets(ctx, "missing")
	require.ErrorIs(t, err, ErrRunNotFound)

	_, err = s.ReadBaskets(ctx, "missing")
	require.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRuns_NewestFirst(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	empty, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, r := range []RunResult{
		createTestRun(t, "b", t0),
		createTestRun(t, "c", t0.Add(time.Hour)),
		createTestRun(t, "a", t0),
	} {
		_, err := s.WriteRun(ctx, r)
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "a", runs[1].ID)
	assert.Equal(t, "b", runs[2].ID)
}

func TestReadBaskets_KeepsEmptyTransactions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	res := createTestRun(t, "run-1", t0)
	_, err := s.WriteRun(ctx, res)
	require.NoError(t, err)

	m, err := s.ReadBaskets(ctx, "run-1")
	require.NoError(t, err)

	assert.Equal(t, res.Matrix.TransactionIDs(), m.TransactionIDs())
	assert.Equal(t, res.Matrix.Items(), m.Items())
	for r := 0; r < m.Transactions(); r++ {
		assert.Equal(t, res.Matrix.Basket(r), m.Basket(r))
	}
	assert.Empty(t, m.Basket(4))
}

func TestReadRules_InfiniteConviction(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	res := createTestRun(t, "run-1", t0)

	res.Rules = append(res.Rules, ir.ScoreRule(ir.MustItemset("X"), ir.MustItemset("Y"), 0.4, 0.4, 0.5))
	require.True(t, math.IsInf(res.Rules[len(res.Rules)-1].Conviction, 1))

	_, err := s.WriteRun(ctx, res)
	require.NoError(t, err)

	rules, err := s.ReadRules(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, rules, 7)
	assert.True(t, math.IsInf(rules[6].Conviction, 1))
	assert.Equal(t, "{X} => {Y}", rules[6].String())
}

func TestReplay_Match(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	res := createTestRun(t, "run-1", t0)
	_, err := s.WriteRun(ctx, res)
	require.NoError(t, err)

	result, err := s.Replay(ctx, "run-1", engine.WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.True(t, result.Match)
	assert.Equal(t, res.Run.Digest, result.Expected)
	assert.Equal(t, result.Expected, result.Actual)
	assert.Equal(t, 6, result.Itemsets)
	assert.Equal(t, 6, result.Rules)
}

func TestReplay_Mismatch(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	res := createTestRun(t, "run-1", t0)
	res.Run.Digest = "0000"
	_, err := s.WriteRun(ctx, res)
	require.NoError(t, err)

	result, err := s.Replay(ctx, "run-1", engine.WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.False(t, result.Match)
	assert.Equal(t, "0000", result.Expected)
	assert.NotEqual(t, result.Expected, result.Actual)
}

func TestReplay_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Replay(context.Background(), "missing")
	require.ErrorIs(t, err, ErrRunNotFound)
}
