package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/basket/internal/engine"
	"github.com/roach88/basket/internal/ir"
	"github.com/roach88/basket/internal/matrix"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testThresholds = ir.Thresholds{MinSupport: 0.4, MinConfidence: 0.6, MinLift: 0.8}

// createTestRun mines {A,B}, {A,B,C}, {A,C}, {B,C}, {} and returns a
// ready-to-write result with a correct digest.
func createTestRun(t *testing.T, id string, createdAt time.Time) RunResult {
	t.Helper()
	m, err := matrix.FromBaskets(map[string][]string{
		"t1": {"A", "B"},
		"t2": {"A", "B", "C"},
		"t3": {"A", "C"},
		"t4": {"B", "C"},
		"t5": {},
	})
	require.NoError(t, err)

	c, err := engine.Mine(context.Background(), m, testThresholds.MinSupport, engine.WithLogger(quietLogger()))
	require.NoError(t, err)
	rules, err := engine.GenerateRules(c, testThresholds.MinConfidence, testThresholds.MinLift)
	require.NoError(t, err)

	digest, err := ir.RunDigest(ir.NewSnapshot(m.NumItems(), testThresholds, c, rules))
	require.NoError(t, err)

	return RunResult{
		Run: Run{
			ID:         id,
			CreatedAt:  createdAt,
			Thresholds: testThresholds,
			Digest:     digest,
		},
		Matrix:   m,
		Itemsets: c,
		Rules:    rules,
	}
}
