package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/roach88/basket/internal/ir"
	"github.com/roach88/basket/internal/matrix"
)

// supportEpsilon absorbs float error when min_support * N lands a hair above
// an integer (0.1 * 30 = 3.0000000000000004 must still mean "3 transactions").
const supportEpsilon = 1e-9

// LevelStats summarises one pass of the miner.
type LevelStats struct {
	Level      int           `json:"level"`
	Joined     int           `json:"joined"`
	Pruned     int           `json:"pruned"`
	Candidates int           `json:"candidates"`
	Frequent   int           `json:"frequent"`
	Duration   time.Duration `json:"duration"`
}

// Result is the outcome of Mine: the collection plus per-level statistics.
type Result struct {
	Itemsets *ir.Collection
	Levels   []LevelStats
	MinCount int
}

// Mine returns every itemset of m whose support is at least minSupport.
//
// Returns InvalidInputError if m is nil or empty, or minSupport is outside
// (0, 1]. If ctx is cancelled between levels or during counting, Mine
// returns the context error and no partial collection.
func Mine(ctx context.Context, m *matrix.Matrix, minSupport float64, opts ...Option) (*ir.Collection, error) {
	res, err := MineWithStats(ctx, m, minSupport, opts...)
	if err != nil {
		return nil, err
	}
	return res.Itemsets, nil
}

// MineWithStats is Mine, additionally reporting what each level did.
func MineWithStats(ctx context.Context, m *matrix.Matrix, minSupport float64, opts ...Option) (*Result, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := validateMineInput(m, minSupport, o); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("mine: %w", err)
	}

	n := m.Transactions()
	minCount := MinCount(minSupport, n)
	res := &Result{Itemsets: ir.NewCollection(n), MinCount: minCount}

	o.logger.Debug("mining started",
		"transactions", n,
		"items", m.NumItems(),
		"min_support", minSupport,
		"min_count", minCount,
	)

	// Level 1: every item is a candidate.
	start := time.Now()
	var level []candidate
	for col := 0; col < m.NumItems(); col++ {
		count := m.ColumnCount(col)
		if count < minCount {
			continue
		}
		cand := candidate{col}
		if err := res.Itemsets.PutCount(toItemset(m, cand), count); err != nil {
			return nil, fmt.Errorf("level 1: %w", err)
		}
		level = append(level, cand)
	}
	res.Levels = append(res.Levels, LevelStats{
		Level:      1,
		Joined:     m.NumItems(),
		Candidates: m.NumItems(),
		Frequent:   len(level),
		Duration:   time.Since(start),
	})
	o.logger.Debug("level counted", "level", 1, "candidates", m.NumItems(), "frequent", len(level))

	for k := 2; len(level) >= 2 && (o.maxLength == 0 || k <= o.maxLength); k++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("level %d: %w", k, err)
		}
		start := time.Now()

		cands, js := generateCandidates(level)
		if len(cands) == 0 {
			res.Levels = append(res.Levels, LevelStats{Level: k, Joined: js.joined, Pruned: js.pruned, Duration: time.Since(start)})
			o.logger.Debug("no candidates survived pruning", "level", k, "joined", js.joined, "pruned", js.pruned)
			break
		}

		counts, err := countSupports(ctx, m, cands, o.workers)
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", k, err)
		}

		next := make([]candidate, 0, len(cands))
		for i, cand := range cands {
			if counts[i] < minCount {
				continue
			}
			if err := res.Itemsets.PutCount(toItemset(m, cand), counts[i]); err != nil {
				return nil, fmt.Errorf("level %d: %w", k, err)
			}
			next = append(next, cand)
		}

		res.Levels = append(res.Levels, LevelStats{
			Level:      k,
			Joined:     js.joined,
			Pruned:     js.pruned,
			Candidates: len(cands),
			Frequent:   len(next),
			Duration:   time.Since(start),
		})
		o.logger.Debug("level counted",
			"level", k,
			"joined", js.joined,
			"pruned", js.pruned,
			"candidates", len(cands),
			"frequent", len(next),
		)

		if len(next) == 0 {
			break
		}
		level = next
	}

	o.logger.Info("mining finished",
		"itemsets", res.Itemsets.Len(),
		"max_level", res.Itemsets.MaxLevel(),
	)
	return res, nil
}

// MinCount converts a support ratio into the smallest qualifying
// transaction count for n transactions. The result is at least 1.
func MinCount(minSupport float64, n int) int {
	c := int(math.Ceil(minSupport*float64(n) - supportEpsilon))
	if c < 1 {
		c = 1
	}
	return c
}

func validateMineInput(m *matrix.Matrix, minSupport float64, o options) error {
	if m == nil {
		return ir.NewInvalidInput("matrix", "matrix is nil")
	}
	if m.Transactions() == 0 {
		return ir.NewInvalidInput("matrix", "zero transactions")
	}
	if math.IsNaN(minSupport) || minSupport <= 0 || minSupport > 1 {
		return ir.NewInvalidInput("min_support", "must be in (0, 1], got %v", minSupport)
	}
	if o.maxLength < 0 {
		return ir.NewInvalidInput("max_length", "must be >= 0, got %d", o.maxLength)
	}
	return nil
}

func toItemset(m *matrix.Matrix, c candidate) ir.Itemset {
	items := make([]ir.Item, len(c))
	for i, col := range c {
		items[i] = m.Item(col)
	}
	s, err := ir.NewItemset(items...)
	if err != nil {
		// Matrix items are validated at construction.
		panic(fmt.Sprintf("matrix column is not a valid item: %v", err))
	}
	return s
}
