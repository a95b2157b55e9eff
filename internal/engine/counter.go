package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/basket/internal/matrix"
)

// countSupports counts every candidate against m.
//
// Candidates are split into contiguous shards and counted on at most workers
// goroutines. counts[i] always belongs to cands[i] and each shard owns a
// disjoint range, so the result is identical for any worker count.
func countSupports(ctx context.Context, m *matrix.Matrix, cands []candidate, workers int) ([]int, error) {
	counts := make([]int, len(cands))
	if len(cands) == 0 {
		return counts, nil
	}

	shard := shardSize(len(cands), workers)
	if shard >= len(cands) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("count supports: %w", err)
		}
		for i, c := range cands {
			counts[i] = m.CountColumns(c)
		}
		return counts, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < len(cands); start += shard {
		end := min(start+shard, len(cands))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				counts[i] = m.CountColumns(cands[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("count supports: %w", err)
	}
	return counts, nil
}

// shardSize spreads n candidates over workers, never below minShardSize.
func shardSize(n, workers int) int {
	if workers < 1 {
		workers = 1
	}
	size := (n + workers - 1) / workers
	if size < minShardSize {
		size = minShardSize
	}
	return size
}
