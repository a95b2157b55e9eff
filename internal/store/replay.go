package store

import (
	"context"
	"fmt"

	"github.com/roach88/basket/internal/engine"
	"github.com/roach88/basket/internal/ir"
)

// ReplayResult contains the outcome of re-mining a stored run.
type ReplayResult struct {
	RunID    string `json:"run_id"`
	Match    bool   `json:"match"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Itemsets int    `json:"itemsets"`
	Rules    int    `json:"rules"`
}

// Replay re-mines the stored baskets of a run with its stored thresholds and
// compares the digest of the fresh result against the stored digest.
//
// A mismatch is not an error: it is reported through ReplayResult.Match.
// Errors are reserved for a missing run or a failure to mine.
func (s *Store) Replay(ctx context.Context, runID string, opts ...engine.Option) (*ReplayResult, error) {
	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	m, err := s.ReadBaskets(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	th := run.Thresholds
	opts = append(opts, engine.WithMaxLength(th.MaxLength))
	c, err := engine.Mine(ctx, m, th.MinSupport, opts...)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", runID, err)
	}
	rules, err := engine.GenerateRules(c, th.MinConfidence, th.MinLift)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", runID, err)
	}

	digest, err := ir.RunDigest(ir.NewSnapshot(run.Items, th, c, rules))
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", runID, err)
	}

	return &ReplayResult{
		RunID:    runID,
		Match:    digest == run.Digest,
		Expected: run.Digest,
		Actual:   digest,
		Itemsets: c.Len(),
		Rules:    len(rules),
	}, nil
}
