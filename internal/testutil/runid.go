package testutil

import (
	"fmt"
	"sync"
)

// DefaultRunID is returned by FixedRunIDGenerator when no ID is configured.
const DefaultRunID = "run-00000000-0000-0000-0000-000000000001"

// FixedRunIDGenerator hands out run IDs for tests.
//
// With one ID it returns that ID forever. With several it returns them in
// order and panics once they are exhausted, which catches a test that
// started more runs than it meant to.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedRunIDGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedRunIDGenerator creates a generator over ids.
// With no ids it always returns DefaultRunID.
func NewFixedRunIDGenerator(ids ...string) *FixedRunIDGenerator {
	if len(ids) == 0 {
		ids = []string{DefaultRunID}
	}
	return &FixedRunIDGenerator{ids: ids}
}

// Generate returns the next run ID.
func (g *FixedRunIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.ids) == 1 {
		return g.ids[0]
	}
	if g.idx >= len(g.ids) {
		panic(fmt.Sprintf("FixedRunIDGenerator: all %d run IDs exhausted", len(g.ids)))
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
