// Package store provides SQLite-backed durable storage for mining runs.
//
// A run is written once, in a single transaction, and never updated:
//   - Runs: thresholds, matrix shape, and the canonical result digest
//   - Baskets: the mined transactions, so a run can be re-mined later
//   - Itemsets: every frequent itemset with its count and support
//   - Rules: every retained rule with its rank in output order
//
// # Critical Patterns
//
// Idempotent writes:
//   - runs.id is the primary key; writing an existing run is a no-op
//
// Deterministic query results:
//   - Every multi-row query has an explicit ORDER BY with COLLATE BINARY
//     on text keys, so reads are byte-identical across platforms
//
// Replay:
//   - Replay rebuilds the matrix from baskets, mines it with the stored
//     thresholds, and compares digests (see ir.RunDigest)
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// PRAGMA user_version records the last migration applied; Open brings an
// older store up to date.
package store
