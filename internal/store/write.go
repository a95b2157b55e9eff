package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/basket/internal/ir"
	"github.com/roach88/basket/internal/matrix"
)

// Run describes one stored mining run.
type Run struct {
	ID            string        `json:"id"`
	CreatedAt     time.Time     `json:"created_at"`
	Thresholds    ir.Thresholds `json:"thresholds"`
	Transactions  int           `json:"transactions"`
	Items         int           `json:"items"`
	Itemsets      int           `json:"itemsets"`
	Rules         int           `json:"rules"`
	Digest        string        `json:"digest"`
	EngineVersion string        `json:"engine_version"`
}

// RunResult is everything WriteRun persists for a run.
type RunResult struct {
	Run      Run
	Matrix   *matrix.Matrix
	Itemsets *ir.Collection
	Rules    []ir.Rule
}

// WriteRun stores a run with its baskets, itemsets, and rules in a single
// transaction.
//
// Writing a run whose ID already exists is a no-op and reports
// inserted=false; the stored run is left untouched.
func (s *Store) WriteRun(ctx context.Context, res RunResult) (inserted bool, err error) {
	if res.Run.ID == "" {
		return false, fmt.Errorf("write run: empty run id")
	}
	if res.Matrix == nil || res.Itemsets == nil {
		return false, fmt.Errorf("write run %s: matrix and itemsets are required", res.Run.ID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	run := res.Run
	engineVersion := run.EngineVersion
	if engineVersion == "" {
		engineVersion = ir.EngineVersion
	}
	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, created_at, min_support, min_confidence, min_lift, max_length, transactions, items, digest, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.CreatedAt.UTC().UnixNano(),
		run.Thresholds.MinSupport,
		run.Thresholds.MinConfidence,
		run.Thresholds.MinLift,
		run.Thresholds.MaxLength,
		res.Matrix.Transactions(),
		res.Matrix.NumItems(),
		run.Digest,
		engineVersion,
	)
	if err != nil {
		return false, fmt.Errorf("write run %s: %w", run.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write run %s: rows affected: %w", run.ID, err)
	}
	if rowsAffected == 0 {
		return false, nil
	}

	if err := writeBaskets(ctx, tx, run.ID, res.Matrix); err != nil {
		return false, err
	}
	if err := writeItemsets(ctx, tx, run.ID, res.Itemsets); err != nil {
		return false, err
	}
	if err := writeRules(ctx, tx, run.ID, res.Rules); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("write run %s: commit: %w", run.ID, err)
	}
	return true, nil
}

func writeBaskets(ctx context.Context, tx *sql.Tx, runID string, m *matrix.Matrix) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO baskets (run_id, transaction_id, item) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write baskets: prepare: %w", err)
	}
	defer stmt.Close()

	tids := m.TransactionIDs()
	for r, tid := range tids {
		basket := m.Basket(r)
		if len(basket) == 0 {
			if _, err := stmt.ExecContext(ctx, runID, tid, nil); err != nil {
				return fmt.Errorf("write baskets: %s: %w", tid, err)
			}
			continue
		}
		for _, item := range basket {
			if _, err := stmt.ExecContext(ctx, runID, tid, string(item)); err != nil {
				return fmt.Errorf("write baskets: %s: %w", tid, err)
			}
		}
	}
	return nil
}

func writeItemsets(ctx context.Context, tx *sql.Tx, runID string, c *ir.Collection) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO itemsets (run_id, items, size, count, support) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write itemsets: prepare: %w", err)
	}
	defer stmt.Close()

	for fi := range c.All {
		items, err := marshalItemset(fi.Items)
		if err != nil {
			return fmt.Errorf("write itemsets: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, runID, items, fi.Items.Len(), fi.Count, fi.Support); err != nil {
			return fmt.Errorf("write itemsets: %s: %w", fi.Items, err)
		}
	}
	return nil
}

func writeRules(ctx context.Context, tx *sql.Tx, runID string, rules []ir.Rule) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO rules
		(run_id, rank, antecedent, consequent, support, antecedent_support, consequent_support,
		 confidence, lift, leverage, conviction)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write rules: prepare: %w", err)
	}
	defer stmt.Close()

	for rank, r := range rules {
		ante, err := marshalItemset(r.Antecedent)
		if err != nil {
			return fmt.Errorf("write rules: %w", err)
		}
		cons, err := marshalItemset(r.Consequent)
		if err != nil {
			return fmt.Errorf("write rules: %w", err)
		}
		_, err = stmt.ExecContext(ctx,
			runID,
			rank,
			ante,
			cons,
			r.Support,
			r.AntecedentSupport,
			r.ConsequentSupport,
			r.Confidence,
			r.Lift,
			r.Leverage,
			marshalConviction(r.Conviction),
		)
		if err != nil {
			return fmt.Errorf("write rules: %s: %w", r, err)
		}
	}
	return nil
}
