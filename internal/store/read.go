package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/basket/internal/ir"
	"github.com/roach88/basket/internal/matrix"
)

// ErrRunNotFound is returned (wrapped) when a run ID is not in the store.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `
	r.id, r.created_at, r.min_support, r.min_confidence, r.min_lift, r.max_length,
	r.transactions, r.items, r.digest, r.engine_version,
	(SELECT COUNT(*) FROM itemsets i WHERE i.run_id = r.id),
	(SELECT COUNT(*) FROM rules u WHERE u.run_id = r.id)
`

// ReadRun retrieves a single run by ID.
// Returns an error wrapping ErrRunNotFound if the run does not exist.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs r WHERE r.id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns every stored run, newest first. Runs created at the same
// instant are ordered by ID.
//
// Returns an empty slice (not nil) if the store holds no runs.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs r
		ORDER BY r.created_at DESC, r.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadItemsets rebuilds the frequent-itemset collection of a run.
func (s *Store) ReadItemsets(ctx context.Context, runID string) (*ir.Collection, error) {
	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT items, count, support
		FROM itemsets
		WHERE run_id = ?
		ORDER BY size ASC, items COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query itemsets: %w", err)
	}
	defer rows.Close()

	c := ir.NewCollection(run.Transactions)
	for rows.Next() {
		var (
			data    string
			count   int
			support float64
		)
		if err := rows.Scan(&data, &count, &support); err != nil {
			return nil, fmt.Errorf("scan itemset: %w", err)
		}
		items, err := unmarshalItemset(data)
		if err != nil {
			return nil, err
		}
		if err := c.Put(ir.FrequentItemset{Items: items, Count: count, Support: support}); err != nil {
			return nil, fmt.Errorf("read itemsets: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate itemsets: %w", err)
	}
	return c, nil
}

// ReadRules returns the rules of a run in their stored output order.
//
// Returns an empty slice (not nil) if the run kept no rules.
func (s *Store) ReadRules(ctx context.Context, runID string) ([]ir.Rule, error) {
	if _, err := s.ReadRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT antecedent, consequent, support, antecedent_support, consequent_support,
		       confidence, lift, leverage, conviction
		FROM rules
		WHERE run_id = ?
		ORDER BY rank ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	rules := []ir.Rule{}
	for rows.Next() {
		var (
			ante, cons string
			r          ir.Rule
			conviction sql.NullFloat64
		)
		if err := rows.Scan(&ante, &cons, &r.Support, &r.AntecedentSupport, &r.ConsequentSupport,
			&r.Confidence, &r.Lift, &r.Leverage, &conviction); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		if r.Antecedent, err = unmarshalItemset(ante); err != nil {
			return nil, err
		}
		if r.Consequent, err = unmarshalItemset(cons); err != nil {
			return nil, err
		}
		r.Conviction = unmarshalConviction(conviction)
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	return rules, nil
}

// ReadBaskets rebuilds the matrix a run was mined from.
func (s *Store) ReadBaskets(ctx context.Context, runID string) (*matrix.Matrix, error) {
	if _, err := s.ReadRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT transaction_id, item
		FROM baskets
		WHERE run_id = ?
		ORDER BY transaction_id COLLATE BINARY ASC, item COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query baskets: %w", err)
	}
	defer rows.Close()

	var tids []string
	baskets := make(map[string][]string)
	for rows.Next() {
		var (
			tid  string
			item sql.NullString
		)
		if err := rows.Scan(&tid, &item); err != nil {
			return nil, fmt.Errorf("scan basket: %w", err)
		}
		if _, seen := baskets[tid]; !seen {
			tids = append(tids, tid)
			baskets[tid] = []string{}
		}
		if item.Valid {
			baskets[tid] = append(baskets[tid], item.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate baskets: %w", err)
	}

	m, err := matrix.FromBasketList(tids, func(r int) []string { return baskets[tids[r]] })
	if err != nil {
		return nil, fmt.Errorf("read baskets for run %s: %w", runID, err)
	}
	return m, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run       Run
		createdAt int64
	)
	err := row.Scan(
		&run.ID,
		&createdAt,
		&run.Thresholds.MinSupport,
		&run.Thresholds.MinConfidence,
		&run.Thresholds.MinLift,
		&run.Thresholds.MaxLength,
		&run.Transactions,
		&run.Items,
		&run.Digest,
		&run.EngineVersion,
		&run.Itemsets,
		&run.Rules,
	)
	if err != nil {
		return Run{}, err
	}
	run.CreatedAt = time.Unix(0, createdAt).UTC()
	return run, nil
}
