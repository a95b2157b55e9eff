// Package pipeline runs the end-to-end basket analysis: extract raw
// transactions, clean them, pivot into a transaction-item matrix, mine
// frequent itemsets, derive rules, export the results, and optionally
// persist the run.
//
// Each step is also exposed on its own so the CLI can run a single step
// against files produced by an earlier one.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/basket/internal/config"
	"github.com/roach88/basket/internal/engine"
	"github.com/roach88/basket/internal/export"
	"github.com/roach88/basket/internal/ir"
	"github.com/roach88/basket/internal/matrix"
	"github.com/roach88/basket/internal/preprocess"
	"github.com/roach88/basket/internal/source"
	"github.com/roach88/basket/internal/store"
)

// Pipeline holds the collaborators of a run. The zero value is not usable;
// construct with New.
type Pipeline struct {
	ids    RunIDGenerator
	clock  Clock
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRunIDGenerator replaces the UUIDv7 run ID generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(p *Pipeline) { p.ids = g }
}

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithLogger routes pipeline and engine logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		ids:    UUIDv7Generator{},
		clock:  SystemClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Mined is the output of the mining and rule steps.
type Mined struct {
	Itemsets *ir.Collection
	Rules    []ir.Rule
	Levels   []engine.LevelStats
	MinCount int
}

// Report summarises a completed run.
type Report struct {
	RunID        string                 `json:"run_id"`
	CreatedAt    time.Time              `json:"created_at"`
	Thresholds   ir.Thresholds          `json:"thresholds"`
	Clean        preprocess.CleanReport `json:"clean"`
	Transactions int                    `json:"transactions"`
	Items        int                    `json:"items"`
	Itemsets     int                    `json:"itemsets"`
	Rules        int                    `json:"rules"`
	MaxLevel     int                    `json:"max_level"`
	Levels       []engine.LevelStats    `json:"levels"`
	Digest       string                 `json:"digest"`
	Files        []string               `json:"files"`
	Stored       bool                   `json:"stored"`
	Duration     time.Duration          `json:"duration"`

	// Results are kept for callers that render them; they are not part of
	// the JSON summary.
	Mined *Mined `json:"-"`
}

// Run executes every step for cfg, starting from the source database.
func (p *Pipeline) Run(ctx context.Context, cfg config.Config) (*Report, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	records, err := p.Extract(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Output.RawData != "" {
		if err := export.ToFile(cfg.Output.RawData, func(w io.Writer) error {
			return preprocess.WriteRecordsCSV(w, records)
		}); err != nil {
			return nil, err
		}
	}

	report, err := p.RunRecords(ctx, cfg, records)
	if err != nil {
		return nil, err
	}
	if cfg.Output.RawData != "" {
		report.Files = append([]string{cfg.Output.RawData}, report.Files...)
	}
	return report, nil
}

// Extract reads the configured source.
func (p *Pipeline) Extract(ctx context.Context, cfg config.Config) ([]preprocess.Record, error) {
	if cfg.Source.Database == "" {
		return nil, fmt.Errorf("extract: no source database configured")
	}
	src, err := source.Open(cfg.Source.Database)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return src.Extract(ctx, cfg.Selection())
}

// Prepare cleans records and pivots them into a matrix.
func (p *Pipeline) Prepare(records []preprocess.Record) (*matrix.Matrix, preprocess.CleanReport, error) {
	cleaned, report := preprocess.Clean(records)
	p.logger.Info("cleaned records",
		"input", report.Input,
		"duplicates", report.Duplicates,
		"missing", report.Missing,
		"output", report.Output,
	)

	m, err := preprocess.Pivot(cleaned)
	if err != nil {
		return nil, report, fmt.Errorf("prepare: %w", err)
	}
	return m, report, nil
}

// Mine finds frequent itemsets in m and derives rules from them.
func (p *Pipeline) Mine(ctx context.Context, th ir.Thresholds, workers int, m *matrix.Matrix) (*Mined, error) {
	res, err := engine.MineWithStats(ctx, m, th.MinSupport,
		engine.WithMaxLength(th.MaxLength),
		engine.WithWorkers(workers),
		engine.WithLogger(p.logger),
	)
	if err != nil {
		return nil, err
	}
	rules, err := engine.GenerateRules(res.Itemsets, th.MinConfidence, th.MinLift)
	if err != nil {
		return nil, err
	}
	return &Mined{Itemsets: res.Itemsets, Rules: rules, Levels: res.Levels, MinCount: res.MinCount}, nil
}

// RunRecords runs every step after extraction.
func (p *Pipeline) RunRecords(ctx context.Context, cfg config.Config, records []preprocess.Record) (*Report, error) {
	start := p.clock.Now()
	report := &Report{
		RunID:      p.ids.Generate(),
		CreatedAt:  start,
		Thresholds: cfg.Thresholds,
		Files:      []string{},
	}
	logger := p.logger.With("run_id", report.RunID)

	m, clean, err := p.Prepare(records)
	report.Clean = clean
	if err != nil {
		return nil, err
	}
	report.Transactions = m.Transactions()
	report.Items = m.NumItems()

	if path := cfg.Output.Matrix; path != "" {
		if err := export.ToFile(path, func(w io.Writer) error { return preprocess.WriteMatrixCSV(w, m) }); err != nil {
			return nil, err
		}
		report.Files = append(report.Files, path)
	}

	mined, err := p.Mine(ctx, cfg.Thresholds, cfg.Workers, m)
	if err != nil {
		return nil, err
	}
	report.Mined = mined
	report.Itemsets = mined.Itemsets.Len()
	report.Rules = len(mined.Rules)
	report.MaxLevel = mined.Itemsets.MaxLevel()
	report.Levels = mined.Levels

	snap := ir.NewSnapshot(m.NumItems(), cfg.Thresholds, mined.Itemsets, mined.Rules)
	report.Digest, err = ir.RunDigest(snap)
	if err != nil {
		return nil, fmt.Errorf("digest run %s: %w", report.RunID, err)
	}

	files, err := writeResults(cfg.Output, snap, mined)
	if err != nil {
		return nil, err
	}
	report.Files = append(report.Files, files...)

	if cfg.Store != "" {
		report.Stored, err = p.persist(ctx, cfg.Store, report, m, mined)
		if err != nil {
			return nil, err
		}
	}

	report.Duration = p.clock.Now().Sub(start)
	logger.Info("run complete",
		"transactions", report.Transactions,
		"items", report.Items,
		"itemsets", report.Itemsets,
		"rules", report.Rules,
		"digest", report.Digest,
		"duration", report.Duration,
	)
	return report, nil
}

func writeResults(out config.Output, snap ir.Snapshot, mined *Mined) ([]string, error) {
	var files []string
	if out.Itemsets != "" {
		if err := export.ToFile(out.Itemsets, func(w io.Writer) error {
			return export.WriteItemsetsCSV(w, mined.Itemsets)
		}); err != nil {
			return nil, err
		}
		files = append(files, out.Itemsets)
	}
	if out.Rules != "" {
		if err := export.ToFile(out.Rules, func(w io.Writer) error {
			return export.WriteRulesCSV(w, mined.Rules)
		}); err != nil {
			return nil, err
		}
		files = append(files, out.Rules)
	}
	if out.Snapshot != "" {
		if err := export.ToFile(out.Snapshot, func(w io.Writer) error {
			return export.WriteJSON(w, snap)
		}); err != nil {
			return nil, err
		}
		files = append(files, out.Snapshot)
	}
	return files, nil
}

func (p *Pipeline) persist(ctx context.Context, path string, report *Report, m *matrix.Matrix, mined *Mined) (bool, error) {
	st, err := store.Open(path)
	if err != nil {
		return false, fmt.Errorf("persist run %s: %w", report.RunID, err)
	}
	defer st.Close()

	return st.WriteRun(ctx, store.RunResult{
		Run: store.Run{
			ID:         report.RunID,
			CreatedAt:  report.CreatedAt,
			Thresholds: report.Thresholds,
			Digest:     report.Digest,
		},
		Matrix:   m,
		Itemsets: mined.Itemsets,
		Rules:    mined.Rules,
	})
}
