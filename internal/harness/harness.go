package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/roach88/basket/internal/engine"
	"github.com/roach88/basket/internal/ir"
	"github.com/roach88/basket/internal/matrix"
	"github.com/roach88/basket/internal/preprocess"
)

// tolerance is how closely an expected number must match. Scenarios write
// scores to three decimals (0.667, 0.889).
const tolerance = 5e-4

// Harness runs scenarios.
type Harness struct {
	logger *slog.Logger
}

// execution is what one scenario run produced.
type execution struct {
	m        *matrix.Matrix
	itemsets *ir.Collection
	rules    []ir.Rule
	items    int
}

// Run executes a test scenario and returns the result.
//
// A failed expectation is reported in the result, not as an error. The
// error return is reserved for problems outside the engine, such as an
// unreadable matrix file.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	h := &Harness{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in scenarios
	}
	return h.run(ctx, scenario)
}

func (h *Harness) run(ctx context.Context, s *Scenario) (*Result, error) {
	result := NewResult()

	exec, runErr := h.execute(ctx, s)
	if runErr != nil {
		code := ir.CodeOf(runErr)
		if code == "" {
			return nil, runErr
		}
		result.ErrorCode = code
		switch {
		case s.Expect.Error == "":
			result.AddError(fmt.Sprintf("unexpected error: %v", runErr))
		case ir.ErrorCode(s.Expect.Error) != code:
			result.AddError(fmt.Sprintf("expected error %s, got %v", s.Expect.Error, runErr))
		}
		return result, nil
	}
	if s.Expect.Error != "" {
		result.AddError(fmt.Sprintf("expected error %s, run succeeded", s.Expect.Error))
	}

	result.Transactions = exec.itemsets.Transactions()
	result.Itemsets = exec.itemsets.Itemsets()
	result.Rules = exec.rules
	result.Snapshot = ir.NewSnapshot(exec.items, s.Thresholds, exec.itemsets, exec.rules)
	digest, err := ir.RunDigest(result.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("digest scenario %s: %w", s.Name, err)
	}
	result.Digest = digest

	for _, msg := range checkExpectations(s.Expect, exec) {
		result.AddError(msg)
	}
	for _, msg := range EvaluateAssertions(exec.itemsets, exec.rules, s.Assertions) {
		result.AddError(msg)
	}
	for _, msg := range checkScores(exec.rules, s.Thresholds) {
		result.AddError(msg)
	}
	if exec.m != nil {
		msgs, err := h.checkProperties(ctx, exec.m, exec.itemsets, s.Thresholds)
		if err != nil {
			return nil, err
		}
		for _, msg := range msgs {
			result.AddError(msg)
		}
	}
	return result, nil
}

func (h *Harness) execute(ctx context.Context, s *Scenario) (*execution, error) {
	th := s.Thresholds

	if len(s.Given) > 0 {
		c, items, err := givenCollection(s.Given)
		if err != nil {
			return nil, err
		}
		rules, err := engine.GenerateRules(c, th.MinConfidence, th.MinLift)
		if err != nil {
			return nil, err
		}
		return &execution{itemsets: c, rules: rules, items: items}, nil
	}

	m, err := buildMatrix(s)
	if err != nil {
		return nil, err
	}
	c, err := engine.Mine(ctx, m, th.MinSupport,
		engine.WithMaxLength(th.MaxLength),
		engine.WithLogger(h.logger),
	)
	if err != nil {
		return nil, err
	}
	rules, err := engine.GenerateRules(c, th.MinConfidence, th.MinLift)
	if err != nil {
		return nil, err
	}
	return &execution{m: m, itemsets: c, rules: rules, items: m.NumItems()}, nil
}

// buildMatrix turns the scenario input into a matrix. Transactions are
// numbered T1, T2, ... in the order given.
func buildMatrix(s *Scenario) (*matrix.Matrix, error) {
	if s.Matrix != "" {
		f, err := os.Open(s.Matrix)
		if err != nil {
			return nil, fmt.Errorf("open matrix: %w", err)
		}
		defer f.Close()
		return preprocess.ReadMatrixCSV(f)
	}

	tids := make([]string, len(s.Transactions))
	for i := range s.Transactions {
		tids[i] = fmt.Sprintf("T%d", i+1)
	}
	return matrix.FromBasketList(tids, func(r int) []string { return s.Transactions[r] })
}

// givenCollection builds a support-only collection. It also returns the
// number of distinct items mentioned.
func givenCollection(given []ExpectedItemset) (*ir.Collection, int, error) {
	c := ir.NewCollection(0)
	items := make(map[string]struct{})
	for i, g := range given {
		set, err := itemset(g.Items)
		if err != nil {
			return nil, 0, ir.NewInvalidInput("given", "given[%d]: %v", i, err)
		}
		if err := c.Put(ir.FrequentItemset{Items: set, Support: *g.Support}); err != nil {
			return nil, 0, ir.NewInvalidInput("given", "given[%d]: %v", i, err)
		}
		for _, id := range set.Strings() {
			items[id] = struct{}{}
		}
	}
	return c, len(items), nil
}

func itemset(ids []string) (ir.Itemset, error) {
	items := make([]ir.Item, 0, len(ids))
	for _, id := range ids {
		item, err := ir.NewItem(id)
		if err != nil {
			return ir.Itemset{}, err
		}
		items = append(items, item)
	}
	return ir.NewItemset(items...)
}

func checkExpectations(expect Expect, exec *execution) []string {
	var errs []string

	for _, want := range expect.Itemsets {
		set, err := itemset(want.Items)
		if err != nil {
			errs = append(errs, fmt.Sprintf("expect.itemsets: %v", err))
			continue
		}
		got, ok := exec.itemsets.Get(set)
		if !ok {
			errs = append(errs, fmt.Sprintf("expected itemset %s is not frequent", set))
			continue
		}
		if want.Support != nil && !approx(got.Support, *want.Support) {
			errs = append(errs, fmt.Sprintf("itemset %s: support %s, want %s",
				set, ir.FormatRatio(got.Support), ir.FormatRatio(*want.Support)))
		}
	}

	for _, want := range expect.Rules {
		r, ok, err := findRule(exec.rules, want.Antecedent, want.Consequent)
		if err != nil {
			errs = append(errs, fmt.Sprintf("expect.rules: %v", err))
			continue
		}
		if !ok {
			errs = append(errs, fmt.Sprintf("expected rule %v => %v did not qualify", want.Antecedent, want.Consequent))
			continue
		}
		if want.Confidence != nil && !approx(r.Confidence, *want.Confidence) {
			errs = append(errs, fmt.Sprintf("rule %s: confidence %s, want %s",
				r, ir.FormatRatio(r.Confidence), ir.FormatRatio(*want.Confidence)))
		}
		if want.Lift != nil && !approx(r.Lift, *want.Lift) {
			errs = append(errs, fmt.Sprintf("rule %s: lift %s, want %s",
				r, ir.FormatRatio(r.Lift), ir.FormatRatio(*want.Lift)))
		}
	}

	if expect.ItemsetCount != nil && exec.itemsets.Len() != *expect.ItemsetCount {
		errs = append(errs, fmt.Sprintf("itemset count %d, want %d", exec.itemsets.Len(), *expect.ItemsetCount))
	}
	if expect.RuleCount != nil && len(exec.rules) != *expect.RuleCount {
		errs = append(errs, fmt.Sprintf("rule count %d, want %d", len(exec.rules), *expect.RuleCount))
	}
	return errs
}

func findRule(rules []ir.Rule, antecedent, consequent []string) (ir.Rule, bool, error) {
	ante, err := itemset(antecedent)
	if err != nil {
		return ir.Rule{}, false, err
	}
	cons, err := itemset(consequent)
	if err != nil {
		return ir.Rule{}, false, err
	}
	for _, r := range rules {
		if r.Antecedent.Equal(ante) && r.Consequent.Equal(cons) {
			return r, true, nil
		}
	}
	return ir.Rule{}, false, nil
}

func approx(got, want float64) bool {
	return math.Abs(got-want) <= tolerance
}
