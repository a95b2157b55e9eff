package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/basket/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes the frequent itemsets to help debug the failure.
type AssertionError struct {
	Type     string               // Assertion type for categorization
	Expected string               // Human-readable expected outcome
	Actual   string               // Human-readable actual outcome
	Itemsets []ir.FrequentItemset // Mined itemsets for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFrequent itemsets:\n")
	for i, fi := range e.Itemsets {
		fmt.Fprintf(&buf, "  [%d] %s %s\n", i+1, fi.Items, ir.FormatRatio(fi.Support))
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(c *ir.Collection, rules []ir.Rule, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluateAssertion(c, rules, a); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluateAssertion(c *ir.Collection, rules []ir.Rule, a Assertion) error {
	switch a.Type {
	case AssertItemsetPresent, AssertItemsetAbsent:
		return assertItemset(c, a)
	case AssertRulePresent, AssertRuleAbsent:
		return assertRule(c, rules, a)
	case AssertMaxLevel:
		return assertMaxLevel(c, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

// assertItemset checks whether an itemset is (or is not) frequent.
func assertItemset(c *ir.Collection, a Assertion) error {
	set, err := itemset(a.Items)
	if err != nil {
		return fmt.Errorf("%s: %w", a.Type, err)
	}
	_, found := c.Get(set)
	want := a.Type == AssertItemsetPresent
	if found == want {
		return nil
	}

	expected, actual := set.String()+" frequent", "not frequent"
	if !want {
		expected, actual = set.String()+" not frequent", "frequent"
	}
	return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, Itemsets: c.Itemsets()}
}

// assertRule checks whether a rule is (or is not) among the qualifying rules.
func assertRule(c *ir.Collection, rules []ir.Rule, a Assertion) error {
	_, found, err := findRule(rules, a.Antecedent, a.Consequent)
	if err != nil {
		return fmt.Errorf("%s: %w", a.Type, err)
	}
	want := a.Type == AssertRulePresent
	if found == want {
		return nil
	}

	rule := fmt.Sprintf("%v => %v", a.Antecedent, a.Consequent)
	expected, actual := rule+" qualifies", "not among the rules"
	if !want {
		expected, actual = rule+" filtered out", "qualified"
	}
	return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, Itemsets: c.Itemsets()}
}

// assertMaxLevel checks the size of the largest frequent itemset.
func assertMaxLevel(c *ir.Collection, a Assertion) error {
	if got := c.MaxLevel(); got != a.Level {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("largest frequent itemset has %d items", a.Level),
			Actual:   fmt.Sprintf("%d items", got),
			Itemsets: c.Itemsets(),
		}
	}
	return nil
}
