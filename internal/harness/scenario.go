package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/basket/internal/ir"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Transactions lists the baskets to mine, one per transaction.
	Transactions [][]string `yaml:"transactions,omitempty"`

	// Matrix is a transaction-item matrix CSV. Relative paths are resolved
	// against the scenario file by LoadScenario.
	Matrix string `yaml:"matrix,omitempty"`

	// Given skips mining: rules are generated from these itemsets.
	Given []ExpectedItemset `yaml:"given,omitempty"`

	Thresholds ir.Thresholds `yaml:"thresholds"`

	Expect Expect `yaml:"expect,omitempty"`

	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ExpectedItemset is an itemset with an optional support.
type ExpectedItemset struct {
	Items   []string `yaml:"items"`
	Support *float64 `yaml:"support,omitempty"`
}

// ExpectedRule is a rule with optional scores.
type ExpectedRule struct {
	Antecedent []string `yaml:"antecedent"`
	Consequent []string `yaml:"consequent"`
	Confidence *float64 `yaml:"confidence,omitempty"`
	Lift       *float64 `yaml:"lift,omitempty"`
}

// Expect lists what the run must produce. Listed itemsets and rules must be
// present; the counts, when given, make the lists exhaustive.
type Expect struct {
	Itemsets     []ExpectedItemset `yaml:"itemsets,omitempty"`
	Rules        []ExpectedRule    `yaml:"rules,omitempty"`
	ItemsetCount *int              `yaml:"itemset_count,omitempty"`
	RuleCount    *int              `yaml:"rule_count,omitempty"`

	// Error is the error code the run must fail with.
	Error string `yaml:"error,omitempty"`
}

// Assertion checks one fact about the result.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Items is the itemset (itemset_present, itemset_absent).
	Items []string `yaml:"items,omitempty"`

	// Antecedent and Consequent name the rule (rule_present, rule_absent).
	Antecedent []string `yaml:"antecedent,omitempty"`
	Consequent []string `yaml:"consequent,omitempty"`

	// Level is the expected largest itemset size (max_level).
	Level int `yaml:"level,omitempty"`
}

// Assertion type constants.
const (
	AssertItemsetPresent = "itemset_present"
	AssertItemsetAbsent  = "itemset_absent"
	AssertRulePresent    = "rule_present"
	AssertRuleAbsent     = "rule_absent"
	AssertMaxLevel       = "max_level"
)

var scenarioName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Matrix != "" && !filepath.IsAbs(scenario.Matrix) {
		scenario.Matrix = filepath.Join(filepath.Dir(path), scenario.Matrix)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// FindScenarios returns the .yaml and .yml files in dir, sorted by path.
// A non-empty filter is a glob matched against the file's base name.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			ok, err := filepath.Match(filter, d.Name())
			if err != nil {
				return fmt.Errorf("invalid filter %q: %w", filter, err)
			}
			if !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !scenarioName.MatchString(s.Name) {
		return fmt.Errorf("name %q must be usable as a file name", s.Name)
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	inputs := 0
	if len(s.Transactions) > 0 {
		inputs++
	}
	if s.Matrix != "" {
		inputs++
		if _, err := os.Stat(s.Matrix); err != nil {
			return fmt.Errorf("matrix file not found: %s", s.Matrix)
		}
	}
	if len(s.Given) > 0 {
		inputs++
	}
	if inputs > 1 {
		return fmt.Errorf("transactions, matrix and given are mutually exclusive")
	}

	for i, g := range s.Given {
		if len(g.Items) == 0 {
			return fmt.Errorf("given[%d]: items is required", i)
		}
		if g.Support == nil {
			return fmt.Errorf("given[%d]: support is required", i)
		}
	}
	for i, e := range s.Expect.Itemsets {
		if len(e.Items) == 0 {
			return fmt.Errorf("expect.itemsets[%d]: items is required", i)
		}
	}
	for i, r := range s.Expect.Rules {
		if len(r.Antecedent) == 0 || len(r.Consequent) == 0 {
			return fmt.Errorf("expect.rules[%d]: antecedent and consequent are required", i)
		}
	}
	switch ir.ErrorCode(s.Expect.Error) {
	case "", ir.ErrCodeInvalidInput, ir.ErrCodeMissingSupport:
	default:
		return fmt.Errorf("expect.error: unknown error code %q", s.Expect.Error)
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertItemsetPresent, AssertItemsetAbsent:
		if len(a.Items) == 0 {
			return fmt.Errorf("assertions[%d]: %s requires items", index, a.Type)
		}
	case AssertRulePresent, AssertRuleAbsent:
		if len(a.Antecedent) == 0 || len(a.Consequent) == 0 {
			return fmt.Errorf("assertions[%d]: %s requires antecedent and consequent", index, a.Type)
		}
	case AssertMaxLevel:
		if a.Level < 0 {
			return fmt.Errorf("assertions[%d]: level must be >= 0", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown type %q", index, a.Type)
	}
	return nil
}
