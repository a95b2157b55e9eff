package harness

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/basket/internal/ir"
	"github.com/roach88/basket/internal/matrix"
)

const scenarioDir = "testdata/scenarios"

func ptr[T any](v T) *T { return &v }

func fourBaskets() [][]string {
	return [][]string{{"A", "B"}, {"A", "B", "C"}, {"A", "C"}, {"B", "C"}}
}

func TestScenarios(t *testing.T) {
	files, err := FindScenarios(scenarioDir, "")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		scenario, err := LoadScenario(file)
		require.NoError(t, err, file)

		t.Run(scenario.Name, func(t *testing.T) {
			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRunWithGolden(t *testing.T) {
	for _, name := range []string{"four_baskets", "empty_matrix"} {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(filepath.Join(scenarioDir, name+".yaml"))
			require.NoError(t, err)
			require.NoError(t, RunWithGolden(t, scenario))
		})
	}
}

func TestRun_Result(t *testing.T) {
	result, err := Run(&Scenario{
		Name:         "pairs",
		Description:  "pairs",
		Transactions: fourBaskets(),
		Thresholds:   ir.Thresholds{MinSupport: 0.5, MinConfidence: 0.6, MinLift: 0.8},
	})
	require.NoError(t, err)

	assert.True(t, result.Pass)
	assert.Equal(t, 4, result.Transactions)
	assert.Len(t, result.Itemsets, 6)
	assert.Len(t, result.Rules, 6)
	assert.Len(t, result.Digest, 64)
	assert.Empty(t, result.ErrorCode)
}

func TestRun_ReportsFailedExpectations(t *testing.T) {
	result, err := Run(&Scenario{
		Name:         "wrong",
		Description:  "every expectation is wrong",
		Transactions: fourBaskets(),
		Thresholds:   ir.Thresholds{MinSupport: 0.5, MinConfidence: 0.6, MinLift: 0.8},
		Expect: Expect{
			Itemsets:     []ExpectedItemset{{Items: []string{"A"}, Support: ptr(0.5)}, {Items: []string{"A", "B", "C"}}},
			Rules:        []ExpectedRule{{Antecedent: []string{"A"}, Consequent: []string{"B"}, Lift: ptr(1.2)}},
			ItemsetCount: ptr(7),
			RuleCount:    ptr(1),
		},
		Assertions: []Assertion{{Type: AssertMaxLevel, Level: 3}},
	})
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 6)
	assert.Contains(t, result.Errors[0], "support 0.75, want 0.5")
	assert.Contains(t, result.Errors[1], "{A, B, C} is not frequent")
	assert.Contains(t, result.Errors[2], "lift")
	assert.Contains(t, result.Errors[3], "itemset count 6, want 7")
	assert.Contains(t, result.Errors[4], "rule count 6, want 1")
	assert.Contains(t, result.Errors[5], "Assertion failed: max_level")
}

func TestRun_ErrorExpectations(t *testing.T) {
	th := ir.Thresholds{MinSupport: 0.5, MinConfidence: 0.5, MinLift: 1}

	// Unexpected error.
	result, err := Run(&Scenario{Name: "e1", Description: "d", Thresholds: th})
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, ir.ErrCodeInvalidInput, result.ErrorCode)
	assert.Contains(t, result.Errors[0], "unexpected error")

	// Wrong error.
	result, err = Run(&Scenario{Name: "e2", Description: "d", Thresholds: th, Expect: Expect{Error: "MISSING_SUPPORT"}})
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected error MISSING_SUPPORT")

	// Expected an error that never came.
	result, err = Run(&Scenario{
		Name: "e3", Description: "d", Transactions: fourBaskets(), Thresholds: th,
		Expect: Expect{Error: "INVALID_INPUT"},
	})
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "run succeeded")
}

func TestRun_MissingMatrixFile(t *testing.T) {
	_, err := Run(&Scenario{
		Name:        "absent",
		Description: "d",
		Matrix:      filepath.Join(t.TempDir(), "absent.csv"),
		Thresholds:  ir.Thresholds{MinSupport: 0.5},
	})
	assert.Error(t, err)
}

func TestLoadScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown field", "name: x\ndescription: d\nassertion: []\n", "failed to parse YAML"},
		{"missing name", "description: d\n", "name is required"},
		{"unsafe name", "name: ../x\ndescription: d\n", "file name"},
		{"missing description", "name: x\n", "description is required"},
		{"two inputs", "name: x\ndescription: d\ntransactions: [[A]]\ngiven: [{items: [A], support: 1}]\n", "mutually exclusive"},
		{"given without support", "name: x\ndescription: d\ngiven: [{items: [A]}]\n", "support is required"},
		{"unknown error code", "name: x\ndescription: d\nexpect: {error: BOOM}\n", "unknown error code"},
		{"unknown assertion", "name: x\ndescription: d\nassertions: [{type: trace_contains}]\n", "unknown type"},
		{"assertion without items", "name: x\ndescription: d\nassertions: [{type: itemset_present}]\n", "requires items"},
		{"missing matrix", "name: x\ndescription: d\nmatrix: nowhere.csv\n", "matrix file not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "scenario.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_ResolvesMatrixPath(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join(scenarioDir, "grocery_matrix.yaml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "matrices", "groceries.csv"), scenario.Matrix)
}

func TestFindScenarios_Filter(t *testing.T) {
	files, err := FindScenarios(scenarioDir, "*_matrix.yaml")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(scenarioDir, "empty_matrix.yaml"), files[0])
	assert.Equal(t, filepath.Join(scenarioDir, "grocery_matrix.yaml"), files[1])

	_, err = FindScenarios(scenarioDir, "[")
	assert.Error(t, err)
}

func TestEvaluateAssertions(t *testing.T) {
	c := ir.NewCollection(4)
	require.NoError(t, c.PutCount(ir.MustItemset("A"), 3))
	require.NoError(t, c.PutCount(ir.MustItemset("B"), 3))
	require.NoError(t, c.PutCount(ir.MustItemset("A", "B"), 2))
	rules := []ir.Rule{ir.ScoreRule(ir.MustItemset("A"), ir.MustItemset("B"), 0.5, 0.75, 0.75)}

	passing := []Assertion{
		{Type: AssertItemsetPresent, Items: []string{"B", "A"}},
		{Type: AssertItemsetAbsent, Items: []string{"C"}},
		{Type: AssertRulePresent, Antecedent: []string{"A"}, Consequent: []string{"B"}},
		{Type: AssertRuleAbsent, Antecedent: []string{"B"}, Consequent: []string{"A"}},
		{Type: AssertMaxLevel, Level: 2},
	}
	assert.Empty(t, EvaluateAssertions(c, rules, passing))

	failing := []Assertion{
		{Type: AssertItemsetAbsent, Items: []string{"A"}},
		{Type: AssertRulePresent, Antecedent: []string{"B"}, Consequent: []string{"A"}},
	}
	errs := EvaluateAssertions(c, rules, failing)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "Assertion failed: itemset_absent")
	assert.Contains(t, errs[0], "Frequent itemsets:")
	assert.Contains(t, errs[1], "[B] => [A] qualifies")
}

func TestCheckScores(t *testing.T) {
	good := ir.ScoreRule(ir.MustItemset("A"), ir.MustItemset("B"), 0.5, 0.5, 0.75)
	assert.Empty(t, checkScores([]ir.Rule{good}, ir.Thresholds{MinConfidence: 0.9, MinLift: 1}))

	below := ir.ScoreRule(ir.MustItemset("A"), ir.MustItemset("B"), 0.5, 0.75, 0.75)
	errs := checkScores([]ir.Rule{below}, ir.Thresholds{MinConfidence: 0.9})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "below threshold")

	broken := good
	broken.Confidence = 0.5
	errs = checkScores([]ir.Rule{broken}, ir.Thresholds{})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "always co-occurs")
}

func TestCheckScores_JustBelowLift(t *testing.T) {
	r := ir.ScoreRule(ir.MustItemset("x"), ir.MustItemset("y"), 0.249999999875, 0.5, 0.5)

	errs := checkScores([]ir.Rule{r}, ir.Thresholds{MinLift: 1})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "below threshold")

	assert.Empty(t, checkScores([]ir.Rule{r}, ir.Thresholds{MinLift: 0.9999999995}))
}

func TestCheckProperties_DetectsCorruption(t *testing.T) {
	h := &Harness{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	m, err := matrix.FromBaskets(map[string][]string{
		"t1": {"A", "B"}, "t2": {"A", "B", "C"}, "t3": {"A", "C"}, "t4": {"B", "C"},
	})
	require.NoError(t, err)
	th := ir.Thresholds{MinSupport: 0.5}

	// Wrong count for {A}, {B} missing under {A, B}, {B, C} missing entirely.
	c := ir.NewCollection(4)
	require.NoError(t, c.PutCount(ir.MustItemset("A"), 2))
	require.NoError(t, c.PutCount(ir.MustItemset("C"), 3))
	require.NoError(t, c.PutCount(ir.MustItemset("A", "B"), 2))
	require.NoError(t, c.PutCount(ir.MustItemset("A", "C"), 2))

	errs, err := h.checkProperties(t.Context(), m, c, th)
	require.NoError(t, err)

	joined := ""
	for _, e := range errs {
		joined += e + "\n"
	}
	assert.Contains(t, joined, "property support: {A}")
	assert.Contains(t, joined, "property anti-monotonicity: {A, B} is frequent but its subset {B} is not")
	assert.Contains(t, joined, "property completeness: {B, C} (count 2) is missing")
	assert.Contains(t, joined, "property worker invariance")
}

func TestGoldenBytes(t *testing.T) {
	data, err := GoldenBytes("boom", &Result{ErrorCode: ir.ErrCodeMissingSupport})
	require.NoError(t, err)
	assert.Equal(t, `{"error":"MISSING_SUPPORT","scenario":"boom"}`, string(data))
}

func TestAssertGolden_CustomFixtureDir(t *testing.T) {
	dir := t.TempDir()
	result := &Result{ErrorCode: ir.ErrCodeInvalidInput}
	data, err := GoldenBytes("custom", result)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "custom.golden"), data, 0o644))

	require.NoError(t, AssertGolden(t, "custom", result, goldie.WithFixtureDir(dir)))
}
