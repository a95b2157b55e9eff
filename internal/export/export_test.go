package export

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/basket/internal/ir"
	"github.com/roach88/basket/internal/preprocess"
	"github.com/roach88/basket/internal/store"
)

// pairCollection holds {A}, {B}, {A,B}, each in 2 of 4 transactions.
func pairCollection(t *testing.T) (*ir.Collection, []ir.Rule) {
	t.Helper()
	c := ir.NewCollection(4)
	require.NoError(t, c.PutCount(ir.MustItemset("B"), 2))
	require.NoError(t, c.PutCount(ir.MustItemset("A", "B"), 2))
	require.NoError(t, c.PutCount(ir.MustItemset("A"), 2))

	rules := []ir.Rule{
		ir.ScoreRule(ir.MustItemset("A"), ir.MustItemset("B"), 0.5, 0.5, 0.5),
		ir.ScoreRule(ir.MustItemset("B"), ir.MustItemset("A"), 0.5, 0.5, 0.5),
	}
	return c, rules
}

func TestWriteItemsetsCSV(t *testing.T) {
	c, _ := pairCollection(t)

	var buf bytes.Buffer
	require.NoError(t, WriteItemsetsCSV(&buf, c))

	assert.Equal(t, "support,itemsets\n0.5,{A}\n0.5,{B}\n0.5,\"{A, B}\"\n", buf.String())
}

func TestWriteRulesCSV(t *testing.T) {
	_, rules := pairCollection(t)

	var buf bytes.Buffer
	require.NoError(t, WriteRulesCSV(&buf, rules))

	want := "antecedents,consequents,antecedent support,consequent support,support,confidence,lift,leverage,conviction\n" +
		"{A},{B},0.5,0.5,0.5,1,2,0.25,inf\n" +
		"{B},{A},0.5,0.5,0.5,1,2,0.25,inf\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteRulesCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRulesCSV(&buf, nil))
	assert.Equal(t, strings.Join(RulesHeader, ",")+"\n", buf.String())
}

func TestWriteJSON_Deterministic(t *testing.T) {
	c, rules := pairCollection(t)
	snap := ir.NewSnapshot(2, ir.Thresholds{MinSupport: 0.5, MinConfidence: 0.2, MinLift: 1.5}, c, rules)

	var a, b bytes.Buffer
	require.NoError(t, WriteJSON(&a, snap))
	require.NoError(t, WriteJSON(&b, snap))

	assert.Equal(t, a.String(), b.String())
	assert.True(t, strings.HasPrefix(a.String(), `{"items":2,"itemsets":[`))
	assert.True(t, strings.HasSuffix(a.String(), "}\n"))
	assert.Contains(t, a.String(), `"transactions":4`)
	assert.Contains(t, a.String(), `"min_lift":"1.5"`)
}

func TestTables(t *testing.T) {
	c, rules := pairCollection(t)

	var buf bytes.Buffer
	ItemsetTable(&buf, c.Itemsets(), 0)
	out := buf.String()
	assert.Contains(t, out, "FREQUENT ITEMSETS")
	assert.Contains(t, out, "{A, B}")
	assert.Contains(t, out, "0.5000")

	buf.Reset()
	RuleTable(&buf, rules, 1)
	out = buf.String()
	assert.Contains(t, out, "ASSOCIATION RULES")
	assert.Contains(t, out, "{A}")
	assert.Contains(t, out, "2.0000")
	assert.Contains(t, out, "inf")

	buf.Reset()
	PopularityTable(&buf, []preprocess.ItemCount{{Item: "milk", Count: 4}, {Item: "bread", Count: 2}})
	out = buf.String()
	assert.Contains(t, out, "TOP ITEMS")
	assert.Less(t, strings.Index(out, "milk"), strings.Index(out, "bread"))

	buf.Reset()
	DailyTable(&buf, []preprocess.DailyTotal{{Date: "2024-01-01", Quantity: 3}, {Date: "2024-01-02", Quantity: 1.5}})
	out = buf.String()
	assert.Contains(t, out, "2024-01-02")
	assert.Contains(t, out, "4.5")
}

func TestRunTable(t *testing.T) {
	var buf bytes.Buffer
	RunTable(&buf, []store.Run{{
		ID:           "run-1",
		CreatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Thresholds:   ir.Thresholds{MinSupport: 0.25},
		Transactions: 4,
		Digest:       "0123456789abcdef",
	}})
	out := buf.String()
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "2024-01-01T00:00:00Z")
	assert.Contains(t, out, "0.25")
	assert.Contains(t, out, "0123456789ab")
	assert.NotContains(t, out, "0123456789abc")
}

func TestToFile_CreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "nested", "rules.csv")

	err := ToFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "hello\n")
		return err
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestToFile_PropagatesWriteError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.csv")

	err := ToFile(path, func(io.Writer) error { return assert.AnError })
	require.ErrorIs(t, err, assert.AnError)
}

func TestFormatMetric(t *testing.T) {
	_, rules := pairCollection(t)
	assert.Equal(t, "inf", FormatMetric(rules[0].Conviction))
	assert.Equal(t, "0.25", FormatMetric(0.25))
}
