package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/basket/internal/config"
	"github.com/roach88/basket/internal/engine"
	"github.com/roach88/basket/internal/ir"
	"github.com/roach88/basket/internal/preprocess"
	"github.com/roach88/basket/internal/store"
	"github.com/roach88/basket/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPipeline(ids ...string) *Pipeline {
	return New(
		WithRunIDGenerator(testutil.NewFixedRunIDGenerator(ids...)),
		WithClock(testutil.NewDeterministicClock()),
		WithLogger(quietLogger()),
	)
}

// testConfig writes every output into dir.
func testConfig(dir string) config.Config {
	cfg := config.Default()
	cfg.Thresholds = ir.Thresholds{MinSupport: 0.5, MinConfidence: 0.6, MinLift: 0.8}
	cfg.Output = config.Output{
		RawData:  filepath.Join(dir, config.DefaultRawData),
		Matrix:   filepath.Join(dir, config.DefaultMatrix),
		Itemsets: filepath.Join(dir, config.DefaultItemsets),
		Rules:    filepath.Join(dir, config.DefaultRules),
		Snapshot: filepath.Join(dir, "snapshot.json"),
	}
	return cfg
}

// fourBasketRecords is {A,B},{A,B,C},{A,C},{B,C} plus one duplicate row and
// one row with a missing item.
func fourBasketRecords() []preprocess.Record {
	rec := func(tid, item string) preprocess.Record {
		return preprocess.Record{TransactionID: tid, Item: item, Quantity: 1, Date: "2024-01-01"}
	}
	return []preprocess.Record{
		rec("1", "A"), rec("1", "B"),
		rec("2", "A"), rec("2", "B"), rec("2", "C"),
		rec("3", "A"), rec("3", "C"),
		rec("4", "B"), rec("4", "C"),
		rec("4", "C"),
		{TransactionID: "5", Quantity: 1, Date: "2024-01-01", Missing: true},
	}
}

func TestRunRecords(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)

	report, err := testPipeline().RunRecords(context.Background(), cfg, fourBasketRecords())
	require.NoError(t, err)

	assert.Equal(t, testutil.DefaultRunID, report.RunID)
	assert.Equal(t, testutil.Epoch, report.CreatedAt)
	assert.Equal(t, time.Second, report.Duration)
	assert.Equal(t, preprocess.CleanReport{Input: 11, Duplicates: 1, Missing: 1, Output: 9}, report.Clean)
	assert.Equal(t, 4, report.Transactions)
	assert.Equal(t, 3, report.Items)
	assert.Equal(t, 6, report.Itemsets)
	assert.Equal(t, 6, report.Rules)
	assert.Equal(t, 2, report.MaxLevel)
	assert.Len(t, report.Digest, 64)
	assert.False(t, report.Stored)

	// Raw data is written by Run, not RunRecords.
	assert.Equal(t, []string{cfg.Output.Matrix, cfg.Output.Itemsets, cfg.Output.Rules, cfg.Output.Snapshot}, report.Files)
	for _, f := range report.Files {
		assert.FileExists(t, f)
	}

	itemsets, err := os.ReadFile(cfg.Output.Itemsets)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(itemsets), "support,itemsets\n"))
	assert.Equal(t, 7, strings.Count(string(itemsets), "\n"))

	rules, err := os.ReadFile(cfg.Output.Rules)
	require.NoError(t, err)
	assert.Equal(t, 7, strings.Count(string(rules), "\n"))
}

func TestRunRecords_Deterministic(t *testing.T) {
	cfg := testConfig(t.TempDir())

	first, err := testPipeline().RunRecords(context.Background(), cfg, fourBasketRecords())
	require.NoError(t, err)
	firstSnapshot, err := os.ReadFile(cfg.Output.Snapshot)
	require.NoError(t, err)

	second, err := testPipeline().RunRecords(context.Background(), cfg, fourBasketRecords())
	require.NoError(t, err)
	secondSnapshot, err := os.ReadFile(cfg.Output.Snapshot)
	require.NoError(t, err)

	assert.Equal(t, first.Digest, second.Digest)
	assert.Equal(t, firstSnapshot, secondSnapshot)
}

func TestRunRecords_SkipsEmptyOutputs(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Output = config.Output{}

	report, err := testPipeline().RunRecords(context.Background(), cfg, fourBasketRecords())
	require.NoError(t, err)
	assert.Empty(t, report.Files)
	assert.NotNil(t, report.Files)
}

func TestRunRecords_Store(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Store = filepath.Join(dir, "runs.db")
	ctx := context.Background()

	report, err := testPipeline().RunRecords(ctx, cfg, fourBasketRecords())
	require.NoError(t, err)
	assert.True(t, report.Stored)

	// Same run ID again: nothing new is written.
	again, err := testPipeline().RunRecords(ctx, cfg, fourBasketRecords())
	require.NoError(t, err)
	assert.False(t, again.Stored)

	st, err := store.Open(cfg.Store)
	require.NoError(t, err)
	defer st.Close()

	run, err := st.ReadRun(ctx, report.RunID)
	require.NoError(t, err)
	assert.Equal(t, report.Digest, run.Digest)
	assert.Equal(t, 6, run.Rules)

	res, err := st.Replay(ctx, report.RunID, engine.WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.True(t, res.Match)
}

func TestRunRecords_NothingLeftAfterCleaning(t *testing.T) {
	records := []preprocess.Record{{TransactionID: "1", Missing: true}}

	_, err := testPipeline().RunRecords(context.Background(), testConfig(t.TempDir()), records)
	require.Error(t, err)
	assert.True(t, ir.IsInvalidInput(err))
}

func TestRunRecords_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testPipeline().RunRecords(ctx, testConfig(t.TempDir()), fourBasketRecords())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRun_FromDatabase(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Source.Database = createRetailDB(t, dir)

	report, err := testPipeline("run-a").Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, "run-a", report.RunID)
	assert.Equal(t, cfg.Output.RawData, report.Files[0])
	assert.Equal(t, 4, report.Transactions)
	assert.Equal(t, 6, report.Itemsets)

	raw, err := os.Open(cfg.Output.RawData)
	require.NoError(t, err)
	defer raw.Close()
	records, err := preprocess.ReadRecordsCSV(raw)
	require.NoError(t, err)
	assert.Len(t, records, 9)
}

func TestRun_DateWindow(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Source.Database = createRetailDB(t, dir)
	cfg.Source.Until = "2024-01-02"

	report, err := testPipeline().Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Transactions)
}

func TestRun_Errors(t *testing.T) {
	cfg := testConfig(t.TempDir())

	_, err := testPipeline().Run(context.Background(), cfg)
	assert.ErrorContains(t, err, "no source database")

	cfg.Source.Database = filepath.Join(t.TempDir(), "absent.db")
	_, err = testPipeline().Run(context.Background(), cfg)
	assert.Error(t, err)

	cfg.Thresholds.MinSupport = 0
	_, err = testPipeline().Run(context.Background(), cfg)
	var errs config.LoadErrors
	assert.ErrorAs(t, err, &errs)
}

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()

	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
	assert.Equal(t, byte('7'), a[14], "version nibble")
}

// createRetailDB holds the four baskets, one per day starting 2024-01-01.
func createRetailDB(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "retail.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE transactions (transaction_id INTEGER, item TEXT, quantity INTEGER, transaction_date TEXT);
		INSERT INTO transactions VALUES
			(1, 'A', 1, '2024-01-01'), (1, 'B', 1, '2024-01-01'),
			(2, 'A', 1, '2024-01-02'), (2, 'B', 2, '2024-01-02'), (2, 'C', 1, '2024-01-02'),
			(3, 'A', 1, '2024-01-03'), (3, 'C', 1, '2024-01-03'),
			(4, 'B', 1, '2024-01-04'), (4, 'C', 1, '2024-01-04');
	`)
	require.NoError(t, err)
	return path
}
