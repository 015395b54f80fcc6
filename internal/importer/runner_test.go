package importer

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RakanEX/finance-db-pyscript/internal/entities"
	"github.com/RakanEX/finance-db-pyscript/internal/ledger"
	"github.com/RakanEX/finance-db-pyscript/internal/logger"
	"github.com/RakanEX/finance-db-pyscript/internal/model"
	"github.com/RakanEX/finance-db-pyscript/internal/report"
	"github.com/RakanEX/finance-db-pyscript/internal/runlog"
)

// memStore is an in-memory fact table keyed like the real stores.
type memStore struct {
	rows    map[model.FactKey]model.Fact
	schemas int
	upserts int
	failOn  int // fail the n-th upsert (1-based); 0 never fails
}

func newMemStore() *memStore {
	return &memStore{rows: map[model.FactKey]model.Fact{}}
}

func (m *memStore) EnsureSchema(ctx context.Context) error {
	m.schemas++
	return nil
}

func (m *memStore) Upsert(ctx context.Context, facts []model.Fact) (int64, error) {
	m.upserts++
	if m.failOn == m.upserts {
		return 0, errors.New("connection reset by peer")
	}
	for _, f := range facts {
		m.rows[f.Key()] = f
	}
	return int64(len(facts)), nil
}

var runStart = time.Date(2024, 7, 2, 13, 14, 33, 0, time.UTC)

func testOptions() report.Options {
	return report.Options{
		Scenario: "Actual",
		Mapping:  entities.Defaults(),
		Now:      func() time.Time { return runStart },
	}
}

func quietCtx() context.Context {
	return logger.WithContext(context.Background(), zerolog.Nop())
}

func fixture(name string) string {
	return filepath.Join("..", "..", "testdata", name)
}

func TestRunner_AllVariants(t *testing.T) {
	store := newMemStore()
	r := NewRunner(store, testOptions(), "run-1")

	rep, err := r.Run(quietCtx(), []Job{
		{Path: fixture("income_monthly.csv"), Variant: model.VariantIncomeMonthly},
		{Path: fixture("income_dump.csv"), Variant: model.VariantIncomeDump},
		{Path: fixture("balance_monthly.csv"), Variant: model.VariantBalanceMonthly},
		{Path: fixture("balance_dump.csv"), Variant: model.VariantBalanceDump},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, rep.Failed())
	assert.Equal(t, 7+4+7+3, rep.Facts())
	assert.EqualValues(t, 21, rep.Affected())
	assert.Len(t, store.rows, 21)
	assert.Equal(t, 1, store.schemas, "schema is ensured once per run")
	assert.Equal(t, 4, store.upserts)
}

func TestRunner_Idempotent(t *testing.T) {
	store := newMemStore()
	jobs := []Job{{Path: fixture("balance_monthly.csv"), Variant: model.VariantBalanceMonthly}}

	_, err := NewRunner(store, testOptions(), "run-1").Run(quietCtx(), jobs)
	require.NoError(t, err)
	before := len(store.rows)

	_, err = NewRunner(store, testOptions(), "run-2").Run(quietCtx(), jobs)
	require.NoError(t, err)
	assert.Equal(t, before, len(store.rows))
}

func TestRunner_FileErrorsDoNotStopRun(t *testing.T) {
	dir := t.TempDir()
	badPeriod := filepath.Join(dir, "bad_period.csv")
	require.NoError(t, os.WriteFile(badPeriod, []byte("a\nb\nc\nQ2 FY24\nd\ne\nFinancial Row,Corp\n,Amount\n40000 - Sales,$1.00\n"), 0o644))
	badAmount := filepath.Join(dir, "bad_amount.csv")
	require.NoError(t, os.WriteFile(badAmount, []byte("a\nb\nc\nJun 2024\nd\ne\nFinancial Row,Corp\n,Amount\n40000 - Sales,lots\n"), 0o644))

	store := newMemStore()
	var logs bytes.Buffer
	r := NewRunner(store, testOptions(), "run-1")

	rep, err := r.Run(logger.WithContext(context.Background(), zerolog.New(&logs)), []Job{
		{Path: filepath.Join(dir, "missing.csv"), Variant: model.VariantIncomeMonthly},
		{Path: badPeriod, Variant: model.VariantIncomeMonthly},
		{Path: badAmount, Variant: model.VariantIncomeMonthly},
		{Path: fixture("income_monthly.csv"), Variant: "cash-flow"},
		{Path: fixture("income_monthly.csv"), Variant: model.VariantIncomeMonthly},
	})
	require.NoError(t, err)
	require.Len(t, rep.Results, 5)

	var mi *report.MalformedInputError
	assert.True(t, errors.As(rep.Results[0].Err, &mi))
	var dg *report.DateGrammarError
	assert.True(t, errors.As(rep.Results[1].Err, &dg))
	var ae *report.AmountError
	assert.True(t, errors.As(rep.Results[2].Err, &ae))
	assert.Error(t, rep.Results[3].Err)
	assert.True(t, rep.Results[4].OK())

	assert.Equal(t, 4, rep.Failed())
	assert.Len(t, store.rows, 7)
	assert.Contains(t, logs.String(), `"file":"bad_period.csv"`)
	assert.Contains(t, logs.String(), `"level":"error"`)
}

func TestRunner_StoreErrorAborts(t *testing.T) {
	store := newMemStore()
	store.failOn = 1
	r := NewRunner(store, testOptions(), "run-1")

	rep, err := r.Run(quietCtx(), []Job{
		{Path: fixture("income_monthly.csv"), Variant: model.VariantIncomeMonthly},
		{Path: fixture("balance_dump.csv"), Variant: model.VariantBalanceDump},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Len(t, rep.Results, 1, "remaining files are not attempted")
	assert.False(t, rep.Results[0].OK())
	assert.False(t, report.IsFileScoped(err))
}

func TestRunner_EmptyBatchSkipsStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zeros.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\nc\nJun 2024\nd\ne\nFinancial Row,Corp\n,Amount\n40000 - Sales,$0.00\n"), 0o644))

	store := newMemStore()
	rep, err := NewRunner(store, testOptions(), "run-1").Run(quietCtx(), []Job{{Path: path, Variant: model.VariantIncomeMonthly}})
	require.NoError(t, err)
	assert.True(t, rep.Results[0].OK())
	assert.Zero(t, store.upserts)
	assert.Zero(t, store.schemas)

	entries := rep.Entries(false)
	require.Len(t, entries, 1)
	assert.Equal(t, runlog.StatusNoFacts, entries[0].Status)
}

func TestRunner_DryRun(t *testing.T) {
	var out bytes.Buffer
	r := NewDryRunner(&out, testOptions(), "run-1")

	rep, err := r.Run(quietCtx(), []Job{
		{Path: fixture("income_dump.csv"), Variant: model.VariantIncomeDump},
		{Path: fixture("balance_dump.csv"), Variant: model.VariantBalanceDump},
	})
	require.NoError(t, err)

	facts, err := ledger.ReadFacts(&out)
	require.NoError(t, err)
	assert.Len(t, facts, 7)
	assert.Equal(t, "Tech", facts[0].Entity)
	assert.Equal(t, "Holdings", facts[6].Entity)

	for _, e := range rep.Entries(true) {
		assert.Equal(t, runlog.StatusDryRun, e.Status)
	}
}

func TestReport_Entries(t *testing.T) {
	store := newMemStore()
	rep, err := NewRunner(store, testOptions(), "run-7").Run(quietCtx(), []Job{
		{Path: fixture("balance_dump.csv"), Variant: model.VariantBalanceDump},
		{Path: fixture("balance_dump.csv"), Variant: model.VariantIncomeMonthly},
	})
	require.NoError(t, err)

	entries := rep.Entries(false)
	require.Len(t, entries, 2)

	assert.Equal(t, "run-7", entries[0].RunID)
	assert.Equal(t, "balance_dump.csv", entries[0].File)
	assert.Equal(t, "balance-dump", entries[0].Variant)
	assert.Equal(t, runlog.StatusLoaded, entries[0].Status)
	assert.Equal(t, 3, entries[0].Facts)
	assert.EqualValues(t, 3, entries[0].Affected)
	assert.True(t, runStart.Equal(entries[0].Timestamp))

	assert.Equal(t, runlog.StatusFailed, entries[1].Status)
	assert.NotEmpty(t, entries[1].Details)
}

func TestInvalidBatchError(t *testing.T) {
	err := &InvalidBatchError{Path: "x.csv", Violations: []ledger.ValidationError{{Index: 2, Field: "entity", Description: "entity is empty"}}}
	assert.Equal(t, "x.csv: 1 invalid facts: fact 2 [entity]: entity is empty", err.Error())
}

func TestRunner_SubCentAmountsAreStored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fractions.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\nc\nJun 2024\nd\ne\nFinancial Row,Corp\n,Amount\n40000 - Sales,$0.125\n"), 0o644))

	store := newMemStore()
	rep, err := NewRunner(store, testOptions(), "run-1").Run(quietCtx(), []Job{{Path: path, Variant: model.VariantIncomeMonthly}})
	require.NoError(t, err)
	require.True(t, rep.Results[0].OK(), "%v", rep.Results[0].Err)
	require.Len(t, store.rows, 1)
	for _, f := range store.rows {
		assert.Equal(t, "0.125", f.ValueString())
	}
}

func TestRunner_LogsPeriodOrEntity(t *testing.T) {
	var logs bytes.Buffer
	ctx := logger.WithContext(context.Background(), zerolog.New(&logs))
	_, err := NewRunner(newMemStore(), testOptions(), "run-1").Run(ctx, []Job{
		{Path: fixture("income_monthly.csv"), Variant: model.VariantIncomeMonthly},
		{Path: fixture("balance_dump.csv"), Variant: model.VariantBalanceDump},
	})
	require.NoError(t, err)
	assert.Contains(t, logs.String(), `"period":"2024-06-30"`)
	assert.Contains(t, logs.String(), `"entity":"Holdings"`)
}
