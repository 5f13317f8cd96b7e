// internal/service/service_test.go
package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propsim/internal/autosim"
	"propsim/internal/cache"
	"propsim/internal/common/config"
	"propsim/internal/common/database"
	apperrors "propsim/internal/common/errors"
	"propsim/internal/common/logger"
	"propsim/internal/models"
	"propsim/internal/sim"
	"propsim/internal/storage"
)

// ==========================
// Test Helpers
// ==========================

// validParams describes the $300k reference property over a one-year
// horizon. Month-0 cash flow is -13.02: rent nets 2090, expenses run
// 700, and the payment is 1403.02.
const validParams = `{
	"purchase_price": 300000,
	"down_payment_percent": 20,
	"annual_interest_percent": 5,
	"amort_years": 25,
	"monthly_rent": 2200,
	"years": 1
}`

type fixture struct {
	svc  *Service
	repo storage.Repository
}

func newFixture(t *testing.T, cacheRepo cache.Repository) *fixture {
	t.Helper()
	client, err := database.NewSQLite(config.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	repo, err := storage.NewSQLite(client.GetDB())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	svc := New(repo, cacheRepo, filepath.Join(t.TempDir(), "runs"), time.Minute, logger.NewTestLogger(t))
	return &fixture{svc: svc, repo: repo}
}

func seedScenario(t *testing.T, repo storage.Repository, params string) int64 {
	t.Helper()
	ctx := context.Background()
	propertyID, err := repo.UpsertProperty(ctx, &models.Property{Address: "12 Maple Street"})
	require.NoError(t, err)
	id, err := repo.CreateScenario(ctx, propertyID, "base case", json.RawMessage(params))
	require.NoError(t, err)
	return id
}

func referenceConfig() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.PurchasePrice = 300000
	cfg.DownPaymentPercent = 20
	cfg.AnnualInterestPercent = 5.0
	cfg.AmortYears = 25
	cfg.MonthlyRent = 2200
	cfg.Years = 1
	return cfg
}

func errCode(t *testing.T, err error) apperrors.ErrorCode {
	t.Helper()
	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	return stdErr.Code
}

// spyCache wraps another cache and counts traffic.
type spyCache struct {
	inner cache.Repository
	gets  int
	hits  int
	sets  int
}

func (c *spyCache) Get(ctx context.Context, key string) (string, bool, error) {
	c.gets++
	val, ok, err := c.inner.Get(ctx, key)
	if ok {
		c.hits++
	}
	return val, ok, err
}

func (c *spyCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.sets++
	return c.inner.Set(ctx, key, value, ttl)
}

// brokenCache fails every call.
type brokenCache struct{}

func (brokenCache) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errors.New("backend down")
}

func (brokenCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return errors.New("backend down")
}

// ==========================
// Simulate Tests
// ==========================

func TestSimulate_MatchesDirectEngineRun(t *testing.T) {
	f := newFixture(t, nil)
	cfg := referenceConfig()

	got, err := f.svc.Simulate(context.Background(), cfg)
	require.NoError(t, err)

	engine, err := sim.New(cfg, logger.NewNoOpLogger())
	require.NoError(t, err)
	want, err := engine.Run()
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestSimulate_SecondCallServedFromCache(t *testing.T) {
	spy := &spyCache{inner: cache.NewMemory()}
	f := newFixture(t, spy)
	ctx := context.Background()

	first, err := f.svc.Simulate(ctx, referenceConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, spy.gets)
	assert.Equal(t, 0, spy.hits)
	assert.Equal(t, 1, spy.sets)

	second, err := f.svc.Simulate(ctx, referenceConfig())
	require.NoError(t, err)
	assert.Equal(t, 2, spy.gets)
	assert.Equal(t, 1, spy.hits)
	assert.Equal(t, 1, spy.sets, "a hit must not rewrite the entry")

	// float64 survives a JSON round trip bit-for-bit
	assert.Equal(t, first, second)
}

func TestSimulate_CacheFailuresFallBackToEngine(t *testing.T) {
	f := newFixture(t, brokenCache{})
	ctx := context.Background()

	first, err := f.svc.Simulate(ctx, referenceConfig())
	require.NoError(t, err)
	second, err := f.svc.Simulate(ctx, referenceConfig())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first.Months, 12)
}

func TestSimulate_RejectsInvalidConfig(t *testing.T) {
	f := newFixture(t, nil)
	cfg := referenceConfig()
	cfg.PurchasePrice = 0

	_, err := f.svc.Simulate(context.Background(), cfg)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidConfiguration, errCode(t, err))
}

func TestSimulateParams_AcceptsFullDocument(t *testing.T) {
	f := newFixture(t, cache.NewMemory())

	result, err := f.svc.SimulateParams(context.Background(), json.RawMessage(validParams))
	require.NoError(t, err)

	require.Len(t, result.Months, 12)
	assert.InDelta(t, 1403.02, result.Summary.MonthlyMortgage, 0.05)
	assert.InDelta(t, -13.02, result.Months[0].MonthlyCashFlow, 0.05)
	assert.Nil(t, result.Summary.PaybackMonthOnUpfront)
}

func TestSimulateParams_RejectsSchemaViolation(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.SimulateParams(context.Background(),
		json.RawMessage(`{"purchase_price": 300000, "amort_years": 25, "down_payment_percent": 150}`))
	require.Error(t, err)

	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeValidationFailed, stdErr.Code)
	assert.Contains(t, stdErr.Metadata, "down_payment_percent")
	assert.False(t, stdErr.Retryable)
}

func TestSimulateParams_RejectsMalformedJSON(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.SimulateParams(context.Background(), json.RawMessage(`{"purchase`))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeValidationFailed, errCode(t, err))
}

// ==========================
// RunScenario Tests
// ==========================

func TestRunScenario_PersistsRunRowAndArtifact(t *testing.T) {
	f := newFixture(t, cache.NewMemory())
	ctx := context.Background()
	scenarioID := seedScenario(t, f.repo, validParams)

	outcome, err := f.svc.RunScenario(ctx, scenarioID)
	require.NoError(t, err)

	run := outcome.Run
	require.Positive(t, run.ID)
	assert.Equal(t, scenarioID, run.ScenarioID)
	_, err = time.Parse(time.RFC3339, run.RunAt)
	assert.NoError(t, err, "run_at must be an ISO 8601 UTC stamp")

	// The row mirrors the summary it was derived from
	sum := outcome.Result.Summary
	assert.Equal(t, sum.MonthlyMortgage, run.MonthlyMortgage)
	assert.Equal(t, sum.InitialCashOnCashPercent, run.InitialCoC)
	assert.Equal(t, sum.EndingMonthlyCashFlow, run.EndingMonthlyCF)
	assert.Equal(t, sum.CumulativeCashFlow, run.CumulativeCF)
	assert.Equal(t, sum.TerminalEquity, run.TerminalEquity)
	assert.Nil(t, run.PaybackMonth)

	// Artifact lands on disk as runs/run_<id>.csv
	require.NotNil(t, run.CSVPath)
	assert.True(t, strings.HasSuffix(*run.CSVPath, fmt.Sprintf("run_%d.csv", run.ID)))

	file, err := os.Open(*run.CSVPath)
	require.NoError(t, err)
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 13, "header plus 12 months")
	assert.Equal(t, "date", rows[0][0])

	// The stored row carries the artifact path
	stored, err := f.repo.ListRuns(ctx, scenarioID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.NotNil(t, stored[0].CSVPath)
	assert.Equal(t, *run.CSVPath, *stored[0].CSVPath)
	assert.Equal(t, run.RunAt, stored[0].RunAt)
	assert.Equal(t, run.MonthlyMortgage, stored[0].MonthlyMortgage)
}

func TestRunScenario_MissingScenario(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.RunScenario(context.Background(), 9999)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotFound, errCode(t, err))
}

func TestRunScenario_RejectsStoredParamsThatFailSchema(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	// Storage accepts any document; the schema gate sits in front of the run.
	scenarioID := seedScenario(t, f.repo, `{"purchase_price": 300000}`)

	_, err := f.svc.RunScenario(ctx, scenarioID)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeValidationFailed, errCode(t, err))

	stored, err := f.repo.ListRuns(ctx, scenarioID)
	require.NoError(t, err)
	assert.Empty(t, stored, "a rejected run must not leave a row behind")
}

func TestRunScenario_AppendsHistory(t *testing.T) {
	f := newFixture(t, cache.NewMemory())
	ctx := context.Background()
	scenarioID := seedScenario(t, f.repo, validParams)

	first, err := f.svc.RunScenario(ctx, scenarioID)
	require.NoError(t, err)
	second, err := f.svc.RunScenario(ctx, scenarioID)
	require.NoError(t, err)
	require.NotEqual(t, first.Run.ID, second.Run.ID)

	stored, err := f.repo.ListRuns(ctx, scenarioID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, second.Run.ID, stored[0].ID, "newest run lists first")
	assert.Equal(t, first.Run.ID, stored[1].ID)
}

func TestRunScenario_ExportFailureKeepsRunRow(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	scenarioID := seedScenario(t, f.repo, validParams)

	// A regular file where the runs directory should go makes MkdirAll fail.
	blocked := filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))
	svc := New(f.repo, nil, blocked, 0, logger.NewTestLogger(t))

	_, err := svc.RunScenario(ctx, scenarioID)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeExportFailed, errCode(t, err))

	stored, err := f.repo.ListRuns(ctx, scenarioID)
	require.NoError(t, err)
	require.Len(t, stored, 1, "the run row survives a failed export")
	assert.Nil(t, stored[0].CSVPath)
}

// ==========================
// Sweep Tests
// ==========================

func TestSweep_DelegatesAndObserves(t *testing.T) {
	f := newFixture(t, nil)

	var calls int
	var lastTotal int
	result, err := f.svc.Sweep(context.Background(), referenceConfig(), autosim.DefaultOptions(),
		func(current, total int, row autosim.Row) {
			calls++
			lastTotal = total
		})
	require.NoError(t, err)

	require.Len(t, result.Rows, 10)
	assert.Equal(t, 10, calls, "the metrics wrapper must still chain the caller's observer")
	assert.Equal(t, 25, lastTotal)
	require.NotNil(t, result.BreakEven.DownPaymentPercent)
	assert.InDelta(t, 21.875, *result.BreakEven.DownPaymentPercent, 1e-9)
}

func TestSweep_InvalidRangeMapsToInvalidConfiguration(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Sweep(context.Background(), referenceConfig(),
		autosim.Options{LowerPercent: 50, UpperPercent: 5, Samples: 25}, nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidConfiguration, errCode(t, err))
}

func TestSweepParams_ParsesDocument(t *testing.T) {
	f := newFixture(t, nil)

	result, err := f.svc.SweepParams(context.Background(), json.RawMessage(validParams),
		autosim.DefaultOptions(), nil)
	require.NoError(t, err)

	require.Len(t, result.Rows, 10)
	require.NotNil(t, result.BreakEven.DownPayment)
	assert.InDelta(t, 65625.0, *result.BreakEven.DownPayment, 1e-6)
}

// ==========================
// Scenario Write Tests
// ==========================

func TestCreateScenario_PersistsValidParams(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	propertyID, err := f.repo.UpsertProperty(ctx, &models.Property{Address: "12 Maple Street"})
	require.NoError(t, err)

	id, err := f.svc.CreateScenario(ctx, propertyID, "base case", json.RawMessage(validParams))
	require.NoError(t, err)
	require.Positive(t, id)

	stored, err := f.repo.GetScenario(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.JSONEq(t, validParams, string(stored.Params))
}

func TestCreateScenario_RejectsInvalidParams(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	propertyID, err := f.repo.UpsertProperty(ctx, &models.Property{Address: "12 Maple Street"})
	require.NoError(t, err)

	_, err = f.svc.CreateScenario(ctx, propertyID, "broken", json.RawMessage(`{"purchase_price": -5}`))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeValidationFailed, errCode(t, err))

	stored, err := f.repo.ListScenarios(ctx, propertyID)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestCreateScenario_MissingProperty(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.CreateScenario(context.Background(), 9999, "orphan", json.RawMessage(validParams))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotFound, errCode(t, err))
}

func TestUpdateScenario_ValidatesBeforeWriting(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	scenarioID := seedScenario(t, f.repo, validParams)

	err := f.svc.UpdateScenario(ctx, scenarioID, "tweaked", json.RawMessage(`{"amort_years": "soon"}`))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeValidationFailed, errCode(t, err))

	stored, err := f.repo.GetScenario(ctx, scenarioID)
	require.NoError(t, err)
	assert.Equal(t, "base case", stored.Name, "a rejected update must not touch the row")
	assert.JSONEq(t, validParams, string(stored.Params))
}

func TestUpdateScenario_Missing(t *testing.T) {
	f := newFixture(t, nil)

	err := f.svc.UpdateScenario(context.Background(), 9999, "ghost", json.RawMessage(validParams))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotFound, errCode(t, err))
}
