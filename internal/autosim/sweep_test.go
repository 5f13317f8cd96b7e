// internal/autosim/sweep_test.go
package autosim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propsim/internal/common/logger"
	"propsim/internal/sim"
)

// ==========================
// Test Helpers
// ==========================

// baseConfig is the reference property: $300k at 5% over 25 years with
// $2,200 rent. With default costs the monthly expenses are $700 and the
// vacancy-adjusted rent is $2,090.
func baseConfig() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.PurchasePrice = 300000
	cfg.DownPaymentPercent = 20
	cfg.AnnualInterestPercent = 5.0
	cfg.AmortYears = 25
	cfg.MonthlyRent = 2200
	return cfg
}

func mustSweep(t *testing.T, cfg sim.Config, opts Options, progress Progress) *Result {
	t.Helper()
	sweeper, err := New(cfg, logger.NewNoOpLogger())
	require.NoError(t, err)
	result, err := sweeper.DownPaymentForCashFlow(opts, progress)
	require.NoError(t, err)
	return result
}

// ==========================
// Sweep Tests
// ==========================

func TestSweep_FindsBreakEven(t *testing.T) {
	// 5% to 50% in 25 samples steps by 1.875 points. The payment factor
	// for 5%/25y is ~0.0058459 per borrowed dollar, so cash flow first
	// turns positive at 21.875% down: loan 234,375 -> payment ~1,370.13
	// -> 2,090 - 700 - 1,370.13 = +19.87. One step earlier (20%) is
	// still -13.02.
	result := mustSweep(t, baseConfig(), DefaultOptions(), nil)

	require.Len(t, result.Rows, 10)

	last := result.Rows[len(result.Rows)-1]
	assert.InDelta(t, 21.875, last.DownPaymentPercentage, 1e-9)
	assert.InDelta(t, 65625.0, last.DownPayment, 1e-6)
	assert.Greater(t, last.MonthlyCashFlow, 0.0)

	for _, row := range result.Rows[:len(result.Rows)-1] {
		assert.Negative(t, row.MonthlyCashFlow,
			"every row before the stop point should lose money")
	}

	require.NotNil(t, result.BreakEven.DownPaymentPercent)
	require.NotNil(t, result.BreakEven.DownPayment)
	assert.InDelta(t, 21.875, *result.BreakEven.DownPaymentPercent, 1e-9)
	assert.InDelta(t, 65625.0, *result.BreakEven.DownPayment, 1e-6)
}

func TestSweep_RowsAscendEvenly(t *testing.T) {
	result := mustSweep(t, baseConfig(), DefaultOptions(), nil)

	for i := 1; i < len(result.Rows); i++ {
		prev, cur := result.Rows[i-1], result.Rows[i]
		assert.InDelta(t, 1.875, cur.DownPaymentPercentage-prev.DownPaymentPercentage, 1e-9)
		// More money down means a smaller loan and a smaller payment
		assert.Less(t, cur.MonthlyMortgage, prev.MonthlyMortgage)
		assert.Greater(t, cur.MonthlyCashFlow, prev.MonthlyCashFlow)
	}
}

func TestSweep_NoBreakEvenInRange(t *testing.T) {
	// $900 rent nets $855; even an all-range-max 50% down leaves a
	// $876.89 payment, so cash flow never turns positive.
	cfg := baseConfig()
	cfg.MonthlyRent = 900

	result := mustSweep(t, cfg, DefaultOptions(), nil)

	require.Len(t, result.Rows, 25, "no early exit without a positive sample")
	for _, row := range result.Rows {
		assert.Negative(t, row.MonthlyCashFlow)
	}
	assert.Nil(t, result.BreakEven.DownPayment)
	assert.Nil(t, result.BreakEven.DownPaymentPercent)

	// The final sample must land exactly on the upper bound
	last := result.Rows[len(result.Rows)-1]
	assert.Equal(t, 50.0, last.DownPaymentPercentage)
}

func TestSweep_FirstSamplePositive(t *testing.T) {
	// $3,000 rent nets $2,850; at only 5% down the payment is ~$1,666,
	// so the very first sample already cash-flows.
	cfg := baseConfig()
	cfg.MonthlyRent = 3000

	result := mustSweep(t, cfg, DefaultOptions(), nil)

	require.Len(t, result.Rows, 1)
	assert.InDelta(t, 5.0, result.Rows[0].DownPaymentPercentage, 1e-9)
	require.NotNil(t, result.BreakEven.DownPaymentPercent)
	assert.InDelta(t, 5.0, *result.BreakEven.DownPaymentPercent, 1e-9)
	assert.InDelta(t, 15000.0, *result.BreakEven.DownPayment, 1e-6)
}

func TestSweep_ProgressObserverSeesEverySample(t *testing.T) {
	type call struct {
		current int
		total   int
		row     Row
	}
	var calls []call

	result := mustSweep(t, baseConfig(), DefaultOptions(), func(current, total int, row Row) {
		calls = append(calls, call{current: current, total: total, row: row})
	})

	require.Len(t, calls, len(result.Rows),
		"observer fires once per evaluated sample, including the stop sample")
	for i, c := range calls {
		assert.Equal(t, i+1, c.current)
		assert.Equal(t, 25, c.total, "total reports the requested count, not the evaluated count")
		assert.Equal(t, result.Rows[i], c.row)
	}
}

func TestSweep_RowCarriesSummaryMetrics(t *testing.T) {
	result := mustSweep(t, baseConfig(), DefaultOptions(), nil)

	// Spot-check one row against a direct engine run at that percentage
	row := result.Rows[3]
	engine, err := sim.New(baseConfig().WithDownPaymentPercent(row.DownPaymentPercentage), logger.NewNoOpLogger())
	require.NoError(t, err)
	direct, err := engine.Run()
	require.NoError(t, err)

	assert.Equal(t, direct.Months[0].MonthlyCashFlow, row.MonthlyCashFlow)
	assert.Equal(t, direct.Months[0].EffectiveRent, row.EffectiveRent)
	assert.Equal(t, direct.Months[0].Expenses, row.MonthlyExpenses)
	assert.Equal(t, direct.Months[0].MortgagePayment, row.MonthlyMortgage)
	assert.Equal(t, direct.Summary.InitialCashOnCashPercent, row.InitialCoCPercent)
	assert.Equal(t, direct.Summary.CumulativeCashFlow, row.CumulativeCF)
	assert.Equal(t, direct.Summary.TerminalEquity, row.TerminalEquity)
}

func TestSweep_DoesNotMutateBaseConfig(t *testing.T) {
	cfg := baseConfig()
	sweeper, err := New(cfg, logger.NewNoOpLogger())
	require.NoError(t, err)

	_, err = sweeper.DownPaymentForCashFlow(DefaultOptions(), nil)
	require.NoError(t, err)

	assert.Equal(t, 20.0, cfg.DownPaymentPercent)
}

func TestSweep_RejectsInvalidOptions(t *testing.T) {
	testCases := []struct {
		name string
		opts Options
	}{
		{
			name: "lower equals upper",
			opts: Options{LowerPercent: 10, UpperPercent: 10, Samples: 5},
		},
		{
			name: "lower above upper",
			opts: Options{LowerPercent: 30, UpperPercent: 10, Samples: 5},
		},
		{
			name: "single sample",
			opts: Options{LowerPercent: 5, UpperPercent: 50, Samples: 1},
		},
		{
			name: "zero samples",
			opts: Options{LowerPercent: 5, UpperPercent: 50, Samples: 0},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sweeper, err := New(baseConfig(), logger.NewNoOpLogger())
			require.NoError(t, err)

			_, err = sweeper.DownPaymentForCashFlow(tc.opts, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidRange)
		})
	}
}

func TestSweep_RejectsInvalidBaseConfig(t *testing.T) {
	cfg := baseConfig()
	cfg.PurchasePrice = 0

	_, err := New(cfg, logger.NewNoOpLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, sim.ErrInvalidConfig)
}
