// internal/sim/config_test.go
package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig_AppliesDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{
		"purchase_price": 300000,
		"down_payment_percent": 20,
		"annual_interest_percent": 5,
		"amort_years": 25,
		"monthly_rent": 2200
	}`))
	require.NoError(t, err)

	assert.Equal(t, RentalLongTerm, cfg.RentalType)
	assert.Equal(t, 20, cfg.Years)
	assert.InDelta(t, 5.0, cfg.VacancyPercent, 1e-9)
	assert.InDelta(t, 2.0, cfg.RentGrowthPercentPerYear, 1e-9)
	assert.InDelta(t, 2.0, cfg.ClosingCostsPercentOfPrice, 1e-9)
	assert.Equal(t, DefaultStartDate, cfg.StartDate)
}

func TestParseConfig_OverridesDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{
		"purchase_price": 450000,
		"down_payment_percent": 10,
		"annual_interest_percent": 4.5,
		"amort_years": 30,
		"rental_type": "short_term",
		"nightly_rate": 180,
		"occupancy_percent": 70,
		"years": 15,
		"start_date": "2026-06-01"
	}`))
	require.NoError(t, err)

	assert.Equal(t, RentalShortTerm, cfg.RentalType)
	assert.Equal(t, 15, cfg.Years)
	assert.InDelta(t, 70.0, cfg.OccupancyPercent, 1e-9)
	assert.Equal(t, "2026-06-01", cfg.StartDate)
	// Untouched defaults survive
	assert.InDelta(t, 100.0, cfg.CleaningFeePerStay, 1e-9)
	assert.InDelta(t, 15.0, cfg.PlatformFeePercent, 1e-9)
}

func TestParseConfig_RejectsMalformedJSON(t *testing.T) {
	_, err := ParseConfig([]byte(`{"purchase_price": `))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfig_DerivedQuantities(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PurchasePrice = 300000
	cfg.DownPaymentPercent = 20
	cfg.AnnualInterestPercent = 5.0
	cfg.AmortYears = 25

	assert.InDelta(t, 60000, cfg.DownPayment(), 1e-9)
	assert.InDelta(t, 6000, cfg.ClosingCosts(), 1e-9)
	assert.InDelta(t, 240000, cfg.LoanAmount(), 1e-9)
	assert.InDelta(t, 66000, cfg.TotalUpfront(), 1e-9)
	assert.InDelta(t, 3600, cfg.TaxYearly(), 1e-9)
	assert.InDelta(t, 1800, cfg.InsuranceYearly(), 1e-9)
	assert.InDelta(t, 3000, cfg.MaintenanceYearly(), 1e-9)
	assert.InDelta(t, 0.05/12, cfg.MonthlyRate(), 1e-12)
	assert.Equal(t, 240, cfg.TotalMonths())
}

func TestConfig_MonthlyMortgage_ZeroRate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PurchasePrice = 150000
	cfg.DownPaymentPercent = 20
	cfg.AnnualInterestPercent = 0
	cfg.AmortYears = 10

	// 120000 over 120 months with no interest
	assert.InDelta(t, 1000.0, cfg.MonthlyMortgage(), 1e-9)
}

func TestConfig_DownPaymentAboveFullPrice(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PurchasePrice = 100000
	cfg.DownPaymentPercent = 120
	cfg.AnnualInterestPercent = 5
	cfg.AmortYears = 25

	// Loan amount floors at zero rather than going negative
	assert.Zero(t, cfg.LoanAmount())
}

func TestConfig_WithDownPaymentPercent_DoesNotMutate(t *testing.T) {
	base := DefaultConfig()
	base.PurchasePrice = 300000
	base.DownPaymentPercent = 20
	base.AnnualInterestPercent = 5
	base.AmortYears = 25

	variant := base.WithDownPaymentPercent(35)

	assert.InDelta(t, 35.0, variant.DownPaymentPercent, 1e-9)
	assert.InDelta(t, 20.0, base.DownPaymentPercent, 1e-9)
	// Everything else carries over
	variant.DownPaymentPercent = base.DownPaymentPercent
	assert.Equal(t, base, variant)
}

func TestConfig_Hash(t *testing.T) {
	a := exampleConfig()
	b := exampleConfig()
	require.Equal(t, a.Hash(), b.Hash())

	c := a.WithDownPaymentPercent(25)
	assert.NotEqual(t, a.Hash(), c.Hash())
}
