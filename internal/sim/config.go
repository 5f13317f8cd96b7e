// internal/sim/config.go
package sim

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// RentalType selects the revenue model.
type RentalType string

const (
	RentalLongTerm  RentalType = "long_term"
	RentalShortTerm RentalType = "short_term"
)

// DefaultStartDate is assumed when a configuration carries no start date.
const DefaultStartDate = "2025-01-01"

var (
	ErrInvalidConfig = errors.New("INVALID_CONFIGURATION")
)

// Config holds the full set of purchase, financing, and rental assumptions
// for one simulation. All percentage fields are on the 0-100 scale.
// Field names are the stable contract with persisted scenario params.
type Config struct {
	PurchasePrice         float64    `json:"purchase_price"`
	DownPaymentPercent    float64    `json:"down_payment_percent"`
	AnnualInterestPercent float64    `json:"annual_interest_percent"`
	AmortYears            int        `json:"amort_years"`
	RentalType            RentalType `json:"rental_type"`

	// Long-term rental revenue
	MonthlyRent              float64 `json:"monthly_rent"`
	RentGrowthPercentPerYear float64 `json:"rent_growth_percent_per_year"`
	VacancyPercent           float64 `json:"vacancy_percent"`

	// Short-term rental revenue
	NightlyRate         float64 `json:"nightly_rate"`
	OccupancyPercent    float64 `json:"occupancy_percent"`
	CleaningFeePerStay  float64 `json:"cleaning_fee_per_stay"`
	AvgStayLengthNights float64 `json:"avg_stay_length_nights"`
	PlatformFeePercent  float64 `json:"platform_fee_percent"`

	// Operating expenses
	TaxPercentOfPricePerYear         float64 `json:"tax_percent_of_price_per_year"`
	InsurancePercentOfPricePerYear   float64 `json:"insurance_percent_of_price_per_year"`
	MaintenancePercentOfPricePerYear float64 `json:"maintenance_percent_of_price_per_year"`
	OtherCostsMonthly                float64 `json:"other_costs_monthly"`

	// Horizon and dynamics
	Years                      int     `json:"years"`
	AppreciationPercentPerYear float64 `json:"appreciation_percent_per_year"`
	ClosingCostsPercentOfPrice float64 `json:"closing_costs_percent_of_price"`
	StartDate                  string  `json:"start_date"`
}

// DefaultConfig returns a Config with every optional assumption at its
// standard value. Purchase price, down payment, interest rate, and
// amortization term have no sensible default and stay zero.
func DefaultConfig() Config {
	return Config{
		RentalType:                       RentalLongTerm,
		RentGrowthPercentPerYear:         2.0,
		VacancyPercent:                   5.0,
		OccupancyPercent:                 65.0,
		CleaningFeePerStay:               100.0,
		AvgStayLengthNights:              3.0,
		PlatformFeePercent:               15.0,
		TaxPercentOfPricePerYear:         1.2,
		InsurancePercentOfPricePerYear:   0.6,
		MaintenancePercentOfPricePerYear: 1.0,
		Years:                            20,
		AppreciationPercentPerYear:       3.0,
		ClosingCostsPercentOfPrice:       2.0,
		StartDate:                        DefaultStartDate,
	}
}

// ParseConfig decodes a params document on top of the defaults, so absent
// fields behave like the interactive tool's defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Validate rejects configurations the engine must never run.
func (c Config) Validate() error {
	if c.PurchasePrice <= 0 {
		return fmt.Errorf("%w: purchase_price must be positive, got %v", ErrInvalidConfig, c.PurchasePrice)
	}
	if c.AmortYears <= 0 {
		return fmt.Errorf("%w: amort_years must be positive, got %d", ErrInvalidConfig, c.AmortYears)
	}
	if c.Years <= 0 {
		return fmt.Errorf("%w: years must be positive, got %d", ErrInvalidConfig, c.Years)
	}
	switch c.RentalType {
	case RentalLongTerm, RentalShortTerm:
	default:
		return fmt.Errorf("%w: unrecognized rental_type %q", ErrInvalidConfig, c.RentalType)
	}
	if _, err := c.startTime(); err != nil {
		return fmt.Errorf("%w: start_date %q: %v", ErrInvalidConfig, c.StartDate, err)
	}
	return nil
}

// WithDownPaymentPercent returns a copy with only the down payment replaced.
// The receiver is never mutated; sweep variants rely on this.
func (c Config) WithDownPaymentPercent(pct float64) Config {
	c.DownPaymentPercent = pct
	return c
}

// Hash returns a stable key for caching results of an identical config.
func (c Config) Hash() string {
	data, _ := json.Marshal(c)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (c Config) startTime() (time.Time, error) {
	s := c.StartDate
	if s == "" {
		s = DefaultStartDate
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// --- Derived quantities ---

func pctToDec(p float64) float64 {
	return p / 100.0
}

func clampNonNegative(x float64) float64 {
	return math.Max(0, x)
}

func (c Config) ClosingCosts() float64 {
	return c.PurchasePrice * pctToDec(c.ClosingCostsPercentOfPrice)
}

func (c Config) DownPayment() float64 {
	return c.PurchasePrice * pctToDec(c.DownPaymentPercent)
}

func (c Config) LoanAmount() float64 {
	return clampNonNegative(c.PurchasePrice - c.DownPayment())
}

func (c Config) TotalUpfront() float64 {
	return c.DownPayment() + c.ClosingCosts()
}

func (c Config) TaxYearly() float64 {
	return c.PurchasePrice * pctToDec(c.TaxPercentOfPricePerYear)
}

func (c Config) InsuranceYearly() float64 {
	return c.PurchasePrice * pctToDec(c.InsurancePercentOfPricePerYear)
}

func (c Config) MaintenanceYearly() float64 {
	return c.PurchasePrice * pctToDec(c.MaintenancePercentOfPricePerYear)
}

func (c Config) MonthlyRate() float64 {
	return pctToDec(c.AnnualInterestPercent) / 12.0
}

func (c Config) TotalMonths() int {
	return c.Years * 12
}

// MonthlyMortgage is the fixed fully-amortizing payment (PMT) for the
// initial loan amount. Held constant for the life of the loan.
func (c Config) MonthlyMortgage() float64 {
	L := c.LoanAmount()
	r := c.MonthlyRate()
	n := float64(c.AmortYears * 12)
	if r == 0 {
		return L / n
	}
	return L * (r * math.Pow(1+r, n)) / (math.Pow(1+r, n) - 1)
}

// monthlyRevenue converts a base rate (monthly rent or nightly rate,
// possibly escalated) into effective monthly revenue for the rental type.
func (c Config) monthlyRevenue(baseRate float64) float64 {
	if c.RentalType == RentalShortTerm {
		const daysPerMonth = 30.0
		occupiedDays := daysPerMonth * pctToDec(c.OccupancyPercent)
		numStays := occupiedDays / c.AvgStayLengthNights

		gross := baseRate*occupiedDays + c.CleaningFeePerStay*numStays
		return gross * (1 - pctToDec(c.PlatformFeePercent))
	}
	return baseRate * (1 - pctToDec(c.VacancyPercent))
}

// initialBaseRate is the month-0 revenue driver before any escalation.
func (c Config) initialBaseRate() float64 {
	if c.RentalType == RentalShortTerm {
		return c.NightlyRate
	}
	return c.MonthlyRent
}

// InitialCashOnCashPercent is year-one NOI over total upfront cash, before
// debt service, computed from the configuration alone.
func (c Config) InitialCashOnCashPercent() float64 {
	effRentYear1 := c.monthlyRevenue(c.initialBaseRate()) * 12
	expensesYear1 := c.TaxYearly() + c.InsuranceYearly() + c.MaintenanceYearly() + c.OtherCostsMonthly*12
	noiYear1 := effRentYear1 - expensesYear1

	upfront := c.TotalUpfront()
	if upfront == 0 {
		return 0
	}
	return noiYear1 / upfront * 100.0
}
