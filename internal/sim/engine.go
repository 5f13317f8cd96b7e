// internal/sim/engine.go
package sim

import (
	"fmt"
	"math"
	"time"

	"propsim/internal/common/logger"
)

// Engine runs one configuration to a month-by-month series plus summary.
// The result is memoized on the engine; repeated Run calls are free.
type Engine struct {
	cfg    Config
	logger logger.Logger

	result *Result
}

// New validates the configuration and builds an engine for it. A nil
// logger is replaced with a no-op one.
func New(cfg Config, log logger.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Engine{
		cfg: cfg,
		logger: log.WithFields(map[string]interface{}{
			"component": "sim-engine",
		}),
	}, nil
}

// Config returns the engine's immutable configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Run produces the deterministic series of Years*12 MonthRecords and the
// derived Summary. The engine is single-use state: the first call computes,
// later calls return the cached result.
func (e *Engine) Run() (*Result, error) {
	if e.result != nil {
		return e.result, nil
	}

	date, err := e.cfg.startTime()
	if err != nil {
		return nil, fmt.Errorf("%w: start_date %q: %v", ErrInvalidConfig, e.cfg.StartDate, err)
	}

	months := e.cfg.TotalMonths()
	currentPrice := e.cfg.PurchasePrice
	balance := e.cfg.LoanAmount()
	payment := e.cfg.MonthlyMortgage()
	monthlyRate := e.cfg.MonthlyRate()

	monthlyTax := e.cfg.TaxYearly() / 12.0
	monthlyIns := e.cfg.InsuranceYearly() / 12.0
	monthlyMaint := e.cfg.MaintenanceYearly() / 12.0

	baseRate := e.cfg.initialBaseRate()
	rentGrowth := pctToDec(e.cfg.RentGrowthPercentPerYear)
	appreciation := pctToDec(e.cfg.AppreciationPercentPerYear)

	records := make([]MonthRecord, 0, months)
	cumulativeCF := 0.0

	for m := 0; m < months; m++ {
		// Annual bumps at the start of each new year after month 0.
		// Tax, insurance, and maintenance track the appreciated price;
		// other_costs_monthly stays flat.
		if m > 0 && m%12 == 0 {
			baseRate *= 1 + rentGrowth
			currentPrice *= 1 + appreciation
			monthlyTax = currentPrice * pctToDec(e.cfg.TaxPercentOfPricePerYear) / 12.0
			monthlyIns = currentPrice * pctToDec(e.cfg.InsurancePercentOfPricePerYear) / 12.0
			monthlyMaint = currentPrice * pctToDec(e.cfg.MaintenancePercentOfPricePerYear) / 12.0
		}

		effRent := e.cfg.monthlyRevenue(baseRate)

		// Mortgage split. The clamps keep the final partial payment from
		// pushing the balance below zero.
		interest := balance * monthlyRate
		principal := clampNonNegative(math.Min(payment-interest, balance))
		balance = clampNonNegative(balance - principal)

		expenses := monthlyTax + monthlyIns + monthlyMaint + e.cfg.OtherCostsMonthly

		monthlyCF := effRent - expenses - payment
		cumulativeCF += monthlyCF

		records = append(records, MonthRecord{
			Date:               date.Format("2006-01-02"),
			MonthIndex:         m,
			EffectiveRent:      effRent,
			Expenses:           expenses,
			MortgagePayment:    payment,
			Interest:           interest,
			Principal:          principal,
			Balance:            balance,
			MonthlyCashFlow:    monthlyCF,
			CumulativeCashFlow: cumulativeCF,
			PropertyValue:      currentPrice,
		})

		date = addMonths(date, 1)

		// The payoff month still records its full payment; every month
		// after it carries none while the horizon runs out.
		if balance <= 0 {
			payment = 0
		}
	}

	summary := e.summarize(records, currentPrice, balance, cumulativeCF)
	e.result = &Result{Months: records, Summary: summary}

	e.logger.Debug("simulation complete", map[string]interface{}{
		"months":             months,
		"rentalType":         string(e.cfg.RentalType),
		"endingBalance":      balance,
		"cumulativeCashFlow": cumulativeCF,
	})

	return e.result, nil
}

func (e *Engine) summarize(records []MonthRecord, finalPrice, finalBalance, cumulativeCF float64) Summary {
	upfront := e.cfg.TotalUpfront()

	// Any overall shortfall counts as additional capital invested
	negCF := math.Min(0, cumulativeCF)
	totalInvested := upfront + math.Abs(negCF)

	terminalEquity := finalPrice - finalBalance
	totalReturn := terminalEquity - (e.cfg.PurchasePrice - e.cfg.DownPayment()) + cumulativeCF

	// Payback is measured against the upfront investment, not zero
	var payback *int
	if records[0].CumulativeCashFlow >= 0 {
		zero := 0
		payback = &zero
	} else {
		for i := range records {
			if records[i].CumulativeCashFlow >= upfront {
				idx := i
				payback = &idx
				break
			}
		}
	}

	last := records[len(records)-1]
	return Summary{
		MonthlyMortgage:          e.cfg.MonthlyMortgage(),
		InitialCashOnCashPercent: e.cfg.InitialCashOnCashPercent(),
		EndingMonthlyCashFlow:    last.MonthlyCashFlow,
		CumulativeCashFlow:       last.CumulativeCashFlow,
		TerminalEquity:           terminalEquity,
		TotalInvestedEst:         totalInvested,
		TotalReturnEst:           totalReturn,
		PaybackMonthOnUpfront:    payback,
	}
}

// addMonths advances by calendar months, clamping the day to the target
// month's length: Jan 31 + 1 month is Feb 28, not Mar 3. Go's AddDate
// normalizes overflow instead, which would drift the schedule.
func addMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d, 0, 0, 0, 0, t.Location())
}
