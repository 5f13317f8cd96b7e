// internal/sim/models.go
package sim

// MonthRecord is one row of the simulated time series. Dates use the
// YYYY-MM-DD layout; the sequence is ordered by MonthIndex from 0.
type MonthRecord struct {
	Date               string  `json:"date"`
	MonthIndex         int     `json:"month_index"`
	EffectiveRent      float64 `json:"effective_rent"`
	Expenses           float64 `json:"expenses"`
	MortgagePayment    float64 `json:"mortgage_payment"`
	Interest           float64 `json:"interest"`
	Principal          float64 `json:"principal"`
	Balance            float64 `json:"balance"`
	MonthlyCashFlow    float64 `json:"monthly_cash_flow"`
	CumulativeCashFlow float64 `json:"cumulative_cash_flow"`
	PropertyValue      float64 `json:"property_value"`
}

// Summary holds the metrics derived once from a full month sequence.
// PaybackMonthOnUpfront is nil when cumulative cash flow never reaches
// the upfront investment within the horizon.
type Summary struct {
	MonthlyMortgage          float64 `json:"monthly_mortgage"`
	InitialCashOnCashPercent float64 `json:"initial_cash_on_cash_percent"`
	EndingMonthlyCashFlow    float64 `json:"ending_monthly_cash_flow"`
	CumulativeCashFlow       float64 `json:"cumulative_cash_flow"`
	TerminalEquity           float64 `json:"terminal_equity"`
	TotalInvestedEst         float64 `json:"total_invested_est"`
	TotalReturnEst           float64 `json:"total_return_est"`
	PaybackMonthOnUpfront    *int    `json:"payback_month_on_upfront"`
}

// Result pairs the time series with its summary.
type Result struct {
	Months  []MonthRecord `json:"months"`
	Summary Summary       `json:"summary"`
}
