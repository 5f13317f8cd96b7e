// internal/models/run.go
package models

// Run is a persisted simulation outcome: the summary metrics at the moment
// the scenario was executed, plus an optional path to the exported month
// series. PaybackMonth is nil when cumulative cash flow never covered the
// upfront investment.
type Run struct {
	ID               int64   `json:"id"`
	ScenarioID       int64   `json:"scenario_id"`
	RunAt            string  `json:"run_at"`
	MonthlyMortgage  float64 `json:"monthly_mortgage"`
	InitialCoC       float64 `json:"initial_coc"`
	EndingMonthlyCF  float64 `json:"ending_monthly_cf"`
	CumulativeCF     float64 `json:"cumulative_cf"`
	TerminalEquity   float64 `json:"terminal_equity"`
	TotalInvestedEst float64 `json:"total_invested_est"`
	TotalReturnEst   float64 `json:"total_return_est"`
	PaybackMonth     *int    `json:"payback_month"`
	CSVPath          *string `json:"csv_path"`
}
