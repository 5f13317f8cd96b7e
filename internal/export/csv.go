// internal/export/csv.go
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"propsim/internal/autosim"
	"propsim/internal/sim"
)

// monthSeriesHeader is the stable column contract for exported month series.
// Order matters; downstream spreadsheets key on these names.
var monthSeriesHeader = []string{
	"date", "month_index", "effective_rent", "expenses", "mortgage_payment",
	"interest", "principal", "balance", "monthly_cash_flow",
	"cumulative_cash_flow", "property_value",
}

var sweepHeader = []string{
	"down_payment_percentage", "down_payment", "monthly_cash_flow",
	"effective_rent", "monthly_expenses", "monthly_mortgage",
	"initial_coc_percent", "cumulative_cf", "terminal_equity",
}

// money formats dollar (and percent) amounts with two decimals.
func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// WriteMonthSeries streams the simulated month series as CSV.
func WriteMonthSeries(w io.Writer, records []sim.MonthRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(monthSeriesHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.Date,
			strconv.Itoa(rec.MonthIndex),
			money(rec.EffectiveRent),
			money(rec.Expenses),
			money(rec.MortgagePayment),
			money(rec.Interest),
			money(rec.Principal),
			money(rec.Balance),
			money(rec.MonthlyCashFlow),
			money(rec.CumulativeCashFlow),
			money(rec.PropertyValue),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write month %d: %w", rec.MonthIndex, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSweep streams evaluated down-payment samples as CSV, one row per
// percentage in evaluation order.
func WriteSweep(w io.Writer, rows []autosim.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(sweepHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range rows {
		row := []string{
			money(r.DownPaymentPercentage),
			money(r.DownPayment),
			money(r.MonthlyCashFlow),
			money(r.EffectiveRent),
			money(r.MonthlyExpenses),
			money(r.MonthlyMortgage),
			money(r.InitialCoCPercent),
			money(r.CumulativeCF),
			money(r.TerminalEquity),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write sample %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// RunArtifact materializes the month series as run_<id>.csv under dir,
// creating dir if needed, and returns the written path.
func RunArtifact(dir string, runID int64, records []sim.MonthRecord) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create runs dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("run_%d.csv", runID))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create artifact: %w", err)
	}
	if err := WriteMonthSeries(f, records); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close artifact: %w", err)
	}
	return path, nil
}
