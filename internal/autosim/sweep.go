// internal/autosim/sweep.go
package autosim

import (
	"errors"
	"fmt"

	"propsim/internal/common/logger"
	"propsim/internal/sim"
)

var (
	ErrInvalidRange = errors.New("INVALID_SWEEP_RANGE")
)

// Options bound the down-payment percentage range and sample count.
type Options struct {
	LowerPercent float64 `json:"lower_percent"`
	UpperPercent float64 `json:"upper_percent"`
	Samples      int     `json:"samples"`
}

// DefaultOptions mirrors the interactive tool's search range.
func DefaultOptions() Options {
	return Options{LowerPercent: 5, UpperPercent: 50, Samples: 25}
}

func (o Options) Validate() error {
	if o.LowerPercent >= o.UpperPercent {
		return fmt.Errorf("%w: lower bound %.2f must be below upper bound %.2f",
			ErrInvalidRange, o.LowerPercent, o.UpperPercent)
	}
	if o.Samples < 2 {
		return fmt.Errorf("%w: need at least 2 samples, got %d", ErrInvalidRange, o.Samples)
	}
	return nil
}

// Row is one evaluated down-payment percentage. Rent, expenses, mortgage,
// and cash flow come from the first simulated month; the remaining metrics
// from the run's summary.
type Row struct {
	DownPaymentPercentage float64 `json:"down_payment_percentage"`
	DownPayment           float64 `json:"down_payment"`
	MonthlyCashFlow       float64 `json:"monthly_cash_flow"`
	EffectiveRent         float64 `json:"effective_rent"`
	MonthlyExpenses       float64 `json:"monthly_expenses"`
	MonthlyMortgage       float64 `json:"monthly_mortgage"`
	InitialCoCPercent     float64 `json:"initial_coc_percent"`
	CumulativeCF          float64 `json:"cumulative_cf"`
	TerminalEquity        float64 `json:"terminal_equity"`
}

// BreakEven is the first sampled point with positive monthly cash flow.
// Both fields are nil when no sampled percentage produced one.
type BreakEven struct {
	DownPayment        *float64 `json:"down_payment"`
	DownPaymentPercent *float64 `json:"down_payment_percent"`
}

// Result is the ordered sweep output.
type Result struct {
	Rows      []Row     `json:"rows"`
	BreakEven BreakEven `json:"break_even"`
}

// Progress observes each evaluated sample. current starts at 1; total is
// the requested sample count, not the number actually evaluated. Invoked
// synchronously and must not affect computed results.
type Progress func(current, total int, row Row)

// Sweeper evaluates a reference configuration across down-payment
// percentages to find the cheapest entry with positive cash flow.
type Sweeper struct {
	base   sim.Config
	logger logger.Logger
}

// New validates the reference configuration and builds a sweeper around it.
func New(base sim.Config, log logger.Logger) (*Sweeper, error) {
	if err := base.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Sweeper{
		base: base,
		logger: log.WithFields(map[string]interface{}{
			"component": "autosim",
		}),
	}, nil
}

// DownPaymentForCashFlow evaluates the engine at Samples evenly spaced
// percentages across [Lower, Upper], ascending, stopping at the first
// sample whose first-month cash flow is positive. Percentages beyond the
// stop point are never evaluated. The reference configuration is cloned
// per sample, never mutated.
func (s *Sweeper) DownPaymentForCashFlow(opts Options, progress Progress) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	step := (opts.UpperPercent - opts.LowerPercent) / float64(opts.Samples-1)
	rows := make([]Row, 0, opts.Samples)

	for i := 0; i < opts.Samples; i++ {
		pct := opts.LowerPercent + step*float64(i)
		if i == opts.Samples-1 {
			pct = opts.UpperPercent
		}

		variant := s.base.WithDownPaymentPercent(pct)
		engine, err := sim.New(variant, s.logger)
		if err != nil {
			return nil, err
		}
		result, err := engine.Run()
		if err != nil {
			return nil, err
		}

		first := result.Months[0]
		row := Row{
			DownPaymentPercentage: pct,
			DownPayment:           variant.DownPayment(),
			MonthlyCashFlow:       first.MonthlyCashFlow,
			EffectiveRent:         first.EffectiveRent,
			MonthlyExpenses:       first.Expenses,
			MonthlyMortgage:       first.MortgagePayment,
			InitialCoCPercent:     result.Summary.InitialCashOnCashPercent,
			CumulativeCF:          result.Summary.CumulativeCashFlow,
			TerminalEquity:        result.Summary.TerminalEquity,
		}
		rows = append(rows, row)

		if progress != nil {
			progress(i+1, opts.Samples, row)
		}

		// Early exit: higher percentages only widen the margin
		if row.MonthlyCashFlow > 0 {
			break
		}
	}

	out := &Result{Rows: rows, BreakEven: findBreakEven(rows)}

	fields := map[string]interface{}{
		"samplesRequested": opts.Samples,
		"samplesEvaluated": len(rows),
	}
	if out.BreakEven.DownPaymentPercent != nil {
		fields["breakEvenPercent"] = *out.BreakEven.DownPaymentPercent
	}
	s.logger.Info("down-payment sweep complete", fields)

	return out, nil
}

// findBreakEven scans rows in ascending percentage order and picks the
// first with positive monthly cash flow.
func findBreakEven(rows []Row) BreakEven {
	for _, row := range rows {
		if row.MonthlyCashFlow > 0 {
			amount := row.DownPayment
			pct := row.DownPaymentPercentage
			return BreakEven{DownPayment: &amount, DownPaymentPercent: &pct}
		}
	}
	return BreakEven{}
}
