package valuation

import "github.com/etnz/valuation/date"

// StatusRow is the last known state of one security.
type StatusRow struct {
	Name string
	SecurityState
}

// StatusReport is the state of every security on the last day.
type StatusReport struct {
	Date     date.Date
	Currency string
	Rows     []StatusRow
}

// NewStatusReport returns the status of every security on the last day of v.
func NewStatusReport(v *Valuation) *StatusReport {
	r := &StatusReport{Currency: v.Currency}
	last, ok := v.Last()
	if !ok {
		return r
	}
	r.Date = last.Date
	for i, s := range v.Securities {
		r.Rows = append(r.Rows, StatusRow{Name: s.Name(), SecurityState: last.Securities[i]})
	}
	return r
}

// PerformanceReport is the portfolio state on the last day of the analysis period.
type PerformanceReport struct {
	Range    date.Range
	Currency string
	PortfolioState
	MaxDrawdown Percent // deepest drawdown over the period
}

// NewPerformanceReport summarizes v.
func NewPerformanceReport(v *Valuation) *PerformanceReport {
	r := &PerformanceReport{Range: v.Range(), Currency: v.Currency}
	last, ok := v.Last()
	if !ok {
		return r
	}
	r.PortfolioState = last.Portfolio
	for _, d := range v.Days {
		if p := d.Portfolio.DrawdownPercent(); p < r.MaxDrawdown {
			r.MaxDrawdown = p
		}
	}
	return r
}

// SecuritySeries is the daily history of one security.
type SecuritySeries struct {
	Name   string
	Dates  []date.Date
	States []SecurityState
}

// Series returns the daily history of a security.
func (v *Valuation) Series(name string) (*SecuritySeries, bool) {
	i, ok := v.Index(name)
	if !ok {
		return nil, false
	}
	s := &SecuritySeries{Name: name, Dates: make([]date.Date, 0, len(v.Days)), States: make([]SecurityState, 0, len(v.Days))}
	for _, d := range v.Days {
		s.Dates = append(s.Dates, d.Date)
		s.States = append(s.States, d.Securities[i])
	}
	return s, true
}
