package valuation

import (
	"fmt"
	"slices"

	"github.com/etnz/valuation/date"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// SecurityState is the state of one security at the end of a day, in the
// reporting currency.
type SecurityState struct {
	Count     Quantity // running count of units
	Price     Money    // unit price, zero while the security is not yet priced
	Value     Money    // Count × Price
	CostBasis Money    // running sum of payments and fees of the buys
	Profit    Money    // Value - CostBasis
}

// ProfitPercent returns the profit relative to the cost basis, 0 without cost basis.
func (s SecurityState) ProfitPercent() Percent {
	return PercentOf(s.Profit.Decimal(), s.CostBasis.Decimal())
}

// PortfolioState aggregates all securities at the end of a day.
type PortfolioState struct {
	Value   Money
	Expense Money // running sum of every payment and fee
	Profit  Money // Value - Expense
	// Drawdown is (Value - max Value so far) / max Value so far, a fraction
	// in (-1, 0]. It is 0 as long as no value was ever positive.
	Drawdown decimal.Decimal
}

// ProfitPercent returns the profit relative to the expense, 0 without expense.
func (p PortfolioState) ProfitPercent() Percent {
	return PercentOf(p.Profit.Decimal(), p.Expense.Decimal())
}

// DrawdownPercent returns the drawdown as a percentage.
func (p PortfolioState) DrawdownPercent() Percent {
	return Percent(p.Drawdown.Mul(hundred).InexactFloat64())
}

// Day is one row of the daily series.
type Day struct {
	Date       date.Date
	Securities []SecurityState // indexed like Valuation.Securities
	Portfolio  PortfolioState
}

// Valuation is the daily state of the portfolio, one Day per calendar day.
type Valuation struct {
	Currency   string
	Securities []*Security
	Days       []Day
}

// Valuate computes the daily state of every security of u and of the whole
// portfolio from the native market data and the raw ledger.
//
// The series starts on the first transaction date and ends on the last priced
// date (or the last transaction if it is later). Transactions before the first
// transaction date are ignored. Transactions without security only add to the
// portfolio expense.
func Valuate(u *Universe, m *MarketData, txs []Transaction, log logrus.FieldLogger) (*Valuation, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	first := u.FirstTransactionDate

	// keep the transactions in scope, and check they can be valued.
	ledger := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Date.Before(first) {
			log.WithFields(logrus.Fields{"security": tx.Security, "date": tx.Date, "source": tx.Source}).
				Info("transaction before the first transaction date ignored")
			continue
		}
		if tx.Security == "" {
			// portfolio expense only, like a custody fee.
			ledger = append(ledger, tx)
			continue
		}
		sec, ok := u.Security(tx.Security)
		if !ok {
			return nil, NewError(StageValuation, tx.Security, fmt.Errorf("%w in %s", ErrUnknownSecurity, tx.Source))
		}
		native, ok := m.Prices(sec.Symbol())
		if !ok {
			return nil, NewError(StageValuation, tx.Security, fmt.Errorf("%w: no price at all", ErrTransactionBeforePrice))
		}
		if start, _, _ := native.First(); tx.Date.Before(start) {
			return nil, NewError(StageValuation, tx.Security, fmt.Errorf("%w: %s on %s, first price on %s", ErrTransactionBeforePrice, tx.Source, tx.Date, start))
		}
		ledger = append(ledger, tx)
	}
	SortTransactions(ledger)

	// price span and calendar.
	var span date.Range
	priced := false
	for _, sec := range u.Securities {
		native, ok := m.Prices(sec.Symbol())
		if !ok {
			continue
		}
		from, _, _ := native.First()
		to, _ := native.Latest()
		if !priced || from.Before(span.From) {
			span.From = from
		}
		if !priced || to.After(span.To) {
			span.To = to
		}
		priced = true
	}
	if !priced || span.To.Before(first) {
		return nil, NewError(StageValuation, first.String(), fmt.Errorf("%w on or after the first transaction date", ErrNoPrices))
	}
	calendar := date.Range{From: first, To: span.To}
	if n := len(ledger); n > 0 && ledger[n-1].Date.After(calendar.To) {
		calendar.To = ledger[n-1].Date
	}

	rates := NewExchangeRateTable(u.Currency, span, m.rates)
	needed := u.Currencies()
	for _, tx := range ledger {
		needed = append(needed, tx.PaymentCurrency)
		if !tx.Fee.IsZero() && tx.FeeCurrency != "" {
			needed = append(needed, tx.FeeCurrency)
		}
	}
	slices.Sort(needed)
	if err := rates.Require(slices.Compact(needed)...); err != nil {
		return nil, err
	}

	// unit prices in the reporting currency, forward filled, zero before the first quote.
	prices := make([][]decimal.Decimal, len(u.Securities))
	for i, sec := range u.Securities {
		native, ok := m.Prices(sec.Symbol())
		if !ok {
			log.WithField("security", sec.Name()).Warn("security has no price, valued at zero")
			prices[i] = make([]decimal.Decimal, calendar.Len())
			continue
		}
		normalized, err := rates.NormalizePrices(sec, native.Since(first))
		if err != nil {
			return nil, err
		}
		prices[i] = date.FillForward(normalized, calendar)
	}

	flows, err := rates.NormalizeLedger(ledger)
	if err != nil {
		return nil, NewError(StageValuation, "ledger", err)
	}

	return accumulate(u, calendar, prices, flows, log), nil
}

// delta is the net change of a security on one day.
type delta struct {
	count   Quantity
	expense Money
}

// accumulate sums flows per day and security, then runs the cumulative sums
// over the calendar.
func accumulate(u *Universe, calendar date.Range, prices [][]decimal.Decimal, flows []Flow, log logrus.FieldLogger) *Valuation {
	cur := u.Currency
	zero := M(0, cur)
	n := calendar.Len()

	index := make(map[string]int, len(u.Securities))
	for i, s := range u.Securities {
		index[s.Name()] = i
	}
	deltas := make([]map[int]delta, n) // by day, then security index
	outflows := make([]Money, n)
	for i := range outflows {
		outflows[i] = zero
	}
	for _, f := range flows {
		d := f.Date.DaysSince(calendar.From)
		outflows[d] = outflows[d].Add(f.Total())

		fields := logrus.Fields{"security": f.Security, "date": f.Date, "source": f.Source}
		var dl delta
		switch {
		case f.Security == "":
			continue
		case !f.Count.IsPositive():
			log.WithFields(fields).Warnf("non-positive count %s, row ignored for the security", f.Count)
			continue
		case !f.Payment.IsPositive():
			log.WithFields(fields).Warnf("non-positive payment %s, units added at no cost", f.Payment.Decimal())
			dl = delta{count: f.Count, expense: zero}
		default:
			dl = delta{count: f.Count, expense: f.Total()}
		}
		if deltas[d] == nil {
			deltas[d] = make(map[int]delta)
		}
		i := index[f.Security]
		prev, ok := deltas[d][i]
		if !ok {
			prev.expense = zero
		}
		deltas[d][i] = delta{count: prev.count.Add(dl.count), expense: prev.expense.Add(dl.expense)}
	}

	v := &Valuation{Currency: cur, Securities: u.Securities, Days: make([]Day, 0, n)}
	counts := make([]Quantity, len(u.Securities))
	bases := make([]Money, len(u.Securities))
	for i := range bases {
		bases[i] = zero
	}
	expense, peak := zero, zero
	d := 0
	for on := range calendar.Days() {
		day := Day{Date: on, Securities: make([]SecurityState, len(u.Securities))}
		value := zero
		for i := range u.Securities {
			if dl, ok := deltas[d][i]; ok {
				counts[i] = counts[i].Add(dl.count)
				bases[i] = bases[i].Add(dl.expense)
			}
			price := M(prices[i][d], cur)
			s := SecurityState{
				Count:     counts[i],
				Price:     price,
				Value:     price.Mul(counts[i]),
				CostBasis: bases[i],
			}
			s.Profit = s.Value.Sub(s.CostBasis)
			day.Securities[i] = s
			value = value.Add(s.Value)
		}
		expense = expense.Add(outflows[d])
		if value.GreaterThan(peak) {
			peak = value
		}
		day.Portfolio = PortfolioState{
			Value:    value,
			Expense:  expense,
			Profit:   value.Sub(expense),
			Drawdown: drawdown(value, peak),
		}
		v.Days = append(v.Days, day)
		d++
	}
	return v
}

// drawdown returns (value - peak) / peak, 0 when peak is not positive.
func drawdown(value, peak Money) decimal.Decimal {
	if !peak.IsPositive() {
		return decimal.Zero
	}
	return value.Sub(peak).Ratio(peak)
}

// Len returns the number of days.
func (v *Valuation) Len() int { return len(v.Days) }

// Last returns the last day of the series.
func (v *Valuation) Last() (Day, bool) {
	if len(v.Days) == 0 {
		return Day{}, false
	}
	return v.Days[len(v.Days)-1], true
}

// Range returns the first and last dates of the series.
func (v *Valuation) Range() date.Range {
	if len(v.Days) == 0 {
		return date.Range{}
	}
	return date.Range{From: v.Days[0].Date, To: v.Days[len(v.Days)-1].Date}
}

// Index returns the position of a security in Securities and in every Day.
func (v *Valuation) Index(name string) (int, bool) {
	i := slices.IndexFunc(v.Securities, func(s *Security) bool { return s.Name() == name })
	return i, i >= 0
}

// Window returns the days within r. Days are shared with v.
func (v *Valuation) Window(r date.Range) *Valuation {
	from, _ := slices.BinarySearchFunc(v.Days, r.From, func(d Day, on date.Date) int { return d.Date.Compare(on) })
	to, found := slices.BinarySearchFunc(v.Days, r.To, func(d Day, on date.Date) int { return d.Date.Compare(on) })
	if found {
		to++
	}
	if to < from {
		to = from
	}
	return &Valuation{Currency: v.Currency, Securities: v.Securities, Days: v.Days[from:to]}
}
