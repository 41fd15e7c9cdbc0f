package valuation

import (
	"fmt"
	"slices"

	"github.com/etnz/valuation/date"
	"github.com/shopspring/decimal"
)

// ExchangeRateTable holds the daily rates from every used currency into the
// reporting currency.
type ExchangeRateTable struct {
	reporting string
	pairs     map[CurrencyPair]*date.History[float64]
}

// NewExchangeRateTable builds the table from fetched pair series.
//
// The identity pair of the reporting currency is synthesized as a constant 1
// on every day of span, span being the range observed in price data.
func NewExchangeRateTable(reporting string, span date.Range, fetched map[CurrencyPair]*date.History[float64]) *ExchangeRateTable {
	t := &ExchangeRateTable{
		reporting: reporting,
		pairs:     make(map[CurrencyPair]*date.History[float64], len(fetched)+1),
	}
	for p, h := range fetched {
		if _, quote, err := p.Currencies(); err == nil && quote == reporting && !p.IsIdentity() {
			t.pairs[p] = h
		}
	}
	identity := new(date.History[float64])
	for day := range span.Days() {
		identity.Append(day, 1)
	}
	t.pairs[pair(reporting, reporting)] = identity
	return t
}

// Currency returns the reporting currency.
func (t *ExchangeRateTable) Currency() string { return t.reporting }

// Pairs returns the pairs of the table, sorted.
func (t *ExchangeRateTable) Pairs() []CurrencyPair {
	res := make([]CurrencyPair, 0, len(t.pairs))
	for p := range t.pairs {
		res = append(res, p)
	}
	slices.Sort(res)
	return res
}

// Require fails fast if a currency cannot be converted at all.
func (t *ExchangeRateTable) Require(currencies ...string) error {
	for _, c := range currencies {
		p := pair(c, t.reporting)
		if h, ok := t.pairs[p]; !ok || h.Len() == 0 {
			return NewError(StageValuation, p.String(), ErrMissingRate)
		}
	}
	return nil
}

// Rate returns the rate to convert from into the reporting currency on a day.
//
// A day without a quote uses the most recent prior quote, a day before the
// first quote is an error.
func (t *ExchangeRateTable) Rate(from string, on date.Date) (decimal.Decimal, error) {
	p := pair(from, t.reporting)
	h, ok := t.pairs[p]
	if !ok {
		return decimal.Zero, NewError(StageValuation, p.String(), ErrMissingRate)
	}
	r, ok := h.ValueAsOf(on)
	if !ok {
		return decimal.Zero, NewError(StageValuation, p.String(), fmt.Errorf("%w on %s", ErrMissingRate, on))
	}
	return decimal.NewFromFloat(r), nil
}

// Convert returns amount × rate(from → reporting, on).
func (t *ExchangeRateTable) Convert(amount decimal.Decimal, from string, on date.Date) (Money, error) {
	r, err := t.Rate(from, on)
	if err != nil {
		return Money{}, err
	}
	return M(amount.Mul(r), t.reporting), nil
}

// NormalizePrices converts a native price series of sec into the reporting
// currency, date by date.
func (t *ExchangeRateTable) NormalizePrices(sec *Security, native *date.History[float64]) (*date.History[decimal.Decimal], error) {
	var err error
	res := date.Map(native, func(on date.Date, price float64) (decimal.Decimal, bool) {
		if err != nil {
			return decimal.Zero, false
		}
		var r decimal.Decimal
		if r, err = t.Rate(sec.Currency(), on); err != nil {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(price).Mul(r), true
	})
	if err != nil {
		return nil, fmt.Errorf("normalizing %s prices: %w", sec.Name(), err)
	}
	return res, nil
}
