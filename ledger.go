package valuation

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/etnz/valuation/date"
	"github.com/shopspring/decimal"
)

// Transaction is one ledger row: units of a security bought on a day, the
// gross payment and the fee, in their native currencies.
//
// Several transactions may share the same day and security, they are all kept.
type Transaction struct {
	Date            date.Date
	Security        string // short name
	Count           Quantity
	Payment         decimal.Decimal
	PaymentCurrency string
	Fee             decimal.Decimal
	FeeCurrency     string
	Source          string // file:line, for messages
}

func (t Transaction) String() string {
	return fmt.Sprintf("%s %s %s payment %s %s fee %s %s", t.Date, t.Security, t.Count, t.Payment, t.PaymentCurrency, t.Fee, t.FeeCurrency)
}

// Flow is a Transaction with its amounts in the reporting currency.
type Flow struct {
	Date     date.Date
	Security string
	Count    Quantity
	Payment  Money
	Fee      Money
	Source   string
}

// Total returns payment + fee.
func (f Flow) Total() Money { return f.Payment.Add(f.Fee) }

// IsBuy reports whether the flow adds units at a cost.
func (f Flow) IsBuy() bool { return f.Count.IsPositive() && f.Payment.IsPositive() }

// SortTransactions sorts txs by date, keeping the file order within a day.
func SortTransactions(txs []Transaction) {
	slices.SortStableFunc(txs, func(a, b Transaction) int { return a.Date.Compare(b.Date) })
}

// NormalizeLedger converts every transaction into the reporting currency.
//
// Rows are joined to the rate table on (date, currency): each rate is looked up
// once and shared by every row of that day, and every row is kept.
func (t *ExchangeRateTable) NormalizeLedger(txs []Transaction) ([]Flow, error) {
	type key struct {
		on  date.Date
		cur string
	}
	rates := make(map[key]decimal.Decimal)
	rate := func(cur string, on date.Date) (decimal.Decimal, error) {
		k := key{on, cur}
		if r, ok := rates[k]; ok {
			return r, nil
		}
		r, err := t.Rate(cur, on)
		if err != nil {
			return r, err
		}
		rates[k] = r
		return r, nil
	}

	flows := make([]Flow, 0, len(txs))
	for _, tx := range txs {
		pr, err := rate(tx.PaymentCurrency, tx.Date)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", tx.Source, err)
		}
		fee := decimal.Zero
		if !tx.Fee.IsZero() {
			fr, err := rate(cmp.Or(tx.FeeCurrency, tx.PaymentCurrency), tx.Date)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", tx.Source, err)
			}
			fee = tx.Fee.Mul(fr)
		}
		flows = append(flows, Flow{
			Date:     tx.Date,
			Security: tx.Security,
			Count:    tx.Count,
			Payment:  M(tx.Payment.Mul(pr), t.reporting),
			Fee:      M(fee, t.reporting),
			Source:   tx.Source,
		})
	}
	return flows, nil
}
