package valuation

import (
	"testing"

	"github.com/etnz/valuation/date"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// EUR is a helper for test to create euro money from const
func EUR(v float64) Money { return M(v, "EUR") }

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// D is a helper for test to create decimals from const
func D(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// daily returns a history with one value per day starting on from.
func daily(from date.Date, values ...float64) *date.History[float64] {
	h := new(date.History[float64])
	for i, v := range values {
		h.Append(from.Add(i), v)
	}
	return h
}

// quietLogger returns a logger that records entries instead of printing them.
func quietLogger() (*logrus.Logger, *test.Hook) {
	return test.NewNullLogger()
}

// testConfig is a configuration in EUR starting on 2024-01-01.
func testConfig() *Config {
	c := NewDefaultConfig()
	c.ReportingCurrency = "EUR"
	c.FirstTransactionDate = "2024-01-01"
	c.EndDate = "2024-12-31"
	c.Securities = []SecurityConfig{
		{Ticker: "X.DE", Currency: "EUR"},
		{Ticker: "Y.L", Currency: "USD"},
	}
	return c
}

func mustUniverse(t *testing.T, c *Config) *Universe {
	t.Helper()
	log, _ := quietLogger()
	u, err := c.Universe(log)
	if err != nil {
		t.Fatalf("Universe() unexpected error: %v", err)
	}
	return u
}

// buy is a helper to create a transaction paid in EUR.
func buy(on date.Date, security string, count, payment, fee float64) Transaction {
	return Transaction{
		Date:            on,
		Security:        security,
		Count:           Q(count),
		Payment:         D(payment),
		PaymentCurrency: "EUR",
		Fee:             D(fee),
		FeeCurrency:     "EUR",
		Source:          "test",
	}
}
