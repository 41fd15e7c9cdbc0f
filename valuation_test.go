package valuation

import (
	"errors"
	"testing"

	"github.com/etnz/valuation/date"
)

var (
	day1 = date.New(2024, 1, 1)
	day2 = date.New(2024, 1, 2)
)

func valuate(t *testing.T, u *Universe, m *MarketData, txs ...Transaction) *Valuation {
	t.Helper()
	log, _ := quietLogger()
	v, err := Valuate(u, m, txs, log)
	if err != nil {
		t.Fatalf("Valuate() unexpected error: %v", err)
	}
	return v
}

func TestValuate_SingleBuy(t *testing.T) {
	u := mustUniverse(t, testConfig())
	m := NewMarketData()
	m.SetPrices("X.DE", daily(day1, 100, 110))
	m.SetRates("USDEUR", daily(day1, 0.9, 0.9))

	v := valuate(t, u, m, buy(day1, "X", 10, 1000, 5))

	if got, want := v.Len(), 2; got != want {
		t.Fatalf("Valuate().Len() = %d, want %d", got, want)
	}
	testCases := []struct {
		on                         date.Date
		count                      float64
		expense, value, profit, dd float64
	}{
		{day1, 10, 1005, 1000, -5, 0},
		{day2, 10, 1005, 1100, 95, 0},
	}
	for i, tc := range testCases {
		d := v.Days[i]
		x := d.Securities[0]
		if d.Date != tc.on {
			t.Errorf("day %d date = %v, want %v", i, d.Date, tc.on)
		}
		if !x.Count.Equal(Q(tc.count)) {
			t.Errorf("%v count = %v, want %v", tc.on, x.Count, tc.count)
		}
		if !x.CostBasis.Equal(EUR(tc.expense)) {
			t.Errorf("%v expense = %v, want %v", tc.on, x.CostBasis, tc.expense)
		}
		if !x.Value.Equal(EUR(tc.value)) {
			t.Errorf("%v value = %v, want %v", tc.on, x.Value, tc.value)
		}
		if !x.Profit.Equal(EUR(tc.profit)) {
			t.Errorf("%v profit = %v, want %v", tc.on, x.Profit, tc.profit)
		}
		if !d.Portfolio.Drawdown.Equal(D(tc.dd)) {
			t.Errorf("%v drawdown = %v, want %v", tc.on, d.Portfolio.Drawdown, tc.dd)
		}
		if !d.Portfolio.Expense.Equal(EUR(tc.expense)) {
			t.Errorf("%v portfolio expense = %v, want %v", tc.on, d.Portfolio.Expense, tc.expense)
		}
	}
}

func TestValuate_SameDayBuys(t *testing.T) {
	u := mustUniverse(t, testConfig())
	m := NewMarketData()
	m.SetPrices("X.DE", daily(day1, 11))
	m.SetRates("USDEUR", daily(day1, 0.9))

	v := valuate(t, u, m,
		buy(day1, "X", 5, 50, 0),
		buy(day1, "X", 5, 60, 0),
	)
	last, _ := v.Last()
	x := last.Securities[0]
	if got, want := x.Count, Q(10); !got.Equal(want) {
		t.Errorf("count = %v, want %v", got, want)
	}
	if got, want := x.CostBasis, EUR(110); !got.Equal(want) {
		t.Errorf("expense = %v, want %v", got, want)
	}
}

func TestValuate_CurrencyConversion(t *testing.T) {
	u := mustUniverse(t, testConfig())
	m := NewMarketData()
	m.SetPrices("Y.L", daily(day1, 100, 120))
	m.SetRates("USDEUR", daily(day1, 0.9, 0.8))

	v := valuate(t, u, m, buy(day1, "Y", 3, 270, 1))

	y := v.Days[0].Securities[1]
	if got, want := y.Price, EUR(90); !got.Equal(want) {
		t.Errorf("day 1 price = %v, want %v", got, want)
	}
	if got, want := y.Value, EUR(270); !got.Equal(want) { // 100 × 0.9 × 3
		t.Errorf("day 1 value = %v, want %v", got, want)
	}
	y = v.Days[1].Securities[1]
	if got, want := y.Value, EUR(288); !got.Equal(want) { // 120 × 0.8 × 3
		t.Errorf("day 2 value = %v, want %v", got, want)
	}
}

func TestValuate_ForeignPayment(t *testing.T) {
	u := mustUniverse(t, testConfig())
	m := NewMarketData()
	m.SetPrices("Y.L", daily(day1, 100))
	m.SetRates("USDEUR", daily(day1, 0.9))

	tx := buy(day1, "Y", 1, 100, 2)
	tx.PaymentCurrency, tx.FeeCurrency = "USD", "USD"
	v := valuate(t, u, m, tx)

	if got, want := v.Days[0].Securities[1].CostBasis, EUR(91.8); !got.Equal(want) {
		t.Errorf("cost basis = %v, want %v", got, want)
	}
}

func TestValuate_FillForward(t *testing.T) {
	u := mustUniverse(t, testConfig())
	m := NewMarketData()
	// X quoted on day 1 and day 4, Y only from day 3.
	x := new(date.History[float64])
	x.Append(day1, 100).Append(day1.Add(3), 130)
	m.SetPrices("X.DE", x)
	m.SetPrices("Y.L", daily(day1.Add(2), 10, 10))
	m.SetRates("USDEUR", daily(day1.Add(-3), 1, 1, 1, 1, 1, 1, 1, 1))

	v := valuate(t, u, m, buy(day1, "X", 1, 100, 0))

	wantX := []float64{100, 100, 100, 130}
	wantY := []float64{0, 0, 10, 10}
	if got := v.Len(); got != len(wantX) {
		t.Fatalf("Len() = %d, want %d", got, len(wantX))
	}
	for i, d := range v.Days {
		if got := d.Securities[0].Price; !got.Equal(EUR(wantX[i])) {
			t.Errorf("%v X price = %v, want %v", d.Date, got, wantX[i])
		}
		if got := d.Securities[1].Price; !got.Equal(EUR(wantY[i])) {
			t.Errorf("%v Y price = %v, want %v", d.Date, got, wantY[i])
		}
	}
}

func TestValuate_PriceBeforeFirstTransactionDateDoesNotLeak(t *testing.T) {
	u := mustUniverse(t, testConfig())
	m := NewMarketData()
	m.SetPrices("X.DE", daily(day1.Add(-2), 90, 95, 100))
	// Y last quoted before the first transaction date: not yet priced in the series.
	m.SetPrices("Y.L", daily(day1.Add(-2), 10))
	m.SetRates("USDEUR", daily(day1.Add(-2), 1, 1, 1))

	v := valuate(t, u, m, buy(day1, "X", 1, 100, 0))
	if got := v.Days[0].Securities[1].Price; !got.IsZero() {
		t.Errorf("Y price = %v, want 0", got)
	}
	if got, want := v.Days[0].Date, day1; got != want {
		t.Errorf("first day = %v, want %v", got, want)
	}
}

func TestValuate_MalformedRows(t *testing.T) {
	u := mustUniverse(t, testConfig())
	m := NewMarketData()
	m.SetPrices("X.DE", daily(day1, 10))
	m.SetRates("USDEUR", daily(day1, 1))

	log, hook := quietLogger()
	v, err := Valuate(u, m, []Transaction{
		buy(day1, "X", 2, 20, 1),
		buy(day1, "X", 0, 5, 0),  // cancellation, no count nor expense for X
		buy(day1, "X", 1, 0, 0),  // free units, no expense
		buy(day1, "X", -1, 0, 0), // negative count is not a sell
	}, log)
	if err != nil {
		t.Fatalf("Valuate() unexpected error: %v", err)
	}
	x := v.Days[0].Securities[0]
	if got, want := x.Count, Q(3); !got.Equal(want) {
		t.Errorf("count = %v, want %v", got, want)
	}
	if got, want := x.CostBasis, EUR(21); !got.Equal(want) {
		t.Errorf("cost basis = %v, want %v", got, want)
	}
	// the portfolio expense is every payment and fee.
	if got, want := v.Days[0].Portfolio.Expense, EUR(26); !got.Equal(want) {
		t.Errorf("portfolio expense = %v, want %v", got, want)
	}
	rows := 0
	for _, e := range hook.AllEntries() {
		if _, ok := e.Data["source"]; ok {
			rows++
		}
	}
	if got, want := rows, 3; got != want {
		t.Errorf("logged %d malformed rows, want %d", got, want)
	}
}

func TestValuate_RowsWithoutSecurity(t *testing.T) {
	u := mustUniverse(t, testConfig())
	m := NewMarketData()
	m.SetPrices("X.DE", daily(day1, 100, 110))
	m.SetRates("USDEUR", daily(day1, 0.9, 0.9))

	custody := Transaction{Date: day2, Fee: D(3.5), FeeCurrency: "EUR", PaymentCurrency: "EUR", Source: "broker1.csv:3"}
	v := valuate(t, u, m, buy(day1, "X", 10, 1000, 5), custody)

	testCases := []struct {
		on                        date.Date
		expense, profit, xExpense float64
	}{
		{day1, 1005, -5, 1005},
		{day2, 1008.5, 91.5, 1005},
	}
	for i, tc := range testCases {
		d := v.Days[i]
		if got, want := d.Portfolio.Expense, EUR(tc.expense); !got.Equal(want) {
			t.Errorf("%v portfolio expense = %v, want %v", tc.on, got, want)
		}
		if got, want := d.Portfolio.Profit, EUR(tc.profit); !got.Equal(want) {
			t.Errorf("%v portfolio profit = %v, want %v", tc.on, got, want)
		}
		if got, want := d.Securities[0].CostBasis, EUR(tc.xExpense); !got.Equal(want) {
			t.Errorf("%v X cost basis = %v, want %v", tc.on, got, want)
		}
		if got, want := d.Securities[0].Count, Q(10); !got.Equal(want) {
			t.Errorf("%v X count = %v, want %v", tc.on, got, want)
		}
	}
}

func TestValuate_IgnoresTransactionsBeforeFirstDate(t *testing.T) {
	u := mustUniverse(t, testConfig())
	m := NewMarketData()
	m.SetPrices("X.DE", daily(day1.Add(-5), 1, 1, 1, 1, 1, 1))
	m.SetRates("USDEUR", daily(day1.Add(-5), 1))

	v := valuate(t, u, m, buy(day1.Add(-3), "X", 5, 5, 0), buy(day1, "X", 1, 1, 0))
	if got, want := v.Days[0].Securities[0].Count, Q(1); !got.Equal(want) {
		t.Errorf("count = %v, want %v", got, want)
	}
}

func TestValuate_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		market  func(m *MarketData)
		txs     []Transaction
		wantErr error
		wantKey string
	}{
		{
			name: "unknown security",
			market: func(m *MarketData) {
				m.SetPrices("X.DE", daily(day1, 1))
				m.SetRates("USDEUR", daily(day1, 1))
			},
			txs:     []Transaction{buy(day1, "Z", 1, 1, 0)},
			wantErr: ErrUnknownSecurity,
			wantKey: "Z",
		},
		{
			name: "transaction before first price",
			market: func(m *MarketData) {
				m.SetPrices("X.DE", daily(day2, 1))
				m.SetRates("USDEUR", daily(day1, 1))
			},
			txs:     []Transaction{buy(day1, "X", 1, 1, 0)},
			wantErr: ErrTransactionBeforePrice,
			wantKey: "X",
		},
		{
			name: "missing pair",
			market: func(m *MarketData) {
				m.SetPrices("X.DE", daily(day1, 1))
			},
			txs:     []Transaction{buy(day1, "X", 1, 1, 0)},
			wantErr: ErrMissingRate,
			wantKey: "USDEUR",
		},
		{
			name: "no prices",
			market: func(m *MarketData) {
				m.SetRates("USDEUR", daily(day1, 1))
			},
			wantErr: ErrNoPrices,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			u := mustUniverse(t, testConfig())
			m := NewMarketData()
			tc.market(m)
			log, _ := quietLogger()
			_, err := Valuate(u, m, tc.txs, log)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Valuate() error = %v, want %v", err, tc.wantErr)
			}
			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("Valuate() error %T is not an *Error", err)
			}
			if e.Stage != StageValuation {
				t.Errorf("stage = %q, want %q", e.Stage, StageValuation)
			}
			if tc.wantKey != "" && e.Key != tc.wantKey {
				t.Errorf("key = %q, want %q", e.Key, tc.wantKey)
			}
		})
	}
}

// TestValuate_Properties checks the invariants of the daily series on a
// ledger with gaps, several securities and currencies.
func TestValuate_Properties(t *testing.T) {
	u := mustUniverse(t, testConfig())
	m := NewMarketData()
	x := new(date.History[float64])
	y := new(date.History[float64])
	fx := new(date.History[float64])
	pricesX := []float64{100, 102, 97, 95, 99, 104, 103, 90, 92, 110}
	pricesY := []float64{50, 49, 51, 52, 48, 47, 55, 56, 54, 53}
	for i := range pricesX {
		on := day1.Add(i * 2) // every other day, so half the calendar is filled forward
		x.Append(on, pricesX[i])
		y.Append(on, pricesY[i])
		fx.Append(on, 0.9+float64(i)/100)
	}
	m.SetPrices("X.DE", x)
	m.SetPrices("Y.L", y)
	m.SetRates("USDEUR", fx)

	usd := buy(day1.Add(4), "Y", 3, 140, 2)
	usd.PaymentCurrency = "USD"
	txs := []Transaction{
		buy(day1, "X", 10, 1000, 5),
		buy(day1.Add(3), "X", 2, 190, 1),
		usd,
		buy(day1.Add(4), "Y", 1, 45, 0),
		buy(day1.Add(11), "X", 1, 95, 1),
	}
	v := valuate(t, u, m, txs...)

	lastDay, _ := x.Latest()
	if got, want := v.Len(), lastDay.DaysSince(day1)+1; got != want {
		t.Fatalf("Len() = %d, want one row per day: %d", got, want)
	}

	flows, err := NewExchangeRateTable("EUR", date.Range{From: day1, To: lastDay}, m.rates).NormalizeLedger(txs)
	if err != nil {
		t.Fatal(err)
	}

	peak := EUR(0)
	for di, d := range v.Days {
		if d.Date != day1.Add(di) {
			t.Fatalf("day %d = %v, want %v", di, d.Date, day1.Add(di))
		}
		sum := EUR(0)
		for i, s := range d.Securities {
			if di > 0 {
				prev := v.Days[di-1].Securities[i]
				if s.Count.LessThan(prev.Count) {
					t.Errorf("%v %s count decreased", d.Date, v.Securities[i])
				}
				if s.CostBasis.LessThan(prev.CostBasis) {
					t.Errorf("%v %s cost basis decreased", d.Date, v.Securities[i])
				}
			}
			if !s.Profit.Equal(s.Value.Sub(s.CostBasis)) {
				t.Errorf("%v %s profit is not value - cost basis", d.Date, v.Securities[i])
			}
			sum = sum.Add(s.Value)
		}
		if !d.Portfolio.Value.Equal(sum) {
			t.Errorf("%v portfolio value = %v, want sum of securities %v", d.Date, d.Portfolio.Value, sum)
		}
		expense := EUR(0)
		for _, f := range flows {
			if !f.Date.After(d.Date) {
				expense = expense.Add(f.Total())
			}
		}
		if !d.Portfolio.Expense.Equal(expense) {
			t.Errorf("%v portfolio expense = %v, want %v", d.Date, d.Portfolio.Expense, expense)
		}
		if !d.Portfolio.Profit.Equal(d.Portfolio.Value.Sub(d.Portfolio.Expense)) {
			t.Errorf("%v portfolio profit is not value - expense", d.Date)
		}
		if d.Portfolio.Drawdown.IsPositive() {
			t.Errorf("%v drawdown = %v, want <= 0", d.Date, d.Portfolio.Drawdown)
		}
		if d.Portfolio.Value.GreaterThanOrEqual(peak) {
			peak = d.Portfolio.Value
			if !d.Portfolio.Drawdown.IsZero() {
				t.Errorf("%v drawdown = %v at an all-time high, want 0", d.Date, d.Portfolio.Drawdown)
			}
		}
	}
	if !v.Days[0].Portfolio.Drawdown.IsZero() {
		t.Errorf("first drawdown = %v, want 0", v.Days[0].Portfolio.Drawdown)
	}
}

func TestValuation_Window(t *testing.T) {
	u := mustUniverse(t, testConfig())
	m := NewMarketData()
	m.SetPrices("X.DE", daily(day1, 1, 2, 3, 4, 5))
	m.SetRates("USDEUR", daily(day1, 1))
	v := valuate(t, u, m, buy(day1, "X", 1, 1, 0))

	w := v.Window(date.Range{From: day1.Add(1), To: day1.Add(3)})
	if got, want := w.Len(), 3; got != want {
		t.Fatalf("Window().Len() = %d, want %d", got, want)
	}
	if got, want := w.Range(), (date.Range{From: day1.Add(1), To: day1.Add(3)}); got != want {
		t.Errorf("Window().Range() = %v, want %v", got, want)
	}
	if got := v.Window(date.Range{From: day1.Add(10), To: day1.Add(20)}).Len(); got != 0 {
		t.Errorf("Window() after the series has %d days, want 0", got)
	}
}
