package csvledger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/date"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func universe(t *testing.T) *valuation.Universe {
	t.Helper()
	c := valuation.NewDefaultConfig()
	c.FirstTransactionDate = "2019-07-29"
	c.Securities = []valuation.SecurityConfig{
		{Ticker: "VWCE.DE", Currency: "EUR"},
		{Ticker: "ISAC.L", Currency: "USD"},
	}
	log, _ := test.NewNullLogger()
	u, err := c.Universe(log)
	require.NoError(t, err)
	return u
}

var wide = valuation.LedgerSource{
	Path:            "broker1.csv",
	Layout:          valuation.LayoutWide,
	PaymentColumn:   "transaction",
	PaymentCurrency: "EUR",
	FeeColumn:       "trx_fee",
	FeeCurrency:     "EUR",
}

func TestRead_Wide(t *testing.T) {
	const input = `date,VWCE,ISAC,transaction,trx_fee
2019-07-29,10,,750.50,1.5
2019-07-29,,4,200,
2019-08-01,2,,150,0
`
	log, _ := test.NewNullLogger()
	txs, err := Read(strings.NewReader(input), universe(t), wide, log)
	require.NoError(t, err)
	require.Len(t, txs, 3)

	assert.Equal(t, date.New(2019, 7, 29), txs[0].Date)
	assert.Equal(t, "VWCE", txs[0].Security)
	assert.True(t, txs[0].Count.Equal(valuation.Q(10)))
	assert.Equal(t, "750.5", txs[0].Payment.String())
	assert.Equal(t, "1.5", txs[0].Fee.String())
	assert.Equal(t, "EUR", txs[0].FeeCurrency)
	assert.Equal(t, "broker1.csv:2", txs[0].Source)

	assert.Equal(t, "ISAC", txs[1].Security)
	assert.True(t, txs[1].Fee.IsZero())
	assert.Equal(t, "broker1.csv:3", txs[1].Source)
}

func TestRead_RowWithoutCount(t *testing.T) {
	const input = `date,VWCE,ISAC,transaction,trx_fee
2019-07-29,10,,750.50,1.5
2019-08-02,,,0,3.5
`
	log, hook := test.NewNullLogger()
	txs, err := Read(strings.NewReader(input), universe(t), wide, log)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	fee := txs[1]
	assert.Empty(t, fee.Security)
	assert.True(t, fee.Count.IsZero())
	assert.Equal(t, "3.5", fee.Fee.String())
	assert.Equal(t, "EUR", fee.FeeCurrency)
	assert.Equal(t, "broker1.csv:3", fee.Source)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, 3, hook.LastEntry().Data["line"])
	assert.Equal(t, "broker1.csv", hook.LastEntry().Data["file"])
}

func TestRead_Long(t *testing.T) {
	const input = `when;what;units;amount
2020-01-02;ISAC;3;90.3
2020-01-02;ISAC;3;90.3
`
	src := valuation.LedgerSource{
		Path:            "broker2.csv",
		Layout:          valuation.LayoutLong,
		DateColumn:      "when",
		SecurityColumn:  "what",
		CountColumn:     "units",
		PaymentColumn:   "amount",
		PaymentCurrency: "USD",
	}
	log, _ := test.NewNullLogger()
	txs, err := Read(strings.NewReader(strings.ReplaceAll(input, ";", ",")), universe(t), src, log)
	require.NoError(t, err)
	// identical rows are both kept.
	require.Len(t, txs, 2)
	assert.Equal(t, "ISAC", txs[1].Security)
	assert.Equal(t, "USD", txs[1].PaymentCurrency)
	assert.True(t, txs[1].Fee.IsZero())
}

func TestRead_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		wantErr error
		wantKey string
	}{
		{
			name:    "unknown security column",
			input:   "date,VWCE,NOPE,transaction,trx_fee\n",
			wantErr: valuation.ErrUnknownSecurity,
			wantKey: "broker1.csv",
		},
		{
			name:    "two counts on a row",
			input:   "date,VWCE,ISAC,transaction,trx_fee\n2019-07-29,1,1,10,0\n",
			wantKey: "broker1.csv:2",
		},
		{
			name:    "invalid amount",
			input:   "date,VWCE,ISAC,transaction,trx_fee\n2019-07-29,1,,ten,0\n",
			wantKey: "broker1.csv:2",
		},
		{
			name:    "invalid date",
			input:   "date,VWCE,ISAC,transaction,trx_fee\n29/07/2019,1,,10,0\n",
			wantKey: "broker1.csv:2",
		},
		{
			name:    "missing fee column",
			input:   "date,VWCE,ISAC,transaction\n",
			wantKey: "broker1.csv",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			log, _ := test.NewNullLogger()
			_, err := Read(strings.NewReader(tc.input), universe(t), wide, log)
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.True(t, errors.Is(err, tc.wantErr), "error %v is not %v", err, tc.wantErr)
			}
			var e *valuation.Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, valuation.StageParse, e.Stage)
			assert.Equal(t, tc.wantKey, e.Key)
		})
	}
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("date,VWCE,transaction\n2019-07-29,1,10\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.csv"), []byte("date,ISAC,paid\n2019-07-29,2,20\n"), 0o644))

	c := valuation.NewDefaultConfig()
	c.FirstTransactionDate = "2019-07-29"
	c.DataPath = dir
	c.Securities = []valuation.SecurityConfig{
		{Ticker: "VWCE.DE", Currency: "EUR"},
		{Ticker: "ISAC.L", Currency: "USD"},
	}
	c.Ledgers = []valuation.LedgerConfig{
		{File: "a.csv", PaymentColumn: "transaction"},
		{File: "b.csv", PaymentColumn: "paid"},
	}
	c.PaymentCurrencies = map[string]string{"transaction": "EUR", "paid": "USD"}
	log, _ := test.NewNullLogger()
	u, err := c.Universe(log)
	require.NoError(t, err)

	txs, err := LoadAll(u, log)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "VWCE", txs[0].Security)
	assert.Equal(t, "ISAC", txs[1].Security)
	assert.Equal(t, "USD", txs[1].PaymentCurrency)

	c.Ledgers = append(c.Ledgers, valuation.LedgerConfig{File: "missing.csv", PaymentColumn: "paid"})
	u, err = c.Universe(log)
	require.NoError(t, err)
	_, err = LoadAll(u, log)
	assert.Error(t, err)
}
