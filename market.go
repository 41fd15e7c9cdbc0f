package valuation

import (
	"context"
	"fmt"
	"slices"

	"github.com/etnz/valuation/date"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Provider supplies daily prices of securities and daily exchange rates.
//
// A symbol or a pair without any data in the range is absent from the
// result, it is not an error.
type Provider interface {
	FetchDailyCloses(ctx context.Context, symbols []string, r date.Range) (map[string]*date.History[float64], error)
	FetchDailyRates(ctx context.Context, pairs []CurrencyPair, r date.Range) (map[CurrencyPair]*date.History[float64], error)
}

// MarketData holds native price series by provider symbol and rate series by pair.
type MarketData struct {
	prices map[string]*date.History[float64]
	rates  map[CurrencyPair]*date.History[float64]
}

func NewMarketData() *MarketData {
	return &MarketData{
		prices: make(map[string]*date.History[float64]),
		rates:  make(map[CurrencyPair]*date.History[float64]),
	}
}

// SetPrices replaces the price series of a symbol.
func (m *MarketData) SetPrices(symbol string, h *date.History[float64]) { m.prices[symbol] = h }

// SetRates replaces the rate series of a pair.
func (m *MarketData) SetRates(p CurrencyPair, h *date.History[float64]) { m.rates[p] = h }

// Prices returns the native price series of a symbol.
func (m *MarketData) Prices(symbol string) (*date.History[float64], bool) {
	h, ok := m.prices[symbol]
	return h, ok && h.Len() > 0
}

// Rates returns the rate series of a pair.
func (m *MarketData) Rates(p CurrencyPair) (*date.History[float64], bool) {
	h, ok := m.rates[p]
	return h, ok && h.Len() > 0
}

// Symbols returns the symbols with prices, sorted.
func (m *MarketData) Symbols() []string {
	res := make([]string, 0, len(m.prices))
	for s := range m.prices {
		res = append(res, s)
	}
	slices.Sort(res)
	return res
}

// CurrencyPairs returns the pairs with rates, sorted.
func (m *MarketData) CurrencyPairs() []CurrencyPair {
	res := make([]CurrencyPair, 0, len(m.rates))
	for p := range m.rates {
		res = append(res, p)
	}
	slices.Sort(res)
	return res
}

// Merge copies every series of o into m, o wins on conflicts.
func (m *MarketData) Merge(o *MarketData) {
	for s, h := range o.prices {
		m.prices[s] = h
	}
	for p, h := range o.rates {
		m.rates[p] = h
	}
}

// fetchMargin is how many days before the first transaction are fetched, so
// that a rate or a price exists on the first day even after a market closure.
const fetchMargin = 14

// FetchRange returns the range of market data needed for u.
func (u *Universe) FetchRange() date.Range {
	return date.Range{From: u.FirstTransactionDate.Add(-fetchMargin), To: u.End}
}

// FetchMarketData fetches the prices of every security of u and every pair
// needed to convert them and the ledger payments. Securities and pairs are
// fetched concurrently and both must complete before anything is returned.
func FetchMarketData(ctx context.Context, p Provider, u *Universe, log logrus.FieldLogger) (*MarketData, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := u.FetchRange()
	symbols := make([]string, 0, len(u.Securities))
	for _, s := range u.Securities {
		symbols = append(symbols, s.Symbol())
	}
	pairs := u.Pairs()

	var prices map[string]*date.History[float64]
	var rates map[CurrencyPair]*date.History[float64]
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		prices, err = p.FetchDailyCloses(gctx, symbols, r)
		return err
	})
	if len(pairs) > 0 {
		g.Go(func() (err error) {
			rates, err = p.FetchDailyRates(gctx, pairs, r)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, NewError(StageFetch, "", err)
	}

	m := NewMarketData()
	for _, s := range symbols {
		h, ok := prices[s]
		if !ok || h.Len() == 0 {
			log.WithField("symbol", s).Warn("no price history")
			continue
		}
		m.SetPrices(s, h)
	}
	for _, pair := range pairs {
		h, ok := rates[pair]
		if !ok || h.Len() == 0 {
			return nil, NewError(StageFetch, pair.String(), fmt.Errorf("%w: provider returned no data", ErrMissingRate))
		}
		m.SetRates(pair, h)
	}
	return m, nil
}
