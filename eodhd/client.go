// Package eodhd implements a valuation.Provider over the EODHD end of day API.
package eodhd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/date"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL    = "https://eodhd.com/api"
	DefaultRateLimit  = 10 // requests per second
	DefaultPriceField = "close"

	// concurrent requests, the limiter still applies.
	parallelism = 4
)

// Client fetches daily series from EODHD.
type Client struct {
	baseURL string
	apiKey  string
	field   string
	http    *http.Client
	limiter *rate.Limiter
	log     logrus.FieldLogger

	cache    bool
	cacheDir string
}

var _ valuation.Provider = (*Client)(nil)

// Option configures the client.
type Option func(*Client)

// WithBaseURL sets the API base URL, mostly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithRateLimit sets the maximum number of requests per second.
func WithRateLimit(requestsPerSecond int) Option {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithPriceField selects the field of the daily bar used as the security
// price: close, open, high, low or adjusted_close.
func WithPriceField(field string) Option {
	return func(c *Client) {
		if field != "" {
			c.field = field
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

// WithDiskCache caches successful responses in dir for the day.
// An empty dir means the system temporary directory.
func WithDiskCache(dir string) Option {
	return func(c *Client) { c.cache, c.cacheDir = true, dir }
}

// NewClient returns a client authenticated by apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		field:   DefaultPriceField,
		http:    &http.Client{Transport: http.DefaultTransport},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	if c.cache {
		c.http.Transport = &diskCache{base: c.http.Transport, dir: c.cacheDir, period: date.Daily, log: c.log}
	}
	return c
}

// FetchDailyCloses implements valuation.Provider. Symbols are EODHD tickers
// like "VWCE.XETRA".
func (c *Client) FetchDailyCloses(ctx context.Context, symbols []string, r date.Range) (map[string]*date.History[float64], error) {
	var mu sync.Mutex
	res := make(map[string]*date.History[float64], len(symbols))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for _, symbol := range symbols {
		g.Go(func() error {
			h, err := c.daily(ctx, symbol, r, c.field)
			if err != nil {
				return fmt.Errorf("fetching %s: %w", symbol, err)
			}
			if h == nil || h.Len() == 0 {
				c.log.WithField("symbol", symbol).Debug("no data")
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			res[symbol] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

// FetchDailyRates implements valuation.Provider.
//
// Forex pairs are fetched as "<FROM><TO>.FOREX". Their close is unreliable,
// often equal to the open, so the rate of a day is the open of the next day.
func (c *Client) FetchDailyRates(ctx context.Context, pairs []valuation.CurrencyPair, r date.Range) (map[valuation.CurrencyPair]*date.History[float64], error) {
	var mu sync.Mutex
	res := make(map[valuation.CurrencyPair]*date.History[float64], len(pairs))
	next := date.Range{From: r.From.Add(1), To: r.To.Add(1)}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for _, pair := range pairs {
		g.Go(func() error {
			h, err := c.daily(ctx, pair.String()+".FOREX", next, "open")
			if err != nil {
				return fmt.Errorf("fetching %s: %w", pair, err)
			}
			if h == nil || h.Len() == 0 {
				c.log.WithField("pair", pair).Debug("no data")
				return nil
			}
			shifted := new(date.History[float64])
			for day, v := range h.Values() {
				shifted.Append(day.Add(-1), v)
			}
			mu.Lock()
			defer mu.Unlock()
			res[pair] = shifted
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

// daily fetches the end of day bars of ticker in r and keeps field.
// A ticker unknown to EODHD returns a nil history.
func (c *Client) daily(ctx context.Context, ticker string, r date.Range, field string) (*date.History[float64], error) {
	// https://eodhd.com/api/eod/NVD.F?api_token=demo&fmt=json&from=2024-02-01&to=2024-02-13
	// [
	//	{
	//		"date": "2024-02-13",
	//		"open": 675.066,
	//		"high": 684.219,
	//		"low": 648.659,
	//		"close": 668.445,
	//		"adjusted_close": 67.705,
	//		"volume": 0
	//	},
	// bounds are included in the response.
	params := url.Values{}
	params.Set("from", r.From.String())
	params.Set("to", r.To.String())

	var bars []any
	err := c.get(ctx, "/eod/"+url.PathEscape(ticker), params, &bars)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return selectField(bars, field, c.log.WithField("ticker", ticker))
}
