package valuation

import (
	"fmt"
	"regexp"
	"strings"
)

// currencyCodeRegex checks for the format: 3 uppercase letters.
var currencyCodeRegex = regexp.MustCompile(`^[A-Z]{3}$`)

// currencyPairRegex checks for the format: 6 uppercase letters (3 for base, 3 for quote).
var currencyPairRegex = regexp.MustCompile(`^[A-Z]{6}$`)

// ValidateCurrency checks that code looks like an ISO 4217 code.
func ValidateCurrency(code string) error {
	if !currencyCodeRegex.MatchString(code) {
		return fmt.Errorf("%w: must be 3 uppercase letters, got %q", ErrInvalidCurrency, code)
	}
	return nil
}

// CurrencyPair is the concatenation of two ISO 4217 codes, like "USDEUR".
//
// The pair is read as "one unit of the base currency is worth rate units of
// the quote currency", so converting an amount from base to quote is a
// multiplication.
type CurrencyPair string

// NewCurrencyPair creates a new CurrencyPair from a base and quote currency code after validation.
func NewCurrencyPair(base, quote string) (CurrencyPair, error) {
	if err := ValidateCurrency(base); err != nil {
		return "", fmt.Errorf("invalid base currency: %w", err)
	}
	if err := ValidateCurrency(quote); err != nil {
		return "", fmt.Errorf("invalid quote currency: %w", err)
	}
	return CurrencyPair(base + quote), nil
}

// pair builds a pair from codes already validated.
func pair(base, quote string) CurrencyPair { return CurrencyPair(base + quote) }

// Currencies returns the base and quote currencies of the pair.
func (p CurrencyPair) Currencies() (base, quote string, err error) {
	if !currencyPairRegex.MatchString(string(p)) {
		return "", "", fmt.Errorf("invalid currency pair %q", string(p))
	}
	return string(p[:3]), string(p[3:]), nil
}

// IsIdentity reports whether base and quote are the same currency.
func (p CurrencyPair) IsIdentity() bool { return len(p) == 6 && p[:3] == p[3:] }

func (p CurrencyPair) String() string { return string(p) }

// Security is a tradable asset of the portfolio.
//
// Its name is the short name derived from the ticker ("VWCE" for "VWCE.DE"),
// it is the key used in ledger files and weight groups.
type Security struct {
	name     string
	ticker   string
	currency string
	symbol   string
}

// NewSecurity creates a security from its ticker and native currency.
//
// symbol is the provider symbol used to fetch prices, empty means the ticker itself.
func NewSecurity(ticker, currency, symbol string) (*Security, error) {
	name := ShortName(ticker)
	if name == "" {
		return nil, fmt.Errorf("invalid ticker %q", ticker)
	}
	if err := ValidateCurrency(currency); err != nil {
		return nil, fmt.Errorf("security %s: %w", ticker, err)
	}
	if symbol == "" {
		symbol = ticker
	}
	return &Security{name: name, ticker: ticker, currency: currency, symbol: symbol}, nil
}

// ShortName returns the part of ticker before the exchange suffix.
func ShortName(ticker string) string {
	name, _, _ := strings.Cut(strings.TrimSpace(ticker), ".")
	return name
}

func (s *Security) Name() string     { return s.name }
func (s *Security) Ticker() string   { return s.ticker }
func (s *Security) Currency() string { return s.currency }

// Symbol is the identifier of the security for the market data provider.
func (s *Security) Symbol() string { return s.symbol }

func (s *Security) String() string { return s.name }
