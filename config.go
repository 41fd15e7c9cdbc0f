package valuation

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/etnz/valuation/date"
	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Config is the content of the portfolio configuration file.
type Config struct {
	ReportingCurrency    string `toml:"reporting_currency"`
	FirstTransactionDate string `toml:"first_transaction_date"`
	StartDate            string `toml:"start_date,omitempty"` // empty means first_transaction_date
	EndDate              string `toml:"end_date,omitempty"`   // empty means today
	PriceField           string `toml:"price_field"`
	DataPath             string `toml:"data_path"`
	PlotsPath            string `toml:"plots_path"`
	MarketFile           string `toml:"market_file,omitempty"`

	Securities        []SecurityConfig  `toml:"securities"`
	Groups            []GroupConfig     `toml:"groups"`
	Ledgers           []LedgerConfig    `toml:"ledgers"`
	PaymentCurrencies map[string]string `toml:"payment_currencies"`
	FeeCurrencies     map[string]string `toml:"fee_currencies"`

	Provider ProviderConfig `toml:"provider"`
}

// SecurityConfig declares a security and its native currency.
type SecurityConfig struct {
	Ticker   string `toml:"ticker"`
	Currency string `toml:"currency"`
	Symbol   string `toml:"symbol,omitempty"`
}

// GroupConfig declares a weight group: a target percentage and its members (short names).
type GroupConfig struct {
	Name    string   `toml:"name"`
	Weight  float64  `toml:"weight"`
	Members []string `toml:"members"`
}

// LedgerConfig maps the columns of a broker file to their role.
type LedgerConfig struct {
	File           string `toml:"file"`
	Layout         string `toml:"layout,omitempty"`          // "wide" (default) or "long"
	DateColumn     string `toml:"date_column,omitempty"`     // default is the first column
	SecurityColumn string `toml:"security_column,omitempty"` // long layout only
	CountColumn    string `toml:"count_column,omitempty"`    // long layout only
	PaymentColumn  string `toml:"payment_column"`
	FeeColumn      string `toml:"fee_column"`
}

// ProviderConfig configures the market data provider.
type ProviderConfig struct {
	Name      string `toml:"name"`
	APIKey    string `toml:"api_key,omitempty"`
	RateLimit int    `toml:"rate_limit"` // requests per second
	Cache     bool   `toml:"cache"`
}

// Ledger layouts.
const (
	LayoutWide = "wide"
	LayoutLong = "long"
)

// NewDefaultConfig returns a configuration with every optional field set.
func NewDefaultConfig() *Config {
	return &Config{
		ReportingCurrency: "EUR",
		PriceField:        "close",
		DataPath:          "data",
		PlotsPath:         "portfolio plots",
		PaymentCurrencies: map[string]string{},
		FeeCurrencies:     map[string]string{},
		Provider: ProviderConfig{
			Name:      "eodhd",
			RateLimit: 10,
			Cache:     true,
		},
	}
}

// LoadConfig reads the configuration file at path. Relative data, plots and
// market paths are resolved against the file's directory.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewError(StageConfig, path, err)
	}
	config, err := ParseConfig(data)
	if err != nil {
		return nil, NewError(StageConfig, path, err)
	}
	dir := filepath.Dir(path)
	config.DataPath = resolve(dir, config.DataPath)
	config.PlotsPath = resolve(dir, config.PlotsPath)
	if config.MarketFile != "" {
		config.MarketFile = resolve(dir, config.MarketFile)
	}
	applyEnvOverrides(config)
	return config, nil
}

// ParseConfig decodes a TOML configuration on top of the defaults.
func ParseConfig(data []byte) (*Config, error) {
	config := NewDefaultConfig()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(config); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("line %d column %d: %w", row, col, err)
		}
		return nil, err
	}
	return config, nil
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func applyEnvOverrides(config *Config) {
	if v := os.Getenv("EODHD_API_KEY"); v != "" && config.Provider.APIKey == "" {
		config.Provider.APIKey = v
	}
	if v := os.Getenv("PFV_END_DATE"); v != "" {
		config.EndDate = v
	}
}

// Encode writes the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// WeightGroup is a named set of securities with a target share of the portfolio.
type WeightGroup struct {
	Name    string
	Weight  decimal.Decimal // in percent
	Members []string        // security short names
}

// LedgerSource is a validated LedgerConfig with its currencies resolved.
type LedgerSource struct {
	Path            string
	Layout          string
	DateColumn      string
	SecurityColumn  string
	CountColumn     string
	PaymentColumn   string
	PaymentCurrency string
	FeeColumn       string
	FeeCurrency     string
}

// Universe is the validated, typed view of a Config.
type Universe struct {
	Currency             string
	FirstTransactionDate date.Date
	Start, End           date.Date
	PriceField           string

	Securities []*Security
	Groups     []*WeightGroup
	Ledgers    []LedgerSource

	index   map[string]*Security
	groupOf map[string]string
}

// Universe validates the configuration and derives the typed tables used by
// every other stage. Errors are *Error with StageConfig.
func (c *Config) Universe(log logrus.FieldLogger) (*Universe, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if err := ValidateCurrency(c.ReportingCurrency); err != nil {
		return nil, NewError(StageConfig, "reporting_currency", err)
	}
	u := &Universe{
		Currency:   c.ReportingCurrency,
		PriceField: c.PriceField,
		index:      make(map[string]*Security),
		groupOf:    make(map[string]string),
	}

	var err error
	if u.FirstTransactionDate, err = date.Parse(c.FirstTransactionDate); err != nil {
		return nil, NewError(StageConfig, "first_transaction_date", err)
	}
	u.Start = u.FirstTransactionDate
	if c.StartDate != "" {
		if u.Start, err = date.Parse(c.StartDate); err != nil {
			return nil, NewError(StageConfig, "start_date", err)
		}
	}
	if u.Start.Before(u.FirstTransactionDate) {
		return nil, NewError(StageConfig, u.Start.String(), ErrStartBeforeFirstTransaction)
	}
	u.End = date.Today()
	if c.EndDate != "" {
		if u.End, err = date.Parse(c.EndDate); err != nil {
			return nil, NewError(StageConfig, "end_date", err)
		}
	}
	if u.End.Before(u.Start) {
		return nil, NewError(StageConfig, "end_date", fmt.Errorf("end date %s is before start date %s", u.End, u.Start))
	}

	if len(c.Securities) == 0 {
		return nil, NewError(StageConfig, "securities", errors.New("no security declared"))
	}
	for _, sc := range c.Securities {
		sec, err := NewSecurity(sc.Ticker, sc.Currency, sc.Symbol)
		if err != nil {
			return nil, NewError(StageConfig, sc.Ticker, err)
		}
		if _, exists := u.index[sec.Name()]; exists {
			return nil, NewError(StageConfig, sec.Name(), errors.New("duplicate security short name"))
		}
		u.index[sec.Name()] = sec
		u.Securities = append(u.Securities, sec)
	}

	for _, gc := range c.Groups {
		if gc.Weight < 0 {
			return nil, NewError(StageConfig, gc.Name, fmt.Errorf("negative weight %v", gc.Weight))
		}
		g := &WeightGroup{Name: gc.Name, Weight: decimal.NewFromFloat(gc.Weight)}
		for _, m := range gc.Members {
			if _, ok := u.index[m]; !ok {
				return nil, NewError(StageConfig, m, fmt.Errorf("%w in weight group %s", ErrUnknownSecurity, gc.Name))
			}
			if other, ok := u.groupOf[m]; ok {
				return nil, NewError(StageConfig, m, fmt.Errorf("%w: %s and %s", ErrAmbiguousGroup, other, gc.Name))
			}
			u.groupOf[m] = gc.Name
			g.Members = append(g.Members, m)
		}
		u.Groups = append(u.Groups, g)
	}
	if len(u.Groups) > 0 {
		total := decimal.Zero
		for _, g := range u.Groups {
			total = total.Add(g.Weight)
		}
		if !total.Equal(hundred) {
			log.WithField("total", total).Warn("weight group targets do not sum to 100")
		}
		for _, s := range u.Securities {
			if _, ok := u.groupOf[s.Name()]; !ok {
				log.WithField("security", s.Name()).Warn("security belongs to no weight group")
			}
		}
	}

	for _, lc := range c.Ledgers {
		src, err := c.ledgerSource(lc)
		if err != nil {
			return nil, NewError(StageConfig, lc.File, err)
		}
		u.Ledgers = append(u.Ledgers, src)
	}
	return u, nil
}

func (c *Config) ledgerSource(lc LedgerConfig) (LedgerSource, error) {
	src := LedgerSource{
		Path:           resolve(c.DataPath, lc.File),
		Layout:         lc.Layout,
		DateColumn:     lc.DateColumn,
		SecurityColumn: lc.SecurityColumn,
		CountColumn:    lc.CountColumn,
		PaymentColumn:  lc.PaymentColumn,
		FeeColumn:      lc.FeeColumn,
	}
	if src.Layout == "" {
		src.Layout = LayoutWide
	}
	switch src.Layout {
	case LayoutWide:
	case LayoutLong:
		if src.SecurityColumn == "" || src.CountColumn == "" {
			return src, errors.New("long layout requires security_column and count_column")
		}
	default:
		return src, fmt.Errorf("unknown layout %q", src.Layout)
	}
	if src.PaymentColumn == "" {
		return src, errors.New("missing payment_column")
	}
	var ok bool
	if src.PaymentCurrency, ok = c.PaymentCurrencies[src.PaymentColumn]; !ok {
		return src, fmt.Errorf("%w for payment column %q", ErrUnknownCurrency, src.PaymentColumn)
	}
	if err := ValidateCurrency(src.PaymentCurrency); err != nil {
		return src, err
	}
	if src.FeeColumn != "" {
		if src.FeeCurrency, ok = c.FeeCurrencies[src.FeeColumn]; !ok {
			return src, fmt.Errorf("%w for fee column %q", ErrUnknownCurrency, src.FeeColumn)
		}
		if err := ValidateCurrency(src.FeeCurrency); err != nil {
			return src, err
		}
	}
	return src, nil
}

// Security returns the security with that short name.
func (u *Universe) Security(name string) (*Security, bool) {
	s, ok := u.index[name]
	return s, ok
}

// GroupOf returns the weight group of a security, if any.
func (u *Universe) GroupOf(name string) (string, bool) {
	g, ok := u.groupOf[name]
	return g, ok
}

// Range is the analysis period.
func (u *Universe) Range() date.Range { return date.Range{From: u.Start, To: u.End} }

// Currencies returns every currency used by securities and ledgers, sorted.
func (u *Universe) Currencies() []string {
	var res []string
	add := func(c string) {
		if c != "" && !slices.Contains(res, c) {
			res = append(res, c)
		}
	}
	for _, s := range u.Securities {
		add(s.Currency())
	}
	for _, l := range u.Ledgers {
		add(l.PaymentCurrency)
		add(l.FeeCurrency)
	}
	slices.Sort(res)
	return res
}

// Pairs returns the currency pairs to fetch to convert every currency into the
// reporting currency. The identity pair is never part of it.
func (u *Universe) Pairs() []CurrencyPair {
	var res []CurrencyPair
	for _, c := range u.Currencies() {
		if c != u.Currency {
			res = append(res, pair(c, u.Currency))
		}
	}
	return res
}
