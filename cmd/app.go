// Package cmd implements the pfv subcommands.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/valuation"
	"github.com/etnz/valuation/csvledger"
	"github.com/etnz/valuation/eodhd"
	"github.com/etnz/valuation/renderer"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "portfolio.toml", "Path to the portfolio configuration file (TOML)")
var verbose = flag.Bool("v", false, "Log debug messages")
var quiet = flag.Bool("q", false, "Log errors only")

// Commands lists every pfv subcommand.
var Commands = []subcommands.Command{
	&reportCmd{},
	&historyCmd{},
	&plotCmd{},
	&fetchCmd{},
	&checkCmd{},
	&topicCmd{},
	&assistCmd{},
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	for _, cmd := range Commands {
		c.Register(cmd, "")
	}
}

// SetupLogging applies the -v and -q flags. It must be called after flag.Parse.
func SetupLogging() {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	switch {
	case *quiet:
		logrus.SetLevel(logrus.ErrorLevel)
	case *verbose:
		logrus.SetLevel(logrus.DebugLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// pipeline loads the configuration, the ledgers and the market data, and
// values the portfolio. Subcommands embed it to share the -market flag.
type pipeline struct {
	market string

	config   *valuation.Config
	universe *valuation.Universe
	ledger   []valuation.Transaction
}

func (p *pipeline) setFlags(f *flag.FlagSet) {
	f.StringVar(&p.market, "market", "", "Read market data from this JSONL file instead of the provider. Overrides market_file.")
}

// loadLedger reads the configuration and every ledger file.
func (p *pipeline) loadLedger() error {
	config, err := valuation.LoadConfig(*configFile)
	if err != nil {
		return err
	}
	u, err := config.Universe(logrus.StandardLogger())
	if err != nil {
		return err
	}
	txs, err := csvledger.LoadAll(u, logrus.StandardLogger())
	if err != nil {
		return err
	}
	p.config, p.universe, p.ledger = config, u, txs
	return nil
}

// provider returns the configured market data provider.
func (p *pipeline) provider() (*eodhd.Client, error) {
	pc := p.config.Provider
	if pc.Name != "eodhd" {
		return nil, valuation.NewError(valuation.StageConfig, "provider", fmt.Errorf("unsupported provider %q", pc.Name))
	}
	if pc.APIKey == "" {
		return nil, valuation.NewError(valuation.StageConfig, "provider", fmt.Errorf("missing api key, set EODHD_API_KEY"))
	}
	opts := []eodhd.Option{
		eodhd.WithPriceField(p.universe.PriceField),
		eodhd.WithRateLimit(pc.RateLimit),
		eodhd.WithLogger(logrus.StandardLogger()),
	}
	if pc.Cache {
		opts = append(opts, eodhd.WithDiskCache(filepath.Join(p.config.DataPath, "cache")))
	}
	return eodhd.NewClient(pc.APIKey, opts...), nil
}

// fetch fetches the market data from the provider.
func (p *pipeline) fetch(ctx context.Context) (*valuation.MarketData, error) {
	client, err := p.provider()
	if err != nil {
		return nil, err
	}
	return valuation.FetchMarketData(ctx, client, p.universe, logrus.StandardLogger())
}

// marketData reads the market file if one is set, and fetches otherwise.
func (p *pipeline) marketData(ctx context.Context) (*valuation.MarketData, error) {
	file := p.market
	if file == "" {
		file = p.config.MarketFile
	}
	if file == "" {
		return p.fetch(ctx)
	}
	logrus.WithField("file", file).Debug("reading market data")
	f, err := os.Open(file)
	if err != nil {
		return nil, valuation.NewError(valuation.StageFetch, file, err)
	}
	defer f.Close()
	m, err := valuation.ImportMarketData(f)
	if err != nil {
		return nil, valuation.NewError(valuation.StageFetch, file, err)
	}
	return m, nil
}

// valuate runs the whole pipeline and returns the valuation restricted to the
// analysis period.
func (p *pipeline) valuate(ctx context.Context) (*valuation.Valuation, error) {
	if err := p.loadLedger(); err != nil {
		return nil, err
	}
	m, err := p.marketData(ctx)
	if err != nil {
		return nil, err
	}
	v, err := valuation.Valuate(p.universe, m, p.ledger, logrus.StandardLogger())
	if err != nil {
		return nil, err
	}
	return v.Window(p.universe.Range()), nil
}

// report builds the report of v, with the weights and goal when groups are
// configured.
func (p *pipeline) report(v *valuation.Valuation) (*renderer.Report, error) {
	r := &renderer.Report{
		Title:       fmt.Sprintf("Portfolio %s", v.Range()),
		Status:      valuation.NewStatusReport(v),
		Performance: valuation.NewPerformanceReport(v),
	}
	if len(p.universe.Groups) == 0 {
		return r, nil
	}
	w, err := valuation.NewWeights(v, p.universe.Groups)
	if err != nil {
		return nil, err
	}
	g, err := valuation.NewGoal(v, p.universe.Groups)
	if err != nil {
		return nil, err
	}
	r.Weights, r.Goal = w, g
	return r, nil
}

// formatMarkdown renders md for the terminal, or returns it unchanged when it
// cannot.
func formatMarkdown(md string) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		logrus.WithError(err).Debug("cannot create markdown renderer")
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		logrus.WithError(err).Debug("cannot render markdown")
		return md
	}
	return out
}

func printMarkdown(md string) {
	fmt.Print(formatMarkdown(md))
}
