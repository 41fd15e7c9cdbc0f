package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/valuation"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

type fetchCmd struct {
	pipeline
	output string
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "fetch market data from the provider into a market file" }
func (*fetchCmd) Usage() string {
	return `pfv fetch [-o <file>]

  Fetches the daily prices of every configured security and the exchange rates
  of every currency into the reporting currency, from 14 days before the first
  transaction date until the end date.

  The market data is written in the JSONL market format, see 'pfv topic market'.
  Defaults to market_file from the configuration, or 'market.jsonl'.
`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Market file to write.")
}

func (c *fetchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.loadLedger(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading the configuration: %v\n", err)
		return subcommands.ExitFailure
	}
	m, err := c.fetch(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching market data: %v\n", err)
		return subcommands.ExitFailure
	}

	output := c.output
	if output == "" {
		output = c.config.MarketFile
	}
	if output == "" {
		output = "market.jsonl"
	}
	if err := writeMarketFile(output, m); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing market data: %v\n", err)
		return subcommands.ExitFailure
	}
	logrus.WithField("file", output).Infof("fetched %d securities and %d currency pairs", len(m.Symbols()), len(m.CurrencyPairs()))
	return subcommands.ExitSuccess
}

func writeMarketFile(name string, m *valuation.MarketData) error {
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := valuation.ExportMarketData(file, m); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
