package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/valuation/chart"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

type plotCmd struct {
	pipeline
	dir string
}

func (*plotCmd) Name() string     { return "plot" }
func (*plotCmd) Synopsis() string { return "write the portfolio charts as PNG files" }
func (*plotCmd) Usage() string {
	return `pfv plot [-market <file>] [-o <dir>]

  Writes, for every security, the value and expense, the profit and the unit
  price since inception, and for the portfolio, the profit, the value and
  expense and the drawdown. See 'pfv topic charts'.

  Charts are written into plots_path from the configuration unless -o is set.
`
}

func (c *plotCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.dir, "o", "", "Directory to write the charts into. Overrides plots_path.")
}

func (c *plotCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	v, err := c.valuate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error valuing the portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	dir := c.dir
	if dir == "" {
		dir = c.config.PlotsPath
	}
	files, err := chart.WriteAll(dir, v, logrus.StandardLogger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing charts: %v\n", err)
		return subcommands.ExitFailure
	}
	for _, file := range files {
		fmt.Println(file)
	}
	return subcommands.ExitSuccess
}
