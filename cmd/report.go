package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/valuation/renderer"
	"github.com/google/subcommands"
)

type reportCmd struct {
	pipeline
	raw bool
}

func (*reportCmd) Name() string { return "report" }
func (*reportCmd) Synopsis() string {
	return "print the status, weights, goal and performance of the portfolio"
}
func (*reportCmd) Usage() string {
	return `pfv report [-market <file>] [-raw]

  Values the portfolio over the analysis period and prints the status of every
  security on the last day, the current weights, the purchases that restore the
  target weights and the portfolio performance.

  Weights and goal are printed only when weight groups are configured.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.BoolVar(&c.raw, "raw", false, "Print raw markdown instead of rendering it for the terminal.")
}

func (c *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "Error: unexpected arguments %q\n", f.Args())
		return subcommands.ExitUsageError
	}
	v, err := c.valuate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error valuing the portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	r, err := c.report(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing the goal: %v\n", err)
		return subcommands.ExitFailure
	}
	md := renderer.ReportMarkdown(r)
	if c.raw {
		fmt.Print(md)
		return subcommands.ExitSuccess
	}
	printMarkdown(md)
	return subcommands.ExitSuccess
}
