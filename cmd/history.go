package cmd

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/renderer"
	"github.com/google/subcommands"
)

type historyCmd struct {
	pipeline
	csv bool
}

func (*historyCmd) Name() string { return "history" }
func (*historyCmd) Synopsis() string {
	return "display the daily history of a security or of the portfolio"
}
func (*historyCmd) Usage() string {
	return `pfv history [-csv] [-market <file>] [<security>]

  Displays the daily count, price, value, expense and profit of a security, or
  the daily value, expense, profit and drawdown of the portfolio when no
  security is given.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.BoolVar(&c.csv, "csv", false, "Print the history as CSV.")
}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "Error: at most one security can be given")
		return subcommands.ExitUsageError
	}
	v, err := c.valuate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error valuing the portfolio: %v\n", err)
		return subcommands.ExitFailure
	}

	if f.NArg() == 0 {
		if c.csv {
			err = writePortfolioCSV(os.Stdout, v)
		} else {
			printMarkdown(renderer.PortfolioHistoryMarkdown(v))
		}
	} else {
		s, ok := v.Series(f.Arg(0))
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: %v %q\n", valuation.ErrUnknownSecurity, f.Arg(0))
			return subcommands.ExitUsageError
		}
		if c.csv {
			err = writeSecurityCSV(os.Stdout, s)
		} else {
			printMarkdown(renderer.SecurityHistoryMarkdown(s, v.Currency))
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing history: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func writeSecurityCSV(w io.Writer, s *valuation.SecuritySeries) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"date", "count", "price", "value", "expense", "profit"})
	for i, day := range s.Dates {
		st := s.States[i]
		cw.Write([]string{
			day.String(),
			st.Count.String(),
			st.Price.Decimal().String(),
			st.Value.Decimal().String(),
			st.CostBasis.Decimal().String(),
			st.Profit.Decimal().String(),
		})
	}
	cw.Flush()
	return cw.Error()
}

func writePortfolioCSV(w io.Writer, v *valuation.Valuation) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"date", "value", "expense", "profit", "drawdown"})
	for _, day := range v.Days {
		p := day.Portfolio
		cw.Write([]string{
			day.Date.String(),
			p.Value.Decimal().String(),
			p.Expense.Decimal().String(),
			p.Profit.Decimal().String(),
			p.Drawdown.String(),
		})
	}
	cw.Flush()
	return cw.Error()
}
