package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type checkCmd struct {
	pipeline
}

func (*checkCmd) Name() string     { return "check" }
func (*checkCmd) Synopsis() string { return "validate the configuration and the ledger files" }
func (*checkCmd) Usage() string {
	return `pfv check

  Loads the configuration and every ledger file without fetching market data,
  and reports the first error found. Warnings are logged.
`
}

func (c *checkCmd) SetFlags(f *flag.FlagSet) {}

func (c *checkCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.loadLedger(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	u := c.universe
	fmt.Printf("%s: %d securities, %d weight groups, %d ledgers, %d transactions\n",
		*configFile, len(u.Securities), len(u.Groups), len(u.Ledgers), len(c.ledger))
	fmt.Printf("analysis period %s, reporting currency %s\n", u.Range(), u.Currency)
	return subcommands.ExitSuccess
}
