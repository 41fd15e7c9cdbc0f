package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/valuation/agent"
	"github.com/etnz/valuation/renderer"
	"github.com/google/subcommands"
	"google.golang.org/genai"
)

// assistCmd is the subcommand for the AI assistant.
type assistCmd struct {
	pipeline
}

func (*assistCmd) Name() string     { return "assist" }
func (*assistCmd) Synopsis() string { return "discuss the portfolio report with the AI assistant" }
func (*assistCmd) Usage() string {
	return `pfv assist [-market <file>] [<prompt>...]

  Values the portfolio and starts an interactive session with the AI assistant.
  The assistant reads the report and the daily history of the securities.

  Requires GEMINI_API_KEY (or GOOGLE_API_KEY).
`
}

func (c *assistCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
}

func (c *assistCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var prompts []string
	if f.NArg() > 0 {
		prompts = append(prompts, strings.Join(f.Args(), " "))
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

	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing Gemini's client:", err)
		return subcommands.ExitFailure
	}

	a := agent.New(os.Stdout, os.Stdin, agent.NewTrader(), agent.NewAnalyst(v, renderer.ReportMarkdown(r)))
	a.Format = formatMarkdown

	if err := a.Run(ctx, client, prompts...); err != nil {
		fmt.Fprintln(os.Stderr, "Agent failed:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
