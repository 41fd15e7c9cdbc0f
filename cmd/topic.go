package cmd

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/valuation/docs"
	"github.com/google/subcommands"
	md "github.com/nao1215/markdown"
)

type topicCmd struct {
	list bool
	raw  bool
}

func (*topicCmd) Name() string     { return "topic" }
func (*topicCmd) Synopsis() string { return "show the documentation" }
func (*topicCmd) Usage() string {
	return `pfv topic [-list] [-raw] [<topic>...]

  Shows the documentation topics, the readme when none is given, every topic
  for '*'.
`
}

func (c *topicCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.list, "list", false, "List the topics and their summary.")
	f.BoolVar(&c.raw, "raw", false, "Print raw markdown instead of rendering it for the terminal.")
}

func (c *topicCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var doc string
	var err error
	if c.list {
		doc, err = topicIndex()
	} else {
		doc, err = docs.Get(f.Args()...)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading the documentation: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.raw {
		fmt.Print(doc)
		return subcommands.ExitSuccess
	}
	printMarkdown(doc)
	return subcommands.ExitSuccess
}

// topicIndex renders the documentation index as a table.
func topicIndex() (string, error) {
	index, err := docs.Index()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft},
		Header:    []string{"Topic", "Summary"},
	}
	for _, t := range index {
		table.Rows = append(table.Rows, []string{t.Name, t.Summary})
	}
	doc.Table(table)
	return doc.String(), nil
}
