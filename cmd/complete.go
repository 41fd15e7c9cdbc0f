package cmd

import (
	"flag"
	"slices"
	"strings"

	"github.com/etnz/valuation/docs"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion describes the pfv command line for shell completion: global
// flags, subcommands and their flags.
func Completion(global *flag.FlagSet) *complete.Command {
	c := &complete.Command{
		Sub:   make(map[string]*complete.Command, len(Commands)),
		Flags: flagPredictors(global),
	}
	for _, cmd := range Commands {
		f := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
		cmd.SetFlags(f)
		sub := &complete.Command{Flags: flagPredictors(f)}
		if cmd.Name() == "topic" {
			sub.Args = topicPredictor()
		}
		c.Sub[cmd.Name()] = sub
	}
	for _, name := range []string{"help", "flags"} {
		c.Sub[name] = &complete.Command{Args: predict.Set(subcommandNames())}
	}
	return c
}

func subcommandNames() []string {
	names := make([]string, 0, len(Commands))
	for _, cmd := range Commands {
		names = append(names, cmd.Name())
	}
	slices.Sort(names)
	return names
}

func topicPredictor() complete.Predictor {
	topics, err := docs.Names()
	if err != nil {
		return predict.Nothing
	}
	return predict.Set(topics)
}

// flagPredictors predicts files for file flags, directories for directory
// flags and nothing for the others.
func flagPredictors(f *flag.FlagSet) map[string]complete.Predictor {
	flags := make(map[string]complete.Predictor)
	f.VisitAll(func(fl *flag.Flag) {
		switch {
		case isBool(fl):
			flags[fl.Name] = predict.Nothing
		case fl.Name == "config":
			flags[fl.Name] = predict.Files("*.toml")
		case fl.Name == "market", strings.Contains(fl.Usage, "file"):
			flags[fl.Name] = predict.Files("*.jsonl")
		case strings.Contains(fl.Usage, "Directory"):
			flags[fl.Name] = predict.Dirs("*")
		default:
			flags[fl.Name] = predict.Nothing
		}
	})
	return flags
}

func isBool(fl *flag.Flag) bool {
	b, ok := fl.Value.(interface{ IsBoolFlag() bool })
	return ok && b.IsBoolFlag()
}
