package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/date"
	"github.com/etnz/valuation/docs"
	"github.com/etnz/valuation/renderer"
	"google.golang.org/genai"
)

// creates the facilitator
func newFacilitator(experts ...*Expert) *Expert {
	return &Expert{
		Name:        "Facilitator",
		Description: ``,
		ModelName:   model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			As a facilitator you are in charge of the conversation and solving the user's request.

			Learn about the expert's skill that you can get from the Tools to ask them questions.
			They are at your service and 100% dedicated to you, they keep context of your previous questions.

			The user owns a long term portfolio of funds bought through several brokers. He wants to
			understand its performance, and how to rebalance it with his next purchases.

			Devise a plan of questions to ask to each experts and come up with the best reponse to the user's request.
			The user will assume that you know about his securities, ask the Analyst first to understand what they are.
		`}}},
		},
		Library: NewLibrary(experts),
	}
}

// NewTrader returns an expert grounded with Google Search.
func NewTrader() *Expert {
	return &Expert{
		Name: "Trader",
		Description: `This is an expert trader,
		Very well aware of all the financial products and institutions,
		about the latest news about the different funds or companies.
		Ask the Trader whenever you need recent or grounding information.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are a expert in Trading, you can search and find about anything related to
			financial institutions, companies, markets, funds etc. You Leverage Google Search to
			ground your assertions in a solid truth.
			You can get the latests news too, and you know how to relate them to the user's request.
				`}}},
		},
	}
}

// NewAnalyst returns the expert of the user's portfolio. report is the
// rendered report of v, the analyst starts with it.
func NewAnalyst(v *valuation.Valuation, report string) *Expert {
	lib := AnalystFunctions(v)
	return &Expert{
		Name: "Analyst",
		Description: fmt.Sprintf(`This is the Analyst. He knows the user's portfolio of %s: its securities, their value,
		expense and profit every day, the current weights and the purchases that restore the target weights.`,
			strings.Join(securityNames(v), ", ")),
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: analystInstruction(v, report)}}},
		},
		Library: NewLibrary(lib),
	}
}

// analystInstruction describes the portfolio of v and its report on the
// last day, the tools cover the rest.
func analystInstruction(v *valuation.Valuation, report string) string {
	var b strings.Builder
	b.WriteString("You are the analyst of the user's portfolio.\n")
	r := v.Range()
	fmt.Fprintf(&b, "It is valued in %s, every day from %s to %s. All amounts are in %s.\n", v.Currency, r.From, r.To, v.Currency)

	b.WriteString("\nIts securities, by the short name used everywhere:\n")
	for _, s := range v.Securities {
		fmt.Fprintf(&b, "  - %s: ticker %s, quoted in %s\n", s.Name(), s.Ticker(), s.Currency())
	}

	if last, ok := v.Last(); ok {
		p := last.Portfolio
		fmt.Fprintf(&b, "\nOn %s the portfolio is worth %s for an expense of %s, a profit of %s (%s), and a drawdown of %s%%.\n",
			last.Date, p.Value, p.Expense, p.Profit.SignedString(), p.ProfitPercent().SignedString(),
			p.Drawdown.Shift(2).StringFixed(2))
	}
	if report != "" {
		fmt.Fprintf(&b, "\nThe report of the last day, quote it rather than recomputing it:\n\n%s\n", report)
	}

	b.WriteString(`
Use the tools for anything else:
  - the daily history of a security or of the whole portfolio, over any period
  - the documentation of the tool computing the figures
Be precise with figures, quote dates.
`)
	return b.String()
}

func securityNames(v *valuation.Valuation) []string {
	names := make([]string, 0, len(v.Securities))
	for _, s := range v.Securities {
		names = append(names, s.Name())
	}
	return names
}

// Func implements a simple Function
type Func struct {
	Decl *genai.FunctionDeclaration
	Func func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse
}

func (f *Func) Declaration() *genai.FunctionDeclaration { return f.Decl }
func (f *Func) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	return f.Func(ctx, id, args)
}

// AnalystFunctions returns the tools of the analyst over v.
func AnalystFunctions(v *valuation.Valuation) []Function {
	return []Function{
		&Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "History",
				Description: "History returns the daily history of a security, or of the whole portfolio, as a markdown table.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"security": {Type: genai.TypeString, Description: "The security short name, empty for the whole portfolio."},
						"from":     {Type: genai.TypeString, Description: "First day, YYYY-MM-DD. Defaults to the first day."},
						"to":       {Type: genai.TypeString, Description: "Last day, YYYY-MM-DD. Defaults to the last day."},
					},
				},
				Response: &genai.Schema{Type: genai.TypeString},
			},
			Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
				out, err := history(v, args)
				if err != nil {
					return failure(id, "History", err)
				}
				return success(id, "History", out)
			},
		},
		&Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "Documentation",
				Description: "Documentation returns a documentation topic of the tool computing the portfolio: config, ledger, market, report, rebalancing or charts.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"topic": {Type: genai.TypeString, Description: "The topic, '*' for all."},
					},
					Required: []string{"topic"},
				},
				Response: &genai.Schema{Type: genai.TypeString},
			},
			Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
				topic, _ := args["topic"].(string)
				out, err := docs.Get(topic)
				if err != nil {
					return failure(id, "Documentation", err)
				}
				return success(id, "Documentation", out)
			},
		},
	}
}

func history(v *valuation.Valuation, args map[string]any) (string, error) {
	r := v.Range()
	for key, day := range map[string]*date.Date{"from": &r.From, "to": &r.To} {
		s, _ := args[key].(string)
		if s == "" {
			continue
		}
		d, err := date.Parse(s)
		if err != nil {
			return "", fmt.Errorf("argument %q: %w", key, err)
		}
		*day = d
	}
	w := v.Window(r)
	name, _ := args["security"].(string)
	if name == "" {
		return renderer.PortfolioHistoryMarkdown(w), nil
	}
	s, ok := w.Series(name)
	if !ok {
		return "", fmt.Errorf("unknown security %q", name)
	}
	return renderer.SecurityHistoryMarkdown(s, w.Currency), nil
}
