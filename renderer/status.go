package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/valuation"
	md "github.com/nao1215/markdown"
)

// StatusMarkdown renders the count, expense, value and profit of every
// security on the last day.
func StatusMarkdown(r *valuation.StatusReport) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H2(fmt.Sprintf("Portfolio Status on %s [%s]", r.Date, r.Currency))
	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Security", "Count", "Expense", "Value", "Profit", "Profit [%]"},
		Rows:   [][]string{},
	}
	for _, row := range r.Rows {
		table.Rows = append(table.Rows, []string{
			row.Name,
			row.Count.String(),
			row.CostBasis.String(),
			row.Value.String(),
			row.Profit.SignedString(),
			row.ProfitPercent().SignedString(),
		})
	}
	doc.Table(table)
	return doc.String()
}

// PerformanceMarkdown renders the portfolio value, expense and profit on the
// last day of the period.
func PerformanceMarkdown(r *valuation.PerformanceReport) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H2(fmt.Sprintf("Portfolio Performance %s [%s]", r.Range, r.Currency))
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{"", "Value"},
		Rows: [][]string{
			{"Value", r.Value.String()},
			{"Expense", r.Expense.String()},
			{"Profit", r.Profit.SignedString()},
			{"Profit [%]", r.ProfitPercent().SignedString()},
			{"Drawdown", r.DrawdownPercent().SignedString()},
			{"Max. Drawdown", r.MaxDrawdown.SignedString()},
		},
	})
	return doc.String()
}
