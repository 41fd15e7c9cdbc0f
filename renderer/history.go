package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/valuation"
	md "github.com/nao1215/markdown"
)

// SecurityHistoryMarkdown renders the daily states of one security.
func SecurityHistoryMarkdown(s *valuation.SecuritySeries, currency string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H2(fmt.Sprintf("History for %s [%s]", s.Name, currency))
	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Date", "Count", "Price", "Value", "Expense", "Profit"},
		Rows:   [][]string{},
	}
	for i, day := range s.Dates {
		st := s.States[i]
		table.Rows = append(table.Rows, []string{
			day.String(),
			st.Count.String(),
			st.Price.String(),
			st.Value.String(),
			st.CostBasis.String(),
			st.Profit.SignedString(),
		})
	}
	doc.Table(table)
	return doc.String()
}

// PortfolioHistoryMarkdown renders the daily portfolio states.
func PortfolioHistoryMarkdown(v *valuation.Valuation) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H2(fmt.Sprintf("Portfolio History [%s]", v.Currency))
	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Date", "Value", "Expense", "Profit", "Drawdown"},
		Rows:   [][]string{},
	}
	for _, d := range v.Days {
		p := d.Portfolio
		table.Rows = append(table.Rows, []string{
			d.Date.String(),
			p.Value.String(),
			p.Expense.String(),
			p.Profit.SignedString(),
			p.DrawdownPercent().SignedString(),
		})
	}
	doc.Table(table)
	return doc.String()
}
