package renderer

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/etnz/valuation"
	md "github.com/nao1215/markdown"
)

// WeightsMarkdown renders the current share of every weight group against its target.
func WeightsMarkdown(w *valuation.Weights) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H2(fmt.Sprintf("Current Weights on %s [%s]", w.Date, w.Total.Currency()))
	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Group", "Target [%]", "Share [%]", "Deviation [% pts]", "Ideal Value", "Current Value"},
		Rows:   [][]string{},
	}
	for _, g := range w.Groups {
		table.Rows = append(table.Rows, []string{
			g.Name,
			g.Target.StringFixed(2),
			g.Share.StringFixed(2),
			points(g.Deviation.InexactFloat64()),
			g.IdealValue.String(),
			g.Value.String(),
		})
	}
	doc.Table(table)
	return doc.String()
}

// GoalMarkdown renders the purchases restoring the target weights, one column
// per group and a SUM column.
func GoalMarkdown(g *valuation.Goal) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H2(fmt.Sprintf("Goal on %s [%s]", g.Date, g.IdealTotal.Currency()))
	doc.PlainText(fmt.Sprintf("The %s group is the most over-allocated, one percentage point is worth %s.", md.Bold(g.Anchor), g.PointValue))

	header := []string{""}
	value := []string{"Value"}
	current := []string{"Current Value"}
	toBuy := []string{"Count to Buy"}
	count := []string{"Current Count"}
	align := []md.TableAlignment{md.AlignLeft}
	for _, gg := range g.Groups {
		header = append(header, gg.Name)
		value = append(value, gg.IdealValue.String())
		current = append(current, gg.CurrentValue.String())
		var buy, have []string
		for _, s := range gg.Securities {
			buy = append(buy, fmt.Sprintf("%s: %s", s.Name, s.ToBuy.StringFixed(2)))
			have = append(have, fmt.Sprintf("%s: %s", s.Name, s.Count))
		}
		toBuy = append(toBuy, strings.Join(buy, ", "))
		count = append(count, strings.Join(have, ", "))
		align = append(align, md.AlignRight)
	}
	header = append(header, "SUM")
	value = append(value, g.IdealTotal.String())
	current = append(current, g.CurrentTotal.String())
	toBuy = append(toBuy, "")
	count = append(count, "")
	align = append(align, md.AlignRight)

	doc.Table(md.TableSet{
		Alignment: align,
		Header:    header,
		Rows:      [][]string{value, current, toBuy, count},
	})
	return doc.String()
}

// points formats a deviation, with a leading space for non negative values
// so that columns line up.
func points(v float64) string {
	if v < 0 {
		return fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprintf(" %.2f", v)
}
