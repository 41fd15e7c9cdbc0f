// Package chart draws the valuation series as PNG files.
package chart

import (
	"bytes"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/date"
	"github.com/sirupsen/logrus"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Chart file name suffixes and portfolio chart names.
const (
	ValueAndExpenseSuffix = "_VALUE_AND_EXPENSE"
	ProfitSuffix          = "_PROFIT"
	SinceInceptionSuffix  = "_SINCE_INCEPTION"

	PortfolioProfit          = "PORTFOLIO" + ProfitSuffix
	PortfolioValueAndExpense = "PORTFOLIO" + ValueAndExpenseSuffix
	PortfolioDrawdown        = "PORTFOLIO_DRAWDOWN"
)

var (
	expenseColor = drawing.ColorFromHex("0000cd") // mediumblue
	valueColor   = drawing.ColorFromHex("ff8c00") // darkorange
	profitColor  = drawing.ColorFromHex("00008b") // darkblue
	ddColor      = drawing.ColorFromHex("696969") // dimgray
	priceColor   = drawing.ColorFromHex("006400") // darkgreen
)

// line is one plotted series.
type line struct {
	name   string
	color  drawing.Color
	days   []date.Date
	values []float64
}

func (l *line) add(on date.Date, v float64) {
	l.days = append(l.days, on)
	l.values = append(l.values, v)
}

// plot is one chart to render.
type plot struct {
	title    string
	yLabel   string
	lines    []*line
	zeroLine bool
}

// plots returns every chart of v by file name (without extension).
func plots(v *valuation.Valuation) map[string]*plot {
	res := make(map[string]*plot)
	yLabel := fmt.Sprintf("Value [%s]", v.Currency)

	for _, sec := range v.Securities {
		s, _ := v.Series(sec.Name())
		expense := &line{name: "Expense value", color: expenseColor}
		value := &line{name: "Real value", color: valueColor}
		profit := &line{color: profitColor}
		price := &line{color: priceColor}
		for i, on := range s.Dates {
			st := s.States[i]
			expense.add(on, st.CostBasis.Float())
			value.add(on, st.Value.Float())
			// profit since the first buy only
			if st.CostBasis.IsPositive() {
				profit.add(on, st.Profit.Float())
			}
			// zero means not yet priced
			if !st.Price.IsZero() {
				price.add(on, st.Price.Float())
			}
		}
		name := sec.Name()
		res[name+ValueAndExpenseSuffix] = &plot{title: name + ValueAndExpenseSuffix, yLabel: yLabel, lines: []*line{expense, value}}
		res[name+ProfitSuffix] = &plot{title: name + ProfitSuffix, yLabel: yLabel, lines: []*line{profit}, zeroLine: true}
		res[name+SinceInceptionSuffix] = &plot{title: name + SinceInceptionSuffix, yLabel: yLabel, lines: []*line{price}}
	}

	expense := &line{name: "Expense value", color: expenseColor}
	value := &line{name: "Real value", color: valueColor}
	profit := &line{color: profitColor}
	drawdown := &line{color: ddColor}
	for _, d := range v.Days {
		p := d.Portfolio
		expense.add(d.Date, p.Expense.Float())
		value.add(d.Date, p.Value.Float())
		profit.add(d.Date, p.Profit.Float())
		drawdown.add(d.Date, float64(p.DrawdownPercent()))
	}
	res[PortfolioValueAndExpense] = &plot{title: PortfolioValueAndExpense, yLabel: yLabel, lines: []*line{expense, value}}
	res[PortfolioProfit] = &plot{title: PortfolioProfit, yLabel: yLabel, lines: []*line{profit}, zeroLine: true}
	res[PortfolioDrawdown] = &plot{title: PortfolioDrawdown, yLabel: "Drawdown [%]", lines: []*line{drawdown}, zeroLine: true}
	return res
}

// WriteAll renders every chart of v as a PNG file in dir, creating it if
// needed, and returns the written files. Charts with less than two points are
// skipped.
func WriteAll(dir string, v *valuation.Valuation, log logrus.FieldLogger) ([]string, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, valuation.NewError(valuation.StageRendering, dir, err)
	}
	all := plots(v)
	names := slices.Sorted(maps.Keys(all))
	var files []string
	for _, name := range names {
		p := all[name]
		if len(p.lines[0].days) < 2 {
			log.WithField("chart", name).Debug("not enough points, skipped")
			continue
		}
		var buf bytes.Buffer
		if err := p.render(&buf); err != nil {
			return files, valuation.NewError(valuation.StageRendering, name, err)
		}
		file := filepath.Join(dir, name+".png")
		if err := os.WriteFile(file, buf.Bytes(), 0o644); err != nil {
			return files, valuation.NewError(valuation.StageRendering, name, err)
		}
		files = append(files, file)
	}
	return files, nil
}

func times(days []date.Date) []time.Time {
	res := make([]time.Time, len(days))
	for i, d := range days {
		res[i] = d.Time()
	}
	return res
}

// render draws p as a PNG into buf.
func (p *plot) render(buf *bytes.Buffer) error {
	first := p.lines[0]
	title := fmt.Sprintf("%s %s - %s", p.title, first.days[0], first.days[len(first.days)-1])

	lo, hi := first.values[0], first.values[0]
	var series []chart.Series
	for _, l := range p.lines {
		for _, v := range l.values {
			lo, hi = min(lo, v), max(hi, v)
		}
		series = append(series, chart.TimeSeries{
			Name:    l.name,
			Style:   chart.Style{StrokeColor: l.color, StrokeWidth: 2},
			XValues: times(l.days),
			YValues: l.values,
		})
	}
	if p.zeroLine {
		lo, hi = min(lo, 0), max(hi, 0)
		series = append(series, chart.TimeSeries{
			Style: chart.Style{
				StrokeColor:     drawing.ColorBlack,
				StrokeWidth:     1,
				StrokeDashArray: []float64{5.0, 3.0},
			},
			XValues: []time.Time{first.days[0].Time(), first.days[len(first.days)-1].Time()},
			YValues: []float64{0, 0},
		})
	}

	graph := chart.Chart{
		Title:  title,
		Width:  1000,
		Height: 600,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			Name: "Date",
			ValueFormatter: func(v any) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("2006-01")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			Name: p.yLabel,
			ValueFormatter: func(v any) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Series: series,
	}
	// a flat series has no range.
	if lo == hi {
		graph.YAxis.Range = &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
	if len(p.lines) > 1 {
		graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}
	}
	return graph.Render(chart.PNG, buf)
}
