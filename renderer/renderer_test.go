package renderer

import (
	"strings"
	"testing"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/date"
	"github.com/shopspring/decimal"
)

// snapshot returns a two day valuation of three securities in EUR.
func snapshot(t *testing.T) *valuation.Valuation {
	t.Helper()
	v := &valuation.Valuation{Currency: "EUR"}
	prices := map[string]float64{"VWCE": 100, "VAGP": 20, "4GLD": 7}
	counts := map[string]float64{"VWCE": 6, "VAGP": 15, "4GLD": 10}
	names := []string{"VWCE", "VAGP", "4GLD"}
	for _, name := range names {
		s, err := valuation.NewSecurity(name+".DE", "EUR", "")
		if err != nil {
			t.Fatal(err)
		}
		v.Securities = append(v.Securities, s)
	}
	for i, on := range []date.Date{date.New(2024, 3, 1), date.New(2024, 3, 2)} {
		day := valuation.Day{Date: on}
		total := valuation.M(0, "EUR")
		for _, name := range names {
			price := valuation.M(prices[name], "EUR")
			count := valuation.Q(counts[name])
			value := price.Mul(count)
			cost := valuation.M(prices[name]*counts[name]*0.9, "EUR")
			day.Securities = append(day.Securities, valuation.SecurityState{
				Count: count, Price: price, Value: value, CostBasis: cost, Profit: value.Sub(cost),
			})
			total = total.Add(value)
		}
		expense := valuation.M(870, "EUR")
		day.Portfolio = valuation.PortfolioState{Value: total, Expense: expense, Profit: total.Sub(expense)}
		if i == 1 {
			day.Portfolio.Drawdown = decimal.Zero
		}
		v.Days = append(v.Days, day)
	}
	return v
}

func groups() []*valuation.WeightGroup {
	return []*valuation.WeightGroup{
		{Name: "STOCKS", Weight: decimal.NewFromInt(50), Members: []string{"VWCE"}},
		{Name: "BONDS", Weight: decimal.NewFromInt(30), Members: []string{"VAGP"}},
		{Name: "GOLD", Weight: decimal.NewFromInt(20), Members: []string{"4GLD"}},
	}
}

func assertContains(t *testing.T, doc string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(doc, w) {
			t.Errorf("markdown does not contain %q:\n%s", w, doc)
		}
	}
}

func TestStatusMarkdown(t *testing.T) {
	doc := StatusMarkdown(valuation.NewStatusReport(snapshot(t)))
	assertContains(t, doc,
		"Portfolio Status on 2024-03-02 [EUR]",
		"Profit [%]",
		"VWCE", "€600.00", "€540.00", "+€60.00", "+11.11%",
	)
}

func TestPerformanceMarkdown(t *testing.T) {
	doc := PerformanceMarkdown(valuation.NewPerformanceReport(snapshot(t)))
	assertContains(t, doc,
		"Portfolio Performance 2024-03-01 - 2024-03-02 [EUR]",
		"€970.00", "€870.00", "+€100.00", "+11.49%",
	)
}

func TestWeightsAndGoalMarkdown(t *testing.T) {
	v := snapshot(t)
	w, err := valuation.NewWeights(v, groups())
	if err != nil {
		t.Fatal(err)
	}
	assertContains(t, WeightsMarkdown(w), "Deviation [% pts]", "STOCKS", "61.86", " 11.86", "-12.78")

	g, err := valuation.NewGoal(v, groups())
	if err != nil {
		t.Fatal(err)
	}
	assertContains(t, GoalMarkdown(g),
		"SUM", "€1,200.00", "€970.00",
		"VAGP: 3.00", "4GLD: 24.29", "VWCE: 0.00",
		"Current Count", "4GLD: 10",
	)

	doc := ReportMarkdown(&Report{Title: "My Portfolio", Weights: w, Goal: g})
	assertContains(t, doc, "# My Portfolio", "Current Weights", "Goal on 2024-03-02")
	if strings.Contains(doc, "Portfolio Status") {
		t.Errorf("ReportMarkdown() rendered a status section that was not set")
	}
}

func TestHistoryMarkdown(t *testing.T) {
	v := snapshot(t)
	s, ok := v.Series("VAGP")
	if !ok {
		t.Fatal("no VAGP series")
	}
	assertContains(t, SecurityHistoryMarkdown(s, "EUR"), "History for VAGP [EUR]", "2024-03-01", "2024-03-02", "€300.00")
	assertContains(t, PortfolioHistoryMarkdown(v), "Portfolio History [EUR]", "Drawdown", "€970.00")
}
