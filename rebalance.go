package valuation

import (
	"fmt"

	"github.com/etnz/valuation/date"
	"github.com/shopspring/decimal"
)

// GroupWeight compares the current value of a weight group with its target.
type GroupWeight struct {
	Name       string
	Target     decimal.Decimal // in percent
	Value      Money           // sum of the members' values
	Share      decimal.Decimal // 100 × Value / portfolio value
	Deviation  decimal.Decimal // Share - Target, in percentage points
	IdealValue Money           // portfolio value × Target / 100
}

// Weights is the current allocation of the portfolio per weight group.
type Weights struct {
	Date   date.Date
	Total  Money
	Groups []GroupWeight
}

// groupValues returns each group's value on the last day, skipping members
// that are not part of v.
func groupValues(v *Valuation, groups []*WeightGroup) ([]Money, Day, error) {
	last, ok := v.Last()
	if !ok {
		return nil, last, NewError(StageRebalancing, "", fmt.Errorf("%w: empty valuation", ErrNoPrices))
	}
	values := make([]Money, len(groups))
	for gi, g := range groups {
		values[gi] = M(0, v.Currency)
		for _, name := range g.Members {
			i, ok := v.Index(name)
			if !ok {
				continue
			}
			values[gi] = values[gi].Add(last.Securities[i].Value)
		}
	}
	return values, last, nil
}

// NewWeights computes the share and deviation of every group on the last day of v.
func NewWeights(v *Valuation, groups []*WeightGroup) (*Weights, error) {
	values, last, err := groupValues(v, groups)
	if err != nil {
		return nil, err
	}
	total := last.Portfolio.Value
	w := &Weights{Date: last.Date, Total: total, Groups: make([]GroupWeight, 0, len(groups))}
	for gi, g := range groups {
		share := values[gi].Ratio(total).Mul(hundred)
		w.Groups = append(w.Groups, GroupWeight{
			Name:       g.Name,
			Target:     g.Weight,
			Value:      values[gi],
			Share:      share,
			Deviation:  share.Sub(g.Weight),
			IdealValue: M(total.Decimal().Mul(g.Weight).Div(hundred), v.Currency),
		})
	}
	return w, nil
}

// SecurityGoal is the purchase suggested for one security.
type SecurityGoal struct {
	Name  string
	Price Money    // unit price on the last day
	Count Quantity // current count
	ToBuy Quantity // group shortfall / unit price
}

// GroupGoal is the ideal value of a group once rebalanced.
type GroupGoal struct {
	Name         string
	Target       decimal.Decimal
	IdealValue   Money
	CurrentValue Money
	Shortfall    Money // IdealValue - CurrentValue
	Securities   []SecurityGoal
}

// Goal is a purchase-only plan that restores the target weights.
type Goal struct {
	Date         date.Date
	Anchor       string // the most over-allocated group, fully funded already
	PointValue   Money  // value of one percentage point of the ideal allocation
	Groups       []GroupGoal
	IdealTotal   Money // PointValue × 100
	CurrentTotal Money
}

// NewGoal computes the purchases that bring every group to its target weight
// without selling.
//
// The anchor is the group with the largest deviation relative to its target.
// Its value divided by its target gives the value of one percentage point, and
// every other group is topped up to that point value × its target. Groups with
// a zero target never anchor.
//
// The suggested count for a security is its group's whole shortfall divided
// by the security unit price, so a group of several securities lists, for each
// of them, the count that would close the gap alone.
func NewGoal(v *Valuation, groups []*WeightGroup) (*Goal, error) {
	w, err := NewWeights(v, groups)
	if err != nil {
		return nil, err
	}
	last, _ := v.Last()

	anchor := -1
	var best decimal.Decimal
	for gi, g := range w.Groups {
		if !g.Target.IsPositive() {
			continue
		}
		ratio := g.Deviation.Div(g.Target)
		if anchor < 0 || ratio.GreaterThan(best) {
			anchor, best = gi, ratio
		}
	}
	if anchor < 0 {
		return nil, NewError(StageRebalancing, "weights", ErrNoAnchor)
	}
	a := w.Groups[anchor]

	goal := &Goal{
		Date:         w.Date,
		Anchor:       a.Name,
		PointValue:   M(a.Value.Decimal().Div(a.Target), v.Currency),
		CurrentTotal: w.Total,
		Groups:       make([]GroupGoal, 0, len(groups)),
	}
	goal.IdealTotal = M(goal.PointValue.Decimal().Mul(hundred), v.Currency)

	for gi, g := range groups {
		gw := w.Groups[gi]
		ideal := M(a.Value.Decimal().Mul(gw.Target).Div(a.Target), v.Currency)
		if gi == anchor || ideal.LessThan(gw.Value) {
			// a group tied with the anchor can land a rounding error below
			// its value, it needs nothing either.
			ideal = gw.Value
		}
		gg := GroupGoal{
			Name:         g.Name,
			Target:       gw.Target,
			IdealValue:   ideal,
			CurrentValue: gw.Value,
			Shortfall:    ideal.Sub(gw.Value),
		}
		for _, name := range g.Members {
			i, ok := v.Index(name)
			if !ok {
				continue
			}
			s := last.Securities[i]
			gg.Securities = append(gg.Securities, SecurityGoal{
				Name:  name,
				Price: s.Price,
				Count: s.Count,
				ToBuy: gg.Shortfall.DivPrice(s.Price),
			})
		}
		goal.Groups = append(goal.Groups, gg)
	}
	return goal, nil
}
