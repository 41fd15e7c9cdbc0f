// Package renderer turns valuation reports into markdown.
package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/valuation"
)

// Report gathers everything the report command prints.
type Report struct {
	Title       string
	Status      *valuation.StatusReport
	Weights     *valuation.Weights // nil without weight groups
	Goal        *valuation.Goal    // nil without weight groups
	Performance *valuation.PerformanceReport
}

// ReportMarkdown renders every section of r that is set, in the order status,
// weights, goal, performance.
func ReportMarkdown(r *Report) string {
	var b strings.Builder
	if r.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", r.Title)
	}
	if r.Status != nil {
		b.WriteString(StatusMarkdown(r.Status))
		b.WriteString("\n")
	}
	if r.Weights != nil {
		b.WriteString(WeightsMarkdown(r.Weights))
		b.WriteString("\n")
	}
	if r.Goal != nil {
		b.WriteString(GoalMarkdown(r.Goal))
		b.WriteString("\n")
	}
	if r.Performance != nil {
		b.WriteString(PerformanceMarkdown(r.Performance))
	}
	return b.String()
}
