/*
PURPOSE:
  Console summary table and overall totals.

REQUIREMENTS:
  User-specified:
  - One row per model; overall totals with duration.

  Implementation-discovered:
  - Names truncated by rune so UTF-8 stays valid.
  - Colors disabled automatically off a terminal.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli/run.go

ERROR HANDLING:
  - None. Write errors to the console are ignored.

IMPLEMENTATION RULES:
  - Formatting helpers shared with csv.go live here.

USAGE:
  PrintSummaryTable(os.Stdout, aggregated)

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/engine/summary.go

MAINTENANCE:
  - None.
*/

package output

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/daryltucker/llm-bench/internal/model"
)

var (
	heading = color.New(color.Bold).SprintFunc()
	good    = color.New(color.FgGreen).SprintFunc()
	warn    = color.New(color.FgYellow).SprintFunc()
	bad     = color.New(color.FgRed).SprintFunc()
)

const tableWidth = 100

// FormatCost renders a dollar amount with precision scaled to its size.
func FormatCost(cost float64) string {
	switch {
	case cost < 0.01:
		return fmt.Sprintf("$%.6f", cost)
	case cost < 1.0:
		return fmt.Sprintf("$%.4f", cost)
	default:
		return fmt.Sprintf("$%.2f", cost)
	}
}

// FormatDuration renders seconds, minutes or hours with one decimal.
func FormatDuration(d time.Duration) string {
	s := d.Seconds()
	switch {
	case s < 60:
		return fmt.Sprintf("%.1fs", s)
	case s < 3600:
		return fmt.Sprintf("%.1fm", s/60)
	default:
		return fmt.Sprintf("%.1fh", s/3600)
	}
}

func roundTo(v float64, prec int) float64 {
	p := math.Pow(10, float64(prec))
	return math.Round(v*p) / p
}

func rateColor(rate float64) func(...interface{}) string {
	switch {
	case rate >= 95:
		return good
	case rate >= 80:
		return warn
	default:
		return bad
	}
}

// PrintSummaryTable writes one row per aggregated model.
func PrintSummaryTable(w io.Writer, results []model.AggregatedModelMetrics) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results to display")
		return
	}

	rule := strings.Repeat("=", tableWidth)
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, heading("BENCHMARK SUMMARY"))
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%-20s %-8s %-9s %-10s %-12s %-12s %-8s\n",
		"Model", "Calls", "Success%", "Avg Time", "Throughput", "Total Cost", "Errors")
	fmt.Fprintln(w, strings.Repeat("-", tableWidth))

	for _, m := range results {
		name := truncate(m.ModelName, 19)
		throughput := m.Throughput.Format(2)
		if m.Throughput.Applicable() {
			throughput += "/s"
		}
		errors := fmt.Sprintf("%-8d", m.FailedCalls)
		if m.FailedCalls > 0 {
			errors = bad(errors)
		}

		fmt.Fprintf(w, "%-20s %-8d %s %-10s %-12s %-12s %s\n",
			name,
			m.TotalCalls,
			rateColor(m.SuccessRate)(fmt.Sprintf("%-9s", fmt.Sprintf("%.1f%%", m.SuccessRate))),
			fmt.Sprintf("%.3fs", m.AvgResponseTime),
			throughput,
			FormatCost(m.TotalCost),
			errors,
		)
	}
	fmt.Fprintln(w, rule)
}

// PrintOverallSummary writes the roll-up across every model and prompt.
func PrintOverallSummary(w io.Writer, s model.OverallSummary, elapsed time.Duration) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, heading("OVERALL SUMMARY"))
	fmt.Fprintf(w, "Prompts tested:       %d\n", s.PromptsTested)
	fmt.Fprintf(w, "Total API calls:      %d\n", s.TotalCalls)
	fmt.Fprintf(w, "Total successful:     %d\n", s.SuccessfulCalls)
	fmt.Fprintf(w, "Overall success rate: %s\n", rateColor(s.SuccessRate)(fmt.Sprintf("%.1f%%", s.SuccessRate)))
	fmt.Fprintf(w, "Total cost:           %s\n", FormatCost(s.TotalCost))
	avg := model.NotApplicable
	if s.HasAvgCostPerCall {
		avg = FormatCost(s.AvgCostPerCall)
	}
	fmt.Fprintf(w, "Average cost/call:    %s\n", avg)
	fmt.Fprintf(w, "Total duration:       %s\n", FormatDuration(elapsed))
}

// truncate keeps at most n runes of s.
func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}
