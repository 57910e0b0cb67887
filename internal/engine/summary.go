/*
PURPOSE:
  Builds the overall totals printed after a benchmark.

REQUIREMENTS:
  User-specified:
  - Prompts tested, total and successful calls, success rate, cost.

  Implementation-discovered:
  - Average cost per call is only defined when a call succeeded.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli/run.go
  - Printed by: internal/output/summary.go

ERROR HANDLING:
  - None.

IMPLEMENTATION RULES:
  - Derived from aggregated metrics only.

USAGE:
  s := Summarize(len(report.ByPrompt), aggregated)

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/engine/aggregate.go

MAINTENANCE:
  - None.
*/

package engine

import (
	"github.com/daryltucker/llm-bench/internal/model"
)

// Summarize rolls aggregated model metrics up into one overall summary.
func Summarize(promptsTested int, aggregated []model.AggregatedModelMetrics) model.OverallSummary {
	s := model.OverallSummary{PromptsTested: promptsTested}
	for _, m := range aggregated {
		s.TotalCalls += m.TotalCalls
		s.SuccessfulCalls += m.SuccessfulCalls
		s.TotalCost += m.TotalCost
	}
	s.SuccessRate = percent(s.SuccessfulCalls, s.TotalCalls)
	if s.SuccessfulCalls > 0 {
		s.AvgCostPerCall = s.TotalCost / float64(s.SuccessfulCalls)
		s.HasAvgCostPerCall = true
	}
	return s
}
