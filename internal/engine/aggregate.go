/*
PURPOSE:
  Groups runs by model and recomputes metrics over the pooled data.

REQUIREMENTS:
  User-specified:
  - Rates come from summed counts, never from averaged rates.
  - Latency stats come from every successful call latency.

  Implementation-discovered:
  - Throughput is tagged not applicable rather than zero.
  - Output order is first appearance of each model.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli/run.go
  - Feeds: internal/output (overall CSV, summary table, metrics.prom)

ERROR HANDLING:
  - None.

IMPLEMENTATION RULES:
  - Keep per-call latencies, not per-run averages.

USAGE:
  agg := AggregateByModel(report.All)

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/engine/metrics.go
  - internal/engine/summary.go

MAINTENANCE:
  - Update when RunMetrics gains a summable field.
*/

package engine

import (
	"github.com/daryltucker/llm-bench/internal/model"
)

type modelAggregate struct {
	metrics   model.AggregatedModelMetrics
	latencies []float64
}

// AggregateByModel combines runs sharing a model name into one summary per model,
// in order of first appearance.
//
// Rates are recomputed from summed counts and latency statistics from the pooled
// per-call latencies of every run. Throughput is not applicable across runs.
func AggregateByModel(runs []model.BenchmarkRun) []model.AggregatedModelMetrics {
	var order []string
	groups := make(map[string]*modelAggregate)

	for _, run := range runs {
		agg, ok := groups[run.ModelName]
		if !ok {
			agg = &modelAggregate{metrics: model.AggregatedModelMetrics{ModelName: run.ModelName}}
			groups[run.ModelName] = agg
			order = append(order, run.ModelName)
		}

		m := &agg.metrics
		m.TotalCalls += run.Metrics.TotalCalls
		m.SuccessfulCalls += run.Metrics.SuccessfulCalls
		m.FailedCalls += run.Metrics.FailedCalls
		m.TotalInputTokens += run.Metrics.TotalInputTokens
		m.TotalOutputTokens += run.Metrics.TotalOutputTokens
		m.TotalCost += run.Metrics.TotalCost
		m.ErrorCounts = m.ErrorCounts.Plus(run.Metrics.ErrorCounts)

		for _, out := range run.Responses {
			if out.Success {
				agg.latencies = append(agg.latencies, out.ResponseTime)
			}
		}
	}

	result := make([]model.AggregatedModelMetrics, 0, len(order))
	for _, name := range order {
		agg := groups[name]
		m := agg.metrics
		m.SuccessRate = percent(m.SuccessfulCalls, m.TotalCalls)
		m.ErrorRate = percent(m.FailedCalls, m.TotalCalls)
		m.CostPerCall = perCall(m.TotalCost, m.SuccessfulCalls)
		m.AvgResponseTime, m.MinResponseTime, m.MaxResponseTime = latencyStats(agg.latencies)
		m.Throughput = model.ThroughputNotApplicable()
		result = append(result, m)
	}
	return result
}
