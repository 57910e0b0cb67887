/*
PURPOSE:
  Turns one batch of call outcomes into RunMetrics.

REQUIREMENTS:
  User-specified:
  - Latency over successful calls only; zeros when none succeeded.
  - Rates and per-call cost never divide by zero.

  Implementation-discovered:
  - Unknown error kinds count as service_error.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine/runner.go
  - Uses: internal/cost

ERROR HANDLING:
  - None. Every input produces a value.

IMPLEMENTATION RULES:
  - Pure function of its inputs.

USAGE:
  m := CalculateMetrics(name, batch.Outcomes, batch.Elapsed, n, pricing)

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/model/metrics.go
  - internal/engine/aggregate.go

MAINTENANCE:
  - None.
*/

package engine

import (
	"time"

	"github.com/daryltucker/llm-bench/internal/cost"
	"github.com/daryltucker/llm-bench/internal/model"
)

// CalculateMetrics reduces one batch of outcomes to RunMetrics.
// totalCalls is the nominal call count of the batch.
func CalculateMetrics(modelName string, outcomes []model.CallOutcome, elapsed time.Duration, totalCalls int, pricing cost.Table) model.RunMetrics {
	m := model.RunMetrics{TotalCalls: totalCalls}

	var latencies []float64
	for _, out := range outcomes {
		if out.Success {
			m.SuccessfulCalls++
			m.TotalInputTokens += out.InputTokens
			m.TotalOutputTokens += out.OutputTokens
			latencies = append(latencies, out.ResponseTime)
			continue
		}
		m.FailedCalls++
		kind := model.ErrorService
		if out.Error != nil {
			kind = out.Error.Kind
		}
		m.ErrorCounts.Add(kind)
	}

	m.AvgResponseTime, m.MinResponseTime, m.MaxResponseTime = latencyStats(latencies)
	m.SuccessRate = percent(m.SuccessfulCalls, totalCalls)
	m.ErrorRate = percent(m.FailedCalls, totalCalls)
	if secs := elapsed.Seconds(); secs > 0 {
		m.Throughput = float64(totalCalls) / secs
	}

	m.TotalCost = pricing.Calculate(modelName, m.TotalInputTokens, m.TotalOutputTokens)
	m.CostPerCall = perCall(m.TotalCost, m.SuccessfulCalls)
	return m
}

// latencyStats returns avg, min and max; all zero for an empty set.
func latencyStats(values []float64) (avg, lowest, highest float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	lowest, highest = values[0], values[0]
	var sum float64
	for _, v := range values {
		sum += v
		if v < lowest {
			lowest = v
		}
		if v > highest {
			highest = v
		}
	}
	return sum / float64(len(values)), lowest, highest
}

func percent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func perCall(total float64, successes int) float64 {
	if successes <= 0 {
		return 0
	}
	return total / float64(successes)
}
