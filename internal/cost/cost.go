/*
PURPOSE:
  Converts token usage into money using a per-model price table.

REQUIREMENTS:
  User-specified:
  - Prices are per 1k tokens, input and output separately.

  Implementation-discovered:
  - A model without pricing costs 0 so a gap never aborts a run.

ARCHITECTURE INTEGRATION:
  - Built from: internal/config model entries
  - Used by: internal/engine/metrics.go

ERROR HANDLING:
  - None. Missing entries are not errors.

IMPLEMENTATION RULES:
  - Keyed by model display name.

USAGE:
  table := TableFromModels(cfg.Models)
  usd := table.Calculate("Nova Lite", 1000, 2000)

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/engine/metrics.go

MAINTENANCE:
  - None.
*/

// Package cost converts token usage into money using a per-model price table.
package cost

import (
	"github.com/daryltucker/llm-bench/internal/model"
)

// Pricing is the price of one thousand tokens in each direction.
type Pricing struct {
	InputPer1k  float64 `json:"input_cost_per_1k_tokens"`
	OutputPer1k float64 `json:"output_cost_per_1k_tokens"`
}

// Table maps a model name to its pricing.
type Table map[string]Pricing

// TableFromModels builds a pricing table from configured models.
func TableFromModels(models []model.ModelSpec) Table {
	t := make(Table, len(models))
	for _, m := range models {
		t[m.Name] = Pricing{
			InputPer1k:  m.InputCostPer1kTokens,
			OutputPer1k: m.OutputCostPer1kTokens,
		}
	}
	return t
}

// Calculate returns the cost of the given usage for modelName.
// A model without a pricing entry costs 0 so a pricing gap never aborts a benchmark.
func (t Table) Calculate(modelName string, inputTokens, outputTokens int) float64 {
	p, ok := t[modelName]
	if !ok {
		return 0
	}
	return float64(inputTokens)/1000*p.InputPer1k + float64(outputTokens)/1000*p.OutputPer1k
}
