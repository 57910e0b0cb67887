/*
PURPOSE:
  High-level runner that orchestrates the benchmarking process.
  Loops through Prompts -> Models and runs one concurrent batch per pair.

REQUIREMENTS:
  User-specified:
  - Run every configured prompt against every configured model.
  - Optional single-model and single-prompt filters.
  - Return per-run records and per-prompt groupings.

  Implementation-discovered:
  - Needs to report progress to CLI while a batch is in flight.
  - Runs are handed to OnRun as they finish so the CLI can stream them to disk.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli
  - Uses: internal/engine (Dispatcher, CalculateMetrics), internal/provider, internal/cost, internal/output

ERROR HANDLING:
  - A filter that matches nothing returns *NotFoundError before any call is made.
  - Per-pair failures are logged and the runner moves on (resilience).
  - Context cancellation stops the loop; runs finished so far are still returned.

IMPLEMENTATION RULES:
  - Prompts outer loop, models inner loop, configuration order.
  - Timestamp captured when a run completes.

USAGE:
  r := engine.NewRunner(registry, cost.TableFromModels(models), 0)
  report, err := r.RunMultiPrompt(ctx, models, prompts, "", "", 100)

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/engine/dispatcher.go
  - internal/engine/metrics.go

MAINTENANCE:
  - Update iteration logic if pairs are ever run in parallel.
*/

package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/daryltucker/llm-bench/internal/cost"
	"github.com/daryltucker/llm-bench/internal/model"
	"github.com/daryltucker/llm-bench/internal/output"
	"github.com/daryltucker/llm-bench/internal/provider"
)

// InvokerSource resolves the invoker for a provider tag.
type InvokerSource interface {
	Lookup(tag string) (provider.Invoker, error)
}

// Progress receives one Add(1) per finished call.
type Progress interface {
	Add(n int) error
	Finish() error
}

// Runner executes benchmark batches.
type Runner struct {
	Invokers   InvokerSource
	Dispatcher *Dispatcher
	Pricing    cost.Table

	// Progress, when set, builds a progress sink for each batch.
	Progress func(m model.ModelSpec, p model.PromptSpec, calls int) Progress
	// OnRun, when set, is called with every completed run.
	OnRun func(model.BenchmarkRun)

	now   func() time.Time
	newID func() string
}

// NewRunner creates a Runner.
func NewRunner(invokers InvokerSource, pricing cost.Table, callTimeout time.Duration) *Runner {
	return &Runner{
		Invokers:   invokers,
		Dispatcher: &Dispatcher{CallTimeout: callTimeout},
		Pricing:    pricing,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// BenchmarkModel runs one concurrent batch of calls for a model and prompt.
func (r *Runner) BenchmarkModel(ctx context.Context, m model.ModelSpec, p model.PromptSpec, calls int) (model.BenchmarkRun, error) {
	inv, err := r.Invokers.Lookup(m.Provider)
	if err != nil {
		return model.BenchmarkRun{}, err
	}

	output.Logger.Info("Starting benchmark", "model", m.Name, "prompt", p.Name, "calls", calls)

	var onDone func(model.CallOutcome)
	if r.Progress != nil {
		bar := r.Progress(m, p, calls)
		defer bar.Finish()
		onDone = func(model.CallOutcome) { _ = bar.Add(1) }
	}

	batch, err := r.Dispatcher.Dispatch(ctx, inv, provider.RequestFor(m, p.Prompt), calls, onDone)
	if err != nil {
		return model.BenchmarkRun{}, err
	}
	// Cancelled batches are discarded.
	if err := ctx.Err(); err != nil {
		return model.BenchmarkRun{}, fmt.Errorf("benchmark interrupted: %w", err)
	}

	return model.BenchmarkRun{
		ModelName:  m.Name,
		RunID:      r.newID(),
		Timestamp:  r.now(),
		PromptInfo: p,
		Metrics:    CalculateMetrics(m.Name, batch.Outcomes, batch.Elapsed, calls, r.Pricing),
		Responses:  batch.Outcomes,
	}, nil
}

// RunSinglePrompt benchmarks one prompt against every selected model.
func (r *Runner) RunSinglePrompt(ctx context.Context, models []model.ModelSpec, p model.PromptSpec, modelFilter string, calls int) ([]model.BenchmarkRun, error) {
	selected, err := SelectModels(models, modelFilter)
	if err != nil {
		return nil, err
	}
	return r.runPrompt(ctx, selected, p, calls)
}

// RunMultiPrompt benchmarks every selected prompt against every selected model.
func (r *Runner) RunMultiPrompt(ctx context.Context, models []model.ModelSpec, prompts []model.PromptSpec, modelFilter, promptFilter string, calls int) (model.Report, error) {
	selectedPrompts, err := SelectPrompts(prompts, promptFilter)
	if err != nil {
		return model.Report{}, err
	}
	selectedModels, err := SelectModels(models, modelFilter)
	if err != nil {
		return model.Report{}, err
	}

	var report model.Report
	for _, p := range selectedPrompts {
		output.Logger.Info("Running benchmark for prompt", "prompt", p.Name, "description", p.Description)

		runs, err := r.runPrompt(ctx, selectedModels, p, calls)
		report.ByPrompt = append(report.ByPrompt, model.PromptResults{Prompt: p, Runs: runs})
		report.All = append(report.All, runs...)
		if err != nil {
			return report, err
		}

		output.Logger.Info("Completed all models for prompt", "prompt", p.Name, "runs", len(runs))
	}
	return report, nil
}

func (r *Runner) runPrompt(ctx context.Context, models []model.ModelSpec, p model.PromptSpec, calls int) ([]model.BenchmarkRun, error) {
	var runs []model.BenchmarkRun
	for _, m := range models {
		if err := ctx.Err(); err != nil {
			return runs, fmt.Errorf("benchmark interrupted: %w", err)
		}

		run, err := r.BenchmarkModel(ctx, m, p, calls)
		if err != nil {
			if ctx.Err() != nil {
				return runs, err
			}
			output.Logger.Error("Failed to benchmark", "model", m.Name, "prompt", p.Name, "error", err)
			continue
		}
		runs = append(runs, run)

		output.Logger.Info("Completed benchmark",
			"model", m.Name,
			"prompt", p.Name,
			"success_rate", fmt.Sprintf("%.1f%%", run.Metrics.SuccessRate),
			"avg_response_time", fmt.Sprintf("%.3fs", run.Metrics.AvgResponseTime),
			"total_cost", fmt.Sprintf("$%.6f", run.Metrics.TotalCost),
		)

		if r.OnRun != nil {
			r.OnRun(run)
		}
	}
	return runs, nil
}
