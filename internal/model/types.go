/*
PURPOSE:
  Defines the core data structures used throughout LLM Bench.
  These models represent configured targets, single call outcomes,
  per-run metrics and cross-run aggregates.

REQUIREMENTS:
  User-specified:
  - Record latency, token usage, cost and a classified error per call.
  - Track model name, prompt metadata and timestamp per run.

  Implementation-discovered:
  - Need JSON tags matching the answers/report files.
  - Aggregated throughput is not a number; it needs its own type.

ARCHITECTURE INTEGRATION:
  - Used by: internal/engine, internal/provider, internal/output, internal/config
  - Shared across boundaries.

ERROR HANDLING:
  - None (pure data structs).

IMPLEMENTATION RULES:
  - Keep structs simple and public.
  - Values are never mutated after they are returned by the engine.

USAGE:
  out := model.CallOutcome{CallID: 1, Success: true, ...}

SELF-HEALING INSTRUCTIONS:
  - If new metrics are needed, add field and update CSV/JSON writers.

RELATED FILES:
  - internal/model/metrics.go
  - internal/output/csv.go

MAINTENANCE:
  - Update when adding new metrics to capture.
*/

package model

import (
	"time"
)

// ErrorKind is the closed classification of a failed call.
type ErrorKind string

const (
	ErrorRateLimit  ErrorKind = "rate_limit"
	ErrorTimeout    ErrorKind = "timeout"
	ErrorValidation ErrorKind = "validation_error"
	ErrorAuth       ErrorKind = "auth_error"
	ErrorService    ErrorKind = "service_error"
	ErrorException  ErrorKind = "exception"
)

// TaskExceptionCode is the code given to faults that escape an invoker entirely.
const TaskExceptionCode = "TaskException"

// ErrorKinds lists every kind in report column order.
var ErrorKinds = []ErrorKind{
	ErrorTimeout,
	ErrorRateLimit,
	ErrorService,
	ErrorAuth,
	ErrorValidation,
	ErrorException,
}

// Known reports whether k is one of the six named kinds.
func (k ErrorKind) Known() bool {
	for _, kind := range ErrorKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// ModelSpec describes one model under test.
type ModelSpec struct {
	Name                  string  `json:"name"`
	Provider              string  `json:"provider"`
	ModelID               string  `json:"model_id"`
	Region                string  `json:"region,omitempty"`
	MaxTokens             int     `json:"max_tokens"`
	Temperature           float64 `json:"temperature"`
	InputCostPer1kTokens  float64 `json:"input_cost_per_1k_tokens"`
	OutputCostPer1kTokens float64 `json:"output_cost_per_1k_tokens"`
}

// PromptSpec describes one prompt under test.
type PromptSpec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
}

// CallError is the failure detail of a CallOutcome.
type CallError struct {
	Kind    ErrorKind `json:"type"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// CallOutcome is the normalized result of a single inference attempt.
// Error is non-nil exactly when Success is false.
type CallOutcome struct {
	CallID       int        `json:"call_id"`
	Success      bool       `json:"success"`
	ResponseTime float64    `json:"response_time"` // seconds
	InputTokens  int        `json:"input_tokens"`
	OutputTokens int        `json:"output_tokens"`
	Response     string     `json:"response"`
	Error        *CallError `json:"error"`
}

// Failure builds a failed outcome.
func Failure(kind ErrorKind, code, message string, responseTime float64) CallOutcome {
	return CallOutcome{
		Success:      false,
		ResponseTime: responseTime,
		Error: &CallError{
			Kind:    kind,
			Code:    code,
			Message: message,
		},
	}
}

// BenchmarkRun is the detailed record of one (model, prompt) batch.
type BenchmarkRun struct {
	ModelName  string        `json:"model_name"`
	RunID      string        `json:"run_id"`
	Timestamp  time.Time     `json:"timestamp"`
	PromptInfo PromptSpec    `json:"prompt_info"`
	Metrics    RunMetrics    `json:"metrics"`
	Responses  []CallOutcome `json:"responses"`
}

// PromptResults groups the runs produced for one prompt, in model order.
type PromptResults struct {
	Prompt PromptSpec     `json:"prompt"`
	Runs   []BenchmarkRun `json:"runs"`
}

// Report is everything a benchmark invocation produced.
type Report struct {
	All      []BenchmarkRun  `json:"all_results"`
	ByPrompt []PromptResults `json:"prompt_results"`
}
