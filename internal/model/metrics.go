/*
PURPOSE:
  Metric shapes shared by the engine and the writers.

REQUIREMENTS:
  User-specified:
  - Six error buckets.
  - Aggregated throughput is a tagged value, N/A distinct from 0.

  Implementation-discovered:
  - Throughput marshals to "N/A" when not applicable.

ARCHITECTURE INTEGRATION:
  - Used by: internal/engine, internal/output

ERROR HANDLING:
  - UnmarshalJSON accepts numbers, "N/A" and null; anything else is an error.

IMPLEMENTATION RULES:
  - Plain data; no behavior beyond counting and formatting.

USAGE:
  var c model.ErrorCounts
  c.Add(model.ErrorTimeout)

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/model/types.go

MAINTENANCE:
  - None.
*/

package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ErrorCounts tallies failures into the six error buckets.
type ErrorCounts struct {
	Timeout    int `json:"errors_timeout"`
	RateLimit  int `json:"errors_rate_limit"`
	Service    int `json:"errors_service"`
	Auth       int `json:"errors_auth"`
	Validation int `json:"errors_validation"`
	Exception  int `json:"errors_exception"`
}

// Add counts one failure of the given kind. Unknown kinds land in Service.
func (c *ErrorCounts) Add(kind ErrorKind) {
	switch kind {
	case ErrorTimeout:
		c.Timeout++
	case ErrorRateLimit:
		c.RateLimit++
	case ErrorAuth:
		c.Auth++
	case ErrorValidation:
		c.Validation++
	case ErrorException:
		c.Exception++
	default:
		c.Service++
	}
}

// Get returns the count for kind.
func (c ErrorCounts) Get(kind ErrorKind) int {
	switch kind {
	case ErrorTimeout:
		return c.Timeout
	case ErrorRateLimit:
		return c.RateLimit
	case ErrorService:
		return c.Service
	case ErrorAuth:
		return c.Auth
	case ErrorValidation:
		return c.Validation
	case ErrorException:
		return c.Exception
	}
	return 0
}

// Plus returns the bucket-wise sum of c and o.
func (c ErrorCounts) Plus(o ErrorCounts) ErrorCounts {
	return ErrorCounts{
		Timeout:    c.Timeout + o.Timeout,
		RateLimit:  c.RateLimit + o.RateLimit,
		Service:    c.Service + o.Service,
		Auth:       c.Auth + o.Auth,
		Validation: c.Validation + o.Validation,
		Exception:  c.Exception + o.Exception,
	}
}

// Total is the number of failures across all buckets.
func (c ErrorCounts) Total() int {
	return c.Timeout + c.RateLimit + c.Service + c.Auth + c.Validation + c.Exception
}

// RunMetrics summarizes one batch of calls for one (model, prompt) pair.
// Latency values are seconds over successful calls only.
type RunMetrics struct {
	TotalCalls        int     `json:"total_calls"`
	SuccessfulCalls   int     `json:"successful_calls"`
	FailedCalls       int     `json:"failed_calls"`
	SuccessRate       float64 `json:"success_rate"`
	ErrorRate         float64 `json:"error_rate"`
	Throughput        float64 `json:"throughput"`
	AvgResponseTime   float64 `json:"avg_response_time"`
	MinResponseTime   float64 `json:"min_response_time"`
	MaxResponseTime   float64 `json:"max_response_time"`
	TotalInputTokens  int     `json:"total_input_tokens"`
	TotalOutputTokens int     `json:"total_output_tokens"`
	TotalCost         float64 `json:"total_cost"`
	CostPerCall       float64 `json:"cost_per_call"`
	ErrorCounts
}

// AggregatedModelMetrics is RunMetrics recomputed over every run of one model.
type AggregatedModelMetrics struct {
	ModelName         string     `json:"model_name"`
	TotalCalls        int        `json:"total_calls"`
	SuccessfulCalls   int        `json:"successful_calls"`
	FailedCalls       int        `json:"failed_calls"`
	SuccessRate       float64    `json:"success_rate"`
	ErrorRate         float64    `json:"error_rate"`
	Throughput        Throughput `json:"throughput"`
	AvgResponseTime   float64    `json:"avg_response_time"`
	MinResponseTime   float64    `json:"min_response_time"`
	MaxResponseTime   float64    `json:"max_response_time"`
	TotalInputTokens  int        `json:"total_input_tokens"`
	TotalOutputTokens int        `json:"total_output_tokens"`
	TotalCost         float64    `json:"total_cost"`
	CostPerCall       float64    `json:"cost_per_call"`
	ErrorCounts
}

// NotApplicable is the text used for a throughput that has no meaning.
const NotApplicable = "N/A"

// Throughput is either a calls/second value or explicitly not applicable.
// The zero value is not applicable.
type Throughput struct {
	value      float64
	applicable bool
}

// MeasuredThroughput wraps a meaningful calls/second value.
func MeasuredThroughput(v float64) Throughput {
	return Throughput{value: v, applicable: true}
}

// ThroughputNotApplicable marks a throughput that cannot be computed.
func ThroughputNotApplicable() Throughput {
	return Throughput{}
}

// Value returns the throughput and whether it is meaningful.
func (t Throughput) Value() (float64, bool) {
	return t.value, t.applicable
}

// Applicable reports whether the throughput carries a value.
func (t Throughput) Applicable() bool {
	return t.applicable
}

// Format renders the value with the given precision, or N/A.
func (t Throughput) Format(precision int) string {
	if !t.applicable {
		return NotApplicable
	}
	return strconv.FormatFloat(t.value, 'f', precision, 64)
}

func (t Throughput) String() string {
	return t.Format(2)
}

func (t Throughput) MarshalJSON() ([]byte, error) {
	if !t.applicable {
		return json.Marshal(NotApplicable)
	}
	return json.Marshal(t.value)
}

func (t *Throughput) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = ThroughputNotApplicable()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*t = MeasuredThroughput(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("throughput must be a number or %q: %w", NotApplicable, err)
	}
	if s != NotApplicable {
		return fmt.Errorf("throughput must be a number or %q, got %q", NotApplicable, s)
	}
	*t = ThroughputNotApplicable()
	return nil
}

// OverallSummary is the roll-up of every aggregated model in a benchmark.
type OverallSummary struct {
	PromptsTested   int
	TotalCalls      int
	SuccessfulCalls int
	SuccessRate     float64
	TotalCost       float64

	// AvgCostPerCall is per successful call, set only when HasAvgCostPerCall.
	AvgCostPerCall    float64
	HasAvgCostPerCall bool
}
