/*
PURPOSE:
  Writes benchmark metrics to a CSV file.
  One row per model, shared by per-prompt and overall results.

REQUIREMENTS:
  User-specified:
  - Output to CSV with the same columns for per-prompt and overall files.
  - Aggregated throughput is written as N/A.

  Implementation-discovered:
  - Rounding: rates and throughput 2 dp, times 3 dp, costs 6 dp.

ARCHITECTURE INTEGRATION:
  - Called by: internal/output/report.go
  - Consumes: internal/model.RunMetrics, internal/model.AggregatedModelMetrics

ERROR HANDLING:
  - Returns error on file creation or write failure.

IMPLEMENTATION RULES:
  - Use encoding/csv.
  - Flush() after every write (critical for crash resilience).
  - Mutex guards the writer.

USAGE:
  w, err := output.NewCSVWriter("prompt_results.csv")
  w.WriteRun(run.ModelName, run.Metrics)
  w.Close()

SELF-HEALING INSTRUCTIONS:
  - If CSV format changes, update CSVHeader and metricsRecord together.

RELATED FILES:
  - internal/model/metrics.go

MAINTENANCE:
  - Update metricsRecord when metric fields change.
*/

package output

import (
	"encoding/csv"
	"os"
	"strconv"
	"sync"

	"github.com/daryltucker/llm-bench/internal/model"
)

// CSVHeader is the column order of every results CSV.
var CSVHeader = []string{
	"model_name", "total_calls", "successful_calls", "failed_calls",
	"success_rate", "error_rate", "throughput",
	"avg_response_time", "min_response_time", "max_response_time",
	"total_input_tokens", "total_output_tokens", "total_cost", "cost_per_call",
	"errors_timeout", "errors_rate_limit", "errors_service",
	"errors_auth", "errors_validation", "errors_exception",
}

// CSVWriter handles writing metrics rows to a CSV file.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVWriter creates a new CSVWriter.
// It overwrites the file if it exists.
func NewCSVWriter(path string) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := csv.NewWriter(f)
	if err := w.Write(CSVHeader); err != nil {
		f.Close()
		return nil, err
	}
	w.Flush()

	return &CSVWriter{
		file:   f,
		writer: w,
	}, nil
}

// WriteRun writes the metrics of one run.
func (cw *CSVWriter) WriteRun(modelName string, m model.RunMetrics) error {
	return cw.write(metricsRecord(modelName, metricsColumns{
		total:      m.TotalCalls,
		successes:  m.SuccessfulCalls,
		failures:   m.FailedCalls,
		successPct: m.SuccessRate,
		errorPct:   m.ErrorRate,
		throughput: round(m.Throughput, 2),
		avg:        m.AvgResponseTime,
		min:        m.MinResponseTime,
		max:        m.MaxResponseTime,
		inTokens:   m.TotalInputTokens,
		outTokens:  m.TotalOutputTokens,
		cost:       m.TotalCost,
		perCall:    m.CostPerCall,
		errors:     m.ErrorCounts,
	}))
}

// WriteAggregate writes the metrics of one aggregated model.
func (cw *CSVWriter) WriteAggregate(m model.AggregatedModelMetrics) error {
	return cw.write(metricsRecord(m.ModelName, metricsColumns{
		total:      m.TotalCalls,
		successes:  m.SuccessfulCalls,
		failures:   m.FailedCalls,
		successPct: m.SuccessRate,
		errorPct:   m.ErrorRate,
		throughput: m.Throughput.Format(2),
		avg:        m.AvgResponseTime,
		min:        m.MinResponseTime,
		max:        m.MaxResponseTime,
		inTokens:   m.TotalInputTokens,
		outTokens:  m.TotalOutputTokens,
		cost:       m.TotalCost,
		perCall:    m.CostPerCall,
		errors:     m.ErrorCounts,
	}))
}

func (cw *CSVWriter) write(record []string) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if err := cw.writer.Write(record); err != nil {
		return err
	}
	cw.writer.Flush()
	return cw.writer.Error()
}

// Close closes the underlying file.
func (cw *CSVWriter) Close() error {
	cw.writer.Flush()
	return cw.file.Close()
}

type metricsColumns struct {
	total, successes, failures int
	successPct, errorPct       float64
	throughput                 string
	avg, min, max              float64
	inTokens, outTokens        int
	cost, perCall              float64
	errors                     model.ErrorCounts
}

func metricsRecord(modelName string, c metricsColumns) []string {
	return []string{
		modelName,
		strconv.Itoa(c.total),
		strconv.Itoa(c.successes),
		strconv.Itoa(c.failures),
		round(c.successPct, 2),
		round(c.errorPct, 2),
		c.throughput,
		round(c.avg, 3),
		round(c.min, 3),
		round(c.max, 3),
		strconv.Itoa(c.inTokens),
		strconv.Itoa(c.outTokens),
		round(c.cost, 6),
		round(c.perCall, 6),
		strconv.Itoa(c.errors.Timeout),
		strconv.Itoa(c.errors.RateLimit),
		strconv.Itoa(c.errors.Service),
		strconv.Itoa(c.errors.Auth),
		strconv.Itoa(c.errors.Validation),
		strconv.Itoa(c.errors.Exception),
	}
}

// round formats v with at most prec decimals and no trailing zeros.
func round(v float64, prec int) string {
	return strconv.FormatFloat(roundTo(v, prec), 'f', -1, 64)
}
