/*
PURPOSE:
  Exports benchmark metrics in Prometheus text format.

REQUIREMENTS:
  User-specified:
  - Counts, tokens, cost and latency per model.

  Implementation-discovered:
  - Private registry so nothing leaks into a default one.
  - Aggregated throughput is not exported.

ARCHITECTURE INTEGRATION:
  - Called by: internal/output/report.go

ERROR HANDLING:
  - Returns prometheus.WriteToTextfile errors.

IMPLEMENTATION RULES:
  - Namespace llm_bench.

USAGE:
  err := WritePrometheus(path, report.All, aggregated)

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/output/report.go

MAINTENANCE:
  - None.
*/

package output

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/daryltucker/llm-bench/internal/model"
)

const metricsNamespace = "llm_bench"

// latencyBuckets covers sub-second to multi-minute completions.
var latencyBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60, 120}

type benchMetrics struct {
	registry *prometheus.Registry

	calls      *prometheus.GaugeVec
	successful *prometheus.GaugeVec
	errors     *prometheus.GaugeVec
	tokens     *prometheus.GaugeVec
	cost       *prometheus.GaugeVec
	successPct *prometheus.GaugeVec
	throughput *prometheus.GaugeVec
	latency    *prometheus.HistogramVec
}

func newBenchMetrics() *benchMetrics {
	gauge := func(name, help string, labels ...string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: metricsNamespace, Name: name, Help: help}, labels)
	}

	m := &benchMetrics{
		registry:   prometheus.NewRegistry(),
		calls:      gauge("calls_total", "Calls issued per model.", "model"),
		successful: gauge("calls_successful", "Successful calls per model.", "model"),
		errors:     gauge("call_errors", "Failed calls per model and error kind.", "model", "kind"),
		tokens:     gauge("tokens", "Tokens consumed per model and direction.", "model", "direction"),
		cost:       gauge("cost_dollars", "Total cost per model.", "model"),
		successPct: gauge("success_rate_percent", "Success rate per model.", "model"),
		throughput: gauge("run_throughput_calls_per_second", "Calls per second of one run.", "model", "prompt"),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "call_latency_seconds",
			Help:      "Latency of successful calls.",
			Buckets:   latencyBuckets,
		}, []string{"model", "prompt"}),
	}
	m.registry.MustRegister(m.calls, m.successful, m.errors, m.tokens, m.cost, m.successPct, m.throughput, m.latency)
	return m
}

// WritePrometheus exports aggregated and per-run metrics as a Prometheus
// textfile. Aggregated throughput is not exported.
func WritePrometheus(path string, runs []model.BenchmarkRun, aggregated []model.AggregatedModelMetrics) error {
	m := newBenchMetrics()

	for _, agg := range aggregated {
		name := agg.ModelName
		m.calls.WithLabelValues(name).Set(float64(agg.TotalCalls))
		m.successful.WithLabelValues(name).Set(float64(agg.SuccessfulCalls))
		m.successPct.WithLabelValues(name).Set(agg.SuccessRate)
		m.cost.WithLabelValues(name).Set(agg.TotalCost)
		m.tokens.WithLabelValues(name, "input").Set(float64(agg.TotalInputTokens))
		m.tokens.WithLabelValues(name, "output").Set(float64(agg.TotalOutputTokens))
		for _, kind := range model.ErrorKinds {
			m.errors.WithLabelValues(name, string(kind)).Set(float64(agg.ErrorCounts.Get(kind)))
		}
	}

	for _, run := range runs {
		m.throughput.WithLabelValues(run.ModelName, run.PromptInfo.Name).Set(run.Metrics.Throughput)
		hist := m.latency.WithLabelValues(run.ModelName, run.PromptInfo.Name)
		for _, out := range run.Responses {
			if out.Success {
				hist.Observe(out.ResponseTime)
			}
		}
	}

	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write prometheus metrics: %w", err)
	}
	return nil
}
